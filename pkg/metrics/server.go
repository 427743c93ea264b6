package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Route is an extra handler mounted beside /metrics, typically a health
// probe for processes that have no API port of their own.
type Route struct {
	Pattern string
	Handler http.Handler
}

// StartServer serves GET /metrics and routes on port in the background and
// returns its shutdown func.
func StartServer(port int, routes ...Route) (shutdown func(context.Context) error) {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", Handler())
	for _, r := range routes {
		mux.Handle(r.Pattern, r.Handler)
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
	logger := slog.Default().With("component", "metrics-server", "addr", server.Addr)

	go func() {
		logger.Info("metrics server listening", "routes", len(routes)+1)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server error", "error", err)
		}
	}()

	return server.Shutdown
}
