package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/pkg/logger"
)

// Timeout bounds the handler's context. If the handler has not started its
// response when the deadline passes, the client gets a 504 and anything the
// handler writes afterwards is dropped. Handlers observe the cancelled
// context and return early.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if timeout <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			tw := &timeoutWriter{w: w, header: make(http.Header)}
			done := make(chan struct{})
			panicked := make(chan any, 1)
			go func() {
				defer func() {
					if p := recover(); p != nil {
						panicked <- p
					}
				}()
				next.ServeHTTP(tw, r.WithContext(ctx))
				close(done)
			}()

			select {
			case p := <-panicked:
				panic(p)
			case <-done:
			case <-ctx.Done():
			}
			if errors.Is(ctx.Err(), context.DeadlineExceeded) && tw.expire() {
				logger.FromContext(r.Context()).Warn("request timed out",
					"method", r.Method, "path", r.URL.Path, "timeout", timeout)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusGatewayTimeout)
				json.NewEncoder(w).Encode(map[string]string{
					"error": fmt.Sprintf("request exceeded %v", timeout),
				})
				return
			}
			// The handler already committed to a response; let it finish.
			select {
			case p := <-panicked:
				panic(p)
			case <-done:
			}
			tw.finish()
		})
	}
}

// timeoutWriter buffers header changes until the handler commits to a
// response, so an expired request never races the handler on w.Header().
type timeoutWriter struct {
	w      http.ResponseWriter
	header http.Header

	mu       sync.Mutex
	started  bool
	timedOut bool
}

func (tw *timeoutWriter) Header() http.Header { return tw.header }

func (tw *timeoutWriter) WriteHeader(code int) {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if tw.timedOut || tw.started {
		return
	}
	tw.start()
	tw.w.WriteHeader(code)
}

func (tw *timeoutWriter) Write(b []byte) (int, error) {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if tw.timedOut {
		return 0, http.ErrHandlerTimeout
	}
	if !tw.started {
		tw.start()
	}
	return tw.w.Write(b)
}

// start copies the buffered headers out. Callers hold mu.
func (tw *timeoutWriter) start() {
	dst := tw.w.Header()
	for k, v := range tw.header {
		dst[k] = v
	}
	tw.started = true
}

// finish copies headers of a handler that returned without writing.
func (tw *timeoutWriter) finish() {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if !tw.started && !tw.timedOut {
		tw.start()
	}
}

// expire marks the writer timed out unless the handler already started
// responding, and reports whether the caller should write the 504.
func (tw *timeoutWriter) expire() bool {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if tw.started {
		return false
	}
	tw.timedOut = true
	return true
}
