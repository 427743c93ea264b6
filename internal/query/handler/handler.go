// Package handler serves the read side of the corpus over HTTP: vectors,
// neighbor maps and dictionary lookups.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/query/neighbor"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/query/vector"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/token"
	apperrors "github.com/Adithya-Monish-Kumar-K/temporal-corpus/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/pkg/logger"
)

type VectorQuerier interface {
	Query(ctx context.Context, r vector.Request) ([]float64, error)
}

type MapQuerier interface {
	Query(ctx context.Context, r neighbor.Request) ([]float64, error)
}

type Dictionary interface {
	Lookup(ctx context.Context, v token.Variant, length int, key string) (int64, bool, error)
}

type Handler struct {
	vectors    VectorQuerier
	maps       MapQuerier
	dict       Dictionary
	normalizer *token.Normalizer
	logger     *slog.Logger
}

func New(vectors VectorQuerier, maps MapQuerier, dict Dictionary, n *token.Normalizer) *Handler {
	return &Handler{
		vectors:    vectors,
		maps:       maps,
		dict:       dict,
		normalizer: n,
		logger:     slog.Default().With("component", "query-handler"),
	}
}

// Register mounts the query routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/vectors", h.Vector)
	mux.HandleFunc("GET /api/v1/maps", h.Map)
	mux.HandleFunc("GET /api/v1/dictionary/{variant}/{n}", h.Lookup)
}

type vectorResponse struct {
	Source    string    `json:"source"`
	Variant   string    `json:"variant"`
	N         int       `json:"n"`
	Statistic string    `json:"statistic"`
	Start     time.Time `json:"start"`
	Stop      time.Time `json:"stop"`
	Vector    []float64 `json:"vector"`
}

func (h *Handler) Vector(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	req := vector.Request{Source: q.Get("source")}
	var err error
	if req.Variant, err = token.ParseVariant(q.Get("variant")); err != nil {
		h.fail(ctx, w, err)
		return
	}
	if req.Length, err = parseLength(q.Get("n")); err != nil {
		h.fail(ctx, w, err)
		return
	}
	if req.Statistic, err = vector.ParseStatistic(defaultString(q.Get("stat"), "count")); err != nil {
		h.fail(ctx, w, err)
		return
	}
	if req.Start, req.Stop, err = parseRange(q.Get("start"), q.Get("stop")); err != nil {
		h.fail(ctx, w, err)
		return
	}

	v, err := h.vectors.Query(ctx, req)
	if err != nil {
		h.fail(ctx, w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, vectorResponse{
		Source:    req.Source,
		Variant:   req.Variant.String(),
		N:         req.Length,
		Statistic: req.Statistic.String(),
		Start:     req.Start.UTC(),
		Stop:      req.Stop.UTC(),
		Vector:    v,
	})
}

type mapResponse struct {
	Source   string    `json:"source"`
	Variant  string    `json:"variant"`
	Key      string    `json:"key"`
	Position int       `json:"position"`
	Start    time.Time `json:"start"`
	Stop     time.Time `json:"stop"`
	Map      []float64 `json:"map"`
}

// Map builds the query gram from the space-separated terms parameter. The
// words are tagged like ingested text unless pos supplies one Penn tag per
// word, comma separated.
func (h *Handler) Map(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	variant, err := token.ParseVariant(q.Get("variant"))
	if err != nil {
		h.fail(ctx, w, err)
		return
	}
	gram, err := h.gram(variant, q.Get("terms"), q.Get("pos"))
	if err != nil {
		h.fail(ctx, w, err)
		return
	}
	position := 0
	if p := q.Get("position"); p != "" {
		if position, err = strconv.Atoi(p); err != nil {
			h.fail(ctx, w, apperrors.Invalid("position must be an integer"))
			return
		}
	}
	req := neighbor.Request{Gram: gram, Source: q.Get("source"), Position: position}
	if req.Start, req.Stop, err = parseRange(q.Get("start"), q.Get("stop")); err != nil {
		h.fail(ctx, w, err)
		return
	}

	m, err := h.maps.Query(ctx, req)
	if err != nil {
		h.fail(ctx, w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, mapResponse{
		Source:   req.Source,
		Variant:  variant.String(),
		Key:      gram.Key(),
		Position: position,
		Start:    req.Start.UTC(),
		Stop:     req.Stop.UTC(),
		Map:      m,
	})
}

func (h *Handler) gram(v token.Variant, terms, pos string) (token.Gram, error) {
	if strings.TrimSpace(terms) == "" {
		return token.Gram{}, apperrors.Invalid("terms is required")
	}
	words, err := h.normalizer.Phrase(terms)
	if err != nil {
		return token.Gram{}, err
	}
	if pos != "" {
		tags := strings.Split(pos, ",")
		if len(tags) != len(words) {
			return token.Gram{}, apperrors.Invalid("pos has %d tags for %d terms", len(tags), len(words))
		}
		for i := range words {
			words[i].POS = strings.TrimSpace(tags[i])
		}
	}
	return h.normalizer.Gram(v, words)
}

type lookupResponse struct {
	Variant string `json:"variant"`
	N       int    `json:"n"`
	Key     string `json:"key"`
	Index   int64  `json:"index"`
}

// Lookup resolves a term key to its index without creating it.
func (h *Handler) Lookup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	variant, err := token.ParseVariant(r.PathValue("variant"))
	if err != nil {
		h.fail(ctx, w, err)
		return
	}
	n, err := parseLength(r.PathValue("n"))
	if err != nil {
		h.fail(ctx, w, err)
		return
	}
	key := strings.Join(strings.Fields(r.URL.Query().Get("key")), " ")
	if key == "" {
		h.fail(ctx, w, apperrors.Invalid("key is required"))
		return
	}
	idx, ok, err := h.dict.Lookup(ctx, variant, n, key)
	if err != nil {
		h.fail(ctx, w, err)
		return
	}
	if !ok {
		h.fail(ctx, w, apperrors.Newf(apperrors.ErrNotFound, http.StatusNotFound, "%s/%d %q", variant, n, key))
		return
	}
	h.writeJSON(w, http.StatusOK, lookupResponse{Variant: variant.String(), N: n, Key: key, Index: idx})
}

func parseLength(s string) (int, error) {
	n, err := strconv.Atoi(defaultString(s, "1"))
	if err != nil || n < 1 || n > token.MaxGramLength {
		return 0, apperrors.Invalid("n must be an integer in 1..%d", token.MaxGramLength)
	}
	return n, nil
}

func parseRange(start, stop string) (time.Time, time.Time, error) {
	s, err := time.Parse(time.RFC3339, start)
	if err != nil {
		return time.Time{}, time.Time{}, apperrors.Invalid("start must be an RFC 3339 timestamp")
	}
	e, err := time.Parse(time.RFC3339, stop)
	if err != nil {
		return time.Time{}, time.Time{}, apperrors.Invalid("stop must be an RFC 3339 timestamp")
	}
	return s, e, nil
}

func defaultString(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatusCode(err)
	if status >= http.StatusInternalServerError {
		logger.FromContext(ctx).Error("query failed", "error", err, "status_code", status)
		h.writeError(w, status, "internal error")
		return
	}
	h.writeError(w, status, err.Error())
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
