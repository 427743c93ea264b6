package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/dictionary"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/ingestion/pipeline"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/ingestion/queue"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/store/memstore"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/token/tokentest"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/pkg/metrics"
)

func newServer(t *testing.T) *http.ServeMux {
	t.Helper()
	s := memstore.New()
	d, err := dictionary.New(s, 64, metrics.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	p := pipeline.New(s, s, d, []int{1, 2}, metrics.NewNop())
	q := queue.NewLocal(p, tokentest.Normalizer(), 2, 8, metrics.NewNop())
	t.Cleanup(func() { q.Close() })

	h := New(q, s)
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/comments", h.Submit)
	mux.HandleFunc("GET /api/v1/comments/{source}/{id}", h.Get)
	return mux
}

func body(id string) string {
	b, _ := json.Marshal(ingestion.RawComment{
		ID:     id,
		Source: "food",
		Author: "ann",
		Date:   time.Now().Add(-time.Hour).UTC(),
		Raw:    "Fried [pickles](https://example.com/p) are fried",
	})
	return string(b)
}

func do(mux http.Handler, method, target, payload string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(payload))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestSubmit(t *testing.T) {
	mux := newServer(t)
	tests := []struct {
		name    string
		target  string
		payload string
		want    int
	}{
		{"queued", "/api/v1/comments", body("c1"), http.StatusAccepted},
		{"bad json", "/api/v1/comments", "{", http.StatusBadRequest},
		{"missing fields", "/api/v1/comments", `{"id":"c2"}`, http.StatusBadRequest},
		{"waited", "/api/v1/comments?wait=true", body("c3"), http.StatusCreated},
		{"waited duplicate", "/api/v1/comments?wait=true", body("c3"), http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(mux, http.MethodPost, tt.target, tt.payload)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestSubmitValidationFields(t *testing.T) {
	rec := do(newServer(t), http.MethodPost, "/api/v1/comments", `{"id":"c1","source":"bad source"}`)
	var resp struct {
		Fields map[string]string `json:"fields"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	for _, f := range []string{"source", "author", "date", "raw"} {
		if _, ok := resp.Fields[f]; !ok {
			t.Errorf("missing field error for %s: %v", f, resp.Fields)
		}
	}
}

func TestGet(t *testing.T) {
	mux := newServer(t)
	if rec := do(mux, http.MethodPost, "/api/v1/comments?wait=true", body("c1")); rec.Code != http.StatusCreated {
		t.Fatalf("submit: %d %s", rec.Code, rec.Body.String())
	}

	rec := do(mux, http.MethodGet, "/api/v1/comments/food/c1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var c ingestion.Comment
	if err := json.NewDecoder(rec.Body).Decode(&c); err != nil {
		t.Fatal(err)
	}
	if c.Cooked != "Fried pickles are fried" || len(c.Links) != 1 {
		t.Errorf("cooked = %q links = %v", c.Cooked, c.Links)
	}
	if len(c.Tokens) != 3 {
		t.Errorf("token variants = %d, want 3", len(c.Tokens))
	}

	if rec := do(mux, http.MethodGet, "/api/v1/comments/food/nope", ""); rec.Code != http.StatusNotFound {
		t.Errorf("unknown comment status = %d", rec.Code)
	}
}
