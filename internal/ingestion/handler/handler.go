// Package handler serves the comment submission and lookup endpoints.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/ingestion/queue"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/ingestion/validator"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/store"
	apperrors "github.com/Adithya-Monish-Kumar-K/temporal-corpus/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/pkg/logger"
)

const maxBodyBytes = 1 << 20

type Handler struct {
	queue  queue.Queue
	events store.EventStore
	logger *slog.Logger
}

func New(q queue.Queue, events store.EventStore) *Handler {
	return &Handler{
		queue:  q,
		events: events,
		logger: slog.Default().With("component", "comment-handler"),
	}
}

// Submit validates and queues a comment. With ?wait=true the response is
// held until the queue resolves the task, which for the local queue means
// the pipeline has run.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	var raw ingestion.RawComment
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&raw); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := validator.ValidateComment(&raw, time.Now()); err != nil {
		var validationErr *validator.ValidationError
		if errors.As(err, &validationErr) {
			h.writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":  "validation failed",
				"fields": validationErr.Fields,
			})
			return
		}
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	handle, err := h.queue.Submit(ctx, raw)
	if err != nil {
		log.Error("submit failed", "comment_id", raw.ID, "error", err)
		h.writeError(w, http.StatusServiceUnavailable, "comment could not be queued")
		return
	}

	if r.URL.Query().Get("wait") == "true" {
		res, err := handle.Wait(ctx)
		if err != nil {
			status := apperrors.HTTPStatusCode(err)
			log.Warn("comment insert failed", "comment_id", raw.ID, "error", err, "status_code", status)
			h.writeError(w, status, err.Error())
			return
		}
		h.writeJSON(w, http.StatusCreated, res)
		return
	}

	log.Info("comment queued", "comment_id", raw.ID, "source", raw.Source, "task_id", handle.TaskID)
	h.writeJSON(w, http.StatusAccepted, ingestion.SubmitResponse{
		CommentID: raw.ID,
		Status:    "QUEUED",
	})
}

// Get returns a stored comment with its tokens.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	source, id := r.PathValue("source"), r.PathValue("id")
	c, err := h.events.GetComment(r.Context(), source, id)
	if err != nil {
		status := apperrors.HTTPStatusCode(err)
		if status >= http.StatusInternalServerError {
			logger.FromContext(r.Context()).Error("loading comment", "source", source, "comment_id", id, "error", err)
			h.writeError(w, status, "internal error")
			return
		}
		h.writeError(w, status, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, c)
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
