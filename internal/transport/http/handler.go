package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/allez-ride/chat-service/internal/domain"
	"github.com/allez-ride/chat-service/pkg/logger"

	"github.com/go-chi/chi/v5"
)

type HistoryStore interface {
	Recent(ctx context.Context, tripID string, limit int) ([]domain.Message, error)
}

type Handler struct {
	store        HistoryStore
	historyLimit int
}

func NewHandler(store HistoryStore, historyLimit int) *Handler {
	if historyLimit <= 0 {
		historyLimit = 50
	}
	return &Handler{store: store, historyLimit: historyLimit}
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// GET /messages/{tripId}?limit=
// Отладочный просмотр несистемной истории поездки в пределах TTL.
func (h *Handler) GetMessages(w http.ResponseWriter, r *http.Request) {
	tripID := chi.URLParam(r, "tripId")
	if tripID == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "missing trip id"})
		return
	}

	limit := h.historyLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	msgs, err := h.store.Recent(r.Context(), tripID, limit)
	if err != nil {
		logger.With(r.Context()).Error("handler.GetMessages:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "history unavailable"})
		return
	}
	if msgs == nil {
		msgs = []domain.Message{}
	}

	writeJSON(w, http.StatusOK, msgs)
}
