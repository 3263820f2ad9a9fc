package handler

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/text3d/hub/internal/logging"
	"github.com/text3d/hub/internal/service"
)

type EmbeddingHandler struct {
	svc    *service.EmbeddingService
	logger *zap.Logger
}

func NewEmbeddingHandler(svc *service.EmbeddingService, logger *zap.Logger) *EmbeddingHandler {
	return &EmbeddingHandler{svc: svc, logger: logging.OrNop(logger)}
}

// POST /embedding/add
func (h *EmbeddingHandler) Add(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ID        string    `json:"id"`
		Type      string    `json:"type"`
		Text      string    `json:"text"`
		Embedding []float64 `json:"embedding"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "E_BAD_REQUEST", "invalid body")
		return
	}

	item, err := h.svc.Add(r.Context(), service.AddEmbeddingInput{
		ID:        body.ID,
		Type:      body.Type,
		Text:      body.Text,
		Embedding: body.Embedding,
	})
	switch {
	case errors.Is(err, service.ErrInvalidEmbedding):
		writeError(w, http.StatusUnprocessableEntity, "E_VALIDATION", err.Error())
		return
	case errors.Is(err, service.ErrDuplicateEmbedding):
		writeError(w, http.StatusConflict, "E_CONFLICT", err.Error())
		return
	case err != nil:
		h.logger.Error("save embedding failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "E_INTERNAL", "internal error")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":   "Embedding saved successfully",
		"embedding": item,
	})
}

// GET /embedding/all
func (h *EmbeddingHandler) All(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.List(r.Context())
	if err != nil {
		h.logger.Error("list embeddings failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "E_INTERNAL", "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": len(items), "items": items})
}
