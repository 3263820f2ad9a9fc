package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/text3d/hub/internal/catalog"
	"github.com/text3d/hub/internal/logging"
	"github.com/text3d/hub/internal/model"
)

// CacheInvalidator drops cached lookups after catalog writes.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

type CatalogHandler struct {
	store  *catalog.Store
	lookup catalog.Lookup
	cache  CacheInvalidator
	logger *zap.Logger
}

// NewCatalogHandler serves the catalog. lookup may be a cached decorator of
// store; cache may be nil.
func NewCatalogHandler(store *catalog.Store, lookup catalog.Lookup, cache CacheInvalidator, logger *zap.Logger) *CatalogHandler {
	if lookup == nil {
		lookup = store
	}
	return &CatalogHandler{store: store, lookup: lookup, cache: cache, logger: logging.OrNop(logger)}
}

// GET /objects
func (h *CatalogHandler) ListObjects(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.List(r.Context())
	if err != nil {
		h.logger.Error("list objects failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "E_INTERNAL", "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"objects": items})
}

// GET /objects/{name}
func (h *CatalogHandler) GetObject(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(chi.URLParam(r, "name"))
	entry, found, err := h.lookup.FindByName(r.Context(), name, catalog.MatchAnchored)
	if err != nil {
		h.logger.Error("lookup object failed", zap.String("name", name), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "E_INTERNAL", "internal error")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "E_OBJECT_NOT_FOUND", "object not found: "+name)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"object": entry})
}

// POST /objects
func (h *CatalogHandler) CreateObject(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name        string          `json:"name"`
		Category    string          `json:"category"`
		ObjPath     string          `json:"obj_path"`
		MtlPath     *string         `json:"mtl_path"`
		TexturePath *string         `json:"texture_path"`
		Scale       *float64        `json:"scale"`
		Position    *model.Position `json:"position"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "E_BAD_REQUEST", "invalid body")
		return
	}

	item, err := h.store.Create(r.Context(), catalog.CreateEntryInput{
		Name:        body.Name,
		Category:    body.Category,
		ObjPath:     body.ObjPath,
		MtlPath:     body.MtlPath,
		TexturePath: body.TexturePath,
		Scale:       body.Scale,
		Position:    body.Position,
	})
	if errors.Is(err, catalog.ErrInvalidInput) {
		writeError(w, http.StatusUnprocessableEntity, "E_VALIDATION", err.Error())
		return
	}
	if err != nil {
		h.logger.Error("create object failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "E_INTERNAL", "internal error")
		return
	}
	h.invalidate(r.Context())
	writeJSON(w, http.StatusCreated, map[string]any{"object": item})
}

// GET /animations
func (h *CatalogHandler) ListAnimations(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.ListAnimations(r.Context())
	if err != nil {
		h.logger.Error("list animations failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "E_INTERNAL", "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"animations": items})
}

// POST /animations
func (h *CatalogHandler) CreateAnimation(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name        string  `json:"name"`
		Description *string `json:"description"`
		ScriptPath  string  `json:"script_path"`
		TargetType  *string `json:"target_type"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "E_BAD_REQUEST", "invalid body")
		return
	}

	item, err := h.store.CreateAnimation(r.Context(), catalog.CreateAnimationInput{
		Name:        body.Name,
		Description: body.Description,
		ScriptPath:  body.ScriptPath,
		TargetType:  body.TargetType,
	})
	if errors.Is(err, catalog.ErrDuplicateAnimation) {
		writeError(w, http.StatusConflict, "E_CONFLICT", err.Error())
		return
	}
	if errors.Is(err, catalog.ErrInvalidInput) {
		writeError(w, http.StatusUnprocessableEntity, "E_VALIDATION", err.Error())
		return
	}
	if err != nil {
		h.logger.Error("create animation failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "E_INTERNAL", "internal error")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"animation": item})
}

func (h *CatalogHandler) invalidate(ctx context.Context) {
	if h.cache == nil {
		return
	}
	if err := h.cache.Invalidate(ctx); err != nil {
		h.logger.Warn("catalog cache invalidation failed", zap.Error(err))
	}
}
