package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/text3d/hub/internal/logging"
	"github.com/text3d/hub/internal/middleware"
	"github.com/text3d/hub/internal/model"
	"github.com/text3d/hub/internal/scene"
	"github.com/text3d/hub/internal/service"
)

type SceneHandler struct {
	resolver *scene.Resolver
	archive  *service.SceneArchiveService
	prompts  *service.PromptLogService
	logger   *zap.Logger
}

func NewSceneHandler(resolver *scene.Resolver, archive *service.SceneArchiveService, prompts *service.PromptLogService, logger *zap.Logger) *SceneHandler {
	return &SceneHandler{
		resolver: resolver,
		archive:  archive,
		prompts:  prompts,
		logger:   logging.OrNop(logger),
	}
}

type promptRequest struct {
	Prompt string `json:"prompt"`
}

// POST /scene
func (h *SceneHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	prompt, ok := readPrompt(w, r)
	if !ok {
		return
	}

	resolved, err := h.resolve(r.Context(), prompt, nil)
	if err != nil {
		status, code, msg := resolveFailure(err)
		writeError(w, status, code, msg)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"scene":  resolved,
		"origin": resolved.Origin,
	})
}

// POST /scene/save
func (h *SceneHandler) Save(w http.ResponseWriter, r *http.Request) {
	prompt, ok := readPrompt(w, r)
	if !ok {
		return
	}

	resolved, err := h.resolve(r.Context(), prompt, nil)
	if err != nil {
		status, code, msg := resolveFailure(err)
		writeError(w, status, code, msg)
		return
	}
	saved, err := h.archive.Save(r.Context(), prompt, *resolved)
	if err != nil {
		h.logger.Error("save scene failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "E_INTERNAL", "internal error")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"status": "success",
		"id":     saved.ID,
		"scene":  saved.Scene,
	})
}

// GET /scene/{scene_id}
func (h *SceneHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "scene_id"))
	saved, err := h.archive.Get(r.Context(), id)
	if err != nil {
		h.logger.Error("load scene failed", zap.String("scene_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "E_INTERNAL", "internal error")
		return
	}
	if saved == nil {
		writeError(w, http.StatusNotFound, "E_NOT_FOUND", "scene not found")
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

// GET /scenes?limit=
func (h *SceneHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.archive.List(r.Context(), queryLimit(r))
	if err != nil {
		h.logger.Error("list scenes failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "E_INTERNAL", "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"scenes": items})
}

// GET /prompts?limit=
func (h *SceneHandler) Prompts(w http.ResponseWriter, r *http.Request) {
	items, err := h.prompts.List(r.Context(), queryLimit(r))
	if err != nil {
		h.logger.Error("list prompts failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "E_INTERNAL", "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"prompts": items})
}

func readPrompt(w http.ResponseWriter, r *http.Request) (string, bool) {
	var body promptRequest
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "E_BAD_REQUEST", "invalid body")
		return "", false
	}
	prompt := strings.TrimSpace(body.Prompt)
	if prompt == "" {
		writeError(w, http.StatusBadRequest, "E_BAD_REQUEST", "prompt is required")
		return "", false
	}
	return prompt, true
}

// resolve runs the resolver and records the attempt in the prompt log.
func (h *SceneHandler) resolve(ctx context.Context, prompt string, observe scene.Observer) (*model.ResolvedScene, error) {
	resolved, err := h.resolver.ResolveObserved(ctx, prompt, observe)

	in := service.RecordPromptInput{
		Prompt:  prompt,
		Outcome: service.OutcomeResolved,
		TraceID: middleware.TraceIDFromCtx(ctx),
	}
	if err != nil {
		in.Outcome = service.OutcomeFailed
		in.Error = err.Error()
		var rerr *scene.ResolveError
		if errors.As(err, &rerr) {
			in.Origin = string(rerr.Origin)
		} else {
			h.logger.Error("resolve scene failed", zap.String("trace_id", in.TraceID), zap.Error(err))
		}
	} else {
		in.Origin = string(resolved.Origin)
	}
	if h.prompts != nil {
		if _, logErr := h.prompts.Record(ctx, in); logErr != nil {
			h.logger.Warn("record prompt failed", zap.Error(logErr))
		}
	}
	return resolved, err
}
