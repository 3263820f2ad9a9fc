package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/text3d/hub/internal/model"
	"github.com/text3d/hub/internal/scene"
)

type streamEvent struct {
	Type   string               `json:"type"`
	State  scene.State          `json:"state,omitempty"`
	Status string               `json:"status,omitempty"`
	Scene  *model.ResolvedScene `json:"scene,omitempty"`
	Origin model.Origin         `json:"origin,omitempty"`
	Error  string               `json:"error,omitempty"`
	Code   string               `json:"code,omitempty"`
}

var streamUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// GET /scene/stream
//
// Each text frame {"prompt": "..."} starts one resolution. The server answers
// with a "state" event per state entered, then one "result" or "error" event.
func (h *SceneHandler) Stream(w http.ResponseWriter, r *http.Request) {
	conn, err := streamUpgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	send := func(ev streamEvent) bool {
		data, err := json.Marshal(ev)
		if err != nil {
			h.logger.Error("marshal stream event failed", zap.Error(err))
			return true
		}
		return conn.WriteMessage(websocket.TextMessage, data) == nil
	}

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var req promptRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			if !send(streamEvent{Type: "error", Error: "invalid body", Code: "E_BAD_REQUEST"}) {
				return
			}
			continue
		}
		prompt := strings.TrimSpace(req.Prompt)
		if prompt == "" {
			if !send(streamEvent{Type: "error", Error: "prompt is required", Code: "E_BAD_REQUEST"}) {
				return
			}
			continue
		}

		alive := true
		resolved, err := h.resolve(r.Context(), prompt, func(s scene.State) {
			if alive {
				alive = send(streamEvent{Type: "state", State: s})
			}
		})
		if !alive {
			return
		}
		if err != nil {
			_, code, msg := resolveFailure(err)
			if !send(streamEvent{Type: "error", Error: msg, Code: code}) {
				return
			}
			continue
		}
		if !send(streamEvent{Type: "result", Status: "success", Scene: resolved, Origin: resolved.Origin}) {
			return
		}
	}
}
