package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/text3d/hub/internal/scene"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: message, Code: code})
}

func decodeBody(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}

// queryLimit reads ?limit=; zero lets the service pick its default.
func queryLimit(r *http.Request) int {
	v := strings.TrimSpace(r.URL.Query().Get("limit"))
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

// resolveFailure maps a resolver error to status, code and client message.
// Store failures are not described to the client.
func resolveFailure(err error) (int, string, string) {
	var rerr *scene.ResolveError
	if !errors.As(err, &rerr) {
		return http.StatusInternalServerError, "E_INTERNAL", "internal error"
	}
	switch rerr.Reason {
	case scene.ReasonObjectNotFound:
		return http.StatusNotFound, "E_OBJECT_NOT_FOUND", rerr.Error()
	case scene.ReasonNoObjectsResolved:
		return http.StatusUnprocessableEntity, "E_NO_OBJECTS_RESOLVED", rerr.Error()
	case scene.ReasonGenerationUnavailable:
		return http.StatusServiceUnavailable, "E_GENERATION_UNAVAILABLE", rerr.Error()
	default:
		return http.StatusInternalServerError, "E_INTERNAL", rerr.Error()
	}
}
