package scene

import (
	"fmt"

	"github.com/text3d/hub/internal/model"
)

// Reason classifies a resolution failure surfaced to the caller.
type Reason string

const (
	ReasonGenerationUnavailable Reason = "generation_unavailable"
	ReasonNoObjectsResolved     Reason = "no_objects_resolved"
	ReasonObjectNotFound        Reason = "object_not_found"
)

// ResolveError is a user-facing resolution failure. Name is set for
// ReasonObjectNotFound. Origin tells which path produced the candidate, if any.
type ResolveError struct {
	Reason Reason
	Name   string
	Origin model.Origin
}

func (e *ResolveError) Error() string {
	switch e.Reason {
	case ReasonObjectNotFound:
		return fmt.Sprintf("object %q not found in catalog", e.Name)
	case ReasonNoObjectsResolved:
		return "could not build a scene from the prompt"
	case ReasonGenerationUnavailable:
		return "scene generation is unavailable"
	default:
		return string(e.Reason)
	}
}
