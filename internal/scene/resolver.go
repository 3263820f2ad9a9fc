// Package scene turns a free-form prompt into a scene graph backed by catalog
// entries.
package scene

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/text3d/hub/internal/catalog"
	"github.com/text3d/hub/internal/extract"
	"github.com/text3d/hub/internal/llm"
	"github.com/text3d/hub/internal/localgen"
	"github.com/text3d/hub/internal/logging"
	"github.com/text3d/hub/internal/model"
)

const defaultScenarioType = "custom"

type Options struct {
	// ModelTimeout bounds the generative model call; zero means no extra deadline.
	ModelTimeout time.Duration
	// DisableFallback turns model failures into GenerationUnavailable.
	DisableFallback bool
}

// Resolver holds only injected collaborators and is safe for concurrent use
// as long as they are.
type Resolver struct {
	model     llm.Client
	generator *localgen.Generator
	catalog   catalog.Lookup
	logger    *zap.Logger
	opts      Options
}

func NewResolver(client llm.Client, generator *localgen.Generator, lookup catalog.Lookup, logger *zap.Logger, opts Options) *Resolver {
	if client == nil {
		client = llm.Unavailable{}
	}
	return &Resolver{
		model:     client,
		generator: generator,
		catalog:   lookup,
		logger:    logging.OrNop(logger),
		opts:      opts,
	}
}

// Resolve runs one resolution request. Failures meant for the user are
// *ResolveError; any other error is a store failure.
func (r *Resolver) Resolve(ctx context.Context, prompt string) (*model.ResolvedScene, error) {
	return r.ResolveObserved(ctx, prompt, nil)
}

// ResolveObserved is Resolve with a callback for every state entered.
func (r *Resolver) ResolveObserved(ctx context.Context, prompt string, observe Observer) (*model.ResolvedScene, error) {
	m, err := NewMachine(StateGenerating, observe)
	if err != nil {
		return nil, err
	}

	origin := model.OriginModel
	cand, ok := r.fromModel(ctx, prompt)
	if !ok {
		if r.opts.DisableFallback || r.generator == nil {
			return nil, r.fail(m, &ResolveError{Reason: ReasonGenerationUnavailable})
		}
		if err := m.Transition(StateFallbackGenerating); err != nil {
			return nil, err
		}
		origin = model.OriginFallback
		cand, ok = r.generator.Generate(prompt)
		if !ok {
			return nil, r.fail(m, &ResolveError{Reason: ReasonNoObjectsResolved, Origin: origin})
		}
	}

	if err := m.Transition(StateExpanding); err != nil {
		return nil, err
	}
	objects, err := r.expand(ctx, cand, origin)
	if err != nil {
		return nil, r.fail(m, err)
	}

	resolved := assemble(cand, objects, origin)
	if err := m.Transition(StateResolved); err != nil {
		return nil, err
	}
	r.logger.Debug("scene resolved",
		zap.String("origin", string(origin)),
		zap.Int("objects", len(resolved.Objects)),
		zap.String("camera", resolved.Camera.Target))
	return resolved, nil
}

// fromModel asks the generative model for a candidate. ok=false covers
// adapter errors, empty text, unrecoverable output and empty scenes.
func (r *Resolver) fromModel(ctx context.Context, prompt string) (model.SceneGraphCandidate, bool) {
	callCtx := ctx
	if r.opts.ModelTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, r.opts.ModelTimeout)
		defer cancel()
	}

	text, err := r.model.Generate(callCtx, BuildInstruction(prompt))
	if err != nil {
		r.logger.Warn("generative model unavailable, using fallback", zap.Error(err))
		return model.SceneGraphCandidate{}, false
	}
	if strings.TrimSpace(text) == "" {
		r.logger.Warn("generative model returned empty text, using fallback")
		return model.SceneGraphCandidate{}, false
	}

	cand, err := extract.Candidate(text)
	if err != nil {
		r.logger.Warn("model output not recoverable, using fallback", zap.Error(err), zap.Int("length", len(text)))
		return model.SceneGraphCandidate{}, false
	}
	if len(cand.Objects) == 0 {
		r.logger.Warn("model returned a scene without objects, using fallback")
		return model.SceneGraphCandidate{}, false
	}
	for _, ref := range cand.Objects {
		if strings.TrimSpace(ref.Name) == "" {
			r.logger.Warn("model returned an unnamed object, using fallback")
			return model.SceneGraphCandidate{}, false
		}
	}
	return cand, true
}

// expand looks up every reference. The first missing name aborts the request.
func (r *Resolver) expand(ctx context.Context, cand model.SceneGraphCandidate, origin model.Origin) ([]model.ResolvedObject, error) {
	mode := catalog.MatchAnchored
	if origin == model.OriginFallback {
		mode = catalog.MatchSubstring
	}

	objects := make([]model.ResolvedObject, 0, len(cand.Objects))
	for _, ref := range cand.Objects {
		name := strings.TrimSpace(ref.Name)
		entry, found, err := r.catalog.FindByName(ctx, name, mode)
		if err != nil {
			return nil, fmt.Errorf("catalog lookup %q: %w", name, err)
		}
		if !found {
			r.logger.Info("object not found in catalog",
				zap.String("name", name),
				zap.String("mode", string(mode)),
				zap.String("origin", string(origin)))
			return nil, &ResolveError{Reason: ReasonObjectNotFound, Name: name, Origin: origin}
		}
		objects = append(objects, mergeObject(entry, ref))
	}
	return objects, nil
}

func assemble(cand model.SceneGraphCandidate, objects []model.ResolvedObject, origin model.Origin) *model.ResolvedScene {
	scenarioType := strings.TrimSpace(cand.ScenarioType)
	if scenarioType == "" {
		scenarioType = defaultScenarioType
	}

	animations := make([]string, 0, len(cand.Animations))
	for _, a := range cand.Animations {
		if name := strings.TrimSpace(a.Name); name != "" {
			animations = append(animations, name)
		}
	}

	camera := model.CameraRef{Target: objects[0].Name}
	if cand.Camera != nil {
		camera.Distance = cand.Camera.Distance
		if target := strings.TrimSpace(cand.Camera.Target); target != "" {
			camera.Target = canonicalTarget(target, cand.Objects, objects)
		}
	}

	return &model.ResolvedScene{
		ScenarioType: scenarioType,
		Objects:      objects,
		Animations:   animations,
		Camera:       camera,
		Origin:       origin,
	}
}

// canonicalTarget maps a camera target naming one of the references to that
// object's catalog name; other targets pass through.
func canonicalTarget(target string, refs []model.ObjectRef, objects []model.ResolvedObject) string {
	for i, ref := range refs {
		if strings.EqualFold(strings.TrimSpace(ref.Name), target) {
			return objects[i].Name
		}
	}
	return target
}

func (r *Resolver) fail(m *Machine, err error) error {
	if terr := m.Transition(StateFailed); terr != nil {
		return terr
	}
	return err
}
