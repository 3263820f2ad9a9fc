// Package localgen is the deterministic, rule-based scene generator used when
// the generative model is unavailable or its output is unusable. It performs
// no I/O.
package localgen

import (
	"fmt"
	"strings"

	"github.com/text3d/hub/internal/model"
)

const ScenarioSolarSystem = "solarSystem"

type Options struct {
	// DefaultKeys are selected when the prompt names nothing. Empty means
	// Generate reports no match instead.
	DefaultKeys []string

	BaseRadius      float64
	BaseSpeed       float64
	SatelliteRadius float64
	SatelliteSpeed  float64
}

func DefaultOptions() Options {
	return Options{
		DefaultKeys:     []string{"sun", "earth"},
		BaseRadius:      35,
		BaseSpeed:       0.8,
		SatelliteRadius: 15,
		SatelliteSpeed:  1.5,
	}
}

type Generator struct {
	bodies       []Body
	index        map[string]int
	systemTokens []string
	opts         Options
}

func New(table Table, opts Options) (*Generator, error) {
	if err := table.validate(); err != nil {
		return nil, err
	}
	g := &Generator{
		bodies: make([]Body, len(table.Bodies)),
		index:  make(map[string]int, len(table.Bodies)),
		opts:   opts,
	}
	for i, b := range table.Bodies {
		b.Key = strings.ToLower(strings.TrimSpace(b.Key))
		b.Parent = strings.ToLower(strings.TrimSpace(b.Parent))
		aliases := make([]string, 0, len(b.Aliases))
		for _, a := range b.Aliases {
			if a = strings.ToLower(strings.TrimSpace(a)); a != "" {
				aliases = append(aliases, a)
			}
		}
		b.Aliases = aliases
		notBefore := make([]string, 0, len(b.NotBefore))
		for _, suffix := range b.NotBefore {
			if suffix = strings.ToLower(strings.TrimSpace(suffix)); suffix != "" {
				notBefore = append(notBefore, suffix)
			}
		}
		b.NotBefore = notBefore
		g.bodies[i] = b
		g.index[b.Key] = i
	}
	for _, tok := range table.SystemTokens {
		if tok = strings.ToLower(strings.TrimSpace(tok)); tok != "" {
			g.systemTokens = append(g.systemTokens, tok)
		}
	}
	for _, key := range opts.DefaultKeys {
		if _, ok := g.index[strings.ToLower(key)]; !ok {
			return nil, fmt.Errorf("default key %q is not in the alias table", key)
		}
	}
	return g, nil
}

// Keys returns every body key in catalog order.
func (g *Generator) Keys() []string {
	keys := make([]string, len(g.bodies))
	for i, b := range g.bodies {
		keys[i] = b.Key
	}
	return keys
}

// Select returns the keys named by the prompt in catalog order.
func (g *Generator) Select(prompt string) []string {
	text := strings.ToLower(prompt)
	for _, tok := range g.systemTokens {
		if strings.Contains(text, tok) {
			return g.Keys()
		}
	}

	keys := make([]string, 0)
	for _, b := range g.bodies {
		for _, alias := range b.Aliases {
			if matchAlias(text, alias, b.NotBefore) {
				keys = append(keys, b.Key)
				break
			}
		}
	}
	if len(keys) > 0 {
		return keys
	}

	defaults := make([]string, 0, len(g.opts.DefaultKeys))
	for _, b := range g.bodies {
		for _, key := range g.opts.DefaultKeys {
			if strings.EqualFold(key, b.Key) {
				defaults = append(defaults, b.Key)
				break
			}
		}
	}
	return defaults
}

// matchAlias reports whether alias occurs in text at least once without being
// directly followed by one of notBefore.
func matchAlias(text, alias string, notBefore []string) bool {
	for offset := 0; offset < len(text); {
		i := strings.Index(text[offset:], alias)
		if i < 0 {
			return false
		}
		end := offset + i + len(alias)
		if !hasAnyPrefix(text[end:], notBefore) {
			return true
		}
		offset = end
	}
	return false
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// Generate builds a candidate for the prompt. ok is false when nothing was
// selected and no default scene is configured.
func (g *Generator) Generate(prompt string) (cand model.SceneGraphCandidate, ok bool) {
	keys := g.Select(prompt)
	if len(keys) == 0 {
		return model.SceneGraphCandidate{}, false
	}

	selected := make(map[string]bool, len(keys))
	for _, key := range keys {
		selected[key] = true
	}

	objects := make([]model.ObjectRef, 0, len(keys))
	rootIndex := 0
	for _, key := range keys {
		b := g.bodies[g.index[key]]
		rotation := b.RotationSpeed
		ref := model.ObjectRef{Name: b.Name, RotationSpeed: &rotation}

		if b.Parent != "" && selected[b.Parent] {
			ref.Orbit = &model.Orbit{
				Radius: g.opts.SatelliteRadius,
				Speed:  g.opts.SatelliteSpeed,
				Around: g.bodies[g.index[b.Parent]].Name,
			}
		} else {
			// The first root body sits at the centre; later ones orbit further
			// out and slower.
			if rootIndex > 0 {
				ref.Orbit = &model.Orbit{
					Radius: g.opts.BaseRadius * float64(rootIndex),
					Speed:  g.opts.BaseSpeed / float64(rootIndex),
				}
			}
			rootIndex++
		}
		objects = append(objects, ref)
	}

	return model.SceneGraphCandidate{
		ScenarioType: ScenarioSolarSystem,
		Objects:      objects,
		Animations:   []model.AnimationRef{},
		Camera:       &model.CameraRef{Target: objects[0].Name},
	}, true
}
