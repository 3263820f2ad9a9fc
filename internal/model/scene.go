package model

import (
	"encoding/json"
	"strings"
)

// Origin records which path produced a scene candidate.
type Origin string

const (
	OriginModel    Origin = "model"
	OriginFallback Origin = "fallback"
)

// SceneGraphCandidate is an unresolved scene graph as produced by the model
// or by the local generator.
type SceneGraphCandidate struct {
	ScenarioType string         `json:"scenarioType" jsonschema:"description=Short scenario identifier such as solarSystem"`
	Objects      []ObjectRef    `json:"objects" jsonschema:"description=Objects to place; names must be catalog object names"`
	Animations   []AnimationRef `json:"animations" jsonschema:"description=Animation names to run"`
	Camera       *CameraRef     `json:"camera,omitempty"`
}

type Orbit struct {
	Radius float64 `json:"radius"`
	Speed  float64 `json:"speed"`
	Around string  `json:"around,omitempty" jsonschema:"description=Name of the object this one orbits"`
}

// UnmarshalJSON also accepts the {target, distance} orbit shape models tend to echo.
func (o *Orbit) UnmarshalJSON(data []byte) error {
	var aux struct {
		Radius   *float64 `json:"radius"`
		Distance *float64 `json:"distance"`
		Speed    float64  `json:"speed"`
		Around   string   `json:"around"`
		Target   string   `json:"target"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*o = Orbit{Speed: aux.Speed, Around: strings.TrimSpace(aux.Around)}
	switch {
	case aux.Radius != nil:
		o.Radius = *aux.Radius
	case aux.Distance != nil:
		o.Radius = *aux.Distance
	}
	if o.Around == "" {
		o.Around = strings.TrimSpace(aux.Target)
	}
	return nil
}

type ObjectRef struct {
	Name          string   `json:"name" jsonschema:"required"`
	Orbit         *Orbit   `json:"orbit,omitempty"`
	RotationSpeed *float64 `json:"rotation_speed,omitempty"`
}

// UnmarshalJSON accepts rotationSpeed as an alias of rotation_speed.
func (r *ObjectRef) UnmarshalJSON(data []byte) error {
	var aux struct {
		Name          string   `json:"name"`
		Orbit         *Orbit   `json:"orbit"`
		RotationSpeed *float64 `json:"rotation_speed"`
		RotationCamel *float64 `json:"rotationSpeed"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*r = ObjectRef{Name: aux.Name, Orbit: aux.Orbit, RotationSpeed: aux.RotationSpeed}
	if r.RotationSpeed == nil {
		r.RotationSpeed = aux.RotationCamel
	}
	return nil
}

type AnimationRef struct {
	Name string `json:"name"`
}

type CameraRef struct {
	Target   string   `json:"target"`
	Distance *float64 `json:"distance,omitempty"`
}

// ResolvedObject is a catalog entry merged with the per-instance overrides of
// the object reference that selected it.
type ResolvedObject struct {
	CatalogID     int64    `json:"catalog_id"`
	Name          string   `json:"name"`
	Category      string   `json:"category"`
	ObjPath       string   `json:"obj_path"`
	MtlPath       *string  `json:"mtl_path"`
	TexturePath   *string  `json:"texture_path"`
	Scale         float64  `json:"scale"`
	Position      Position `json:"position"`
	Orbit         *Orbit   `json:"orbit"`
	RotationSpeed *float64 `json:"rotation_speed"`
}

// ResolvedScene is the artifact returned to the rendering front end.
type ResolvedScene struct {
	ScenarioType string           `json:"scenarioType"`
	Objects      []ResolvedObject `json:"objects"`
	Animations   []string         `json:"animations"`
	Camera       CameraRef        `json:"camera"`
	Origin       Origin           `json:"origin"`
}
