package model

import (
	"encoding/json"
	"testing"
)

func TestObjectRefAcceptsCamelCaseRotation(t *testing.T) {
	var ref ObjectRef
	if err := json.Unmarshal([]byte(`{"name":"Earth","rotationSpeed":1.5}`), &ref); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ref.RotationSpeed == nil || *ref.RotationSpeed != 1.5 {
		t.Fatalf("expected rotation speed 1.5, got %v", ref.RotationSpeed)
	}

	if err := json.Unmarshal([]byte(`{"name":"Earth","rotation_speed":2,"rotationSpeed":9}`), &ref); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if *ref.RotationSpeed != 2 {
		t.Fatalf("expected snake_case field to win, got %v", *ref.RotationSpeed)
	}
}

func TestOrbitAcceptsTargetDistanceShape(t *testing.T) {
	var ref ObjectRef
	if err := json.Unmarshal([]byte(`{"name":"Moon","orbit":{"target":"Earth","distance":12,"speed":0.5}}`), &ref); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ref.Orbit == nil {
		t.Fatalf("expected orbit")
	}
	if ref.Orbit.Around != "Earth" || ref.Orbit.Radius != 12 || ref.Orbit.Speed != 0.5 {
		t.Fatalf("unexpected orbit %+v", *ref.Orbit)
	}
}

func TestOrbitRadiusWinsOverDistance(t *testing.T) {
	var o Orbit
	if err := json.Unmarshal([]byte(`{"radius":3,"distance":40,"around":"Sun","target":"Mars"}`), &o); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if o.Radius != 3 || o.Around != "Sun" {
		t.Fatalf("unexpected orbit %+v", o)
	}
}
