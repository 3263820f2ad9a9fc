package model

// Position is a default placement in scene space.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// CatalogEntry is a canonical 3D object record. The resolver reads these and
// never mutates them.
type CatalogEntry struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	ObjPath     string   `json:"obj_path"`
	MtlPath     *string  `json:"mtl_path"`
	TexturePath *string  `json:"texture_path"`
	Scale       float64  `json:"scale"`
	Position    Position `json:"position"`
}

// Animation is a front-end animation script registered by name.
type Animation struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	ScriptPath  string  `json:"script_path"`
	TargetType  *string `json:"target_type"`
}
