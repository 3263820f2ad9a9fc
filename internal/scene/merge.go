package scene

import "github.com/text3d/hub/internal/model"

// mergeObject overlays the reference's per-instance fields on the catalog
// entry. Catalog fields without an override pass through unchanged.
func mergeObject(entry model.CatalogEntry, ref model.ObjectRef) model.ResolvedObject {
	out := model.ResolvedObject{
		CatalogID:   entry.ID,
		Name:        entry.Name,
		Category:    entry.Category,
		ObjPath:     entry.ObjPath,
		MtlPath:     copyString(entry.MtlPath),
		TexturePath: copyString(entry.TexturePath),
		Scale:       entry.Scale,
		Position:    entry.Position,
	}
	if ref.Orbit != nil {
		orbit := *ref.Orbit
		out.Orbit = &orbit
	}
	if ref.RotationSpeed != nil {
		speed := *ref.RotationSpeed
		out.RotationSpeed = &speed
	}
	return out
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
