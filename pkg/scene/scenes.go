package scene

import (
	"github.com/df07/go-nerf-renderer/pkg/core"
)

// NewDefaultScene creates the default reference scene: three colored
// gaussian lumps inside the [2,6] integration range of the default
// camera setup
func NewDefaultScene() *AnalyticField {
	return NewBlobField([]Blob{
		{Center: core.NewVec3(0, 0, -4), Radius: 0.5, Peak: 8, Color: core.NewVec3(0.85, 0.3, 0.25)},
		{Center: core.NewVec3(-1.1, 0.4, -4.5), Radius: 0.35, Peak: 10, Color: core.NewVec3(0.25, 0.55, 0.9)},
		{Center: core.NewVec3(0.9, -0.5, -3.6), Radius: 0.3, Peak: 12, Color: core.NewVec3(0.3, 0.8, 0.35)},
	})
}

// NewSolidSphereScene creates a single opaque sphere, useful when a
// scene with hard depth edges is wanted
func NewSolidSphereScene() *AnalyticField {
	return NewSphereField(core.NewVec3(0, 0, -4), 0.8, 50, core.NewVec3(0.8, 0.7, 0.2))
}
