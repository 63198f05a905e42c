// Package scene provides analytic density/color fields. They implement
// the same Field capability as the learned field, which makes them
// usable as drop-in references: for synthesizing ground-truth training
// batches, and for rendering known geometry through the full pipeline.
package scene

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/df07/go-nerf-renderer/pkg/core"
)

// AnalyticField evaluates closed-form density and color functions at
// sample points. It carries no learnable parameters.
type AnalyticField struct {
	density func(p core.Vec3) float64
	color   func(p, d core.Vec3) core.Vec3
}

// NewAnalyticField creates a field from density and color functions
func NewAnalyticField(density func(p core.Vec3) float64, color func(p, d core.Vec3) core.Vec3) *AnalyticField {
	return &AnalyticField{density: density, color: color}
}

// Evaluate computes density and color at every sample point
func (f *AnalyticField) Evaluate(samples *core.RaySamples) (core.FieldOutputs, error) {
	positions := samples.PositionsMatrix()
	directions := samples.DirectionsMatrix()
	rows, _ := positions.Dims()

	density := mat.NewDense(rows, 1, nil)
	rgb := mat.NewDense(rows, 3, nil)
	for i := 0; i < rows; i++ {
		p := core.NewVec3(positions.At(i, 0), positions.At(i, 1), positions.At(i, 2))
		d := core.NewVec3(directions.At(i, 0), directions.At(i, 1), directions.At(i, 2))
		density.Set(i, 0, math.Max(0, f.density(p)))
		c := f.color(p, d).Clamp(0, 1)
		rgb.Set(i, 0, c.X)
		rgb.Set(i, 1, c.Y)
		rgb.Set(i, 2, c.Z)
	}

	return core.FieldOutputs{
		core.FieldHeadDensity: density,
		core.FieldHeadRGB:     rgb,
	}, nil
}

// Blob is a soft gaussian density lump with a constant color
type Blob struct {
	Center core.Vec3 // Center of the lump
	Radius float64   // Standard deviation of the gaussian falloff
	Peak   float64   // Density at the center
	Color  core.Vec3 // Albedo of the lump
}

// Density returns the blob's density at a point
func (b Blob) Density(p core.Vec3) float64 {
	d2 := p.Subtract(b.Center).LengthSquared()
	return b.Peak * math.Exp(-d2/(2*b.Radius*b.Radius))
}

// NewBlobField creates a field from a set of gaussian blobs. Densities
// add; the color at a point is the density-weighted mix of blob colors.
func NewBlobField(blobs []Blob) *AnalyticField {
	density := func(p core.Vec3) float64 {
		sum := 0.0
		for _, b := range blobs {
			sum += b.Density(p)
		}
		return sum
	}
	color := func(p, _ core.Vec3) core.Vec3 {
		var mixed core.Vec3
		total := 0.0
		for _, b := range blobs {
			d := b.Density(p)
			mixed = mixed.Add(b.Color.Multiply(d))
			total += d
		}
		if total <= 0 {
			return core.ColorBlack
		}
		return mixed.Multiply(1 / total)
	}
	return NewAnalyticField(density, color)
}

// NewSphereField creates a field with constant density inside a sphere
// and zero outside
func NewSphereField(center core.Vec3, radius, density float64, color core.Vec3) *AnalyticField {
	return NewAnalyticField(
		func(p core.Vec3) float64 {
			if p.Subtract(center).LengthSquared() <= radius*radius {
				return density
			}
			return 0
		},
		func(_, _ core.Vec3) core.Vec3 {
			return color
		},
	)
}

// NewEmptyField creates a field with zero density everywhere
func NewEmptyField() *AnalyticField {
	return NewAnalyticField(
		func(core.Vec3) float64 { return 0 },
		func(_, _ core.Vec3) core.Vec3 { return core.ColorBlack },
	)
}
