// Package renderer integrates per-sample field outputs into per-ray
// pixel estimates via the volume rendering equation, and assembles
// full images tile by tile.
package renderer

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/df07/go-nerf-renderer/pkg/core"
)

// RGBRenderer composites per-sample colors into a per-ray color using
// the volume rendering weights. Weight mass not absorbed by the samples
// goes to the background color.
type RGBRenderer struct {
	background core.Vec3
}

// NewRGBRenderer creates an RGB renderer with the given background color
func NewRGBRenderer(background core.Vec3) *RGBRenderer {
	return &RGBRenderer{background: background}
}

// Render reduces (R·S)×3 per-sample colors with R×S weights into R×3
// per-ray colors
func (rr *RGBRenderer) Render(rgb, weights *mat.Dense) (*mat.Dense, error) {
	numRays, numSamples := weights.Dims()
	rows, cols := rgb.Dims()
	if rows != numRays*numSamples || cols != 3 {
		return nil, fmt.Errorf("rgb must be %d×3 to match weights, got %d×%d", numRays*numSamples, rows, cols)
	}

	out := mat.NewDense(numRays, 3, nil)
	for r := 0; r < numRays; r++ {
		var acc core.Vec3
		weightSum := 0.0
		for s := 0; s < numSamples; s++ {
			w := weights.At(r, s)
			weightSum += w
			row := r*numSamples + s
			acc = acc.Add(core.NewVec3(rgb.At(row, 0), rgb.At(row, 1), rgb.At(row, 2)).Multiply(w))
		}
		acc = acc.Add(rr.background.Multiply(1 - weightSum))
		out.Set(r, 0, acc.X)
		out.Set(r, 1, acc.Y)
		out.Set(r, 2, acc.Z)
	}
	return out, nil
}

// AccumulationRenderer reduces weights into total opacity per ray
type AccumulationRenderer struct{}

// NewAccumulationRenderer creates an accumulation renderer
func NewAccumulationRenderer() *AccumulationRenderer {
	return &AccumulationRenderer{}
}

// Render sums the R×S weights into R×1 accumulated opacity in [0,1]
func (ar *AccumulationRenderer) Render(weights *mat.Dense) *mat.Dense {
	numRays, numSamples := weights.Dims()
	out := mat.NewDense(numRays, 1, nil)
	for r := 0; r < numRays; r++ {
		sum := 0.0
		for s := 0; s < numSamples; s++ {
			sum += weights.At(r, s)
		}
		out.Set(r, 0, sum)
	}
	return out
}

// DepthRenderer reduces weights and sample depths into expected depth
// per ray
type DepthRenderer struct{}

// NewDepthRenderer creates a depth renderer
func NewDepthRenderer() *DepthRenderer {
	return &DepthRenderer{}
}

// Render computes the weighted sum of sample depths, R×1. Empty rays
// (all weights zero) yield zero depth.
func (dr *DepthRenderer) Render(weights, ts *mat.Dense) (*mat.Dense, error) {
	numRays, numSamples := weights.Dims()
	tr, tc := ts.Dims()
	if tr != numRays || tc != numSamples {
		return nil, fmt.Errorf("depths must be %d×%d to match weights, got %d×%d", numRays, numSamples, tr, tc)
	}

	out := mat.NewDense(numRays, 1, nil)
	for r := 0; r < numRays; r++ {
		depth := 0.0
		for s := 0; s < numSamples; s++ {
			depth += weights.At(r, s) * ts.At(r, s)
		}
		out.Set(r, 0, depth)
	}
	return out, nil
}
