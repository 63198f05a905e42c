package core

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// RayBundle is a batch of rays with per-ray near/far integration bounds.
// Produced by a camera or dataset collaborator and treated as immutable
// once constructed.
type RayBundle struct {
	Origins    []Vec3    // Ray origins
	Directions []Vec3    // Unit-normalized ray directions
	Nears      []float64 // Near integration bound per ray
	Fars       []float64 // Far integration bound per ray
}

// NewRayBundle creates a bundle from parallel slices, normalizing directions
func NewRayBundle(origins, directions []Vec3, nears, fars []float64) (*RayBundle, error) {
	n := len(origins)
	if len(directions) != n || len(nears) != n || len(fars) != n {
		return nil, fmt.Errorf("ray bundle slices must have equal length: origins=%d directions=%d nears=%d fars=%d",
			len(origins), len(directions), len(nears), len(fars))
	}
	normalized := make([]Vec3, n)
	for i, d := range directions {
		normalized[i] = d.Normalize()
	}
	return &RayBundle{
		Origins:    origins,
		Directions: normalized,
		Nears:      nears,
		Fars:       fars,
	}, nil
}

// NumRays returns the number of rays in the bundle
func (rb *RayBundle) NumRays() int {
	return len(rb.Origins)
}

// RaySamples holds an ordered sequence of sample points along each ray of
// a bundle. Ts are strictly increasing per ray; Deltas are the quadrature
// interval lengths derived from interval boundaries at the midpoints
// between consecutive samples, clamped to the ray's [near, far] bounds.
type RaySamples struct {
	Bundle *RayBundle
	Ts     *mat.Dense // R×S sample depths along each ray
	Deltas *mat.Dense // R×S interval lengths for quadrature
}

// NewRaySamples builds samples for a bundle from per-ray depths,
// deriving interval boundaries. Depths must be strictly increasing
// along each ray.
func NewRaySamples(bundle *RayBundle, ts *mat.Dense) (*RaySamples, error) {
	numRays, numSamples := ts.Dims()
	if numRays != bundle.NumRays() {
		return nil, fmt.Errorf("sample depth rows (%d) do not match bundle rays (%d)", numRays, bundle.NumRays())
	}

	deltas := mat.NewDense(numRays, numSamples, nil)
	for r := 0; r < numRays; r++ {
		prev := math.Inf(-1)
		for s := 0; s < numSamples; s++ {
			t := ts.At(r, s)
			if t <= prev {
				return nil, fmt.Errorf("sample depths must be strictly increasing: ray %d sample %d (t=%g after %g)", r, s, t, prev)
			}
			prev = t
		}

		// Interval boundaries: near, midpoints between samples, far
		for s := 0; s < numSamples; s++ {
			lower := bundle.Nears[r]
			if s > 0 {
				lower = 0.5 * (ts.At(r, s-1) + ts.At(r, s))
			}
			upper := bundle.Fars[r]
			if s < numSamples-1 {
				upper = 0.5 * (ts.At(r, s) + ts.At(r, s+1))
			}
			deltas.Set(r, s, math.Max(0, upper-lower))
		}
	}

	return &RaySamples{Bundle: bundle, Ts: ts, Deltas: deltas}, nil
}

// NumRays returns the number of rays sampled
func (rs *RaySamples) NumRays() int {
	r, _ := rs.Ts.Dims()
	return r
}

// NumSamples returns the number of samples per ray
func (rs *RaySamples) NumSamples() int {
	_, s := rs.Ts.Dims()
	return s
}

// PositionsMatrix returns the flattened (R·S)×3 matrix of 3D sample
// positions, row-major by ray then sample
func (rs *RaySamples) PositionsMatrix() *mat.Dense {
	numRays, numSamples := rs.Ts.Dims()
	positions := mat.NewDense(numRays*numSamples, 3, nil)
	for r := 0; r < numRays; r++ {
		origin := rs.Bundle.Origins[r]
		dir := rs.Bundle.Directions[r]
		for s := 0; s < numSamples; s++ {
			p := origin.Add(dir.Multiply(rs.Ts.At(r, s)))
			row := r*numSamples + s
			positions.Set(row, 0, p.X)
			positions.Set(row, 1, p.Y)
			positions.Set(row, 2, p.Z)
		}
	}
	return positions
}

// DirectionsMatrix returns the flattened (R·S)×3 matrix of ray
// directions, one row per sample (the ray direction repeated)
func (rs *RaySamples) DirectionsMatrix() *mat.Dense {
	numRays, numSamples := rs.Ts.Dims()
	directions := mat.NewDense(numRays*numSamples, 3, nil)
	for r := 0; r < numRays; r++ {
		dir := rs.Bundle.Directions[r]
		for s := 0; s < numSamples; s++ {
			row := r*numSamples + s
			directions.Set(row, 0, dir.X)
			directions.Set(row, 1, dir.Y)
			directions.Set(row, 2, dir.Z)
		}
	}
	return directions
}

// GetWeights converts per-sample densities into volume rendering weights.
// For each sample, alpha = 1 - exp(-density*delta) is the discretized
// absorption over its interval, and the weight is alpha attenuated by the
// transmittance, the probability that light survives all preceding
// intervals unoccluded. Weights are non-negative and sum to at most 1 per
// ray; the remainder is the background's share.
func (rs *RaySamples) GetWeights(density *mat.Dense) (*mat.Dense, error) {
	numRays, numSamples := rs.Ts.Dims()
	rows, cols := density.Dims()
	if rows != numRays*numSamples || cols != 1 {
		return nil, fmt.Errorf("density must be %d×1 to match samples, got %d×%d", numRays*numSamples, rows, cols)
	}

	weights := mat.NewDense(numRays, numSamples, nil)
	for r := 0; r < numRays; r++ {
		transmittance := 1.0
		for s := 0; s < numSamples; s++ {
			sigma := math.Max(0, density.At(r*numSamples+s, 0))
			alpha := 1 - math.Exp(-sigma*rs.Deltas.At(r, s))
			weights.Set(r, s, alpha*transmittance)
			transmittance *= 1 - alpha
		}
	}
	return weights, nil
}
