package sampler

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/df07/go-nerf-renderer/pkg/core"
)

// degenerateWeightSum is the threshold below which a ray's coarse
// weights are considered empty and importance sampling falls back to
// uniform placement within the ray bounds
const degenerateWeightSum = 1e-6

// PDFSampler draws additional samples along each ray by treating the
// coarse pass weights as an empirical probability density: inverse-CDF
// sampling over the coarse interval weights concentrates new samples
// where expected visibility-weighted density is high. The new depths are
// merged and sorted with the coarse depths so the fine pass sees one
// strictly increasing sequence.
type PDFSampler struct {
	numSamples int
}

// NewPDFSampler creates a PDF sampler producing the given number of
// importance samples per ray
func NewPDFSampler(numSamples int) (*PDFSampler, error) {
	if numSamples < 1 {
		return nil, fmt.Errorf("pdf sampler needs at least one sample, got %d", numSamples)
	}
	return &PDFSampler{numSamples: numSamples}, nil
}

// NumSamples returns the number of importance samples added per ray
func (s *PDFSampler) NumSamples() int {
	return s.numSamples
}

// Sample draws importance samples guided by the coarse weights and
// returns the merged coarse+fine samples. Weights must be the R×S matrix
// produced from the coarse samples' densities. A nil jitter source uses
// deterministic stratified positions.
func (s *PDFSampler) Sample(coarse *core.RaySamples, weights *mat.Dense, jitter core.Sampler) (*core.RaySamples, error) {
	numRays, numCoarse := coarse.Ts.Dims()
	wr, wc := weights.Dims()
	if wr != numRays || wc != numCoarse {
		return nil, fmt.Errorf("weights must be %d×%d to match coarse samples, got %d×%d", numRays, numCoarse, wr, wc)
	}

	bundle := coarse.Bundle
	merged := mat.NewDense(numRays, numCoarse+s.numSamples, nil)

	for r := 0; r < numRays; r++ {
		near, far := bundle.Nears[r], bundle.Fars[r]

		depths := make([]float64, 0, numCoarse+s.numSamples)
		for i := 0; i < numCoarse; i++ {
			depths = append(depths, coarse.Ts.At(r, i))
		}

		mass := make([]float64, numCoarse)
		for i := 0; i < numCoarse; i++ {
			if w := weights.At(r, i); w > 0 {
				mass[i] = w
			}
		}

		if floats.Sum(mass) < degenerateWeightSum {
			// Empty ray: no density anywhere, importance sampling is
			// undefined. Fall back to uniform placement in [near, far].
			depths = append(depths, s.uniformDepths(near, far, jitter)...)
		} else {
			depths = append(depths, s.importanceDepths(coarse, r, mass, jitter)...)
		}

		sort.Float64s(depths)
		enforceStrictlyIncreasing(depths)
		merged.SetRow(r, depths)
	}

	return core.NewRaySamples(bundle, merged)
}

// uniformDepths places stratified samples across the full ray extent
func (s *PDFSampler) uniformDepths(near, far float64, jitter core.Sampler) []float64 {
	depths := make([]float64, s.numSamples)
	binWidth := (far - near) / float64(s.numSamples)
	for j := 0; j < s.numSamples; j++ {
		u := 0.5
		if jitter != nil {
			u = jitter.Get1D()
		}
		depths[j] = near + binWidth*(float64(j)+u)
	}
	return depths
}

// importanceDepths inverts the empirical CDF built from the coarse
// interval weights of ray r, drawing stratified variates
func (s *PDFSampler) importanceDepths(coarse *core.RaySamples, r int, mass []float64, jitter core.Sampler) []float64 {
	numCoarse := len(mass)
	bundle := coarse.Bundle

	// Interval boundaries of the coarse bins: near, sample midpoints, far
	bounds := make([]float64, numCoarse+1)
	bounds[0] = bundle.Nears[r]
	for i := 1; i < numCoarse; i++ {
		bounds[i] = 0.5 * (coarse.Ts.At(r, i-1) + coarse.Ts.At(r, i))
	}
	bounds[numCoarse] = bundle.Fars[r]

	// Normalized CDF over the bins
	total := floats.Sum(mass)
	cdf := make([]float64, numCoarse+1)
	floats.CumSum(cdf[1:], mass)
	floats.Scale(1/total, cdf[1:])
	cdf[numCoarse] = 1

	depths := make([]float64, s.numSamples)
	for j := 0; j < s.numSamples; j++ {
		u := 0.5
		if jitter != nil {
			u = jitter.Get1D()
		}
		variate := (float64(j) + u) / float64(s.numSamples)

		// Find bin with cdf[bin] <= variate < cdf[bin+1]
		bin := sort.SearchFloat64s(cdf, variate)
		if bin > 0 && (bin >= len(cdf) || cdf[bin] > variate) {
			bin--
		}
		bin = min(bin, numCoarse-1)

		span := cdf[bin+1] - cdf[bin]
		frac := 0.0
		if span > 0 {
			frac = (variate - cdf[bin]) / span
		}
		depths[j] = bounds[bin] + frac*(bounds[bin+1]-bounds[bin])
	}
	return depths
}

// enforceStrictlyIncreasing nudges duplicate depths apart after merging
// so downstream quadrature sees strictly increasing values
func enforceStrictlyIncreasing(depths []float64) {
	for i := 1; i < len(depths); i++ {
		if depths[i] <= depths[i-1] {
			depths[i] = depths[i-1] + 1e-9
		}
	}
}
