// Package sampler generates 3D sample points along rays: stratified
// uniform samples for the coarse pass, and importance samples guided by
// coarse density for the fine pass.
package sampler

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/df07/go-nerf-renderer/pkg/core"
)

// minRayExtent guards against degenerate near==far bounds
const minRayExtent = 1e-6

// UniformSampler produces stratified samples along each ray: the
// [near, far] interval is divided into equal bins with one sample per
// bin, jittered within its bin when a jitter source is provided.
type UniformSampler struct {
	nearPlane  float64
	farPlane   float64
	numSamples int
}

// NewUniformSampler creates a uniform sampler. The near/far planes are
// fallbacks for rays whose bundle does not carry explicit bounds.
func NewUniformSampler(nearPlane, farPlane float64, numSamples int) (*UniformSampler, error) {
	if numSamples < 1 {
		return nil, fmt.Errorf("uniform sampler needs at least one sample, got %d", numSamples)
	}
	if farPlane < nearPlane {
		return nil, fmt.Errorf("far plane (%g) before near plane (%g)", farPlane, nearPlane)
	}
	return &UniformSampler{
		nearPlane:  nearPlane,
		farPlane:   farPlane,
		numSamples: numSamples,
	}, nil
}

// NumSamples returns the number of samples generated per ray
func (s *UniformSampler) NumSamples() int {
	return s.numSamples
}

// Sample generates stratified sample depths for every ray in the bundle.
// A nil jitter source places samples at bin centers for deterministic
// output.
func (s *UniformSampler) Sample(bundle *core.RayBundle, jitter core.Sampler) (*core.RaySamples, error) {
	numRays := bundle.NumRays()
	ts := mat.NewDense(numRays, s.numSamples, nil)

	resolved := resolveBounds(bundle, s.nearPlane, s.farPlane)
	for r := 0; r < numRays; r++ {
		near, far := resolved.Nears[r], resolved.Fars[r]
		binWidth := (far - near) / float64(s.numSamples)
		for i := 0; i < s.numSamples; i++ {
			u := 0.5
			if jitter != nil {
				u = jitter.Get1D()
			}
			ts.Set(r, i, near+binWidth*(float64(i)+u))
		}
	}

	return core.NewRaySamples(resolved, ts)
}

// resolveBounds returns a bundle whose per-ray bounds are all valid,
// substituting the fallback planes for unset bounds and clamping
// degenerate near==far intervals. The input bundle is never mutated.
func resolveBounds(bundle *core.RayBundle, nearPlane, farPlane float64) *core.RayBundle {
	numRays := bundle.NumRays()
	clean := true
	for r := 0; r < numRays; r++ {
		if bundle.Fars[r]-bundle.Nears[r] < minRayExtent {
			clean = false
			break
		}
	}
	if clean {
		return bundle
	}

	nears := make([]float64, numRays)
	fars := make([]float64, numRays)
	for r := 0; r < numRays; r++ {
		near, far := bundle.Nears[r], bundle.Fars[r]
		if near == 0 && far == 0 {
			near, far = nearPlane, farPlane
		}
		if far-near < minRayExtent {
			far = near + minRayExtent
		}
		nears[r], fars[r] = near, far
	}
	return &core.RayBundle{
		Origins:    bundle.Origins,
		Directions: bundle.Directions,
		Nears:      nears,
		Fars:       fars,
	}
}
