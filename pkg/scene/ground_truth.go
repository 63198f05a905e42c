package scene

import (
	"gonum.org/v1/gonum/mat"

	"github.com/df07/go-nerf-renderer/pkg/core"
	"github.com/df07/go-nerf-renderer/pkg/renderer"
	"github.com/df07/go-nerf-renderer/pkg/sampler"
)

// RenderGroundTruth volume-renders an analytic field along a ray bundle
// and returns the R×3 per-ray colors. Used to synthesize the
// ground-truth pixels of a training batch; deterministic (no jitter)
// so batches are reproducible.
func RenderGroundTruth(f core.Field, bundle *core.RayBundle, numSamples int, background core.Vec3) (*mat.Dense, error) {
	uniform, err := sampler.NewUniformSampler(0, 1, numSamples)
	if err != nil {
		return nil, err
	}
	samples, err := uniform.Sample(bundle, nil)
	if err != nil {
		return nil, err
	}

	outputs, err := f.Evaluate(samples)
	if err != nil {
		return nil, err
	}
	weights, err := samples.GetWeights(outputs[core.FieldHeadDensity])
	if err != nil {
		return nil, err
	}
	return renderer.NewRGBRenderer(background).Render(outputs[core.FieldHeadRGB], weights)
}
