package sampler

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/df07/go-nerf-renderer/pkg/core"
)

func testBundle(t *testing.T, nears, fars []float64) *core.RayBundle {
	t.Helper()
	origins := make([]core.Vec3, len(nears))
	directions := make([]core.Vec3, len(nears))
	for i := range directions {
		directions[i] = core.NewVec3(0, 0, -1)
	}
	bundle, err := core.NewRayBundle(origins, directions, nears, fars)
	require.NoError(t, err)
	return bundle
}

func TestUniformSampler_InvalidConfig(t *testing.T) {
	_, err := NewUniformSampler(2, 6, 0)
	require.Error(t, err)

	_, err = NewUniformSampler(6, 2, 16)
	require.Error(t, err)
}

func TestUniformSampler_BinCenters(t *testing.T) {
	uniform, err := NewUniformSampler(2, 6, 4)
	require.NoError(t, err)

	samples, err := uniform.Sample(testBundle(t, []float64{2}, []float64{6}), nil)
	require.NoError(t, err)

	expected := []float64{2.5, 3.5, 4.5, 5.5}
	for s, want := range expected {
		require.InDelta(t, want, samples.Ts.At(0, s), 1e-12, "sample %d", s)
	}
}

func TestUniformSampler_JitterStaysInBins(t *testing.T) {
	uniform, err := NewUniformSampler(2, 6, 8)
	require.NoError(t, err)

	jitter := core.NewSeededSampler(42)
	samples, err := uniform.Sample(testBundle(t, []float64{2}, []float64{6}), jitter)
	require.NoError(t, err)

	binWidth := 4.0 / 8.0
	prev := math.Inf(-1)
	for s := 0; s < 8; s++ {
		ts := samples.Ts.At(0, s)
		lower := 2 + binWidth*float64(s)
		require.GreaterOrEqual(t, ts, lower, "sample %d below its bin", s)
		require.LessOrEqual(t, ts, lower+binWidth, "sample %d above its bin", s)
		require.Greater(t, ts, prev, "samples must be strictly increasing")
		prev = ts
	}
}

func TestUniformSampler_PerRayBounds(t *testing.T) {
	uniform, err := NewUniformSampler(2, 6, 4)
	require.NoError(t, err)

	samples, err := uniform.Sample(testBundle(t, []float64{1, 10}, []float64{3, 20}), nil)
	require.NoError(t, err)

	require.InDelta(t, 1.25, samples.Ts.At(0, 0), 1e-12)
	require.InDelta(t, 2.75, samples.Ts.At(0, 3), 1e-12)
	require.InDelta(t, 11.25, samples.Ts.At(1, 0), 1e-12)
	require.InDelta(t, 18.75, samples.Ts.At(1, 3), 1e-12)
}

func TestUniformSampler_FallbackBounds(t *testing.T) {
	uniform, err := NewUniformSampler(2, 6, 4)
	require.NoError(t, err)

	// Unset bounds fall back to the sampler's planes
	samples, err := uniform.Sample(testBundle(t, []float64{0}, []float64{0}), nil)
	require.NoError(t, err)
	require.InDelta(t, 2.5, samples.Ts.At(0, 0), 1e-12)
	require.InDelta(t, 5.5, samples.Ts.At(0, 3), 1e-12)
}

func TestUniformSampler_DegenerateNearFar(t *testing.T) {
	uniform, err := NewUniformSampler(2, 6, 4)
	require.NoError(t, err)

	// near == far gets clamped to a tiny but valid interval
	samples, err := uniform.Sample(testBundle(t, []float64{3, 3}, []float64{3, 3.0000000001}), nil)
	require.NoError(t, err)

	for r := 0; r < 2; r++ {
		prev := math.Inf(-1)
		for s := 0; s < 4; s++ {
			ts := samples.Ts.At(r, s)
			require.False(t, math.IsNaN(ts))
			require.False(t, math.IsInf(ts, 0))
			require.Greater(t, ts, prev)
			prev = ts
		}
	}
}
