package graph_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/df07/go-nerf-renderer/pkg/core"
	"github.com/df07/go-nerf-renderer/pkg/field"
	"github.com/df07/go-nerf-renderer/pkg/graph"
	"github.com/df07/go-nerf-renderer/pkg/metrics"
	"github.com/df07/go-nerf-renderer/pkg/scene"
)

func smallConfig() graph.Config {
	config := graph.DefaultConfig()
	config.NumCoarseSamples = 8
	config.NumImportanceSamples = 8
	return config
}

func testBundle(t *testing.T, numRays int) *core.RayBundle {
	t.Helper()
	origins := make([]core.Vec3, numRays)
	directions := make([]core.Vec3, numRays)
	nears := make([]float64, numRays)
	fars := make([]float64, numRays)
	for r := 0; r < numRays; r++ {
		directions[r] = core.NewVec3(0, 0, -1)
		nears[r], fars[r] = 2, 6
	}
	bundle, err := core.NewRayBundle(origins, directions, nears, fars)
	require.NoError(t, err)
	return bundle
}

func TestNeRFGraph_OutputKeysAndShapes(t *testing.T) {
	empty := scene.NewEmptyField()
	g, err := graph.NewNeRFGraphWithFields(smallConfig(), empty, empty)
	require.NoError(t, err)

	outputs, err := g.GetOutputs(testBundle(t, 3), nil)
	require.NoError(t, err)

	for key, cols := range map[string]int{
		core.OutputRGBCoarse:          3,
		core.OutputRGBFine:            3,
		core.OutputAccumulationCoarse: 1,
		core.OutputAccumulationFine:   1,
		core.OutputDepthCoarse:        1,
		core.OutputDepthFine:          1,
	} {
		out, ok := outputs[key]
		require.True(t, ok, "missing output %s", key)
		rows, c := out.Dims()
		require.Equal(t, 3, rows, "output %s", key)
		require.Equal(t, cols, c, "output %s", key)
	}
}

func TestNeRFGraph_EmptySceneRendersBackground(t *testing.T) {
	empty := scene.NewEmptyField()
	g, err := graph.NewNeRFGraphWithFields(smallConfig(), empty, empty)
	require.NoError(t, err)

	outputs, err := g.GetOutputs(testBundle(t, 2), nil)
	require.NoError(t, err)

	for _, key := range []string{core.OutputRGBCoarse, core.OutputRGBFine} {
		rgb := outputs[key]
		for r := 0; r < 2; r++ {
			for c := 0; c < 3; c++ {
				require.Equal(t, 1.0, rgb.At(r, c), "%s ray %d", key, r)
			}
		}
	}
	for _, key := range []string{core.OutputAccumulationCoarse, core.OutputAccumulationFine, core.OutputDepthCoarse, core.OutputDepthFine} {
		out := outputs[key]
		for r := 0; r < 2; r++ {
			require.Equal(t, 0.0, out.At(r, 0), "%s ray %d", key, r)
		}
	}
}

func TestNeRFGraph_SphereSceneOpacityAndDepth(t *testing.T) {
	sphere := scene.NewSolidSphereScene()
	g, err := graph.NewNeRFGraphWithFields(smallConfig(), sphere, sphere)
	require.NoError(t, err)

	// The ray points straight at the sphere center at z = -4
	outputs, err := g.GetOutputs(testBundle(t, 1), nil)
	require.NoError(t, err)

	acc := outputs[core.OutputAccumulationFine].At(0, 0)
	require.Greater(t, acc, 0.9)
	require.LessOrEqual(t, acc, 1.0)

	// Expected depth lands near the front of the sphere
	depth := outputs[core.OutputDepthFine].At(0, 0)
	require.Greater(t, depth, 2.5)
	require.Less(t, depth, 4.5)
}

func TestNeRFGraph_LossDict(t *testing.T) {
	empty := scene.NewEmptyField()
	g, err := graph.NewNeRFGraphWithFields(smallConfig(), empty, empty)
	require.NoError(t, err)

	outputs, err := g.GetOutputs(testBundle(t, 2), nil)
	require.NoError(t, err)

	// Ground truth equal to the white background makes all losses zero
	white := mat.NewDense(2, 3, []float64{1, 1, 1, 1, 1, 1})
	losses, err := g.GetLossDict(outputs, graph.Batch{Pixels: white})
	require.NoError(t, err)

	require.Equal(t, 0.0, losses[graph.LossRGBCoarse])
	require.Equal(t, 0.0, losses[graph.LossRGBFine])
	require.Equal(t, 0.0, losses[graph.LossAggregated])

	// A black target against a white render gives unit squared error
	black := mat.NewDense(2, 3, nil)
	losses, err = g.GetLossDict(outputs, graph.Batch{Pixels: black})
	require.NoError(t, err)

	require.InDelta(t, 1.0, losses[graph.LossRGBCoarse], 1e-12)
	require.InDelta(t, 1.0, losses[graph.LossRGBFine], 1e-12)
	require.InDelta(t, 2.0, losses[graph.LossAggregated], 1e-12)
}

func TestNeRFGraph_LossDictMissingOutputs(t *testing.T) {
	empty := scene.NewEmptyField()
	g, err := graph.NewNeRFGraphWithFields(smallConfig(), empty, empty)
	require.NoError(t, err)

	_, err = g.GetLossDict(map[string]*mat.Dense{}, graph.Batch{Pixels: mat.NewDense(1, 3, nil)})
	require.Error(t, err)
}

func TestNeRFGraph_ParamGroups(t *testing.T) {
	config := smallConfig()
	config.Field = field.NeRFFieldConfig{
		NumLayers:       2,
		LayerWidth:      32,
		SkipConnections: nil,
		PositionEncoding: field.EncodingConfig{
			InDim: 3, NumFrequencies: 4, MinFreqExp: 0, MaxFreqExp: 4, IncludeInput: true,
		},
		DirectionEncoding: field.EncodingConfig{
			InDim: 3, NumFrequencies: 2, MinFreqExp: 0, MaxFreqExp: 2, IncludeInput: true,
		},
	}

	g, err := graph.NewNeRFGraph(config)
	require.NoError(t, err)

	groups := g.GetParamGroups()
	require.Contains(t, groups, "fields")
	require.NotEmpty(t, groups["fields"])

	// Analytic fields carry no learnable parameters
	empty := scene.NewEmptyField()
	analytic, err := graph.NewNeRFGraphWithFields(smallConfig(), empty, empty)
	require.NoError(t, err)
	require.Empty(t, analytic.GetParamGroups()["fields"])
}

func TestNeRFGraph_InvalidFieldConfig(t *testing.T) {
	config := smallConfig()
	config.Field.SkipConnections = []int{10}

	_, err := graph.NewNeRFGraph(config)
	require.Error(t, err)
}

func TestNeRFGraph_EvaluateImage(t *testing.T) {
	empty := scene.NewEmptyField()
	g, err := graph.NewNeRFGraphWithFields(smallConfig(), empty, empty)
	require.NoError(t, err)

	// Identical images produce infinite fine PSNR
	gt := [][]core.Vec3{{core.NewVec3(0.5, 0.5, 0.5), core.NewVec3(0.2, 0.4, 0.6)}}
	psnr, err := g.EvaluateImage(gt, gt, gt, 0, 100, metrics.NullWriter{})
	require.NoError(t, err)
	require.True(t, math.IsInf(psnr, 1))
}
