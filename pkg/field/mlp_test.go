package field

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestNewMLP_SkipIndexOutOfRange(t *testing.T) {
	tests := []struct {
		name  string
		skips []int
		valid bool
	}{
		{"no skips", nil, true},
		{"first layer", []int{0}, true},
		{"middle layer", []int{4}, true},
		{"last layer", []int{7}, true},
		{"past the end", []int{10}, false},
		{"at layer count", []int{8}, false},
		{"negative", []int{-1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMLP(MLPConfig{
				InDim:           63,
				OutDim:          256,
				NumLayers:       8,
				LayerWidth:      256,
				SkipConnections: tt.skips,
			}, rand.New(rand.NewSource(1)))
			if tt.valid {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
			}
		})
	}
}

func TestNewMLP_InvalidDimensions(t *testing.T) {
	random := rand.New(rand.NewSource(1))

	_, err := NewMLP(MLPConfig{InDim: 0, OutDim: 8, NumLayers: 2, LayerWidth: 8}, random)
	require.Error(t, err)

	_, err = NewMLP(MLPConfig{InDim: 8, OutDim: 8, NumLayers: 0, LayerWidth: 8}, random)
	require.Error(t, err)

	_, err = NewMLP(MLPConfig{InDim: 8, OutDim: 8, NumLayers: 3, LayerWidth: 0}, random)
	require.Error(t, err)
}

func TestMLP_ForwardShape(t *testing.T) {
	mlp, err := NewMLP(MLPConfig{
		InDim:           5,
		OutDim:          7,
		NumLayers:       3,
		LayerWidth:      16,
		SkipConnections: []int{1},
	}, rand.New(rand.NewSource(3)))
	require.NoError(t, err)
	require.Equal(t, 7, mlp.OutDim())

	x := mat.NewDense(4, 5, nil)
	out := mlp.Forward(x)
	rows, cols := out.Dims()
	require.Equal(t, 4, rows)
	require.Equal(t, 7, cols)
}

func TestMLP_SingleLayer(t *testing.T) {
	mlp, err := NewMLP(MLPConfig{
		InDim:     3,
		OutDim:    2,
		NumLayers: 1,
	}, rand.New(rand.NewSource(4)))
	require.NoError(t, err)

	out := mlp.Forward(mat.NewDense(1, 3, []float64{1, 2, 3}))
	_, cols := out.Dims()
	require.Equal(t, 2, cols)
}

func TestMLP_Reproducible(t *testing.T) {
	build := func() *MLP {
		mlp, err := NewMLP(MLPConfig{
			InDim:           4,
			OutDim:          6,
			NumLayers:       4,
			LayerWidth:      32,
			SkipConnections: []int{2},
		}, rand.New(rand.NewSource(99)))
		require.NoError(t, err)
		return mlp
	}

	x := mat.NewDense(3, 4, []float64{
		0.1, 0.2, 0.3, 0.4,
		-1, 0, 1, 2,
		5, -5, 0.5, -0.5,
	})

	first := build().Forward(x)
	second := build().Forward(x)
	require.True(t, mat.Equal(first, second), "same seed must give bit-identical outputs")
}

func TestMLP_OutActivation(t *testing.T) {
	mlp, err := NewMLP(MLPConfig{
		InDim:         2,
		OutDim:        4,
		NumLayers:     2,
		LayerWidth:    8,
		OutActivation: Sigmoid,
	}, rand.New(rand.NewSource(5)))
	require.NoError(t, err)

	out := mlp.Forward(mat.NewDense(2, 2, []float64{10, -10, 0.5, 0.5}))
	rows, cols := out.Dims()
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			v := out.At(r, c)
			require.Greater(t, v, 0.0)
			require.Less(t, v, 1.0)
		}
	}
}

func TestActivations(t *testing.T) {
	require.Equal(t, 0.0, ReLU(-3))
	require.Equal(t, 2.5, ReLU(2.5))

	require.InDelta(t, 0.5, Sigmoid(0), 1e-12)

	require.GreaterOrEqual(t, Softplus(-100), 0.0)
	require.InDelta(t, 100.0, Softplus(100), 1e-9, "softplus must not overflow for large inputs")
}
