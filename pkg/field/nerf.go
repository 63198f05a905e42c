package field

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/df07/go-nerf-renderer/pkg/core"
)

// NeRFFieldConfig contains the architecture parameters of a NeRF field
type NeRFFieldConfig struct {
	NumLayers         int            // Depth of the base MLP
	LayerWidth        int            // Width of the base MLP
	SkipConnections   []int          // Skip connection layer indices in the base MLP
	PositionEncoding  EncodingConfig // Encoding applied to sample positions
	DirectionEncoding EncodingConfig // Encoding applied to ray directions
}

// DefaultNeRFFieldConfig returns the vanilla NeRF architecture: an
// 8×256 base MLP with a skip connection at layer 4, 10 position
// frequencies and 4 direction frequencies
func DefaultNeRFFieldConfig() NeRFFieldConfig {
	return NeRFFieldConfig{
		NumLayers:       8,
		LayerWidth:      256,
		SkipConnections: []int{4},
		PositionEncoding: EncodingConfig{
			InDim:          3,
			NumFrequencies: 10,
			MinFreqExp:     0,
			MaxFreqExp:     8,
			IncludeInput:   true,
		},
		DirectionEncoding: EncodingConfig{
			InDim:          3,
			NumFrequencies: 4,
			MinFreqExp:     0,
			MaxFreqExp:     4,
			IncludeInput:   true,
		},
	}
}

// NeRFField composes encoders, MLPs and output heads into a function
// from ray samples to density and color. Density depends only on
// position; color additionally conditions on the viewing direction
// through a second shallow MLP, which lets the field represent
// view-dependent effects without making geometry view-dependent.
type NeRFField struct {
	config      NeRFFieldConfig
	encodingXYZ *NeRFEncoding
	encodingDir *NeRFEncoding
	mlpBase     *MLP
	mlpRGB      *MLP
	headDensity *FieldHead
	headRGB     *FieldHead
}

// NewNeRFField creates a field with freshly initialized parameters drawn
// from the provided random generator. Configuration errors (invalid skip
// indices, non-positive dimensions) surface here, before any forward
// pass.
func NewNeRFField(config NeRFFieldConfig, random *rand.Rand) (*NeRFField, error) {
	encodingXYZ, err := NewNeRFEncoding(config.PositionEncoding)
	if err != nil {
		return nil, fmt.Errorf("position encoding: %v", err)
	}
	encodingDir, err := NewNeRFEncoding(config.DirectionEncoding)
	if err != nil {
		return nil, fmt.Errorf("direction encoding: %v", err)
	}

	mlpBase, err := NewMLP(MLPConfig{
		InDim:           encodingXYZ.OutDim(),
		OutDim:          config.LayerWidth,
		NumLayers:       config.NumLayers,
		LayerWidth:      config.LayerWidth,
		SkipConnections: config.SkipConnections,
		Activation:      ReLU,
		OutActivation:   ReLU,
	}, random)
	if err != nil {
		return nil, fmt.Errorf("base mlp: %v", err)
	}

	mlpRGB, err := NewMLP(MLPConfig{
		InDim:         encodingDir.OutDim() + mlpBase.OutDim(),
		OutDim:        config.LayerWidth / 2,
		NumLayers:     2,
		LayerWidth:    config.LayerWidth / 2,
		Activation:    ReLU,
		OutActivation: ReLU,
	}, random)
	if err != nil {
		return nil, fmt.Errorf("rgb mlp: %v", err)
	}

	headDensity, err := NewDensityHead(mlpBase.OutDim(), random)
	if err != nil {
		return nil, err
	}
	headRGB, err := NewRGBHead(mlpRGB.OutDim(), random)
	if err != nil {
		return nil, err
	}

	return &NeRFField{
		config:      config,
		encodingXYZ: encodingXYZ,
		encodingDir: encodingDir,
		mlpBase:     mlpBase,
		mlpRGB:      mlpRGB,
		headDensity: headDensity,
		headRGB:     headRGB,
	}, nil
}

// Evaluate runs the field at all points of the ray samples, returning
// per-sample density and color aligned with the flattened samples
func (f *NeRFField) Evaluate(samples *core.RaySamples) (core.FieldOutputs, error) {
	encodedXYZ := f.encodingXYZ.Encode(samples.PositionsMatrix())
	encodedDir := f.encodingDir.Encode(samples.DirectionsMatrix())

	baseFeatures := f.mlpBase.Forward(encodedXYZ)
	density := f.headDensity.Forward(baseFeatures)

	rgbFeatures := f.mlpRGB.Forward(hstack(encodedDir, baseFeatures))
	rgb := f.headRGB.Forward(rgbFeatures)

	return core.FieldOutputs{
		core.FieldHeadDensity: density,
		core.FieldHeadRGB:     rgb,
	}, nil
}

// Parameters returns all learnable parameters of the field
func (f *NeRFField) Parameters() []*mat.Dense {
	var params []*mat.Dense
	params = append(params, f.mlpBase.Parameters()...)
	params = append(params, f.mlpRGB.Parameters()...)
	params = append(params, f.headDensity.Parameters()...)
	params = append(params, f.headRGB.Parameters()...)
	return params
}
