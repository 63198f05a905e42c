package field

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/df07/go-nerf-renderer/pkg/core"
)

// FieldHead maps a feature vector to a named output tensor through a
// linear layer followed by an output activation
type FieldHead struct {
	name       core.FieldHeadName
	inDim      int
	outDim     int
	weight     *mat.Dense
	bias       *mat.Dense
	activation func(float64) float64
}

// NewDensityHead creates a head producing one non-negative scalar per
// sample. Softplus keeps density physically valid.
func NewDensityHead(inDim int, random *rand.Rand) (*FieldHead, error) {
	return newFieldHead(core.FieldHeadDensity, inDim, 1, Softplus, random)
}

// NewRGBHead creates a head producing three color channels per sample.
// Sigmoid bounds the output to the valid [0,1] color range.
func NewRGBHead(inDim int, random *rand.Rand) (*FieldHead, error) {
	return newFieldHead(core.FieldHeadRGB, inDim, 3, Sigmoid, random)
}

func newFieldHead(name core.FieldHeadName, inDim, outDim int, activation func(float64) float64, random *rand.Rand) (*FieldHead, error) {
	if inDim <= 0 {
		return nil, fmt.Errorf("%s head input dimension must be positive, got %d", name, inDim)
	}
	w, b := newLinear(inDim, outDim, random)
	return &FieldHead{
		name:       name,
		inDim:      inDim,
		outDim:     outDim,
		weight:     w,
		bias:       b,
		activation: activation,
	}, nil
}

// Name returns the output-kind identifier used as the key in FieldOutputs
func (h *FieldHead) Name() core.FieldHeadName {
	return h.name
}

// OutDim returns the number of output channels
func (h *FieldHead) OutDim() int {
	return h.outDim
}

// Forward maps N×inDim features to N×outDim activated outputs
func (h *FieldHead) Forward(features *mat.Dense) *mat.Dense {
	_, cols := features.Dims()
	if cols != h.inDim {
		panic(fmt.Sprintf("field: %s head expects %d input columns, got %d", h.name, h.inDim, cols))
	}

	var z mat.Dense
	z.Mul(features, h.weight.T())
	z.Apply(func(r, c int, v float64) float64 {
		return h.activation(v + h.bias.At(0, c))
	}, &z)

	rows, _ := features.Dims()
	out := mat.NewDense(rows, h.outDim, nil)
	out.Copy(&z)
	return out
}

// Parameters returns the head's learnable parameters
func (h *FieldHead) Parameters() []*mat.Dense {
	return []*mat.Dense{h.weight, h.bias}
}
