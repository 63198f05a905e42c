package field

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// ReLU is the rectified linear unit activation
func ReLU(x float64) float64 {
	return math.Max(0, x)
}

// Sigmoid squashes values into (0, 1)
func Sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// Softplus is a smooth non-negative activation, log(1+e^x).
// Large inputs return x directly to avoid overflow in the exponential.
func Softplus(x float64) float64 {
	if x > 20 {
		return x
	}
	return math.Log1p(math.Exp(x))
}

// MLPConfig contains multi-layer perceptron parameters
type MLPConfig struct {
	InDim           int                   // Input feature dimension
	OutDim          int                   // Output feature dimension
	NumLayers       int                   // Total number of linear layers
	LayerWidth      int                   // Width of hidden layers
	SkipConnections []int                 // Layer indices where the input is re-concatenated
	Activation      func(float64) float64 // Hidden layer activation (default ReLU)
	OutActivation   func(float64) float64 // Final layer activation (nil = linear)
}

// MLP is a feed-forward network with optional skip connections that
// re-concatenate the original input into the hidden state, mitigating
// vanishing gradients in deep coordinate networks.
type MLP struct {
	config  MLPConfig
	skips   map[int]bool
	weights []*mat.Dense // Per-layer weight matrices, outDim×inDim
	biases  []*mat.Dense // Per-layer bias rows, 1×outDim
}

// NewMLP creates an MLP with the given configuration, initializing
// parameters from the provided random generator. Construction fails
// if a skip connection references a layer outside [0, NumLayers).
func NewMLP(config MLPConfig, random *rand.Rand) (*MLP, error) {
	if config.InDim <= 0 || config.OutDim <= 0 {
		return nil, fmt.Errorf("mlp dimensions must be positive, got in=%d out=%d", config.InDim, config.OutDim)
	}
	if config.NumLayers < 1 {
		return nil, fmt.Errorf("mlp must have at least one layer, got %d", config.NumLayers)
	}
	if config.NumLayers > 1 && config.LayerWidth <= 0 {
		return nil, fmt.Errorf("mlp hidden layer width must be positive, got %d", config.LayerWidth)
	}
	if config.Activation == nil {
		config.Activation = ReLU
	}

	skips := make(map[int]bool, len(config.SkipConnections))
	for _, idx := range config.SkipConnections {
		if idx < 0 || idx >= config.NumLayers {
			return nil, fmt.Errorf("skip connection index %d out of range for %d layers", idx, config.NumLayers)
		}
		skips[idx] = true
	}

	m := &MLP{config: config, skips: skips}
	for i := 0; i < config.NumLayers; i++ {
		inDim := config.LayerWidth
		if i == 0 {
			inDim = config.InDim
		}
		if skips[i] {
			inDim += config.InDim
		}
		outDim := config.LayerWidth
		if i == config.NumLayers-1 {
			outDim = config.OutDim
		}
		w, b := newLinear(inDim, outDim, random)
		m.weights = append(m.weights, w)
		m.biases = append(m.biases, b)
	}
	return m, nil
}

// newLinear initializes a linear layer with uniform fan-in scaling,
// w, b ~ U(-1/sqrt(in), 1/sqrt(in))
func newLinear(inDim, outDim int, random *rand.Rand) (*mat.Dense, *mat.Dense) {
	bound := 1 / math.Sqrt(float64(inDim))
	w := mat.NewDense(outDim, inDim, nil)
	for r := 0; r < outDim; r++ {
		for c := 0; c < inDim; c++ {
			w.Set(r, c, (2*random.Float64()-1)*bound)
		}
	}
	b := mat.NewDense(1, outDim, nil)
	for c := 0; c < outDim; c++ {
		b.Set(0, c, (2*random.Float64()-1)*bound)
	}
	return w, b
}

// OutDim returns the output feature dimension, queryable before use by
// downstream composers
func (m *MLP) OutDim() int {
	return m.config.OutDim
}

// Forward runs a batch of feature rows (N×InDim) through the network,
// returning N×OutDim. Hidden layers apply the configured activation;
// the final layer applies OutActivation when set.
func (m *MLP) Forward(x *mat.Dense) *mat.Dense {
	rows, cols := x.Dims()
	if cols != m.config.InDim {
		panic(fmt.Sprintf("field: mlp expects %d input columns, got %d", m.config.InDim, cols))
	}

	h := x
	for i := range m.weights {
		if m.skips[i] {
			h = hstack(h, x)
		}

		var z mat.Dense
		z.Mul(h, m.weights[i].T())
		z.Apply(func(r, c int, v float64) float64 {
			return v + m.biases[i].At(0, c)
		}, &z)

		activation := m.config.Activation
		if i == len(m.weights)-1 {
			activation = m.config.OutActivation
		}
		if activation != nil {
			z.Apply(func(_, _ int, v float64) float64 {
				return activation(v)
			}, &z)
		}
		h = &z
	}

	out := mat.NewDense(rows, m.config.OutDim, nil)
	out.Copy(h)
	return out
}

// Parameters returns the learnable parameter matrices, weights and
// biases interleaved by layer
func (m *MLP) Parameters() []*mat.Dense {
	params := make([]*mat.Dense, 0, 2*len(m.weights))
	for i := range m.weights {
		params = append(params, m.weights[i], m.biases[i])
	}
	return params
}

// hstack concatenates two matrices column-wise
func hstack(a, b *mat.Dense) *mat.Dense {
	ra, ca := a.Dims()
	rb, cb := b.Dims()
	if ra != rb {
		panic(fmt.Sprintf("field: cannot concatenate %d and %d rows", ra, rb))
	}
	out := mat.NewDense(ra, ca+cb, nil)
	out.Slice(0, ra, 0, ca).(*mat.Dense).Copy(a)
	out.Slice(0, ra, ca, ca+cb).(*mat.Dense).Copy(b)
	return out
}
