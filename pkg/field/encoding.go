// Package field implements the learned radiance field: positional
// encodings, the MLP backbone, output heads, and their composition into
// a function from ray samples to density and color.
package field

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// EncodingConfig contains positional encoding parameters
type EncodingConfig struct {
	InDim          int     // Dimension of the raw input coordinates
	NumFrequencies int     // Number of sinusoid frequencies
	MinFreqExp     float64 // Exponent of the lowest frequency (2^min)
	MaxFreqExp     float64 // Exponent of the highest frequency (2^max)
	IncludeInput   bool    // Whether to prepend the raw input to the encoding
}

// NeRFEncoding maps low-dimensional coordinates into a sinusoidal
// frequency basis. It has no learned parameters; the transform is
// deterministic and applied independently per element.
type NeRFEncoding struct {
	config EncodingConfig
	freqs  []float64
}

// NewNeRFEncoding creates an encoding, precomputing the frequency ladder.
// Frequency exponents are linearly interpolated between the min and max
// exponents across the configured number of frequencies.
func NewNeRFEncoding(config EncodingConfig) (*NeRFEncoding, error) {
	if config.InDim <= 0 {
		return nil, fmt.Errorf("encoding input dimension must be positive, got %d", config.InDim)
	}
	if config.NumFrequencies <= 0 {
		return nil, fmt.Errorf("encoding must have at least one frequency, got %d", config.NumFrequencies)
	}
	if config.MaxFreqExp < config.MinFreqExp {
		return nil, fmt.Errorf("encoding max frequency exponent (%g) below min (%g)", config.MaxFreqExp, config.MinFreqExp)
	}

	freqs := make([]float64, config.NumFrequencies)
	for i := range freqs {
		exp := config.MinFreqExp
		if config.NumFrequencies > 1 {
			step := (config.MaxFreqExp - config.MinFreqExp) / float64(config.NumFrequencies-1)
			exp = config.MinFreqExp + float64(i)*step
		}
		freqs[i] = math.Pow(2, exp)
	}

	return &NeRFEncoding{config: config, freqs: freqs}, nil
}

// OutDim returns the encoded dimension: D*2F, plus D when the raw input
// is included. Queryable before any downstream layer is constructed.
func (e *NeRFEncoding) OutDim() int {
	outDim := e.config.InDim * 2 * e.config.NumFrequencies
	if e.config.IncludeInput {
		outDim += e.config.InDim
	}
	return outDim
}

// Encode maps an N×D matrix of coordinates to the N×OutDim frequency
// basis. Column layout: raw input (when included), then per frequency
// the sin components followed by the cos components. A column count
// other than the configured input dimension is a programming error and
// panics.
func (e *NeRFEncoding) Encode(x *mat.Dense) *mat.Dense {
	rows, cols := x.Dims()
	if cols != e.config.InDim {
		panic(fmt.Sprintf("field: encoding expects %d input columns, got %d", e.config.InDim, cols))
	}

	out := mat.NewDense(rows, e.OutDim(), nil)
	for r := 0; r < rows; r++ {
		c := 0
		if e.config.IncludeInput {
			for d := 0; d < cols; d++ {
				out.Set(r, c, x.At(r, d))
				c++
			}
		}
		for _, freq := range e.freqs {
			for d := 0; d < cols; d++ {
				out.Set(r, c, math.Sin(freq*x.At(r, d)))
				c++
			}
			for d := 0; d < cols; d++ {
				out.Set(r, c, math.Cos(freq*x.At(r, d)))
				c++
			}
		}
	}
	return out
}
