package core

import (
	"gonum.org/v1/gonum/mat"
)

// FieldHeadName identifies the kind of per-sample quantity a field head produces
type FieldHeadName int

const (
	// FieldHeadDensity is the volume density head output (N×1, non-negative)
	FieldHeadDensity FieldHeadName = iota
	// FieldHeadRGB is the color head output (N×3, in [0,1])
	FieldHeadRGB
)

// String returns a human-readable name for the field head
func (n FieldHeadName) String() string {
	switch n {
	case FieldHeadDensity:
		return "density"
	case FieldHeadRGB:
		return "rgb"
	default:
		return "unknown"
	}
}

// FieldOutputs maps output kinds to per-sample value matrices.
// Rows are aligned 1:1 with the flattened samples of the RaySamples
// the field was evaluated on.
type FieldOutputs map[FieldHeadName]*mat.Dense

// Field evaluates density and color at points along rays.
// Implementations include the learned neural field and analytic
// reference fields used for synthesizing ground truth.
type Field interface {
	Evaluate(samples *RaySamples) (FieldOutputs, error)
}

// Keys of the named per-ray tensors produced by a graph forward pass
const (
	OutputRGBCoarse          = "rgb_coarse"
	OutputRGBFine            = "rgb_fine"
	OutputAccumulationCoarse = "accumulation_coarse"
	OutputAccumulationFine   = "accumulation_fine"
	OutputDepthCoarse        = "depth_coarse"
	OutputDepthFine          = "depth_fine"
)

// Logger interface for renderer progress output
type Logger interface {
	Printf(format string, args ...interface{})
}
