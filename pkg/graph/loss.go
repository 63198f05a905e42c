package graph

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// MSELoss computes mean squared error between prediction and target
type MSELoss struct{}

// NewMSELoss creates an MSE loss
func NewMSELoss() *MSELoss {
	return &MSELoss{}
}

// Loss returns the mean of squared element differences
func (l *MSELoss) Loss(pred, target *mat.Dense) (float64, error) {
	pr, pc := pred.Dims()
	tr, tc := target.Dims()
	if pr != tr || pc != tc {
		return 0, fmt.Errorf("loss shapes do not match: %d×%d vs %d×%d", pr, pc, tr, tc)
	}

	sum := 0.0
	for r := 0; r < pr; r++ {
		for c := 0; c < pc; c++ {
			d := pred.At(r, c) - target.At(r, c)
			sum += d * d
		}
	}
	return sum / float64(pr*pc), nil
}
