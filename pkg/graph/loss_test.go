package graph

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestMSELoss(t *testing.T) {
	loss := NewMSELoss()

	pred := mat.NewDense(2, 3, []float64{1, 1, 1, 0, 0, 0})
	same, err := loss.Loss(pred, pred)
	require.NoError(t, err)
	require.Equal(t, 0.0, same)

	target := mat.NewDense(2, 3, []float64{0, 1, 1, 0, 0, 1})
	value, err := loss.Loss(pred, target)
	require.NoError(t, err)
	require.InDelta(t, 2.0/6.0, value, 1e-12)
}

func TestMSELoss_ShapeMismatch(t *testing.T) {
	loss := NewMSELoss()
	_, err := loss.Loss(mat.NewDense(2, 3, nil), mat.NewDense(3, 3, nil))
	require.Error(t, err)
}
