package training

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestMSE(t *testing.T) {
	pred := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	target := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	assert.Equal(t, 0.0, MSE(pred, target))

	target = mat.NewDense(2, 2, []float64{0, 2, 3, 2})
	// Squared errors 1, 0, 0, 4 over 4 elements.
	assert.InDelta(t, 1.25, MSE(pred, target), 1e-12)
}

func TestRelativeL2Error(t *testing.T) {
	truth := mat.NewDense(2, 2, []float64{3, 0, 0, 4})
	assert.InDelta(t, 0.0, RelativeL2Error(truth, truth), 1e-12)

	pred := mat.NewDense(2, 2, []float64{6, 0, 0, 8})
	// ||pred - truth|| equals ||truth||, so the relative error is 1.
	assert.InDelta(t, 1.0, RelativeL2Error(pred, truth), 1e-12)

	zeroPred := mat.NewDense(2, 2, nil)
	assert.InDelta(t, 1.0, RelativeL2Error(zeroPred, truth), 1e-12)
}

func TestMSEGradient(t *testing.T) {
	pred := mat.NewDense(1, 2, []float64{2, 5})
	target := mat.NewDense(1, 2, []float64{1, 1})

	grad := mseGradient(pred, target)
	assert.InDelta(t, 1.0, grad.At(0, 0), 1e-12)
	assert.InDelta(t, 4.0, grad.At(0, 1), 1e-12)

	// The analytic gradient matches finite differences of MSE.
	const eps = 1e-6
	for j := 0; j < 2; j++ {
		orig := pred.At(0, j)
		pred.Set(0, j, orig+eps)
		plus := MSE(pred, target)
		pred.Set(0, j, orig-eps)
		minus := MSE(pred, target)
		pred.Set(0, j, orig)

		numeric := (plus - minus) / (2 * eps)
		assert.InDelta(t, numeric, grad.At(0, j), 1e-6*math.Max(1, math.Abs(numeric)))
	}
}
