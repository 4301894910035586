package training

import (
	"gonum.org/v1/gonum/mat"
)

// MSE returns the mean squared error between two equally shaped matrices,
// averaged over every element.
func MSE(pred, target *mat.Dense) float64 {
	rows, cols := pred.Dims()
	var sum float64
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			d := pred.At(i, j) - target.At(i, j)
			sum += d * d
		}
	}
	return sum / float64(rows*cols)
}

// RelativeL2Error returns ||pred - truth||_F / ||truth||_F, the standard
// relative reconstruction error metric.
func RelativeL2Error(pred, truth *mat.Dense) float64 {
	var diff mat.Dense
	diff.Sub(pred, truth)
	return mat.Norm(&diff, 2) / mat.Norm(truth, 2)
}

// mseGradient returns the gradient of MSE with respect to pred, scaled by the
// element count so batch size does not change the effective learning rate.
func mseGradient(pred, target *mat.Dense) *mat.Dense {
	rows, cols := pred.Dims()
	grad := mat.NewDense(rows, cols, nil)
	scale := 2.0 / float64(rows*cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			grad.Set(i, j, scale*(pred.At(i, j)-target.At(i, j)))
		}
	}
	return grad
}
