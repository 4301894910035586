package model

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/oceankit/shred/pkg/errors"
)

// AdamOptimizer implements the Adam optimization algorithm over a flat list
// of parameter matrices.
type AdamOptimizer struct {
	learningRate float64
	beta1        float64
	beta2        float64
	epsilon      float64
	t            int
	m            []*mat.Dense // first moment estimate
	v            []*mat.Dense // second moment estimate
}

// NewAdamOptimizer creates an Adam optimizer with standard moment decay rates.
func NewAdamOptimizer(learningRate float64) *AdamOptimizer {
	return &AdamOptimizer{
		learningRate: learningRate,
		beta1:        0.9,
		beta2:        0.999,
		epsilon:      1e-8,
	}
}

// Step applies one update to params from the aligned gradients.
func (opt *AdamOptimizer) Step(params, grads []*mat.Dense) error {
	if len(params) != len(grads) {
		return errors.NewTrainingError(errors.CodeTrainingFailed,
			fmt.Sprintf("got %d gradients for %d parameters", len(grads), len(params)))
	}
	if len(opt.m) != len(params) {
		opt.initializeMoments(params)
	}
	opt.t++

	beta1Correction := 1 - math.Pow(opt.beta1, float64(opt.t))
	beta2Correction := 1 - math.Pow(opt.beta2, float64(opt.t))

	for i, param := range params {
		grad := grads[i]
		rows, cols := param.Dims()
		for r := 0; r < rows; r++ {
			for c := 0; c < cols; c++ {
				g := grad.At(r, c)

				m := opt.beta1*opt.m[i].At(r, c) + (1-opt.beta1)*g
				opt.m[i].Set(r, c, m)

				v := opt.beta2*opt.v[i].At(r, c) + (1-opt.beta2)*g*g
				opt.v[i].Set(r, c, v)

				mHat := m / beta1Correction
				vHat := v / beta2Correction

				update := opt.learningRate * mHat / (math.Sqrt(vHat) + opt.epsilon)
				param.Set(r, c, param.At(r, c)-update)
			}
		}
	}
	return nil
}

// LearningRate returns the configured learning rate.
func (opt *AdamOptimizer) LearningRate() float64 {
	return opt.learningRate
}

// Reset clears the optimizer state.
func (opt *AdamOptimizer) Reset() {
	opt.t = 0
	opt.m = nil
	opt.v = nil
}

func (opt *AdamOptimizer) initializeMoments(params []*mat.Dense) {
	opt.m = make([]*mat.Dense, len(params))
	opt.v = make([]*mat.Dense, len(params))
	for i, p := range params {
		rows, cols := p.Dims()
		opt.m[i] = mat.NewDense(rows, cols, nil)
		opt.v[i] = mat.NewDense(rows, cols, nil)
	}
}
