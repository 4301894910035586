package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestAdamFirstStepMagnitude(t *testing.T) {
	opt := NewAdamOptimizer(0.01)
	param := mat.NewDense(1, 2, []float64{1.0, -1.0})
	grad := mat.NewDense(1, 2, []float64{0.5, -2.0})

	require.NoError(t, opt.Step([]*mat.Dense{param}, []*mat.Dense{grad}))

	// With bias correction the first update has magnitude learningRate
	// regardless of gradient scale, signed by the gradient.
	assert.InDelta(t, 1.0-0.01, param.At(0, 0), 1e-6)
	assert.InDelta(t, -1.0+0.01, param.At(0, 1), 1e-6)
}

func TestAdamConvergesOnQuadratic(t *testing.T) {
	opt := NewAdamOptimizer(0.1)
	param := mat.NewDense(1, 1, []float64{5.0})
	grad := mat.NewDense(1, 1, nil)

	// Minimize f(x) = x^2 with gradient 2x.
	for i := 0; i < 500; i++ {
		grad.Set(0, 0, 2*param.At(0, 0))
		require.NoError(t, opt.Step([]*mat.Dense{param}, []*mat.Dense{grad}))
	}
	assert.InDelta(t, 0.0, param.At(0, 0), 0.05)
}

func TestAdamRejectsMisalignedGradients(t *testing.T) {
	opt := NewAdamOptimizer(0.01)
	param := mat.NewDense(1, 1, nil)

	err := opt.Step([]*mat.Dense{param}, nil)
	assert.Error(t, err)
}

func TestAdamReset(t *testing.T) {
	opt := NewAdamOptimizer(0.01)
	param := mat.NewDense(1, 1, []float64{1.0})
	grad := mat.NewDense(1, 1, []float64{1.0})

	require.NoError(t, opt.Step([]*mat.Dense{param}, []*mat.Dense{grad}))
	opt.Reset()

	// After reset the next step behaves like a first step again.
	before := param.At(0, 0)
	require.NoError(t, opt.Step([]*mat.Dense{param}, []*mat.Dense{grad}))
	assert.InDelta(t, before-0.01, param.At(0, 0), 1e-6)

	assert.Equal(t, 0.01, opt.LearningRate())
}
