package model

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestRecurrentEncoderForwardShape(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	enc := NewRecurrentEncoder(3, 8, 2, rng)

	h := enc.Forward(testSequence(5, 4, 3), false)
	rows, cols := h.Dims()
	assert.Equal(t, 4, rows)
	assert.Equal(t, 8, cols)
}

func TestRecurrentEncoderFinalStateDependsOnEveryTimestep(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	enc := NewRecurrentEncoder(2, 6, 1, rng)

	seq := testSequence(4, 1, 2)
	base := mat.DenseCopyOf(enc.Forward(seq, false))

	// Perturbing the first timestep must reach the final hidden state.
	seq[0].Set(0, 0, seq[0].At(0, 0)+1.0)
	moved := enc.Forward(seq, false)
	assert.False(t, mat.Equal(base, moved))
}

func TestLSTMLayerForgetGateBiasInit(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	layer := newLSTMLayer(3, 4, rng)

	for j := 0; j < 4; j++ {
		assert.Equal(t, 1.0, layer.bf.At(0, j))
		assert.Equal(t, 0.0, layer.bi.At(0, j))
		assert.Equal(t, 0.0, layer.bg.At(0, j))
		assert.Equal(t, 0.0, layer.bo.At(0, j))
	}
}

func TestLSTMLayerCacheOnlyInTraining(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	layer := newLSTMLayer(2, 4, rng)
	seq := testSequence(3, 2, 2)

	layer.forward(seq, false)
	assert.Nil(t, layer.cache)

	layer.forward(seq, true)
	require.NotNil(t, layer.cache)
	assert.Len(t, layer.cache.inputs, 3)
	assert.Len(t, layer.cache.h, 4)
	assert.Len(t, layer.cache.c, 4)
}

// Finite differences against the analytic gradient on a tiny layer. Only the
// final timestep's hidden state contributes to the loss, matching how the
// encoder is used.
func TestLSTMLayerBackwardMatchesFiniteDifference(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	layer := newLSTMLayer(2, 3, rng)

	seq := testSequence(4, 2, 2)
	T := len(seq)

	// Loss = sum of final hidden state entries, so dL/dh_T is all ones.
	loss := func() float64 {
		outs := layer.forward(seq, true)
		final := outs[T-1]
		sum := 0.0
		rows, cols := final.Dims()
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				sum += final.At(i, j)
			}
		}
		return sum
	}

	loss()
	dhSeq := make([]*mat.Dense, T)
	ones := mat.NewDense(2, 3, nil)
	ones.Apply(func(_, _ int, _ float64) float64 { return 1 }, ones)
	dhSeq[T-1] = ones
	layer.backward(dhSeq)

	analytic := make([]*mat.Dense, 0)
	for _, g := range layer.gradients() {
		analytic = append(analytic, mat.DenseCopyOf(g))
	}

	const eps = 1e-5
	params := layer.parameters()
	for pi, p := range params {
		rows, cols := p.Dims()
		for r := 0; r < rows; r++ {
			for c := 0; c < cols; c++ {
				orig := p.At(r, c)
				p.Set(r, c, orig+eps)
				plus := loss()
				p.Set(r, c, orig-eps)
				minus := loss()
				p.Set(r, c, orig)

				numeric := (plus - minus) / (2 * eps)
				got := analytic[pi].At(r, c)
				assert.InDeltaf(t, numeric, got, 1e-4*math.Max(1, math.Abs(numeric)),
					"parameter %d entry (%d,%d)", pi, r, c)
			}
		}
	}
}

// The input width of the first layer differs from the hidden width in every
// realistic configuration; backward must handle the rectangular case.
func TestLSTMLayerBackwardRectangularInput(t *testing.T) {
	rng := rand.New(rand.NewSource(12))
	layer := newLSTMLayer(2, 3, rng)

	seq := testSequence(4, 2, 2)
	layer.forward(seq, true)

	dhSeq := make([]*mat.Dense, len(seq))
	final := mat.NewDense(2, 3, nil)
	final.Apply(func(_, _ int, _ float64) float64 { return 1 }, final)
	dhSeq[len(seq)-1] = final

	dxs := layer.backward(dhSeq)
	require.Len(t, dxs, len(seq))
	for t2, dx := range dxs {
		rows, cols := dx.Dims()
		assert.Equal(t, 2, rows, "timestep %d", t2)
		assert.Equal(t, 2, cols, "timestep %d", t2)
	}
}

func TestRecurrentEncoderBackwardFillsAllLayers(t *testing.T) {
	rng := rand.New(rand.NewSource(8))
	enc := NewRecurrentEncoder(3, 4, 2, rng)

	seq := testSequence(5, 2, 3)
	h := enc.Forward(seq, true)

	dh := mat.DenseCopyOf(h)
	dh.Apply(func(_, _ int, _ float64) float64 { return 1 }, dh)
	enc.Backward(dh)

	for i, g := range enc.gradients() {
		assert.Greater(t, mat.Norm(g, 2), 0.0, "gradient %d is zero", i)
	}
}
