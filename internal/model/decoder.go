package model

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// ShallowDecoder expands a hidden-state summary into a full field
// reconstruction: two fully-connected ReLU layers with inverted dropout after
// each activation, then a linear projection to the field width. Dropout is
// applied during training only and is a strict no-op in evaluation mode.
type ShallowDecoder struct {
	inputSize  int
	l1         int
	l2         int
	outputSize int
	dropout    float64

	w1, b1 *mat.Dense
	w2, b2 *mat.Dense
	w3, b3 *mat.Dense

	gw1, gb1 *mat.Dense
	gw2, gb2 *mat.Dense
	gw3, gb3 *mat.Dense

	rng   *rand.Rand
	cache *decoderCache
}

type decoderCache struct {
	input        *mat.Dense
	z1, d1, m1   *mat.Dense
	z2, d2, m2   *mat.Dense
}

// NewShallowDecoder creates a decoder with hidden widths l1 and l2.
func NewShallowDecoder(inputSize, l1, l2, outputSize int, dropout float64, rng *rand.Rand) *ShallowDecoder {
	return &ShallowDecoder{
		inputSize:  inputSize,
		l1:         l1,
		l2:         l2,
		outputSize: outputSize,
		dropout:    dropout,
		rng:        rng,

		w1: xavierDense(inputSize, l1, rng),
		b1: mat.NewDense(1, l1, nil),
		w2: xavierDense(l1, l2, rng),
		b2: mat.NewDense(1, l2, nil),
		w3: xavierDense(l2, outputSize, rng),
		b3: mat.NewDense(1, outputSize, nil),

		gw1: mat.NewDense(inputSize, l1, nil),
		gb1: mat.NewDense(1, l1, nil),
		gw2: mat.NewDense(l1, l2, nil),
		gb2: mat.NewDense(1, l2, nil),
		gw3: mat.NewDense(l2, outputSize, nil),
		gb3: mat.NewDense(1, outputSize, nil),
	}
}

// Forward maps a batch of hidden states (batch x inputSize) to reconstructions
// (batch x outputSize).
func (d *ShallowDecoder) Forward(h *mat.Dense, training bool) *mat.Dense {
	z1 := d.linear(h, d.w1, d.b1)
	a1 := d.relu(z1)
	d1, m1 := d.applyDropout(a1, training)

	z2 := d.linear(d1, d.w2, d.b2)
	a2 := d.relu(z2)
	d2, m2 := d.applyDropout(a2, training)

	out := d.linear(d2, d.w3, d.b3)

	if training {
		d.cache = &decoderCache{input: h, z1: z1, d1: d1, m1: m1, z2: z2, d2: d2, m2: m2}
	} else {
		d.cache = nil
	}
	return out
}

// Backward takes the loss gradient with respect to the output and returns the
// gradient with respect to the hidden-state input. Parameter gradients are
// recomputed from scratch on every call.
func (d *ShallowDecoder) Backward(dOut *mat.Dense) *mat.Dense {
	c := d.cache

	d.gw3.Zero()
	d.gb3.Zero()
	addMulT(d.gw3, c.d2, dOut)
	addColSums(d.gb3, dOut)

	dd2 := &mat.Dense{}
	dd2.Mul(dOut, d.w3.T())
	if c.m2 != nil {
		dd2.MulElem(dd2, c.m2)
	}
	dz2 := elemMul(dd2, reluDeriv(c.z2))

	d.gw2.Zero()
	d.gb2.Zero()
	addMulT(d.gw2, c.d1, dz2)
	addColSums(d.gb2, dz2)

	dd1 := &mat.Dense{}
	dd1.Mul(dz2, d.w2.T())
	if c.m1 != nil {
		dd1.MulElem(dd1, c.m1)
	}
	dz1 := elemMul(dd1, reluDeriv(c.z1))

	d.gw1.Zero()
	d.gb1.Zero()
	addMulT(d.gw1, c.input, dz1)
	addColSums(d.gb1, dz1)

	dh := &mat.Dense{}
	dh.Mul(dz1, d.w1.T())
	return dh
}

func (d *ShallowDecoder) linear(x, w, b *mat.Dense) *mat.Dense {
	out := &mat.Dense{}
	out.Mul(x, w)
	addRowVector(out, b)
	return out
}

func (d *ShallowDecoder) relu(z *mat.Dense) *mat.Dense {
	out := zerosLike(z)
	out.Apply(func(_, _ int, v float64) float64 {
		if v > 0 {
			return v
		}
		return 0
	}, z)
	return out
}

// applyDropout applies an inverted dropout mask in training mode. The mask is
// returned so the backward pass can reuse it; at evaluation time the input is
// passed through untouched with a nil mask.
func (d *ShallowDecoder) applyDropout(a *mat.Dense, training bool) (*mat.Dense, *mat.Dense) {
	if !training || d.dropout == 0 {
		return a, nil
	}
	keep := 1 - d.dropout
	mask := zerosLike(a)
	mask.Apply(func(_, _ int, _ float64) float64 {
		if d.rng.Float64() < keep {
			return 1 / keep
		}
		return 0
	}, mask)
	return elemMul(a, mask), mask
}

func (d *ShallowDecoder) parameters() []*mat.Dense {
	return []*mat.Dense{d.w1, d.b1, d.w2, d.b2, d.w3, d.b3}
}

func (d *ShallowDecoder) gradients() []*mat.Dense {
	return []*mat.Dense{d.gw1, d.gb1, d.gw2, d.gb2, d.gw3, d.gb3}
}
