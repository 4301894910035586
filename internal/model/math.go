package model

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

// xavierDense initializes a rows x cols weight matrix with scaled normal
// values, matching Xavier/Glorot initialization.
func xavierDense(rows, cols int, rng *rand.Rand) *mat.Dense {
	scale := math.Sqrt(2.0 / float64(rows+cols))
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = rng.NormFloat64() * scale
	}
	return mat.NewDense(rows, cols, data)
}

// addRowVector adds a 1 x k bias row to every row of dst.
func addRowVector(dst *mat.Dense, bias *mat.Dense) {
	rows, cols := dst.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			dst.Set(i, j, dst.At(i, j)+bias.At(0, j))
		}
	}
}

// addColSums accumulates the column sums of src into the 1 x k matrix dst.
func addColSums(dst *mat.Dense, src *mat.Dense) {
	rows, cols := src.Dims()
	for j := 0; j < cols; j++ {
		sum := dst.At(0, j)
		for i := 0; i < rows; i++ {
			sum += src.At(i, j)
		}
		dst.Set(0, j, sum)
	}
}

// addMulT accumulates a^T * b into dst.
func addMulT(dst *mat.Dense, a, b *mat.Dense) {
	var tmp mat.Dense
	tmp.Mul(a.T(), b)
	dst.Add(dst, &tmp)
}

// elemMul returns the elementwise product of the given matrices.
func elemMul(ms ...*mat.Dense) *mat.Dense {
	rows, cols := ms[0].Dims()
	out := mat.NewDense(rows, cols, nil)
	out.Copy(ms[0])
	for _, m := range ms[1:] {
		out.MulElem(out, m)
	}
	return out
}

// sigmoidDeriv returns s*(1-s) for a matrix of sigmoid outputs.
func sigmoidDeriv(s *mat.Dense) *mat.Dense {
	rows, cols := s.Dims()
	out := mat.NewDense(rows, cols, nil)
	out.Apply(func(_, _ int, v float64) float64 { return v * (1 - v) }, s)
	return out
}

// tanhDeriv returns 1-v^2 for a matrix of tanh outputs.
func tanhDeriv(t *mat.Dense) *mat.Dense {
	rows, cols := t.Dims()
	out := mat.NewDense(rows, cols, nil)
	out.Apply(func(_, _ int, v float64) float64 { return 1 - v*v }, t)
	return out
}

// applyTanh returns tanh applied elementwise.
func applyTanh(m *mat.Dense) *mat.Dense {
	rows, cols := m.Dims()
	out := mat.NewDense(rows, cols, nil)
	out.Apply(func(_, _ int, v float64) float64 { return math.Tanh(v) }, m)
	return out
}

// reluDeriv returns the ReLU derivative mask for a matrix of preactivations.
func reluDeriv(z *mat.Dense) *mat.Dense {
	rows, cols := z.Dims()
	out := mat.NewDense(rows, cols, nil)
	out.Apply(func(_, _ int, v float64) float64 {
		if v > 0 {
			return 1
		}
		return 0
	}, z)
	return out
}

func zerosLike(m *mat.Dense) *mat.Dense {
	rows, cols := m.Dims()
	return mat.NewDense(rows, cols, nil)
}
