package model

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// lstmLayer is a single gated recurrent layer. Weight shapes follow the
// input-major convention: w* is inputSize x hiddenSize, u* is
// hiddenSize x hiddenSize, b* is 1 x hiddenSize.
type lstmLayer struct {
	inputSize  int
	hiddenSize int

	// Gate weights: input (i), forget (f), cell candidate (g), output (o).
	wi, wf, wg, wo *mat.Dense
	ui, uf, ug, uo *mat.Dense
	bi, bf, bg, bo *mat.Dense

	// Gradients, recomputed on every backward pass.
	gwi, gwf, gwg, gwo *mat.Dense
	gui, guf, gug, guo *mat.Dense
	gbi, gbf, gbg, gbo *mat.Dense

	cache *lstmCache
}

// lstmCache holds per-timestep activations needed for backpropagation
// through time. h and c have length T+1 with the zero initial states first.
type lstmCache struct {
	inputs []*mat.Dense
	h, c   []*mat.Dense
	i, f   []*mat.Dense
	g, o   []*mat.Dense
}

func newLSTMLayer(inputSize, hiddenSize int, rng *rand.Rand) *lstmLayer {
	l := &lstmLayer{
		inputSize:  inputSize,
		hiddenSize: hiddenSize,

		wi: xavierDense(inputSize, hiddenSize, rng),
		wf: xavierDense(inputSize, hiddenSize, rng),
		wg: xavierDense(inputSize, hiddenSize, rng),
		wo: xavierDense(inputSize, hiddenSize, rng),

		ui: xavierDense(hiddenSize, hiddenSize, rng),
		uf: xavierDense(hiddenSize, hiddenSize, rng),
		ug: xavierDense(hiddenSize, hiddenSize, rng),
		uo: xavierDense(hiddenSize, hiddenSize, rng),

		bi: mat.NewDense(1, hiddenSize, nil),
		bf: mat.NewDense(1, hiddenSize, nil),
		bg: mat.NewDense(1, hiddenSize, nil),
		bo: mat.NewDense(1, hiddenSize, nil),
	}

	// Forget gate bias starts at 1 so the cell retains information over the
	// full lag window early in training.
	for j := 0; j < hiddenSize; j++ {
		l.bf.Set(0, j, 1.0)
	}

	l.gwi = mat.NewDense(inputSize, hiddenSize, nil)
	l.gwf = mat.NewDense(inputSize, hiddenSize, nil)
	l.gwg = mat.NewDense(inputSize, hiddenSize, nil)
	l.gwo = mat.NewDense(inputSize, hiddenSize, nil)
	l.gui = mat.NewDense(hiddenSize, hiddenSize, nil)
	l.guf = mat.NewDense(hiddenSize, hiddenSize, nil)
	l.gug = mat.NewDense(hiddenSize, hiddenSize, nil)
	l.guo = mat.NewDense(hiddenSize, hiddenSize, nil)
	l.gbi = mat.NewDense(1, hiddenSize, nil)
	l.gbf = mat.NewDense(1, hiddenSize, nil)
	l.gbg = mat.NewDense(1, hiddenSize, nil)
	l.gbo = mat.NewDense(1, hiddenSize, nil)

	return l
}

// forward runs the sequence through the layer carrying explicit (h, c) state
// pairs and returns the hidden state at every timestep. Activations are
// cached only in training mode.
func (l *lstmLayer) forward(seq []*mat.Dense, training bool) []*mat.Dense {
	T := len(seq)
	batch, _ := seq[0].Dims()

	h := mat.NewDense(batch, l.hiddenSize, nil)
	c := mat.NewDense(batch, l.hiddenSize, nil)

	var cache *lstmCache
	if training {
		cache = &lstmCache{
			inputs: make([]*mat.Dense, T),
			h:      make([]*mat.Dense, T+1),
			c:      make([]*mat.Dense, T+1),
			i:      make([]*mat.Dense, T),
			f:      make([]*mat.Dense, T),
			g:      make([]*mat.Dense, T),
			o:      make([]*mat.Dense, T),
		}
		cache.h[0] = h
		cache.c[0] = c
	}

	outs := make([]*mat.Dense, T)
	for t := 0; t < T; t++ {
		xt := seq[t]

		it := l.gate(xt, h, l.wi, l.ui, l.bi, true)
		ft := l.gate(xt, h, l.wf, l.uf, l.bf, true)
		gt := l.gate(xt, h, l.wg, l.ug, l.bg, false)
		ot := l.gate(xt, h, l.wo, l.uo, l.bo, true)

		cNew := elemMul(ft, c)
		cNew.Add(cNew, elemMul(it, gt))
		hNew := elemMul(ot, applyTanh(cNew))

		if training {
			cache.inputs[t] = xt
			cache.i[t] = it
			cache.f[t] = ft
			cache.g[t] = gt
			cache.o[t] = ot
			cache.h[t+1] = hNew
			cache.c[t+1] = cNew
		}

		h = hNew
		c = cNew
		outs[t] = hNew
	}

	l.cache = cache
	return outs
}

// gate computes act(xt*w + h*u + b) for one gate.
func (l *lstmLayer) gate(xt, h, w, u, b *mat.Dense, sigmoidAct bool) *mat.Dense {
	pre := &mat.Dense{}
	pre.Mul(xt, w)
	rec := &mat.Dense{}
	rec.Mul(h, u)
	pre.Add(pre, rec)
	addRowVector(pre, b)
	if sigmoidAct {
		pre.Apply(func(_, _ int, v float64) float64 { return sigmoid(v) }, pre)
	} else {
		return applyTanh(pre)
	}
	return pre
}

// backward runs backpropagation through time. dhSeq carries the loss gradient
// with respect to each timestep's hidden output; nil entries mean zero (for
// the top layer only the final timestep is non-nil). It returns the gradient
// with respect to the layer's inputs at every timestep and accumulates
// parameter gradients, which are zeroed on entry.
func (l *lstmLayer) backward(dhSeq []*mat.Dense) []*mat.Dense {
	l.zeroGrads()

	cache := l.cache
	T := len(cache.inputs)
	batch, _ := cache.inputs[0].Dims()

	dh := mat.NewDense(batch, l.hiddenSize, nil)
	dc := mat.NewDense(batch, l.hiddenSize, nil)
	dxs := make([]*mat.Dense, T)

	for t := T - 1; t >= 0; t-- {
		if dhSeq[t] != nil {
			dh.Add(dh, dhSeq[t])
		}

		it, ft, gt, ot := cache.i[t], cache.f[t], cache.g[t], cache.o[t]
		cPrev, hPrev, xt := cache.c[t], cache.h[t], cache.inputs[t]
		tanhC := applyTanh(cache.c[t+1])

		do := elemMul(dh, tanhC, sigmoidDeriv(ot))
		dcTot := elemMul(dh, ot, tanhDeriv(tanhC))
		dcTot.Add(dcTot, dc)

		df := elemMul(dcTot, cPrev, sigmoidDeriv(ft))
		di := elemMul(dcTot, gt, sigmoidDeriv(it))
		dg := elemMul(dcTot, it, tanhDeriv(gt))

		addMulT(l.gwi, xt, di)
		addMulT(l.gwf, xt, df)
		addMulT(l.gwg, xt, dg)
		addMulT(l.gwo, xt, do)
		addMulT(l.gui, hPrev, di)
		addMulT(l.guf, hPrev, df)
		addMulT(l.gug, hPrev, dg)
		addMulT(l.guo, hPrev, do)
		addColSums(l.gbi, di)
		addColSums(l.gbf, df)
		addColSums(l.gbg, dg)
		addColSums(l.gbo, do)

		// The input and hidden scratch matrices have different widths
		// whenever inputSize != hiddenSize, so each block gets its own.
		dx := &mat.Dense{}
		dx.Mul(di, l.wi.T())
		xtmp := &mat.Dense{}
		xtmp.Mul(df, l.wf.T())
		dx.Add(dx, xtmp)
		xtmp.Mul(dg, l.wg.T())
		dx.Add(dx, xtmp)
		xtmp.Mul(do, l.wo.T())
		dx.Add(dx, xtmp)
		dxs[t] = dx

		dhPrev := &mat.Dense{}
		dhPrev.Mul(di, l.ui.T())
		htmp := &mat.Dense{}
		htmp.Mul(df, l.uf.T())
		dhPrev.Add(dhPrev, htmp)
		htmp.Mul(dg, l.ug.T())
		dhPrev.Add(dhPrev, htmp)
		htmp.Mul(do, l.uo.T())
		dhPrev.Add(dhPrev, htmp)

		dh = dhPrev
		dc = elemMul(dcTot, ft)
	}

	return dxs
}

func (l *lstmLayer) zeroGrads() {
	for _, g := range l.gradients() {
		g.Zero()
	}
}

func (l *lstmLayer) parameters() []*mat.Dense {
	return []*mat.Dense{
		l.wi, l.wf, l.wg, l.wo,
		l.ui, l.uf, l.ug, l.uo,
		l.bi, l.bf, l.bg, l.bo,
	}
}

func (l *lstmLayer) gradients() []*mat.Dense {
	return []*mat.Dense{
		l.gwi, l.gwf, l.gwg, l.gwo,
		l.gui, l.guf, l.gug, l.guo,
		l.gbi, l.gbf, l.gbg, l.gbo,
	}
}

// RecurrentEncoder maps a fixed-length sequence of sensor vectors to the
// final hidden state of a stack of LSTM layers. Intermediate timesteps are
// discarded: only the terminal summary feeds the decoder.
type RecurrentEncoder struct {
	inputSize  int
	hiddenSize int
	numLayers  int
	layers     []*lstmLayer
}

// NewRecurrentEncoder creates a stacked LSTM encoder.
func NewRecurrentEncoder(inputSize, hiddenSize, numLayers int, rng *rand.Rand) *RecurrentEncoder {
	layers := make([]*lstmLayer, numLayers)
	for i := 0; i < numLayers; i++ {
		in := inputSize
		if i > 0 {
			in = hiddenSize
		}
		layers[i] = newLSTMLayer(in, hiddenSize, rng)
	}
	return &RecurrentEncoder{
		inputSize:  inputSize,
		hiddenSize: hiddenSize,
		numLayers:  numLayers,
		layers:     layers,
	}
}

// Forward consumes a window batch as per-timestep matrices (each
// batch x inputSize) and returns the final layer's final-timestep hidden
// state (batch x hiddenSize).
func (e *RecurrentEncoder) Forward(seq []*mat.Dense, training bool) *mat.Dense {
	cur := seq
	for _, layer := range e.layers {
		cur = layer.forward(cur, training)
	}
	return cur[len(cur)-1]
}

// Backward propagates the gradient of the final hidden state back through
// the stack. The gradient with respect to the original sensor inputs is
// discarded.
func (e *RecurrentEncoder) Backward(dh *mat.Dense) {
	top := e.layers[e.numLayers-1]
	T := len(top.cache.inputs)

	dhSeq := make([]*mat.Dense, T)
	dhSeq[T-1] = dh
	for li := e.numLayers - 1; li >= 0; li-- {
		dhSeq = e.layers[li].backward(dhSeq)
	}
}

func (e *RecurrentEncoder) parameters() []*mat.Dense {
	var params []*mat.Dense
	for _, l := range e.layers {
		params = append(params, l.parameters()...)
	}
	return params
}

func (e *RecurrentEncoder) gradients() []*mat.Dense {
	var grads []*mat.Dense
	for _, l := range e.layers {
		grads = append(grads, l.gradients()...)
	}
	return grads
}
