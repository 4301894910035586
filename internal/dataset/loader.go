package dataset

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/oceankit/shred/pkg/errors"
)

// BatchLoader partitions a dataset into mini-batches. Batches are assembled
// as per-timestep matrices so the encoder can step along the lag dimension:
// Batch returns a slice of lags matrices, each batchSize x numSensors, plus a
// batchSize x fieldDim target matrix. A batch size larger than the dataset
// yields a single batch covering every sample.
type BatchLoader struct {
	ds        *WindowedSequenceDataset
	batchSize int
	rng       *rand.Rand
	indices   []int
}

// NewBatchLoader creates a loader over ds with the given batch size and a
// seeded shuffle source. A zero seed shuffles from a fixed default source.
func NewBatchLoader(ds *WindowedSequenceDataset, batchSize int, seed int64) (*BatchLoader, error) {
	if ds == nil || ds.Len() == 0 {
		return nil, errors.WrapError(errors.ErrEmptyDataset, errors.ErrorTypeValidation,
			errors.CodeEmptyDataset, "batch loader requires a non-empty dataset")
	}
	if batchSize <= 0 {
		return nil, errors.NewConfigurationError(errors.CodeInvalidParameter,
			fmt.Sprintf("batch size must be positive, got %d", batchSize))
	}
	if batchSize > ds.Len() {
		batchSize = ds.Len()
	}

	indices := make([]int, ds.Len())
	for i := range indices {
		indices[i] = i
	}
	return &BatchLoader{
		ds:        ds,
		batchSize: batchSize,
		rng:       rand.New(rand.NewSource(seed)),
		indices:   indices,
	}, nil
}

// Shuffle reorders the sample indices for the next epoch.
func (l *BatchLoader) Shuffle() {
	l.rng.Shuffle(len(l.indices), func(i, j int) {
		l.indices[i], l.indices[j] = l.indices[j], l.indices[i]
	})
}

// NumBatches returns the number of batches per epoch, the last possibly short.
func (l *BatchLoader) NumBatches() int {
	return (l.ds.Len() + l.batchSize - 1) / l.batchSize
}

// Batch assembles batch b under the current index order.
func (l *BatchLoader) Batch(b int) ([]*mat.Dense, *mat.Dense, error) {
	if b < 0 || b >= l.NumBatches() {
		return nil, nil, errors.NewValidationError(errors.CodeIndexOutOfRange,
			fmt.Sprintf("batch %d outside [0, %d)", b, l.NumBatches()))
	}
	start := b * l.batchSize
	end := start + l.batchSize
	if end > l.ds.Len() {
		end = l.ds.Len()
	}
	return l.assemble(l.indices[start:end])
}

// Full assembles the whole dataset as one batch in stored order, used for the
// single-pass validation evaluation.
func (l *BatchLoader) Full() ([]*mat.Dense, *mat.Dense, error) {
	all := make([]int, l.ds.Len())
	for i := range all {
		all[i] = i
	}
	return l.assemble(all)
}

func (l *BatchLoader) assemble(idx []int) ([]*mat.Dense, *mat.Dense, error) {
	lags := l.ds.Lags()
	xs := make([]*mat.Dense, lags)
	for t := 0; t < lags; t++ {
		xs[t] = mat.NewDense(len(idx), l.ds.NumSensors(), nil)
	}
	ys := mat.NewDense(len(idx), l.ds.FieldDim(), nil)

	for row, sample := range idx {
		window, target, err := l.ds.At(sample)
		if err != nil {
			return nil, nil, err
		}
		for t := 0; t < lags; t++ {
			for j := 0; j < l.ds.NumSensors(); j++ {
				xs[t].Set(row, j, window.At(t, j))
			}
		}
		for j := 0; j < l.ds.FieldDim(); j++ {
			ys.Set(row, j, target.AtVec(j))
		}
	}
	return xs, ys, nil
}
