package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oceankit/shred/pkg/errors"
)

func buildTestDataset(t *testing.T, numWindows int) *WindowedSequenceDataset {
	t.Helper()
	lags := 4
	series := rampSeries(numWindows+lags, 3)
	starts := make([]int, numWindows)
	for i := range starts {
		starts[i] = i
	}
	windows, targets, err := BuildWindows(series, []int{0, 2}, lags, starts)
	require.NoError(t, err)
	ds, err := NewWindowedSequenceDataset(windows, targets)
	require.NoError(t, err)
	return ds
}

func TestBatchLoaderBatchShapes(t *testing.T) {
	ds := buildTestDataset(t, 10)
	loader, err := NewBatchLoader(ds, 4, 1)
	require.NoError(t, err)

	assert.Equal(t, 3, loader.NumBatches())

	for b, want := range []int{4, 4, 2} {
		xs, ys, err := loader.Batch(b)
		require.NoError(t, err)
		require.Len(t, xs, ds.Lags())
		for _, x := range xs {
			rows, cols := x.Dims()
			assert.Equal(t, want, rows)
			assert.Equal(t, ds.NumSensors(), cols)
		}
		rows, cols := ys.Dims()
		assert.Equal(t, want, rows)
		assert.Equal(t, ds.FieldDim(), cols)
	}

	_, _, err = loader.Batch(3)
	assert.Error(t, err)
}

func TestBatchLoaderOversizedBatchCoversAll(t *testing.T) {
	ds := buildTestDataset(t, 5)

	// A batch size beyond the dataset length collapses to one full batch.
	loader, err := NewBatchLoader(ds, 64, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, loader.NumBatches())

	xs, ys, err := loader.Batch(0)
	require.NoError(t, err)
	rows, _ := ys.Dims()
	assert.Equal(t, 5, rows)
	for _, x := range xs {
		r, _ := x.Dims()
		assert.Equal(t, 5, r)
	}
}

func TestBatchLoaderShuffleCoversEverySample(t *testing.T) {
	ds := buildTestDataset(t, 9)
	loader, err := NewBatchLoader(ds, 4, 3)
	require.NoError(t, err)
	loader.Shuffle()

	// Every target row must appear exactly once across the epoch's batches.
	// Targets in this fixture are distinct, so the first target element
	// identifies the sample.
	seen := make(map[float64]int)
	total := 0
	for b := 0; b < loader.NumBatches(); b++ {
		_, ys, err := loader.Batch(b)
		require.NoError(t, err)
		rows, _ := ys.Dims()
		total += rows
		for i := 0; i < rows; i++ {
			seen[ys.At(i, 0)]++
		}
	}
	assert.Equal(t, ds.Len(), total)
	assert.Len(t, seen, ds.Len())
	for v, count := range seen {
		assert.Equal(t, 1, count, "target %v repeated", v)
	}
}

func TestBatchLoaderFullKeepsStoredOrder(t *testing.T) {
	ds := buildTestDataset(t, 6)
	loader, err := NewBatchLoader(ds, 2, 5)
	require.NoError(t, err)
	loader.Shuffle()

	xs, ys, err := loader.Full()
	require.NoError(t, err)
	require.Len(t, xs, ds.Lags())
	rows, _ := ys.Dims()
	require.Equal(t, ds.Len(), rows)

	for i := 0; i < ds.Len(); i++ {
		window, target, err := ds.At(i)
		require.NoError(t, err)
		for j := 0; j < ds.FieldDim(); j++ {
			assert.Equal(t, target.AtVec(j), ys.At(i, j))
		}
		for step := 0; step < ds.Lags(); step++ {
			for j := 0; j < ds.NumSensors(); j++ {
				assert.Equal(t, window.At(step, j), xs[step].At(i, j))
			}
		}
	}
}

func TestNewBatchLoaderValidation(t *testing.T) {
	ds := buildTestDataset(t, 3)

	_, err := NewBatchLoader(nil, 4, 0)
	assert.ErrorIs(t, err, errors.ErrEmptyDataset)

	_, err = NewBatchLoader(ds, 0, 0)
	assert.Error(t, err)
	_, err = NewBatchLoader(ds, -1, 0)
	assert.Error(t, err)
}
