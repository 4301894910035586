package dataset

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oceankit/shred/pkg/errors"
)

func TestSampleSensors(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	sensors, err := SampleSensors(100, 5, rng)
	require.NoError(t, err)
	require.Len(t, sensors, 5)
	assert.True(t, sort.IntsAreSorted(sensors))

	seen := make(map[int]bool)
	for _, s := range sensors {
		assert.GreaterOrEqual(t, s, 0)
		assert.Less(t, s, 100)
		assert.False(t, seen[s], "sensor %d drawn twice", s)
		seen[s] = true
	}

	_, err = SampleSensors(3, 4, rng)
	assert.Error(t, err)
	_, err = SampleSensors(3, 0, rng)
	assert.Error(t, err)
}

func TestSampleSplitDisjointAndComplete(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	numWindows, numTrain := 200, 160

	split, err := SampleSplit(numWindows, numTrain, rng)
	require.NoError(t, err)

	assert.Len(t, split.Train, numTrain)
	assert.Equal(t, numWindows-numTrain, len(split.Validation)+len(split.Test))
	// The complement alternates validation, test, validation, ...
	assert.Equal(t, 20, len(split.Validation))
	assert.Equal(t, 20, len(split.Test))

	assert.True(t, sort.IntsAreSorted(split.Train))
	assert.True(t, sort.IntsAreSorted(split.Validation))
	assert.True(t, sort.IntsAreSorted(split.Test))

	require.NoError(t, split.Validate(numWindows))

	seen := make(map[int]bool, numWindows)
	for _, group := range [][]int{split.Train, split.Validation, split.Test} {
		for _, idx := range group {
			seen[idx] = true
		}
	}
	assert.Len(t, seen, numWindows)
}

func TestSampleSplitOddComplement(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	split, err := SampleSplit(10, 7, rng)
	require.NoError(t, err)
	assert.Len(t, split.Validation, 2)
	assert.Len(t, split.Test, 1)
}

func TestSampleSplitRejectsDegenerateSizes(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	_, err := SampleSplit(0, 0, rng)
	assert.ErrorIs(t, err, errors.ErrEmptyDataset)

	_, err = SampleSplit(10, 0, rng)
	assert.Error(t, err)

	// Training may not consume every window.
	_, err = SampleSplit(10, 10, rng)
	assert.Error(t, err)
}

func TestSplitIndicesValidate(t *testing.T) {
	split := &SplitIndices{Train: []int{0, 1}, Validation: []int{2}, Test: []int{3}}
	assert.NoError(t, split.Validate(4))

	overlap := &SplitIndices{Train: []int{0, 1}, Validation: []int{1}, Test: []int{2}}
	assert.ErrorIs(t, overlap.Validate(4), errors.ErrSplitOverlap)

	outOfRange := &SplitIndices{Train: []int{0}, Validation: []int{4}}
	assert.Error(t, outOfRange.Validate(4))
}
