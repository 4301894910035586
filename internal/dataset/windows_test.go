package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/oceankit/shred/pkg/errors"
)

// rampSeries builds an n x m matrix where entry (i, j) = i*m + j, so window
// and target contents can be checked against closed-form values.
func rampSeries(n, m int) *mat.Dense {
	data := make([]float64, n*m)
	for i := range data {
		data[i] = float64(i)
	}
	return mat.NewDense(n, m, data)
}

func TestBuildWindowsTargetIsLastTimestamp(t *testing.T) {
	n, m, lags := 12, 4, 5
	series := rampSeries(n, m)
	sensors := []int{0, 2}
	starts := []int{0, 3, n - lags - 1}

	windows, targets, err := BuildWindows(series, sensors, lags, starts)
	require.NoError(t, err)
	require.Len(t, windows, len(starts))
	require.Len(t, targets, len(starts))

	for k, start := range starts {
		rows, cols := windows[k].Dims()
		assert.Equal(t, lags, rows)
		assert.Equal(t, len(sensors), cols)
		for step := 0; step < lags; step++ {
			for j, s := range sensors {
				assert.Equal(t, series.At(start+step, s), windows[k].At(step, j))
			}
		}

		// The target is the field at the window's last covered row, not the
		// row after it.
		last := start + lags - 1
		require.Equal(t, m, targets[k].Len())
		for j := 0; j < m; j++ {
			assert.Equal(t, series.At(last, j), targets[k].AtVec(j))
		}

		lastSensor := sensors[len(sensors)-1]
		assert.Equal(t, windows[k].At(lags-1, len(sensors)-1), targets[k].AtVec(lastSensor))
	}
}

func TestBuildWindowsValidation(t *testing.T) {
	series := rampSeries(10, 3)

	_, _, err := BuildWindows(nil, []int{0}, 4, []int{0})
	assert.Error(t, err)

	_, _, err = BuildWindows(series, []int{0}, 0, []int{0})
	assert.ErrorIs(t, err, errors.ErrInvalidLags)

	_, _, err = BuildWindows(series, []int{0}, 11, []int{0})
	assert.Error(t, err)

	_, _, err = BuildWindows(series, []int{3}, 4, []int{0})
	assert.ErrorIs(t, err, errors.ErrInvalidSensorIndex)

	// starts range over [0, n-lags); n-lags itself is out of range.
	_, _, err = BuildWindows(series, []int{0}, 4, []int{6})
	assert.Error(t, err)

	_, _, err = BuildWindows(series, []int{0}, 4, []int{5})
	assert.NoError(t, err)
}

func TestNumWindows(t *testing.T) {
	assert.Equal(t, 6, NumWindows(10, 4))
	assert.Equal(t, 0, NumWindows(4, 4))
	assert.Equal(t, 0, NumWindows(3, 4))
	assert.Equal(t, 0, NumWindows(10, 0))
}

func TestNewWindowedSequenceDatasetCountMismatch(t *testing.T) {
	series := rampSeries(20, 3)
	starts := make([]int, 11)
	for i := range starts {
		starts[i] = i
	}
	windows, targets, err := BuildWindows(series, []int{0, 1}, 4, starts)
	require.NoError(t, err)

	// 10 windows against 11 targets must be rejected outright.
	_, err = NewWindowedSequenceDataset(windows[:10], targets)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrShapeMismatch)
	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errors.CodeShapeMismatch, appErr.Code)
}

func TestNewWindowedSequenceDatasetEmpty(t *testing.T) {
	_, err := NewWindowedSequenceDataset(nil, nil)
	assert.ErrorIs(t, err, errors.ErrEmptyDataset)
}

func TestNewWindowedSequenceDatasetInconsistentShapes(t *testing.T) {
	windows := []*mat.Dense{
		mat.NewDense(4, 2, nil),
		mat.NewDense(3, 2, nil),
	}
	targets := []*mat.VecDense{
		mat.NewVecDense(5, nil),
		mat.NewVecDense(5, nil),
	}
	_, err := NewWindowedSequenceDataset(windows, targets)
	assert.Error(t, err)

	windows[1] = mat.NewDense(4, 2, nil)
	targets[1] = mat.NewVecDense(6, nil)
	_, err = NewWindowedSequenceDataset(windows, targets)
	assert.Error(t, err)
}

func TestWindowedSequenceDatasetAccessors(t *testing.T) {
	series := rampSeries(15, 4)
	starts := []int{0, 2, 4}
	windows, targets, err := BuildWindows(series, []int{1, 3}, 6, starts)
	require.NoError(t, err)

	ds, err := NewWindowedSequenceDataset(windows, targets)
	require.NoError(t, err)

	assert.Equal(t, 3, ds.Len())
	assert.Equal(t, 6, ds.Lags())
	assert.Equal(t, 2, ds.NumSensors())
	assert.Equal(t, 4, ds.FieldDim())

	w, y, err := ds.At(1)
	require.NoError(t, err)
	assert.Equal(t, windows[1], w)
	assert.Equal(t, targets[1], y)

	_, _, err = ds.At(3)
	assert.Error(t, err)
	_, _, err = ds.At(-1)
	assert.Error(t, err)

	all := ds.Targets()
	rows, cols := all.Dims()
	assert.Equal(t, 3, rows)
	assert.Equal(t, 4, cols)
	for i := range starts {
		for j := 0; j < 4; j++ {
			assert.Equal(t, targets[i].AtVec(j), all.At(i, j))
		}
	}
}
