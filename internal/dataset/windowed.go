package dataset

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/oceankit/shred/pkg/errors"
)

// WindowedSequenceDataset pairs lagged sensor windows with full-field target
// vectors. Each window is a lags x num_sensors matrix and its target is the
// field snapshot at the window's last timestamp. The dataset is read-only
// after construction.
type WindowedSequenceDataset struct {
	windows    []*mat.Dense
	targets    []*mat.VecDense
	lags       int
	numSensors int
	fieldDim   int
}

// NewWindowedSequenceDataset builds a dataset from aligned window and target
// collections. Construction fails when the two collections' leading counts
// differ or when element shapes are inconsistent.
func NewWindowedSequenceDataset(windows []*mat.Dense, targets []*mat.VecDense) (*WindowedSequenceDataset, error) {
	if len(windows) != len(targets) {
		return nil, errors.WrapError(errors.ErrShapeMismatch, errors.ErrorTypeValidation, errors.CodeShapeMismatch,
			fmt.Sprintf("window count %d does not match target count %d", len(windows), len(targets)))
	}
	if len(windows) == 0 {
		return nil, errors.WrapError(errors.ErrEmptyDataset, errors.ErrorTypeValidation,
			errors.CodeEmptyDataset, "dataset requires at least one sample")
	}

	lags, numSensors := windows[0].Dims()
	fieldDim := targets[0].Len()
	for i, w := range windows {
		r, c := w.Dims()
		if r != lags || c != numSensors {
			return nil, errors.WrapError(errors.ErrShapeMismatch, errors.ErrorTypeValidation, errors.CodeShapeMismatch,
				fmt.Sprintf("window %d has shape %dx%d, expected %dx%d", i, r, c, lags, numSensors))
		}
		if targets[i].Len() != fieldDim {
			return nil, errors.WrapError(errors.ErrShapeMismatch, errors.ErrorTypeValidation, errors.CodeShapeMismatch,
				fmt.Sprintf("target %d has length %d, expected %d", i, targets[i].Len(), fieldDim))
		}
	}

	return &WindowedSequenceDataset{
		windows:    windows,
		targets:    targets,
		lags:       lags,
		numSensors: numSensors,
		fieldDim:   fieldDim,
	}, nil
}

// Len returns the number of (window, target) pairs.
func (d *WindowedSequenceDataset) Len() int {
	return len(d.windows)
}

// At returns the (window, target) pair at position i. Callers must not mutate
// the returned matrices.
func (d *WindowedSequenceDataset) At(i int) (*mat.Dense, *mat.VecDense, error) {
	if i < 0 || i >= len(d.windows) {
		return nil, nil, errors.NewValidationError(errors.CodeIndexOutOfRange,
			fmt.Sprintf("index %d outside [0, %d)", i, len(d.windows)))
	}
	return d.windows[i], d.targets[i], nil
}

// Lags returns the fixed window length.
func (d *WindowedSequenceDataset) Lags() int { return d.lags }

// NumSensors returns the sensor vector width.
func (d *WindowedSequenceDataset) NumSensors() int { return d.numSensors }

// FieldDim returns the full-field target width.
func (d *WindowedSequenceDataset) FieldDim() int { return d.fieldDim }

// Targets assembles all target vectors into a Len x FieldDim matrix.
func (d *WindowedSequenceDataset) Targets() *mat.Dense {
	out := mat.NewDense(len(d.targets), d.fieldDim, nil)
	for i, t := range d.targets {
		for j := 0; j < d.fieldDim; j++ {
			out.Set(i, j, t.AtVec(j))
		}
	}
	return out
}
