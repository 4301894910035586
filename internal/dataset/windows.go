package dataset

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/oceankit/shred/pkg/errors"
)

// BuildWindows extracts sensor trajectory windows from a scaled n x m field
// matrix. For a start position i the window covers rows [i, i+lags) restricted
// to the sensor columns, and the target is the full field row i+lags-1: the
// window's last covered timestamp, not the one after it.
func BuildWindows(series *mat.Dense, sensors []int, lags int, starts []int) ([]*mat.Dense, []*mat.VecDense, error) {
	if series == nil {
		return nil, nil, errors.NewValidationError(errors.CodeInvalidInput, "field series matrix is nil")
	}
	n, m := series.Dims()
	if lags <= 0 {
		return nil, nil, errors.WrapError(errors.ErrInvalidLags, errors.ErrorTypeValidation,
			errors.CodeInvalidInput, fmt.Sprintf("lags = %d", lags))
	}
	if n < lags {
		return nil, nil, errors.NewValidationError(errors.CodeInvalidInput,
			fmt.Sprintf("series has %d rows, need at least lags = %d", n, lags))
	}
	if len(sensors) == 0 {
		return nil, nil, errors.NewValidationError(errors.CodeInvalidInput, "no sensor locations given")
	}
	for _, s := range sensors {
		if s < 0 || s >= m {
			return nil, nil, errors.WrapError(errors.ErrInvalidSensorIndex, errors.ErrorTypeValidation,
				errors.CodeIndexOutOfRange, fmt.Sprintf("sensor column %d outside [0, %d)", s, m))
		}
	}

	numWindows := n - lags
	windows := make([]*mat.Dense, len(starts))
	targets := make([]*mat.VecDense, len(starts))
	for k, start := range starts {
		if start < 0 || start >= numWindows {
			return nil, nil, errors.NewValidationError(errors.CodeIndexOutOfRange,
				fmt.Sprintf("window start %d outside [0, %d)", start, numWindows))
		}
		w := mat.NewDense(lags, len(sensors), nil)
		for t := 0; t < lags; t++ {
			for j, s := range sensors {
				w.Set(t, j, series.At(start+t, s))
			}
		}
		windows[k] = w

		last := start + lags - 1
		target := mat.NewVecDense(m, nil)
		for j := 0; j < m; j++ {
			target.SetVec(j, series.At(last, j))
		}
		targets[k] = target
	}
	return windows, targets, nil
}

// NumWindows returns the count of valid window start positions for a series of
// n timestamps and the given lag length.
func NumWindows(n, lags int) int {
	if lags <= 0 || n < lags {
		return 0
	}
	return n - lags
}
