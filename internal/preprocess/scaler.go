package preprocess

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/oceankit/shred/pkg/errors"
)

// Scaling methods supported by FieldScaler.
const (
	MethodMinMax = "minmax"
	MethodZScore = "zscore"
)

// FieldScaler normalizes an n x m field matrix column by column. It is fitted
// on a subset of rows (typically the training rows) and then applied to the
// whole matrix, so held-out data never leaks into the scaling parameters.
type FieldScaler struct {
	method string
	min    []float64
	max    []float64
	mean   []float64
	stddev []float64
	width  int
	fitted bool
}

// NewFieldScaler creates a scaler for the given method ("minmax" or "zscore").
func NewFieldScaler(method string) *FieldScaler {
	if method == "" {
		method = MethodMinMax
	}
	return &FieldScaler{method: method}
}

// Fit calculates per-column scaling parameters from the given rows of data.
// A nil rows slice fits on every row.
func (s *FieldScaler) Fit(data *mat.Dense, rows []int) error {
	if data == nil {
		return errors.NewValidationError(errors.CodeInvalidInput, "scaler input matrix is nil")
	}
	n, m := data.Dims()
	if n == 0 || m == 0 {
		return errors.NewValidationError(errors.CodeEmptyDataset, "cannot fit scaler on empty data")
	}
	if rows == nil {
		rows = make([]int, n)
		for i := range rows {
			rows[i] = i
		}
	}
	if len(rows) == 0 {
		return errors.NewValidationError(errors.CodeEmptyDataset, "cannot fit scaler on zero rows")
	}
	for _, r := range rows {
		if r < 0 || r >= n {
			return errors.NewValidationError(errors.CodeIndexOutOfRange,
				fmt.Sprintf("fit row %d outside [0, %d)", r, n))
		}
	}

	column := make([]float64, len(rows))
	switch s.method {
	case MethodMinMax:
		s.min = make([]float64, m)
		s.max = make([]float64, m)
		for j := 0; j < m; j++ {
			for k, r := range rows {
				column[k] = data.At(r, j)
			}
			lo, hi := column[0], column[0]
			for _, v := range column {
				if v < lo {
					lo = v
				}
				if v > hi {
					hi = v
				}
			}
			// Avoid division by zero on constant columns.
			if hi == lo {
				hi = lo + 1e-8
			}
			s.min[j] = lo
			s.max[j] = hi
		}

	case MethodZScore:
		s.mean = make([]float64, m)
		s.stddev = make([]float64, m)
		for j := 0; j < m; j++ {
			for k, r := range rows {
				column[k] = data.At(r, j)
			}
			s.mean[j] = stat.Mean(column, nil)
			sd := math.Sqrt(stat.Variance(column, nil))
			if sd == 0 || math.IsNaN(sd) {
				sd = 1e-8
			}
			s.stddev[j] = sd
		}

	default:
		return errors.NewConfigurationError(errors.CodeInvalidParameter,
			fmt.Sprintf("unknown scaler method: %s", s.method))
	}

	s.width = m
	s.fitted = true
	return nil
}

// Transform scales the input matrix into a new matrix.
func (s *FieldScaler) Transform(data *mat.Dense) (*mat.Dense, error) {
	if err := s.checkReady(data); err != nil {
		return nil, err
	}
	n, m := data.Dims()
	out := mat.NewDense(n, m, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < m; j++ {
			out.Set(i, j, s.scale(data.At(i, j), j))
		}
	}
	return out, nil
}

// InverseTransform reverses the scaling transformation.
func (s *FieldScaler) InverseTransform(data *mat.Dense) (*mat.Dense, error) {
	if err := s.checkReady(data); err != nil {
		return nil, err
	}
	n, m := data.Dims()
	out := mat.NewDense(n, m, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < m; j++ {
			out.Set(i, j, s.unscale(data.At(i, j), j))
		}
	}
	return out, nil
}

// IsFitted reports whether Fit has completed successfully.
func (s *FieldScaler) IsFitted() bool {
	return s.fitted
}

func (s *FieldScaler) checkReady(data *mat.Dense) error {
	if !s.fitted {
		return errors.WrapError(errors.ErrScalerNotFitted, errors.ErrorTypeValidation,
			errors.CodeScalerNotFitted, "transform called before Fit")
	}
	if data == nil {
		return errors.NewValidationError(errors.CodeInvalidInput, "scaler input matrix is nil")
	}
	_, m := data.Dims()
	if m != s.width {
		return errors.WrapError(errors.ErrShapeMismatch, errors.ErrorTypeValidation, errors.CodeShapeMismatch,
			fmt.Sprintf("matrix has %d columns, scaler was fitted on %d", m, s.width))
	}
	return nil
}

func (s *FieldScaler) scale(v float64, j int) float64 {
	switch s.method {
	case MethodZScore:
		return (v - s.mean[j]) / s.stddev[j]
	default:
		return (v - s.min[j]) / (s.max[j] - s.min[j])
	}
}

func (s *FieldScaler) unscale(v float64, j int) float64 {
	switch s.method {
	case MethodZScore:
		return v*s.stddev[j] + s.mean[j]
	default:
		return v*(s.max[j]-s.min[j]) + s.min[j]
	}
}
