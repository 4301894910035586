package pipeline

import (
	"context"
	"encoding/csv"
	"fmt"
	"math/rand"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	"github.com/oceankit/shred/internal/dataset"
	"github.com/oceankit/shred/internal/model"
	"github.com/oceankit/shred/internal/preprocess"
	"github.com/oceankit/shred/internal/training"
	"github.com/oceankit/shred/pkg/models"
)

// Options collects everything needed to go from a raw field matrix to a
// trained model: data location, sampling choices and hyperparameters.
type Options struct {
	Input        string
	NumSensors   int
	Lags         int
	TrainSize    int
	HiddenSize   int
	HiddenLayers int
	L1           int
	L2           int
	Dropout      float64
	BatchSize    int
	Epochs       int
	LearningRate float64
	Patience     int
	Seed         int64
	Verbose      bool
}

// Result bundles the trained model with the scaler needed for inverse
// transforms, the held-out test set and the training report.
type Result struct {
	Model  *model.SHREDModel
	Scaler *preprocess.FieldScaler
	Report *models.TrainingReport
	Split  *dataset.SplitIndices
	Test   *dataset.WindowedSequenceDataset
}

// Run loads the raw field matrix, fits the scaler on the training rows,
// samples sensor locations and index splits, builds the three windowed
// datasets, and fits a SHRED model.
func Run(ctx context.Context, opts *Options, logger *logrus.Logger) (*Result, error) {
	if logger == nil {
		logger = logrus.New()
	}

	raw, err := LoadCSVMatrix(opts.Input)
	if err != nil {
		return nil, fmt.Errorf("failed to load field matrix: %w", err)
	}
	n, m := raw.Dims()

	numWindows := dataset.NumWindows(n, opts.Lags)
	if numWindows <= 0 {
		return nil, fmt.Errorf("series of %d rows is too short for lags=%d", n, opts.Lags)
	}
	trainSize := opts.TrainSize
	if trainSize <= 0 || trainSize >= numWindows {
		trainSize = numWindows * 8 / 10
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	sensors, err := dataset.SampleSensors(m, opts.NumSensors, rng)
	if err != nil {
		return nil, err
	}
	split, err := dataset.SampleSplit(numWindows, trainSize, rng)
	if err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"rows":          n,
		"field_dim":     m,
		"sensors":       sensors,
		"lags":          opts.Lags,
		"train_windows": len(split.Train),
		"valid_windows": len(split.Validation),
		"test_windows":  len(split.Test),
	}).Info("Prepared field reconstruction pipeline")

	// Scaling parameters come from the training target rows only, so held-out
	// data never leaks into normalization.
	trainRows := make([]int, len(split.Train))
	for i, start := range split.Train {
		trainRows[i] = start + opts.Lags - 1
	}
	scaler := preprocess.NewFieldScaler(preprocess.MethodMinMax)
	if err := scaler.Fit(raw, trainRows); err != nil {
		return nil, err
	}
	scaled, err := scaler.Transform(raw)
	if err != nil {
		return nil, err
	}

	buildSet := func(starts []int) (*dataset.WindowedSequenceDataset, error) {
		windows, targets, err := dataset.BuildWindows(scaled, sensors, opts.Lags, starts)
		if err != nil {
			return nil, err
		}
		return dataset.NewWindowedSequenceDataset(windows, targets)
	}
	trainDS, err := buildSet(split.Train)
	if err != nil {
		return nil, err
	}
	validDS, err := buildSet(split.Validation)
	if err != nil {
		return nil, err
	}
	testDS, err := buildSet(split.Test)
	if err != nil {
		return nil, err
	}

	shred, err := model.New(&model.Config{
		NumSensors:   opts.NumSensors,
		FieldDim:     m,
		HiddenSize:   opts.HiddenSize,
		HiddenLayers: opts.HiddenLayers,
		L1:           opts.L1,
		L2:           opts.L2,
		Dropout:      opts.Dropout,
		Seed:         opts.Seed,
	})
	if err != nil {
		return nil, err
	}

	trainer, err := training.NewTrainer(&training.Config{
		BatchSize:    opts.BatchSize,
		Epochs:       opts.Epochs,
		LearningRate: opts.LearningRate,
		Patience:     opts.Patience,
		Verbose:      opts.Verbose,
		Seed:         opts.Seed,
	}, logger)
	if err != nil {
		return nil, err
	}

	report, err := trainer.Fit(ctx, shred, trainDS, validDS)
	if err != nil {
		return nil, err
	}

	return &Result{
		Model:  shred,
		Scaler: scaler,
		Report: report,
		Split:  split,
		Test:   testDS,
	}, nil
}

// EvaluateTest reconstructs the test windows and returns the relative L2
// error and the reconstructed rows, both in original (inverse-scaled) units.
func (r *Result) EvaluateTest() (float64, *mat.Dense, error) {
	loader, err := dataset.NewBatchLoader(r.Test, r.Test.Len(), 0)
	if err != nil {
		return 0, nil, err
	}
	xs, ys, err := loader.Full()
	if err != nil {
		return 0, nil, err
	}
	pred, err := r.Model.Forward(xs)
	if err != nil {
		return 0, nil, err
	}

	predRaw, err := r.Scaler.InverseTransform(pred)
	if err != nil {
		return 0, nil, err
	}
	truthRaw, err := r.Scaler.InverseTransform(ys)
	if err != nil {
		return 0, nil, err
	}
	return training.RelativeL2Error(predRaw, truthRaw), predRaw, nil
}

// LoadCSVMatrix reads an n x m numeric CSV file into a dense matrix.
func LoadCSVMatrix(path string) (*mat.Dense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: file contains no rows", path)
	}

	m := len(records[0])
	data := make([]float64, 0, len(records)*m)
	for i, record := range records {
		if len(record) != m {
			return nil, fmt.Errorf("%s: row %d has %d columns, expected %d", path, i, len(record), m)
		}
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%s: row %d column %d: %w", path, i, j, err)
			}
			data = append(data, v)
		}
	}
	return mat.NewDense(len(records), m, data), nil
}
