package training

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	"github.com/oceankit/shred/internal/dataset"
	"github.com/oceankit/shred/internal/model"
	"github.com/oceankit/shred/internal/observability/metrics"
	"github.com/oceankit/shred/pkg/errors"
	"github.com/oceankit/shred/pkg/models"
)

// Config contains training hyperparameters.
type Config struct {
	BatchSize    int     `json:"batch_size" yaml:"batch_size"`
	Epochs       int     `json:"epochs" yaml:"epochs"`
	LearningRate float64 `json:"learning_rate" yaml:"learning_rate"`
	Patience     int     `json:"patience" yaml:"patience"`
	Verbose      bool    `json:"verbose" yaml:"verbose"`
	Seed         int64   `json:"seed" yaml:"seed"`
}

// DefaultConfig returns the standard training hyperparameters.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:    64,
		Epochs:       50,
		LearningRate: 1e-3,
		Patience:     5,
	}
}

// Validate rejects configuration violations before training starts.
func (c *Config) Validate() error {
	if c.BatchSize <= 0 {
		return errors.NewConfigurationError(errors.CodeInvalidParameter,
			fmt.Sprintf("batch_size must be positive, got %d", c.BatchSize))
	}
	if c.Epochs <= 0 {
		return errors.NewConfigurationError(errors.CodeInvalidParameter,
			fmt.Sprintf("epochs must be positive, got %d", c.Epochs))
	}
	if c.LearningRate <= 0 {
		return errors.NewConfigurationError(errors.CodeInvalidParameter,
			fmt.Sprintf("learning_rate must be positive, got %g", c.LearningRate))
	}
	if c.Patience <= 0 {
		return errors.NewConfigurationError(errors.CodeInvalidParameter,
			fmt.Sprintf("patience must be positive, got %d", c.Patience))
	}
	return nil
}

// reportInterval controls the progress-logging cadence in verbose mode.
const reportInterval = 5

// Trainer optimizes SHRED model parameters against a training dataset while
// monitoring a validation dataset, with patience-based early stopping and
// best-snapshot model selection.
type Trainer struct {
	config  *Config
	logger  *logrus.Logger
	metrics *metrics.Metrics
}

// NewTrainer creates a trainer. A nil logger defaults to logrus.New(); the
// metrics collector is optional.
func NewTrainer(config *Config, logger *logrus.Logger) (*Trainer, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Trainer{config: config, logger: logger}, nil
}

// WithMetrics attaches a Prometheus collector observed once per epoch.
func (t *Trainer) WithMetrics(m *metrics.Metrics) *Trainer {
	t.metrics = m
	return t
}

// Fit runs mini-batch Adam over the training set, evaluates validation MSE
// after every epoch, and stops early once validation error has failed to
// improve for the configured patience. On return the model's parameters are
// restored from the best-validation snapshot and the model is left in
// evaluation mode.
func (t *Trainer) Fit(ctx context.Context, m *model.SHREDModel, train, valid *dataset.WindowedSequenceDataset) (*models.TrainingReport, error) {
	if m == nil {
		return nil, errors.NewValidationError(errors.CodeInvalidInput, "model is nil")
	}
	if err := t.checkDataset("training", m, train); err != nil {
		return nil, err
	}
	if err := t.checkDataset("validation", m, valid); err != nil {
		return nil, err
	}

	loader, err := dataset.NewBatchLoader(train, t.config.BatchSize, t.config.Seed)
	if err != nil {
		return nil, err
	}
	validLoader, err := dataset.NewBatchLoader(valid, valid.Len(), t.config.Seed)
	if err != nil {
		return nil, err
	}
	validX, validY, err := validLoader.Full()
	if err != nil {
		return nil, err
	}

	runID := uuid.New().String()
	t.logger.WithFields(logrus.Fields{
		"run_id":        runID,
		"train_samples": train.Len(),
		"valid_samples": valid.Len(),
		"batch_size":    t.config.BatchSize,
		"epochs":        t.config.Epochs,
		"learning_rate": t.config.LearningRate,
		"patience":      t.config.Patience,
	}).Info("Starting SHRED training")

	opt := model.NewAdamOptimizer(t.config.LearningRate)
	stopper := newEarlyStopTracker(t.config.Patience)
	report := &models.TrainingReport{RunID: runID}

	var bestSnapshot []*mat.Dense
	start := time.Now()
	stoppedEarly := false

	for epoch := 0; epoch < t.config.Epochs; epoch++ {
		select {
		case <-ctx.Done():
			return nil, errors.WrapError(ctx.Err(), errors.ErrorTypeTraining,
				errors.CodeTrainingFailed, "training interrupted")
		default:
		}

		epochStart := time.Now()
		m.SetTraining(true)
		loader.Shuffle()

		var trainLoss float64
		numBatches := loader.NumBatches()
		for b := 0; b < numBatches; b++ {
			xs, ys, err := loader.Batch(b)
			if err != nil {
				return nil, err
			}
			pred, err := m.Forward(xs)
			if err != nil {
				return nil, err
			}
			trainLoss += MSE(pred, ys)
			if err := m.Backward(mseGradient(pred, ys)); err != nil {
				return nil, err
			}
			if err := opt.Step(m.Parameters(), m.Gradients()); err != nil {
				return nil, err
			}
		}
		trainLoss /= float64(numBatches)

		// Full validation pass with dropout disabled.
		m.SetTraining(false)
		validPred, err := m.Forward(validX)
		if err != nil {
			return nil, err
		}
		validErr := MSE(validPred, validY)
		report.ValidationErrors = append(report.ValidationErrors, validErr)

		improved, stop := stopper.observe(epoch, validErr)
		if improved {
			bestSnapshot = m.Snapshot()
		}
		if t.metrics != nil {
			t.metrics.ObserveEpoch(validErr, stopper.best)
		}

		report.Epochs = append(report.Epochs, models.EpochMetrics{
			Epoch:           epoch + 1,
			TrainingLoss:    trainLoss,
			ValidationError: validErr,
			Improved:        improved,
			Duration:        time.Since(epochStart),
		})

		if t.config.Verbose && (epoch+1)%reportInterval == 0 {
			t.logger.WithFields(logrus.Fields{
				"run_id":     runID,
				"epoch":      epoch + 1,
				"train_loss": trainLoss,
				"valid_err":  validErr,
				"best":       stopper.best,
			}).Info("Training epoch completed")
		}

		if stop {
			stoppedEarly = true
			t.logger.WithFields(logrus.Fields{
				"run_id":   runID,
				"epoch":    epoch + 1,
				"patience": t.config.Patience,
			}).Info("Early stopping triggered")
			if t.metrics != nil {
				t.metrics.ObserveEarlyStop()
			}
			break
		}
	}

	// The returned model is never the latest-epoch parameters if an earlier
	// epoch's were better.
	if bestSnapshot != nil {
		if err := m.Restore(bestSnapshot); err != nil {
			return nil, err
		}
	}
	m.SetTraining(false)

	report.BestValidationError = stopper.best
	report.BestEpoch = stopper.bestEpoch + 1
	report.EpochsRun = len(report.ValidationErrors)
	report.StoppedEarly = stoppedEarly
	report.Duration = time.Since(start)

	t.logger.WithFields(logrus.Fields{
		"run_id":        runID,
		"epochs_run":    report.EpochsRun,
		"best_epoch":    report.BestEpoch,
		"best_valid":    report.BestValidationError,
		"stopped_early": report.StoppedEarly,
		"duration":      report.Duration,
	}).Info("SHRED training completed")

	return report, nil
}

func (t *Trainer) checkDataset(role string, m *model.SHREDModel, ds *dataset.WindowedSequenceDataset) error {
	if ds == nil || ds.Len() == 0 {
		return errors.WrapError(errors.ErrEmptyDataset, errors.ErrorTypeValidation,
			errors.CodeEmptyDataset, fmt.Sprintf("%s dataset is empty", role))
	}
	cfg := m.Config()
	if ds.NumSensors() != cfg.NumSensors {
		return errors.WrapError(errors.ErrShapeMismatch, errors.ErrorTypeValidation, errors.CodeShapeMismatch,
			fmt.Sprintf("%s dataset has %d sensors, model expects %d", role, ds.NumSensors(), cfg.NumSensors))
	}
	if ds.FieldDim() != cfg.FieldDim {
		return errors.WrapError(errors.ErrShapeMismatch, errors.ErrorTypeValidation, errors.CodeShapeMismatch,
			fmt.Sprintf("%s dataset has field width %d, model expects %d", role, ds.FieldDim(), cfg.FieldDim))
	}
	return nil
}
