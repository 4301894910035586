package models

import "time"

// EpochMetrics tracks the outcome of a single training epoch.
type EpochMetrics struct {
	Epoch           int           `json:"epoch"`
	TrainingLoss    float64       `json:"training_loss"`
	ValidationError float64       `json:"validation_error"`
	Improved        bool          `json:"improved"`
	Duration        time.Duration `json:"duration"`
}

// TrainingReport summarizes a completed fit run. ValidationErrors holds the
// per-epoch validation MSE in epoch order; the model itself is left at the
// parameters recorded at BestEpoch.
type TrainingReport struct {
	RunID               string         `json:"run_id"`
	ValidationErrors    []float64      `json:"validation_errors"`
	BestValidationError float64        `json:"best_validation_error"`
	BestEpoch           int            `json:"best_epoch"`
	EpochsRun           int            `json:"epochs_run"`
	StoppedEarly        bool           `json:"stopped_early"`
	Epochs              []EpochMetrics `json:"epochs"`
	Duration            time.Duration  `json:"duration"`
}
