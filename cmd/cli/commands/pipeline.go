package commands

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/oceankit/shred/internal/pipeline"
)

// pipelineOptions collects the flags shared by the train and reconstruct
// commands.
type pipelineOptions struct {
	input        string
	numSensors   int
	lags         int
	trainSize    int
	hiddenSize   int
	hiddenLayers int
	l1           int
	l2           int
	dropout      float64
	batchSize    int
	epochs       int
	learningRate float64
	patience     int
	seed         int64
	verbose      bool
}

func runPipeline(ctx context.Context, opts *pipelineOptions, logger *logrus.Logger) (*pipeline.Result, error) {
	return pipeline.Run(ctx, &pipeline.Options{
		Input:        opts.input,
		NumSensors:   opts.numSensors,
		Lags:         opts.lags,
		TrainSize:    opts.trainSize,
		HiddenSize:   opts.hiddenSize,
		HiddenLayers: opts.hiddenLayers,
		L1:           opts.l1,
		L2:           opts.l2,
		Dropout:      opts.dropout,
		BatchSize:    opts.batchSize,
		Epochs:       opts.epochs,
		LearningRate: opts.learningRate,
		Patience:     opts.patience,
		Seed:         opts.seed,
		Verbose:      opts.verbose,
	}, logger)
}

func newLogger(verbose bool) *logrus.Logger {
	logger := logrus.New()
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}
