package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oceankit/shred/internal/pipeline"
	"github.com/oceankit/shred/internal/server"
)

func main() {
	var (
		host         = flag.String("host", "0.0.0.0", "listen host")
		port         = flag.Int("port", 8080, "listen port")
		input        = flag.String("input", "", "path to n x m CSV field matrix (required)")
		sensors      = flag.Int("sensors", 3, "number of sensor locations to sample")
		lags         = flag.Int("lags", 52, "sensor trajectory window length")
		hiddenSize   = flag.Int("hidden-size", 64, "encoder hidden state width")
		hiddenLayers = flag.Int("hidden-layers", 2, "stacked recurrent layers")
		l1           = flag.Int("l1", 350, "first decoder hidden width")
		l2           = flag.Int("l2", 400, "second decoder hidden width")
		dropout      = flag.Float64("dropout", 0.1, "decoder dropout rate")
		batchSize    = flag.Int("batch-size", 64, "mini-batch size")
		epochs       = flag.Int("epochs", 50, "epoch budget")
		learningRate = flag.Float64("learning-rate", 1e-3, "Adam learning rate")
		patience     = flag.Int("patience", 5, "early stopping patience")
		seed         = flag.Int64("seed", 1, "random seed")
		verbose      = flag.Bool("verbose", false, "verbose logging")
	)
	flag.Parse()

	logger := logrus.New()
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	if *input == "" {
		logger.Fatal("--input is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Checkpoint persistence is out of scope, so the server fits its model
	// from the training data at startup.
	result, err := pipeline.Run(ctx, &pipeline.Options{
		Input:        *input,
		NumSensors:   *sensors,
		Lags:         *lags,
		HiddenSize:   *hiddenSize,
		HiddenLayers: *hiddenLayers,
		L1:           *l1,
		L2:           *l2,
		Dropout:      *dropout,
		BatchSize:    *batchSize,
		Epochs:       *epochs,
		LearningRate: *learningRate,
		Patience:     *patience,
		Seed:         *seed,
		Verbose:      *verbose,
	}, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to train model")
	}

	cfg := server.DefaultConfig()
	cfg.Host = *host
	cfg.Port = *port

	srv, err := server.NewServer(cfg, result.Model, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create server")
	}

	start := time.Now()
	if err := srv.Start(ctx); err != nil {
		logger.WithError(err).Fatal("Server failed")
	}
	logger.WithField("uptime", time.Since(start)).Info("Server stopped")
	os.Exit(0)
}
