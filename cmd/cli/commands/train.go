package commands

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewTrainCmd creates the train command.
func NewTrainCmd() *cobra.Command {
	opts := &pipelineOptions{}

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a SHRED model on a field matrix",
		Long: `Train a shallow recurrent decoder on an n x m CSV field matrix.
Sensor locations and train/validation/test splits are sampled from the given
seed; the reported error is the relative L2 reconstruction error on the
held-out test windows in original units.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(opts.verbose)

			result, err := runPipeline(cmd.Context(), opts, logger)
			if err != nil {
				return err
			}

			testErr, _, err := result.EvaluateTest()
			if err != nil {
				return err
			}

			logger.WithFields(logrus.Fields{
				"run_id":         result.Report.RunID,
				"epochs_run":     result.Report.EpochsRun,
				"best_epoch":     result.Report.BestEpoch,
				"best_valid_mse": result.Report.BestValidationError,
				"stopped_early":  result.Report.StoppedEarly,
				"test_rel_l2":    testErr,
			}).Info("Training finished")
			return nil
		},
	}

	addPipelineFlags(cmd, opts)
	return cmd
}

func addPipelineFlags(cmd *cobra.Command, opts *pipelineOptions) {
	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "path to n x m CSV field matrix (required)")
	cmd.Flags().IntVar(&opts.numSensors, "sensors", 3, "number of sensor locations to sample")
	cmd.Flags().IntVar(&opts.lags, "lags", 52, "sensor trajectory window length")
	cmd.Flags().IntVar(&opts.trainSize, "train-size", 0, "training windows (default 80% of valid windows)")
	cmd.Flags().IntVar(&opts.hiddenSize, "hidden-size", 64, "encoder hidden state width")
	cmd.Flags().IntVar(&opts.hiddenLayers, "hidden-layers", 2, "stacked recurrent layers")
	cmd.Flags().IntVar(&opts.l1, "l1", 350, "first decoder hidden width")
	cmd.Flags().IntVar(&opts.l2, "l2", 400, "second decoder hidden width")
	cmd.Flags().Float64Var(&opts.dropout, "dropout", 0.1, "decoder dropout rate")
	cmd.Flags().IntVar(&opts.batchSize, "batch-size", 64, "mini-batch size")
	cmd.Flags().IntVar(&opts.epochs, "epochs", 50, "epoch budget")
	cmd.Flags().Float64Var(&opts.learningRate, "learning-rate", 1e-3, "Adam learning rate")
	cmd.Flags().IntVar(&opts.patience, "patience", 5, "early stopping patience")
	cmd.Flags().Int64Var(&opts.seed, "seed", 1, "random seed for sampling and initialization")
	cmd.Flags().BoolVar(&opts.verbose, "progress", false, "log per-epoch progress")
	_ = cmd.MarkFlagRequired("input")
}
