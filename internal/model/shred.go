package model

import (
	"fmt"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/oceankit/shred/pkg/errors"
)

// Config contains the SHRED architecture configuration. All fields are fixed
// at construction time and immutable thereafter.
type Config struct {
	NumSensors   int     `json:"num_sensors" yaml:"num_sensors"`
	FieldDim     int     `json:"field_dim" yaml:"field_dim"`
	HiddenSize   int     `json:"hidden_size" yaml:"hidden_size"`
	HiddenLayers int     `json:"hidden_layers" yaml:"hidden_layers"`
	L1           int     `json:"l1" yaml:"l1"`
	L2           int     `json:"l2" yaml:"l2"`
	Dropout      float64 `json:"dropout" yaml:"dropout"`
	Seed         int64   `json:"seed" yaml:"seed"`
}

// DefaultConfig returns the standard SHRED architecture sizes.
func DefaultConfig() *Config {
	return &Config{
		HiddenSize:   64,
		HiddenLayers: 2,
		L1:           350,
		L2:           400,
		Dropout:      0.1,
	}
}

// Validate rejects configuration violations at construction time.
func (c *Config) Validate() error {
	if c.NumSensors <= 0 {
		return errors.NewConfigurationError(errors.CodeInvalidParameter,
			fmt.Sprintf("num_sensors must be positive, got %d", c.NumSensors))
	}
	if c.FieldDim <= 0 {
		return errors.NewConfigurationError(errors.CodeInvalidParameter,
			fmt.Sprintf("field_dim must be positive, got %d", c.FieldDim))
	}
	if c.HiddenSize <= 0 {
		return errors.NewConfigurationError(errors.CodeInvalidParameter,
			fmt.Sprintf("hidden_size must be positive, got %d", c.HiddenSize))
	}
	if c.HiddenLayers <= 0 {
		return errors.NewConfigurationError(errors.CodeInvalidParameter,
			fmt.Sprintf("hidden_layers must be positive, got %d", c.HiddenLayers))
	}
	if c.L1 <= 0 || c.L2 <= 0 {
		return errors.NewConfigurationError(errors.CodeInvalidParameter,
			fmt.Sprintf("decoder widths must be positive, got l1=%d l2=%d", c.L1, c.L2))
	}
	if c.Dropout < 0 || c.Dropout >= 1 {
		return errors.NewConfigurationError(errors.CodeInvalidParameter,
			fmt.Sprintf("dropout must be in [0, 1), got %g", c.Dropout))
	}
	return nil
}

// SHREDModel composes the recurrent encoder and shallow decoder into one
// forward mapping: window batch -> hidden state -> reconstruction.
type SHREDModel struct {
	config   Config
	encoder  *RecurrentEncoder
	decoder  *ShallowDecoder
	training bool
}

// New creates a SHRED model from the given configuration. A zero seed is
// replaced with a time-based one.
func New(cfg *Config) (*SHREDModel, error) {
	if cfg == nil {
		return nil, errors.NewConfigurationError(errors.CodeMissingParameter, "model config is nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := *cfg
	if c.Seed == 0 {
		c.Seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(c.Seed))

	return &SHREDModel{
		config:  c,
		encoder: NewRecurrentEncoder(c.NumSensors, c.HiddenSize, c.HiddenLayers, rng),
		decoder: NewShallowDecoder(c.HiddenSize, c.L1, c.L2, c.FieldDim, c.Dropout, rng),
	}, nil
}

// Config returns a copy of the model configuration.
func (m *SHREDModel) Config() Config {
	return m.config
}

// SetTraining switches between training mode (dropout active, activations
// cached for backward) and evaluation mode.
func (m *SHREDModel) SetTraining(training bool) {
	m.training = training
}

// IsTraining reports the current mode.
func (m *SHREDModel) IsTraining() bool {
	return m.training
}

// Forward maps a window batch, given as per-timestep matrices each
// batch x num_sensors, to a batch x field_dim reconstruction.
func (m *SHREDModel) Forward(seq []*mat.Dense) (*mat.Dense, error) {
	if len(seq) == 0 {
		return nil, errors.NewValidationError(errors.CodeInvalidInput, "input window has zero timesteps")
	}
	batch, _ := seq[0].Dims()
	if batch == 0 {
		return nil, errors.NewValidationError(errors.CodeEmptyDataset, "input batch is empty")
	}
	for t, xt := range seq {
		r, c := xt.Dims()
		if r != batch || c != m.config.NumSensors {
			return nil, errors.WrapError(errors.ErrShapeMismatch, errors.ErrorTypeValidation, errors.CodeShapeMismatch,
				fmt.Sprintf("timestep %d has shape %dx%d, expected %dx%d", t, r, c, batch, m.config.NumSensors))
		}
	}

	hidden := m.encoder.Forward(seq, m.training)
	return m.decoder.Forward(hidden, m.training), nil
}

// Backward propagates the loss gradient with respect to the reconstruction
// through the decoder and then the encoder. Forward must have been called in
// training mode first.
func (m *SHREDModel) Backward(dOut *mat.Dense) error {
	if !m.training {
		return errors.NewTrainingError(errors.CodeTrainingFailed, "backward called in evaluation mode")
	}
	dh := m.decoder.Backward(dOut)
	m.encoder.Backward(dh)
	return nil
}

// Parameters returns the live parameter matrices in a stable order. They are
// mutated in place by the optimizer.
func (m *SHREDModel) Parameters() []*mat.Dense {
	return append(m.encoder.parameters(), m.decoder.parameters()...)
}

// Gradients returns the gradient matrices aligned with Parameters.
func (m *SHREDModel) Gradients() []*mat.Dense {
	return append(m.encoder.gradients(), m.decoder.gradients()...)
}

// Snapshot returns a deep copy of the current parameter state, independent of
// the live parameters.
func (m *SHREDModel) Snapshot() []*mat.Dense {
	params := m.Parameters()
	snap := make([]*mat.Dense, len(params))
	for i, p := range params {
		snap[i] = mat.DenseCopyOf(p)
	}
	return snap
}

// Restore copies a previously taken snapshot back into the live parameters.
func (m *SHREDModel) Restore(snapshot []*mat.Dense) error {
	params := m.Parameters()
	if len(snapshot) != len(params) {
		return errors.NewTrainingError(errors.CodeSnapshotMismatch,
			fmt.Sprintf("snapshot has %d tensors, model has %d", len(snapshot), len(params)))
	}
	for i, p := range params {
		pr, pc := p.Dims()
		sr, sc := snapshot[i].Dims()
		if pr != sr || pc != sc {
			return errors.NewTrainingError(errors.CodeSnapshotMismatch,
				fmt.Sprintf("snapshot tensor %d is %dx%d, expected %dx%d", i, sr, sc, pr, pc))
		}
		p.Copy(snapshot[i])
	}
	return nil
}
