package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"gonum.org/v1/gonum/mat"

	apperrors "github.com/oceankit/shred/pkg/errors"
	"github.com/oceankit/shred/pkg/models"
)

const version = "0.1.0"

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, models.HealthResponse{
		Status:  "healthy",
		Version: version,
		Trained: true,
	})
}

func (s *Server) handleReconstruct(w http.ResponseWriter, r *http.Request) {
	var req models.ReconstructRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, apperrors.NewValidationError(
			apperrors.CodeInvalidInput, "request body is not valid JSON"))
		return
	}

	seq, err := s.windowsToSequence(req.Windows)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	start := time.Now()
	pred, err := s.model.Forward(seq)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	s.metrics.ObserveReconstruction(time.Since(start))

	batch, fieldDim := pred.Dims()
	out := make([][]float64, batch)
	for i := 0; i < batch; i++ {
		row := make([]float64, fieldDim)
		mat.Row(row, i, pred)
		out[i] = row
	}
	s.writeJSON(w, http.StatusOK, models.ReconstructResponse{Reconstructions: out})
}

// windowsToSequence converts batch x lags x num_sensors input into the
// per-timestep matrices the encoder consumes, validating shape uniformity.
func (s *Server) windowsToSequence(windows [][][]float64) ([]*mat.Dense, error) {
	cfg := s.model.Config()
	if len(windows) == 0 {
		return nil, apperrors.NewValidationError(apperrors.CodeEmptyDataset, "no windows in request")
	}
	if len(windows) > s.config.MaxBatchSize {
		return nil, apperrors.NewValidationError(apperrors.CodeInvalidInput,
			fmt.Sprintf("batch of %d exceeds limit %d", len(windows), s.config.MaxBatchSize))
	}
	lags := len(windows[0])
	if lags == 0 {
		return nil, apperrors.NewValidationError(apperrors.CodeInvalidInput, "window has zero timesteps")
	}

	seq := make([]*mat.Dense, lags)
	for t := 0; t < lags; t++ {
		seq[t] = mat.NewDense(len(windows), cfg.NumSensors, nil)
	}
	for b, window := range windows {
		if len(window) != lags {
			return nil, apperrors.WrapError(apperrors.ErrShapeMismatch, apperrors.ErrorTypeValidation, apperrors.CodeShapeMismatch,
				fmt.Sprintf("window %d has %d timesteps, expected %d", b, len(window), lags))
		}
		for t, step := range window {
			if len(step) != cfg.NumSensors {
				return nil, apperrors.WrapError(apperrors.ErrShapeMismatch, apperrors.ErrorTypeValidation, apperrors.CodeShapeMismatch,
					fmt.Sprintf("window %d timestep %d has %d sensors, expected %d", b, t, len(step), cfg.NumSensors))
			}
			for j, v := range step {
				seq[t].Set(b, j, v)
			}
		}
	}
	return seq, nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.WithError(err).Error("Failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	resp := models.ErrorResponse{Error: err.Error()}
	if appErr, ok := err.(*apperrors.AppError); ok {
		resp.Code = appErr.Code
		resp.Details = appErr.Details
	}
	s.writeJSON(w, status, resp)
}
