package models

// ReconstructRequest carries a batch of sensor trajectory windows, shaped
// batch x lags x num_sensors.
type ReconstructRequest struct {
	Windows [][][]float64 `json:"windows"`
}

// ReconstructResponse carries the reconstructed field rows, shaped batch x m.
type ReconstructResponse struct {
	Reconstructions [][]float64 `json:"reconstructions"`
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Trained bool   `json:"trained"`
}

// ErrorResponse wraps an error payload for API clients.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}
