package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// FitResult is the outcome of one minimization of a model expression
// against a histogram. Cached results are shared read-only; the producing
// stage owns the slices.
type FitResult struct {
	VersionedRecord
	X          []float64 `json:"x"`
	Fun        float64   `json:"fun"`
	Success    bool      `json:"success"`
	XInit      []float64 `json:"x_init,omitempty"`
	Expression string    `json:"expression"`
	Hash       string    `json:"hash"`
	Method     string    `json:"method,omitempty"`
	FuncEvals  int       `json:"func_evals,omitempty"`
	// Errs are covariance-derived parameter uncertainties, when the
	// refiner could compute them.
	Errs []float64 `json:"errs,omitempty"`
}

// GoF is a goodness-of-fit record for one fitted model: the scalar test
// statistic plus the number of bins that contributed to it.
type GoF struct {
	Value float64 `json:"value"`
	NBins int     `json:"n_bins"`
}
