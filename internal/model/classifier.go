package model

// Classifier defines a detection algorithm driven one record at a time.
type Classifier interface {
	// Name returns the registered classifier name.
	Name() string
	// Ingest processes a single record and may mark it as malicious.
	// It returns true when the record completes an observation window.
	Ingest(rec *FlowRecord) bool
	// OnWindowBoundary closes the current window and returns its report.
	OnWindowBoundary() WindowReport
}

// Trainer is implemented by classifiers that warm up on a prefix of the dataset
// before their output is diagnosed.
type Trainer interface {
	TrainingSize(datasetSize uint64) uint64
}

// WindowReport summarizes a completed observation window.
type WindowReport struct {
	WindowID uint32 `json:"window_id"`
	Warmup   bool   `json:"warmup"`

	SrcEntropy   float64 `json:"src_entropy"`
	DstEntropy   float64 `json:"dst_entropy"`
	SrcThreshold float64 `json:"src_threshold"`
	DstThreshold float64 `json:"dst_threshold"`
	SrcEWMA      float64 `json:"src_ewma"`
	SrcEWMMD     float64 `json:"src_ewmmd"`
	DstEWMA      float64 `json:"dst_ewma"`
	DstEWMMD     float64 `json:"dst_ewmmd"`

	SrcAnomalous bool `json:"src_anomalous"`
	DstAnomalous bool `json:"dst_anomalous"`
	Anomalous    bool `json:"anomalous"`

	PrevState string `json:"prev_state"`
	State     string `json:"state"`

	Records uint64 `json:"records"`
	Marked  uint64 `json:"marked"`
}

// Transitioned reports whether the defense state changed at this boundary.
func (r WindowReport) Transitioned() bool {
	return r.PrevState != r.State
}
