package statistic

import "math"

// Direction selects which side of the baseline counts as anomalous.
type Direction int

const (
	// Rising flags windows whose entropy exceeds the upper threshold (source addresses).
	Rising Direction = iota
	// Falling flags windows whose entropy drops below the lower threshold (destination addresses).
	Falling
)

// AnomalyDetector tracks an exponentially weighted mean and mean deviation of
// a per-window signal and decides whether a window is anomalous.
type AnomalyDetector struct {
	direction   Direction
	sensitivity float64
	smoothing   float64

	ewma   float64
	ewmmd  float64
	seeded bool
}

// NewAnomalyDetector creates an unseeded detector.
func NewAnomalyDetector(direction Direction, sensitivity, smoothing float64) *AnomalyDetector {
	return &AnomalyDetector{
		direction:   direction,
		sensitivity: sensitivity,
		smoothing:   smoothing,
	}
}

// Observe feeds one window value and returns whether it is anomalous.
// The first value seeds the baseline and is never anomalous. An anomalous
// value leaves the baseline untouched.
func (d *AnomalyDetector) Observe(value float64) bool {
	if !d.seeded {
		d.ewma = value
		d.ewmmd = 1.0
		d.seeded = true
		return false
	}

	if d.IsAnomalous(value) {
		return true
	}

	deviation := math.Abs(value - d.ewma)
	d.ewma = d.smoothing*value + (1-d.smoothing)*d.ewma
	d.ewmmd = d.smoothing*deviation + (1-d.smoothing)*d.ewmmd
	return false
}

// IsAnomalous compares value against the current threshold without updating.
func (d *AnomalyDetector) IsAnomalous(value float64) bool {
	if !d.seeded {
		return false
	}
	if d.direction == Falling {
		return value < d.Threshold()
	}
	return value > d.Threshold()
}

// Threshold returns ewma + sensitivity*ewmmd for Rising detectors and
// ewma - sensitivity*ewmmd for Falling ones.
func (d *AnomalyDetector) Threshold() float64 {
	if d.direction == Falling {
		return d.ewma - d.sensitivity*d.ewmmd
	}
	return d.ewma + d.sensitivity*d.ewmmd
}

// Baseline returns the current ewma and ewmmd.
func (d *AnomalyDetector) Baseline() (ewma, ewmmd float64) {
	return d.ewma, d.ewmmd
}

// Seeded reports whether the warm-up window has been observed.
func (d *AnomalyDetector) Seeded() bool {
	return d.seeded
}
