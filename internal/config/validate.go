package config

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidConfig is wrapped by every ConfigError.
var ErrInvalidConfig = errors.New("invalid configuration")

// ConfigError reports a single invalid parameter.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

// Validate checks the classifier parameters and returns the first violation.
func (p *EuclidParams) Validate() error {
	switch {
	case p.CountSketchDepth == 0:
		return &ConfigError{Field: "count_sketch_depth", Reason: "must be >= 1"}
	case p.CountSketchWidth == 0:
		return &ConfigError{Field: "count_sketch_width", Reason: "must be >= 1"}
	case p.ObservationWindowSize == 0:
		return &ConfigError{Field: "observation_window_size", Reason: "must be >= 1"}
	case math.IsNaN(p.Sensitivity) || p.Sensitivity < 0:
		return &ConfigError{Field: "sensitivity", Reason: "must be a non-negative number"}
	case !(p.Smoothing > 0 && p.Smoothing < 1):
		return &ConfigError{Field: "smoothing", Reason: "must lie in (0, 1)"}
	case math.IsNaN(p.DefenseThreshold):
		return &ConfigError{Field: "defense_threshold", Reason: "must be a number"}
	}
	return nil
}

// Validate checks that an experiment definition can be run.
func (e *ExperimentDef) Validate() error {
	if e.Input == "" {
		return &ConfigError{Field: "experiments[" + e.Name + "].input", Reason: "is required"}
	}
	if e.Classifier.Name == "" {
		return &ConfigError{Field: "experiments[" + e.Name + "].classifier.name", Reason: "is required"}
	}
	return nil
}
