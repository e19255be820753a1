package model

import (
	"fmt"
	"strings"
	"time"
)

// ExperimentResult is the outcome of a single experiment run.
type ExperimentResult struct {
	Name       string
	Classifier string
	Input      string
	// TrainingRecords were fed to the classifier before scoring started.
	TrainingRecords uint64
	StartedAt       time.Time
	Duration        time.Duration
	Summary         Summary
	Windows         []WindowReport
}

// Summary holds the confusion counts collected over the classification phase.
type Summary struct {
	TotalEntries        uint64  `json:"total_entries"`
	TrueMalicious       uint64  `json:"true_malicious"`
	ClassifiedMalicious uint64  `json:"classified_malicious"`
	TruePositives       uint64  `json:"true_positives"`
	FalsePositives      uint64  `json:"false_positives"`
	FalseNegatives      uint64  `json:"false_negatives"`
	TrueNegatives       uint64  `json:"true_negatives"`
	Precision           float64 `json:"precision"`
	Recall              float64 `json:"recall"`
	FalsePositiveRate   float64 `json:"false_positive_rate"`
	F1                  float64 `json:"f1"`
}

// Writer defines a generic interface for persisting experiment results.
type Writer interface {
	Write(result *ExperimentResult) error
}

// WindowWriter persists window reports produced by a streaming classifier.
type WindowWriter interface {
	WriteWindows(classifier string, reports []WindowReport) error
}

// String renders the summary in the human-readable form printed by the runner.
func (s Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Total entries: %d\n", s.TotalEntries)
	fmt.Fprintf(&b, "True malicious: %d\n", s.TrueMalicious)
	fmt.Fprintf(&b, "Classified malicious: %d\n", s.ClassifiedMalicious)
	fmt.Fprintf(&b, "True positives: %d\n", s.TruePositives)
	fmt.Fprintf(&b, "False positives: %d\n", s.FalsePositives)
	fmt.Fprintf(&b, "False negatives: %d\n", s.FalseNegatives)
	fmt.Fprintf(&b, "True negatives: %d\n", s.TrueNegatives)
	fmt.Fprintf(&b, "Precision: %.4f\n", s.Precision)
	fmt.Fprintf(&b, "Recall: %.4f\n", s.Recall)
	fmt.Fprintf(&b, "False positive rate: %.4f\n", s.FalsePositiveRate)
	fmt.Fprintf(&b, "F1 score: %.4f", s.F1)
	return b.String()
}
