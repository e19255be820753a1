// Package experiment runs classifiers over labelled PKT datasets.
package experiment

import (
	"Go2NetEuclid/internal/config"
	"Go2NetEuclid/internal/diagnoser"
	_ "Go2NetEuclid/internal/engine/impl/euclid" // Registers the EUCLID classifier
	"Go2NetEuclid/internal/factory"
	"Go2NetEuclid/internal/model"
	"Go2NetEuclid/pkg/pkt"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

// Runner executes experiments and hands their results to a set of writers.
type Runner struct {
	writers []model.Writer
}

// NewRunner creates a Runner that reports to writers.
func NewRunner(writers ...model.Writer) *Runner {
	return &Runner{writers: writers}
}

// Run maps the experiment input and runs it.
func (r *Runner) Run(exp config.ExperimentDef) (*model.ExperimentResult, error) {
	if err := exp.Validate(); err != nil {
		return nil, err
	}

	input, err := pkt.Open(exp.Input)
	if err != nil {
		return nil, fmt.Errorf("failed to open input of experiment '%s': %w", exp.Name, err)
	}
	defer input.Close()

	return r.RunSource(exp, input)
}

// RunSource runs exp against src. src is reset before use.
func (r *Runner) RunSource(exp config.ExperimentDef, src model.RecordSource) (*model.ExperimentResult, error) {
	if err := exp.Validate(); err != nil {
		return nil, err
	}

	classifier, err := factory.Create(exp.Classifier)
	if err != nil {
		return nil, err
	}

	log.Printf("Experiment: %s\n\tInput: %s (%d entries)\n\tOutput: %s", exp.Name, exp.Input, src.EntryCount(), exp.Output)

	start := time.Now()
	run := Execute(classifier, src, exp.Output != "")
	result := &model.ExperimentResult{
		Name:            exp.Name,
		Classifier:      classifier.Name(),
		Input:           exp.Input,
		TrainingRecords: run.TrainingRecords,
		StartedAt:       start,
		Duration:        time.Since(start),
		Summary:         run.Summary,
		Windows:         run.Windows,
	}
	log.Printf("Experiment '%s' finished in %s:\n%s", exp.Name, result.Duration, result.Summary)

	if exp.Output != "" {
		if err := writeClassified(exp, run.Records); err != nil {
			log.Printf("Warning: %v", err)
		}
	}

	for _, w := range r.writers {
		if err := w.Write(result); err != nil {
			log.Printf("Warning: failed to write results of '%s': %v", exp.Name, err)
		}
	}
	return result, nil
}

// RunAll runs every experiment of cfg in order and stops at the first error.
func (r *Runner) RunAll(cfg *config.Config) ([]*model.ExperimentResult, error) {
	var results []*model.ExperimentResult
	for _, exp := range cfg.Experiments {
		result, err := r.Run(exp)
		if err != nil {
			return results, fmt.Errorf("experiment '%s' failed: %w", exp.Name, err)
		}
		results = append(results, result)
	}
	return results, nil
}

// Run is the outcome of Execute.
type Run struct {
	TrainingRecords uint64
	Summary         model.Summary
	Windows         []model.WindowReport
	// Records holds the classified records when they were requested.
	Records []*model.FlowRecord
}

// Execute feeds src through classifier. Classifiers implementing
// model.Trainer first see TrainingSize records that are not scored; every
// remaining record is scored after the classifier has processed it.
func Execute(classifier model.Classifier, src model.RecordSource, keepRecords bool) Run {
	var run Run
	src.Reset()

	if trainer, ok := classifier.(model.Trainer); ok {
		run.TrainingRecords = min(trainer.TrainingSize(src.EntryCount()), src.EntryCount())
	}

	diag := diagnoser.New()
	var seen uint64
	for rec, ok := src.Next(); ok; rec, ok = src.Next() {
		if classifier.Ingest(rec) {
			run.Windows = append(run.Windows, classifier.OnWindowBoundary())
		}
		if seen >= run.TrainingRecords {
			diag.Observe(rec)
		}
		if keepRecords {
			run.Records = append(run.Records, rec)
		}
		seen++
	}

	run.Summary = diag.Report()
	return run
}

func writeClassified(exp config.ExperimentDef, records []*model.FlowRecord) error {
	if err := os.MkdirAll(exp.Output, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(exp.Output, exp.Name+"_classified.pkt")
	if _, err := pkt.WriteFile(path, records); err != nil {
		return fmt.Errorf("failed to write classified records: %w", err)
	}
	log.Printf("Wrote %d classified records to %s", len(records), path)
	return nil
}
