package experiment

import (
	"Go2NetEuclid/internal/config"
	"Go2NetEuclid/internal/model"
	"Go2NetEuclid/pkg/pkt"
	"math/rand/v2"
	"path/filepath"
	"testing"
)

type recordingWriter struct {
	results []*model.ExperimentResult
}

func (w *recordingWriter) Write(result *model.ExperimentResult) error {
	w.results = append(w.results, result)
	return nil
}

const target = 0xC0A80064

// attackDataset has n uniform records; the second half sends most traffic
// towards target and labels it malicious.
func attackDataset(n int) []model.FlowRecord {
	rng := rand.New(rand.NewPCG(11, 12))
	records := make([]model.FlowRecord, n)
	for i := range records {
		records[i] = model.FlowRecord{SrcAddr: rng.Uint32(), DstAddr: rng.Uint32()}
		if i >= n/2 && rng.Float64() < 0.9 {
			records[i].DstAddr = target
			records[i].MarkOriginalMalicious()
		}
	}
	return records
}

func experiment(output string) config.ExperimentDef {
	seed := uint64(42)
	return config.ExperimentDef{
		Name:   "collapse",
		Input:  "memory",
		Output: output,
		Classifier: config.ClassifierDef{
			Name: "EUCLID",
			Parameters: config.EuclidParams{
				Sensitivity:           3,
				Smoothing:             0.5,
				ObservationWindowSize: 1000,
				DefenseThreshold:      100,
				CountSketchDepth:      5,
				CountSketchWidth:      4096,
				Seed:                  &seed,
			},
		},
	}
}

func TestRunner_RunSource(t *testing.T) {
	records := attackDataset(6000)
	w := &recordingWriter{}
	runner := NewRunner(w)

	result, err := runner.RunSource(experiment(""), pkt.NewMemorySource(records))
	if err != nil {
		t.Fatalf("RunSource failed: %v", err)
	}
	if len(w.results) != 1 || w.results[0] != result {
		t.Fatal("Expected the result to reach the writer")
	}

	if result.TrainingRecords != 3000 {
		t.Errorf("Expected 3000 training records, got %d", result.TrainingRecords)
	}
	if len(result.Windows) != 6 {
		t.Errorf("Expected 6 windows, got %d", len(result.Windows))
	}

	s := result.Summary
	if s.TotalEntries != 3000 {
		t.Fatalf("Expected only the classification phase to be scored, got %d entries", s.TotalEntries)
	}
	if s.TruePositives+s.FalseNegatives != s.TrueMalicious {
		t.Errorf("Inconsistent summary: %+v", s)
	}
	if s.TruePositives == 0 {
		t.Errorf("Expected the attack to be detected, got %+v", s)
	}

	// Nothing from the clean training phase is marked.
	for i, rec := range records[:3000] {
		if rec.IsClassifiedMalicious() {
			t.Fatalf("Training record %d was marked", i)
		}
	}
}

func TestRunner_WritesClassifiedRecords(t *testing.T) {
	out := t.TempDir()
	records := attackDataset(4000)
	if _, err := NewRunner().RunSource(experiment(out), pkt.NewMemorySource(records)); err != nil {
		t.Fatalf("RunSource failed: %v", err)
	}

	f, err := pkt.Open(filepath.Join(out, "collapse_classified.pkt"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()
	if f.EntryCount() != 4000 {
		t.Fatalf("Expected 4000 records, got %d", f.EntryCount())
	}
	for i, rec := range f.Records() {
		if rec != records[i] {
			t.Fatalf("Record %d differs from the classified input", i)
		}
	}
}

func TestRunner_Run(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mixed.pkt")
	if _, err := pkt.WriteRecords(path, attackDataset(4000)); err != nil {
		t.Fatalf("WriteRecords failed: %v", err)
	}

	exp := experiment("")
	exp.Input = path
	results, err := NewRunner().RunAll(&config.Config{Experiments: []config.ExperimentDef{exp}})
	if err != nil {
		t.Fatalf("RunAll failed: %v", err)
	}
	if len(results) != 1 || results[0].Summary.TotalEntries != 2000 {
		t.Fatalf("Unexpected results: %+v", results)
	}
}

func TestRunner_Errors(t *testing.T) {
	exp := experiment("")
	exp.Classifier.Name = "NOPE"
	if _, err := NewRunner().RunSource(exp, pkt.NewMemorySource(nil)); err == nil {
		t.Error("Expected an error for an unknown classifier")
	}

	exp = experiment("")
	exp.Input = filepath.Join(t.TempDir(), "missing.pkt")
	if _, err := NewRunner().Run(exp); err == nil {
		t.Error("Expected an error for a missing input")
	}
}
