package report

import (
	"Go2NetEuclid/internal/config"
	"Go2NetEuclid/internal/model"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func sampleResult() *model.ExperimentResult {
	return &model.ExperimentResult{
		Name:       "mixed-small",
		Classifier: "EUCLID",
		Input:      "data/mixed.pkt",
		StartedAt:  time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC),
		Duration:   1500 * time.Millisecond,
		Summary:    model.Summary{TotalEntries: 100, TruePositives: 7, Precision: 0.7},
		Windows: []model.WindowReport{
			{WindowID: 1, Warmup: true, PrevState: "SAFE", State: "SAFE", Records: 50},
			{WindowID: 2, Anomalous: true, DstAnomalous: true, PrevState: "SAFE", State: "DEFENSE_ACTIVE", Records: 50},
		},
	}
}

func TestTextWriter_Write(t *testing.T) {
	root := t.TempDir()
	w := NewTextWriter(root)
	if err := w.Write(sampleResult()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	expDir := filepath.Join(root, "2024-05-01_12-30-00", "mixed-small")
	summaryBytes, err := os.ReadFile(filepath.Join(expDir, "summary.json"))
	if err != nil {
		t.Fatalf("Failed to read summary.json: %v", err)
	}
	var summary SummaryData
	if err := json.Unmarshal(summaryBytes, &summary); err != nil {
		t.Fatalf("Failed to unmarshal summary.json: %v", err)
	}
	if summary.Summary.TruePositives != 7 || summary.Windows != 2 || summary.DurationMs != 1500 {
		t.Errorf("Unexpected summary content: %+v", summary)
	}

	windows, err := os.ReadFile(filepath.Join(expDir, "windows.txt"))
	if err != nil {
		t.Fatalf("Failed to read windows.txt: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(windows)), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 window lines, got %d", len(lines))
	}
	if !strings.HasSuffix(lines[0], " warmup") {
		t.Errorf("Expected the warm-up window to be tagged, got %q", lines[0])
	}
	if !strings.Contains(lines[1], "state=SAFE->DEFENSE_ACTIVE") {
		t.Errorf("Expected the transition in line 2, got %q", lines[1])
	}
}

func TestTextWriter_WriteWindowsAppends(t *testing.T) {
	root := t.TempDir()
	w := NewTextWriter(root)
	reports := sampleResult().Windows
	if err := w.WriteWindows("EUCLID", reports[:1]); err != nil {
		t.Fatalf("WriteWindows failed: %v", err)
	}
	if err := w.WriteWindows("EUCLID", reports[1:]); err != nil {
		t.Fatalf("WriteWindows failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(root, "EUCLID", "windows.txt"))
	if err != nil {
		t.Fatalf("Failed to read windows.txt: %v", err)
	}
	if n := strings.Count(string(data), "\n"); n != 2 {
		t.Errorf("Expected 2 appended lines, got %d", n)
	}
}

func TestNewWriters(t *testing.T) {
	root := t.TempDir()
	sinks, err := NewWriters([]config.WriterDef{
		{Type: "text", Enabled: true, Text: config.TextConfig{RootPath: root}},
		{Type: "clickhouse", Enabled: false},
	})
	if err != nil {
		t.Fatalf("NewWriters failed: %v", err)
	}
	if len(sinks) != 1 {
		t.Fatalf("Expected only the enabled writer, got %d", len(sinks))
	}
	if _, ok := sinks[0].(*TextWriter); !ok {
		t.Errorf("Expected a *TextWriter, got %T", sinks[0])
	}

	_, err = NewWriters([]config.WriterDef{{Type: "gob", Enabled: true}})
	if !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig for an unknown writer type, got %v", err)
	}
}
