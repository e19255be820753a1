package report

import (
	"Go2NetEuclid/internal/model"
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// TimestampFormat names the per-run result directories.
const TimestampFormat = "2006-01-02_15-04-05"

// SummaryData is the content of summary.json.
type SummaryData struct {
	Experiment      string        `json:"experiment"`
	Classifier      string        `json:"classifier"`
	Input           string        `json:"input"`
	StartedAt       string        `json:"started_at"`
	DurationMs      int64         `json:"duration_ms"`
	TrainingRecords uint64        `json:"training_records"`
	Windows         int           `json:"windows"`
	Summary         model.Summary `json:"summary"`
}

// TextWriter writes results as JSON summaries and plain text window logs.
type TextWriter struct {
	rootPath string
	mu       sync.Mutex
}

// NewTextWriter creates a new text writer rooted at rootPath.
func NewTextWriter(rootPath string) *TextWriter {
	return &TextWriter{rootPath: rootPath}
}

// Write stores result under <root>/<timestamp>/<experiment>/.
func (w *TextWriter) Write(result *model.ExperimentResult) error {
	timestamp := result.StartedAt.Format(TimestampFormat)
	expDir := filepath.Join(w.rootPath, timestamp, result.Name)
	if err := os.MkdirAll(expDir, 0755); err != nil {
		return fmt.Errorf("failed to create result directory: %w", err)
	}

	summary := SummaryData{
		Experiment:      result.Name,
		Classifier:      result.Classifier,
		Input:           result.Input,
		StartedAt:       result.StartedAt.UTC().Format(time.RFC3339),
		DurationMs:      result.Duration.Milliseconds(),
		TrainingRecords: result.TrainingRecords,
		Windows:         len(result.Windows),
		Summary:         result.Summary,
	}
	summaryPath := filepath.Join(expDir, "summary.json")
	summaryFile, err := os.Create(summaryPath)
	if err != nil {
		return fmt.Errorf("failed to create summary file: %w", err)
	}
	defer summaryFile.Close()

	jsonEncoder := json.NewEncoder(summaryFile)
	jsonEncoder.SetIndent("", "  ")
	if err := jsonEncoder.Encode(summary); err != nil {
		return fmt.Errorf("failed to encode summary to json: %w", err)
	}

	windowsPath := filepath.Join(expDir, "windows.txt")
	windowsFile, err := os.Create(windowsPath)
	if err != nil {
		return fmt.Errorf("failed to create windows file '%s': %w", windowsPath, err)
	}
	defer windowsFile.Close()

	if err := writeWindows(windowsFile, result.Windows); err != nil {
		return err
	}

	log.Printf("Successfully wrote results of '%s' (%d windows) to %s\n", result.Name, len(result.Windows), expDir)
	return nil
}

// WriteWindows appends reports to <root>/<classifier>/windows.txt.
func (w *TextWriter) WriteWindows(classifier string, reports []model.WindowReport) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	dir := filepath.Join(w.rootPath, classifier)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create window directory: %w", err)
	}
	path := filepath.Join(dir, "windows.txt")
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open windows file '%s': %w", path, err)
	}
	defer file.Close()

	return writeWindows(file, reports)
}

func writeWindows(out io.Writer, reports []model.WindowReport) error {
	bw := bufio.NewWriter(out)
	for i := range reports {
		if _, err := fmt.Fprintln(bw, FormatWindow(&reports[i])); err != nil {
			return fmt.Errorf("failed to write window report: %w", err)
		}
	}
	return bw.Flush()
}

// FormatWindow renders a report as a single line.
func FormatWindow(r *model.WindowReport) string {
	line := fmt.Sprintf("window=%d src_entropy=%.6f src_threshold=%.6f dst_entropy=%.6f dst_threshold=%.6f anomalous=%t state=%s->%s records=%d marked=%d",
		r.WindowID, r.SrcEntropy, r.SrcThreshold, r.DstEntropy, r.DstThreshold, r.Anomalous, r.PrevState, r.State, r.Records, r.Marked)
	if r.Warmup {
		line += " warmup"
	}
	return line
}
