package stream

import (
	"Go2NetEuclid/internal/model"
	"sync"
	"time"

	"google.golang.org/protobuf/types/known/structpb"
)

const recentWindows = 64

// Status is the state shared between the detection worker and the API
// handlers. The worker is the only writer.
type Status struct {
	mu         sync.RWMutex
	classifier string
	startedAt  time.Time
	state      string
	records    uint64
	marked     uint64
	windows    uint64
	recent     []model.WindowReport
	last       *model.WindowReport
}

func newStatus(classifier string) *Status {
	return &Status{classifier: classifier, startedAt: time.Now(), state: "SAFE"}
}

func (s *Status) addBatch(records, marked int) {
	s.mu.Lock()
	s.records += uint64(records)
	s.marked += uint64(marked)
	s.mu.Unlock()
}

func (s *Status) addWindow(r model.WindowReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.windows++
	s.state = r.State
	if len(s.recent) == recentWindows {
		copy(s.recent, s.recent[1:])
		s.recent = s.recent[:recentWindows-1]
	}
	s.recent = append(s.recent, r)
	s.last = &s.recent[len(s.recent)-1]
}

// State returns the current defense state.
func (s *Status) State() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Totals returns the processed and marked record counts and the number of windows.
func (s *Status) Totals() (records, marked, windows uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records, s.marked, s.windows
}

// Last returns a copy of the most recent window report.
func (s *Status) Last() (model.WindowReport, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return model.WindowReport{}, false
	}
	return *s.last, true
}

// Recent returns up to limit of the latest window reports, oldest first.
func (s *Status) Recent(limit int) []model.WindowReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := len(s.recent)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]model.WindowReport, limit)
	copy(out, s.recent[n-limit:])
	return out
}

// Struct renders the status as a protobuf Struct.
func (s *Status) Struct() (*structpb.Struct, error) {
	s.mu.RLock()
	fields := map[string]any{
		"classifier": s.classifier,
		"started_at": s.startedAt.UTC().Format(time.RFC3339),
		"state":      s.state,
		"records":    s.records,
		"marked":     s.marked,
		"windows":    s.windows,
	}
	if s.last != nil {
		fields["last_window"] = windowFields(s.last)
	}
	s.mu.RUnlock()
	return structpb.NewStruct(fields)
}

// VerdictMessage renders r as the protobuf Struct published on the verdict subject.
func VerdictMessage(classifier string, r *model.WindowReport) (*structpb.Struct, error) {
	fields := windowFields(r)
	fields["classifier"] = classifier
	fields["timestamp"] = time.Now().UTC().Format(time.RFC3339Nano)
	return structpb.NewStruct(fields)
}

func windowFields(r *model.WindowReport) map[string]any {
	return map[string]any{
		"window_id":     r.WindowID,
		"warmup":        r.Warmup,
		"src_entropy":   r.SrcEntropy,
		"dst_entropy":   r.DstEntropy,
		"src_threshold": r.SrcThreshold,
		"dst_threshold": r.DstThreshold,
		"src_anomalous": r.SrcAnomalous,
		"dst_anomalous": r.DstAnomalous,
		"anomalous":     r.Anomalous,
		"prev_state":    r.PrevState,
		"state":         r.State,
		"records":       r.Records,
		"marked":        r.Marked,
	}
}
