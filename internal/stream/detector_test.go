package stream

import (
	"Go2NetEuclid/internal/config"
	"Go2NetEuclid/internal/model"
	"Go2NetEuclid/internal/probe"
	"encoding/json"
	"io"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	windowSize = 1000
	target     = 0xC0A80064
)

type message struct {
	subject string
	data    []byte
}

type fakePublisher struct {
	mu       sync.Mutex
	messages []message
}

func (p *fakePublisher) Publish(subject string, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, message{subject, append([]byte(nil), data...)})
	return nil
}

func (p *fakePublisher) bySubject(subject string) []message {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []message
	for _, m := range p.messages {
		if m.subject == subject {
			out = append(out, m)
		}
	}
	return out
}

type fakeWindowWriter struct {
	mu      sync.Mutex
	reports []model.WindowReport
}

func (w *fakeWindowWriter) WriteWindows(classifier string, reports []model.WindowReport) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.reports = append(w.reports, reports...)
	return nil
}

func streamConfig() config.StreamConfig {
	seed := uint64(42)
	return config.StreamConfig{
		Classifier: config.ClassifierDef{
			Name: "EUCLID",
			Parameters: config.EuclidParams{
				Sensitivity:           3,
				Smoothing:             0.5,
				ObservationWindowSize: windowSize,
				DefenseThreshold:      100,
				CountSketchDepth:      5,
				CountSketchWidth:      4096,
				Seed:                  &seed,
			},
		},
		VerdictSubject: "euclid.verdicts",
		ChannelSize:    4,
		FlushInterval:  "1h",
	}
}

// traffic returns two clean windows followed by two windows in which most
// destinations collapse onto target.
func traffic() []model.FlowRecord {
	rng := rand.New(rand.NewPCG(7, 99))
	records := make([]model.FlowRecord, 0, 4*windowSize)
	for w := 0; w < 4; w++ {
		for i := 0; i < windowSize; i++ {
			rec := model.FlowRecord{SrcAddr: rng.Uint32(), DstAddr: rng.Uint32()}
			if w >= 2 && rng.Float64() < 0.9 {
				rec.DstAddr = target
			}
			records = append(records, rec)
		}
	}
	return records
}

func runDetector(t *testing.T) (*Detector, *fakePublisher, *fakeWindowWriter) {
	t.Helper()
	pub := &fakePublisher{}
	writer := &fakeWindowWriter{}
	d, err := NewDetector(streamConfig(), Options{Publisher: pub, Writers: []model.WindowWriter{writer}})
	if err != nil {
		t.Fatalf("NewDetector failed: %v", err)
	}
	d.Start()

	records := traffic()
	for i := 0; i < len(records); i += 250 {
		// Copies isolate the batches like NATS deliveries do.
		batch := append([]model.FlowRecord(nil), records[i:i+250]...)
		if !d.Submit(batch) {
			t.Fatal("Submit rejected a batch on a running detector")
		}
	}
	d.Stop()
	return d, pub, writer
}

func TestDetector_ProcessesStream(t *testing.T) {
	d, pub, writer := runDetector(t)

	records, marked, windows := d.Status().Totals()
	if records != 4*windowSize || windows != 4 {
		t.Fatalf("Expected 4000 records in 4 windows, got %d in %d", records, windows)
	}
	if marked == 0 {
		t.Error("Expected records to be marked after the defense was armed")
	}
	if d.Status().State() != "DEFENSE_ACTIVE" {
		t.Errorf("Expected DEFENSE_ACTIVE, got %s", d.Status().State())
	}

	verdicts := pub.bySubject("euclid.verdicts")
	if len(verdicts) != 4 {
		t.Fatalf("Expected 4 verdicts, got %d", len(verdicts))
	}
	var msg structpb.Struct
	if err := proto.Unmarshal(verdicts[2].data, &msg); err != nil {
		t.Fatalf("Failed to unmarshal verdict: %v", err)
	}
	if id := msg.Fields["window_id"].GetNumberValue(); id != 3 {
		t.Errorf("Expected verdict for window 3, got %v", id)
	}
	if msg.Fields["state"].GetStringValue() != "DEFENSE_ACTIVE" || !msg.Fields["dst_anomalous"].GetBoolValue() {
		t.Errorf("Unexpected verdict content: %v", msg.Fields)
	}

	var published uint64
	for _, m := range pub.bySubject("euclid.verdicts.marked") {
		batch, err := probe.DecodeBatch(m.data)
		if err != nil {
			t.Fatalf("Failed to decode marked batch: %v", err)
		}
		published += uint64(len(batch))
	}
	if published != marked {
		t.Errorf("Expected %d marked records to be published, got %d", marked, published)
	}

	if len(writer.reports) != 4 || writer.reports[3].WindowID != 4 {
		t.Errorf("Expected the final flush to deliver 4 reports, got %d", len(writer.reports))
	}

	if d.Submit(nil) {
		t.Error("Expected Submit to fail after Stop")
	}
}

func TestDetector_Metrics(t *testing.T) {
	d, _, _ := runDetector(t)
	m := d.Metrics()

	if got := testutil.ToFloat64(m.records); got != 4*windowSize {
		t.Errorf("Expected 4000 records, got %v", got)
	}
	if got := testutil.ToFloat64(m.windows); got != 4 {
		t.Errorf("Expected 4 windows, got %v", got)
	}
	if got := testutil.ToFloat64(m.transitions.WithLabelValues("SAFE", "DEFENSE_ACTIVE")); got != 1 {
		t.Errorf("Expected one SAFE -> DEFENSE_ACTIVE transition, got %v", got)
	}
	if got := testutil.ToFloat64(m.defenseState.WithLabelValues("DEFENSE_ACTIVE")); got != 1 {
		t.Errorf("Expected DEFENSE_ACTIVE to be the current state, got %v", got)
	}
	if got := testutil.ToFloat64(m.defenseState.WithLabelValues("SAFE")); got != 0 {
		t.Errorf("Expected SAFE to be cleared, got %v", got)
	}

	m.DecodeError()
	if got := testutil.ToFloat64(m.decodeErrors); got != 1 {
		t.Errorf("Expected 1 decode error, got %v", got)
	}
}

func TestHTTPHandler(t *testing.T) {
	d, _, _ := runDetector(t)
	srv := httptest.NewServer(NewHTTPHandler(d))
	defer srv.Close()

	get := func(path string) (int, []byte) {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s failed: %v", path, err)
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, body
	}

	code, body := get("/api/v1/status")
	if code != http.StatusOK {
		t.Fatalf("Expected 200 for status, got %d", code)
	}
	var status map[string]any
	if err := json.Unmarshal(body, &status); err != nil {
		t.Fatalf("Invalid status JSON: %v", err)
	}
	if status["state"] != "DEFENSE_ACTIVE" || status["records"] != float64(4*windowSize) {
		t.Errorf("Unexpected status: %v", status)
	}
	last, ok := status["last_window"].(map[string]any)
	if !ok || last["window_id"] != float64(4) {
		t.Errorf("Expected the last window to be 4, got %v", status["last_window"])
	}

	code, body = get("/api/v1/windows?limit=2")
	if code != http.StatusOK {
		t.Fatalf("Expected 200 for windows, got %d", code)
	}
	var windows []model.WindowReport
	if err := json.Unmarshal(body, &windows); err != nil {
		t.Fatalf("Invalid windows JSON: %v", err)
	}
	if len(windows) != 2 || windows[0].WindowID != 3 || windows[1].WindowID != 4 {
		t.Errorf("Expected windows 3 and 4, got %+v", windows)
	}

	if code, _ = get("/api/v1/windows?limit=x"); code != http.StatusBadRequest {
		t.Errorf("Expected 400 for a bad limit, got %d", code)
	}

	code, body = get("/metrics")
	if code != http.StatusOK || !strings.Contains(string(body), "euclid_windows_total") {
		t.Errorf("Expected the metrics page to list euclid_windows_total, got %d", code)
	}
}

func TestNewDetector_InvalidConfig(t *testing.T) {
	cfg := streamConfig()
	cfg.FlushInterval = "soon"
	if _, err := NewDetector(cfg, Options{}); err == nil {
		t.Error("Expected an error for an invalid flush interval")
	}

	cfg = streamConfig()
	cfg.Classifier.Parameters.CountSketchDepth = 0
	if _, err := NewDetector(cfg, Options{}); err == nil {
		t.Error("Expected an error for invalid classifier parameters")
	}
}

// Exercised with -race: producers, status readers and the HTTP handler share
// the detector while it runs.
func TestDetector_ConcurrentSubmitAndRead(t *testing.T) {
	pub := &fakePublisher{}
	writer := &fakeWindowWriter{}
	cfg := streamConfig()
	cfg.FlushInterval = "1ms"
	d, err := NewDetector(cfg, Options{Publisher: pub, Writers: []model.WindowWriter{writer}})
	if err != nil {
		t.Fatalf("NewDetector failed: %v", err)
	}
	d.Start()
	handler := NewHTTPHandler(d)

	records := traffic()
	const producers = 4
	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := p * 250; i < len(records); i += producers * 250 {
				batch := append([]model.FlowRecord(nil), records[i:i+250]...)
				if !d.Submit(batch) {
					t.Error("Submit rejected a batch on a running detector")
					return
				}
			}
		}(p)
	}

	stop := make(chan struct{})
	var readers sync.WaitGroup
	readers.Add(1)
	go func() {
		defer readers.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			d.Status().Totals()
			d.Status().Recent(8)
			if _, err := d.Status().Struct(); err != nil {
				t.Errorf("Status struct failed: %v", err)
				return
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/status", nil))
		}
	}()

	wg.Wait()
	close(stop)
	readers.Wait()
	d.Stop()

	got, _, windows := d.Status().Totals()
	if got != 4*windowSize || windows != 4 {
		t.Fatalf("Expected 4000 records in 4 windows, got %d records in %d windows", got, windows)
	}
	writer.mu.Lock()
	defer writer.mu.Unlock()
	if len(writer.reports) != 4 {
		t.Errorf("Expected 4 window reports at the writer, got %d", len(writer.reports))
	}
}
