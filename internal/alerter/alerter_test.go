package alerter

import (
	"Go2NetEuclid/internal/config"
	"Go2NetEuclid/internal/model"
	"strings"
	"sync"
	"testing"
)

type recordingNotifier struct {
	mu       sync.Mutex
	subjects []string
}

func (n *recordingNotifier) Send(subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.subjects = append(n.subjects, subject)
	return nil
}

func report(id uint32, from, to string) model.WindowReport {
	return model.WindowReport{WindowID: id, PrevState: from, State: to}
}

func TestShouldNotify(t *testing.T) {
	tests := []struct {
		from, to string
		recovery bool
		want     bool
	}{
		{"SAFE", "SAFE", true, false},
		{"SAFE", "DEFENSE_ACTIVE", false, true},
		{"DEFENSE_ACTIVE", "DEFENSE_ACTIVE", true, false},
		{"DEFENSE_ACTIVE", "DEFENSE_COOLDOWN", true, false},
		{"DEFENSE_COOLDOWN", "DEFENSE_ACTIVE", true, false},
		{"DEFENSE_COOLDOWN", "SAFE", false, false},
		{"DEFENSE_COOLDOWN", "SAFE", true, true},
	}
	for _, tt := range tests {
		r := report(1, tt.from, tt.to)
		if got := ShouldNotify(&r, tt.recovery); got != tt.want {
			t.Errorf("%s -> %s (recovery %v): expected %v, got %v", tt.from, tt.to, tt.recovery, tt.want, got)
		}
	}
}

func TestAlerter_Delivers(t *testing.T) {
	n := &recordingNotifier{}
	a, err := NewAlerter(&config.AlerterConfig{Enabled: true}, "EUCLID", n)
	if err != nil {
		t.Fatalf("NewAlerter failed: %v", err)
	}
	a.Start()

	a.Observe(report(1, "SAFE", "SAFE"))
	if !a.Observe(report(3, "SAFE", "DEFENSE_ACTIVE")) {
		t.Error("Expected the activation to be queued")
	}
	a.Observe(report(4, "DEFENSE_ACTIVE", "DEFENSE_COOLDOWN"))
	a.Stop()

	if len(n.subjects) != 1 || !strings.Contains(n.subjects[0], "window 3") {
		t.Fatalf("Expected one alert for window 3, got %v", n.subjects)
	}
}

func TestCompose(t *testing.T) {
	r := model.WindowReport{WindowID: 7, PrevState: "SAFE", State: "DEFENSE_ACTIVE", DstAnomalous: true, Records: 100, Marked: 12}
	subject, body := Compose("<edge>", &r)
	if !strings.Contains(subject, "defense_active at window 7") {
		t.Errorf("Unexpected subject %q", subject)
	}
	if strings.Contains(body, "<edge>") || !strings.Contains(body, "edge") {
		t.Error("Expected the classifier name to be escaped")
	}
	if !strings.Contains(body, "12 marked malicious") {
		t.Errorf("Unexpected body %q", body)
	}
	for _, want := range []string{"<h1", "Defense Transition</h1>", "<table>", "<td>Destination</td>", "<strong>DEFENSE_ACTIVE</strong>"} {
		if !strings.Contains(body, want) {
			t.Errorf("Expected the rendered body to contain %q, got %q", want, body)
		}
	}
	if strings.Contains(body, "| Source |") {
		t.Error("Expected the markdown table to be rendered as HTML")
	}
}
