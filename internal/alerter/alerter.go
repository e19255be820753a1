package alerter

import (
	"Go2NetEuclid/internal/config"
	"Go2NetEuclid/internal/model"
	"fmt"
	"html"
	"log"
	"strings"
	"sync"

	"github.com/gomarkdown/markdown"
)

const defaultQueueSize = 16

// Alerter notifies operators about defense state transitions.
// Notifications are delivered from a dedicated goroutine.
type Alerter struct {
	classifier     string
	notifier       model.Notifier
	notifyRecovery bool
	queue          chan model.WindowReport
	wg             sync.WaitGroup
	mu             sync.Mutex
	dropped        uint64
}

// NewAlerter creates a new Alerter instance for the named classifier.
func NewAlerter(cfg *config.AlerterConfig, classifier string, notifier model.Notifier) (*Alerter, error) {
	if notifier == nil {
		return nil, fmt.Errorf("alerter requires a notifier")
	}
	size := cfg.QueueSize
	if size <= 0 {
		size = defaultQueueSize
	}
	return &Alerter{
		classifier:     classifier,
		notifier:       notifier,
		notifyRecovery: cfg.NotifyRecovery,
		queue:          make(chan model.WindowReport, size),
	}, nil
}

// ShouldNotify reports whether r carries a transition worth an alert: the
// defense being armed from SAFE, and with recovery enabled the return to SAFE.
func ShouldNotify(r *model.WindowReport, recovery bool) bool {
	if !r.Transitioned() {
		return false
	}
	if r.PrevState == "SAFE" && r.State == "DEFENSE_ACTIVE" {
		return true
	}
	return recovery && r.State == "SAFE"
}

// Start launches the delivery goroutine.
func (a *Alerter) Start() {
	log.Println("Alerter started")
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		for r := range a.queue {
			a.send(&r)
		}
	}()
}

// Observe queues r for delivery when it is a notifiable transition.
// It never blocks; alerts are dropped when the queue is full.
func (a *Alerter) Observe(r model.WindowReport) bool {
	if !ShouldNotify(&r, a.notifyRecovery) {
		return false
	}
	select {
	case a.queue <- r:
		return true
	default:
		a.mu.Lock()
		a.dropped++
		a.mu.Unlock()
		log.Printf("Warning: alert queue full, dropping alert for window %d", r.WindowID)
		return false
	}
}

// Stop delivers the queued alerts and stops the delivery goroutine.
func (a *Alerter) Stop() {
	log.Println("Stopping Alerter...")
	close(a.queue)
	a.wg.Wait()
}

// Dropped returns the number of alerts lost to a full queue.
func (a *Alerter) Dropped() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dropped
}

func (a *Alerter) send(r *model.WindowReport) {
	subject, body := Compose(a.classifier, r)
	if err := a.notifier.Send(subject, body); err != nil {
		log.Printf("ERROR: Failed to send alert notification: %v", err)
		return
	}
	log.Printf("INFO: Alert notification for window %d sent successfully.", r.WindowID)
}

// Compose renders the e-mail subject for r and its body, written as
// markdown and converted to HTML.
func Compose(classifier string, r *model.WindowReport) (string, string) {
	subject := fmt.Sprintf("EUCLID %s: defense %s at window %d", classifier, strings.ToLower(r.State), r.WindowID)

	var md strings.Builder
	md.WriteString("# EUCLID Defense Transition\n\n")
	fmt.Fprintf(&md, "Classifier **%s** moved from **%s** to **%s** at the end of window %d.\n\n",
		html.EscapeString(classifier), r.PrevState, r.State, r.WindowID)
	md.WriteString("| Direction | Entropy | Threshold | Anomalous |\n")
	md.WriteString("|---|---|---|---|\n")
	fmt.Fprintf(&md, "| Source | %.4f | %.4f | %t |\n", r.SrcEntropy, r.SrcThreshold, r.SrcAnomalous)
	fmt.Fprintf(&md, "| Destination | %.4f | %.4f | %t |\n\n", r.DstEntropy, r.DstThreshold, r.DstAnomalous)
	fmt.Fprintf(&md, "%d records in the window, %d marked malicious.\n", r.Records, r.Marked)

	body := markdown.ToHTML([]byte(md.String()), nil, nil)
	return subject, string(body)
}
