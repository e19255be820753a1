// Package stream runs a classifier as a long-lived service fed over NATS.
package stream

import (
	"Go2NetEuclid/internal/alerter"
	"Go2NetEuclid/internal/config"
	_ "Go2NetEuclid/internal/engine/impl/euclid" // Registers the EUCLID classifier
	"Go2NetEuclid/internal/factory"
	"Go2NetEuclid/internal/model"
	"Go2NetEuclid/internal/probe"
	"fmt"
	"log"
	"sync"
	"time"

	"google.golang.org/protobuf/proto"
)

const (
	defaultChannelSize   = 1024
	defaultFlushInterval = 10 * time.Second
)

// VerdictPublisher sends encoded verdicts; *nats.Conn satisfies it.
type VerdictPublisher interface {
	Publish(subject string, data []byte) error
}

// Options wires the optional collaborators of a Detector.
type Options struct {
	Publisher VerdictPublisher
	Writers   []model.WindowWriter
	Alerter   *alerter.Alerter
}

// Detector feeds record batches through a single classifier instance.
// Batches are processed by exactly one worker goroutine, in submission order.
type Detector struct {
	classifier     model.Classifier
	verdictSubject string
	publisher      VerdictPublisher
	writers        []model.WindowWriter
	alerter        *alerter.Alerter

	metrics *Metrics
	status  *Status

	inputMu  sync.RWMutex
	input    chan []model.FlowRecord
	stopped  bool
	workerWg sync.WaitGroup

	flushInterval time.Duration
	pendingMu     sync.Mutex
	pending       []model.WindowReport
	done          chan struct{}
	flusherWg     sync.WaitGroup
}

// NewDetector creates the classifier described by cfg.
func NewDetector(cfg config.StreamConfig, opts Options) (*Detector, error) {
	classifier, err := factory.Create(cfg.Classifier)
	if err != nil {
		return nil, err
	}

	flushInterval := defaultFlushInterval
	if cfg.FlushInterval != "" {
		flushInterval, err = time.ParseDuration(cfg.FlushInterval)
		if err != nil {
			return nil, fmt.Errorf("invalid stream flush_interval: %w", err)
		}
		if flushInterval <= 0 {
			return nil, fmt.Errorf("stream flush_interval must be a positive duration")
		}
	}

	channelSize := cfg.ChannelSize
	if channelSize <= 0 {
		channelSize = defaultChannelSize
	}

	return &Detector{
		classifier:     classifier,
		verdictSubject: cfg.VerdictSubject,
		publisher:      opts.Publisher,
		writers:        opts.Writers,
		alerter:        opts.Alerter,
		metrics:        NewMetrics(classifier.Name()),
		status:         newStatus(classifier.Name()),
		input:          make(chan []model.FlowRecord, channelSize),
		flushInterval:  flushInterval,
		done:           make(chan struct{}),
	}, nil
}

// Start launches the worker, the writer flusher and the alerter.
func (d *Detector) Start() {
	if d.alerter != nil {
		d.alerter.Start()
	}
	if len(d.writers) > 0 {
		d.flusherWg.Add(1)
		go d.runFlusher()
		log.Printf("Started window flusher with interval %s for %d writers.", d.flushInterval, len(d.writers))
	}
	d.workerWg.Add(1)
	go d.worker()
	log.Printf("Detector started with classifier %s.", d.classifier.Name())
}

// Submit queues a batch for processing. It blocks while the queue is full
// and returns false once the detector is stopped.
func (d *Detector) Submit(records []model.FlowRecord) bool {
	d.inputMu.RLock()
	defer d.inputMu.RUnlock()
	if d.stopped {
		return false
	}
	d.input <- records
	return true
}

// HandleBatch is a probe.RecordHandler feeding Submit.
func (d *Detector) HandleBatch(records []model.FlowRecord) {
	if !d.Submit(records) {
		log.Printf("Warning: detector stopped, dropping batch of %d records", len(records))
	}
}

// Stop drains the queue, flushes the writers and stops the alerter.
func (d *Detector) Stop() {
	log.Println("Detector stopping...")
	d.inputMu.Lock()
	d.stopped = true
	close(d.input)
	d.inputMu.Unlock()
	d.workerWg.Wait()

	close(d.done)
	d.flusherWg.Wait()

	if d.alerter != nil {
		d.alerter.Stop()
	}
	log.Println("Detector stopped.")
}

// Status returns the shared status view.
func (d *Detector) Status() *Status {
	return d.status
}

// Metrics returns the detector metrics.
func (d *Detector) Metrics() *Metrics {
	return d.metrics
}

// Classifier returns the classifier driven by the detector.
func (d *Detector) Classifier() model.Classifier {
	return d.classifier
}

func (d *Detector) worker() {
	defer d.workerWg.Done()
	for batch := range d.input {
		d.process(batch)
	}
}

func (d *Detector) process(batch []model.FlowRecord) {
	var marked []model.FlowRecord
	for i := range batch {
		rec := &batch[i]
		closed := d.classifier.Ingest(rec)
		if rec.IsClassifiedMalicious() {
			marked = append(marked, *rec)
		}
		if closed {
			d.closeWindow(d.classifier.OnWindowBoundary())
		}
	}

	d.metrics.ObserveBatch(len(batch), len(marked))
	d.status.addBatch(len(batch), len(marked))

	if len(marked) > 0 && d.publisher != nil && d.verdictSubject != "" {
		if err := d.publisher.Publish(d.verdictSubject+".marked", probe.EncodeBatch(marked)); err != nil {
			log.Printf("Warning: failed to publish %d marked records: %v", len(marked), err)
		}
	}
}

func (d *Detector) closeWindow(r model.WindowReport) {
	d.metrics.ObserveWindow(&r)
	d.status.addWindow(r)

	if r.Transitioned() {
		log.Printf("Window %d: defense %s -> %s (src entropy %.4f / %.4f, dst entropy %.4f / %.4f)",
			r.WindowID, r.PrevState, r.State, r.SrcEntropy, r.SrcThreshold, r.DstEntropy, r.DstThreshold)
	}

	if d.alerter != nil {
		d.alerter.Observe(r)
	}

	if len(d.writers) > 0 {
		d.pendingMu.Lock()
		d.pending = append(d.pending, r)
		d.pendingMu.Unlock()
	}

	if d.publisher != nil && d.verdictSubject != "" {
		if err := d.publishVerdict(&r); err != nil {
			log.Printf("Warning: failed to publish verdict for window %d: %v", r.WindowID, err)
		}
	}
}

func (d *Detector) publishVerdict(r *model.WindowReport) error {
	msg, err := VerdictMessage(d.classifier.Name(), r)
	if err != nil {
		return err
	}
	data, err := proto.Marshal(msg)
	if err != nil {
		return err
	}
	return d.publisher.Publish(d.verdictSubject, data)
}

// runFlusher periodically hands buffered window reports to the writers.
func (d *Detector) runFlusher() {
	defer d.flusherWg.Done()
	ticker := time.NewTicker(d.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.flush()
		case <-d.done:
			d.flush()
			return
		}
	}
}

func (d *Detector) flush() {
	d.pendingMu.Lock()
	reports := d.pending
	d.pending = nil
	d.pendingMu.Unlock()

	if len(reports) == 0 {
		return
	}
	for _, w := range d.writers {
		if err := w.WriteWindows(d.classifier.Name(), reports); err != nil {
			log.Printf("Warning: failed to write %d window reports: %v", len(reports), err)
		}
	}
}
