package probe

import (
	"Go2NetEuclid/internal/config"
	"Go2NetEuclid/internal/model"
	"log"

	"github.com/nats-io/nats.go"
)

const defaultBatchSize = 256

// Publisher is responsible for publishing flow records to a NATS subject in batches.
type Publisher struct {
	nc        *nats.Conn
	subject   string
	batchSize int
	pending   []model.FlowRecord
	published uint64
}

// NewPublisher creates a new NATS publisher.
func NewPublisher(cfg config.ProbeConfig) (*Publisher, error) {
	nc, err := nats.Connect(cfg.NATSURL)
	if err != nil {
		return nil, err
	}
	log.Printf("Connected to NATS server at %s", cfg.NATSURL)

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Publisher{
		nc:        nc,
		subject:   cfg.Subject,
		batchSize: batchSize,
		pending:   make([]model.FlowRecord, 0, batchSize),
	}, nil
}

// Publish queues rec and sends the batch once it is full.
func (p *Publisher) Publish(rec model.FlowRecord) error {
	p.pending = append(p.pending, rec)
	if len(p.pending) < p.batchSize {
		return nil
	}
	return p.Flush()
}

// Flush sends all queued records.
func (p *Publisher) Flush() error {
	if len(p.pending) == 0 {
		return nil
	}
	if err := p.nc.Publish(p.subject, EncodeBatch(p.pending)); err != nil {
		return err
	}
	p.published += uint64(len(p.pending))
	p.pending = p.pending[:0]
	return nil
}

// Published returns the number of records sent so far.
func (p *Publisher) Published() uint64 {
	return p.published
}

// Close flushes queued records, then drains and closes the NATS connection.
func (p *Publisher) Close() {
	if p.nc != nil {
		if err := p.Flush(); err != nil {
			log.Printf("Warning: failed to flush %d records: %v", len(p.pending), err)
		}
		p.nc.Drain()
		log.Println("NATS connection drained and closed.")
	}
}
