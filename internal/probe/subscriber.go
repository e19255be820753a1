package probe

import (
	"Go2NetEuclid/internal/config"
	"Go2NetEuclid/internal/model"
	"log"

	"github.com/nats-io/nats.go"
)

// RecordHandler processes a received batch of records.
type RecordHandler func(records []model.FlowRecord)

// Subscriber is responsible for subscribing to a NATS subject and processing messages.
type Subscriber struct {
	nc      *nats.Conn
	sub     *nats.Subscription
	subject string

	// OnDecodeError, when set, is called for every message that is not a valid batch.
	OnDecodeError func(err error)
}

// NewSubscriber creates a new NATS subscriber.
func NewSubscriber(cfg config.ProbeConfig) (*Subscriber, error) {
	nc, err := nats.Connect(cfg.NATSURL)
	if err != nil {
		return nil, err
	}
	log.Printf("Connected to NATS server at %s", cfg.NATSURL)
	return &Subscriber{nc: nc, subject: cfg.Subject}, nil
}

// Conn exposes the underlying connection, e.g. for publishing replies.
func (s *Subscriber) Conn() *nats.Conn {
	return s.nc
}

// Start subscribes to the configured subject. Messages of one subscription
// are delivered sequentially, so handler sees batches in publish order.
func (s *Subscriber) Start(handler RecordHandler) error {
	sub, err := s.nc.Subscribe(s.subject, func(msg *nats.Msg) {
		records, err := DecodeBatch(msg.Data)
		if err != nil {
			log.Printf("Error decoding record batch: %v", err)
			if s.OnDecodeError != nil {
				s.OnDecodeError(err)
			}
			return
		}
		handler(records)
	})
	if err != nil {
		return err
	}
	s.sub = sub
	log.Printf("Subscribed to '%s'. Waiting for messages...", s.subject)
	return nil
}

// Unsubscribe stops the delivery of new messages and keeps the connection open.
func (s *Subscriber) Unsubscribe() error {
	if s.sub == nil {
		return nil
	}
	err := s.sub.Unsubscribe()
	s.sub = nil
	return err
}

// Close unsubscribes and drains the NATS connection.
func (s *Subscriber) Close() {
	if err := s.Unsubscribe(); err != nil {
		log.Printf("Warning: failed to unsubscribe from '%s': %v", s.subject, err)
	}
	if s.nc != nil {
		s.nc.Drain()
		log.Println("NATS connection closed.")
	}
}
