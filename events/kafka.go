package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"
)

// MessageWriter is the subset of *kafka.Writer used by the forwarder
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewKafkaWriter builds a writer for the given topic
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
}

// Envelope is the wire format of a forwarded event
type Envelope struct {
	Type       EventType       `json:"type"`
	OccurredAt time.Time       `json:"occurredAt"`
	Payload    json.RawMessage `json:"payload"`
}

// KafkaForwarder publishes committed domain events to a topic for downstream consumers
type KafkaForwarder struct {
	writer  MessageWriter
	timeout time.Duration
	now     func() time.Time
}

// NewKafkaForwarder creates a forwarder writing through w
func NewKafkaForwarder(w MessageWriter) *KafkaForwarder {
	return &KafkaForwarder{
		writer:  w,
		timeout: 5 * time.Second,
		now:     time.Now,
	}
}

// Register subscribes the forwarder to every event type on the bus
func (f *KafkaForwarder) Register(bus *Bus) {
	bus.SubscribeAll(f.Handle)
}

// Handle serialises one event and writes it keyed by its partition key
func (f *KafkaForwarder) Handle(ctx context.Context, event Event) {
	msg, err := f.message(event)
	if err != nil {
		log.WithError(err).WithField("eventType", event.Type()).Error("Failed to encode event for kafka")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	if err := f.writer.WriteMessages(ctx, msg); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"eventType": event.Type(),
			"key":       event.PartitionKey(),
		}).Error("Failed to forward event to kafka")
		return
	}

	log.WithField("eventType", event.Type()).Debug("Forwarded event to kafka")
}

func (f *KafkaForwarder) message(event Event) (kafka.Message, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, err
	}

	now := f.now().UTC()
	value, err := json.Marshal(Envelope{
		Type:       event.Type(),
		OccurredAt: now,
		Payload:    payload,
	})
	if err != nil {
		return kafka.Message{}, err
	}

	return kafka.Message{
		Key:   []byte(event.PartitionKey()),
		Value: value,
		Time:  now,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(event.Type())},
		},
	}, nil
}

// Close closes the underlying writer
func (f *KafkaForwarder) Close() error {
	return f.writer.Close()
}
