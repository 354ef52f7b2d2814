// Package kafka forwards emergency-alert events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/PabloGalante/heartdx/internal/app/events"
	"github.com/PabloGalante/heartdx/internal/observability"
)

const writeTimeout = 10 * time.Second

// MessageWriter is the part of *kafka.Writer the forwarder uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type AlertForwarder struct {
	writer MessageWriter
}

// NewAlertForwarder writes to topic on brokers. Messages are keyed by
// diagnosis id, so all events for one diagnosis land on one partition.
func NewAlertForwarder(brokers []string, topic string) *AlertForwarder {
	return NewAlertForwarderWithWriter(kafka.NewWriter(kafka.WriterConfig{
		Brokers:  brokers,
		Topic:    topic,
		Balancer: &kafka.Hash{},
	}))
}

func NewAlertForwarderWithWriter(w MessageWriter) *AlertForwarder {
	return &AlertForwarder{writer: w}
}

type alertMessage struct {
	Event       string    `json:"event"`
	DiagnosisID string    `json:"diagnosisId"`
	UserID      string    `json:"userId"`
	Label       string    `json:"label"`
	At          time.Time `json:"at"`
}

// Attach subscribes the forwarder to emergency-alert events on bus.
func (f *AlertForwarder) Attach(bus *events.Bus) (detach func()) {
	return bus.Subscribe(events.EmergencyAlert, f.Forward)
}

// Forward publishes one event. Failures are logged and dropped.
func (f *AlertForwarder) Forward(ctx context.Context, ev events.Event) {
	log := observability.LoggerFromContext(ctx).With(
		"diagnosis_id", string(ev.DiagnosisID),
		"user_id", string(ev.UserID),
	)

	if err := f.write(ctx, ev); err != nil {
		log.Error("forwarding emergency alert failed", "error", err)
		return
	}
	log.Info("emergency alert forwarded")
}

func (f *AlertForwarder) write(ctx context.Context, ev events.Event) error {
	payload, err := json.Marshal(alertMessage{
		Event:       ev.Name,
		DiagnosisID: string(ev.DiagnosisID),
		UserID:      string(ev.UserID),
		Label:       string(ev.Label),
		At:          ev.At,
	})
	if err != nil {
		return fmt.Errorf("encode alert: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	return f.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.DiagnosisID),
		Value: payload,
	})
}

func (f *AlertForwarder) Close() error {
	return f.writer.Close()
}
