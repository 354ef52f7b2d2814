package kafka_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	kafkafwd "github.com/PabloGalante/heartdx/internal/adapters/broker/kafka"
	"github.com/PabloGalante/heartdx/internal/app/events"
)

type recordingWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func (w *recordingWriter) messages() []kafka.Message {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]kafka.Message(nil), w.msgs...)
}

func TestAlertForwarder_ForwardsEmergencyAlerts(t *testing.T) {
	w := &recordingWriter{}
	f := kafkafwd.NewAlertForwarderWithWriter(w)
	bus := events.NewBus()
	detach := f.Attach(bus)
	defer detach()

	at := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	bus.Publish(context.Background(), events.Event{
		Name:        events.EmergencyAlert,
		DiagnosisID: "diag-1",
		UserID:      "user-1",
		Label:       "Severe Risk",
		At:          at,
	})
	bus.Publish(context.Background(), events.Event{Name: "something-else", DiagnosisID: "diag-2"})
	bus.Wait()

	msgs := w.messages()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if string(msgs[0].Key) != "diag-1" {
		t.Fatalf("expected key diag-1, got %q", msgs[0].Key)
	}

	var body map[string]any
	if err := json.Unmarshal(msgs[0].Value, &body); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if body["userId"] != "user-1" || body["label"] != "Severe Risk" || body["event"] != events.EmergencyAlert {
		t.Fatalf("unexpected payload %v", body)
	}
}

func TestAlertForwarder_WriteFailureIsSwallowed(t *testing.T) {
	w := &recordingWriter{err: errors.New("broker down")}
	f := kafkafwd.NewAlertForwarderWithWriter(w)

	f.Forward(context.Background(), events.Event{Name: events.EmergencyAlert, DiagnosisID: "d"})

	if len(w.messages()) != 0 {
		t.Fatalf("expected no messages recorded")
	}
	if err := f.Close(); err != nil || !w.closed {
		t.Fatalf("expected writer to be closed")
	}
}
