package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/dosetrack/dosetrack/internal/domain/medication"
)

func newTestClient(topic string, buffer int) *Client {
	return &Client{
		ID:    uuid.New().String(),
		Topic: topic,
		Send:  make(chan []byte, buffer),
	}
}

func TestHubRegisterUnregister(t *testing.T) {
	hub := NewHub()
	topic := MedicationsTopic(uuid.New())

	a := newTestClient(topic, 1)
	b := newTestClient(topic, 1)
	hub.Register(a)
	hub.Register(b)

	if got := hub.TopicCount(topic); got != 2 {
		t.Fatalf("expected 2 clients, got %d", got)
	}

	hub.Unregister(a)
	if got := hub.TopicCount(topic); got != 1 {
		t.Errorf("expected 1 client after unregister, got %d", got)
	}
	if _, open := <-a.Send; open {
		t.Error("send channel should be closed after unregister")
	}

	// Unregistering twice must not panic or close the channel again.
	hub.Unregister(a)
	hub.Unregister(b)
	if got := hub.TopicCount(topic); got != 0 {
		t.Errorf("expected empty topic, got %d", got)
	}
}

func TestHubBroadcast(t *testing.T) {
	hub := NewHub()
	ownerID := uuid.New()
	topic := MedicationsTopic(ownerID)

	subscriber := newTestClient(topic, 4)
	other := newTestClient(MedicationsTopic(uuid.New()), 4)
	hub.Register(subscriber)
	hub.Register(other)

	hub.Broadcast(topic, Event{Type: "medications.updated", Topic: topic, Timestamp: time.Now()})

	select {
	case raw := <-subscriber.Send:
		var evt Event
		if err := json.Unmarshal(raw, &evt); err != nil {
			t.Fatalf("decode event: %v", err)
		}
		if evt.Type != "medications.updated" || evt.Topic != topic {
			t.Errorf("unexpected event: %+v", evt)
		}
	default:
		t.Fatal("subscriber should have received the event")
	}

	select {
	case <-other.Send:
		t.Error("client on another topic should not receive the event")
	default:
	}
}

func TestHubBroadcast_SkipsFullBuffer(t *testing.T) {
	hub := NewHub()
	topic := MedicationsTopic(uuid.New())

	slow := newTestClient(topic, 1)
	hub.Register(slow)

	hub.Broadcast(topic, Event{Type: "first"})
	hub.Broadcast(topic, Event{Type: "second"}) // buffer full, dropped

	if got := len(slow.Send); got != 1 {
		t.Errorf("expected 1 buffered message, got %d", got)
	}
}

func TestListPublisher(t *testing.T) {
	hub := NewHub()
	ownerID := uuid.New()
	client := newTestClient(MedicationsTopic(ownerID), 4)
	hub.Register(client)

	meds := []*medication.Medication{
		{ID: uuid.New(), OwnerID: ownerID, Name: "Amoxicillin", CurrentStock: 12},
	}
	NewListPublisher(hub).PublishMedications(ownerID, meds)

	select {
	case raw := <-client.Send:
		var evt Event
		if err := json.Unmarshal(raw, &evt); err != nil {
			t.Fatalf("decode event: %v", err)
		}
		if evt.Type != "medications.updated" {
			t.Errorf("unexpected event type %q", evt.Type)
		}
		var got []*medication.Medication
		if err := json.Unmarshal(evt.Data, &got); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		if len(got) != 1 || got[0].Name != "Amoxicillin" {
			t.Errorf("unexpected payload: %+v", got)
		}
	default:
		t.Fatal("expected a published event")
	}
}
