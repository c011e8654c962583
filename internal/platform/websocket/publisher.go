package websocket

import (
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/dosetrack/dosetrack/internal/domain/medication"
)

// ListPublisher broadcasts the refreshed medication list for an owner to the
// owner's topic. It satisfies medication.ListPublisher.
type ListPublisher struct {
	hub *Hub
}

func NewListPublisher(hub *Hub) *ListPublisher {
	return &ListPublisher{hub: hub}
}

func (p *ListPublisher) PublishMedications(ownerID uuid.UUID, meds []*medication.Medication) {
	data, err := json.Marshal(meds)
	if err != nil {
		log.Printf("websocket: failed to marshal medications: %v", err)
		return
	}
	topic := MedicationsTopic(ownerID)
	p.hub.Broadcast(topic, Event{
		Type:      "medications.updated",
		Topic:     topic,
		Timestamp: time.Now().UTC(),
		Data:      data,
	})
}
