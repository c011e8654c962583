package calendar

import (
	"strings"
	"testing"
	"time"

	"github.com/dosetrack/dosetrack/internal/domain/medication"
)

func planned() *medication.Medication {
	return &medication.Medication{
		Name:          "Amoxicillin",
		Form:          "capsule",
		DosesPerDay:   2,
		FirstDoseTime: "08:30",
		InitialStock:  14,
		CurrentStock:  14,
		TreatmentDays: 7,
		Color:         "#FF0000",
	}
}

func TestBuildDoseEvents(t *testing.T) {
	from := time.Date(2026, 3, 10, 11, 45, 0, 0, time.UTC)
	events := BuildDoseEvents(planned(), from)

	if len(events) != 14 {
		t.Fatalf("expected 7 days x 2 slots = 14 events, got %d", len(events))
	}

	first := events[0]
	wantStart := time.Date(2026, 3, 10, 8, 30, 0, 0, time.UTC)
	if !first.Start.Equal(wantStart) {
		t.Errorf("first event should start at the first slot of the from-day, got %v", first.Start)
	}
	if !first.End.Equal(wantStart.Add(15 * time.Minute)) {
		t.Errorf("unexpected end: %v", first.End)
	}
	if first.Summary != "💊 Amoxicillin" {
		t.Errorf("unexpected summary: %q", first.Summary)
	}
	if first.ColorID != "11" {
		t.Errorf("red should map to Google color 11, got %q", first.ColorID)
	}
	if len(first.Reminders) != 2 || first.Reminders[0] != 15 || first.Reminders[1] != 5 {
		t.Errorf("unexpected reminders: %v", first.Reminders)
	}

	second := events[1]
	if second.Start.Hour() != 20 || second.Start.Minute() != 30 {
		t.Errorf("second slot should be 20:30, got %v", second.Start)
	}

	last := events[len(events)-1]
	if last.Start.Day() != 16 {
		t.Errorf("last event should fall on the 7th day, got %v", last.Start)
	}
}

func TestBuildDoseEvents_Description(t *testing.T) {
	m := planned()
	m.Condition = ""
	events := BuildDoseEvents(m, time.Now())

	if !strings.Contains(events[0].Description, "Stock: 14/14") {
		t.Errorf("description should carry the stock level: %q", events[0].Description)
	}
	if !strings.Contains(events[0].Description, "Condition: N/A") {
		t.Errorf("missing condition should read N/A: %q", events[0].Description)
	}
}

func TestBuildDoseEvents_DefaultHorizon(t *testing.T) {
	m := planned()
	m.TreatmentDays = 0
	m.DosesPerDay = 1

	events := BuildDoseEvents(m, time.Now())
	if len(events) != DefaultHorizonDays {
		t.Errorf("open-ended treatment should plan %d days, got %d", DefaultHorizonDays, len(events))
	}
}

func TestBuildDoseEvents_Occasional(t *testing.T) {
	m := planned()
	m.DosesPerDay = 0
	m.FirstDoseTime = ""

	if events := BuildDoseEvents(m, time.Now()); events != nil {
		t.Errorf("occasional medication should plan nothing, got %d events", len(events))
	}
	if events := BuildDoseEvents(nil, time.Now()); events != nil {
		t.Errorf("nil medication should plan nothing, got %d events", len(events))
	}
}

func TestColorIDFallback(t *testing.T) {
	if got := colorID("#123456"); got != "1" {
		t.Errorf("unknown hex should fall back to color 1, got %q", got)
	}
}
