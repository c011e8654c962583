package calendar

import (
	"fmt"
	"time"

	"github.com/dosetrack/dosetrack/internal/domain/medication"
)

// DefaultHorizonDays bounds event creation for medications without a fixed
// treatment length.
const DefaultHorizonDays = 30

// eventDuration is how long each dose event blocks on the calendar.
const eventDuration = 15 * time.Minute

// reminderMinutes are the popup reminder offsets before each dose event.
var reminderMinutes = []int{15, 5}

// Event is a single planned calendar entry for one dose slot on one day.
type Event struct {
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	ColorID     string
	Reminders   []int
}

// colorIDs maps medication display colors to Google Calendar color ids (1-11).
var colorIDs = map[string]string{
	"#FFFFFF": "1",
	"#FFB6C1": "11",
	"#ADD8E6": "9",
	"#F5F5DC": "5",
	"#E6E6FA": "3",
	"#90EE90": "10",
	"#FFFF00": "5",
	"#FFA500": "6",
	"#800080": "3",
	"#00BFFF": "9",
	"#00FF00": "10",
	"#FF0000": "11",
}

func colorID(hex string) string {
	if id, ok := colorIDs[hex]; ok {
		return id
	}
	return "1"
}

// BuildDoseEvents plans one event per day per dose slot, starting on the day
// of from, covering the medication's treatment window (or DefaultHorizonDays
// when no treatment length is set). Occasional medications have no schedule
// and plan nothing.
func BuildDoseEvents(m *medication.Medication, from time.Time) []Event {
	if m == nil || m.IsOccasional() {
		return nil
	}
	slots, err := medication.SlotTimes(m)
	if err != nil || len(slots) == 0 {
		return nil
	}

	days := m.TreatmentDays
	if days <= 0 {
		days = DefaultHorizonDays
	}

	desc := fmt.Sprintf("Dose of %s\nForm: %s\nCondition: %s\nStock: %d/%d",
		m.Name, m.Form, orNA(m.Condition), m.CurrentStock, m.InitialStock)

	events := make([]Event, 0, days*len(slots))
	day := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
	for d := 0; d < days; d++ {
		date := day.AddDate(0, 0, d)
		for _, slot := range slots {
			t, err := time.ParseInLocation(medication.ClockLayout, slot, from.Location())
			if err != nil {
				continue
			}
			start := date.Add(time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute)
			events = append(events, Event{
				Summary:     "💊 " + m.Name,
				Description: desc,
				Start:       start,
				End:         start.Add(eventDuration),
				ColorID:     colorID(m.Color),
				Reminders:   reminderMinutes,
			})
		}
	}
	return events
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
