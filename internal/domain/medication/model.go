package medication

import (
	"time"

	"github.com/google/uuid"
)

// DateLayout and ClockLayout are the wire formats for dose-log dates and
// slot times. They match what the mobile clients have historically stored.
const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

// Medication maps to the medication table. One row per registered medication,
// owned by exactly one patient account. The dose log is stored denormalized
// as JSONB: entries are append-only and the full history travels with the
// row, so every computation works on an already-materialized snapshot.
type Medication struct {
	ID               uuid.UUID   `db:"id" json:"id"`
	OwnerID          uuid.UUID   `db:"owner_id" json:"owner_id"`
	Name             string      `db:"name" json:"name"`
	Form             string      `db:"form" json:"form,omitempty"`
	DosesPerDay      int         `db:"doses_per_day" json:"doses_per_day"`
	FirstDoseTime    string      `db:"first_dose_time" json:"first_dose_time,omitempty"`
	Condition        string      `db:"condition" json:"condition,omitempty"`
	InitialStock     int         `db:"initial_stock" json:"initial_stock"`
	CurrentStock     int         `db:"current_stock" json:"current_stock"`
	TreatmentDays    int         `db:"treatment_days" json:"treatment_days"`
	IsChronic        bool        `db:"is_chronic" json:"is_chronic"`
	ExpiryDate       string      `db:"expiry_date" json:"expiry_date,omitempty"`
	Color            string      `db:"color" json:"color,omitempty"`
	Details          string      `db:"details" json:"details,omitempty"`
	AlarmsActive     bool        `db:"alarms_active" json:"alarms_active"`
	Active           bool        `db:"active" json:"active"`
	CalendarEventIDs []string    `db:"calendar_event_ids" json:"calendar_event_ids,omitempty"`
	DoseLog          []DoseEntry `db:"dose_log" json:"dose_log"`
	CreatedAt        time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time   `db:"updated_at" json:"updated_at"`
}

// DoseEntry is one confirmed dose. Date is "2006-01-02", Hour is "15:04".
// Kind is empty for scheduled doses and "occasional" for as-needed intake
// recorded through a manual stock decrement.
type DoseEntry struct {
	Date      string    `json:"date"`
	Hour      string    `json:"hour"`
	Taken     bool      `json:"taken"`
	Kind      string    `json:"kind,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// KindOccasional marks dose-log entries created by ConsumeOccasionalUnit.
const KindOccasional = "occasional"

// IsOccasional reports whether the medication is taken as-needed rather than
// on a fixed schedule. Occasional medications have no dose slots and are
// excluded from adherence.
func (m *Medication) IsOccasional() bool {
	return m.DosesPerDay == 0
}

// TakenAt reports whether the dose log holds a taken entry for the given day
// and slot time.
func (m *Medication) TakenAt(day time.Time, hour string) bool {
	date := day.Format(DateLayout)
	for _, e := range m.DoseLog {
		if e.Taken && e.Date == date && e.Hour == hour {
			return true
		}
	}
	return false
}

// StockPercent returns the remaining stock as a 0–100 percentage of the
// initial stock. Used by clients for the depletion bar.
func (m *Medication) StockPercent() int {
	if m.InitialStock <= 0 {
		return 0
	}
	pct := m.CurrentStock * 100 / m.InitialStock
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
