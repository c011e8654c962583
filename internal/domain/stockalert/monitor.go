// Package stockalert derives days-of-stock-remaining and raises de-duplicated
// low-stock alerts. The de-duplication state is owned by the caller and
// passed into every evaluation, so the logic stays pure and testable; the
// state is process-local and alerts may re-fire after a restart.
package stockalert

import (
	"sync"

	"github.com/google/uuid"

	"github.com/dosetrack/dosetrack/internal/domain/medication"
)

// Level identifies one alert threshold.
type Level string

const (
	LevelDepleted  Level = "depleted"
	LevelOneDay    Level = "1-day"
	LevelTwoDays   Level = "2-days"
	LevelThreeDays Level = "3-days"
	LevelSevenDays Level = "7-days"
)

// DefaultThresholdDays is the widest low-stock window.
const DefaultThresholdDays = 7

// Alert is one fired threshold crossing.
type Alert struct {
	MedicationID  uuid.UUID `json:"medication_id"`
	Name          string    `json:"name"`
	Level         Level     `json:"level"`
	DaysRemaining int       `json:"days_remaining"`
}

// State tracks which alert keys have already fired, namespaced by medication
// id. Each threshold fires exactly once per crossing and re-arms when stock
// recovers past it.
type State struct {
	mu    sync.Mutex
	fired map[uuid.UUID]map[Level]struct{}
}

func NewState() *State {
	return &State{fired: make(map[uuid.UUID]map[Level]struct{})}
}

func (s *State) has(id uuid.UUID, lvl Level) bool {
	_, ok := s.fired[id][lvl]
	return ok
}

func (s *State) add(id uuid.UUID, lvl Level) {
	if s.fired[id] == nil {
		s.fired[id] = make(map[Level]struct{})
	}
	s.fired[id][lvl] = struct{}{}
}

func (s *State) clear(id uuid.UUID, levels ...Level) {
	for _, lvl := range levels {
		delete(s.fired[id], lvl)
	}
	if len(s.fired[id]) == 0 {
		delete(s.fired, id)
	}
}

var allLevels = []Level{LevelDepleted, LevelOneDay, LevelTwoDays, LevelThreeDays, LevelSevenDays}

// Prune drops state for medications no longer in the tracked set.
func (s *State) Prune(meds []*medication.Medication) {
	s.mu.Lock()
	defer s.mu.Unlock()
	keep := make(map[uuid.UUID]struct{}, len(meds))
	for _, m := range meds {
		keep[m.ID] = struct{}{}
	}
	for id := range s.fired {
		if _, ok := keep[id]; !ok {
			delete(s.fired, id)
		}
	}
}

// DaysRemaining derives how many full days the current stock lasts at the
// medication's daily dose rate.
func DaysRemaining(m *medication.Medication) int {
	perDay := m.DosesPerDay
	if perDay < 1 {
		perDay = 1
	}
	return m.CurrentStock / perDay
}

// Evaluate runs one alerting tick over the snapshot and returns the alerts
// that newly fired. Suspended medications are skipped. Occasional
// medications have no daily rate, so treatment-window thresholds do not
// apply to them; only depletion is reported.
func Evaluate(state *State, meds []*medication.Medication, thresholdDays int) []Alert {
	if thresholdDays <= 0 {
		thresholdDays = DefaultThresholdDays
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	var out []Alert
	for _, m := range meds {
		if !m.Active {
			continue
		}

		days := DaysRemaining(m)
		fire := func(lvl Level) {
			if state.has(m.ID, lvl) {
				return
			}
			state.add(m.ID, lvl)
			out = append(out, Alert{MedicationID: m.ID, Name: m.Name, Level: lvl, DaysRemaining: days})
		}

		switch {
		case m.CurrentStock <= 0:
			fire(LevelDepleted)

		case m.IsOccasional():
			state.clear(m.ID, allLevels...)

		case m.TreatmentDays > 0 && days < m.TreatmentDays:
			switch {
			case days == 1:
				fire(LevelOneDay)
				state.clear(m.ID, LevelDepleted, LevelTwoDays, LevelThreeDays, LevelSevenDays)
			case days == 2:
				fire(LevelTwoDays)
				state.clear(m.ID, LevelDepleted, LevelThreeDays, LevelSevenDays)
			case days == 3:
				fire(LevelThreeDays)
				state.clear(m.ID, LevelDepleted, LevelSevenDays)
			case days > 3 && days <= thresholdDays:
				fire(LevelSevenDays)
				// Stock recovered past the tighter thresholds, so they re-arm.
				state.clear(m.ID, LevelDepleted, LevelOneDay, LevelTwoDays, LevelThreeDays)
			default:
				state.clear(m.ID, allLevels...)
			}

		default:
			state.clear(m.ID, allLevels...)
		}
	}
	return out
}
