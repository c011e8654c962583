package adherence

import (
	"time"

	"github.com/dosetrack/dosetrack/internal/domain/medication"
)

// DefaultOccasionalWindowDays is the trailing window used when a caller does
// not ask for a specific one.
const DefaultOccasionalWindowDays = 7

// CountOccasionalUses counts informal intakes of an as-needed medication
// within the trailing window [now-days, now], inclusive at day granularity.
// Scheduled medications always yield 0 here; their intake is covered by the
// adherence percentage instead.
func CountOccasionalUses(m *medication.Medication, days int, now time.Time) int {
	if m == nil || !m.IsOccasional() {
		return 0
	}
	if days <= 0 {
		days = DefaultOccasionalWindowDays
	}
	today := dayOf(now)
	start := today.AddDate(0, 0, -days)
	return countTakenInWindow(m.DoseLog, start, today)
}

// DayCount is one bar of the weekly intake histogram.
type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// WeekHistogram returns intake counts for the last seven days, oldest first.
// Unlike the adherence percentage it counts every logged entry, including
// occasional ones, so the history chart reflects all recorded intake.
func WeekHistogram(m *medication.Medication, now time.Time) []DayCount {
	today := dayOf(now)

	out := make([]DayCount, 0, 7)
	byDate := map[string]int{}
	for i := 6; i >= 0; i-- {
		date := today.AddDate(0, 0, -i).Format(medication.DateLayout)
		out = append(out, DayCount{Date: date})
		byDate[date] = len(out) - 1
	}

	if m == nil {
		return out
	}
	for _, e := range m.DoseLog {
		if idx, ok := byDate[e.Date]; ok && e.Taken {
			out[idx].Count++
		}
	}
	return out
}
