// Package adherence computes expected-vs-actual dose metrics over rolling
// windows. Everything here is pure: callers pass an already-materialized
// medication snapshot and an evaluation instant.
package adherence

import (
	"math"
	"time"

	"github.com/dosetrack/dosetrack/internal/domain/medication"
)

// Period selects the rolling window for an adherence computation.
type Period string

const (
	PeriodLifetime Period = "lifetime"
	PeriodMonthly  Period = "monthly"
	PeriodWeekly   Period = "weekly"
	PeriodDaily    Period = "daily"
)

// Report is the outcome of a single-medication adherence computation.
// A zero Report is returned for inactive and occasional medications.
type Report struct {
	Percentage    int `json:"percentage"`
	ExpectedDoses int `json:"expected_doses"`
	ActualDoses   int `json:"actual_doses"`
	DaysInPeriod  int `json:"days_in_period"`
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// windowStart resolves the inclusive start day of the period, never before
// the treatment start.
func windowStart(created, today time.Time, period Period) time.Time {
	switch period {
	case PeriodMonthly:
		start := today.AddDate(0, 0, -30)
		if start.Before(created) {
			return created
		}
		return start
	case PeriodWeekly:
		start := today.AddDate(0, 0, -7)
		if start.Before(created) {
			return created
		}
		return start
	case PeriodDaily:
		return today
	default: // lifetime
		return created
	}
}

// Compute derives the adherence report for one medication over the given
// period, evaluated at now. Days are counted inclusively at day granularity:
// a treatment started 10 days ago spans 11 days. The percentage is capped at
// 100 so duplicate confirmations never over-report.
func Compute(m *medication.Medication, period Period, now time.Time) Report {
	if m == nil || !m.Active || m.IsOccasional() {
		return Report{}
	}

	today := dayOf(now)
	created := dayOf(m.CreatedAt)
	start := windowStart(created, today, period)

	days := int(today.Sub(start).Hours()/24) + 1
	if days < 1 {
		days = 1
	}

	expected := days * m.DosesPerDay
	if expected == 0 {
		return Report{}
	}

	actual := countTakenInWindow(m.DoseLog, start, today)

	pct := math.Round(float64(actual) / float64(expected) * 100)
	if pct > 100 {
		pct = 100
	}

	return Report{
		Percentage:    int(pct),
		ExpectedDoses: expected,
		ActualDoses:   actual,
		DaysInPeriod:  days,
	}
}

// countTakenInWindow counts taken entries dated inside [start, end]
// inclusive. Entries with unparseable dates are skipped, never fatal:
// adherence must survive partially-corrupt history.
func countTakenInWindow(log []medication.DoseEntry, start, end time.Time) int {
	count := 0
	for _, e := range log {
		if !e.Taken {
			continue
		}
		d, err := time.ParseInLocation(medication.DateLayout, e.Date, start.Location())
		if err != nil {
			continue
		}
		if !d.Before(start) && !d.After(end) {
			count++
		}
	}
	return count
}

// Average returns the arithmetic mean percentage over active scheduled
// medications. Occasional and suspended medications are excluded; an empty
// filtered set yields 0.
func Average(meds []*medication.Medication, period Period, now time.Time) int {
	sum, n := 0, 0
	for _, m := range meds {
		if m == nil || !m.Active || m.IsOccasional() {
			continue
		}
		sum += Compute(m, period, now).Percentage
		n++
	}
	if n == 0 {
		return 0
	}
	return int(math.Round(float64(sum) / float64(n)))
}

// TierInfo is the qualitative classification of an adherence percentage.
type TierInfo struct {
	Tier    string `json:"tier"`
	Message string `json:"message"`
}

// Tier maps a percentage to its qualitative band. Boundaries are half-open
// on the lower bound: exactly 90 is excellent, exactly 70 is good, exactly
// 50 is regular.
func Tier(percentage int) TierInfo {
	switch {
	case percentage >= 90:
		return TierInfo{Tier: "excellent", Message: "Excellent adherence"}
	case percentage >= 70:
		return TierInfo{Tier: "good", Message: "Good adherence"}
	case percentage >= 50:
		return TierInfo{Tier: "regular", Message: "Regular adherence"}
	default:
		return TierInfo{Tier: "low", Message: "Low adherence"}
	}
}
