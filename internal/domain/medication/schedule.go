package medication

import (
	"fmt"
	"time"
)

// SlotStatus classifies a dose slot relative to a point in time. A slot is
// exactly one of these five states for any instant.
type SlotStatus string

const (
	StatusTaken         SlotStatus = "taken"
	StatusDueSoon       SlotStatus = "due_soon"       // more than 30 min before the slot
	StatusDueNow        SlotStatus = "due_now"        // within 30 min either side
	StatusOverdueRecent SlotStatus = "overdue_recent" // 30 min to 4 h late
	StatusOverdue       SlotStatus = "overdue"        // 4 h late or more
)

const minutesPerDay = 24 * 60

// parseClock converts an "HH:MM" string to minutes since midnight.
func parseClock(s string) (int, error) {
	t, err := time.Parse(ClockLayout, s)
	if err != nil {
		return 0, fmt.Errorf("%w: bad time %q", ErrInvalidInput, s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func formatClock(minutes int) string {
	minutes = ((minutes % minutesPerDay) + minutesPerDay) % minutesPerDay
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// DoseSlotTime returns the scheduled "HH:MM" time of the given 1-indexed
// slot. Slots divide the day evenly starting from the first dose time, so
// slot k falls at firstDoseTime + (k-1)*(1440/n) minutes, wrapping past
// midnight.
func DoseSlotTime(m *Medication, slot int) (string, error) {
	if m.DosesPerDay < 1 {
		return "", fmt.Errorf("%w: medication has no scheduled doses", ErrInvalidInput)
	}
	if slot < 1 || slot > m.DosesPerDay {
		return "", fmt.Errorf("%w: slot %d out of range 1..%d", ErrInvalidInput, slot, m.DosesPerDay)
	}
	first, err := parseClock(m.FirstDoseTime)
	if err != nil {
		return "", err
	}
	interval := minutesPerDay / m.DosesPerDay
	return formatClock(first + (slot-1)*interval), nil
}

// SlotTimes returns the scheduled times of all slots, in slot order.
func SlotTimes(m *Medication) ([]string, error) {
	if m.DosesPerDay < 1 {
		return nil, nil
	}
	out := make([]string, 0, m.DosesPerDay)
	for k := 1; k <= m.DosesPerDay; k++ {
		t, err := DoseSlotTime(m, k)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// SlotStatusAt classifies the given slot at instant now. A slot already
// confirmed today is StatusTaken; otherwise the status depends on how far
// now is from the slot time:
//
//	diff < -30          due_soon
//	-30 <= diff <= 30   due_now
//	30 < diff < 240     overdue_recent
//	diff >= 240         overdue
func SlotStatusAt(m *Medication, slot int, now time.Time) (SlotStatus, error) {
	slotTime, err := DoseSlotTime(m, slot)
	if err != nil {
		return "", err
	}
	if m.TakenAt(now, slotTime) {
		return StatusTaken, nil
	}

	slotMin, _ := parseClock(slotTime)
	diff := now.Hour()*60 + now.Minute() - slotMin

	switch {
	case diff < -30:
		return StatusDueSoon, nil
	case diff <= 30:
		return StatusDueNow, nil
	case diff < 240:
		return StatusOverdueRecent, nil
	default:
		return StatusOverdue, nil
	}
}

// NextPendingSlot returns the first slot without a confirmed dose today, or
// (0, false) when every slot is taken, the medication has no stock left, or
// it is an occasional medication.
func NextPendingSlot(m *Medication, now time.Time) (int, bool) {
	if m.DosesPerDay < 1 || m.CurrentStock <= 0 {
		return 0, false
	}
	for k := 1; k <= m.DosesPerDay; k++ {
		slotTime, err := DoseSlotTime(m, k)
		if err != nil {
			return 0, false
		}
		if !m.TakenAt(now, slotTime) {
			return k, true
		}
	}
	return 0, false
}
