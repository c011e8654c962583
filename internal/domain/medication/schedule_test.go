package medication

import (
	"testing"
	"time"
)

func scheduled(first string, perDay int) *Medication {
	return &Medication{
		Name:          "Ibuprofen",
		DosesPerDay:   perDay,
		FirstDoseTime: first,
		CurrentStock:  10,
		InitialStock:  10,
		Active:        true,
	}
}

func TestDoseSlotTime_EvenSpacing(t *testing.T) {
	m := scheduled("08:00", 3)
	want := []string{"08:00", "16:00", "00:00"}
	for i, w := range want {
		got, err := DoseSlotTime(m, i+1)
		if err != nil {
			t.Fatalf("slot %d: unexpected error: %v", i+1, err)
		}
		if got != w {
			t.Errorf("slot %d: expected %s, got %s", i+1, w, got)
		}
	}
}

func TestDoseSlotTime_WrapsPastMidnight(t *testing.T) {
	m := scheduled("23:00", 2)
	got, err := DoseSlotTime(m, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "11:00" {
		t.Errorf("expected 11:00, got %s", got)
	}
}

func TestDoseSlotTime_KeepsMinuteOffset(t *testing.T) {
	m := scheduled("08:30", 2)
	got, err := DoseSlotTime(m, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "20:30" {
		t.Errorf("expected 20:30, got %s", got)
	}
}

func TestDoseSlotTime_SlotOutOfRange(t *testing.T) {
	m := scheduled("08:00", 2)
	if _, err := DoseSlotTime(m, 0); err == nil {
		t.Error("expected error for slot 0")
	}
	if _, err := DoseSlotTime(m, 3); err == nil {
		t.Error("expected error for slot beyond doses per day")
	}
}

func TestDoseSlotTime_OccasionalHasNoSlots(t *testing.T) {
	m := scheduled("", 0)
	if _, err := DoseSlotTime(m, 1); err == nil {
		t.Error("expected error for occasional medication")
	}
}

func TestSlotTimes(t *testing.T) {
	m := scheduled("06:00", 4)
	times, err := SlotTimes(m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"06:00", "12:00", "18:00", "00:00"}
	if len(times) != len(want) {
		t.Fatalf("expected %d slots, got %d", len(want), len(times))
	}
	for i := range want {
		if times[i] != want[i] {
			t.Errorf("slot %d: expected %s, got %s", i+1, want[i], times[i])
		}
	}
}

func TestSlotStatusAt_Classification(t *testing.T) {
	m := scheduled("12:00", 1)
	day := func(hour, min int) time.Time {
		return time.Date(2026, 3, 10, hour, min, 0, 0, time.UTC)
	}

	cases := []struct {
		name string
		now  time.Time
		want SlotStatus
	}{
		{"long before", day(9, 0), StatusDueSoon},
		{"31 min before", day(11, 29), StatusDueSoon},
		{"30 min before", day(11, 30), StatusDueNow},
		{"on the minute", day(12, 0), StatusDueNow},
		{"30 min after", day(12, 30), StatusDueNow},
		{"31 min after", day(12, 31), StatusOverdueRecent},
		{"just under 4h after", day(15, 59), StatusOverdueRecent},
		{"exactly 4h after", day(16, 0), StatusOverdue},
		{"late evening", day(23, 0), StatusOverdue},
	}
	for _, tc := range cases {
		got, err := SlotStatusAt(m, 1, tc.now)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
		if got != tc.want {
			t.Errorf("%s: expected %s, got %s", tc.name, tc.want, got)
		}
	}
}

func TestSlotStatusAt_TakenWinsOverTime(t *testing.T) {
	m := scheduled("12:00", 1)
	now := time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC)
	m.DoseLog = []DoseEntry{{Date: "2026-03-10", Hour: "12:00", Taken: true}}

	got, err := SlotStatusAt(m, 1, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != StatusTaken {
		t.Errorf("expected taken, got %s", got)
	}
}

func TestSlotStatusAt_ConfirmationFromAnotherDayIgnored(t *testing.T) {
	m := scheduled("12:00", 1)
	m.DoseLog = []DoseEntry{{Date: "2026-03-09", Hour: "12:00", Taken: true}}
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	got, err := SlotStatusAt(m, 1, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != StatusDueNow {
		t.Errorf("expected due_now, got %s", got)
	}
}

func TestNextPendingSlot(t *testing.T) {
	m := scheduled("08:00", 3)
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	slot, ok := NextPendingSlot(m, now)
	if !ok || slot != 1 {
		t.Errorf("expected slot 1, got %d (ok=%v)", slot, ok)
	}

	m.DoseLog = append(m.DoseLog, DoseEntry{Date: "2026-03-10", Hour: "08:00", Taken: true})
	slot, ok = NextPendingSlot(m, now)
	if !ok || slot != 2 {
		t.Errorf("expected slot 2 after first confirmation, got %d (ok=%v)", slot, ok)
	}
}

func TestNextPendingSlot_AllTaken(t *testing.T) {
	m := scheduled("08:00", 2)
	m.DoseLog = []DoseEntry{
		{Date: "2026-03-10", Hour: "08:00", Taken: true},
		{Date: "2026-03-10", Hour: "20:00", Taken: true},
	}
	now := time.Date(2026, 3, 10, 21, 0, 0, 0, time.UTC)

	if _, ok := NextPendingSlot(m, now); ok {
		t.Error("expected no pending slot when all doses are confirmed")
	}
}

func TestNextPendingSlot_NoStock(t *testing.T) {
	m := scheduled("08:00", 2)
	m.CurrentStock = 0
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	if _, ok := NextPendingSlot(m, now); ok {
		t.Error("expected no pending slot when stock is depleted")
	}
}

func TestNextPendingSlot_Occasional(t *testing.T) {
	m := scheduled("", 0)
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	if _, ok := NextPendingSlot(m, now); ok {
		t.Error("expected no pending slot for occasional medication")
	}
}
