package aggregate

import (
	"testing"
	"time"
)

func hasKind(due []WindowKind, k WindowKind) bool {
	for _, d := range due {
		if d == k {
			return true
		}
	}
	return false
}

func TestSchedule_AutoWeekly(t *testing.T) {
	s := Schedule{WeekBoundary: time.Friday, Weekly: ModeAuto, Monthly: ModeOff}

	friday := time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC)
	if !hasKind(s.WindowsDue(friday), WindowWeek) {
		t.Error("weekly window should be due on the configured boundary day")
	}

	monday := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	if hasKind(s.WindowsDue(monday), WindowWeek) {
		t.Error("weekly window should not be due on other days")
	}
}

func TestSchedule_AutoMonthly(t *testing.T) {
	s := Schedule{Weekly: ModeOff, Monthly: ModeAuto}

	lastOfMarch := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	if !hasKind(s.WindowsDue(lastOfMarch), WindowMonth) {
		t.Error("monthly window should be due on the last day of the month")
	}

	leapDay := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)
	if !hasKind(s.WindowsDue(leapDay), WindowMonth) {
		t.Error("Feb 29 is the last day of a leap February")
	}

	midMonth := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	if hasKind(s.WindowsDue(midMonth), WindowMonth) {
		t.Error("monthly window should not be due mid-month")
	}
}

func TestSchedule_ForcedModes(t *testing.T) {
	anyDay := time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC)

	on := Schedule{Weekly: ModeOn, Monthly: ModeOn}
	due := on.WindowsDue(anyDay)
	if !hasKind(due, WindowWeek) || !hasKind(due, WindowMonth) {
		t.Errorf("mode on should always generate, got %v", due)
	}

	off := Schedule{Weekly: ModeOff, Monthly: ModeOff}
	if len(off.WindowsDue(anyDay)) != 0 {
		t.Error("mode off should never generate")
	}
}
