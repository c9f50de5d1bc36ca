package aggregate

import "time"

// GenerationMode controls whether a window summary is produced on a run.
type GenerationMode string

const (
	// ModeAuto generates when the run date falls on the window boundary.
	ModeAuto GenerationMode = "auto"
	// ModeOn always generates.
	ModeOn GenerationMode = "on"
	// ModeOff never generates.
	ModeOff GenerationMode = "off"
)

// Schedule decides which windows a run should generate. The run date is
// injected rather than read from the clock so scheduling stays testable.
type Schedule struct {
	WeekBoundary time.Weekday
	Weekly       GenerationMode
	Monthly      GenerationMode
}

// WindowsDue returns the window kinds due for generation on the given date.
// In auto mode a weekly summary is due when the date falls on the configured
// week-boundary day, a monthly one when it is the last day of its month.
func (s Schedule) WindowsDue(today time.Time) []WindowKind {
	var due []WindowKind

	switch s.Weekly {
	case ModeOn:
		due = append(due, WindowWeek)
	case ModeAuto:
		if today.Weekday() == s.WeekBoundary {
			due = append(due, WindowWeek)
		}
	}

	switch s.Monthly {
	case ModeOn:
		due = append(due, WindowMonth)
	case ModeAuto:
		if isLastDayOfMonth(today) {
			due = append(due, WindowMonth)
		}
	}

	return due
}

func isLastDayOfMonth(t time.Time) bool {
	return t.AddDate(0, 0, 1).Month() != t.Month()
}
