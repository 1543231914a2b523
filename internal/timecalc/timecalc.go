package timecalc

import (
	"fmt"
	"time"
)

// Ledger timestamps are naive local times. Sub-second precision is written
// only when the microsecond part is non-zero.
const (
	isoLayout      = "2006-01-02T15:04:05"
	isoMicroLayout = "2006-01-02T15:04:05.000000"
	isoParseLayout = "2006-01-02T15:04:05.999999999"
)

// Truncate drops everything below microsecond precision, which is all the
// ledger can represent.
func Truncate(t time.Time) time.Time {
	return t.Truncate(time.Microsecond)
}

// FormatISO renders t as a ledger timestamp like "2024-01-01T08:00:00" or
// "2024-01-01T08:00:00.250000". No zone offset is written.
func FormatISO(t time.Time) string {
	if t.Nanosecond()/1000 == 0 {
		return t.Format(isoLayout)
	}
	return t.Format(isoMicroLayout)
}

// ParseISO parses a ledger timestamp in the given location. A nil location
// means time.Local.
func ParseISO(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(isoParseLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("cannot parse timestamp %q: %w", s, err)
	}
	return Truncate(t), nil
}

// FormatDuration formats seconds as a human-readable string like "1h 40m" or "45m" or "30s".
func FormatDuration(seconds int64) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	if m > 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%ds", s)
}

// FormatDurationHHMMSS formats seconds as HH:MM:SS.
func FormatDurationHHMMSS(seconds int64) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// WeekRange returns the Monday and Sunday of the ISO week containing t.
func WeekRange(t time.Time) (time.Time, time.Time) {
	// Go's weekday: Sunday=0, Monday=1, ..., Saturday=6
	wd := int(t.Weekday())
	if wd == 0 {
		wd = 7 // treat Sunday as 7 (ISO)
	}
	monday := t.AddDate(0, 0, -(wd - 1))
	monday = time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, t.Location())
	sunday := monday.AddDate(0, 0, 6)
	sunday = time.Date(sunday.Year(), sunday.Month(), sunday.Day(), 23, 59, 59, 0, t.Location())
	return monday, sunday
}

// ISOWeekLabel returns a label like "2026-W09".
func ISOWeekLabel(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// MondayIndex returns the weekday with Monday=0 ... Sunday=6.
func MondayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// StartOfDay returns 00:00:00 of the same day.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last instant of the same day.
func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}

// SameDay reports whether two times fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// ParseDayClock combines a YYYYMMDD date and an HHMM clock time into a
// local timestamp.
func ParseDayClock(date, clock string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation("20060102 1504", date+" "+clock, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q or time %q (want YYYYMMDD and HHMM): %w", date, clock, err)
	}
	return t, nil
}
