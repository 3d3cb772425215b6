package models

import (
	"time"

	dErrors "bidrag/pkg/domain-errors"
)

// DateLayout is the wire and log format for calendar days.
const DateLayout = "2006-01-02"

// Day returns the calendar day at UTC midnight. All period bounds are days;
// clock time never participates in comparisons.
func Day(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DateOf drops the clock part of t, keeping the calendar day as seen in t's
// location.
func DateOf(t time.Time) time.Time {
	return Day(t.Year(), t.Month(), t.Day())
}

// DayBefore is the last covered day for a cutoff: the cutoff itself is the
// first uncovered day (opphørSisteTilDato).
func DayBefore(t time.Time) time.Time {
	return DateOf(t).AddDate(0, 0, -1)
}

// ParseDate parses a YYYY-MM-DD day from external input.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, dErrors.New(dErrors.CodeInvalidInput, "date must be formatted as YYYY-MM-DD")
	}
	return t, nil
}

// DatePtr returns a pointer to the day of t.
func DatePtr(t time.Time) *time.Time {
	d := DateOf(t)
	return &d
}

// FormatDate renders an optional day; nil renders as "open".
func FormatDate(t *time.Time) string {
	if t == nil {
		return "open"
	}
	return t.Format(DateLayout)
}

// CopyDate returns an independent copy of an optional day.
func CopyDate(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

// SameDate compares optional days; two nils (open ends) are equal.
func SameDate(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

// LatestDate returns the latest of the given days.
func LatestDate(dates ...time.Time) time.Time {
	var latest time.Time
	for i, d := range dates {
		if i == 0 || d.After(latest) {
			latest = d
		}
	}
	return latest
}
