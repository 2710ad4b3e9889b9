package srs

import (
	"fmt"
	"time"
)

// DefaultUTCOffset is the product's reference timezone, UTC+7.
const DefaultUTCOffset = 7 * time.Hour

const dayLayout = "2006-01-02"

// Day is a calendar day in the reference timezone, formatted YYYY-MM-DD.
// Lexical order of Day values is chronological order.
type Day string

// Before reports whether d is an earlier day than other.
func (d Day) Before(other Day) bool { return d < other }

// After reports whether d is a later day than other.
func (d Day) After(other Day) bool { return d > other }

// Clock supplies "now" and maps instants onto calendar days in a single fixed
// reference timezone. Both due-date computation and the due check go through
// it, so day boundaries never depend on the server's local zone.
type Clock struct {
	loc *time.Location
	now func() time.Time
}

// NewClock returns a wall clock whose days are measured at the given UTC offset.
func NewClock(offset time.Duration) *Clock {
	return &Clock{loc: fixedZone(offset), now: time.Now}
}

// NewFixedClock returns a clock frozen at now, for tests and replays.
func NewFixedClock(now time.Time, offset time.Duration) *Clock {
	return &Clock{loc: fixedZone(offset), now: func() time.Time { return now }}
}

// NewClockFunc returns a clock that reads the current instant from now.
func NewClockFunc(now func() time.Time, offset time.Duration) *Clock {
	return &Clock{loc: fixedZone(offset), now: now}
}

func fixedZone(offset time.Duration) *time.Location {
	if offset == 0 {
		return time.UTC
	}
	hours := int(offset / time.Hour)
	minutes := int((offset % time.Hour) / time.Minute)
	name := fmt.Sprintf("UTC%+d", hours)
	if minutes != 0 {
		if minutes < 0 {
			minutes = -minutes
		}
		name = fmt.Sprintf("UTC%+d:%02d", hours, minutes)
	}
	return time.FixedZone(name, int(offset/time.Second))
}

// Now returns the current instant in the reference timezone.
func (c *Clock) Now() time.Time {
	return c.now().In(c.loc)
}

// Location returns the reference timezone.
func (c *Clock) Location() *time.Location {
	return c.loc
}

// Today returns the current calendar day.
func (c *Clock) Today() Day {
	return c.DayOf(c.now())
}

// DayOf returns the calendar day containing t.
func (c *Clock) DayOf(t time.Time) Day {
	return Day(t.In(c.loc).Format(dayLayout))
}

// StartOfDay truncates t to midnight of its calendar day.
func (c *Clock) StartOfDay(t time.Time) time.Time {
	y, m, d := t.In(c.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, c.loc)
}

// IsStartOfDay reports whether t falls exactly on a day boundary. Day-granular
// due dates are stored this way; anything else is an exact instant.
func (c *Clock) IsStartOfDay(t time.Time) bool {
	return c.StartOfDay(t).Equal(t)
}
