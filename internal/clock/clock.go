package clock

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/coder/quartz"
)

// TimeOfDay is a local wall-clock time (hour and minute), used for the
// configured daily triggers.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses a "HH:MM" string.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q: want HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return TimeOfDay{}, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return TimeOfDay{}, fmt.Errorf("invalid minute in %q", s)
	}
	return TimeOfDay{Hour: h, Minute: m}, nil
}

// CronSpec returns the standard five-field cron expression firing daily at
// this time of day.
func (t TimeOfDay) CronSpec() string {
	return fmt.Sprintf("%d %d * * *", t.Minute, t.Hour)
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Calendar supplies current local time and day-boundary arithmetic. It holds
// no mutable state; all operations derive from the injected clock and
// location.
type Calendar struct {
	clock      quartz.Clock
	loc        *time.Location
	shiftStart TimeOfDay
}

func NewCalendar(clk quartz.Clock, loc *time.Location, shiftStart TimeOfDay) *Calendar {
	return &Calendar{clock: clk, loc: loc, shiftStart: shiftStart}
}

// Now returns the current time in the calendar's location.
func (c *Calendar) Now() time.Time {
	return c.clock.Now().In(c.loc)
}

// Location returns the calendar's time zone.
func (c *Calendar) Location() *time.Location {
	return c.loc
}

// DayKey returns the local calendar day of t as a YYYY-MM-DD string.
func (c *Calendar) DayKey(t time.Time) string {
	return t.In(c.loc).Format(time.DateOnly)
}

// Today returns the current local calendar day as a YYYY-MM-DD string.
func (c *Calendar) Today() string {
	return c.DayKey(c.Now())
}

// ParseDay parses a YYYY-MM-DD string into a midnight instant in the
// calendar's location.
func (c *Calendar) ParseDay(s string) (time.Time, error) {
	return time.ParseInLocation(time.DateOnly, s, c.loc)
}

// IsWeekend reports whether t falls on a Saturday or Sunday in the calendar's
// location.
func (c *Calendar) IsWeekend(t time.Time) bool {
	wd := t.In(c.loc).Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// ShiftStartOn returns the configured shift-start instant for the local
// calendar day containing t.
func (c *Calendar) ShiftStartOn(t time.Time) time.Time {
	lt := t.In(c.loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), c.shiftStart.Hour, c.shiftStart.Minute, 0, 0, c.loc)
}

// IsPreShift reports whether t is before the shift start of its own local day.
func (c *Calendar) IsPreShift(t time.Time) bool {
	return t.In(c.loc).Before(c.ShiftStartOn(t))
}
