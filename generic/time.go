package generic

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// DATE - Calendar day (UTC midnight)
// =============================================================================

const dateLayout = "2006-01-02"

// Date is a calendar day. Shifts are anchored on a Date and their wall-clock
// times are expressed as Clock values relative to it.
type Date struct {
	Time time.Time
}

// NewDate builds a Date at UTC midnight.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day (in t's own location).
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate parses "YYYY-MM-DD".
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: date %q", ErrMalformedInput, s)
	}
	return Date{Time: t}, nil
}

// Comparison
func (d Date) Before(other Date) bool        { return d.Time.Before(other.Time) }
func (d Date) After(other Date) bool         { return d.Time.After(other.Time) }
func (d Date) Equal(other Date) bool         { return d.Time.Equal(other.Time) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.After(other) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.Before(other) }

// Arithmetic
func (d Date) AddDays(n int) Date   { return Date{Time: d.Time.AddDate(0, 0, n)} }
func (d Date) AddMonths(n int) Date { return Date{Time: d.Time.AddDate(0, n, 0)} }
func (d Date) AddYears(n int) Date  { return Date{Time: d.Time.AddDate(n, 0, 0)} }

// Properties
func (d Date) Year() int             { return d.Time.Year() }
func (d Date) Month() time.Month     { return d.Time.Month() }
func (d Date) Day() int              { return d.Time.Day() }
func (d Date) Weekday() time.Weekday { return d.Time.Weekday() }
func (d Date) IsSunday() bool        { return d.Weekday() == time.Sunday }
func (d Date) IsZero() bool          { return d.Time.IsZero() }

// IsWorkingDay reports whether d is a "jour ouvrable" (Monday to Saturday).
func (d Date) IsWorkingDay() bool { return !d.IsSunday() }

// At returns the absolute instant of the given wall-clock time on d.
func (d Date) At(c Clock) time.Time {
	return d.Time.Add(time.Duration(c) * time.Minute)
}

func (d Date) String() string { return d.Time.Format(dateLayout) }

func (d Date) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func MinDate(a, b Date) Date {
	if a.Before(b) {
		return a
	}
	return b
}

func MaxDate(a, b Date) Date {
	if a.After(b) {
		return a
	}
	return b
}

// DaysBetween returns the number of calendar days from -> to.
func DaysBetween(from, to Date) int { return int(to.Time.Sub(from.Time).Hours() / 24) }

// =============================================================================
// CLOCK - Wall-clock time as minute of day
// =============================================================================

// Clock is a wall-clock time stored as minutes since midnight (0..1439).
// Keeping times as integers makes midnight-crossing arithmetic exact.
type Clock int

const (
	MinutesPerDay = 24 * 60

	nightStart Clock = 21 * 60
	nightEnd   Clock = 6 * 60
)

func NewClock(hour, minute int) Clock { return Clock(hour*60 + minute) }

// ParseClock parses "HH:MM" (a trailing ":SS" is accepted and ignored).
func ParseClock(s string) (Clock, error) {
	var h, m int
	layout := "15:04"
	if len(s) == len("15:04:05") {
		layout = "15:04:05"
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return 0, fmt.Errorf("%w: time %q", ErrMalformedInput, s)
	}
	h, m = t.Hour(), t.Minute()
	return NewClock(h, m), nil
}

// ClockOf returns the wall-clock time of t.
func ClockOf(t time.Time) Clock { return NewClock(t.Hour(), t.Minute()) }

func (c Clock) Valid() bool   { return c >= 0 && c < MinutesPerDay }
func (c Clock) Hour() int     { return int(c) / 60 }
func (c Clock) Minute() int   { return int(c) % 60 }
func (c Clock) String() string { return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute()) }

// Add returns c shifted by n minutes, wrapped to a day.
func (c Clock) Add(minutes int) Clock {
	v := (int(c) + minutes) % MinutesPerDay
	if v < 0 {
		v += MinutesPerDay
	}
	return Clock(v)
}

func (c Clock) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Clock) UnmarshalText(b []byte) error {
	parsed, err := ParseClock(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// SpanMinutes is the elapsed wall-clock time from start to end. An end at or
// before start crosses midnight, so equal values denote a full 24h span.
func SpanMinutes(start, end Clock) int {
	if end <= start {
		return int(end) + MinutesPerDay - int(start)
	}
	return int(end - start)
}

// ShiftDurationMinutes returns the effective minutes of a shift: its span less
// the break, never negative.
func ShiftDurationMinutes(start, end Clock, breakMinutes int) int {
	return max(SpanMinutes(start, end)-breakMinutes, 0)
}

// NightMinutes returns how much of [start, end) falls inside the 21:00-06:00
// night window.
func NightMinutes(start, end Clock) int {
	s := int(start)
	e := s + SpanMinutes(start, end)

	// Night windows relative to the shift's own midnight. A span lasts at most
	// 24h so it can touch the previous, current and next night.
	total := 0
	for _, offset := range []int{-MinutesPerDay, 0, MinutesPerDay} {
		ns := int(nightStart) + offset
		ne := int(nightEnd) + MinutesPerDay + offset
		total += overlap(s, e, ns, ne)
	}
	return total
}

// NightHours is NightMinutes expressed in (possibly fractional) hours.
func NightHours(start, end Clock) decimal.Decimal {
	return MinutesToHours(NightMinutes(start, end))
}

// NightHoursOf is the string boundary variant of NightHours. Absent or
// malformed times yield zero rather than an error.
func NightHoursOf(start, end string) decimal.Decimal {
	if start == "" || end == "" {
		return decimal.Zero
	}
	s, err := ParseClock(start)
	if err != nil {
		return decimal.Zero
	}
	e, err := ParseClock(end)
	if err != nil {
		return decimal.Zero
	}
	return NightHours(s, e)
}

func overlap(aStart, aEnd, bStart, bEnd int) int {
	return max(min(aEnd, bEnd)-max(aStart, bStart), 0)
}

// =============================================================================
// INTERVAL - Absolute span of work
// =============================================================================

// Interval is a half-open span [Start, End) of absolute instants.
type Interval struct {
	Start time.Time
	End   time.Time
}

// ShiftInterval places a wall-clock span on its calendar date, rolling the end
// over to the next day when it does not come after the start.
func ShiftInterval(date Date, start, end Clock) Interval {
	s := date.At(start)
	return Interval{Start: s, End: s.Add(time.Duration(SpanMinutes(start, end)) * time.Minute)}
}

func (i Interval) Minutes() int { return int(i.End.Sub(i.Start) / time.Minute) }

// Overlaps reports a strictly positive intersection.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start.Before(o.End) && o.Start.Before(i.End)
}

// Gap returns the rest between two non-overlapping intervals, in either order.
func (i Interval) Gap(o Interval) time.Duration {
	if !i.End.After(o.Start) {
		return o.Start.Sub(i.End)
	}
	return i.Start.Sub(o.End)
}

// Clip restricts i to [from, to). ok is false when nothing remains.
func (i Interval) Clip(from, to time.Time) (Interval, bool) {
	s, e := i.Start, i.End
	if s.Before(from) {
		s = from
	}
	if e.After(to) {
		e = to
	}
	if !s.Before(e) {
		return Interval{}, false
	}
	return Interval{Start: s, End: e}, true
}

// MinutesOn returns the part of i falling on calendar day d.
func (i Interval) MinutesOn(d Date) int {
	c, ok := i.Clip(d.Time, d.AddDays(1).Time)
	if !ok {
		return 0
	}
	return c.Minutes()
}

// Dates returns every calendar day i touches.
func (i Interval) Dates() []Date {
	var out []Date
	for d := DateOf(i.Start); d.Time.Before(i.End); d = d.AddDays(1) {
		out = append(out, d)
	}
	return out
}

// =============================================================================
// WEEKS & WORKING DAYS
// =============================================================================

// WeekOf returns the Monday-based calendar week containing d.
func WeekOf(d Date) Period {
	offset := (int(d.Weekday()) + 6) % 7
	start := d.AddDays(-offset)
	return Period{Start: start, End: start.AddDays(6)}
}

// WorkingDaysBetween counts Monday-Saturday days in [from, to], skipping
// holidays when a calendar is supplied.
func WorkingDaysBetween(from, to Date, calendar HolidayCalendar) int {
	n := 0
	for d := from; d.BeforeOrEqual(to); d = d.AddDays(1) {
		if !d.IsWorkingDay() {
			continue
		}
		if calendar != nil {
			if _, ok := calendar.HolidayOn(d); ok {
				continue
			}
		}
		n++
	}
	return n
}
