package generic

import "time"

// =============================================================================
// PERIOD - Inclusive range of calendar days
// =============================================================================

// Period is an inclusive range of days [Start, End]. Absences, leave years and
// calendar weeks are all periods.
type Period struct {
	Start Date `json:"start"`
	End   Date `json:"end"`
}

// Valid reports whether the period is well formed (end not before start).
func (p Period) Valid() bool {
	return !p.Start.IsZero() && !p.End.IsZero() && !p.End.Before(p.Start)
}

// Contains returns true if d is within [Start, End].
func (p Period) Contains(d Date) bool {
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End)
}

// ContainsPeriod returns true if o lies entirely inside p.
func (p Period) ContainsPeriod(o Period) bool {
	return p.Contains(o.Start) && p.Contains(o.End)
}

// Overlaps returns true if the two periods share at least one day.
func (p Period) Overlaps(o Period) bool {
	return !p.End.Before(o.Start) && !o.End.Before(p.Start)
}

// Days returns every day of the period.
func (p Period) Days() []Date {
	var days []Date
	for current := p.Start; current.BeforeOrEqual(p.End); current = current.AddDays(1) {
		days = append(days, current)
	}
	return days
}

// Bounds returns the absolute half-open range covered by the period.
func (p Period) Bounds() (time.Time, time.Time) {
	return p.Start.Time, p.End.AddDays(1).Time
}

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// =============================================================================
// PERIOD CONFIG - Which period a date falls into
// =============================================================================

// PeriodConfig cuts the timeline into yearly periods starting on the first
// day of StartMonth.
type PeriodConfig struct {
	StartMonth time.Month
}

// LeaveYearConfig is the paid-leave reference period: June 1 to May 31.
var LeaveYearConfig = PeriodConfig{StartMonth: time.June}

// PeriodFor returns the period that contains the given date.
func (pc PeriodConfig) PeriodFor(date Date) Period {
	start := NewDate(date.Year(), pc.StartMonth, 1)

	// Before this year's start means we're still in the previous period
	if date.Before(start) {
		start = NewDate(date.Year()-1, pc.StartMonth, 1)
	}
	return Period{Start: start, End: start.AddYears(1).AddDays(-1)}
}

// LeaveYear returns the leave year starting on June 1 of startYear.
func LeaveYear(startYear int) Period {
	return LeaveYearConfig.PeriodFor(NewDate(startYear, time.June, 1))
}

// LeaveYearOf returns the leave year containing d.
func LeaveYearOf(d Date) Period { return LeaveYearConfig.PeriodFor(d) }

// MainLeavePeriod is the May 1 - October 31 window of the given year in which
// the main vacation should be taken.
func MainLeavePeriod(year int) Period {
	return Period{Start: NewDate(year, time.May, 1), End: NewDate(year, time.October, 31)}
}

// InMainLeavePeriod reports whether d falls between May 1 and October 31.
func InMainLeavePeriod(d Date) bool {
	return MainLeavePeriod(d.Year()).Contains(d)
}
