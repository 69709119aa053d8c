/*
Package compliance checks a candidate shift against the rest, break and
working-time limits of the household employment agreement (IDCC 3239).

RULES:
  DAILY_REST        11h between this shift and the adjacent ones      error
  WEEKLY_REST       35h uninterrupted rest within the calendar week   error
  MANDATORY_BREAK   20 min break after 6h of continuous work          warning
  WEEKLY_MAX_HOURS  44h in the week                                   warning
                    48h in the week                                   error
  DAILY_MAX_HOURS   2h or less left under the 10h daily cap           warning
                    nothing left under the cap                        error
  SHIFT_OVERLAP     span intersects another active shift              error
  ABSENCE_CONFLICT  shift date inside an approved absence             error

Every rule runs, whatever the others return. The rule identifiers are a
stable vocabulary: help lookups and stored results key off them.

SEE ALSO:
  - generic/rules.go: RuleSet and Result
  - guard: break derivation for 24-hour guard shifts
*/
package compliance

import (
	"fmt"
	"sort"
	"time"

	"github.com/warp/labor-engine/generic"
	"github.com/warp/labor-engine/leave"
	"github.com/warp/labor-engine/schedule"
)

const (
	RuleDailyRest       generic.RuleID = "DAILY_REST"
	RuleWeeklyRest      generic.RuleID = "WEEKLY_REST"
	RuleMandatoryBreak  generic.RuleID = "MANDATORY_BREAK"
	RuleWeeklyMaxHours  generic.RuleID = "WEEKLY_MAX_HOURS"
	RuleDailyMaxHours   generic.RuleID = "DAILY_MAX_HOURS"
	RuleShiftOverlap    generic.RuleID = "SHIFT_OVERLAP"
	RuleAbsenceConflict generic.RuleID = "ABSENCE_CONFLICT"
)

const (
	CodeDailyRest       generic.Code = "INSUFFICIENT_DAILY_REST"
	CodeWeeklyRest      generic.Code = "INSUFFICIENT_WEEKLY_REST"
	CodeMissingBreak    generic.Code = "MISSING_BREAK"
	CodeWeeklyNearMax   generic.Code = "WEEKLY_HOURS_NEAR_MAX"
	CodeWeeklyOverMax   generic.Code = "WEEKLY_HOURS_EXCEEDED"
	CodeDailyNearMax    generic.Code = "DAILY_HOURS_NEAR_MAX"
	CodeDailyOverMax    generic.Code = "DAILY_HOURS_EXCEEDED"
	CodeOverlap         generic.Code = "SHIFT_OVERLAP"
	CodeAbsenceConflict generic.Code = "ABSENCE_CONFLICT"
)

// Limits, in minutes.
const (
	MinDailyRest       = 11 * 60
	MinWeeklyRest      = 35 * 60
	BreakAfter         = 6 * 60
	MinBreak           = 20
	WeeklyWarnAt       = 44 * 60
	WeeklyMax          = 48 * 60
	DailyMax           = 10 * 60
	DailyWarnRemaining = 2 * 60
)

// check is a candidate shift with its parsed siblings.
type check struct {
	shift    schedule.Timing
	siblings []schedule.Timing
	absences []leave.Absence
}

// all returns the candidate and its siblings.
func (c check) all() []schedule.Timing {
	out := make([]schedule.Timing, 0, len(c.siblings)+1)
	out = append(out, c.shift)
	return append(out, c.siblings...)
}

var rules = generic.RuleSet[check]{
	{ID: RuleDailyRest, Check: checkDailyRest},
	{ID: RuleWeeklyRest, Check: checkWeeklyRest},
	{ID: RuleMandatoryBreak, Check: checkMandatoryBreak},
	{ID: RuleWeeklyMaxHours, Check: checkWeeklyMaxHours},
	{ID: RuleDailyMaxHours, Check: checkDailyMaxHours},
	{ID: RuleShiftOverlap, Check: checkOverlap},
	{ID: RuleAbsenceConflict, Check: checkAbsenceConflict},
}

// =============================================================================
// REST
// =============================================================================

func checkDailyRest(c check) []generic.Issue {
	var before, after *schedule.Timing
	cur := c.shift.Interval
	for i := range c.siblings {
		s := &c.siblings[i]
		if s.Interval.Overlaps(cur) {
			continue
		}
		if !s.Interval.End.After(cur.Start) {
			if before == nil || s.Interval.End.After(before.Interval.End) {
				before = s
			}
		} else if after == nil || s.Interval.Start.Before(after.Interval.Start) {
			after = s
		}
	}

	var issues []generic.Issue
	for _, adj := range []*schedule.Timing{before, after} {
		if adj == nil {
			continue
		}
		gap := cur.Gap(adj.Interval)
		if gap < MinDailyRest*time.Minute {
			issues = append(issues, generic.Blocking(RuleDailyRest, CodeDailyRest,
				fmt.Sprintf("only %s of rest between this shift and the shift of %s (minimum 11h)",
					formatMinutes(int(gap/time.Minute)), adj.Shift.Date)))
		}
	}
	return issues
}

func checkWeeklyRest(c check) []generic.Issue {
	from, to := generic.WeekOf(c.shift.Shift.Date).Bounds()

	var busy []generic.Interval
	for _, t := range c.all() {
		if clipped, ok := t.Interval.Clip(from, to); ok {
			busy = append(busy, clipped)
		}
	}
	sort.Slice(busy, func(i, j int) bool { return busy[i].Start.Before(busy[j].Start) })

	longest := time.Duration(0)
	cursor := from
	for _, b := range busy {
		if gap := b.Start.Sub(cursor); gap > longest {
			longest = gap
		}
		if b.End.After(cursor) {
			cursor = b.End
		}
	}
	if gap := to.Sub(cursor); gap > longest {
		longest = gap
	}

	if longest < MinWeeklyRest*time.Minute {
		return []generic.Issue{generic.Blocking(RuleWeeklyRest, CodeWeeklyRest,
			fmt.Sprintf("longest rest of the week is %s (minimum 35h)", formatMinutes(int(longest/time.Minute))))}
	}
	return nil
}

// =============================================================================
// BREAK
// =============================================================================

func checkMandatoryBreak(c check) []generic.Issue {
	// Guard plans carry the minimum break of every effective segment.
	if c.shift.IsGuard() {
		return nil
	}

	worked := c.shift.EffectiveMinutes()
	if worked > BreakAfter && c.shift.Shift.BreakMinutes < MinBreak {
		return []generic.Issue{generic.Warning(RuleMandatoryBreak, CodeMissingBreak,
			fmt.Sprintf("%s of work without a 20 min break", formatMinutes(worked)))}
	}
	return nil
}

// =============================================================================
// WORKING TIME
// =============================================================================

func checkWeeklyMaxHours(c check) []generic.Issue {
	week := generic.WeekOf(c.shift.Shift.Date)
	total := 0
	for _, t := range c.all() {
		if week.Contains(t.Shift.Date) {
			total += t.EffectiveMinutes()
		}
	}

	switch {
	case total >= WeeklyMax:
		return []generic.Issue{generic.Blocking(RuleWeeklyMaxHours, CodeWeeklyOverMax,
			fmt.Sprintf("%s worked this week (maximum 48h)", formatMinutes(total)))}
	case total >= WeeklyWarnAt:
		return []generic.Issue{generic.Warning(RuleWeeklyMaxHours, CodeWeeklyNearMax,
			fmt.Sprintf("%s worked this week (44h reached)", formatMinutes(total)))}
	}
	return nil
}

func checkDailyMaxHours(c check) []generic.Issue {
	total := 0
	for _, t := range c.all() {
		if t.Shift.Date.Equal(c.shift.Shift.Date) {
			total += t.EffectiveMinutes()
		}
	}

	remaining := DailyMax - total
	switch {
	case remaining <= 0:
		return []generic.Issue{generic.Blocking(RuleDailyMaxHours, CodeDailyOverMax,
			fmt.Sprintf("%s worked on %s (maximum 10h)", formatMinutes(total), c.shift.Shift.Date))}
	case remaining <= DailyWarnRemaining:
		return []generic.Issue{generic.Warning(RuleDailyMaxHours, CodeDailyNearMax,
			fmt.Sprintf("only %s left under the 10h daily limit", formatMinutes(remaining)))}
	}
	return nil
}

// =============================================================================
// CONFLICTS
// =============================================================================

func checkOverlap(c check) []generic.Issue {
	var issues []generic.Issue
	for _, s := range c.siblings {
		if s.Interval.Overlaps(c.shift.Interval) {
			issues = append(issues, generic.Blocking(RuleShiftOverlap, CodeOverlap,
				fmt.Sprintf("overlaps shift %s on %s (%s)", s.Shift.ID, s.Shift.Date, describe(s))))
		}
	}
	return issues
}

func checkAbsenceConflict(c check) []generic.Issue {
	var issues []generic.Issue
	for _, a := range c.absences {
		if a.Status != leave.StatusApproved {
			continue
		}
		if a.EmployeeID != "" && c.shift.Shift.EmployeeID != "" && a.EmployeeID != c.shift.Shift.EmployeeID {
			continue
		}
		if a.Period.Contains(c.shift.Shift.Date) {
			issues = append(issues, generic.Blocking(RuleAbsenceConflict, CodeAbsenceConflict,
				fmt.Sprintf("employee is on approved %s absence %s", a.Type, a.Period)))
		}
	}
	return issues
}

// =============================================================================
// FORMATTING
// =============================================================================

func formatMinutes(m int) string {
	if m%60 == 0 {
		return fmt.Sprintf("%dh", m/60)
	}
	return fmt.Sprintf("%dh%02d", m/60, m%60)
}

func describe(t schedule.Timing) string {
	if t.IsGuard() {
		return "24h guard from " + t.Start.String()
	}
	return t.Start.String() + "-" + t.End.String()
}
