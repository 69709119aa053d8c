package compliance

import (
	"github.com/warp/labor-engine/generic"
	"github.com/warp/labor-engine/leave"
	"github.com/warp/labor-engine/schedule"
)

// Input is a candidate shift with the context the rules need.
type Input struct {
	Shift schedule.Shift
	// Siblings are the employee's other shifts. Inactive ones, shifts of other
	// employees and the candidate itself (same ID) are ignored.
	Siblings []schedule.Shift
	// Absences of the employee. Only approved ones are checked.
	Absences []leave.Absence
}

func prepare(in Input) (check, error) {
	shift, err := in.Shift.Parse()
	if err != nil {
		return check{}, err
	}
	siblings, err := schedule.ParseAll(in.Siblings, in.Shift.EmployeeID, in.Shift.ID)
	if err != nil {
		return check{}, err
	}
	schedule.Chronological(siblings)
	return check{shift: shift, siblings: siblings, absences: in.Absences}, nil
}

// Validate runs every rule against the candidate shift. Malformed input
// yields a single VALIDATION_ERROR instead of rule outcomes.
func Validate(in Input) generic.Result {
	c, err := prepare(in)
	if err != nil {
		return generic.Invalid(err)
	}
	return rules.Evaluate(c)
}

// quickRules are the overlap and hard-limit checks.
var quickRules = rules.Only(RuleShiftOverlap, RuleDailyMaxHours, RuleWeeklyMaxHours)

// QuickValidate runs only the overlap and hard-limit checks and returns the
// blocking messages. Warnings are dropped.
func QuickValidate(in Input) (bool, []string) {
	c, err := prepare(in)
	if err != nil {
		r := generic.Invalid(err)
		return false, r.Messages()
	}
	r := quickRules.Evaluate(c)
	return r.Valid, r.Messages()
}

// =============================================================================
// HELP
// =============================================================================

var help = map[generic.RuleID]string{
	RuleDailyRest:       "At least 11 consecutive hours of rest are required between two shifts.",
	RuleWeeklyRest:      "Each calendar week must include an uninterrupted rest of at least 35 hours.",
	RuleMandatoryBreak:  "More than 6 hours of continuous work requires a break of at least 20 minutes.",
	RuleWeeklyMaxHours:  "Weekly working time may not reach 48 hours. A warning is raised from 44 hours.",
	RuleDailyMaxHours:   "Daily working time is capped at 10 hours. A warning is raised when 2 hours or less remain.",
	RuleShiftOverlap:    "An employee cannot work two shifts at the same time.",
	RuleAbsenceConflict: "No shift can be scheduled during an approved absence.",
	generic.RuleInput:   "The shift could not be read. Check its times, break and guard segments.",

	leave.RuleOverlap:     "An absence cannot overlap a pending or approved absence.",
	leave.RuleBalance:     "Vacation requires enough remaining paid leave for the leave year.",
	leave.RuleFamilyCap:   "Family events grant a fixed number of days depending on the event.",
	leave.RuleSickNotice:  "Sick leave cannot be declared more than 30 days in advance.",
	leave.RuleLeavePeriod: "Vacations of 12 days or more should be taken between May 1 and October 31.",
}

// RuleHelp returns the help text of a rule identifier.
func RuleHelp(rule generic.RuleID) (string, bool) {
	text, ok := help[rule]
	return text, ok
}
