package leave

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/labor-engine/generic"
)

// =============================================================================
// ABSENCE RULES
// =============================================================================

const (
	RuleOverlap     generic.RuleID = "ABSENCE_OVERLAP"
	RuleBalance     generic.RuleID = "LEAVE_BALANCE"
	RuleFamilyCap   generic.RuleID = "FAMILY_EVENT_CAP"
	RuleSickNotice  generic.RuleID = "SICK_NOTICE"
	RuleLeavePeriod generic.RuleID = "LEAVE_PERIOD"
)

const (
	// SickNoticeDays is how far ahead sick leave may be declared.
	SickNoticeDays = 30
	// LongVacationDays is the length from which the main period advisory applies.
	LongVacationDays = 12
)

const (
	CodeOverlap         generic.Code = "ABSENCE_OVERLAP"
	CodeNoBalance       generic.Code = "NO_LEAVE_BALANCE"
	CodeInsufficient    generic.Code = "INSUFFICIENT_BALANCE"
	CodeFamilyCap       generic.Code = "FAMILY_EVENT_CAP_EXCEEDED"
	CodeSickTooFarAhead generic.Code = "SICK_LEAVE_TOO_FAR_AHEAD"
	CodeOutsideMain     generic.Code = "OUTSIDE_MAIN_PERIOD"
)

// AbsenceInput is everything the absence pipeline looks at.
type AbsenceInput struct {
	Request Request
	// Existing absences of the employee. Only pending and approved ones count.
	Existing []Absence
	// Balance of the leave year the request falls in, nil when none exists.
	Balance *Balance
	// AsOf is the day the request is made. Sick leave cannot be evaluated
	// without it.
	AsOf     generic.Date
	Holidays generic.HolidayCalendar
}

type absenceCheck struct {
	AbsenceInput
	workingDays int
}

// absencePipeline stops at the first blocking issue. The leave-period
// advisory comes last and never blocks.
var absencePipeline = generic.Pipeline[absenceCheck]{
	{ID: RuleOverlap, Check: checkOverlap},
	{ID: RuleBalance, Check: checkBalance},
	{ID: RuleFamilyCap, Check: checkFamilyCap},
	{ID: RuleSickNotice, Check: checkSickNotice},
	{ID: RuleLeavePeriod, Check: checkLeavePeriod},
}

// ValidateAbsence runs the absence pipeline. A request that cannot be
// evaluated yields a single VALIDATION_ERROR.
func ValidateAbsence(in AbsenceInput) generic.Result {
	if err := in.Request.Check(); err != nil {
		return generic.Invalid(err)
	}
	if in.Request.Type == TypeSick && in.AsOf.IsZero() {
		return generic.Invalid(fmt.Errorf("%w: sick leave needs the date it is declared on", generic.ErrMalformedInput))
	}
	return absencePipeline.Run(absenceCheck{
		AbsenceInput: in,
		workingDays:  in.Request.WorkingDays(in.Holidays),
	})
}

func checkOverlap(c absenceCheck) *generic.Issue {
	for _, a := range c.Existing {
		if !a.Status.Blocks() {
			continue
		}
		if c.Request.EmployeeID != "" && a.EmployeeID != "" && a.EmployeeID != c.Request.EmployeeID {
			continue
		}
		if a.Period.Overlaps(c.Request.Period) {
			is := generic.Blocking(RuleOverlap, CodeOverlap,
				fmt.Sprintf("overlaps the %s %s absence %s", a.Status, a.Type, a.Period))
			return &is
		}
	}
	return nil
}

func checkBalance(c absenceCheck) *generic.Issue {
	if c.Request.Type != TypeVacation {
		return nil
	}
	if c.Balance == nil {
		is := generic.Blocking(RuleBalance, CodeNoBalance, "no leave balance for this leave year")
		return &is
	}
	requested := decimal.NewFromInt(int64(c.workingDays))
	pending := pendingVacationDays(c.Existing, c.Request)
	usable := c.Balance.Remaining().Sub(decimal.NewFromInt(int64(pending)))
	if requested.GreaterThan(usable) {
		msg := fmt.Sprintf("requested %d days but only %s remain", c.workingDays, c.Balance.Remaining())
		if pending > 0 {
			msg += fmt.Sprintf(", %d of them held by pending requests", pending)
		}
		is := generic.Blocking(RuleBalance, CodeInsufficient, msg)
		return &is
	}
	return nil
}

// pendingVacationDays sums the working days of pending vacations drawing on
// the same contract and leave year as req. Approved ones are already in Taken.
func pendingVacationDays(existing []Absence, req Request) int {
	year := generic.LeaveYearOf(req.Period.Start).Start
	days := 0
	for _, a := range existing {
		if a.Status != StatusPending || a.Type != TypeVacation {
			continue
		}
		if req.ContractID != "" && a.ContractID != req.ContractID {
			continue
		}
		if !generic.LeaveYearOf(a.Period.Start).Start.Equal(year) {
			continue
		}
		days += a.WorkingDays
	}
	return days
}

func checkFamilyCap(c absenceCheck) *generic.Issue {
	if c.Request.Type != TypeFamilyEvent {
		return nil
	}
	limit, _ := FamilyEventCap(c.Request.FamilyEvent)
	if c.workingDays > limit {
		is := generic.Blocking(RuleFamilyCap, CodeFamilyCap,
			fmt.Sprintf("%s grants %d days, %d requested", c.Request.FamilyEvent, limit, c.workingDays))
		return &is
	}
	return nil
}

func checkSickNotice(c absenceCheck) *generic.Issue {
	if c.Request.Type != TypeSick {
		return nil
	}
	if c.Request.Period.Start.After(c.AsOf.AddDays(SickNoticeDays)) {
		is := generic.Blocking(RuleSickNotice, CodeSickTooFarAhead,
			fmt.Sprintf("sick leave cannot start more than %d days ahead", SickNoticeDays))
		return &is
	}
	return nil
}

func checkLeavePeriod(c absenceCheck) *generic.Issue {
	if c.Request.Type != TypeVacation || c.workingDays < LongVacationDays {
		return nil
	}
	p := c.Request.Period
	if generic.InMainLeavePeriod(p.Start) && generic.InMainLeavePeriod(p.End) && p.Start.Year() == p.End.Year() {
		return nil
	}
	is := generic.Warning(RuleLeavePeriod, CodeOutsideMain,
		fmt.Sprintf("a vacation of %d days should be taken between May 1 and October 31", c.workingDays))
	return &is
}
