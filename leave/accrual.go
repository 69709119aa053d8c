package leave

import (
	"github.com/shopspring/decimal"
	"github.com/warp/labor-engine/generic"
	"github.com/warp/labor-engine/schedule"
)

// =============================================================================
// ACCRUAL
// =============================================================================

const (
	// WorkingDaysPerMonth of service count as one month.
	WorkingDaysPerMonth = 24
	// AnnualCapDays is the most a leave year can earn.
	AnnualCapDays = 30
)

// DaysPerMonth earned per month of service.
var DaysPerMonth = decimal.RequireFromString("2.5")

// AcquiredDays returns the leave earned under contract between the start of
// the leave year and asOf, both inclusive. Service before the contract start
// does not count, nor does anything after the end of the leave year.
func AcquiredDays(contract schedule.Contract, leaveYearStart, asOf generic.Date) decimal.Decimal {
	from := leaveYearStart
	if !contract.StartDate.IsZero() {
		from = generic.MaxDate(contract.StartDate, leaveYearStart)
	}
	to := generic.MinDate(asOf, generic.LeaveYearOf(leaveYearStart).End)
	if to.Before(from) {
		return decimal.Zero
	}

	workingDays := generic.WorkingDaysBetween(from, to, nil)
	return AccrualFromMonths(workingDays / WorkingDaysPerMonth)
}

// AccrualFromMonths converts whole months of service into leave days, used to
// back-fill history kept outside the system.
func AccrualFromMonths(months int) decimal.Decimal {
	if months <= 0 {
		return decimal.Zero
	}
	days := DaysPerMonth.Mul(decimal.NewFromInt(int64(months)))
	days = generic.MinDecimal(days, decimal.NewFromInt(AnnualCapDays))
	return days.Ceil()
}

// Refresh recomputes the acquired days of b as of asOf. Manually seeded
// balances are left alone, and acquired days never go down.
func Refresh(b Balance, contract schedule.Contract, asOf generic.Date) Balance {
	if b.ManuallySeeded {
		return b
	}
	acquired := AcquiredDays(contract, b.Period().Start, asOf)
	b.Acquired = generic.MaxDecimal(b.Acquired, acquired)
	return b
}

// =============================================================================
// FRACTIONNEMENT
// =============================================================================

// FractionationBonus returns the bonus days earned for vacation taken outside
// the main leave period.
func FractionationBonus(daysOutsideMainPeriod int) int {
	switch {
	case daysOutsideMainPeriod >= 6:
		return 2
	case daysOutsideMainPeriod >= 3:
		return 1
	default:
		return 0
	}
}

// DaysOutsideMainPeriod counts the working days of period falling outside
// May 1 - October 31.
func DaysOutsideMainPeriod(period generic.Period, calendar generic.HolidayCalendar) int {
	n := 0
	for _, d := range period.Days() {
		if generic.InMainLeavePeriod(d) {
			continue
		}
		n += generic.WorkingDaysBetween(d, d, calendar)
	}
	return n
}

// EarnedFractionationBonus is the bonus earned so far in a leave year by the
// approved vacations of contract starting in it.
func EarnedFractionationBonus(absences []Absence, contract generic.ContractID, leaveYear int, calendar generic.HolidayCalendar) int {
	period := generic.LeaveYear(leaveYear)
	outside := 0
	for _, a := range absences {
		if a.Type != TypeVacation || a.Status != StatusApproved || a.ContractID != contract {
			continue
		}
		if !period.Contains(a.Period.Start) {
			continue
		}
		outside += DaysOutsideMainPeriod(a.Period, calendar)
	}
	return FractionationBonus(outside)
}
