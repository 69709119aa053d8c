/*
Package leave computes paid-leave ("congés payés") accrual and validates
absence requests.

LEAVE YEAR:
  Leave accrues over a June 1 - May 31 period. Every 24 working days
  (Monday to Saturday) of service count as one month and earn 2.5 days,
  capped at 30 days per leave year. The result is rounded up, the rounding
  always favors the employee.

BALANCE:
  Remaining = Acquired - Taken + Adjustment

  Remaining is never clamped: a negative value means the employee took more
  than was acquired. Consumers that need a usable amount call
  AvailableForRequest instead.

  The engine never writes a balance. It computes the new target value
  (WithTaken, WithRestored, Refresh) and the persistence layer applies it.

FRACTIONNEMENT:
  Vacation days taken outside the main period (May 1 - October 31) earn
  bonus days: 1 for 3 to 5 days, 2 for 6 days or more.

SEE ALSO:
  - validator.go: the absence request pipeline
  - store/sqlite: atomic taken-days updates
*/
package leave

import (
	"github.com/shopspring/decimal"
	"github.com/warp/labor-engine/generic"
)

// =============================================================================
// BALANCE
// =============================================================================

// Balance is the paid-leave position of a contract for one leave year.
type Balance struct {
	ContractID generic.ContractID `json:"contract_id"`
	// LeaveYear is the calendar year in which the leave year starts.
	LeaveYear      int             `json:"leave_year"`
	Acquired       decimal.Decimal `json:"acquired"`
	Taken          decimal.Decimal `json:"taken"`
	Adjustment     decimal.Decimal `json:"adjustment"`
	ManuallySeeded bool            `json:"manually_seeded"`
}

// NewBalance returns an empty balance.
func NewBalance(contract generic.ContractID, leaveYear int) Balance {
	return Balance{
		ContractID: contract,
		LeaveYear:  leaveYear,
		Acquired:   decimal.Zero,
		Taken:      decimal.Zero,
		Adjustment: decimal.Zero,
	}
}

// Remaining returns acquired - taken + adjustment, negative values included.
func (b Balance) Remaining() decimal.Decimal {
	return b.Acquired.Sub(b.Taken).Add(b.Adjustment)
}

// AvailableForRequest is Remaining floored at zero.
func (b Balance) AvailableForRequest() decimal.Decimal {
	return generic.MaxDecimal(b.Remaining(), decimal.Zero)
}

// Period returns the leave year the balance covers.
func (b Balance) Period() generic.Period {
	return generic.LeaveYear(b.LeaveYear)
}

// TakenDelta is the amount an approved absence adds to Taken.
func TakenDelta(a Absence) decimal.Decimal {
	if !a.ConsumesBalance() {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(a.WorkingDays))
}

// WithTaken returns the balance after days are taken.
func (b Balance) WithTaken(days decimal.Decimal) Balance {
	b.Taken = b.Taken.Add(days)
	return b
}

// WithRestored returns the balance after days are given back. Taken never
// drops below zero.
func (b Balance) WithRestored(days decimal.Decimal) Balance {
	b.Taken = generic.MaxDecimal(b.Taken.Sub(days), decimal.Zero)
	return b
}
