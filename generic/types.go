/*
Package generic provides the shared primitives of the labor-law engine.

PURPOSE:
  Domain-agnostic building blocks used by every rule package: calendar
  dates and minute-of-day clocks, shift intervals, periods and leave years,
  holiday calendars, decimal helpers, and the two rule-evaluation shapes
  (a RuleSet that runs every rule, a Pipeline that stops at the first
  blocking failure).

KEY CONCEPTS:
  - Date / Clock: a shift is a Date plus two Clock values (minutes since
    midnight); an end at or before the start crosses midnight
  - Interval: absolute [start, end) span used for rest and overlap checks
  - Period: inclusive day range (absences, weeks, leave years)
  - Issue / Result: business-rule outcomes returned as data, never as errors

DESIGN PRINCIPLES:
  1. Purity: nothing in this package performs I/O
  2. Precision: money, hours and leave days use decimal.Decimal
  3. Determinism: equal inputs always give identical outputs

SEE ALSO:
  - rules.go: Issue, Result, RuleSet and Pipeline
  - time.go: shift duration and night-hour arithmetic
  - period.go: leave years and the May-October main period
*/
package generic

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EmployeeID string
type EmployerID string
type ContractID string
type ShiftID string
type AbsenceID string

// =============================================================================
// DECIMAL HELPERS
// =============================================================================

var (
	sixty   = decimal.NewFromInt(60)
	hundred = decimal.NewFromInt(100)
)

// MinutesToHours converts whole minutes to decimal hours.
func MinutesToHours(minutes int) decimal.Decimal {
	return decimal.NewFromInt(int64(minutes)).Div(sixty)
}

// Percent returns p/100 as a decimal fraction.
func Percent(p int64) decimal.Decimal {
	return decimal.NewFromInt(p).Div(hundred)
}

// RoundMoney rounds to cents, half away from zero.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// MustParseDecimal parses s or returns zero.
func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// MaxDecimal returns the larger of a and b.
func MaxDecimal(a, b decimal.Decimal) decimal.Decimal {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

// MinDecimal returns the smaller of a and b.
func MinDecimal(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}
