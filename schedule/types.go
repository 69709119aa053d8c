// Package schedule holds the shift and contract records shared by the
// compliance, payroll and leave packages.
package schedule

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/warp/labor-engine/generic"
	"github.com/warp/labor-engine/guard"
)

// =============================================================================
// SHIFT
// =============================================================================

type Status string

const (
	StatusPlanned   Status = "planned"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusAbsent    Status = "absent"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPlanned, StatusCompleted, StatusCancelled, StatusAbsent:
		return true
	}
	return false
}

// Active reports whether a shift in this status counts toward rest, hours and
// overlap rules.
func (s Status) Active() bool {
	return s == StatusPlanned || s == StatusCompleted || s == ""
}

// Shift is one scheduled or completed work period. Start and End are
// wall-clock "HH:MM" values; an End at or before Start crosses midnight.
type Shift struct {
	ID           generic.ShiftID    `json:"id"`
	ContractID   generic.ContractID `json:"contract_id"`
	EmployeeID   generic.EmployeeID `json:"employee_id"`
	Date         generic.Date       `json:"date"`
	Start        string             `json:"start"`
	End          string             `json:"end"`
	BreakMinutes int                `json:"break_minutes"`
	NightAction  bool               `json:"night_action"`
	Status       Status             `json:"status"`

	// Guard is set for 24-hour guard shifts only.
	Guard *guard.Plan `json:"guard,omitempty"`
}

// Timing is a shift whose wall-clock values have been parsed and checked.
type Timing struct {
	Shift    Shift
	Start    generic.Clock
	End      generic.Clock
	Interval generic.Interval
}

// Parse checks the shift invariants and resolves its absolute interval.
// Guard shifts take their boundaries from the guard plan.
func (s Shift) Parse() (Timing, error) {
	if s.Date.IsZero() {
		return Timing{}, fmt.Errorf("%w: shift %s has no date", generic.ErrMalformedInput, s.ID)
	}
	if s.Status != "" && !s.Status.Valid() {
		return Timing{}, fmt.Errorf("%w: shift %s status %q", generic.ErrMalformedInput, s.ID, s.Status)
	}

	if s.Guard != nil {
		if s.Guard.Len() < 2 {
			return Timing{}, fmt.Errorf("%w: shift %s: %v", generic.ErrInvalidShift, s.ID, guard.ErrTooFewSegments)
		}
		start := s.Guard.Start()
		return Timing{Shift: s, Start: start, End: start, Interval: generic.ShiftInterval(s.Date, start, start)}, nil
	}

	start, err := generic.ParseClock(s.Start)
	if err != nil {
		return Timing{}, err
	}
	end, err := generic.ParseClock(s.End)
	if err != nil {
		return Timing{}, err
	}
	span := generic.SpanMinutes(start, end)
	if s.BreakMinutes < 0 || s.BreakMinutes >= span {
		return Timing{}, fmt.Errorf("%w: shift %s break %d for a %d minute span", generic.ErrInvalidShift, s.ID, s.BreakMinutes, span)
	}
	return Timing{Shift: s, Start: start, End: end, Interval: generic.ShiftInterval(s.Date, start, end)}, nil
}

// EffectiveMinutes is the paid working time: span less break, or the effective
// segments of a guard shift.
func (t Timing) EffectiveMinutes() int {
	if t.Shift.Guard != nil {
		return t.Shift.Guard.EffectiveMinutes()
	}
	return generic.ShiftDurationMinutes(t.Start, t.End, t.Shift.BreakMinutes)
}

// IsGuard reports whether this is a segmented 24-hour guard shift.
func (t Timing) IsGuard() bool { return t.Shift.Guard != nil }

// ParseAll parses shifts, skipping inactive ones and the shift with skipID.
// Siblings that cannot be parsed make the whole call fail.
func ParseAll(shifts []Shift, employee generic.EmployeeID, skipID generic.ShiftID) ([]Timing, error) {
	out := make([]Timing, 0, len(shifts))
	for _, s := range shifts {
		if !s.Status.Active() {
			continue
		}
		if employee != "" && s.EmployeeID != "" && s.EmployeeID != employee {
			continue
		}
		if skipID != "" && s.ID == skipID {
			continue
		}
		t, err := s.Parse()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// Chronological sorts timings by start instant, ties broken by shift ID.
func Chronological(ts []Timing) {
	sort.SliceStable(ts, func(i, j int) bool {
		a, b := ts[i], ts[j]
		if !a.Interval.Start.Equal(b.Interval.Start) {
			return a.Interval.Start.Before(b.Interval.Start)
		}
		return a.Shift.ID < b.Shift.ID
	})
}

// =============================================================================
// CONTRACT
// =============================================================================

type ContractType string

const (
	ContractPermanent ContractType = "cdi"
	ContractFixedTerm ContractType = "cdd"
)

// Contract binds an employee to an employer at an hourly rate.
type Contract struct {
	ID          generic.ContractID `json:"id"`
	EmployeeID  generic.EmployeeID `json:"employee_id"`
	EmployerID  generic.EmployerID `json:"employer_id"`
	WeeklyHours decimal.Decimal    `json:"weekly_hours"`
	HourlyRate  decimal.Decimal    `json:"hourly_rate"`
	Type        ContractType       `json:"type"`
	StartDate   generic.Date       `json:"start_date"`

	// WithholdingRate is the income-tax withholding fraction (0.075 = 7.5%).
	WithholdingRate *decimal.Decimal `json:"withholding_rate,omitempty"`
}

// Validate checks the figures the pay and leave engines depend on.
func (c Contract) Validate() error {
	if !c.HourlyRate.IsPositive() {
		return fmt.Errorf("%w: hourly rate must be positive", generic.ErrInvalidContract)
	}
	if c.WeeklyHours.IsNegative() {
		return fmt.Errorf("%w: weekly hours must not be negative", generic.ErrInvalidContract)
	}
	if c.StartDate.IsZero() {
		return fmt.Errorf("%w: missing start date", generic.ErrInvalidContract)
	}
	if c.WithholdingRate != nil && (c.WithholdingRate.IsNegative() || c.WithholdingRate.GreaterThan(decimal.NewFromInt(1))) {
		return fmt.Errorf("%w: withholding rate must be within [0, 1]", generic.ErrInvalidContract)
	}
	return nil
}
