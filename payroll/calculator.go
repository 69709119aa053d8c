/*
Package payroll prices shifts: base pay plus the majorations of the
household employment agreement.

COMPONENTS:
  BasePay        effective hours x rate
  Night          hours in 21:00-06:00 x rate x 20%
  Sunday         hours on a Sunday x rate x 30%
  Holiday        hours on a public holiday x rate x 60% (100% on May 1)
  Overtime       hours beyond the contract's weekly hours:
                   first 8 hours of the week +25%, beyond +50%
  DayPresence    daytime standby hours of a guard x rate x 2/3
  NightPresence  nighttime standby hours of a guard x rate x 1/6

  Majorations stack additively: a Sunday holiday earns both. Each component
  is rounded to the cent and Total is the sum of the rounded components.

OVERTIME ORDER:
  Overtime depends on the hours already worked in the week. A week's shifts
  are priced in chronological order (ties broken by shift ID) with a running
  counter, so the same shift always gets the same tier.

SEE ALSO:
  - guard: segment layout of 24-hour guard shifts
  - generic/holiday.go: holiday calendar
*/
package payroll

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/labor-engine/generic"
	"github.com/warp/labor-engine/guard"
	"github.com/warp/labor-engine/schedule"
)

// =============================================================================
// RATES
// =============================================================================

// Rates holds the majoration fractions applied on top of the hourly rate.
type Rates struct {
	Night              decimal.Decimal
	Sunday             decimal.Decimal
	HolidayHabitual    decimal.Decimal
	HolidayExceptional decimal.Decimal
	OvertimeFirst      decimal.Decimal
	OvertimeBeyond     decimal.Decimal
	DayPresence        decimal.Decimal
	NightPresence      decimal.Decimal

	// OvertimeFirstTierMinutes is the weekly overtime paid at OvertimeFirst.
	OvertimeFirstTierMinutes int
}

// DefaultRates returns the IDCC 3239 rates.
func DefaultRates() Rates {
	three, six := decimal.NewFromInt(3), decimal.NewFromInt(6)
	return Rates{
		Night:                    generic.Percent(20),
		Sunday:                   generic.Percent(30),
		HolidayHabitual:          generic.Percent(60),
		HolidayExceptional:       generic.Percent(100),
		OvertimeFirst:            generic.Percent(25),
		OvertimeBeyond:           generic.Percent(50),
		DayPresence:              decimal.NewFromInt(2).Div(three),
		NightPresence:            decimal.NewFromInt(1).Div(six),
		OvertimeFirstTierMinutes: 8 * 60,
	}
}

// =============================================================================
// RESULT
// =============================================================================

// Hours is the time breakdown behind a ComputedPay.
type Hours struct {
	Effective          decimal.Decimal `json:"effective"`
	Night              decimal.Decimal `json:"night"`
	Sunday             decimal.Decimal `json:"sunday"`
	Holiday            decimal.Decimal `json:"holiday"`
	OvertimeFirstTier  decimal.Decimal `json:"overtime_first_tier"`
	OvertimeSecondTier decimal.Decimal `json:"overtime_second_tier"`
	DayStandby         decimal.Decimal `json:"day_standby"`
	NightStandby       decimal.Decimal `json:"night_standby"`
}

// ComputedPay is the gross pay of a shift, one field per component.
type ComputedPay struct {
	ShiftID       generic.ShiftID `json:"shift_id,omitempty"`
	BasePay       decimal.Decimal `json:"base_pay"`
	Sunday        decimal.Decimal `json:"sunday_majoration"`
	Holiday       decimal.Decimal `json:"holiday_majoration"`
	Night         decimal.Decimal `json:"night_majoration"`
	Overtime      decimal.Decimal `json:"overtime_majoration"`
	DayPresence   decimal.Decimal `json:"day_presence"`
	NightPresence decimal.Decimal `json:"night_presence"`
	Total         decimal.Decimal `json:"total"`
	Hours         Hours           `json:"hours"`

	// Set only when the contract carries a withholding rate.
	Withholding *decimal.Decimal `json:"withholding,omitempty"`
	Net         *decimal.Decimal `json:"net,omitempty"`
}

func (p *ComputedPay) total() {
	p.Total = p.BasePay.Add(p.Sunday).Add(p.Holiday).Add(p.Night).
		Add(p.Overtime).Add(p.DayPresence).Add(p.NightPresence)
}

func (p *ComputedPay) withhold(rate *decimal.Decimal) {
	if rate == nil {
		return
	}
	w := generic.RoundMoney(p.Total.Mul(*rate))
	net := p.Total.Sub(w)
	p.Withholding, p.Net = &w, &net
}

// =============================================================================
// CALCULATOR
// =============================================================================

// Calculator prices shifts against a holiday calendar.
type Calculator struct {
	Holidays generic.HolidayCalendar
	Rates    Rates
}

// NewCalculator returns a calculator using the default rates.
func NewCalculator(holidays generic.HolidayCalendar) *Calculator {
	if holidays == nil {
		holidays = generic.NoHolidays{}
	}
	return &Calculator{Holidays: holidays, Rates: DefaultRates()}
}

// PriceShift prices shift under contract. Siblings are the employee's other
// shifts; those earlier in the same week feed the overtime counter.
func (c *Calculator) PriceShift(shift schedule.Shift, contract schedule.Contract, siblings []schedule.Shift) (ComputedPay, error) {
	if err := contract.Validate(); err != nil {
		return ComputedPay{}, err
	}
	t, err := parse(shift)
	if err != nil {
		return ComputedPay{}, err
	}
	others, err := schedule.ParseAll(siblings, shift.EmployeeID, shift.ID)
	if err != nil {
		return ComputedPay{}, invalidShift(err)
	}

	week := generic.WeekOf(shift.Date)
	prior := 0
	for _, o := range others {
		if week.Contains(o.Shift.Date) && precedes(o, t) {
			prior += o.EffectiveMinutes()
		}
	}
	return c.price(t, contract, prior), nil
}

// WeekPay is the pay of a set of shifts priced in order.
type WeekPay struct {
	Shifts []ComputedPay `json:"shifts"`
	Total  ComputedPay   `json:"total"`
}

// PriceWeek prices shifts chronologically with a running overtime counter
// per calendar week. Cancelled and absent shifts are skipped.
func (c *Calculator) PriceWeek(shifts []schedule.Shift, contract schedule.Contract) (WeekPay, error) {
	if err := contract.Validate(); err != nil {
		return WeekPay{}, err
	}
	timings, err := schedule.ParseAll(shifts, "", "")
	if err != nil {
		return WeekPay{}, invalidShift(err)
	}
	schedule.Chronological(timings)

	out := WeekPay{Shifts: make([]ComputedPay, 0, len(timings))}
	worked := map[string]int{}
	for _, t := range timings {
		week := generic.WeekOf(t.Shift.Date).String()
		pay := c.price(t, contract, worked[week])
		worked[week] += t.EffectiveMinutes()

		out.Shifts = append(out.Shifts, pay)
		out.Total = sum(out.Total, pay)
	}
	out.Total.total()
	out.Total.withhold(contract.WithholdingRate)
	return out, nil
}

func (c *Calculator) price(t schedule.Timing, contract schedule.Contract, priorMinutes int) ComputedPay {
	var m minutes
	if t.IsGuard() {
		m = c.guardMinutes(t)
	} else {
		m = c.shiftMinutes(t)
	}
	m.overtimeFirst, m.overtimeBeyond = c.overtime(contract, priorMinutes, m.effective)

	r := c.Rates
	rate := contract.HourlyRate
	pay := ComputedPay{
		ShiftID:       t.Shift.ID,
		BasePay:       amount(m.effective, rate, decimal.NewFromInt(1)),
		Night:         amount(m.night, rate, r.Night),
		Sunday:        amount(m.sunday, rate, r.Sunday),
		Holiday:       amount(m.holidayHabitual, rate, r.HolidayHabitual).Add(amount(m.holidayExceptional, rate, r.HolidayExceptional)),
		Overtime:      amount(m.overtimeFirst, rate, r.OvertimeFirst).Add(amount(m.overtimeBeyond, rate, r.OvertimeBeyond)),
		DayPresence:   amount(m.dayStandby, rate, r.DayPresence),
		NightPresence: amount(m.nightStandby, rate, r.NightPresence),
		Hours:         m.hours(),
	}
	pay.BasePay = generic.RoundMoney(pay.BasePay)
	pay.Night = generic.RoundMoney(pay.Night)
	pay.Sunday = generic.RoundMoney(pay.Sunday)
	pay.Holiday = generic.RoundMoney(pay.Holiday)
	pay.Overtime = generic.RoundMoney(pay.Overtime)
	pay.DayPresence = generic.RoundMoney(pay.DayPresence)
	pay.NightPresence = generic.RoundMoney(pay.NightPresence)
	pay.total()
	pay.withhold(contract.WithholdingRate)
	return pay
}

// =============================================================================
// MINUTE BREAKDOWN
// =============================================================================

type minutes struct {
	effective          int
	night              int
	sunday             int
	holidayHabitual    int
	holidayExceptional int
	overtimeFirst      int
	overtimeBeyond     int
	dayStandby         int
	nightStandby       int
}

func (m minutes) hours() Hours {
	return Hours{
		Effective:          generic.MinutesToHours(m.effective),
		Night:              generic.MinutesToHours(m.night),
		Sunday:             generic.MinutesToHours(m.sunday),
		Holiday:            generic.MinutesToHours(m.holidayHabitual + m.holidayExceptional),
		OvertimeFirstTier:  generic.MinutesToHours(m.overtimeFirst),
		OvertimeSecondTier: generic.MinutesToHours(m.overtimeBeyond),
		DayStandby:         generic.MinutesToHours(m.dayStandby),
		NightStandby:       generic.MinutesToHours(m.nightStandby),
	}
}

// work adds a span of effective work. The break is not placed on the
// calendar, so every calendar-bound share is capped at the effective time.
func (c *Calculator) work(m *minutes, iv generic.Interval, start generic.Clock, breakMinutes int) {
	effective := max(iv.Minutes()-breakMinutes, 0)
	m.effective += effective
	m.night += min(generic.NightMinutes(start, start.Add(iv.Minutes())), effective)

	for _, d := range iv.Dates() {
		on := min(iv.MinutesOn(d), effective)
		if d.IsSunday() {
			m.sunday += on
		}
		if h, ok := c.holidayOn(d); ok {
			if h.Kind == generic.HolidayExceptional {
				m.holidayExceptional += on
			} else {
				m.holidayHabitual += on
			}
		}
	}
}

func (c *Calculator) holidayOn(d generic.Date) (generic.Holiday, bool) {
	if c.Holidays == nil {
		return generic.Holiday{}, false
	}
	return c.Holidays.HolidayOn(d)
}

func (c *Calculator) shiftMinutes(t schedule.Timing) minutes {
	var m minutes
	c.work(&m, t.Interval, t.Start, t.Shift.BreakMinutes)
	return m
}

func (c *Calculator) guardMinutes(t schedule.Timing) minutes {
	var m minutes
	for _, p := range t.Shift.Guard.Pieces(t.Shift.Date) {
		switch p.Type {
		case guard.Effective:
			c.work(&m, p.Interval, generic.ClockOf(p.Interval.Start), p.BreakMinutes)
		case guard.DayStandby:
			m.dayStandby += p.Interval.Minutes()
		case guard.NightStandby:
			m.nightStandby += p.Interval.Minutes()
		}
	}
	return m
}

// overtime splits the shift's overtime into the two weekly tiers. A contract
// without weekly hours has no overtime.
func (c *Calculator) overtime(contract schedule.Contract, prior, effective int) (first, beyond int) {
	if !contract.WeeklyHours.IsPositive() {
		return 0, 0
	}
	limit := int(contract.WeeklyHours.Mul(decimal.NewFromInt(60)).IntPart())
	before := max(prior-limit, 0)
	after := max(prior+effective-limit, 0)
	tier := c.Rates.OvertimeFirstTierMinutes

	first = min(after, tier) - min(before, tier)
	beyond = (after - before) - first
	return first, beyond
}

// =============================================================================
// HELPERS
// =============================================================================

// amount is minutes/60 x rate x fraction, unrounded.
func amount(m int, rate, fraction decimal.Decimal) decimal.Decimal {
	if m == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(m)).Mul(rate).Mul(fraction).Div(decimal.NewFromInt(60))
}

func precedes(a, b schedule.Timing) bool {
	if !a.Interval.Start.Equal(b.Interval.Start) {
		return a.Interval.Start.Before(b.Interval.Start)
	}
	return a.Shift.ID < b.Shift.ID
}

func sum(a, b ComputedPay) ComputedPay {
	return ComputedPay{
		BasePay:       a.BasePay.Add(b.BasePay),
		Sunday:        a.Sunday.Add(b.Sunday),
		Holiday:       a.Holiday.Add(b.Holiday),
		Night:         a.Night.Add(b.Night),
		Overtime:      a.Overtime.Add(b.Overtime),
		DayPresence:   a.DayPresence.Add(b.DayPresence),
		NightPresence: a.NightPresence.Add(b.NightPresence),
		Hours: Hours{
			Effective:          a.Hours.Effective.Add(b.Hours.Effective),
			Night:              a.Hours.Night.Add(b.Hours.Night),
			Sunday:             a.Hours.Sunday.Add(b.Hours.Sunday),
			Holiday:            a.Hours.Holiday.Add(b.Hours.Holiday),
			OvertimeFirstTier:  a.Hours.OvertimeFirstTier.Add(b.Hours.OvertimeFirstTier),
			OvertimeSecondTier: a.Hours.OvertimeSecondTier.Add(b.Hours.OvertimeSecondTier),
			DayStandby:         a.Hours.DayStandby.Add(b.Hours.DayStandby),
			NightStandby:       a.Hours.NightStandby.Add(b.Hours.NightStandby),
		},
	}
}

func parse(s schedule.Shift) (schedule.Timing, error) {
	t, err := s.Parse()
	if err != nil {
		return schedule.Timing{}, invalidShift(err)
	}
	return t, nil
}

func invalidShift(err error) error {
	if errors.Is(err, generic.ErrInvalidShift) {
		return err
	}
	return fmt.Errorf("%w: %w", generic.ErrInvalidShift, err)
}
