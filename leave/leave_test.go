package leave_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/labor-engine/generic"
	"github.com/warp/labor-engine/leave"
	"github.com/warp/labor-engine/schedule"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func date(y int, m time.Month, d int) generic.Date {
	return generic.NewDate(y, m, d)
}

func days(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

func contractFrom(start generic.Date) schedule.Contract {
	return schedule.Contract{
		ID:          "c-1",
		EmployeeID:  "emp-1",
		EmployerID:  "er-1",
		WeeklyHours: days(40),
		HourlyRate:  days(10),
		Type:        schedule.ContractPermanent,
		StartDate:   start,
	}
}

func vacation(from, to generic.Date) leave.Request {
	return leave.Request{
		EmployeeID: "emp-1",
		ContractID: "c-1",
		Type:       leave.TypeVacation,
		Period:     generic.Period{Start: from, End: to},
	}
}

func balance(acquired, taken, adjustment int64) *leave.Balance {
	b := leave.NewBalance("c-1", 2025)
	b.Acquired, b.Taken, b.Adjustment = days(acquired), days(taken), days(adjustment)
	return &b
}

// =============================================================================
// ACCRUAL TESTS
// =============================================================================

func TestAcquiredDays_OneMonthAtLeaveYearStart(t *testing.T) {
	// GIVEN: A contract starting on June 1, the first day of the leave year
	// WHEN: 24 working days have elapsed (June 1 - June 28, 2025)
	// THEN: 1 month x 2.5 rounded up = 3 days

	start := date(2025, time.June, 1)
	asOf := date(2025, time.June, 28)
	require.Equal(t, 24, generic.WorkingDaysBetween(start, asOf, nil))

	got := leave.AcquiredDays(contractFrom(start), start, asOf)
	assert.True(t, got.Equal(days(3)), "got %s", got)
}

func TestAcquiredDays_PartialMonthDoesNotCount(t *testing.T) {
	start := date(2025, time.June, 1)
	got := leave.AcquiredDays(contractFrom(start), start, date(2025, time.June, 27))
	assert.True(t, got.IsZero(), "23 working days is less than a month, got %s", got)
}

func TestAcquiredDays_ContractStartedMidYear(t *testing.T) {
	// GIVEN: A contract starting September 1, 2025
	// WHEN: Computing as of September 30
	// THEN: Service before the contract start is ignored (26 working days = 1 month)

	yearStart := date(2025, time.June, 1)
	got := leave.AcquiredDays(contractFrom(date(2025, time.September, 1)), yearStart, date(2025, time.September, 30))
	assert.True(t, got.Equal(days(3)), "got %s", got)
}

func TestAcquiredDays_CappedAtThirty(t *testing.T) {
	yearStart := date(2025, time.June, 1)
	got := leave.AcquiredDays(contractFrom(date(2020, time.January, 1)), yearStart, date(2026, time.May, 31))
	assert.True(t, got.Equal(days(30)), "got %s", got)
}

func TestAcquiredDays_AsOfBeforeStart(t *testing.T) {
	yearStart := date(2025, time.June, 1)
	got := leave.AcquiredDays(contractFrom(date(2025, time.July, 1)), yearStart, date(2025, time.June, 15))
	assert.True(t, got.IsZero())
}

func TestAccrualFromMonths(t *testing.T) {
	tests := []struct {
		months int
		want   int64
	}{
		{0, 0},
		{1, 3},  // 2.5 -> 3
		{2, 5},  // 5.0
		{3, 8},  // 7.5 -> 8
		{12, 30}, // 30.0
		{14, 30}, // capped
	}
	for _, tt := range tests {
		got := leave.AccrualFromMonths(tt.months)
		assert.True(t, got.Equal(days(tt.want)), "%d months: got %s, want %d", tt.months, got, tt.want)
	}
}

func TestRefresh_NeverLowersAcquired(t *testing.T) {
	// GIVEN: A balance already holding 10 acquired days
	// WHEN: Refreshing as of a date that only earns 3
	// THEN: Acquired stays at 10

	start := date(2025, time.June, 1)
	b := *balance(10, 0, 0)
	got := leave.Refresh(b, contractFrom(start), date(2025, time.June, 28))
	assert.True(t, got.Acquired.Equal(days(10)))
}

func TestRefresh_SkipsManuallySeeded(t *testing.T) {
	start := date(2025, time.June, 1)
	b := *balance(1, 0, 0)
	b.ManuallySeeded = true
	got := leave.Refresh(b, contractFrom(start), date(2026, time.May, 31))
	assert.True(t, got.Acquired.Equal(days(1)))
}

func TestFractionationBonus(t *testing.T) {
	assert.Equal(t, 0, leave.FractionationBonus(0))
	assert.Equal(t, 0, leave.FractionationBonus(2))
	assert.Equal(t, 1, leave.FractionationBonus(3))
	assert.Equal(t, 1, leave.FractionationBonus(5))
	assert.Equal(t, 2, leave.FractionationBonus(6))
	assert.Equal(t, 2, leave.FractionationBonus(20))
}

func TestDaysOutsideMainPeriod(t *testing.T) {
	// October 27 - November 8, 2025: Oct 27-31 inside, Nov 1-8 outside.
	// Nov 2 is a Sunday and Nov 1 is a holiday, leaving 6 working days.
	p := generic.Period{Start: date(2025, time.October, 27), End: date(2025, time.November, 8)}
	assert.Equal(t, 7, leave.DaysOutsideMainPeriod(p, nil))
	assert.Equal(t, 6, leave.DaysOutsideMainPeriod(p, generic.NewFrenchCalendar()))
}

func TestEarnedFractionationBonus(t *testing.T) {
	// GIVEN: Approved vacations of Dec 1-5 2025 (5 days) and Feb 2-3 2026 (2 days)
	// THEN: 7 days outside May - October earn 2 bonus days for leave year 2025

	approved := func(id string, from, to generic.Date) leave.Absence {
		return leave.Absence{ID: generic.AbsenceID(id), Request: vacation(from, to), Status: leave.StatusApproved}
	}
	december := approved("abs-1", date(2025, time.December, 1), date(2025, time.December, 5))
	february := approved("abs-2", date(2026, time.February, 2), date(2026, time.February, 3))

	assert.Equal(t, 1, leave.EarnedFractionationBonus([]leave.Absence{december}, "c-1", 2025, nil))
	assert.Equal(t, 2, leave.EarnedFractionationBonus([]leave.Absence{december, february}, "c-1", 2025, nil))

	pending := december
	pending.Status = leave.StatusPending
	otherContract := december
	otherContract.ContractID = "c-2"
	nextYear := approved("abs-3", date(2026, time.December, 7), date(2026, time.December, 11))
	sick := december
	sick.Type = leave.TypeSick

	ignored := []leave.Absence{pending, otherContract, nextYear, sick}
	assert.Equal(t, 0, leave.EarnedFractionationBonus(ignored, "c-1", 2025, nil))
}

// =============================================================================
// BALANCE TESTS
// =============================================================================

func TestBalance_RemainingIsUnclamped(t *testing.T) {
	tests := []struct {
		acquired, taken, adjustment, want int64
	}{
		{25, 10, 0, 15},
		{25, 10, 2, 17},
		{25, 10, -3, 12},
		{5, 8, 0, -3},
		{0, 0, -1, -1},
	}
	for _, tt := range tests {
		b := balance(tt.acquired, tt.taken, tt.adjustment)
		assert.True(t, b.Remaining().Equal(days(tt.want)), "%+v: got %s", tt, b.Remaining())
	}
}

func TestBalance_AvailableForRequestFloorsAtZero(t *testing.T) {
	assert.True(t, balance(5, 8, 0).AvailableForRequest().IsZero())
	assert.True(t, balance(5, 2, 0).AvailableForRequest().Equal(days(3)))
}

func TestBalance_WithTakenAndRestored(t *testing.T) {
	b := *balance(20, 4, 0)

	taken := b.WithTaken(days(5))
	assert.True(t, taken.Taken.Equal(days(9)))
	assert.True(t, b.Taken.Equal(days(4)), "receiver is not modified")

	restored := taken.WithRestored(days(12))
	assert.True(t, restored.Taken.IsZero(), "restore floors at zero")
}

func TestTakenDelta_OnlyVacation(t *testing.T) {
	a := leave.Absence{Request: vacation(date(2025, time.July, 7), date(2025, time.July, 12)), WorkingDays: 6}
	assert.True(t, leave.TakenDelta(a).Equal(days(6)))

	a.Type = leave.TypeSick
	assert.True(t, leave.TakenDelta(a).IsZero())
}

// =============================================================================
// ABSENCE PIPELINE TESTS
// =============================================================================

func TestValidateAbsence_OverlapShortCircuits(t *testing.T) {
	// GIVEN: An approved absence in July and a balance of only 2 days
	// WHEN: Requesting an overlapping 6-day vacation
	// THEN: Exactly one error (overlap) and zero warnings

	existing := []leave.Absence{{
		ID:      "abs-1",
		Request: vacation(date(2025, time.July, 10), date(2025, time.July, 15)),
		Status:  leave.StatusApproved,
	}}
	result := leave.ValidateAbsence(leave.AbsenceInput{
		Request:  vacation(date(2025, time.July, 14), date(2025, time.July, 19)),
		Existing: existing,
		Balance:  balance(2, 0, 0),
		AsOf:     date(2025, time.July, 1),
	})

	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, leave.RuleOverlap, result.Errors[0].Rule)
	assert.Empty(t, result.Warnings)
}

func TestValidateAbsence_CancelledAbsenceDoesNotOverlap(t *testing.T) {
	existing := []leave.Absence{{
		Request: vacation(date(2025, time.July, 10), date(2025, time.July, 15)),
		Status:  leave.StatusCancelled,
	}}
	result := leave.ValidateAbsence(leave.AbsenceInput{
		Request:  vacation(date(2025, time.July, 14), date(2025, time.July, 15)),
		Existing: existing,
		Balance:  balance(10, 0, 0),
	})
	assert.True(t, result.Valid)
}

func TestValidateAbsence_DecemberVacationWarns(t *testing.T) {
	// GIVEN: 20 days available
	// WHEN: Requesting December 1-17, 2025 (15 working days)
	// THEN: Valid, with exactly one warning about May - October

	result := leave.ValidateAbsence(leave.AbsenceInput{
		Request: vacation(date(2025, time.December, 1), date(2025, time.December, 17)),
		Balance: balance(20, 0, 0),
		AsOf:    date(2025, time.November, 1),
	})

	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, leave.RuleLeavePeriod, result.Warnings[0].Rule)
	assert.Contains(t, result.Warnings[0].Message, "May 1 and October 31")
}

func TestValidateAbsence_ShortVacationOutsideMainPeriodNoWarning(t *testing.T) {
	result := leave.ValidateAbsence(leave.AbsenceInput{
		Request: vacation(date(2025, time.December, 1), date(2025, time.December, 5)),
		Balance: balance(20, 0, 0),
	})
	assert.True(t, result.Valid)
	assert.Empty(t, result.Warnings)
}

func TestValidateAbsence_Balance(t *testing.T) {
	req := vacation(date(2025, time.July, 7), date(2025, time.July, 12)) // 6 working days

	missing := leave.ValidateAbsence(leave.AbsenceInput{Request: req})
	require.Len(t, missing.Errors, 1)
	assert.Equal(t, leave.CodeNoBalance, missing.Errors[0].Code)

	short := leave.ValidateAbsence(leave.AbsenceInput{Request: req, Balance: balance(5, 0, 0)})
	require.Len(t, short.Errors, 1)
	assert.Equal(t, leave.CodeInsufficient, short.Errors[0].Code)

	exact := leave.ValidateAbsence(leave.AbsenceInput{Request: req, Balance: balance(8, 2, 0)})
	assert.True(t, exact.Valid)
}

func TestValidateAbsence_PendingVacationsHoldDays(t *testing.T) {
	// GIVEN: 5 acquired days and a pending 5-day vacation in the same leave year
	// WHEN: Requesting another 5-day vacation
	// THEN: The balance rule blocks it; a pending vacation of another leave
	//       year or another contract does not

	pending := leave.Absence{
		ID:          "abs-1",
		Request:     vacation(date(2025, time.July, 7), date(2025, time.July, 11)),
		Status:      leave.StatusPending,
		WorkingDays: 5,
	}
	req := vacation(date(2025, time.August, 4), date(2025, time.August, 8))

	result := leave.ValidateAbsence(leave.AbsenceInput{
		Request:  req,
		Existing: []leave.Absence{pending},
		Balance:  balance(5, 0, 0),
	})
	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, leave.CodeInsufficient, result.Errors[0].Code)
	assert.Contains(t, result.Errors[0].Message, "5 of them held by pending requests")

	nextYear := pending
	nextYear.Period = generic.Period{Start: date(2026, time.July, 6), End: date(2026, time.July, 10)}
	otherContract := pending
	otherContract.ContractID = "c-2"
	approved := pending
	approved.Status = leave.StatusApproved

	for _, a := range []leave.Absence{nextYear, otherContract, approved} {
		result := leave.ValidateAbsence(leave.AbsenceInput{
			Request:  req,
			Existing: []leave.Absence{a},
			Balance:  balance(5, 0, 0),
		})
		assert.True(t, result.Valid, "existing %s %s", a.Status, a.Period)
	}
}

func TestValidateAbsence_FamilyEventCap(t *testing.T) {
	req := leave.Request{
		EmployeeID:  "emp-1",
		Type:        leave.TypeFamilyEvent,
		FamilyEvent: leave.EventMarriage,
		Period:      generic.Period{Start: date(2025, time.July, 7), End: date(2025, time.July, 11)},
	}

	over := leave.ValidateAbsence(leave.AbsenceInput{Request: req})
	require.Len(t, over.Errors, 1)
	assert.Equal(t, leave.RuleFamilyCap, over.Errors[0].Rule)

	req.Period.End = date(2025, time.July, 10)
	assert.True(t, leave.ValidateAbsence(leave.AbsenceInput{Request: req}).Valid)
}

func TestValidateAbsence_SickNotice(t *testing.T) {
	asOf := date(2025, time.March, 1)
	req := leave.Request{
		EmployeeID: "emp-1",
		Type:       leave.TypeSick,
		Period:     generic.Period{Start: asOf.AddDays(31), End: asOf.AddDays(35)},
	}

	tooFar := leave.ValidateAbsence(leave.AbsenceInput{Request: req, AsOf: asOf})
	require.Len(t, tooFar.Errors, 1)
	assert.Equal(t, leave.RuleSickNotice, tooFar.Errors[0].Rule)

	req.Period.Start = asOf.AddDays(30)
	assert.True(t, leave.ValidateAbsence(leave.AbsenceInput{Request: req, AsOf: asOf}).Valid)
}

func TestValidateAbsence_SickWithoutAsOf(t *testing.T) {
	// GIVEN: A sick leave request years ahead
	// WHEN: Validating it without the declaration date
	// THEN: One VALIDATION_ERROR, the notice rule cannot be skipped

	req := leave.Request{
		EmployeeID: "emp-1",
		Type:       leave.TypeSick,
		Period:     generic.Period{Start: date(2030, time.January, 1), End: date(2030, time.January, 3)},
	}

	result := leave.ValidateAbsence(leave.AbsenceInput{Request: req})
	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, generic.CodeValidationError, result.Errors[0].Code)
	assert.Equal(t, generic.RuleInput, result.Errors[0].Rule)

	// Other absence types do not need it
	req.Type = leave.TypeOther
	assert.True(t, leave.ValidateAbsence(leave.AbsenceInput{Request: req}).Valid)
}

func TestValidateAbsence_MalformedRequest(t *testing.T) {
	tests := []struct {
		name string
		req  leave.Request
	}{
		{"end before start", vacation(date(2025, time.July, 10), date(2025, time.July, 1))},
		{"unknown type", leave.Request{Type: "sabbatical", Period: generic.Period{Start: date(2025, time.July, 1), End: date(2025, time.July, 1)}}},
		{"unknown family event", leave.Request{Type: leave.TypeFamilyEvent, FamilyEvent: "graduation", Period: generic.Period{Start: date(2025, time.July, 1), End: date(2025, time.July, 1)}}},
		{"missing dates", leave.Request{Type: leave.TypeOther}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := leave.ValidateAbsence(leave.AbsenceInput{Request: tt.req, Balance: balance(30, 0, 0)})
			assert.False(t, result.Valid)
			require.Len(t, result.Errors, 1)
			assert.Equal(t, generic.CodeValidationError, result.Errors[0].Code)
			assert.Empty(t, result.Warnings)
		})
	}
}

// =============================================================================
// STATUS TRANSITIONS
// =============================================================================

func TestAbsence_Transitions(t *testing.T) {
	now := time.Date(2025, time.July, 1, 9, 0, 0, 0, time.UTC)
	a := leave.Absence{ID: "abs-1", Request: vacation(date(2025, time.July, 7), date(2025, time.July, 8)), Status: leave.StatusPending}

	approved, err := a.Approve(now)
	require.NoError(t, err)
	assert.Equal(t, leave.StatusApproved, approved.Status)

	_, err = approved.Approve(now)
	assert.ErrorIs(t, err, generic.ErrInvalidTransition)

	cancelled, err := approved.Cancel(now)
	require.NoError(t, err)
	assert.Equal(t, leave.StatusCancelled, cancelled.Status)

	_, err = cancelled.Cancel(now)
	assert.ErrorIs(t, err, generic.ErrInvalidTransition)

	rejected, err := a.Reject(now)
	require.NoError(t, err)
	assert.Equal(t, leave.StatusRejected, rejected.Status)
}
