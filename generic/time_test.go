package generic_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/labor-engine/generic"
)

// =============================================================================
// CLOCK & DURATION
// =============================================================================

func TestParseClock(t *testing.T) {
	c, err := generic.ParseClock("07:45")
	require.NoError(t, err)
	assert.Equal(t, generic.NewClock(7, 45), c)
	assert.Equal(t, "07:45", c.String())

	c, err = generic.ParseClock("23:10:59")
	require.NoError(t, err)
	assert.Equal(t, generic.NewClock(23, 10), c)

	for _, bad := range []string{"", "24:00", "7", "ab:cd", "12:60"} {
		_, err := generic.ParseClock(bad)
		assert.ErrorIs(t, err, generic.ErrMalformedInput, bad)
	}
}

func TestShiftDurationMinutes_Property(t *testing.T) {
	// For every start/end pair on a 15 minute grid and a range of breaks,
	// duration == ((end - start) mod 1440) - break, floored at 0.
	for start := 0; start < generic.MinutesPerDay; start += 15 {
		for end := 0; end < generic.MinutesPerDay; end += 15 {
			if end == start {
				continue
			}
			for _, brk := range []int{0, 20, 90, 1500} {
				got := generic.ShiftDurationMinutes(generic.Clock(start), generic.Clock(end), brk)
				span := ((end-start)%generic.MinutesPerDay + generic.MinutesPerDay) % generic.MinutesPerDay
				want := max(span-brk, 0)
				require.Equal(t, want, got, "start=%d end=%d break=%d", start, end, brk)
				require.GreaterOrEqual(t, got, 0)
			}
		}
	}
}

func TestShiftDurationMinutes_EqualBoundsIsFullDay(t *testing.T) {
	assert.Equal(t, generic.MinutesPerDay, generic.ShiftDurationMinutes(generic.NewClock(8, 0), generic.NewClock(8, 0), 0))
}

func TestNightHours(t *testing.T) {
	tests := []struct {
		start, end string
		want       string
	}{
		{"09:00", "17:00", "0"},
		{"20:00", "23:00", "2"},
		{"23:00", "07:00", "7"},
		{"18:00", "08:00", "9"},  // whole night window
		{"02:00", "05:00", "3"},  // after midnight
		{"05:30", "06:30", "0.5"}, // leaves the window
		{"21:00", "21:00", "9"},  // 24h span
		{"", "07:00", "0"},
		{"nope", "07:00", "0"},
	}
	for _, tt := range tests {
		got := generic.NightHoursOf(tt.start, tt.end)
		assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "%s-%s: want %s got %s", tt.start, tt.end, tt.want, got)
	}
}

// =============================================================================
// INTERVALS
// =============================================================================

func TestShiftInterval_CrossesMidnight(t *testing.T) {
	day := generic.NewDate(2025, time.March, 3)
	iv := generic.ShiftInterval(day, generic.NewClock(22, 0), generic.NewClock(6, 0))

	assert.Equal(t, 8*60, iv.Minutes())
	assert.Equal(t, 2*60, iv.MinutesOn(day))
	assert.Equal(t, 6*60, iv.MinutesOn(day.AddDays(1)))
	assert.Len(t, iv.Dates(), 2)
}

func TestInterval_OverlapAndGap(t *testing.T) {
	day := generic.NewDate(2025, time.March, 3)
	a := generic.ShiftInterval(day, generic.NewClock(9, 0), generic.NewClock(12, 0))
	b := generic.ShiftInterval(day, generic.NewClock(12, 0), generic.NewClock(14, 0))
	c := generic.ShiftInterval(day, generic.NewClock(11, 0), generic.NewClock(13, 0))

	assert.False(t, a.Overlaps(b), "touching intervals do not overlap")
	assert.True(t, a.Overlaps(c))
	assert.Equal(t, time.Duration(0), a.Gap(b))
	assert.Equal(t, 2*time.Hour, generic.ShiftInterval(day, generic.NewClock(14, 0), generic.NewClock(15, 0)).Gap(a))
}

// =============================================================================
// CALENDAR
// =============================================================================

func TestWeekOf(t *testing.T) {
	week := generic.WeekOf(generic.NewDate(2025, time.March, 9)) // a Sunday
	assert.Equal(t, "2025-03-03", week.Start.String())
	assert.Equal(t, "2025-03-09", week.End.String())
}

func TestWorkingDaysBetween(t *testing.T) {
	from := generic.NewDate(2025, time.April, 28) // Monday
	to := generic.NewDate(2025, time.May, 10)     // Saturday

	assert.Equal(t, 12, generic.WorkingDaysBetween(from, to, nil))
	// May 1 and May 8 are holidays.
	assert.Equal(t, 10, generic.WorkingDaysBetween(from, to, generic.NewFrenchCalendar()))
	assert.Equal(t, 0, generic.WorkingDaysBetween(to, from, nil))
}

func TestLeaveYear(t *testing.T) {
	p := generic.LeaveYearOf(generic.NewDate(2026, time.March, 15))
	assert.Equal(t, "2025-06-01", p.Start.String())
	assert.Equal(t, "2026-05-31", p.End.String())

	assert.Equal(t, p, generic.LeaveYear(2025))
	assert.Equal(t, "2026-06-01", generic.LeaveYearOf(generic.NewDate(2026, time.June, 1)).Start.String())
}

func TestMainLeavePeriod(t *testing.T) {
	assert.True(t, generic.InMainLeavePeriod(generic.NewDate(2025, time.May, 1)))
	assert.True(t, generic.InMainLeavePeriod(generic.NewDate(2025, time.October, 31)))
	assert.False(t, generic.InMainLeavePeriod(generic.NewDate(2025, time.November, 1)))
	assert.False(t, generic.InMainLeavePeriod(generic.NewDate(2025, time.April, 30)))
}

func TestFrenchCalendar(t *testing.T) {
	cal := generic.NewFrenchCalendar()

	holidays := cal.Holidays(2025)
	require.Len(t, holidays, 11)

	easterMonday, ok := cal.HolidayOn(generic.NewDate(2025, time.April, 21))
	require.True(t, ok)
	assert.Equal(t, generic.HolidayHabitual, easterMonday.Kind)

	mayDay, ok := cal.HolidayOn(generic.NewDate(2025, time.May, 1))
	require.True(t, ok)
	assert.Equal(t, generic.HolidayExceptional, mayDay.Kind)

	_, ok = cal.HolidayOn(generic.NewDate(2025, time.May, 2))
	assert.False(t, ok)

	cal.Designate(generic.NewDate(2025, time.May, 2), "Bridge day")
	bridge, ok := cal.HolidayOn(generic.NewDate(2025, time.May, 2))
	require.True(t, ok)
	assert.Equal(t, generic.HolidayExceptional, bridge.Kind)
}

func TestEasterSunday(t *testing.T) {
	assert.Equal(t, "2024-03-31", generic.EasterSunday(2024).String())
	assert.Equal(t, "2025-04-20", generic.EasterSunday(2025).String())
	assert.Equal(t, "2026-04-05", generic.EasterSunday(2026).String())
}

func TestDate_JSON(t *testing.T) {
	var v struct {
		Day  generic.Date  `json:"day"`
		From generic.Clock `json:"from"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"day":"2025-03-03","from":"08:30"}`), &v))
	assert.Equal(t, generic.NewDate(2025, time.March, 3), v.Day)
	assert.Equal(t, generic.NewClock(8, 30), v.From)

	assert.Error(t, json.Unmarshal([]byte(`{"day":"03/03/2025"}`), &v))
}
