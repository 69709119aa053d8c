package generic

import (
	"sort"
	"sync"
	"time"
)

// =============================================================================
// HOLIDAY CALENDAR
// =============================================================================

// HolidayKind separates ordinary public holidays from the ones paid at double
// rate when worked.
type HolidayKind string

const (
	HolidayHabitual    HolidayKind = "habitual"
	HolidayExceptional HolidayKind = "exceptional"
)

// Holiday is a public holiday on a given date.
type Holiday struct {
	Date Date
	Name string
	Kind HolidayKind
}

// HolidayCalendar provides holiday lookup functionality.
type HolidayCalendar interface {
	// HolidayOn returns the holiday falling on d, if any.
	HolidayOn(d Date) (Holiday, bool)

	// Holidays returns the holidays of a calendar year, in date order.
	Holidays(year int) []Holiday
}

// NoHolidays is a calendar without any holiday.
type NoHolidays struct{}

func (NoHolidays) HolidayOn(Date) (Holiday, bool) { return Holiday{}, false }
func (NoHolidays) Holidays(int) []Holiday         { return nil }

// FrenchCalendar lists the eleven French public holidays. May 1 is always
// exceptional; more exceptional dates can be designated per deployment.
type FrenchCalendar struct {
	mu          sync.RWMutex
	exceptional map[string]Holiday
	cache       map[int][]Holiday
}

func NewFrenchCalendar() *FrenchCalendar {
	return &FrenchCalendar{
		exceptional: make(map[string]Holiday),
		cache:       make(map[int][]Holiday),
	}
}

// Designate marks d as an exceptional holiday. A date that is not a public
// holiday becomes one.
func (c *FrenchCalendar) Designate(d Date, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.exceptional[d.String()] = Holiday{Date: d, Name: name, Kind: HolidayExceptional}
	delete(c.cache, d.Year())
}

func (c *FrenchCalendar) HolidayOn(d Date) (Holiday, bool) {
	for _, h := range c.Holidays(d.Year()) {
		if h.Date.Equal(d) {
			return h, true
		}
	}
	return Holiday{}, false
}

func (c *FrenchCalendar) Holidays(year int) []Holiday {
	c.mu.RLock()
	if hs, ok := c.cache[year]; ok {
		c.mu.RUnlock()
		return hs
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	easter := EasterSunday(year)
	byDate := map[string]Holiday{}
	add := func(d Date, name string) {
		byDate[d.String()] = Holiday{Date: d, Name: name, Kind: HolidayHabitual}
	}
	add(NewDate(year, time.January, 1), "Jour de l'an")
	add(easter.AddDays(1), "Lundi de Pâques")
	add(NewDate(year, time.May, 8), "Victoire 1945")
	add(easter.AddDays(39), "Ascension")
	add(easter.AddDays(50), "Lundi de Pentecôte")
	add(NewDate(year, time.July, 14), "Fête nationale")
	add(NewDate(year, time.August, 15), "Assomption")
	add(NewDate(year, time.November, 1), "Toussaint")
	add(NewDate(year, time.November, 11), "Armistice")
	add(NewDate(year, time.December, 25), "Noël")
	mayDay := NewDate(year, time.May, 1)
	byDate[mayDay.String()] = Holiday{Date: mayDay, Name: "Fête du travail", Kind: HolidayExceptional}

	for key, designated := range c.exceptional {
		if designated.Date.Year() != year {
			continue
		}
		if h, ok := byDate[key]; ok {
			designated.Name = h.Name
		}
		byDate[key] = designated
	}

	hs := make([]Holiday, 0, len(byDate))
	for _, h := range byDate {
		hs = append(hs, h)
	}
	sort.Slice(hs, func(i, j int) bool { return hs[i].Date.Before(hs[j].Date) })
	c.cache[year] = hs
	return hs
}

// EasterSunday computes the Gregorian Easter date (anonymous algorithm).
func EasterSunday(year int) Date {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return NewDate(year, time.Month(month), day)
}
