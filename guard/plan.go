/*
Package guard manages the segments of a 24-hour guard shift.

PURPOSE:
  A guard shift ("présence responsable") alternates effective work with
  daytime and nighttime standby. The segments form a closed 24h cycle: each
  segment ends where the next one starts, and the last one ends where the
  first one started, one day later.

KEY CONCEPTS:
  - Segment: start time, type, and a break (effective segments only)
  - Plan: an immutable, validated segment list. Every edit returns a new Plan
    whose minimum breaks are re-derived from scratch.

MINIMUM BREAK:
  Standby already counts as rest, so the cumulative-break rule of a normal
  workday does not apply across a guard shift. Only a single continuous
  effective segment longer than 6 hours needs a 20 minute break.

  The minimum is authoritative: when a segment grows its break is raised to
  at least the minimum, when it shrinks its break falls back to the minimum.

EXAMPLE:
  plan := guard.StandardPlan(generic.NewClock(8, 0))
  plan, err := plan.InsertAfter(0)
  plan, err = plan.SetType(1, guard.DayStandby)

SEE ALSO:
  - payroll/calculator.go: prices effective and standby segments
  - compliance/rules.go: break rule for guard shifts
*/
package guard

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/warp/labor-engine/generic"
)

// =============================================================================
// SEGMENT
// =============================================================================

type Type string

const (
	Effective    Type = "effective"
	DayStandby   Type = "day_standby"
	NightStandby Type = "night_standby"
)

func (t Type) Valid() bool {
	switch t {
	case Effective, DayStandby, NightStandby:
		return true
	}
	return false
}

const (
	// Continuous effective work above this many minutes requires a break.
	BreakThresholdMinutes = 360
	// MinimumBreakMinutes is the break required above the threshold.
	MinimumBreakMinutes = 20
)

// Segment is one slice of the guard cycle.
type Segment struct {
	Start        generic.Clock `json:"start"`
	Type         Type          `json:"type"`
	BreakMinutes *int          `json:"break_minutes,omitempty"`

	// Duration recorded by the last derivation. Used to tell whether an edit
	// lengthened or shortened the segment.
	Duration int `json:"duration_minutes"`
}

// Break returns the break in minutes, zero for standby segments.
func (s Segment) Break() int {
	if s.BreakMinutes == nil {
		return 0
	}
	return *s.BreakMinutes
}

func (s Segment) clone() Segment {
	if s.BreakMinutes != nil {
		b := *s.BreakMinutes
		s.BreakMinutes = &b
	}
	return s
}

// MinimumBreak returns the break an effective segment of the given duration
// must carry.
func MinimumBreak(durationMinutes int) int {
	if durationMinutes > BreakThresholdMinutes {
		return MinimumBreakMinutes
	}
	return 0
}

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrTooFewSegments  = errors.New("a guard shift needs at least two segments")
	ErrSegmentIndex    = errors.New("segment index out of range")
	ErrFixedBoundary   = errors.New("the end of the last segment is the start of the guard shift")
	ErrBoundaryOrder   = errors.New("segment boundaries must be strictly increasing over the 24h cycle")
	ErrUnknownType     = errors.New("unknown segment type")
	ErrNotEffective    = errors.New("only effective segments carry a break")
	ErrBreakTooLong    = errors.New("break must be shorter than the segment")
	ErrSegmentTooShort = errors.New("segment too short to split")
)

// =============================================================================
// PLAN
// =============================================================================

// Plan is an immutable, validated guard segment list.
type Plan struct {
	segments []Segment
}

// NewPlan validates the segments and derives their minimum breaks.
func NewPlan(segments []Segment) (Plan, error) {
	segs := make([]Segment, len(segments))
	for i, s := range segments {
		segs[i] = s.clone()
	}
	return build(segs)
}

// StandardPlan returns the default 24h template starting at start: morning
// work, daytime standby, evening work, then nighttime standby.
func StandardPlan(start generic.Clock) Plan {
	zero := func() *int { z := 0; return &z }
	p, err := NewPlan([]Segment{
		{Start: start, Type: Effective, BreakMinutes: zero()},
		{Start: start.Add(4 * 60), Type: DayStandby},
		{Start: start.Add(10 * 60), Type: Effective, BreakMinutes: zero()},
		{Start: start.Add(14 * 60), Type: NightStandby},
	})
	if err != nil {
		panic(fmt.Sprintf("guard: standard plan: %v", err))
	}
	return p
}

func build(segs []Segment) (Plan, error) {
	if len(segs) < 2 {
		return Plan{}, ErrTooFewSegments
	}
	for i, s := range segs {
		if !s.Start.Valid() {
			return Plan{}, fmt.Errorf("%w: segment %d start", generic.ErrMalformedInput, i)
		}
		if !s.Type.Valid() {
			return Plan{}, fmt.Errorf("%w: segment %d: %q", ErrUnknownType, i, s.Type)
		}
		if s.BreakMinutes != nil && *s.BreakMinutes < 0 {
			return Plan{}, fmt.Errorf("%w: segment %d break", generic.ErrMalformedInput, i)
		}
	}

	prev := 0
	for i := 1; i < len(segs); i++ {
		off := offset(segs[0].Start, segs[i].Start)
		if off <= prev {
			return Plan{}, fmt.Errorf("%w: segment %d starts at %s", ErrBoundaryOrder, i, segs[i].Start)
		}
		prev = off
	}

	derive(segs)
	for i, s := range segs {
		if s.Type == Effective && s.Break() >= s.Duration {
			return Plan{}, fmt.Errorf("%w: segment %d", ErrBreakTooLong, i)
		}
	}
	return Plan{segments: segs}, nil
}

// derive recomputes every duration and effective break from scratch.
func derive(segs []Segment) {
	for i := range segs {
		dur := durationAt(segs, i)
		s := &segs[i]

		if s.Type != Effective {
			s.BreakMinutes = nil
			s.Duration = dur
			continue
		}

		minimum := MinimumBreak(dur)
		stored := s.Break()
		next := max(stored, minimum)
		if dur < s.Duration {
			next = minimum
		}
		s.BreakMinutes = &next
		s.Duration = dur
	}
}

func offset(origin, c generic.Clock) int {
	return (int(c) - int(origin) + generic.MinutesPerDay) % generic.MinutesPerDay
}

func durationAt(segs []Segment, i int) int {
	origin := segs[0].Start
	start := offset(origin, segs[i].Start)
	end := generic.MinutesPerDay
	if i+1 < len(segs) {
		end = offset(origin, segs[i+1].Start)
	}
	return end - start
}

// =============================================================================
// ACCESSORS
// =============================================================================

func (p Plan) Len() int { return len(p.segments) }

// Start is the start time of the guard shift (first segment).
func (p Plan) Start() generic.Clock {
	if len(p.segments) == 0 {
		return 0
	}
	return p.segments[0].Start
}

// Segments returns a copy of the segment list.
func (p Plan) Segments() []Segment {
	out := make([]Segment, len(p.segments))
	for i, s := range p.segments {
		out[i] = s.clone()
	}
	return out
}

// Segment returns a copy of segment i.
func (p Plan) Segment(i int) (Segment, error) {
	if i < 0 || i >= len(p.segments) {
		return Segment{}, ErrSegmentIndex
	}
	return p.segments[i].clone(), nil
}

// DurationOf returns the length of segment i in minutes.
func (p Plan) DurationOf(i int) int {
	if i < 0 || i >= len(p.segments) {
		return 0
	}
	return p.segments[i].Duration
}

// EffectiveMinutes is the effective work of the guard, breaks excluded.
func (p Plan) EffectiveMinutes() int {
	total := 0
	for _, s := range p.segments {
		if s.Type == Effective {
			total += s.Duration - s.Break()
		}
	}
	return total
}

// StandbyMinutes sums the segments of the given standby type.
func (p Plan) StandbyMinutes(t Type) int {
	total := 0
	for _, s := range p.segments {
		if s.Type == t {
			total += s.Duration
		}
	}
	return total
}

// Piece is a segment placed on the calendar.
type Piece struct {
	Type         Type
	Interval     generic.Interval
	BreakMinutes int
}

// Pieces places every segment on the calendar, starting on date.
func (p Plan) Pieces(date generic.Date) []Piece {
	out := make([]Piece, 0, len(p.segments))
	origin := date.At(p.Start())
	for i, s := range p.segments {
		start := origin.Add(minutes(offset(p.Start(), s.Start)))
		out = append(out, Piece{
			Type:         s.Type,
			Interval:     generic.Interval{Start: start, End: start.Add(minutes(p.segments[i].Duration))},
			BreakMinutes: s.Break(),
		})
	}
	return out
}

func (p Plan) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.segments)
}

func (p *Plan) UnmarshalJSON(b []byte) error {
	var segs []Segment
	if err := json.Unmarshal(b, &segs); err != nil {
		return err
	}
	built, err := build(segs)
	if err != nil {
		return err
	}
	*p = built
	return nil
}
