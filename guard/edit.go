package guard

import (
	"fmt"
	"time"

	"github.com/warp/labor-engine/generic"
)

// =============================================================================
// EDITS - Each returns a new Plan, the receiver is never modified
// =============================================================================

// InsertAfter adds a new effective segment (break 0) at index i+1. It takes the
// first half of the successor's span and the successor now starts at the
// midpoint. Inserting after the last segment splits the last segment itself.
func (p Plan) InsertAfter(i int) (Plan, error) {
	if i < 0 || i >= len(p.segments) {
		return Plan{}, ErrSegmentIndex
	}
	segs := p.Segments()
	zero := 0

	if i == len(segs)-1 {
		last := segs[i]
		if last.Duration < 2 {
			return Plan{}, ErrSegmentTooShort
		}
		inserted := Segment{Start: last.Start.Add(last.Duration / 2), Type: Effective, BreakMinutes: &zero}
		return build(append(segs, inserted))
	}

	j := i + 1
	successor := segs[j]
	if successor.Duration < 2 {
		return Plan{}, ErrSegmentTooShort
	}
	inserted := Segment{Start: successor.Start, Type: Effective, BreakMinutes: &zero}
	segs[j].Start = successor.Start.Add(successor.Duration / 2)

	out := make([]Segment, 0, len(segs)+1)
	out = append(out, segs[:j]...)
	out = append(out, inserted)
	out = append(out, segs[j:]...)
	return build(out)
}

// Remove deletes segment i. Its time goes to the previous segment, or to the
// next one when the first segment is removed, so the guard keeps its start.
func (p Plan) Remove(i int) (Plan, error) {
	if i < 0 || i >= len(p.segments) {
		return Plan{}, ErrSegmentIndex
	}
	if len(p.segments)-1 < 2 {
		return Plan{}, ErrTooFewSegments
	}
	segs := p.Segments()
	if i == 0 {
		segs[1].Start = segs[0].Start
	}
	out := append(segs[:i:i], segs[i+1:]...)
	return build(out)
}

// SetEnd moves the boundary between segment i and segment i+1.
func (p Plan) SetEnd(i int, end generic.Clock) (Plan, error) {
	if i < 0 || i >= len(p.segments) {
		return Plan{}, ErrSegmentIndex
	}
	if i == len(p.segments)-1 {
		return Plan{}, ErrFixedBoundary
	}
	if !end.Valid() {
		return Plan{}, fmt.Errorf("%w: end %d", generic.ErrMalformedInput, end)
	}
	segs := p.Segments()
	segs[i+1].Start = end
	return build(segs)
}

// SetType changes the type of segment i. Leaving effective clears the break,
// becoming effective starts from a zero break before derivation.
func (p Plan) SetType(i int, t Type) (Plan, error) {
	if i < 0 || i >= len(p.segments) {
		return Plan{}, ErrSegmentIndex
	}
	if !t.Valid() {
		return Plan{}, fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
	segs := p.Segments()
	switch {
	case t != Effective:
		segs[i].BreakMinutes = nil
	case segs[i].Type != Effective:
		zero := 0
		segs[i].BreakMinutes = &zero
	}
	segs[i].Type = t
	return build(segs)
}

// SetBreak records a break on an effective segment. Values below the minimum
// are raised to it.
func (p Plan) SetBreak(i int, minutes int) (Plan, error) {
	if i < 0 || i >= len(p.segments) {
		return Plan{}, ErrSegmentIndex
	}
	segs := p.Segments()
	if segs[i].Type != Effective {
		return Plan{}, ErrNotEffective
	}
	if minutes < 0 {
		return Plan{}, fmt.Errorf("%w: break %d", generic.ErrMalformedInput, minutes)
	}
	minutes = max(minutes, MinimumBreak(segs[i].Duration))
	segs[i].BreakMinutes = &minutes
	return build(segs)
}

func minutes(n int) time.Duration { return time.Duration(n) * time.Minute }
