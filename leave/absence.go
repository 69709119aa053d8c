package leave

import (
	"fmt"
	"time"

	"github.com/warp/labor-engine/generic"
)

// =============================================================================
// ABSENCE TYPES
// =============================================================================

type Type string

const (
	TypeVacation    Type = "vacation"
	TypeSick        Type = "sick"
	TypeFamilyEvent Type = "family_event"
	TypeOther       Type = "other"
)

func (t Type) Valid() bool {
	switch t {
	case TypeVacation, TypeSick, TypeFamilyEvent, TypeOther:
		return true
	}
	return false
}

// FamilyEvent is the declared reason of a family-event absence.
type FamilyEvent string

const (
	EventMarriage       FamilyEvent = "marriage"
	EventPACS           FamilyEvent = "pacs"
	EventBirth          FamilyEvent = "birth"
	EventAdoption       FamilyEvent = "adoption"
	EventSpouseDeath    FamilyEvent = "spouse_death"
	EventParentDeath    FamilyEvent = "parent_death"
	EventChildDeath     FamilyEvent = "child_death"
	EventSiblingDeath   FamilyEvent = "sibling_death"
	EventInLawDeath     FamilyEvent = "in_law_death"
	EventChildMarriage  FamilyEvent = "child_marriage"
	EventDisabilityNote FamilyEvent = "disability_announcement"
)

// familyEventCaps holds the statutory number of days per event.
var familyEventCaps = map[FamilyEvent]int{
	EventMarriage:       4,
	EventPACS:           4,
	EventBirth:          3,
	EventAdoption:       3,
	EventSpouseDeath:    3,
	EventParentDeath:    3,
	EventChildDeath:     5,
	EventSiblingDeath:   3,
	EventInLawDeath:     3,
	EventChildMarriage:  1,
	EventDisabilityNote: 2,
}

// FamilyEventCap returns the number of days granted for the event.
func FamilyEventCap(e FamilyEvent) (int, bool) {
	n, ok := familyEventCaps[e]
	return n, ok
}

// =============================================================================
// REQUEST & ABSENCE
// =============================================================================

// Request is an absence as submitted, before it is stored.
type Request struct {
	EmployeeID  generic.EmployeeID `json:"employee_id"`
	ContractID  generic.ContractID `json:"contract_id"`
	Type        Type               `json:"type"`
	Period      generic.Period     `json:"period"`
	FamilyEvent FamilyEvent        `json:"family_event,omitempty"`
}

// Check rejects requests the validator cannot evaluate.
func (r Request) Check() error {
	if !r.Type.Valid() {
		return fmt.Errorf("%w: absence type %q", generic.ErrMalformedInput, r.Type)
	}
	if r.Period.Start.IsZero() || r.Period.End.IsZero() {
		return fmt.Errorf("%w: absence dates are required", generic.ErrMalformedInput)
	}
	if !r.Period.Valid() {
		return fmt.Errorf("%w: %s", generic.ErrInvalidPeriod, r.Period)
	}
	if r.Type == TypeFamilyEvent {
		if _, ok := FamilyEventCap(r.FamilyEvent); !ok {
			return fmt.Errorf("%w: family event %q", generic.ErrMalformedInput, r.FamilyEvent)
		}
	}
	return nil
}

// WorkingDays counts the Monday-Saturday days the request covers.
func (r Request) WorkingDays(calendar generic.HolidayCalendar) int {
	return generic.WorkingDaysBetween(r.Period.Start, r.Period.End, calendar)
}

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
)

// Blocks reports whether an absence in this status reserves its dates.
func (s Status) Blocks() bool {
	return s == StatusPending || s == StatusApproved
}

// Absence is a stored absence request.
type Absence struct {
	ID generic.AbsenceID `json:"id"`
	Request
	Status      Status    `json:"status"`
	WorkingDays int       `json:"working_days"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ConsumesBalance reports whether approving the absence draws on paid leave.
func (a Absence) ConsumesBalance() bool {
	return a.Type == TypeVacation
}

// Approve moves a pending absence to approved.
func (a Absence) Approve(at time.Time) (Absence, error) {
	if a.Status != StatusPending {
		return a, fmt.Errorf("%w: cannot approve %s absence", generic.ErrInvalidTransition, a.Status)
	}
	a.Status = StatusApproved
	a.UpdatedAt = at
	return a, nil
}

// Reject moves a pending absence to rejected.
func (a Absence) Reject(at time.Time) (Absence, error) {
	if a.Status != StatusPending {
		return a, fmt.Errorf("%w: cannot reject %s absence", generic.ErrInvalidTransition, a.Status)
	}
	a.Status = StatusRejected
	a.UpdatedAt = at
	return a, nil
}

// Cancel withdraws a pending or approved absence.
func (a Absence) Cancel(at time.Time) (Absence, error) {
	if !a.Status.Blocks() {
		return a, fmt.Errorf("%w: cannot cancel %s absence", generic.ErrInvalidTransition, a.Status)
	}
	a.Status = StatusCancelled
	a.UpdatedAt = at
	return a, nil
}
