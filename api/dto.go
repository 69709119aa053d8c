/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Engine values (shifts,
  guard plans, results, computed pay) are sent as-is; records the service
  creates (contracts, absences, balances) go through request types whose
  struct tags are checked with validator/v10 before anything is parsed.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/warp/labor-engine/generic"
	"github.com/warp/labor-engine/guard"
	"github.com/warp/labor-engine/leave"
	"github.com/warp/labor-engine/schedule"
)

// =============================================================================
// ENGINE CALLS
// =============================================================================

// ValidateShiftRequest carries a candidate shift and its context.
type ValidateShiftRequest struct {
	Shift    schedule.Shift   `json:"shift"`
	Siblings []schedule.Shift `json:"siblings"`
	Absences []leave.Absence  `json:"absences"`
}

// QuickValidateResponse lists the blocking messages only.
type QuickValidateResponse struct {
	Valid    bool     `json:"valid"`
	Messages []string `json:"messages"`
}

// PayRequest prices one shift. Siblings feed the weekly overtime counter.
type PayRequest struct {
	Shift    schedule.Shift    `json:"shift"`
	Contract schedule.Contract `json:"contract"`
	Siblings []schedule.Shift  `json:"siblings"`
}

// WeekPayRequest prices a set of shifts of one contract.
type WeekPayRequest struct {
	Shifts   []schedule.Shift  `json:"shifts" validate:"required"`
	Contract schedule.Contract `json:"contract"`
}

// GuardEditRequest applies one edit to a guard plan.
type GuardEditRequest struct {
	Segments     guard.Plan `json:"segments"`
	Op           string     `json:"op" validate:"required,oneof=insert_after remove set_end set_type set_break"`
	Index        int        `json:"index" validate:"gte=0"`
	End          string     `json:"end" validate:"required_if=Op set_end"`
	Type         guard.Type `json:"type" validate:"required_if=Op set_type"`
	BreakMinutes *int       `json:"break_minutes" validate:"required_if=Op set_break,omitempty,gte=0"`
}

// GuardPlanDTO is a guard plan with its derived totals.
type GuardPlanDTO struct {
	Segments         guard.Plan `json:"segments"`
	EffectiveMinutes int        `json:"effective_minutes"`
	DayStandby       int        `json:"day_standby_minutes"`
	NightStandby     int        `json:"night_standby_minutes"`
}

func toGuardPlanDTO(p guard.Plan) GuardPlanDTO {
	return GuardPlanDTO{
		Segments:         p,
		EffectiveMinutes: p.EffectiveMinutes(),
		DayStandby:       p.StandbyMinutes(guard.DayStandby),
		NightStandby:     p.StandbyMinutes(guard.NightStandby),
	}
}

// RuleHelpDTO is the help text of a rule.
type RuleHelpDTO struct {
	Rule string `json:"rule"`
	Help string `json:"help"`
}

// =============================================================================
// CONTRACTS & SHIFTS
// =============================================================================

// CreateContractRequest is the request to create a contract.
type CreateContractRequest struct {
	ID              string  `json:"id"`
	EmployeeID      string  `json:"employee_id" validate:"required"`
	EmployerID      string  `json:"employer_id" validate:"required"`
	WeeklyHours     string  `json:"weekly_hours" validate:"required,numeric"`
	HourlyRate      string  `json:"hourly_rate" validate:"required,numeric"`
	Type            string  `json:"type" validate:"required,oneof=cdi cdd"`
	StartDate       string  `json:"start_date" validate:"required,datetime=2006-01-02"`
	WithholdingRate *string `json:"withholding_rate" validate:"omitempty,numeric"`
}

func (r CreateContractRequest) toContract() (schedule.Contract, error) {
	start, err := generic.ParseDate(r.StartDate)
	if err != nil {
		return schedule.Contract{}, err
	}
	c := schedule.Contract{
		ID:          generic.ContractID(r.ID),
		EmployeeID:  generic.EmployeeID(r.EmployeeID),
		EmployerID:  generic.EmployerID(r.EmployerID),
		WeeklyHours: decimal.RequireFromString(r.WeeklyHours),
		HourlyRate:  decimal.RequireFromString(r.HourlyRate),
		Type:        schedule.ContractType(r.Type),
		StartDate:   start,
	}
	if r.WithholdingRate != nil {
		w := decimal.RequireFromString(*r.WithholdingRate)
		c.WithholdingRate = &w
	}
	return c, c.Validate()
}

// CreateShiftRequest stores a shift against a contract. Guard shifts take
// their start and end from the plan.
type CreateShiftRequest struct {
	ID           string      `json:"id"`
	ContractID   string      `json:"contract_id" validate:"required"`
	Date         string      `json:"date" validate:"required,datetime=2006-01-02"`
	Start        string      `json:"start" validate:"required_without=Guard"`
	End          string      `json:"end" validate:"required_without=Guard"`
	BreakMinutes int         `json:"break_minutes" validate:"gte=0"`
	NightAction  bool        `json:"night_action"`
	Status       string      `json:"status" validate:"omitempty,oneof=planned completed cancelled absent"`
	Guard        *guard.Plan `json:"guard"`
}

// ShiftResponse is a stored shift with its compliance result.
type ShiftResponse struct {
	Shift  schedule.Shift `json:"shift"`
	Result generic.Result `json:"result"`
}

// =============================================================================
// LEAVE
// =============================================================================

// AbsenceRequest is the body of absence validation and submission.
type AbsenceRequest struct {
	ContractID  string `json:"contract_id" validate:"required"`
	Type        string `json:"type" validate:"required,oneof=vacation sick family_event other"`
	StartDate   string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate     string `json:"end_date" validate:"required,datetime=2006-01-02"`
	FamilyEvent string `json:"family_event" validate:"required_if=Type family_event"`
	// AsOf overrides the submission day for the notice rules.
	AsOf string `json:"as_of" validate:"omitempty,datetime=2006-01-02"`
}

// AbsenceResponse is an absence with the result that admitted it.
type AbsenceResponse struct {
	Absence leave.Absence  `json:"absence"`
	Result  generic.Result `json:"result"`
}

// BalanceDTO is a leave balance with its derived figures.
type BalanceDTO struct {
	leave.Balance
	Remaining           decimal.Decimal `json:"remaining"`
	AvailableForRequest decimal.Decimal `json:"available_for_request"`
	Start               string          `json:"period_start"`
	End                 string          `json:"period_end"`

	// FractionationBonus is earned by approved vacation outside May - October.
	// It is reported, not credited.
	FractionationBonus int `json:"fractionation_bonus"`
}

func toBalanceDTO(b leave.Balance, bonus int) BalanceDTO {
	p := b.Period()
	return BalanceDTO{
		Balance:             b,
		Remaining:           b.Remaining(),
		AvailableForRequest: b.AvailableForRequest(),
		Start:               p.Start.String(),
		End:                 p.End.String(),
		FractionationBonus:  bonus,
	}
}

// SeedBalanceRequest overrides a leave balance by hand.
type SeedBalanceRequest struct {
	Acquired   string `json:"acquired" validate:"required,numeric"`
	Taken      string `json:"taken" validate:"omitempty,numeric"`
	Adjustment string `json:"adjustment" validate:"omitempty,numeric"`
}

// HolidayDTO is a designated exceptional holiday.
type HolidayDTO struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
	Name string `json:"name" validate:"required"`
	Kind string `json:"kind,omitempty"`
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string          `json:"error"`
	Details string          `json:"details,omitempty"`
	Result  *generic.Result `json:"result,omitempty"`
}

// validationDetails flattens validator errors into one line.
func validationDetails(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	out := ""
	for i, fe := range verrs {
		if i > 0 {
			out += "; "
		}
		out += fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag())
	}
	return out
}

func decimalOrZero(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	return decimal.RequireFromString(s)
}
