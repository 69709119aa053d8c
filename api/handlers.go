/*
handlers.go - HTTP API handlers for the labor engine

PURPOSE:
  Exposes the compliance, guard, payroll and leave engines over REST. Handles
  HTTP request/response and JSON, loads context from the store, and
  delegates every decision to the engine packages.

ENDPOINTS:
  Engine (pure, nothing stored):
    POST   /api/shifts/validate            Full compliance result
    POST   /api/shifts/quick-validate      Overlap and hard limits only
    POST   /api/shifts/pay                 Price one shift
    POST   /api/shifts/week-pay            Price a set of shifts
    POST   /api/guards/edit                Apply one guard plan edit
    GET    /api/rules/{rule}               Help text for a rule

  Records:
    POST   /api/contracts                  Create contract
    GET    /api/contracts/{id}             Get contract
    POST   /api/shifts                     Validate against stored shifts, then store
    GET    /api/employees/{id}/shifts      Shifts in a date range

  Leave:
    GET    /api/contracts/{id}/leave       Refresh accrual and return the balance
    PUT    /api/contracts/{id}/leave/{year} Manual seed/override
    POST   /api/absences/validate          Absence result against stored state
    POST   /api/absences                   Validate, then store as pending
    POST   /api/absences/{id}/approve      Approve (vacation consumes balance)
    POST   /api/absences/{id}/reject       Reject
    POST   /api/absences/{id}/cancel       Cancel (approved vacation restores balance)
    GET    /api/employees/{id}/absences    Absences of an employee

  Holidays:
    GET    /api/holidays?year=             Calendar of a year
    POST   /api/holidays                   Designate an exceptional holiday

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Malformed body, invalid input, VALIDATION_ERROR results
  - 404: Resource not found
  - 409: Rule violations on store operations, invalid status transitions
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - refresher.go: Periodic accrual refresh
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/warp/labor-engine/compliance"
	"github.com/warp/labor-engine/generic"
	"github.com/warp/labor-engine/guard"
	"github.com/warp/labor-engine/leave"
	"github.com/warp/labor-engine/payroll"
	"github.com/warp/labor-engine/schedule"
	"github.com/warp/labor-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store      *sqlite.Store
	Calendar   *generic.FrenchCalendar
	Calculator *payroll.Calculator
	Log        *logrus.Logger

	// Now is the clock used for "today". Tests pin it.
	Now func() time.Time

	validate *validator.Validate
}

// NewHandler creates a new handler with the given store and calendar.
func NewHandler(store *sqlite.Store, calendar *generic.FrenchCalendar, log *logrus.Logger) *Handler {
	if calendar == nil {
		calendar = generic.NewFrenchCalendar()
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handler{
		Store:      store,
		Calendar:   calendar,
		Calculator: payroll.NewCalculator(calendar),
		Log:        log,
		Now:        time.Now,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) today() generic.Date { return generic.DateOf(h.Now()) }

// =============================================================================
// ENGINE ENDPOINTS
// =============================================================================

// ValidateShift runs every compliance rule on the posted shift.
// POST /api/shifts/validate
func (h *Handler) ValidateShift(w http.ResponseWriter, r *http.Request) {
	var req ValidateShiftRequest
	if !h.decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, compliance.Validate(compliance.Input{
		Shift:    req.Shift,
		Siblings: req.Siblings,
		Absences: req.Absences,
	}))
}

// QuickValidateShift runs the overlap and hard-limit rules only.
// POST /api/shifts/quick-validate
func (h *Handler) QuickValidateShift(w http.ResponseWriter, r *http.Request) {
	var req ValidateShiftRequest
	if !h.decode(w, r, &req) {
		return
	}
	valid, messages := compliance.QuickValidate(compliance.Input{
		Shift:    req.Shift,
		Siblings: req.Siblings,
		Absences: req.Absences,
	})
	if messages == nil {
		messages = []string{}
	}
	writeJSON(w, http.StatusOK, QuickValidateResponse{Valid: valid, Messages: messages})
}

// PriceShift prices one shift.
// POST /api/shifts/pay
func (h *Handler) PriceShift(w http.ResponseWriter, r *http.Request) {
	var req PayRequest
	if !h.decode(w, r, &req) {
		return
	}
	pay, err := h.Calculator.PriceShift(req.Shift, req.Contract, req.Siblings)
	if err != nil {
		h.writeStoreError(w, "Cannot price shift", err)
		return
	}
	writeJSON(w, http.StatusOK, pay)
}

// PriceWeek prices a set of shifts with the weekly overtime counter.
// POST /api/shifts/week-pay
func (h *Handler) PriceWeek(w http.ResponseWriter, r *http.Request) {
	var req WeekPayRequest
	if !h.decode(w, r, &req) {
		return
	}
	pay, err := h.Calculator.PriceWeek(req.Shifts, req.Contract)
	if err != nil {
		h.writeStoreError(w, "Cannot price shifts", err)
		return
	}
	writeJSON(w, http.StatusOK, pay)
}

// EditGuard applies one edit to a guard plan and returns the new plan.
// POST /api/guards/edit
func (h *Handler) EditGuard(w http.ResponseWriter, r *http.Request) {
	var req GuardEditRequest
	if !h.decode(w, r, &req) {
		return
	}

	var (
		next guard.Plan
		err  error
	)
	switch req.Op {
	case "insert_after":
		next, err = req.Segments.InsertAfter(req.Index)
	case "remove":
		next, err = req.Segments.Remove(req.Index)
	case "set_end":
		var end generic.Clock
		if end, err = generic.ParseClock(req.End); err == nil {
			next, err = req.Segments.SetEnd(req.Index, end)
		}
	case "set_type":
		next, err = req.Segments.SetType(req.Index, req.Type)
	case "set_break":
		next, err = req.Segments.SetBreak(req.Index, *req.BreakMinutes)
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid guard edit", err)
		return
	}
	writeJSON(w, http.StatusOK, toGuardPlanDTO(next))
}

// GetRuleHelp returns the help text of a rule identifier.
// GET /api/rules/{rule}
func (h *Handler) GetRuleHelp(w http.ResponseWriter, r *http.Request) {
	rule := chi.URLParam(r, "rule")
	text, ok := compliance.RuleHelp(generic.RuleID(rule))
	if !ok {
		writeError(w, http.StatusNotFound, "Unknown rule", nil)
		return
	}
	writeJSON(w, http.StatusOK, RuleHelpDTO{Rule: rule, Help: text})
}

// =============================================================================
// CONTRACT & SHIFT ENDPOINTS
// =============================================================================

// CreateContract stores a new contract.
// POST /api/contracts
func (h *Handler) CreateContract(w http.ResponseWriter, r *http.Request) {
	var req CreateContractRequest
	if !h.decode(w, r, &req) {
		return
	}
	c, err := req.toContract()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid contract", err)
		return
	}
	if c.ID == "" {
		c.ID = generic.ContractID(uuid.NewString())
	}
	if err := h.Store.SaveContract(r.Context(), c); err != nil {
		h.writeStoreError(w, "Failed to create contract", err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// GetContract returns a contract.
// GET /api/contracts/{id}
func (h *Handler) GetContract(w http.ResponseWriter, r *http.Request) {
	c, ok := h.loadContract(w, r, generic.ContractID(chi.URLParam(r, "id")))
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// CreateShift validates a shift against the employee's stored shifts and
// approved absences, then stores it.
// POST /api/shifts
func (h *Handler) CreateShift(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req CreateShiftRequest
	if !h.decode(w, r, &req) {
		return
	}
	c, ok := h.loadContract(w, r, generic.ContractID(req.ContractID))
	if !ok {
		return
	}

	date, _ := generic.ParseDate(req.Date)
	shift := schedule.Shift{
		ID:           generic.ShiftID(req.ID),
		ContractID:   c.ID,
		EmployeeID:   c.EmployeeID,
		Date:         date,
		Start:        req.Start,
		End:          req.End,
		BreakMinutes: req.BreakMinutes,
		NightAction:  req.NightAction,
		Status:       schedule.Status(req.Status),
		Guard:        req.Guard,
	}
	if shift.ID == "" {
		shift.ID = generic.ShiftID(uuid.NewString())
	}
	if shift.Status == "" {
		shift.Status = schedule.StatusPlanned
	}
	if shift.Guard != nil && shift.Guard.Len() > 0 {
		shift.Start = shift.Guard.Start().String()
		shift.End = shift.Start
	}

	// A week either side covers the calendar week and both rest neighbours.
	siblings, err := h.Store.ShiftsForEmployee(ctx, c.EmployeeID, date.AddDays(-7), date.AddDays(7))
	if err != nil {
		h.writeStoreError(w, "Failed to load shifts", err)
		return
	}
	absences, err := h.Store.AbsencesForEmployee(ctx, c.EmployeeID)
	if err != nil {
		h.writeStoreError(w, "Failed to load absences", err)
		return
	}

	result := compliance.Validate(compliance.Input{Shift: shift, Siblings: siblings, Absences: absences})
	if !result.Valid {
		writeResultError(w, "Shift breaks compliance rules", result)
		return
	}

	if err := h.Store.SaveShift(ctx, shift); err != nil {
		h.writeStoreError(w, "Failed to save shift", err)
		return
	}
	h.Log.WithFields(logrus.Fields{
		"shift_id":    shift.ID,
		"employee_id": shift.EmployeeID,
		"date":        shift.Date.String(),
		"warnings":    len(result.Warnings),
	}).Info("shift stored")

	writeJSON(w, http.StatusCreated, ShiftResponse{Shift: shift, Result: result})
}

// ListShifts returns an employee's shifts within ?from=&to= (default: the
// current week).
// GET /api/employees/{id}/shifts
func (h *Handler) ListShifts(w http.ResponseWriter, r *http.Request) {
	week := generic.WeekOf(h.today())
	from, ok := dateParam(w, r, "from", week.Start)
	if !ok {
		return
	}
	to, ok := dateParam(w, r, "to", week.End)
	if !ok {
		return
	}

	shifts, err := h.Store.ShiftsForEmployee(r.Context(), generic.EmployeeID(chi.URLParam(r, "id")), from, to)
	if err != nil {
		h.writeStoreError(w, "Failed to list shifts", err)
		return
	}
	if shifts == nil {
		shifts = []schedule.Shift{}
	}
	writeJSON(w, http.StatusOK, shifts)
}

// =============================================================================
// LEAVE BALANCE ENDPOINTS
// =============================================================================

// GetLeave refreshes the accrual of a leave year and returns the balance.
// GET /api/contracts/{id}/leave?year=&as_of=
func (h *Handler) GetLeave(w http.ResponseWriter, r *http.Request) {
	c, ok := h.loadContract(w, r, generic.ContractID(chi.URLParam(r, "id")))
	if !ok {
		return
	}
	asOf, ok := dateParam(w, r, "as_of", h.today())
	if !ok {
		return
	}
	year := generic.LeaveYearOf(asOf).Start.Year()
	if s := r.URL.Query().Get("year"); s != "" {
		y, err := strconv.Atoi(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid year", err)
			return
		}
		year = y
	}

	b, err := h.Store.UpdateBalance(r.Context(), c.ID, year, true, func(b leave.Balance) (leave.Balance, error) {
		return leave.Refresh(b, *c, asOf), nil
	})
	if err != nil {
		h.writeStoreError(w, "Failed to refresh balance", err)
		return
	}
	bonus, ok := h.fractionationBonus(w, r, c, year)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toBalanceDTO(b, bonus))
}

// SeedLeave overrides a leave balance. Seeded balances are no longer
// refreshed by accrual.
// PUT /api/contracts/{id}/leave/{year}
func (h *Handler) SeedLeave(w http.ResponseWriter, r *http.Request) {
	c, ok := h.loadContract(w, r, generic.ContractID(chi.URLParam(r, "id")))
	if !ok {
		return
	}
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid year", err)
		return
	}
	var req SeedBalanceRequest
	if !h.decode(w, r, &req) {
		return
	}

	b, err := h.Store.UpdateBalance(r.Context(), c.ID, year, true, func(b leave.Balance) (leave.Balance, error) {
		b.Acquired = decimalOrZero(req.Acquired)
		b.Taken = decimalOrZero(req.Taken)
		b.Adjustment = decimalOrZero(req.Adjustment)
		b.ManuallySeeded = true
		return b, nil
	})
	if err != nil {
		h.writeStoreError(w, "Failed to seed balance", err)
		return
	}
	h.Log.WithFields(logrus.Fields{"contract_id": c.ID, "leave_year": year}).Info("leave balance seeded")
	bonus, ok := h.fractionationBonus(w, r, c, year)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toBalanceDTO(b, bonus))
}

// =============================================================================
// ABSENCE ENDPOINTS
// =============================================================================

// ValidateAbsence evaluates an absence request against stored absences and
// the balance of its leave year.
// POST /api/absences/validate
func (h *Handler) ValidateAbsence(w http.ResponseWriter, r *http.Request) {
	in, ok := h.absenceInput(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, leave.ValidateAbsence(in))
}

// SubmitAbsence validates an absence request and stores it as pending.
// POST /api/absences
func (h *Handler) SubmitAbsence(w http.ResponseWriter, r *http.Request) {
	in, ok := h.absenceInput(w, r)
	if !ok {
		return
	}
	result := leave.ValidateAbsence(in)
	if !result.Valid {
		writeResultError(w, "Absence request rejected", result)
		return
	}

	now := h.Now().UTC()
	a := leave.Absence{
		ID:          generic.AbsenceID(uuid.NewString()),
		Request:     in.Request,
		Status:      leave.StatusPending,
		WorkingDays: in.Request.WorkingDays(h.Calendar),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.Store.SaveAbsence(r.Context(), a); err != nil {
		h.writeStoreError(w, "Failed to save absence", err)
		return
	}
	writeJSON(w, http.StatusCreated, AbsenceResponse{Absence: a, Result: result})
}

// ApproveAbsence approves a pending absence. Vacation days are taken from
// the balance of the leave year the absence starts in, and approval fails
// with 409 when they no longer fit.
// POST /api/absences/{id}/approve
func (h *Handler) ApproveAbsence(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	a, ok := h.loadAbsence(w, r)
	if !ok {
		return
	}
	approved, err := a.Approve(h.Now().UTC())
	if err != nil {
		h.writeStoreError(w, "Cannot approve absence", err)
		return
	}

	year := leaveYearOf(approved)
	if approved.ConsumesBalance() {
		if _, err := h.Store.AddTakenDays(ctx, approved.ContractID, year, leave.TakenDelta(approved)); err != nil {
			if generic.IsNotFound(err) {
				writeError(w, http.StatusConflict, "No leave balance for the leave year", err)
				return
			}
			if generic.IsInsufficientBalance(err) {
				result := generic.NewResult([]generic.Issue{
					generic.Blocking(leave.RuleBalance, leave.CodeInsufficient, err.Error()),
				})
				writeResultError(w, "Absence cannot be approved", result)
				return
			}
			h.writeStoreError(w, "Failed to update balance", err)
			return
		}
	}

	if err := h.Store.SaveAbsence(ctx, approved); err != nil {
		if approved.ConsumesBalance() {
			if _, rerr := h.Store.RestoreTakenDays(ctx, approved.ContractID, year, leave.TakenDelta(approved)); rerr != nil {
				h.Log.WithError(rerr).WithField("absence_id", approved.ID).Error("failed to restore balance after save error")
			}
		}
		h.writeStoreError(w, "Failed to save absence", err)
		return
	}
	writeJSON(w, http.StatusOK, approved)
}

// RejectAbsence rejects a pending absence.
// POST /api/absences/{id}/reject
func (h *Handler) RejectAbsence(w http.ResponseWriter, r *http.Request) {
	a, ok := h.loadAbsence(w, r)
	if !ok {
		return
	}
	rejected, err := a.Reject(h.Now().UTC())
	if err != nil {
		h.writeStoreError(w, "Cannot reject absence", err)
		return
	}
	if err := h.Store.SaveAbsence(r.Context(), rejected); err != nil {
		h.writeStoreError(w, "Failed to save absence", err)
		return
	}
	writeJSON(w, http.StatusOK, rejected)
}

// CancelAbsence cancels a pending or approved absence. An approved vacation
// gives its days back.
// POST /api/absences/{id}/cancel
func (h *Handler) CancelAbsence(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	a, ok := h.loadAbsence(w, r)
	if !ok {
		return
	}
	wasApproved := a.Status == leave.StatusApproved
	cancelled, err := a.Cancel(h.Now().UTC())
	if err != nil {
		h.writeStoreError(w, "Cannot cancel absence", err)
		return
	}

	if wasApproved && cancelled.ConsumesBalance() {
		_, err := h.Store.RestoreTakenDays(ctx, cancelled.ContractID, leaveYearOf(cancelled), leave.TakenDelta(cancelled))
		if err != nil && !generic.IsNotFound(err) {
			h.writeStoreError(w, "Failed to restore balance", err)
			return
		}
		if err != nil {
			h.Log.WithField("absence_id", cancelled.ID).Warn("cancelled vacation had no balance to restore")
		}
	}

	if err := h.Store.SaveAbsence(ctx, cancelled); err != nil {
		h.writeStoreError(w, "Failed to save absence", err)
		return
	}
	writeJSON(w, http.StatusOK, cancelled)
}

// ListAbsences returns an employee's absences.
// GET /api/employees/{id}/absences
func (h *Handler) ListAbsences(w http.ResponseWriter, r *http.Request) {
	absences, err := h.Store.AbsencesForEmployee(r.Context(), generic.EmployeeID(chi.URLParam(r, "id")))
	if err != nil {
		h.writeStoreError(w, "Failed to list absences", err)
		return
	}
	if absences == nil {
		absences = []leave.Absence{}
	}
	writeJSON(w, http.StatusOK, absences)
}

func (h *Handler) absenceInput(w http.ResponseWriter, r *http.Request) (leave.AbsenceInput, bool) {
	ctx := r.Context()
	var req AbsenceRequest
	if !h.decode(w, r, &req) {
		return leave.AbsenceInput{}, false
	}
	c, ok := h.loadContract(w, r, generic.ContractID(req.ContractID))
	if !ok {
		return leave.AbsenceInput{}, false
	}

	start, _ := generic.ParseDate(req.StartDate)
	end, _ := generic.ParseDate(req.EndDate)
	asOf := h.today()
	if req.AsOf != "" {
		asOf, _ = generic.ParseDate(req.AsOf)
	}

	existing, err := h.Store.AbsencesForEmployee(ctx, c.EmployeeID)
	if err != nil {
		h.writeStoreError(w, "Failed to load absences", err)
		return leave.AbsenceInput{}, false
	}
	balance, err := h.Store.GetBalance(ctx, c.ID, generic.LeaveYearOf(start).Start.Year())
	if err != nil {
		h.writeStoreError(w, "Failed to load balance", err)
		return leave.AbsenceInput{}, false
	}

	return leave.AbsenceInput{
		Request: leave.Request{
			EmployeeID:  c.EmployeeID,
			ContractID:  c.ID,
			Type:        leave.Type(req.Type),
			Period:      generic.Period{Start: start, End: end},
			FamilyEvent: leave.FamilyEvent(req.FamilyEvent),
		},
		Existing: existing,
		Balance:  balance,
		AsOf:     asOf,
		Holidays: h.Calendar,
	}, true
}

func (h *Handler) fractionationBonus(w http.ResponseWriter, r *http.Request, c *schedule.Contract, year int) (int, bool) {
	absences, err := h.Store.AbsencesForEmployee(r.Context(), c.EmployeeID)
	if err != nil {
		h.writeStoreError(w, "Failed to load absences", err)
		return 0, false
	}
	return leave.EarnedFractionationBonus(absences, c.ID, year, h.Calendar), true
}

func leaveYearOf(a leave.Absence) int {
	return generic.LeaveYearOf(a.Period.Start).Start.Year()
}

// =============================================================================
// HOLIDAY ENDPOINTS
// =============================================================================

// ListHolidays returns the holidays of ?year= (default: current year).
// GET /api/holidays
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	year := h.today().Year()
	if s := r.URL.Query().Get("year"); s != "" {
		y, err := strconv.Atoi(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid year", err)
			return
		}
		year = y
	}

	holidays := h.Calendar.Holidays(year)
	dtos := make([]HolidayDTO, 0, len(holidays))
	for _, hd := range holidays {
		dtos = append(dtos, HolidayDTO{Date: hd.Date.String(), Name: hd.Name, Kind: string(hd.Kind)})
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateHoliday designates an exceptional holiday.
// POST /api/holidays
func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var req HolidayDTO
	if !h.decode(w, r, &req) {
		return
	}
	date, _ := generic.ParseDate(req.Date)
	if err := h.Store.SaveHoliday(r.Context(), generic.Holiday{Date: date, Name: req.Name}); err != nil {
		h.writeStoreError(w, "Failed to save holiday", err)
		return
	}
	h.Calendar.Designate(date, req.Name)

	req.Kind = string(generic.HolidayExceptional)
	writeJSON(w, http.StatusCreated, req)
}

// =============================================================================
// HELPERS
// =============================================================================

// decode reads the JSON body into v and runs the struct validator. It writes
// a 400 and returns false on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := h.validate.Struct(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", errors.New(validationDetails(err)))
		return false
	}
	return true
}

func (h *Handler) loadContract(w http.ResponseWriter, r *http.Request, id generic.ContractID) (*schedule.Contract, bool) {
	c, err := h.Store.GetContract(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, "Failed to get contract", err)
		return nil, false
	}
	if c == nil {
		writeError(w, http.StatusNotFound, "Contract not found", nil)
		return nil, false
	}
	return c, true
}

func (h *Handler) loadAbsence(w http.ResponseWriter, r *http.Request) (leave.Absence, bool) {
	a, err := h.Store.GetAbsence(r.Context(), generic.AbsenceID(chi.URLParam(r, "id")))
	if err != nil {
		h.writeStoreError(w, "Failed to get absence", err)
		return leave.Absence{}, false
	}
	if a == nil {
		writeError(w, http.StatusNotFound, "Absence not found", nil)
		return leave.Absence{}, false
	}
	return *a, true
}

func dateParam(w http.ResponseWriter, r *http.Request, name string, def generic.Date) (generic.Date, bool) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def, true
	}
	d, err := generic.ParseDate(s)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid "+name+" date (use YYYY-MM-DD)", err)
		return generic.Date{}, false
	}
	return d, true
}

// writeStoreError maps sentinel errors to a status code. Anything unknown is
// logged and reported as 500.
func (h *Handler) writeStoreError(w http.ResponseWriter, message string, err error) {
	switch {
	case generic.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case generic.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	case errors.Is(err, generic.ErrInvalidTransition), generic.IsInsufficientBalance(err):
		writeError(w, http.StatusConflict, message, err)
	default:
		h.Log.WithError(err).Error(message)
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

// writeResultError reports a failed validation: 400 when the input could not
// be evaluated, 409 when business rules block it.
func writeResultError(w http.ResponseWriter, message string, result generic.Result) {
	status := http.StatusConflict
	if result.HasRule(generic.RuleInput) {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, ErrorResponse{Error: message, Details: firstMessage(result), Result: &result})
}

func firstMessage(r generic.Result) string {
	if len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[0].Message
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
