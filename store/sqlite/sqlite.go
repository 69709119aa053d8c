/*
Package sqlite persists contracts, shifts, absences and leave balances.

PURPOSE:
  The engine packages never perform I/O. This store is the collaborator that
  owns their state: it keeps the records the HTTP layer feeds into the
  engine, and applies the balance changes the engine computes.

KEY TABLES:
  contracts:       employee/employer contracts (rates as decimal text)
  shifts:          planned and completed shifts, guard segments as JSON
  absences:        absence requests and their status
  leave_balances:  one row per contract and leave year
  holidays:        dates designated as exceptional holidays

BALANCE UPDATES:
  Taken days change by read-modify-write inside one SQL transaction, under
  the store mutex. The new value is computed by the leave package
  (Balance.WithTaken / Balance.WithRestored) so the floor-at-zero rule lives
  in one place.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. SQLite is opened in WAL mode.

USAGE:
  store, err := sqlite.New("./data/labor.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - leave/balance.go: balance arithmetic
  - api/handlers.go: the workflows using this store
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/warp/labor-engine/generic"
	"github.com/warp/labor-engine/guard"
	"github.com/warp/labor-engine/leave"
	"github.com/warp/labor-engine/schedule"
)

// Store implements persistence for the service using SQLite.
type Store struct {
	db  *sql.DB
	mu  sync.RWMutex
	log *logrus.Entry
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for store diagnostics.
func WithLogger(l *logrus.Logger) Option {
	return func(s *Store) { s.log = l.WithField("component", "sqlite") }
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// An in-memory database lives and dies with its connection.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db, log: logrus.StandardLogger().WithField("component", "sqlite")}
	for _, opt := range opts {
		opt(store)
	}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	store.log.WithField("path", dbPath).Debug("database ready")
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS contracts (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		employer_id TEXT NOT NULL,
		weekly_hours TEXT NOT NULL,
		hourly_rate TEXT NOT NULL,
		contract_type TEXT NOT NULL,
		start_date TEXT NOT NULL,
		withholding_rate TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_contracts_employee
		ON contracts(employee_id);

	CREATE TABLE IF NOT EXISTS shifts (
		id TEXT PRIMARY KEY,
		contract_id TEXT NOT NULL REFERENCES contracts(id),
		employee_id TEXT NOT NULL,
		date TEXT NOT NULL,
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		break_minutes INTEGER NOT NULL DEFAULT 0,
		night_action BOOLEAN NOT NULL DEFAULT FALSE,
		status TEXT NOT NULL DEFAULT 'planned',
		guard_json TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Sibling lookups for compliance and overtime (hot path)
	CREATE INDEX IF NOT EXISTS idx_shifts_employee_date
		ON shifts(employee_id, date);

	CREATE TABLE IF NOT EXISTS absences (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		contract_id TEXT NOT NULL,
		absence_type TEXT NOT NULL,
		family_event TEXT,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		working_days INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_absences_employee
		ON absences(employee_id, start_date);
	CREATE INDEX IF NOT EXISTS idx_absences_status
		ON absences(status);

	CREATE TABLE IF NOT EXISTS leave_balances (
		contract_id TEXT NOT NULL,
		leave_year INTEGER NOT NULL,
		acquired TEXT NOT NULL DEFAULT '0',
		taken TEXT NOT NULL DEFAULT '0',
		adjustment TEXT NOT NULL DEFAULT '0',
		manually_seeded BOOLEAN NOT NULL DEFAULT FALSE,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (contract_id, leave_year)
	);

	CREATE TABLE IF NOT EXISTS holidays (
		date TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// CONTRACT STORE
// =============================================================================

// SaveContract inserts or replaces a contract.
func (s *Store) SaveContract(ctx context.Context, c schedule.Contract) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO contracts (id, employee_id, employer_id, weekly_hours, hourly_rate,
		                       contract_type, start_date, withholding_rate, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			employee_id = excluded.employee_id,
			employer_id = excluded.employer_id,
			weekly_hours = excluded.weekly_hours,
			hourly_rate = excluded.hourly_rate,
			contract_type = excluded.contract_type,
			start_date = excluded.start_date,
			withholding_rate = excluded.withholding_rate
	`

	var withholding sql.NullString
	if c.WithholdingRate != nil {
		withholding = sql.NullString{String: c.WithholdingRate.String(), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, query,
		c.ID, c.EmployeeID, c.EmployerID,
		c.WeeklyHours.String(), c.HourlyRate.String(),
		c.Type, c.StartDate.String(), withholding, now(),
	)
	if err != nil {
		return fmt.Errorf("failed to save contract: %w", err)
	}
	return nil
}

// GetContract retrieves a contract by ID. It returns nil when none exists.
func (s *Store) GetContract(ctx context.Context, id generic.ContractID) (*schedule.Contract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		c                       schedule.Contract
		weekly, rate, startDate string
		withholding             sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, employee_id, employer_id, weekly_hours, hourly_rate, contract_type, start_date, withholding_rate
		FROM contracts WHERE id = ?`, id,
	).Scan(&c.ID, &c.EmployeeID, &c.EmployerID, &weekly, &rate, &c.Type, &startDate, &withholding)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	c.WeeklyHours = generic.MustParseDecimal(weekly)
	c.HourlyRate = generic.MustParseDecimal(rate)
	c.StartDate = parseDate(startDate)
	if withholding.Valid {
		w := generic.MustParseDecimal(withholding.String)
		c.WithholdingRate = &w
	}
	return &c, nil
}

// ListContracts returns every contract, ordered by ID.
func (s *Store) ListContracts(ctx context.Context) ([]schedule.Contract, error) {
	s.mu.RLock()
	ids, err := s.contractIDs(ctx)
	s.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	out := make([]schedule.Contract, 0, len(ids))
	for _, id := range ids {
		c, err := s.GetContract(ctx, id)
		if err != nil {
			return nil, err
		}
		if c != nil {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (s *Store) contractIDs(ctx context.Context) ([]generic.ContractID, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id FROM contracts ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []generic.ContractID
	for rows.Next() {
		var id generic.ContractID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// =============================================================================
// SHIFT STORE
// =============================================================================

// SaveShift inserts or replaces a shift.
func (s *Store) SaveShift(ctx context.Context, sh schedule.Shift) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var guardJSON sql.NullString
	if sh.Guard != nil {
		b, err := json.Marshal(sh.Guard)
		if err != nil {
			return fmt.Errorf("failed to encode guard segments: %w", err)
		}
		guardJSON = sql.NullString{String: string(b), Valid: true}
	}
	status := sh.Status
	if status == "" {
		status = schedule.StatusPlanned
	}

	query := `
		INSERT INTO shifts (id, contract_id, employee_id, date, start_time, end_time,
		                    break_minutes, night_action, status, guard_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			contract_id = excluded.contract_id,
			employee_id = excluded.employee_id,
			date = excluded.date,
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			break_minutes = excluded.break_minutes,
			night_action = excluded.night_action,
			status = excluded.status,
			guard_json = excluded.guard_json,
			updated_at = excluded.updated_at
	`
	ts := now()
	_, err := s.db.ExecContext(ctx, query,
		sh.ID, sh.ContractID, sh.EmployeeID, sh.Date.String(), sh.Start, sh.End,
		sh.BreakMinutes, sh.NightAction, status, guardJSON, ts, ts,
	)
	if err != nil {
		return fmt.Errorf("failed to save shift: %w", err)
	}
	return nil
}

// GetShift retrieves a shift by ID. It returns nil when none exists.
func (s *Store) GetShift(ctx context.Context, id generic.ShiftID) (*schedule.Shift, error) {
	shifts, err := s.queryShifts(ctx, shiftColumns+" WHERE id = ?", id)
	if err != nil || len(shifts) == 0 {
		return nil, err
	}
	return &shifts[0], nil
}

// ShiftsForEmployee returns the employee's shifts dated within [from, to],
// in date order.
func (s *Store) ShiftsForEmployee(ctx context.Context, employee generic.EmployeeID, from, to generic.Date) ([]schedule.Shift, error) {
	return s.queryShifts(ctx,
		shiftColumns+" WHERE employee_id = ? AND date >= ? AND date <= ? ORDER BY date, start_time, id",
		employee, from.String(), to.String())
}

const shiftColumns = `
	SELECT id, contract_id, employee_id, date, start_time, end_time,
	       break_minutes, night_action, status, guard_json
	FROM shifts`

func (s *Store) queryShifts(ctx context.Context, query string, args ...any) ([]schedule.Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query shifts: %w", err)
	}
	defer rows.Close()

	var shifts []schedule.Shift
	for rows.Next() {
		var (
			sh        schedule.Shift
			date      string
			guardJSON sql.NullString
		)
		if err := rows.Scan(&sh.ID, &sh.ContractID, &sh.EmployeeID, &date, &sh.Start, &sh.End,
			&sh.BreakMinutes, &sh.NightAction, &sh.Status, &guardJSON); err != nil {
			return nil, fmt.Errorf("failed to scan shift: %w", err)
		}
		sh.Date = parseDate(date)
		if guardJSON.Valid && guardJSON.String != "" {
			var plan guard.Plan
			if err := json.Unmarshal([]byte(guardJSON.String), &plan); err != nil {
				s.log.WithError(err).WithField("shift_id", sh.ID).Warn("stored guard segments are invalid")
				return nil, fmt.Errorf("shift %s: %w", sh.ID, err)
			}
			sh.Guard = &plan
		}
		shifts = append(shifts, sh)
	}
	return shifts, rows.Err()
}

// =============================================================================
// ABSENCE STORE
// =============================================================================

// SaveAbsence inserts or replaces an absence.
func (s *Store) SaveAbsence(ctx context.Context, a leave.Absence) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	createdAt, updatedAt := a.CreatedAt, a.UpdatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}

	query := `
		INSERT INTO absences (id, employee_id, contract_id, absence_type, family_event,
		                      start_date, end_date, status, working_days, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			working_days = excluded.working_days,
			updated_at = excluded.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		a.ID, a.EmployeeID, a.ContractID, a.Type, nullString(string(a.FamilyEvent)),
		a.Period.Start.String(), a.Period.End.String(), a.Status, a.WorkingDays,
		createdAt.Format(time.RFC3339), updatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save absence: %w", err)
	}
	return nil
}

// GetAbsence retrieves an absence by ID. It returns nil when none exists.
func (s *Store) GetAbsence(ctx context.Context, id generic.AbsenceID) (*leave.Absence, error) {
	absences, err := s.queryAbsences(ctx, absenceColumns+" WHERE id = ?", id)
	if err != nil || len(absences) == 0 {
		return nil, err
	}
	return &absences[0], nil
}

// AbsencesForEmployee returns every absence of the employee, in start order.
func (s *Store) AbsencesForEmployee(ctx context.Context, employee generic.EmployeeID) ([]leave.Absence, error) {
	return s.queryAbsences(ctx, absenceColumns+" WHERE employee_id = ? ORDER BY start_date, id", employee)
}

const absenceColumns = `
	SELECT id, employee_id, contract_id, absence_type, family_event,
	       start_date, end_date, status, working_days, created_at, updated_at
	FROM absences`

func (s *Store) queryAbsences(ctx context.Context, query string, args ...any) ([]leave.Absence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query absences: %w", err)
	}
	defer rows.Close()

	var absences []leave.Absence
	for rows.Next() {
		var (
			a                    leave.Absence
			familyEvent          sql.NullString
			start, end           string
			createdAt, updatedAt string
		)
		if err := rows.Scan(&a.ID, &a.EmployeeID, &a.ContractID, &a.Type, &familyEvent,
			&start, &end, &a.Status, &a.WorkingDays, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan absence: %w", err)
		}
		a.FamilyEvent = leave.FamilyEvent(familyEvent.String)
		a.Period = generic.Period{Start: parseDate(start), End: parseDate(end)}
		a.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		a.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		absences = append(absences, a)
	}
	return absences, rows.Err()
}

// =============================================================================
// LEAVE BALANCE STORE
// =============================================================================

// GetBalance returns the balance of a contract for a leave year, nil when
// none exists.
func (s *Store) GetBalance(ctx context.Context, contract generic.ContractID, leaveYear int) (*leave.Balance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return getBalance(ctx, s.db, contract, leaveYear)
}

// SaveBalance writes a balance, replacing any previous row.
func (s *Store) SaveBalance(ctx context.Context, b leave.Balance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return putBalance(ctx, s.db, b)
}

// UpdateBalance applies fn to the stored balance inside one transaction and
// returns the result. A missing balance starts empty when create is true and
// fails with generic.ErrNotFound otherwise. An error from fn rolls the
// transaction back and is returned as is.
func (s *Store) UpdateBalance(ctx context.Context, contract generic.ContractID, leaveYear int, create bool, fn func(leave.Balance) (leave.Balance, error)) (leave.Balance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return leave.Balance{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	current, err := getBalance(ctx, tx, contract, leaveYear)
	if err != nil {
		return leave.Balance{}, err
	}
	if current == nil {
		if !create {
			return leave.Balance{}, fmt.Errorf("leave balance %s/%d: %w", contract, leaveYear, generic.ErrNotFound)
		}
		b := leave.NewBalance(contract, leaveYear)
		current = &b
	}

	next, err := fn(*current)
	if err != nil {
		return leave.Balance{}, err
	}
	if err := putBalance(ctx, tx, next); err != nil {
		return leave.Balance{}, err
	}
	if err := tx.Commit(); err != nil {
		return leave.Balance{}, fmt.Errorf("failed to commit balance: %w", err)
	}
	return next, nil
}

// AddTakenDays adds days to the taken count of an existing balance. It fails
// with *generic.InsufficientBalanceError when days exceed what remains, and
// leaves the balance untouched.
func (s *Store) AddTakenDays(ctx context.Context, contract generic.ContractID, leaveYear int, days decimal.Decimal) (leave.Balance, error) {
	b, err := s.UpdateBalance(ctx, contract, leaveYear, false, func(b leave.Balance) (leave.Balance, error) {
		if days.GreaterThan(b.Remaining()) {
			return b, &generic.InsufficientBalanceError{
				ContractID: contract,
				Available:  b.AvailableForRequest(),
				Requested:  days,
			}
		}
		return b.WithTaken(days), nil
	})
	if err == nil {
		s.log.WithFields(logrus.Fields{"contract_id": contract, "leave_year": leaveYear, "days": days}).Info("leave taken")
	}
	return b, err
}

// RestoreTakenDays gives days back to an existing balance. Taken never goes
// below zero.
func (s *Store) RestoreTakenDays(ctx context.Context, contract generic.ContractID, leaveYear int, days decimal.Decimal) (leave.Balance, error) {
	b, err := s.UpdateBalance(ctx, contract, leaveYear, false, func(b leave.Balance) (leave.Balance, error) {
		return b.WithRestored(days), nil
	})
	if err == nil {
		s.log.WithFields(logrus.Fields{"contract_id": contract, "leave_year": leaveYear, "days": days}).Info("leave restored")
	}
	return b, err
}

func getBalance(ctx context.Context, db execer, contract generic.ContractID, leaveYear int) (*leave.Balance, error) {
	var (
		b                           leave.Balance
		acquired, taken, adjustment string
	)
	err := db.QueryRowContext(ctx, `
		SELECT contract_id, leave_year, acquired, taken, adjustment, manually_seeded
		FROM leave_balances WHERE contract_id = ? AND leave_year = ?`, contract, leaveYear,
	).Scan(&b.ContractID, &b.LeaveYear, &acquired, &taken, &adjustment, &b.ManuallySeeded)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load balance: %w", err)
	}
	b.Acquired = generic.MustParseDecimal(acquired)
	b.Taken = generic.MustParseDecimal(taken)
	b.Adjustment = generic.MustParseDecimal(adjustment)
	return &b, nil
}

func putBalance(ctx context.Context, db execer, b leave.Balance) error {
	query := `
		INSERT INTO leave_balances (contract_id, leave_year, acquired, taken, adjustment, manually_seeded, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(contract_id, leave_year) DO UPDATE SET
			acquired = excluded.acquired,
			taken = excluded.taken,
			adjustment = excluded.adjustment,
			manually_seeded = excluded.manually_seeded,
			updated_at = excluded.updated_at
	`
	_, err := db.ExecContext(ctx, query,
		b.ContractID, b.LeaveYear,
		b.Acquired.String(), b.Taken.String(), b.Adjustment.String(),
		b.ManuallySeeded, now(),
	)
	if err != nil {
		return fmt.Errorf("failed to save balance: %w", err)
	}
	return nil
}

// =============================================================================
// HOLIDAYS
// =============================================================================

// SaveHoliday records an exceptional holiday.
func (s *Store) SaveHoliday(ctx context.Context, h generic.Holiday) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO holidays (date, name, created_at) VALUES (?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET name = excluded.name`,
		h.Date.String(), h.Name, now(),
	)
	if err != nil {
		return fmt.Errorf("failed to save holiday: %w", err)
	}
	return nil
}

// Holidays returns every stored exceptional holiday, in date order.
func (s *Store) Holidays(ctx context.Context) ([]generic.Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT date, name FROM holidays ORDER BY date")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var holidays []generic.Holiday
	for rows.Next() {
		var date, name string
		if err := rows.Scan(&date, &name); err != nil {
			return nil, err
		}
		holidays = append(holidays, generic.Holiday{Date: parseDate(date), Name: name, Kind: generic.HolidayExceptional})
	}
	return holidays, rows.Err()
}

// LoadCalendar designates every stored holiday on cal.
func (s *Store) LoadCalendar(ctx context.Context, cal *generic.FrenchCalendar) error {
	holidays, err := s.Holidays(ctx)
	if err != nil {
		return err
	}
	for _, h := range holidays {
		cal.Designate(h.Date, h.Name)
	}
	return nil
}

// =============================================================================
// UTILITIES
// =============================================================================

func now() string { return time.Now().UTC().Format(time.RFC3339) }

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func parseDate(s string) generic.Date {
	d, err := generic.ParseDate(s)
	if err != nil {
		return generic.Date{}
	}
	return d
}
