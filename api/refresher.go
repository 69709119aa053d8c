/*
refresher.go - Periodic leave accrual refresh

PURPOSE:
  Keeps stored leave balances in step with the calendar. Acquired days grow
  with worked time, so every interval the refresher recomputes the current
  leave year of each contract and stores the result.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Creates the balance of a new leave year on its first run after June 1
  - Manually seeded balances are left untouched (leave.Refresh skips them)
  - Acquired days never decrease

USAGE:
  refresher := NewAccrualRefresher(store, log)
  refresher.Start()
  // ... later
  refresher.Stop()

SEE ALSO:
  - handlers.go: GetLeave endpoint (on-demand refresh)
  - leave/accrual.go: accrual arithmetic
*/
package api

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/warp/labor-engine/generic"
	"github.com/warp/labor-engine/leave"
	"github.com/warp/labor-engine/schedule"
	"github.com/warp/labor-engine/store/sqlite"
)

// AccrualRefresher recomputes acquired leave on a ticker.
type AccrualRefresher struct {
	Store         *sqlite.Store
	CheckInterval time.Duration
	Enabled       bool
	Now           func() time.Time

	log    *logrus.Entry
	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewAccrualRefresher creates a new refresher.
func NewAccrualRefresher(store *sqlite.Store, log *logrus.Logger) *AccrualRefresher {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &AccrualRefresher{
		Store:         store,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		Now:           time.Now,
		log:           log.WithField("component", "accrual"),
	}
}

// Start begins the refresher.
func (ar *AccrualRefresher) Start() {
	ar.mu.Lock()
	defer ar.mu.Unlock()

	if !ar.Enabled {
		ar.log.Info("disabled, not starting")
		return
	}
	if ar.ticker != nil {
		return
	}

	ar.ticker = time.NewTicker(ar.CheckInterval)
	ar.stop = make(chan struct{})
	ar.wg.Add(1)

	go ar.run(ar.ticker, ar.stop)

	ar.log.WithField("interval", ar.CheckInterval).Info("started")
}

// Stop stops the refresher and waits for a running pass to finish.
func (ar *AccrualRefresher) Stop() {
	ar.mu.Lock()
	defer ar.mu.Unlock()

	if ar.ticker != nil {
		ar.ticker.Stop()
		close(ar.stop)
		ar.wg.Wait()
		ar.ticker = nil
		ar.log.Info("stopped")
	}
}

func (ar *AccrualRefresher) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer ar.wg.Done()

	// Run immediately on start
	ar.RunNow(context.Background())

	for {
		select {
		case <-ticker.C:
			ar.RunNow(context.Background())
		case <-stop:
			return
		}
	}
}

// RunNow refreshes every contract once and returns how many balances were
// written.
func (ar *AccrualRefresher) RunNow(ctx context.Context) int {
	asOf := generic.DateOf(ar.Now())
	year := generic.LeaveYearOf(asOf).Start.Year()

	contracts, err := ar.Store.ListContracts(ctx)
	if err != nil {
		ar.log.WithError(err).Error("listing contracts")
		return 0
	}

	refreshed, skipped := 0, 0
	for _, c := range contracts {
		if c.StartDate.After(asOf) {
			skipped++
			continue
		}
		if err := ar.refresh(ctx, c, year, asOf); err != nil {
			ar.log.WithError(err).WithField("contract_id", c.ID).Error("refreshing balance")
			continue
		}
		refreshed++
	}

	if refreshed > 0 || skipped > 0 {
		ar.log.WithFields(logrus.Fields{
			"refreshed":  refreshed,
			"skipped":    skipped,
			"leave_year": year,
		}).Info("accrual pass completed")
	}
	return refreshed
}

func (ar *AccrualRefresher) refresh(ctx context.Context, c schedule.Contract, year int, asOf generic.Date) error {
	_, err := ar.Store.UpdateBalance(ctx, c.ID, year, true, func(b leave.Balance) (leave.Balance, error) {
		return leave.Refresh(b, c, asOf), nil
	})
	return err
}
