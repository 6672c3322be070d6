package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"nutrilog/internal/amqp"
	"nutrilog/internal/cache"
	"nutrilog/internal/core"
	"nutrilog/internal/ledger"
	applog "nutrilog/internal/log"
	"nutrilog/internal/metrics"
)

// LedgerStore is the persistence the service drives. *ledger.Store
// implements it.
type LedgerStore interface {
	Fetch(ctx context.Context, key core.DateKey) (core.DayLedger, error)
	FetchMany(ctx context.Context, keys []core.DateKey) (map[core.DateKey]core.DayLedger, error)
	Append(ctx context.Context, key core.DateKey, rec core.Record) (core.DayLedger, error)
	Replace(ctx context.Context, key core.DateKey, index int, rec core.Record) (core.DayLedger, error)
	RemoveAt(ctx context.Context, key core.DateKey, index int) (core.DayLedger, error)
	ToggleDone(ctx context.Context, key core.DateKey, index int) (core.DayLedger, error)
	UpdateByID(ctx context.Context, key core.DateKey, id string, rec core.Record) (core.DayLedger, error)
	RemoveByID(ctx context.Context, key core.DateKey, id string) (core.DayLedger, error)
}

// EventPublisher receives a message after every successful mutation.
// *amqp.Client implements it.
type EventPublisher interface {
	PublishLedgerChanged(ctx context.Context, msg *amqp.LedgerChangedMessage) error
}

// MonthView is the result of loading a month.
type MonthView struct {
	Grid    core.Grid
	Version uint64
	Days    []core.DaySummary
	// Stale is set when a newer month was requested while this one was
	// loading. Days still describe the requested month, but the cache was
	// left to the newer request.
	Stale bool
}

// LedgerService owns the calendar view state: the active grid, the ledger
// cache projected over it and the store behind it.
type LedgerService struct {
	store     LedgerStore
	cache     *cache.LedgerCache
	publisher EventPublisher
	now       func() time.Time
}

// NewLedgerService wires a service. publisher may be nil, in which case no
// change events are sent.
func NewLedgerService(store LedgerStore, publisher EventPublisher) *LedgerService {
	return &LedgerService{
		store:     store,
		cache:     cache.NewLedgerCache(),
		publisher: publisher,
		now:       time.Now,
	}
}

// ShowMonth makes the month containing d the active grid and loads every
// day in it. A result that arrives after a newer ShowMonth began is not
// applied to the cache.
func (s *LedgerService) ShowMonth(ctx context.Context, d time.Time) (MonthView, error) {
	logger := applog.FromContext(ctx).WithComponent(applog.ComponentView)

	grid := core.NewGrid(d)
	version := s.cache.Begin(grid)

	start := time.Now()
	entries, err := s.store.FetchMany(ctx, grid.Keys)
	metrics.ObserveOperation(applog.OpShow, start, err)
	if err != nil {
		return MonthView{Grid: grid, Version: version}, fmt.Errorf("load %d-%02d: %w", grid.Year, grid.Month, err)
	}

	view := MonthView{Grid: grid, Version: version}
	if s.cache.Commit(version, entries) {
		view.Days = core.SummarizeGrid(grid, s.cache.Lookup)
		logger.DebugContext(ctx, "Month loaded",
			applog.FieldYear, grid.Year,
			applog.FieldMonth, int(grid.Month),
			applog.FieldGridVersion, version)
		return view, nil
	}

	metrics.StaleFetch()
	logger.DebugContext(ctx, "Discarded stale month fetch",
		applog.FieldYear, grid.Year,
		applog.FieldMonth, int(grid.Month),
		applog.FieldGridVersion, version)
	view.Stale = true
	view.Days = core.SummarizeGrid(grid, func(k core.DateKey) core.DayLedger { return entries[k] })
	return view, nil
}

// ShiftMonth moves the active grid by delta months. Without an active grid
// it starts from the current month.
func (s *LedgerService) ShiftMonth(ctx context.Context, delta int) (MonthView, error) {
	grid, _ := s.cache.Grid()
	if len(grid.Keys) == 0 {
		now := s.now()
		return s.ShowMonth(ctx, time.Date(now.Year(), now.Month()+time.Month(delta), 1, 0, 0, 0, 0, time.UTC))
	}
	return s.ShowMonth(ctx, time.Date(grid.Year, grid.Month+time.Month(delta), 1, 0, 0, 0, 0, time.UTC))
}

// Grid returns the active grid.
func (s *LedgerService) Grid() core.Grid {
	g, _ := s.cache.Grid()
	return g
}

// Summaries aggregates every day of the active grid from the cache.
func (s *LedgerService) Summaries() []core.DaySummary {
	g, _ := s.cache.Grid()
	return core.SummarizeGrid(g, s.cache.Lookup)
}

// Lookup returns the cached ledger for key, or an empty ledger.
func (s *LedgerService) Lookup(key core.DateKey) core.DayLedger {
	return s.cache.Lookup(key)
}

// Day returns key's ledger from the cache when the key is in the active
// grid, otherwise straight from the store without caching it.
func (s *LedgerService) Day(ctx context.Context, key core.DateKey) (core.DayLedger, error) {
	if _, err := core.ParseKey(string(key)); err != nil {
		return nil, err
	}
	g, _ := s.cache.Grid()
	if g.Contains(key) && s.cache.Has(key) {
		return s.cache.Lookup(key), nil
	}
	start := time.Now()
	l, err := s.store.Fetch(ctx, key)
	metrics.ObserveOperation(applog.OpFetch, start, err)
	return l, err
}

// Refresh re-reads key and patches the cache if key is in the active grid.
// It is used when another process changed the key.
func (s *LedgerService) Refresh(ctx context.Context, key core.DateKey) error {
	if _, err := core.ParseKey(string(key)); err != nil {
		return err
	}
	g, _ := s.cache.Grid()
	if !g.Contains(key) {
		return nil
	}
	start := time.Now()
	l, err := s.store.Fetch(ctx, key)
	metrics.ObserveOperation(applog.OpFetch, start, err)
	if err != nil {
		return err
	}
	s.cache.Patch(key, l)
	return nil
}

// Add appends rec to key's ledger.
func (s *LedgerService) Add(ctx context.Context, key core.DateKey, rec core.Record) (core.DayLedger, error) {
	return s.apply(ctx, applog.OpAppend, key, func() (core.DayLedger, string, error) {
		l, err := s.store.Append(ctx, key, rec)
		if err != nil {
			return nil, "", err
		}
		return l, l[len(l)-1].ID, nil
	})
}

// Edit replaces the record at index.
func (s *LedgerService) Edit(ctx context.Context, key core.DateKey, index int, rec core.Record) (core.DayLedger, error) {
	return s.apply(ctx, applog.OpReplace, key, func() (core.DayLedger, string, error) {
		l, err := s.store.Replace(ctx, key, index, rec)
		if err != nil {
			return nil, "", err
		}
		return l, l[index].ID, nil
	})
}

// Remove deletes the record at index.
func (s *LedgerService) Remove(ctx context.Context, key core.DateKey, index int) (core.DayLedger, error) {
	return s.apply(ctx, applog.OpRemove, key, func() (core.DayLedger, string, error) {
		l, err := s.store.RemoveAt(ctx, key, index)
		return l, "", err
	})
}

// Toggle flips the done flag of the record at index.
func (s *LedgerService) Toggle(ctx context.Context, key core.DateKey, index int) (core.DayLedger, error) {
	return s.apply(ctx, applog.OpToggle, key, func() (core.DayLedger, string, error) {
		l, err := s.store.ToggleDone(ctx, key, index)
		if err != nil {
			return nil, "", err
		}
		return l, l[index].ID, nil
	})
}

// EditByID replaces the record identified by id.
func (s *LedgerService) EditByID(ctx context.Context, key core.DateKey, id string, rec core.Record) (core.DayLedger, error) {
	return s.apply(ctx, applog.OpUpdate, key, func() (core.DayLedger, string, error) {
		l, err := s.store.UpdateByID(ctx, key, id, rec)
		return l, id, err
	})
}

// RemoveByID deletes the record identified by id.
func (s *LedgerService) RemoveByID(ctx context.Context, key core.DateKey, id string) (core.DayLedger, error) {
	return s.apply(ctx, applog.OpDelete, key, func() (core.DayLedger, string, error) {
		l, err := s.store.RemoveByID(ctx, key, id)
		return l, id, err
	})
}

// apply runs a store mutation and patches the cache with the returned
// ledger, which the cache ignores for keys outside the active grid. A change
// event follows; publish failures are logged only.
func (s *LedgerService) apply(ctx context.Context, op string, key core.DateKey, fn func() (core.DayLedger, string, error)) (core.DayLedger, error) {
	logger := applog.FromContext(ctx).WithComponent(applog.ComponentLedger)

	start := time.Now()
	l, recordID, err := fn()
	metrics.ObserveOperation(op, start, err)
	if err != nil {
		if isStorageFailure(err) {
			logger.ErrorContext(ctx, "Ledger mutation failed",
				applog.FieldOperation, op,
				applog.FieldDateKey, string(key),
				applog.FieldError, err)
		}
		return nil, err
	}

	s.cache.Patch(key, l)

	applog.NewStructuredLogger(logger).LogMutation(ctx, op, string(key), len(l), recordID)

	if err := s.publish(ctx, op, key, len(l), recordID); err != nil {
		logger.ErrorContext(ctx, "Failed to publish ledger change",
			applog.FieldOperation, op,
			applog.FieldDateKey, string(key),
			applog.FieldError, err)
	}
	return l, nil
}

func (s *LedgerService) publish(ctx context.Context, op string, key core.DateKey, length int, recordID string) error {
	if s.publisher == nil {
		return nil
	}
	err := s.publisher.PublishLedgerChanged(ctx, amqp.NewLedgerChangedMessage(string(key), op, length, recordID))
	metrics.EventPublished(err)
	return err
}

// isStorageFailure reports errors that are not caused by the request itself.
func isStorageFailure(err error) bool {
	return errors.Is(err, ledger.ErrStorageUnavailable) || errors.Is(err, ledger.ErrCorruptLedger)
}
