// Package ledger persists day ledgers on a key-value backend.
//
// Every day is stored as one JSON array under "@" + date key. Mutations are
// read-modify-write over that whole array, so the store serializes them per
// key; different keys proceed in parallel.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"nutrilog/internal/core"
	"nutrilog/internal/kv"
	applog "nutrilog/internal/log"
)

// KeyPrefix is prepended to a date key to form its storage key.
const KeyPrefix = "@"

// DefaultConcurrency bounds the number of in-flight gets in FetchMany.
const DefaultConcurrency = 8

// Options configures a Store.
type Options struct {
	// Concurrency bounds parallel gets in FetchMany. Zero means DefaultConcurrency.
	Concurrency int
	// NewID generates record identifiers. Nil means random UUIDs.
	NewID func() string
}

// Store reads and writes day ledgers.
type Store struct {
	kv          kv.Store
	locks       *keyLocks
	concurrency int
	newID       func() string
}

func NewStore(backend kv.Store, opts Options) *Store {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return &Store{
		kv:          backend,
		locks:       newKeyLocks(),
		concurrency: opts.Concurrency,
		newID:       opts.NewID,
	}
}

// StorageKey returns the backend key for a date key.
func StorageKey(key core.DateKey) string {
	return KeyPrefix + string(key)
}

// Fetch returns the ledger for key. An absent key yields an empty ledger.
func (s *Store) Fetch(ctx context.Context, key core.DateKey) (core.DayLedger, error) {
	if _, err := core.ParseKey(string(key)); err != nil {
		return nil, err
	}
	return s.read(ctx, key)
}

// FetchMany fetches every key concurrently. Duplicate keys are fetched once.
// The first failure cancels the remaining gets and is returned.
func (s *Store) FetchMany(ctx context.Context, keys []core.DateKey) (map[core.DateKey]core.DayLedger, error) {
	seen := make(map[core.DateKey]struct{}, len(keys))
	unique := make([]core.DateKey, 0, len(keys))
	for _, k := range keys {
		if _, err := core.ParseKey(string(k)); err != nil {
			return nil, err
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		unique = append(unique, k)
	}

	var (
		mu  sync.Mutex
		out = make(map[core.DateKey]core.DayLedger, len(unique))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, k := range unique {
		g.Go(func() error {
			l, err := s.read(gctx, k)
			if err != nil {
				return err
			}
			mu.Lock()
			out[k] = l
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Append adds rec at the end of key's ledger and returns the new ledger.
// A record without an ID gets a fresh one. An ID already in the ledger is
// rejected with ErrDuplicateID.
func (s *Store) Append(ctx context.Context, key core.DateKey, rec core.Record) (core.DayLedger, error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	rec = rec.Normalize()
	if rec.ID == "" {
		rec.ID = s.newID()
	}
	return s.mutate(ctx, key, applog.OpAppend, func(l core.DayLedger) (core.DayLedger, error) {
		if l.IndexOf(rec.ID) >= 0 {
			return nil, duplicateID(key, rec.ID)
		}
		return append(l, rec), nil
	})
}

// Replace overwrites the record at index. The stored ID is kept when rec
// carries none; an ID held by another record is rejected.
func (s *Store) Replace(ctx context.Context, key core.DateKey, index int, rec core.Record) (core.DayLedger, error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	rec = rec.Normalize()
	return s.mutate(ctx, key, applog.OpReplace, func(l core.DayLedger) (core.DayLedger, error) {
		if err := checkIndex(key, index, l); err != nil {
			return nil, err
		}
		if rec.ID == "" {
			rec.ID = l[index].ID
		} else if i := l.IndexOf(rec.ID); i >= 0 && i != index {
			return nil, duplicateID(key, rec.ID)
		}
		l[index] = rec
		return l, nil
	})
}

// RemoveAt deletes the record at index. Later records shift down by one.
func (s *Store) RemoveAt(ctx context.Context, key core.DateKey, index int) (core.DayLedger, error) {
	return s.mutate(ctx, key, applog.OpRemove, func(l core.DayLedger) (core.DayLedger, error) {
		if err := checkIndex(key, index, l); err != nil {
			return nil, err
		}
		return append(l[:index], l[index+1:]...), nil
	})
}

// ToggleDone flips the done flag of the record at index.
func (s *Store) ToggleDone(ctx context.Context, key core.DateKey, index int) (core.DayLedger, error) {
	return s.mutate(ctx, key, applog.OpToggle, func(l core.DayLedger) (core.DayLedger, error) {
		if err := checkIndex(key, index, l); err != nil {
			return nil, err
		}
		l[index].Done = !l[index].Done
		return l, nil
	})
}

// UpdateByID overwrites the record identified by id, keeping its position.
func (s *Store) UpdateByID(ctx context.Context, key core.DateKey, id string, rec core.Record) (core.DayLedger, error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	rec = rec.Normalize()
	rec.ID = id
	return s.mutate(ctx, key, applog.OpUpdate, func(l core.DayLedger) (core.DayLedger, error) {
		i := l.IndexOf(id)
		if i < 0 {
			return nil, fmt.Errorf("ledger %s: %w: %q", key, ErrRecordNotFound, id)
		}
		l[i] = rec
		return l, nil
	})
}

// RemoveByID deletes the record identified by id.
func (s *Store) RemoveByID(ctx context.Context, key core.DateKey, id string) (core.DayLedger, error) {
	return s.mutate(ctx, key, applog.OpDelete, func(l core.DayLedger) (core.DayLedger, error) {
		i := l.IndexOf(id)
		if i < 0 {
			return nil, fmt.Errorf("ledger %s: %w: %q", key, ErrRecordNotFound, id)
		}
		return append(l[:i], l[i+1:]...), nil
	})
}

// mutate runs fn over key's current ledger while holding key's lock and
// persists the result. Nothing is written when fn fails.
func (s *Store) mutate(ctx context.Context, key core.DateKey, op string, fn func(core.DayLedger) (core.DayLedger, error)) (core.DayLedger, error) {
	if _, err := core.ParseKey(string(key)); err != nil {
		return nil, err
	}
	unlock, err := s.locks.lock(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("ledger %s: wait for lock: %w", key, err)
	}
	defer unlock()

	current, err := s.read(ctx, key)
	if err != nil {
		return nil, err
	}
	next, err := fn(current)
	if err != nil {
		return nil, err
	}
	encoded, err := core.EncodeLedger(next)
	if err != nil {
		return nil, fmt.Errorf("ledger %s: encode: %w", key, err)
	}
	if err := s.kv.Set(ctx, StorageKey(key), encoded); err != nil {
		slog.ErrorContext(ctx, "Ledger write failed",
			applog.FieldDateKey, string(key),
			applog.FieldOperation, op,
			applog.FieldError, err)
		return nil, &StorageError{Op: "set", Key: key, Err: err}
	}
	return next.Clone(), nil
}

// read loads and decodes key without locking.
func (s *Store) read(ctx context.Context, key core.DateKey) (core.DayLedger, error) {
	raw, found, err := s.kv.Get(ctx, StorageKey(key))
	if err != nil {
		slog.ErrorContext(ctx, "Ledger read failed",
			applog.FieldDateKey, string(key),
			applog.FieldError, err)
		return nil, &StorageError{Op: "get", Key: key, Err: err}
	}
	if !found {
		return core.DayLedger{}, nil
	}
	l, err := core.DecodeLedger(raw)
	if err != nil {
		return nil, &CorruptLedgerError{Key: key, Err: err}
	}
	return l, nil
}

func duplicateID(key core.DateKey, id string) error {
	return fmt.Errorf("ledger %s: %w: %q", key, ErrDuplicateID, id)
}

func checkIndex(key core.DateKey, index int, l core.DayLedger) error {
	if index < 0 || index >= len(l) {
		return &IndexError{Key: key, Index: index, Len: len(l)}
	}
	return nil
}
