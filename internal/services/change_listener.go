package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"nutrilog/internal/amqp"
	"nutrilog/internal/core"
	"nutrilog/internal/ledger"
	applog "nutrilog/internal/log"
)

// ChangeSource delivers ledger change events. *amqp.Client implements it.
type ChangeSource interface {
	ConsumeLedgerChanges(ctx context.Context, handler func(*amqp.LedgerChangedMessage) error) error
}

// ChangeListener refreshes the calendar view when another process changes
// a day's ledger.
type ChangeListener struct {
	source  ChangeSource
	service *LedgerService

	// Lifecycle management
	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	doneCh  chan struct{}
}

func NewChangeListener(source ChangeSource, service *LedgerService) *ChangeListener {
	return &ChangeListener{source: source, service: service}
}

// Start begins consuming in the background. Returns an error if already running.
func (l *ChangeListener) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running {
		return errors.New("change listener is already running")
	}
	ctx, cancel := context.WithCancel(ctx)
	l.running = true
	l.cancel = cancel
	l.doneCh = make(chan struct{})

	go l.run(ctx, l.doneCh)

	slog.InfoContext(ctx, "Change listener started")
	return nil
}

func (l *ChangeListener) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	err := l.source.ConsumeLedgerChanges(ctx, l.handle)
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.ErrorContext(ctx, "Change listener stopped", applog.FieldError, err)
	}
	l.mu.Lock()
	l.running = false
	l.mu.Unlock()
}

// handle refreshes the changed key. Only storage outages are returned, so
// the message is requeued; invalid keys and corrupt ledgers would fail the
// same way on every redelivery and are dropped.
func (l *ChangeListener) handle(msg *amqp.LedgerChangedMessage) error {
	key, err := core.ParseKey(msg.DateKey)
	if err != nil {
		slog.Warn("Ignoring change for invalid key",
			applog.FieldDateKey, msg.DateKey,
			applog.FieldError, err)
		return nil
	}
	err = l.service.Refresh(context.Background(), key)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ledger.ErrCorruptLedger):
		slog.Error("Dropping change for corrupt ledger",
			applog.FieldDateKey, string(key),
			applog.FieldError, err)
		return nil
	default:
		return fmt.Errorf("refresh %s: %w", key, err)
	}
}

// Stop cancels consumption and waits for it to finish or for ctx.
func (l *ChangeListener) Stop(ctx context.Context) error {
	l.mu.Lock()
	if l.cancel == nil {
		l.mu.Unlock()
		return nil
	}
	cancel, done := l.cancel, l.doneCh
	l.cancel = nil
	l.mu.Unlock()

	cancel()
	select {
	case <-done:
		slog.InfoContext(ctx, "Change listener stopped gracefully")
		return nil
	case <-ctx.Done():
		slog.WarnContext(ctx, "Change listener stop timed out")
		return ctx.Err()
	}
}

// IsRunning returns whether the listener is consuming
func (l *ChangeListener) IsRunning() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}
