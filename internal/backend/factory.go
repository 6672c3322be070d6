package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"nutrilog/internal/amqp"
	"nutrilog/internal/kv"
	kvbadger "nutrilog/internal/kv/badger"
	"nutrilog/internal/kv/memory"
	"nutrilog/internal/kv/sqlite"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

// Create implements Factory.Create
func (f *DefaultFactory) Create(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	store, closeStore, err := f.openStore(config)
	if err != nil {
		return nil, err
	}

	var events *amqp.Client
	if config.AMQPURL != "" {
		events, err = amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without change events", "error", err)
			events = nil
		} else {
			f.logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	cleanup := func() error {
		var errs []error
		if events != nil {
			if err := events.Close(); err != nil {
				errs = append(errs, fmt.Errorf("amqp: %w", err))
			}
		}
		if closeStore != nil {
			if err := closeStore(); err != nil {
				errs = append(errs, fmt.Errorf("store: %w", err))
			}
		}
		return errors.Join(errs...)
	}

	return &Result{Store: store, Events: events, Cleanup: cleanup}, nil
}

func (f *DefaultFactory) openStore(config Config) (kv.Store, CleanupFunc, error) {
	switch config.Type {
	case MemoryBackend:
		f.logger.Warn("Using in-memory backend, ledgers are lost on exit")
		return memory.New(), nil, nil

	case SQLiteBackend:
		s, err := sqlite.Open(config.SQLiteDBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
		return s, s.Close, nil

	case BadgerBackend:
		cfg := kvbadger.DefaultConfig(config.BadgerPath)
		cfg.GCInterval = config.BadgerGCInterval
		cfg.Logger = f.logger.With("component", "badger")
		s, err := kvbadger.Open(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize badger store: %w", err)
		}
		f.logger.Info("Initialized badger backend", "path", config.BadgerPath)
		return s, s.Close, nil
	}
	return nil, nil, fmt.Errorf("unsupported backend type: %s", config.Type)
}
