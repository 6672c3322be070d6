// Package backend selects and constructs the key-value backend the ledger
// is stored on, plus the optional change event client.
package backend

import (
	"context"
	"time"

	"nutrilog/internal/amqp"
	"nutrilog/internal/kv"
)

// CleanupFunc releases backend resources
type CleanupFunc func() error

// Result contains the opened store, the optional event client and the
// cleanup function for both.
type Result struct {
	Store kv.Store
	// Events is nil when AMQP is not configured or could not be reached.
	Events  *amqp.Client
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	Create(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	SQLiteDBPath string

	BadgerPath       string
	BadgerGCInterval time.Duration

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of backend
type BackendType string

const (
	MemoryBackend BackendType = "memory"
	SQLiteBackend BackendType = "sqlite"
	BadgerBackend BackendType = "badger"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend, BadgerBackend:
		return true
	default:
		return false
	}
}
