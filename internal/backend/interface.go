package backend

import (
	"context"

	"planner/internal/amqp"
	"planner/internal/services"
	"planner/internal/sheets"
	"planner/internal/storage"
)

// CleanupFunc releases the resources a backend holds.
type CleanupFunc func() error

// BackendResult bundles the store with the optional sync plumbing.
type BackendResult struct {
	Store storage.Store
	// AMQP is nil when no broker is configured or reachable.
	AMQP *amqp.Client
	// Remote is nil when no Google credentials are configured.
	Remote sheets.RemoteLedger

	Cleanup CleanupFunc
}

// LedgerOptions wires the optional publisher and remote into a
// LedgerService.
func (b *BackendResult) LedgerOptions() []services.Option {
	var opts []services.Option
	if b.AMQP != nil {
		opts = append(opts, services.WithPublisher(b.AMQP))
	}
	if b.Remote != nil {
		opts = append(opts, services.WithRemote(b.Remote))
	}
	return opts
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Optional sync broker
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Optional remote mirror
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string
	GoogleRequestsPerSecond  float64
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
