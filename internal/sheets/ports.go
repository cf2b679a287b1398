package sheets

import (
	"context"

	"planner/internal/core"
)

// Ports for outbound adapters.
type (
	// EntryWriter appends entries the remote does not have yet.
	EntryWriter interface {
		// Push appends every entry whose id is not already present and
		// returns how many rows were written.
		Push(ctx context.Context, entries []core.Entry) (int, error)
	}

	EntryReader interface {
		// Pull returns every remote entry in sheet order. Rows that cannot
		// be parsed are skipped.
		Pull(ctx context.Context) ([]core.Entry, error)
	}

	EntryDeleter interface {
		Delete(ctx context.Context, id string) error
	}

	// RemoteLedger is the full remote mirror of the local ledger.
	RemoteLedger interface {
		EntryWriter
		EntryReader
		EntryDeleter
		// Replace rewrites the remote so it holds exactly entries.
		Replace(ctx context.Context, entries []core.Entry) error
	}
)
