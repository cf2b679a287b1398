package storage

import (
	"context"
	"errors"

	"planner/internal/core"
)

// ErrNotFound is returned when a record addressed by id does not exist.
var ErrNotFound = errors.New("not found")

// SettingCurrency is the settings key holding the selected currency code.
const SettingCurrency = "currency"

// Store is the persistence port for every planner collection.
//
// Entries are returned ordered by date, then insertion order. Rows that
// cannot be decoded are skipped with a warning rather than failing the
// whole read. Methods taking several collections apply them atomically.
type Store interface {
	ListEntries(ctx context.Context) ([]core.Entry, error)
	GetEntry(ctx context.Context, id string) (core.Entry, error)
	InsertEntry(ctx context.Context, e core.Entry) error
	UpdateEntry(ctx context.Context, e core.Entry) error
	DeleteEntry(ctx context.Context, id string) error
	// ReplaceEntries swaps the whole ledger, marking every entry with the
	// given sync state.
	ReplaceEntries(ctx context.Context, entries []core.Entry, synced bool) error
	ListUnsyncedEntries(ctx context.Context, limit int) ([]core.Entry, error)
	MarkSynced(ctx context.Context, ids []string) error

	ListRules(ctx context.Context) ([]core.RecurringRule, error)
	GetRule(ctx context.Context, id string) (core.RecurringRule, error)
	InsertRule(ctx context.Context, r core.RecurringRule) error
	UpdateRule(ctx context.Context, r core.RecurringRule) error
	DeleteRule(ctx context.Context, id string) error
	// ApplyMaterialization inserts generated entries and stores advanced
	// rules in one transaction.
	ApplyMaterialization(ctx context.Context, entries []core.Entry, rules []core.RecurringRule) error

	ListGoals(ctx context.Context) ([]core.BudgetGoal, error)
	InsertGoal(ctx context.Context, g core.BudgetGoal) error
	DeleteGoal(ctx context.Context, id string) error

	ListCategories(ctx context.Context) ([]core.Category, error)
	InsertCategory(ctx context.Context, c core.Category) error
	DeleteCategory(ctx context.Context, kind core.CategoryKind, name string) error

	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error

	// ReplaceAll overwrites every collection with the snapshot contents.
	ReplaceAll(ctx context.Context, snap core.Snapshot) error

	Close() error
}
