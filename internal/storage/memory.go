package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"planner/internal/core"
)

type memEntry struct {
	entry  core.Entry
	synced bool
	seq    int
}

// MemoryStore is an in-process Store used for tests and the memory backend.
type MemoryStore struct {
	mu         sync.RWMutex
	entries    map[string]*memEntry
	seq        int
	rules      []core.RecurringRule
	goals      []core.BudgetGoal
	categories []core.Category
	settings   map[string]string
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns a store seeded with the default categories and
// currency, matching a freshly migrated database.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries:    make(map[string]*memEntry),
		categories: core.DefaultCategories().All(),
		settings:   map[string]string{SettingCurrency: core.DefaultCurrency},
	}
}

func (m *MemoryStore) sortedEntries(pred func(*memEntry) bool) []core.Entry {
	list := make([]*memEntry, 0, len(m.entries))
	for _, e := range m.entries {
		if pred == nil || pred(e) {
			list = append(list, e)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].entry.Date.Equal(list[j].entry.Date) {
			return list[i].entry.Date.Before(list[j].entry.Date)
		}
		return list[i].seq < list[j].seq
	})
	out := make([]core.Entry, len(list))
	for i, e := range list {
		out[i] = e.entry
	}
	return out
}

func (m *MemoryStore) ListEntries(ctx context.Context) ([]core.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sortedEntries(nil), nil
}

func (m *MemoryStore) GetEntry(ctx context.Context, id string) (core.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[id]
	if !ok {
		return core.Entry{}, ErrNotFound
	}
	return e.entry, nil
}

func (m *MemoryStore) insertEntry(e core.Entry, synced bool) error {
	if _, exists := m.entries[e.ID]; exists {
		return fmt.Errorf("insert entry %s: %w", e.ID, core.ErrDuplicateID)
	}
	m.seq++
	m.entries[e.ID] = &memEntry{entry: e, synced: synced, seq: m.seq}
	return nil
}

func (m *MemoryStore) InsertEntry(ctx context.Context, e core.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertEntry(e, false)
}

func (m *MemoryStore) UpdateEntry(ctx context.Context, e core.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.entries[e.ID]
	if !ok {
		return ErrNotFound
	}
	cur.entry = e
	cur.synced = false
	return nil
}

func (m *MemoryStore) DeleteEntry(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[id]; !ok {
		return ErrNotFound
	}
	delete(m.entries, id)
	return nil
}

func (m *MemoryStore) replaceEntries(entries []core.Entry, synced bool) error {
	next := make(map[string]*memEntry, len(entries))
	seq := m.seq
	for _, e := range entries {
		if _, dup := next[e.ID]; dup {
			return fmt.Errorf("insert entry %s: %w", e.ID, core.ErrDuplicateID)
		}
		seq++
		next[e.ID] = &memEntry{entry: e, synced: synced, seq: seq}
	}
	m.entries = next
	m.seq = seq
	return nil
}

func (m *MemoryStore) ReplaceEntries(ctx context.Context, entries []core.Entry, synced bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.replaceEntries(entries, synced)
}

func (m *MemoryStore) ListUnsyncedEntries(ctx context.Context, limit int) ([]core.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := m.sortedEntries(func(e *memEntry) bool { return !e.synced })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) MarkSynced(ctx context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		if e, ok := m.entries[id]; ok {
			e.synced = true
		}
	}
	return nil
}

func (m *MemoryStore) ListRules(ctx context.Context) ([]core.RecurringRule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]core.RecurringRule{}, m.rules...), nil
}

func (m *MemoryStore) ruleIndex(id string) int {
	for i, r := range m.rules {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func (m *MemoryStore) GetRule(ctx context.Context, id string) (core.RecurringRule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if i := m.ruleIndex(id); i >= 0 {
		return m.rules[i], nil
	}
	return core.RecurringRule{}, ErrNotFound
}

func (m *MemoryStore) InsertRule(ctx context.Context, r core.RecurringRule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ruleIndex(r.ID) >= 0 {
		return fmt.Errorf("insert rule %s: %w", r.ID, core.ErrDuplicateID)
	}
	m.rules = append(m.rules, r)
	return nil
}

func (m *MemoryStore) UpdateRule(ctx context.Context, r core.RecurringRule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.ruleIndex(r.ID)
	if i < 0 {
		return ErrNotFound
	}
	m.rules[i] = r
	return nil
}

func (m *MemoryStore) DeleteRule(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.ruleIndex(id)
	if i < 0 {
		return ErrNotFound
	}
	m.rules = append(m.rules[:i], m.rules[i+1:]...)
	return nil
}

func (m *MemoryStore) ApplyMaterialization(ctx context.Context, entries []core.Entry, rules []core.RecurringRule) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range entries {
		if _, exists := m.entries[e.ID]; exists {
			return fmt.Errorf("insert entry %s: %w", e.ID, core.ErrDuplicateID)
		}
	}
	for _, r := range rules {
		if m.ruleIndex(r.ID) < 0 {
			return ErrNotFound
		}
	}
	for _, e := range entries {
		_ = m.insertEntry(e, false)
	}
	for _, r := range rules {
		m.rules[m.ruleIndex(r.ID)] = r
	}
	return nil
}

func (m *MemoryStore) ListGoals(ctx context.Context) ([]core.BudgetGoal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]core.BudgetGoal{}, m.goals...), nil
}

func (m *MemoryStore) InsertGoal(ctx context.Context, g core.BudgetGoal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, cur := range m.goals {
		if cur.ID == g.ID {
			return fmt.Errorf("insert goal %s: %w", g.ID, core.ErrDuplicateID)
		}
	}
	m.goals = append(m.goals, g)
	return nil
}

func (m *MemoryStore) DeleteGoal(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, g := range m.goals {
		if g.ID == id {
			m.goals = append(m.goals[:i], m.goals[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (m *MemoryStore) ListCategories(ctx context.Context) ([]core.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return core.GroupCategories(m.categories).All(), nil
}

func (m *MemoryStore) InsertCategory(ctx context.Context, c core.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, cur := range m.categories {
		// Mirrors the NOCASE collation on the SQLite primary key.
		if cur.Kind == c.Kind && strings.EqualFold(cur.Name, c.Name) {
			return fmt.Errorf("insert category %s: %w", c.Name, core.ErrDuplicateCategory)
		}
	}
	m.categories = append(m.categories, c)
	return nil
}

func (m *MemoryStore) DeleteCategory(ctx context.Context, kind core.CategoryKind, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, c := range m.categories {
		if c.Kind == kind && strings.EqualFold(c.Name, name) {
			m.categories = append(m.categories[:i], m.categories[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (m *MemoryStore) GetSetting(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.settings[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *MemoryStore) SetSetting(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[key] = value
	return nil
}

func (m *MemoryStore) ReplaceAll(ctx context.Context, snap core.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.replaceEntries(snap.Entries, false); err != nil {
		return err
	}
	m.rules = append([]core.RecurringRule{}, snap.RecurringEntries...)
	m.goals = append([]core.BudgetGoal{}, snap.BudgetGoals...)
	m.categories = snap.Categories.All()
	currency := snap.Currency
	if currency == "" {
		currency = core.DefaultCurrency
	}
	m.settings[SettingCurrency] = currency
	return nil
}

func (m *MemoryStore) Close() error { return nil }
