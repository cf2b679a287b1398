package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"planner/internal/cache"
	"planner/internal/core"
	"planner/internal/report"
	"planner/internal/sheets"
	"planner/internal/storage"
)

// ErrRemoteDisabled is returned by remote operations when no remote ledger
// is configured.
var ErrRemoteDisabled = errors.New("remote ledger not configured")

// Publisher announces entry changes to the sync worker.
type Publisher interface {
	PublishEntrySync(ctx context.Context, entryID string) error
	PublishEntryDelete(ctx context.Context, entryID string) error
}

// LedgerService owns the ledger and recurring rules. Every mutation and
// every materialization runs under one mutex, so a read-then-write of the
// rules can never interleave with another writer.
type LedgerService struct {
	mu           sync.Mutex
	store        storage.Store
	publisher    Publisher
	remote       sheets.RemoteLedger
	materializer *Materializer
	loc          *time.Location
	now          func() time.Time

	version    atomic.Uint64
	dashboards *cache.Memo[core.Dashboard]
}

type Option func(*LedgerService)

func WithPublisher(p Publisher) Option {
	return func(s *LedgerService) { s.publisher = p }
}

func WithRemote(r sheets.RemoteLedger) Option {
	return func(s *LedgerService) { s.remote = r }
}

// WithLocation sets the zone used to decide what "today" is.
func WithLocation(loc *time.Location) Option {
	return func(s *LedgerService) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *LedgerService) { s.now = now }
}

func WithMaterializer(m *Materializer) Option {
	return func(s *LedgerService) { s.materializer = m }
}

// WithReportTTL bounds how long a memoized dashboard is kept.
func WithReportTTL(ttl time.Duration) Option {
	return func(s *LedgerService) {
		if ttl > 0 {
			s.dashboards = cache.NewMemo[core.Dashboard](ttl)
		}
	}
}

func NewLedgerService(store storage.Store, opts ...Option) *LedgerService {
	s := &LedgerService{
		store:        store,
		materializer: NewMaterializer(),
		loc:          time.Local,
		now:          time.Now,
		dashboards:   cache.NewMemo[core.Dashboard](5 * time.Minute),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now reads the service clock.
func (s *LedgerService) Now() time.Time {
	return s.now()
}

// Today returns the current calendar date in the service's location.
func (s *LedgerService) Today() core.Date {
	return core.DateOf(s.now().In(s.loc))
}

// Version changes whenever any collection feeding a report changes.
func (s *LedgerService) Version() uint64 {
	return s.version.Load()
}

func (s *LedgerService) touch() {
	s.version.Add(1)
}

// RemoteEnabled reports whether a remote ledger is configured.
func (s *LedgerService) RemoteEnabled() bool {
	return s.remote != nil
}

// Entries

func (s *LedgerService) ListEntries(ctx context.Context, month core.Month) ([]core.Entry, error) {
	entries, err := s.store.ListEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	if month.IsZero() {
		return entries, nil
	}
	return report.Filter(entries, report.InMonth(month)), nil
}

// CreateEntry stores a new entry. A missing id, date or time is filled in
// from the id generator and the service clock.
func (s *LedgerService) CreateEntry(ctx context.Context, e core.Entry) (core.Entry, error) {
	if e.ID == "" {
		e.ID = core.NewID()
	}
	now := s.now().In(s.loc)
	if e.Date.IsZero() {
		e.Date = core.DateOf(now)
	}
	if e.Time == "" {
		e.Time = now.Format(core.ClockLayout)
	}
	e.Description = strings.TrimSpace(e.Description)
	if err := e.Validate(); err != nil {
		return core.Entry{}, err
	}

	s.mu.Lock()
	err := s.store.InsertEntry(ctx, e)
	if err == nil {
		s.touch()
	}
	s.mu.Unlock()
	if err != nil {
		return core.Entry{}, fmt.Errorf("create entry: %w", err)
	}

	slog.InfoContext(ctx, "Entry created", "id", e.ID, "income", e.IsIncome, "date", e.Date)
	s.publishSync(ctx, e.ID)
	return e, nil
}

// UpdateEntry rewrites every field of an existing entry except its id.
func (s *LedgerService) UpdateEntry(ctx context.Context, e core.Entry) (core.Entry, error) {
	e.Description = strings.TrimSpace(e.Description)
	if err := e.Validate(); err != nil {
		return core.Entry{}, err
	}

	s.mu.Lock()
	err := s.store.UpdateEntry(ctx, e)
	if err == nil {
		s.touch()
	}
	s.mu.Unlock()
	if err != nil {
		return core.Entry{}, fmt.Errorf("update entry: %w", err)
	}

	s.publishSync(ctx, e.ID)
	return e, nil
}

func (s *LedgerService) DeleteEntry(ctx context.Context, id string) error {
	s.mu.Lock()
	err := s.store.DeleteEntry(ctx, id)
	if err == nil {
		s.touch()
	}
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}

	slog.InfoContext(ctx, "Entry deleted", "id", id)
	s.publishDelete(ctx, id)
	return nil
}

// ReplaceEntries swaps the whole ledger for an imported one. Every entry
// is validated first; nothing changes if any is rejected.
func (s *LedgerService) ReplaceEntries(ctx context.Context, entries []core.Entry) error {
	if err := core.ValidateEntries(entries); err != nil {
		return fmt.Errorf("entries%w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.ReplaceEntries(ctx, entries, false); err != nil {
		return fmt.Errorf("replace entries: %w", err)
	}
	s.touch()
	slog.InfoContext(ctx, "Ledger replaced", "entries", len(entries))
	return nil
}

// Recurring rules

func (s *LedgerService) ListRules(ctx context.Context) ([]core.RecurringRule, error) {
	rules, err := s.store.ListRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	return rules, nil
}

// CreateRule stores a new rule due first on its start date, then
// materializes so occurrences up to today appear immediately.
func (s *LedgerService) CreateRule(ctx context.Context, r core.RecurringRule) (core.RecurringRule, error) {
	if r.ID == "" {
		r.ID = core.NewID()
	}
	r.Description = strings.TrimSpace(r.Description)
	r.NextDueDate = r.StartDate
	if err := r.Validate(); err != nil {
		return core.RecurringRule{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.InsertRule(ctx, r); err != nil {
		return core.RecurringRule{}, fmt.Errorf("create rule: %w", err)
	}
	s.touch()
	if _, err := s.materializeLocked(ctx, s.now()); err != nil {
		// A rule whose first run failed is not kept half-created.
		if derr := s.store.DeleteRule(ctx, r.ID); derr != nil {
			return core.RecurringRule{}, errors.Join(err, fmt.Errorf("roll back rule %s: %w", r.ID, derr))
		}
		return core.RecurringRule{}, err
	}
	return s.store.GetRule(ctx, r.ID)
}

// UpdateRule edits a rule's template fields: amount, description,
// frequency and polarity. The start and next due dates belong to the
// materializer and are kept as stored, so an edit never moves the schedule
// or rewrites entries already produced.
func (s *LedgerService) UpdateRule(ctx context.Context, r core.RecurringRule) (core.RecurringRule, error) {
	r.Description = strings.TrimSpace(r.Description)

	s.mu.Lock()
	defer s.mu.Unlock()
	cur, err := s.store.GetRule(ctx, r.ID)
	if err != nil {
		return core.RecurringRule{}, fmt.Errorf("update rule: %w", err)
	}
	r.StartDate = cur.StartDate
	r.NextDueDate = cur.NextDueDate
	if err := r.Validate(); err != nil {
		return core.RecurringRule{}, err
	}
	if err := s.store.UpdateRule(ctx, r); err != nil {
		return core.RecurringRule{}, fmt.Errorf("update rule: %w", err)
	}
	s.touch()
	return r, nil
}

// DeleteRule removes the rule. Entries it already produced stay.
func (s *LedgerService) DeleteRule(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.DeleteRule(ctx, id); err != nil {
		return fmt.Errorf("delete rule: %w", err)
	}
	s.touch()
	return nil
}

// Materialize expands every rule up to the date of now in the service's
// location and persists the result atomically. It returns how many
// entries were generated.
func (s *LedgerService) Materialize(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.materializeLocked(ctx, now)
}

func (s *LedgerService) materializeLocked(ctx context.Context, now time.Time) (int, error) {
	rules, err := s.store.ListRules(ctx)
	if err != nil {
		return 0, fmt.Errorf("list rules: %w", err)
	}
	if len(rules) == 0 {
		return 0, nil
	}

	m := *s.materializer
	stamp := now.In(s.loc)
	m.Clock = func() time.Time { return stamp }
	today := core.DateOf(stamp)

	res, err := m.Materialize(rules, today)
	if err != nil {
		return 0, fmt.Errorf("materialize: %w", err)
	}
	if len(res.NewEntries) == 0 {
		return 0, nil
	}

	if err := s.store.ApplyMaterialization(ctx, res.NewEntries, res.UpdatedRules); err != nil {
		return 0, fmt.Errorf("persist materialization: %w", err)
	}
	s.touch()

	slog.InfoContext(ctx, "Recurring rules materialized",
		"today", today,
		"rules", len(rules),
		"entries", len(res.NewEntries))

	for _, e := range res.NewEntries {
		s.publishSync(ctx, e.ID)
	}
	return len(res.NewEntries), nil
}

// Budget goals

func (s *LedgerService) ListGoals(ctx context.Context) ([]core.BudgetGoal, error) {
	goals, err := s.store.ListGoals(ctx)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	return goals, nil
}

func (s *LedgerService) CreateGoal(ctx context.Context, g core.BudgetGoal) (core.BudgetGoal, error) {
	if g.ID == "" {
		g.ID = core.NewID()
	}
	g.Name = strings.TrimSpace(g.Name)
	if g.Month.IsZero() {
		g.Month = s.Today().MonthOf()
	}
	if err := g.Validate(); err != nil {
		return core.BudgetGoal{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.InsertGoal(ctx, g); err != nil {
		return core.BudgetGoal{}, fmt.Errorf("create goal: %w", err)
	}
	s.touch()
	return g, nil
}

func (s *LedgerService) DeleteGoal(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.DeleteGoal(ctx, id); err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	s.touch()
	return nil
}

// GoalProgress evaluates the goals of month against the ledger. A zero
// month means the current one.
func (s *LedgerService) GoalProgress(ctx context.Context, month core.Month) ([]core.GoalProgress, error) {
	if month.IsZero() {
		month = s.Today().MonthOf()
	}
	goals, err := s.store.ListGoals(ctx)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	entries, err := s.store.ListEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return report.EvaluateGoals(goals, entries, month), nil
}

// Categories

func (s *LedgerService) ListCategories(ctx context.Context) (core.CategorySet, error) {
	cats, err := s.store.ListCategories(ctx)
	if err != nil {
		return core.CategorySet{}, fmt.Errorf("list categories: %w", err)
	}
	return core.GroupCategories(cats), nil
}

// AddCategory appends a category; names are unique per kind ignoring case
// and surrounding space.
func (s *LedgerService) AddCategory(ctx context.Context, c core.Category) (core.Category, error) {
	c.Name = strings.TrimSpace(c.Name)
	c.Icon = strings.TrimSpace(c.Icon)
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	cats, err := s.store.ListCategories(ctx)
	if err != nil {
		return core.Category{}, fmt.Errorf("list categories: %w", err)
	}
	if _, exists := core.FindCategory(cats, c.Kind, c.Name); exists {
		return core.Category{}, fmt.Errorf("%w: %s", core.ErrDuplicateCategory, c.Name)
	}
	if err := s.store.InsertCategory(ctx, c); err != nil {
		return core.Category{}, fmt.Errorf("add category: %w", err)
	}
	s.touch()
	return c, nil
}

func (s *LedgerService) DeleteCategory(ctx context.Context, kind core.CategoryKind, name string) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: %q", core.ErrInvalidCategoryKind, kind)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	cats, err := s.store.ListCategories(ctx)
	if err != nil {
		return fmt.Errorf("list categories: %w", err)
	}
	c, ok := core.FindCategory(cats, kind, name)
	if !ok {
		return fmt.Errorf("delete category: %w", storage.ErrNotFound)
	}
	if err := s.store.DeleteCategory(ctx, kind, c.Name); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	s.touch()
	return nil
}

// Settings

// Currency returns the selected currency code, falling back to the
// default when none is stored.
func (s *LedgerService) Currency(ctx context.Context) (string, error) {
	code, err := s.store.GetSetting(ctx, storage.SettingCurrency)
	if errors.Is(err, storage.ErrNotFound) || (err == nil && code == "") {
		return core.DefaultCurrency, nil
	}
	if err != nil {
		return "", fmt.Errorf("get currency: %w", err)
	}
	return code, nil
}

func (s *LedgerService) SetCurrency(ctx context.Context, code string) (string, error) {
	code, err := core.NormalizeCurrency(code)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.SetSetting(ctx, storage.SettingCurrency, code); err != nil {
		return "", fmt.Errorf("set currency: %w", err)
	}
	s.touch()
	return code, nil
}

// Reports

// Dashboard returns the summary for ref, memoized until the next change.
// A zero ref means today.
func (s *LedgerService) Dashboard(ctx context.Context, ref core.Date) (core.Dashboard, error) {
	if ref.IsZero() {
		ref = s.Today()
	}
	return s.dashboards.Get(s.Version(), ref.String(), func() (core.Dashboard, error) {
		entries, err := s.store.ListEntries(ctx)
		if err != nil {
			return core.Dashboard{}, fmt.Errorf("list entries: %w", err)
		}
		cats, err := s.store.ListCategories(ctx)
		if err != nil {
			return core.Dashboard{}, fmt.Errorf("list categories: %w", err)
		}
		currency, err := s.Currency(ctx)
		if err != nil {
			return core.Dashboard{}, err
		}
		return report.BuildDashboard(entries, cats, currency, ref), nil
	})
}

// Suggestions proposes descriptions for a new entry of the given kind.
func (s *LedgerService) Suggestions(ctx context.Context, kind core.CategoryKind, query string) ([]string, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", core.ErrInvalidCategoryKind, kind)
	}
	entries, err := s.store.ListEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	cats, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return report.Suggestions(entries, cats, kind, query), nil
}

// Snapshots

// Snapshot collects every collection for a full backup.
func (s *LedgerService) Snapshot(ctx context.Context) (core.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.store.ListEntries(ctx)
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("list entries: %w", err)
	}
	rules, err := s.store.ListRules(ctx)
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("list rules: %w", err)
	}
	goals, err := s.store.ListGoals(ctx)
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("list goals: %w", err)
	}
	cats, err := s.store.ListCategories(ctx)
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("list categories: %w", err)
	}
	currency, err := s.Currency(ctx)
	if err != nil {
		return core.Snapshot{}, err
	}
	return core.Snapshot{
		Entries:          entries,
		Categories:       core.GroupCategories(cats),
		RecurringEntries: rules,
		BudgetGoals:      goals,
		Currency:         currency,
	}, nil
}

// Restore replaces every collection with the snapshot, all or nothing.
// Empty category lists fall back to the defaults.
func (s *LedgerService) Restore(ctx context.Context, snap core.Snapshot) error {
	if len(snap.Categories.Income) == 0 && len(snap.Categories.Expense) == 0 {
		snap.Categories = core.DefaultCategories()
	}
	if snap.Currency == "" {
		snap.Currency = core.DefaultCurrency
	}
	if err := snap.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.ReplaceAll(ctx, snap); err != nil {
		return fmt.Errorf("restore snapshot: %w", err)
	}
	s.touch()
	s.dashboards.Reset()

	slog.InfoContext(ctx, "Snapshot restored",
		"entries", len(snap.Entries),
		"rules", len(snap.RecurringEntries),
		"goals", len(snap.BudgetGoals))
	return nil
}

// ClearAll wipes every collection back to a fresh install.
func (s *LedgerService) ClearAll(ctx context.Context) error {
	return s.Restore(ctx, core.Snapshot{
		Categories: core.DefaultCategories(),
		Currency:   core.DefaultCurrency,
	})
}

// Remote sync

// PushPending sends up to limit unsynced entries to the remote ledger and
// marks them synced. It returns how many entries were handed over.
func (s *LedgerService) PushPending(ctx context.Context, limit int) (int, error) {
	if s.remote == nil {
		return 0, ErrRemoteDisabled
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	pending, err := s.store.ListUnsyncedEntries(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("list unsynced entries: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	written, err := s.remote.Push(ctx, pending)
	if err != nil {
		return 0, fmt.Errorf("push to remote: %w", err)
	}

	ids := make([]string, len(pending))
	for i, e := range pending {
		ids[i] = e.ID
	}
	if err := s.store.MarkSynced(ctx, ids); err != nil {
		return 0, fmt.Errorf("mark synced: %w", err)
	}

	slog.InfoContext(ctx, "Pushed entries to remote ledger",
		"pending", len(pending),
		"written", written)
	return len(pending), nil
}

// PushEntry mirrors a single entry, used by the AMQP worker.
func (s *LedgerService) PushEntry(ctx context.Context, id string) error {
	if s.remote == nil {
		return ErrRemoteDisabled
	}
	e, err := s.store.GetEntry(ctx, id)
	if err != nil {
		return fmt.Errorf("get entry %s: %w", id, err)
	}
	if _, err := s.remote.Push(ctx, []core.Entry{e}); err != nil {
		return fmt.Errorf("push entry %s: %w", id, err)
	}
	if err := s.store.MarkSynced(ctx, []string{id}); err != nil {
		return fmt.Errorf("mark synced: %w", err)
	}
	return nil
}

// RemoveRemote deletes an entry from the remote ledger.
func (s *LedgerService) RemoveRemote(ctx context.Context, id string) error {
	if s.remote == nil {
		return ErrRemoteDisabled
	}
	if err := s.remote.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete remote entry %s: %w", id, err)
	}
	return nil
}

// Reconcile pulls the remote ledger and combines it with the local one.
// For keep-local and merge the remote is rewritten first, so a failing
// remote leaves the local ledger untouched.
func (s *LedgerService) Reconcile(ctx context.Context, strategy Strategy) (int, error) {
	if s.remote == nil {
		return 0, ErrRemoteDisabled
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	local, err := s.store.ListEntries(ctx)
	if err != nil {
		return 0, fmt.Errorf("list entries: %w", err)
	}
	remote, err := s.remote.Pull(ctx)
	if err != nil {
		return 0, fmt.Errorf("pull remote: %w", err)
	}

	result, err := Reconcile(local, remote, strategy)
	if err != nil {
		return 0, err
	}
	if strategy != KeepRemote {
		if err := s.remote.Replace(ctx, result); err != nil {
			return 0, fmt.Errorf("replace remote: %w", err)
		}
	}
	if err := s.store.ReplaceEntries(ctx, result, true); err != nil {
		return 0, fmt.Errorf("replace entries: %w", err)
	}
	s.touch()

	slog.InfoContext(ctx, "Ledger reconciled",
		"strategy", strategy,
		"local", len(local),
		"remote", len(remote),
		"result", len(result))
	return len(result), nil
}

func (s *LedgerService) publishSync(ctx context.Context, id string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishEntrySync(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message", "id", id, "error", err)
	}
}

func (s *LedgerService) publishDelete(ctx context.Context, id string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishEntryDelete(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish delete message", "id", id, "error", err)
	}
}

// Close closes the underlying store.
func (s *LedgerService) Close() error {
	if s.store == nil {
		return nil
	}
	if err := s.store.Close(); err != nil {
		return fmt.Errorf("close ledger service: %w", err)
	}
	return nil
}
