package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"planner/internal/core"
)

// SQLiteRepository implements Store on a single SQLite file.
type SQLiteRepository struct {
	db *sql.DB
}

var _ Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite serializes writers anyway; one connection keeps transactions simple.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (r *SQLiteRepository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// conflict turns a primary key or unique violation into dup.
func conflict(err, dup error) error {
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
			return dup
		}
	}
	return err
}

func requireRow(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Entries

const entryColumns = "id, amount, description, is_income, date, time"

func scanEntry(row interface{ Scan(...any) error }) (core.Entry, error) {
	var (
		e                 core.Entry
		amount, date, clk string
		isIncome          int
	)
	if err := row.Scan(&e.ID, &amount, &e.Description, &isIncome, &date, &clk); err != nil {
		return core.Entry{}, err
	}
	var err error
	if e.Amount, err = decimal.NewFromString(amount); err != nil {
		return core.Entry{}, fmt.Errorf("amount %q: %w", amount, err)
	}
	if e.Date, err = core.ParseDate(date); err != nil {
		return core.Entry{}, err
	}
	e.IsIncome = isIncome != 0
	e.Time = clk
	return e, nil
}

func (r *SQLiteRepository) queryEntries(ctx context.Context, query string, args ...any) ([]core.Entry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	out := []core.Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			slog.WarnContext(ctx, "Skipping malformed entry row", "error", err)
			continue
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) ListEntries(ctx context.Context) ([]core.Entry, error) {
	return r.queryEntries(ctx, "SELECT "+entryColumns+" FROM entries ORDER BY date, rowid")
}

func (r *SQLiteRepository) GetEntry(ctx context.Context, id string) (core.Entry, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+entryColumns+" FROM entries WHERE id = ?", id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Entry{}, ErrNotFound
	}
	if err != nil {
		return core.Entry{}, fmt.Errorf("get entry %s: %w", id, err)
	}
	return e, nil
}

func insertEntry(ctx context.Context, x execer, e core.Entry, synced bool) error {
	_, err := x.ExecContext(ctx,
		"INSERT INTO entries ("+entryColumns+", synced) VALUES (?, ?, ?, ?, ?, ?, ?)",
		e.ID, e.Amount.String(), e.Description, boolToInt(e.IsIncome), e.Date.String(), e.Time, boolToInt(synced))
	if err != nil {
		return fmt.Errorf("insert entry %s: %w", e.ID, conflict(err, core.ErrDuplicateID))
	}
	return nil
}

func (r *SQLiteRepository) InsertEntry(ctx context.Context, e core.Entry) error {
	return insertEntry(ctx, r.db, e, false)
}

func (r *SQLiteRepository) UpdateEntry(ctx context.Context, e core.Entry) error {
	err := requireRow(r.db.ExecContext(ctx,
		`UPDATE entries SET amount = ?, description = ?, is_income = ?, date = ?, time = ?, synced = 0 WHERE id = ?`,
		e.Amount.String(), e.Description, boolToInt(e.IsIncome), e.Date.String(), e.Time, e.ID))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("update entry %s: %w", e.ID, err)
	}
	return err
}

func (r *SQLiteRepository) DeleteEntry(ctx context.Context, id string) error {
	err := requireRow(r.db.ExecContext(ctx, "DELETE FROM entries WHERE id = ?", id))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("delete entry %s: %w", id, err)
	}
	return err
}

func replaceEntries(ctx context.Context, tx *sql.Tx, entries []core.Entry, synced bool) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM entries"); err != nil {
		return fmt.Errorf("clear entries: %w", err)
	}
	for _, e := range entries {
		if err := insertEntry(ctx, tx, e, synced); err != nil {
			return err
		}
	}
	return nil
}

func (r *SQLiteRepository) ReplaceEntries(ctx context.Context, entries []core.Entry, synced bool) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		return replaceEntries(ctx, tx, entries, synced)
	})
}

func (r *SQLiteRepository) ListUnsyncedEntries(ctx context.Context, limit int) ([]core.Entry, error) {
	return r.queryEntries(ctx,
		"SELECT "+entryColumns+" FROM entries WHERE synced = 0 ORDER BY date, rowid LIMIT ?", limit)
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	if _, err := r.db.ExecContext(ctx, "UPDATE entries SET synced = 1 WHERE id IN ("+placeholders+")", args...); err != nil {
		return fmt.Errorf("mark synced: %w", err)
	}
	return nil
}

// Recurring rules

const ruleColumns = "id, amount, description, is_income, frequency, start_date, next_due_date"

func scanRule(row interface{ Scan(...any) error }) (core.RecurringRule, error) {
	var (
		rule                      core.RecurringRule
		amount, freq, start, next string
		isIncome                  int
	)
	if err := row.Scan(&rule.ID, &amount, &rule.Description, &isIncome, &freq, &start, &next); err != nil {
		return core.RecurringRule{}, err
	}
	var err error
	if rule.Amount, err = decimal.NewFromString(amount); err != nil {
		return core.RecurringRule{}, fmt.Errorf("amount %q: %w", amount, err)
	}
	if rule.StartDate, err = core.ParseDate(start); err != nil {
		return core.RecurringRule{}, err
	}
	if rule.NextDueDate, err = core.ParseDate(next); err != nil {
		return core.RecurringRule{}, err
	}
	rule.IsIncome = isIncome != 0
	rule.Frequency = core.Frequency(freq)
	return rule, nil
}

func (r *SQLiteRepository) ListRules(ctx context.Context) ([]core.RecurringRule, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+ruleColumns+" FROM recurring_rules ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("query rules: %w", err)
	}
	defer rows.Close()

	out := []core.RecurringRule{}
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			slog.WarnContext(ctx, "Skipping malformed recurring rule row", "error", err)
			continue
		}
		out = append(out, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rules: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) GetRule(ctx context.Context, id string) (core.RecurringRule, error) {
	rule, err := scanRule(r.db.QueryRowContext(ctx, "SELECT "+ruleColumns+" FROM recurring_rules WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.RecurringRule{}, ErrNotFound
	}
	if err != nil {
		return core.RecurringRule{}, fmt.Errorf("get rule %s: %w", id, err)
	}
	return rule, nil
}

func insertRule(ctx context.Context, x execer, rule core.RecurringRule) error {
	_, err := x.ExecContext(ctx,
		"INSERT INTO recurring_rules ("+ruleColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)",
		rule.ID, rule.Amount.String(), rule.Description, boolToInt(rule.IsIncome), string(rule.Frequency),
		rule.StartDate.String(), rule.NextDueDate.String())
	if err != nil {
		return fmt.Errorf("insert rule %s: %w", rule.ID, conflict(err, core.ErrDuplicateID))
	}
	return nil
}

func (r *SQLiteRepository) InsertRule(ctx context.Context, rule core.RecurringRule) error {
	return insertRule(ctx, r.db, rule)
}

func updateRule(ctx context.Context, x execer, rule core.RecurringRule) error {
	err := requireRow(x.ExecContext(ctx,
		`UPDATE recurring_rules SET amount = ?, description = ?, is_income = ?, frequency = ?, start_date = ?, next_due_date = ? WHERE id = ?`,
		rule.Amount.String(), rule.Description, boolToInt(rule.IsIncome), string(rule.Frequency),
		rule.StartDate.String(), rule.NextDueDate.String(), rule.ID))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("update rule %s: %w", rule.ID, err)
	}
	return err
}

func (r *SQLiteRepository) UpdateRule(ctx context.Context, rule core.RecurringRule) error {
	return updateRule(ctx, r.db, rule)
}

func (r *SQLiteRepository) DeleteRule(ctx context.Context, id string) error {
	err := requireRow(r.db.ExecContext(ctx, "DELETE FROM recurring_rules WHERE id = ?", id))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("delete rule %s: %w", id, err)
	}
	return err
}

func (r *SQLiteRepository) ApplyMaterialization(ctx context.Context, entries []core.Entry, rules []core.RecurringRule) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		for _, e := range entries {
			if err := insertEntry(ctx, tx, e, false); err != nil {
				return err
			}
		}
		for _, rule := range rules {
			if err := updateRule(ctx, tx, rule); err != nil {
				return err
			}
		}
		return nil
	})
}

// Budget goals

func (r *SQLiteRepository) ListGoals(ctx context.Context) ([]core.BudgetGoal, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, type, name, target_amount, month FROM budget_goals ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("query goals: %w", err)
	}
	defer rows.Close()

	out := []core.BudgetGoal{}
	for rows.Next() {
		var (
			g                    core.BudgetGoal
			goalType, target, mo string
		)
		if err := rows.Scan(&g.ID, &goalType, &g.Name, &target, &mo); err != nil {
			slog.WarnContext(ctx, "Skipping unreadable budget goal row", "error", err)
			continue
		}
		g.Type = core.GoalType(goalType)
		if g.TargetAmount, err = decimal.NewFromString(target); err != nil {
			slog.WarnContext(ctx, "Skipping malformed budget goal row", "id", g.ID, "error", err)
			continue
		}
		if g.Month, err = core.ParseMonth(mo); err != nil {
			slog.WarnContext(ctx, "Skipping malformed budget goal row", "id", g.ID, "error", err)
			continue
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate goals: %w", err)
	}
	return out, nil
}

func insertGoal(ctx context.Context, x execer, g core.BudgetGoal) error {
	_, err := x.ExecContext(ctx,
		"INSERT INTO budget_goals (id, type, name, target_amount, month) VALUES (?, ?, ?, ?, ?)",
		g.ID, string(g.Type), g.Name, g.TargetAmount.String(), g.Month.String())
	if err != nil {
		return fmt.Errorf("insert goal %s: %w", g.ID, conflict(err, core.ErrDuplicateID))
	}
	return nil
}

func (r *SQLiteRepository) InsertGoal(ctx context.Context, g core.BudgetGoal) error {
	return insertGoal(ctx, r.db, g)
}

func (r *SQLiteRepository) DeleteGoal(ctx context.Context, id string) error {
	err := requireRow(r.db.ExecContext(ctx, "DELETE FROM budget_goals WHERE id = ?", id))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("delete goal %s: %w", id, err)
	}
	return err
}

// Categories

func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT kind, name, icon FROM categories ORDER BY kind = 'expense', position")
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	out := []core.Category{}
	for rows.Next() {
		var c core.Category
		var kind string
		if err := rows.Scan(&kind, &c.Name, &c.Icon); err != nil {
			slog.WarnContext(ctx, "Skipping unreadable category row", "error", err)
			continue
		}
		c.Kind = core.CategoryKind(kind)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return out, nil
}

func insertCategory(ctx context.Context, x execer, c core.Category) error {
	_, err := x.ExecContext(ctx,
		`INSERT INTO categories (kind, name, icon, position)
		 VALUES (?, ?, ?, (SELECT COALESCE(MAX(position), -1) + 1 FROM categories WHERE kind = ?))`,
		string(c.Kind), c.Name, c.Icon, string(c.Kind))
	if err != nil {
		return fmt.Errorf("insert category %s: %w", c.Name, conflict(err, core.ErrDuplicateCategory))
	}
	return nil
}

func (r *SQLiteRepository) InsertCategory(ctx context.Context, c core.Category) error {
	return insertCategory(ctx, r.db, c)
}

func (r *SQLiteRepository) DeleteCategory(ctx context.Context, kind core.CategoryKind, name string) error {
	err := requireRow(r.db.ExecContext(ctx, "DELETE FROM categories WHERE kind = ? AND name = ?", string(kind), name))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("delete category %s: %w", name, err)
	}
	return err
}

// Settings

func (r *SQLiteRepository) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get setting %s: %w", key, err)
	}
	return value, nil
}

func setSetting(ctx context.Context, x execer, key, value string) error {
	_, err := x.ExecContext(ctx,
		"INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value)
	if err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	return nil
}

func (r *SQLiteRepository) SetSetting(ctx context.Context, key, value string) error {
	return setSetting(ctx, r.db, key, value)
}

func (r *SQLiteRepository) ReplaceAll(ctx context.Context, snap core.Snapshot) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if err := replaceEntries(ctx, tx, snap.Entries, false); err != nil {
			return err
		}
		for _, table := range []string{"recurring_rules", "budget_goals", "categories"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		for _, rule := range snap.RecurringEntries {
			if err := insertRule(ctx, tx, rule); err != nil {
				return err
			}
		}
		for _, g := range snap.BudgetGoals {
			if err := insertGoal(ctx, tx, g); err != nil {
				return err
			}
		}
		for _, c := range snap.Categories.All() {
			if err := insertCategory(ctx, tx, c); err != nil {
				return err
			}
		}
		currency := snap.Currency
		if currency == "" {
			currency = core.DefaultCurrency
		}
		return setSetting(ctx, tx, SettingCurrency, currency)
	})
}
