package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

const (
	GoalSpending GoalType = "spending"
	GoalSaving   GoalType = "saving"
)

const (
	KindIncome  CategoryKind = "income"
	KindExpense CategoryKind = "expense"
)

// MaxDescriptionLength bounds descriptions, goal names and category names.
const MaxDescriptionLength = 200

// Amounts carry at most MaxAmountScale fractional digits and stay below
// MaxAmount.
const MaxAmountScale = 8

var MaxAmount = decimal.New(1, 15)

type (
	Frequency    string
	GoalType     string
	CategoryKind string

	// Entry is one recorded income or expense transaction.
	Entry struct {
		ID          string          `json:"id"`
		Amount      decimal.Decimal `json:"amount"`
		Description string          `json:"description"`
		IsIncome    bool            `json:"isIncome"`
		Date        Date            `json:"date"`
		Time        string          `json:"time"`
	}

	// RecurringRule is a template that periodically generates entries.
	RecurringRule struct {
		ID          string          `json:"id"`
		Amount      decimal.Decimal `json:"amount"`
		Description string          `json:"description"`
		IsIncome    bool            `json:"isIncome"`
		Frequency   Frequency       `json:"frequency"`
		StartDate   Date            `json:"startDate"`
		NextDueDate Date            `json:"nextDueDate"`
	}

	// BudgetGoal is a monthly spending ceiling or savings floor.
	BudgetGoal struct {
		ID           string          `json:"id"`
		Type         GoalType        `json:"type"`
		Name         string          `json:"name"`
		TargetAmount decimal.Decimal `json:"targetAmount"`
		Month        Month           `json:"month"`
	}

	Category struct {
		Name string       `json:"name"`
		Icon string       `json:"icon"`
		Kind CategoryKind `json:"-"`
	}

	// CategorySet groups categories by polarity, in display order.
	CategorySet struct {
		Income  []Category `json:"income"`
		Expense []Category `json:"expense"`
	}

	// Snapshot bundles every persisted collection for backup and restore.
	Snapshot struct {
		Entries          []Entry         `json:"entries"`
		Categories       CategorySet     `json:"categories"`
		RecurringEntries []RecurringRule `json:"recurringEntries"`
		BudgetGoals      []BudgetGoal    `json:"budgetGoals"`
		Currency         string          `json:"currency"`
	}
)

var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrEmptyDescription    = errors.New("empty description")
	ErrDescriptionTooLong  = errors.New("description too long")
	ErrEmptyName           = errors.New("empty name")
	ErrInvalidDate         = errors.New("invalid date")
	ErrInvalidMonth        = errors.New("invalid month")
	ErrInvalidTime         = errors.New("invalid time of day")
	ErrInvalidFrequency    = errors.New("invalid frequency")
	ErrInvalidGoalType     = errors.New("invalid goal type")
	ErrInvalidCategoryKind = errors.New("invalid category kind")
	ErrDueBeforeStart      = errors.New("next due date before start date")
	ErrDuplicateCategory   = errors.New("category already exists")
	ErrUnknownCurrency     = errors.New("unknown currency")
	ErrMissingID           = errors.New("missing id")
	ErrDuplicateID         = errors.New("duplicate id")
)

func (f Frequency) Valid() bool {
	switch f {
	case Daily, Weekly, Monthly, Yearly:
		return true
	}
	return false
}

func (g GoalType) Valid() bool {
	return g == GoalSpending || g == GoalSaving
}

func (k CategoryKind) Valid() bool {
	return k == KindIncome || k == KindExpense
}

// KindFor maps entry polarity to the matching category kind.
func KindFor(isIncome bool) CategoryKind {
	if isIncome {
		return KindIncome
	}
	return KindExpense
}

func validateAmount(d decimal.Decimal) error {
	// The exponent is checked before any comparison: rescaling a value
	// such as 1e2000000000 allocates billions of digits.
	if exp := d.Exponent(); exp > 0 || exp < -MaxAmountScale {
		return fmt.Errorf("%w: out of range", ErrInvalidAmount)
	}
	if !d.IsPositive() {
		return ErrInvalidAmount
	}
	if !d.LessThan(MaxAmount) {
		return fmt.Errorf("%w: must be below %s", ErrInvalidAmount, MaxAmount)
	}
	return nil
}

func validateText(s string, empty error) error {
	if len(strings.TrimSpace(s)) == 0 {
		return empty
	}
	if len(s) > MaxDescriptionLength {
		return fmt.Errorf("%w (max %d characters)", ErrDescriptionTooLong, MaxDescriptionLength)
	}
	return nil
}

func (e Entry) Validate() error {
	if err := validateAmount(e.Amount); err != nil {
		return err
	}
	if err := validateText(e.Description, ErrEmptyDescription); err != nil {
		return err
	}
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if e.Time != "" {
		if _, err := time.Parse(ClockLayout, e.Time); err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidTime, e.Time)
		}
	}
	return nil
}

func (r RecurringRule) Validate() error {
	if err := validateAmount(r.Amount); err != nil {
		return err
	}
	if err := validateText(r.Description, ErrEmptyDescription); err != nil {
		return err
	}
	if !r.Frequency.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidFrequency, r.Frequency)
	}
	if err := r.StartDate.Validate(); err != nil {
		return fmt.Errorf("start date: %w", err)
	}
	if err := r.NextDueDate.Validate(); err != nil {
		return fmt.Errorf("next due date: %w", err)
	}
	if r.NextDueDate.Before(r.StartDate) {
		return ErrDueBeforeStart
	}
	return nil
}

func (g BudgetGoal) Validate() error {
	if !g.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidGoalType, g.Type)
	}
	if err := validateText(g.Name, ErrEmptyName); err != nil {
		return err
	}
	if err := validateAmount(g.TargetAmount); err != nil {
		return err
	}
	return g.Month.Validate()
}

func (c Category) Validate() error {
	if !c.Kind.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategoryKind, c.Kind)
	}
	return validateText(c.Name, ErrEmptyName)
}

// All flattens the set, stamping each category with its kind.
func (s CategorySet) All() []Category {
	out := make([]Category, 0, len(s.Income)+len(s.Expense))
	for _, c := range s.Income {
		c.Kind = KindIncome
		out = append(out, c)
	}
	for _, c := range s.Expense {
		c.Kind = KindExpense
		out = append(out, c)
	}
	return out
}

// GroupCategories builds a CategorySet preserving input order.
func GroupCategories(cats []Category) CategorySet {
	set := CategorySet{Income: []Category{}, Expense: []Category{}}
	for _, c := range cats {
		switch c.Kind {
		case KindIncome:
			set.Income = append(set.Income, c)
		case KindExpense:
			set.Expense = append(set.Expense, c)
		}
	}
	return set
}

// Validate checks every record in the snapshot and stops at the first
// problem, naming the offending collection and position.
func (s Snapshot) Validate() error {
	if err := ValidateEntries(s.Entries); err != nil {
		return fmt.Errorf("entries%w", err)
	}
	seen := make(map[string]struct{}, len(s.RecurringEntries))
	for i, r := range s.RecurringEntries {
		if strings.TrimSpace(r.ID) == "" {
			return fmt.Errorf("recurringEntries[%d]: %w", i, ErrMissingID)
		}
		if _, dup := seen[r.ID]; dup {
			return fmt.Errorf("recurringEntries[%d]: %w %s", i, ErrDuplicateID, r.ID)
		}
		seen[r.ID] = struct{}{}
		if err := r.Validate(); err != nil {
			return fmt.Errorf("recurringEntries[%d]: %w", i, err)
		}
	}
	for i, g := range s.BudgetGoals {
		if strings.TrimSpace(g.ID) == "" {
			return fmt.Errorf("budgetGoals[%d]: %w", i, ErrMissingID)
		}
		if err := g.Validate(); err != nil {
			return fmt.Errorf("budgetGoals[%d]: %w", i, err)
		}
	}
	for i, c := range s.Categories.All() {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("categories[%d]: %w", i, err)
		}
	}
	if s.Currency != "" {
		if _, ok := SymbolFor(s.Currency); !ok {
			return fmt.Errorf("%w: %q", ErrUnknownCurrency, s.Currency)
		}
	}
	return nil
}

// ValidateEntries checks a whole ledger: every entry valid, ids present
// and unique.
func ValidateEntries(entries []Entry) error {
	seen := make(map[string]struct{}, len(entries))
	for i, e := range entries {
		if strings.TrimSpace(e.ID) == "" {
			return fmt.Errorf("[%d]: %w", i, ErrMissingID)
		}
		if _, dup := seen[e.ID]; dup {
			return fmt.Errorf("[%d]: %w %s", i, ErrDuplicateID, e.ID)
		}
		seen[e.ID] = struct{}{}
		if err := e.Validate(); err != nil {
			return fmt.Errorf("[%d]: %w", i, err)
		}
	}
	return nil
}
