package services

import (
	"fmt"
	"sort"
	"time"

	"planner/internal/core"
)

// MaterializeResult holds the entries produced by one materialization run
// together with every rule, advanced past today where it was due.
type MaterializeResult struct {
	NewEntries   []core.Entry
	UpdatedRules []core.RecurringRule
}

// Materializer expands elapsed occurrences of recurring rules into ledger
// entries. It is pure apart from the id generator and clock it is given.
type Materializer struct {
	// NewID generates entry ids.
	NewID func() string
	// Clock supplies the wall-clock time stamped on generated entries.
	Clock func() time.Time
}

// NewMaterializer returns a Materializer using UUIDv7 ids and the system clock.
func NewMaterializer() *Materializer {
	return &Materializer{NewID: core.NewID, Clock: time.Now}
}

// Materialize emits one entry for every occurrence of every rule falling
// on or before today, starting at each rule's NextDueDate, and returns
// the rules with NextDueDate moved to the first occurrence after today.
//
// Rules are validated up front; an invalid rule aborts the run without
// output. New entries are ordered by date, rules keep their input order.
// Callers must persist UpdatedRules together with NewEntries before the
// next run, or occurrences will be emitted twice.
func (m *Materializer) Materialize(rules []core.RecurringRule, today core.Date) (MaterializeResult, error) {
	if err := today.Validate(); err != nil {
		return MaterializeResult{}, fmt.Errorf("today: %w", err)
	}

	advancersByRule := make([]Advancer, len(rules))
	for i, r := range rules {
		if err := r.Validate(); err != nil {
			return MaterializeResult{}, fmt.Errorf("rule %s: %w", r.ID, err)
		}
		a, err := GetAdvancer(r.Frequency)
		if err != nil {
			return MaterializeResult{}, fmt.Errorf("rule %s: %w", r.ID, err)
		}
		advancersByRule[i] = a
	}

	clock := m.clock().Format(core.ClockLayout)
	result := MaterializeResult{
		NewEntries:   []core.Entry{},
		UpdatedRules: make([]core.RecurringRule, 0, len(rules)),
	}

	for i, r := range rules {
		cursor := r.NextDueDate
		for !cursor.After(today) {
			result.NewEntries = append(result.NewEntries, core.Entry{
				ID:          m.newID(),
				Amount:      r.Amount,
				Description: r.Description,
				IsIncome:    r.IsIncome,
				Date:        cursor,
				Time:        clock,
			})
			next := advancersByRule[i].Next(cursor, r.StartDate)
			if !next.After(cursor) {
				return MaterializeResult{}, fmt.Errorf("rule %s: %s advance did not move past %s", r.ID, r.Frequency, cursor)
			}
			cursor = next
		}
		r.NextDueDate = cursor
		result.UpdatedRules = append(result.UpdatedRules, r)
	}

	sort.SliceStable(result.NewEntries, func(i, j int) bool {
		return result.NewEntries[i].Date.Before(result.NewEntries[j].Date)
	})

	return result, nil
}

func (m *Materializer) newID() string {
	if m.NewID != nil {
		return m.NewID()
	}
	return core.NewID()
}

func (m *Materializer) clock() time.Time {
	if m.Clock != nil {
		return m.Clock()
	}
	return time.Now()
}
