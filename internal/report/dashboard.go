package report

import (
	"strings"

	"planner/internal/core"
)

// DashboardDays is the length of the recent-activity series.
const DashboardDays = 7

// BuildDashboard assembles every overview aggregate for reference day ref.
func BuildDashboard(entries []core.Entry, categories []core.Category, currency string, ref core.Date) core.Dashboard {
	month := ref.MonthOf()
	return core.Dashboard{
		Reference:      ref,
		Currency:       currency,
		TotalIncome:    TotalBy(entries, Income),
		TotalExpense:   TotalBy(entries, Expense),
		Balance:        Balance(entries),
		TodayIncome:    TotalBy(entries, All(Income, OnDate(ref))),
		TodayExpense:   TotalBy(entries, All(Expense, OnDate(ref))),
		IncomeSources:  GroupSumByDescription(Filter(entries, Income)),
		ExpenseSources: GroupSumByDescription(Filter(entries, Expense)),
		MonthExpenses:  GroupSumByCategory(Filter(entries, All(Expense, InMonth(month))), categories),
		LastSevenDays:  DailySeries(entries, DashboardDays, ref),
		YearToDate:     MonthlySeriesYTD(entries, ref),
	}
}

// SuggestionLimit bounds how many recent descriptions feed Suggestions.
const SuggestionLimit = 10

// Suggestions proposes descriptions for the entry form: category names of
// the requested kind first, then the most recent distinct descriptions.
// With a non-empty query, only case-insensitive substring matches that are
// not an exact match are kept.
func Suggestions(entries []core.Entry, categories []core.Category, kind core.CategoryKind, query string) []string {
	seen := map[string]bool{}
	out := []string{}
	add := func(s string) {
		key := core.NormalizeKey(s)
		if key == "" || seen[key] {
			return
		}
		seen[key] = true
		out = append(out, strings.TrimSpace(s))
	}

	for _, c := range categories {
		if kind == "" || c.Kind == kind {
			add(c.Name)
		}
	}
	recent := 0
	for i := len(entries) - 1; i >= 0 && recent < SuggestionLimit; i-- {
		if kind != "" && core.KindFor(entries[i].IsIncome) != kind {
			continue
		}
		add(entries[i].Description)
		recent++
	}

	q := core.NormalizeKey(query)
	if q == "" {
		return out
	}
	filtered := out[:0]
	for _, s := range out {
		key := core.NormalizeKey(s)
		if key != q && strings.Contains(key, q) {
			filtered = append(filtered, s)
		}
	}
	return filtered
}
