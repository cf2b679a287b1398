// Package report holds the pure reducers behind every summary the
// planner shows: totals, groupings, time series and goal progress.
// Nothing here mutates its input or performs I/O.
package report

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"planner/internal/core"
)

// Predicate selects entries for a reducer.
type Predicate func(core.Entry) bool

var (
	Income  Predicate = func(e core.Entry) bool { return e.IsIncome }
	Expense Predicate = func(e core.Entry) bool { return !e.IsIncome }
)

// InMonth matches entries dated inside m.
func InMonth(m core.Month) Predicate {
	return func(e core.Entry) bool { return m.Contains(e.Date) }
}

// OnDate matches entries dated exactly d.
func OnDate(d core.Date) Predicate {
	return func(e core.Entry) bool { return e.Date.Equal(d) }
}

// All matches entries accepted by every predicate.
func All(preds ...Predicate) Predicate {
	return func(e core.Entry) bool {
		for _, p := range preds {
			if !p(e) {
				return false
			}
		}
		return true
	}
}

// TotalBy sums the amounts of entries matching pred.
func TotalBy(entries []core.Entry, pred Predicate) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		if pred == nil || pred(e) {
			total = total.Add(e.Amount)
		}
	}
	return total
}

// Balance is total income minus total expense.
func Balance(entries []core.Entry) decimal.Decimal {
	return TotalBy(entries, Income).Sub(TotalBy(entries, Expense))
}

// Filter returns the entries matching pred, in input order.
func Filter(entries []core.Entry, pred Predicate) []core.Entry {
	out := make([]core.Entry, 0, len(entries))
	for _, e := range entries {
		if pred(e) {
			out = append(out, e)
		}
	}
	return out
}

// GroupSumByDescription groups by exact description and orders groups by
// descending sum. Equal sums keep the order in which the description was
// first seen.
func GroupSumByDescription(entries []core.Entry) []core.DescriptionSum {
	index := map[string]int{}
	out := []core.DescriptionSum{}
	for _, e := range entries {
		i, ok := index[e.Description]
		if !ok {
			i = len(out)
			index[e.Description] = i
			out = append(out, core.DescriptionSum{Description: e.Description, Sum: decimal.Zero})
		}
		out[i].Sum = out[i].Sum.Add(e.Amount)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Sum.GreaterThan(out[j].Sum)
	})
	return out
}

// GroupSumByCategory groups entries under core.NormalizeKey so that
// "rent" and "Rent " land together. Groups matching a known category take
// its name and icon; others keep the first description seen. Percentages
// are relative to the grand total of the input.
func GroupSumByCategory(entries []core.Entry, categories []core.Category) []core.CategorySum {
	index := map[string]int{}
	out := []core.CategorySum{}
	total := decimal.Zero
	for _, e := range entries {
		key := core.NormalizeKey(e.Description)
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			group := core.CategorySum{Name: strings.TrimSpace(e.Description), Sum: decimal.Zero}
			if c, found := core.FindCategory(categories, core.KindFor(e.IsIncome), e.Description); found {
				group.Name, group.Icon = c.Name, c.Icon
			}
			out = append(out, group)
		}
		out[i].Sum = out[i].Sum.Add(e.Amount)
		total = total.Add(e.Amount)
	}
	for i := range out {
		out[i].Percentage = Percentage(out[i].Sum, total)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Sum.GreaterThan(out[j].Sum)
	})
	return out
}

// Percentage returns part/total*100 rounded to one decimal place, or zero
// when total is zero.
func Percentage(part, total decimal.Decimal) decimal.Decimal {
	if total.IsZero() {
		return decimal.Zero
	}
	return part.Div(total).Mul(decimal.NewFromInt(100)).Round(1)
}

// DailySeries returns one bucket per day from ref-(daysBack-1) through ref,
// oldest first. Days without entries are zero.
func DailySeries(entries []core.Entry, daysBack int, ref core.Date) []core.DayTotals {
	if daysBack <= 0 {
		return []core.DayTotals{}
	}
	first := ref.AddDays(-(daysBack - 1))
	series := make([]core.DayTotals, daysBack)
	for i := range series {
		series[i] = core.DayTotals{Date: first.AddDays(i), Income: decimal.Zero, Expense: decimal.Zero}
	}
	for _, e := range entries {
		if e.Date.Before(first) || e.Date.After(ref) {
			continue
		}
		i := int(e.Date.Sub(first.Time) / (24 * time.Hour))
		if e.IsIncome {
			series[i].Income = series[i].Income.Add(e.Amount)
		} else {
			series[i].Expense = series[i].Expense.Add(e.Amount)
		}
	}
	return series
}

// MonthlySeriesYTD returns one bucket per month from January of ref's year
// through ref's month.
func MonthlySeriesYTD(entries []core.Entry, ref core.Date) []core.MonthTotals {
	months := int(ref.Time.Month())
	series := make([]core.MonthTotals, months)
	for i := range series {
		series[i] = core.MonthTotals{
			Month:   core.Month{Year: ref.Year(), Month: time.Month(i + 1)},
			Income:  decimal.Zero,
			Expense: decimal.Zero,
		}
	}
	for _, e := range entries {
		if e.Date.Year() != ref.Year() {
			continue
		}
		i := int(e.Date.Time.Month()) - 1
		if i >= months {
			continue
		}
		if e.IsIncome {
			series[i].Income = series[i].Income.Add(e.Amount)
		} else {
			series[i].Expense = series[i].Expense.Add(e.Amount)
		}
	}
	return series
}
