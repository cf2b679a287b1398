package report

import (
	"github.com/shopspring/decimal"

	"planner/internal/core"
)

var hundred = decimal.NewFromInt(100)

// EvaluateGoals measures every goal set for month against that month's
// entries, in goal order.
//
// A spending goal tracks expenses whose description equals the goal name
// exactly. A saving goal tracks the month's net flow (income minus
// expense), so all saving goals of one month share the same value.
// Progress is current/target*100 rounded to two places; both are floored
// at zero but progress is not capped. Only spending goals can be over
// budget, as soon as current exceeds the target by any amount.
func EvaluateGoals(goals []core.BudgetGoal, entries []core.Entry, month core.Month) []core.GoalProgress {
	out := []core.GoalProgress{}
	var monthEntries []core.Entry
	var net decimal.Decimal
	evaluated := false

	for _, g := range goals {
		if g.Month != month {
			continue
		}
		if !evaluated {
			monthEntries = Filter(entries, InMonth(month))
			net = TotalBy(monthEntries, Income).Sub(TotalBy(monthEntries, Expense))
			evaluated = true
		}

		var raw decimal.Decimal
		switch g.Type {
		case core.GoalSpending:
			name := g.Name
			raw = TotalBy(monthEntries, func(e core.Entry) bool {
				return !e.IsIncome && e.Description == name
			})
		case core.GoalSaving:
			raw = net
		}

		// Over budget is decided on the exact amounts; rounding only
		// affects the reported percentage.
		progress, over := decimal.Zero, false
		if g.TargetAmount.IsPositive() {
			progress = raw.Div(g.TargetAmount).Mul(hundred).Round(2)
			over = g.Type == core.GoalSpending && raw.GreaterThan(g.TargetAmount)
		}

		out = append(out, core.GoalProgress{
			Goal:         g,
			Current:      decimal.Max(raw, decimal.Zero),
			Net:          raw,
			Progress:     decimal.Max(progress, decimal.Zero),
			IsOverBudget: over,
		})
	}
	return out
}
