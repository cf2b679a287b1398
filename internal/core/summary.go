package core

import "github.com/shopspring/decimal"

// DescriptionSum is the total of all entries sharing one exact description.
type DescriptionSum struct {
	Description string          `json:"description"`
	Sum         decimal.Decimal `json:"sum"`
}

// CategorySum is a group total keyed by the normalized description.
type CategorySum struct {
	Name       string          `json:"name"`
	Icon       string          `json:"icon,omitempty"`
	Sum        decimal.Decimal `json:"sum"`
	Percentage decimal.Decimal `json:"percentage"`
}

// DayTotals holds income and expense for one calendar day.
type DayTotals struct {
	Date    Date            `json:"date"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
}

// MonthTotals holds income and expense for one calendar month.
type MonthTotals struct {
	Month   Month           `json:"month"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
}

// GoalProgress is a budget goal evaluated against one month of entries.
// Current and Progress are clamped at zero; Net keeps the signed value.
type GoalProgress struct {
	Goal         BudgetGoal      `json:"goal"`
	Current      decimal.Decimal `json:"current"`
	Net          decimal.Decimal `json:"net"`
	Progress     decimal.Decimal `json:"progress"`
	IsOverBudget bool            `json:"isOverBudget"`
}

// Dashboard is the bundle of aggregates shown on the overview screen.
type Dashboard struct {
	Reference      Date             `json:"reference"`
	Currency       string           `json:"currency"`
	TotalIncome    decimal.Decimal  `json:"totalIncome"`
	TotalExpense   decimal.Decimal  `json:"totalExpense"`
	Balance        decimal.Decimal  `json:"balance"`
	TodayIncome    decimal.Decimal  `json:"todayIncome"`
	TodayExpense   decimal.Decimal  `json:"todayExpense"`
	IncomeSources  []DescriptionSum `json:"incomeSources"`
	ExpenseSources []DescriptionSum `json:"expenseSources"`
	MonthExpenses  []CategorySum    `json:"monthExpenses"`
	LastSevenDays  []DayTotals      `json:"lastSevenDays"`
	YearToDate     []MonthTotals    `json:"yearToDate"`
}
