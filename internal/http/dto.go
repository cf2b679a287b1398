package http

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"planner/internal/core"
)

// amountInput accepts a JSON number or string such as "1,250.50" and
// holds a strictly positive decimal.
type amountInput struct {
	decimal.Decimal
}

func (a *amountInput) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	d, err := core.ParseAmount(s)
	if err != nil {
		return fmt.Errorf("%w: %s", err, b)
	}
	a.Decimal = d
	return nil
}

func (a *amountInput) value() decimal.Decimal {
	if a == nil {
		return decimal.Zero
	}
	return a.Decimal
}

type entryRequest struct {
	ID          string       `json:"id" validate:"omitempty,max=64"`
	Amount      *amountInput `json:"amount" validate:"required"`
	Description string       `json:"description" validate:"required,max=200"`
	IsIncome    bool         `json:"isIncome"`
	Date        core.Date    `json:"date"`
	Time        string       `json:"time" validate:"omitempty,datetime=15:04"`
}

func (r entryRequest) entry() core.Entry {
	return core.Entry{
		ID:          r.ID,
		Amount:      r.Amount.value(),
		Description: r.Description,
		IsIncome:    r.IsIncome,
		Date:        r.Date,
		Time:        r.Time,
	}
}

type ruleRequest struct {
	ID          string         `json:"id" validate:"omitempty,max=64"`
	Amount      *amountInput   `json:"amount" validate:"required"`
	Description string         `json:"description" validate:"required,max=200"`
	IsIncome    bool           `json:"isIncome"`
	Frequency   core.Frequency `json:"frequency" validate:"required,oneof=daily weekly monthly yearly"`
	StartDate   core.Date      `json:"startDate" validate:"required"`
}

func (r ruleRequest) rule() core.RecurringRule {
	return core.RecurringRule{
		ID:          r.ID,
		Amount:      r.Amount.value(),
		Description: r.Description,
		IsIncome:    r.IsIncome,
		Frequency:   r.Frequency,
		StartDate:   r.StartDate,
	}
}

type goalRequest struct {
	ID           string        `json:"id" validate:"omitempty,max=64"`
	Type         core.GoalType `json:"type" validate:"required,oneof=spending saving"`
	Name         string        `json:"name" validate:"required,max=200"`
	TargetAmount *amountInput  `json:"targetAmount" validate:"required"`
	Month        core.Month    `json:"month"`
}

func (r goalRequest) goal() core.BudgetGoal {
	return core.BudgetGoal{
		ID:           r.ID,
		Type:         r.Type,
		Name:         r.Name,
		TargetAmount: r.TargetAmount.value(),
		Month:        r.Month,
	}
}

type categoryRequest struct {
	Kind core.CategoryKind `json:"kind" validate:"required,oneof=income expense"`
	Name string            `json:"name" validate:"required,max=200"`
	Icon string            `json:"icon" validate:"max=16"`
}

type currencyRequest struct {
	Currency string `json:"currency" validate:"required,len=3,alpha"`
}

type currencyResponse struct {
	Currency  string   `json:"currency"`
	Symbol    string   `json:"symbol"`
	Supported []string `json:"supported"`
}

type countResponse struct {
	Count int `json:"count"`
}

type suggestionsResponse struct {
	Suggestions []string `json:"suggestions"`
}
