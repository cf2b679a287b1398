package google

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"planner/internal/core"
)

// Header is the first row of the transactions sheet.
var Header = []any{"ID", "Date", "Time", "Type", "Amount", "Description"}

const (
	typeIncome  = "Income"
	typeExpense = "Expense"
)

// Sheets may reformat USER_ENTERED dates according to the spreadsheet
// locale, so reads accept the common renderings.
var dateLayouts = []string{core.DateLayout, "1/2/2006", "2006/01/02", "02.01.2006"}

var clockLayouts = []string{core.ClockLayout, "15:04:05", "3:04 PM", "3:04:05 PM"}

func entryToRow(e core.Entry) []any {
	kind := typeExpense
	if e.IsIncome {
		kind = typeIncome
	}
	return []any{e.ID, e.Date.String(), e.Time, kind, e.Amount.StringFixed(2), e.Description}
}

func rowToEntry(row []any) (core.Entry, error) {
	cols := toStrings(row)
	for len(cols) < len(Header) {
		cols = append(cols, "")
	}

	id := cols[0]
	if id == "" {
		return core.Entry{}, fmt.Errorf("row without id")
	}
	date, err := parseSheetDate(cols[1])
	if err != nil {
		return core.Entry{}, fmt.Errorf("row %s: %w", id, err)
	}
	clock, err := parseSheetClock(cols[2])
	if err != nil {
		return core.Entry{}, fmt.Errorf("row %s: %w", id, err)
	}

	var isIncome bool
	switch strings.ToLower(cols[3]) {
	case "income":
		isIncome = true
	case "expense":
	default:
		return core.Entry{}, fmt.Errorf("row %s: unknown type %q", id, cols[3])
	}

	amount, err := parseSheetAmount(cols[4])
	if err != nil {
		return core.Entry{}, fmt.Errorf("row %s: %w", id, err)
	}

	e := core.Entry{
		ID:          id,
		Amount:      amount,
		Description: cols[5],
		IsIncome:    isIncome,
		Date:        date,
		Time:        clock,
	}
	if err := e.Validate(); err != nil {
		return core.Entry{}, fmt.Errorf("row %s: %w", id, err)
	}
	return e, nil
}

func parseSheetDate(s string) (core.Date, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return core.DateOf(t), nil
		}
	}
	return core.Date{}, fmt.Errorf("%w: %q", core.ErrInvalidDate, s)
}

func parseSheetClock(s string) (string, error) {
	if s == "" {
		return "", nil
	}
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(core.ClockLayout), nil
		}
	}
	return "", fmt.Errorf("%w: %q", core.ErrInvalidTime, s)
}

// parseSheetAmount accepts plain numbers as well as formatted currency
// such as "$1,234.50".
func parseSheetAmount(s string) (decimal.Decimal, error) {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			return r
		}
		return -1
	}, s)
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", core.ErrInvalidAmount, s)
	}
	return d, nil
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

// idsOf collects the non-empty first cell of every row.
func idsOf(values [][]any) map[string]int {
	ids := make(map[string]int, len(values))
	for i, row := range values {
		if len(row) == 0 {
			continue
		}
		id := strings.TrimSpace(fmt.Sprint(row[0]))
		if id == "" {
			continue
		}
		if _, seen := ids[id]; !seen {
			ids[id] = i
		}
	}
	return ids
}
