package google

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"planner/internal/core"
)

func TestEntryRowRoundTrip(t *testing.T) {
	e := core.Entry{
		ID:          "0190f7a2-0000-7000-8000-000000000001",
		Amount:      decimal.RequireFromString("1234.5"),
		Description: "Salary, March",
		IsIncome:    true,
		Date:        core.NewDate(2024, 3, 15),
		Time:        "09:05",
	}
	row := entryToRow(e)
	if row[3] != "Income" || row[4] != "1234.50" || row[1] != "2024-03-15" {
		t.Fatalf("row = %v", row)
	}

	got, err := rowToEntry(row)
	if err != nil {
		t.Fatalf("rowToEntry: %v", err)
	}
	if got.ID != e.ID || !got.Amount.Equal(e.Amount) || !got.Date.Equal(e.Date) || got.Time != e.Time || !got.IsIncome || got.Description != e.Description {
		t.Fatalf("got %+v, want %+v", got, e)
	}
}

func TestRowToEntry_SheetRenderings(t *testing.T) {
	tests := []struct {
		name    string
		row     []any
		want    core.Entry
		wantErr error
	}{
		{
			name: "locale date and currency amount",
			row:  []any{"a", "3/1/2024", "9:30:00 PM", "expense", "$1,020.00", "Rent"},
			want: core.Entry{ID: "a", Amount: decimal.NewFromInt(1020), Description: "Rent", Date: core.NewDate(2024, 3, 1), Time: "21:30"},
		},
		{
			name: "numeric cells",
			want: core.Entry{ID: "17", Amount: decimal.RequireFromString("12.25"), IsIncome: true, Date: core.NewDate(2024, 2, 29), Description: "Refund"},
			row:  []any{17, "2024-02-29", "", "Income", 12.25, "Refund"},
		},
		{
			name:    "short row fails validation",
			row:     []any{"b", "2024-02-29", "", "Income", "1"},
			wantErr: core.ErrEmptyDescription,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := rowToEntry(tt.row)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("rowToEntry: %v", err)
			}
			if got.ID != tt.want.ID || !got.Amount.Equal(tt.want.Amount) || !got.Date.Equal(tt.want.Date) || got.Time != tt.want.Time || got.IsIncome != tt.want.IsIncome {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestRowToEntry_Rejects(t *testing.T) {
	tests := []struct {
		name string
		row  []any
	}{
		{"missing id", []any{"", "2024-01-01", "", "Income", "1", "x"}},
		{"bad date", []any{"a", "yesterday", "", "Income", "1", "x"}},
		{"bad type", []any{"a", "2024-01-01", "", "Transfer", "1", "x"}},
		{"bad amount", []any{"a", "2024-01-01", "", "Income", "n/a", "x"}},
		{"negative amount", []any{"a", "2024-01-01", "", "Income", "-5", "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := rowToEntry(tt.row); err == nil {
				t.Fatalf("expected error for %v", tt.row)
			}
		})
	}
}

func TestIdsOf(t *testing.T) {
	values := [][]any{{"a"}, {}, {" b "}, {"a"}, {""}}
	ids := idsOf(values)
	if len(ids) != 2 || ids["a"] != 0 || ids["b"] != 2 {
		t.Fatalf("ids = %v", ids)
	}
}
