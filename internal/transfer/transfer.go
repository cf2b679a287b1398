// Package transfer reads and writes the ledger's file formats: the flat
// transaction CSV, the JSON snapshot and an XLSX workbook export.
package transfer

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"planner/internal/core"
)

// ErrInvalidFormat marks input that is not a file produced by this app.
// Import is all-or-nothing, so any bad row fails the whole file.
var ErrInvalidFormat = errors.New("invalid file format")

// Columns is the transaction header shared by CSV and XLSX.
var Columns = []string{"id", "amount", "description", "isIncome", "date", "time"}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidFormat, fmt.Sprintf(format, args...))
}

func checkHeader(header []string) error {
	if len(header) < len(Columns) {
		return invalid("header has %d columns, want %d", len(header), len(Columns))
	}
	for i, want := range Columns {
		got := strings.TrimSpace(header[i])
		if i == 0 {
			got = strings.TrimPrefix(got, "\ufeff")
		}
		if got != want {
			return invalid("column %d is %q, want %q", i+1, got, want)
		}
	}
	return nil
}

func entryRecord(e core.Entry) []string {
	return []string{
		e.ID,
		e.Amount.String(),
		e.Description,
		strconv.FormatBool(e.IsIncome),
		e.Date.String(),
		e.Time,
	}
}

// parseRecord converts one data row; line is 1-based and counts the header.
func parseRecord(rec []string, line int) (core.Entry, error) {
	if len(rec) < len(Columns) {
		return core.Entry{}, invalid("line %d: %d fields, want %d", line, len(rec), len(Columns))
	}
	for i := range rec {
		rec[i] = strings.TrimSpace(rec[i])
	}

	if rec[0] == "" {
		return core.Entry{}, invalid("line %d: missing id", line)
	}
	amount, err := decimal.NewFromString(rec[1])
	if err != nil {
		return core.Entry{}, invalid("line %d: amount %q", line, rec[1])
	}
	isIncome, err := strconv.ParseBool(rec[3])
	if err != nil {
		return core.Entry{}, invalid("line %d: isIncome %q", line, rec[3])
	}
	date, err := core.ParseDate(rec[4])
	if err != nil {
		return core.Entry{}, invalid("line %d: date %q", line, rec[4])
	}
	if rec[5] == "" {
		return core.Entry{}, invalid("line %d: missing time", line)
	}

	e := core.Entry{
		ID:          rec[0],
		Amount:      amount,
		Description: rec[2],
		IsIncome:    isIncome,
		Date:        date,
		Time:        rec[5],
	}
	if err := e.Validate(); err != nil {
		return core.Entry{}, fmt.Errorf("%w: line %d: %w", ErrInvalidFormat, line, err)
	}
	return e, nil
}
