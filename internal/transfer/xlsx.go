package transfer

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"planner/internal/core"
)

// SheetName is the worksheet holding exported transactions.
const SheetName = "Transactions"

// WriteXLSX exports entries to a single-sheet workbook with the CSV columns.
func WriteXLSX(w io.Writer, entries []core.Entry) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(SheetName)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}

	header := make([]any, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, e := range entries {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{e.ID, e.Amount.InexactFloat64(), e.Description, e.IsIncome, e.Date.String(), e.Time}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %s: %w", e.ID, err)
		}
	}

	if len(entries) > 0 {
		style, err := f.NewStyle(&excelize.Style{NumFmt: 2})
		if err != nil {
			return fmt.Errorf("create amount style: %w", err)
		}
		last := fmt.Sprintf("B%d", len(entries)+1)
		if err := f.SetCellStyle(SheetName, "B2", last, style); err != nil {
			return fmt.Errorf("style amounts: %w", err)
		}
	}
	_ = f.SetColWidth(SheetName, "A", "A", 38)
	_ = f.SetColWidth(SheetName, "C", "C", 30)
	_ = f.SetColWidth(SheetName, "E", "E", 12)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// ReadXLSX parses a workbook written by WriteXLSX, applying the same row
// rules as ReadCSV.
func ReadXLSX(r io.Reader) ([]core.Entry, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	}
	if len(rows) == 0 {
		return nil, invalid("workbook is empty")
	}
	if err := checkHeader(rows[0]); err != nil {
		return nil, err
	}

	var entries []core.Entry
	for i, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		e, err := parseRecord(row, i+2)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if len(entries) == 0 {
		return nil, invalid("workbook contains only a header")
	}
	return entries, nil
}
