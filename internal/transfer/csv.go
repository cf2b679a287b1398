package transfer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"planner/internal/core"
)

// WriteCSV writes entries under the transaction header.
func WriteCSV(w io.Writer, entries []core.Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, e := range entries {
		if err := cw.Write(entryRecord(e)); err != nil {
			return fmt.Errorf("write csv row %s: %w", e.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a transaction CSV. Blank lines are skipped; a file with no
// data rows is rejected.
func ReadCSV(r io.Reader) ([]core.Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, invalid("file is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	}
	if err := checkHeader(header); err != nil {
		return nil, err
	}

	var entries []core.Entry
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidFormat, err)
		}
		line, _ := cr.FieldPos(0)
		e, err := parseRecord(rec, line)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	if len(entries) == 0 {
		return nil, invalid("file contains only a header")
	}
	return entries, nil
}
