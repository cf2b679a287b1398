package transfer

import (
	"encoding/json"
	"fmt"
	"io"

	"planner/internal/core"
)

// WriteSnapshot encodes a full backup as indented JSON.
func WriteSnapshot(w io.Writer, snap core.Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return nil
}

// ReadSnapshot decodes a backup. Record validation is left to the ledger
// so that domain errors keep their own sentinels.
func ReadSnapshot(r io.Reader) (core.Snapshot, error) {
	var snap core.Snapshot
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&snap); err != nil {
		return core.Snapshot{}, fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	}
	if snap.Entries == nil {
		snap.Entries = []core.Entry{}
	}
	return snap, nil
}
