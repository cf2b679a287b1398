package memory

import (
	"context"
	"sync"

	"planner/internal/core"
	"planner/internal/sheets"
)

// Store is an in-process RemoteLedger. It behaves like the Google Sheets
// adapter: pushes are append-only by id and rows keep insertion order.
type Store struct {
	mu    sync.Mutex
	items []core.Entry
	// Err, when set, is returned by every call. Used to simulate an
	// unreachable remote.
	Err error
}

var _ sheets.RemoteLedger = (*Store)(nil)

func New(seed ...core.Entry) *Store {
	return &Store{items: append([]core.Entry(nil), seed...)}
}

// Push appends entries whose id is not yet stored.
func (s *Store) Push(_ context.Context, entries []core.Entry) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	seen := make(map[string]struct{}, len(s.items))
	for _, e := range s.items {
		seen[e.ID] = struct{}{}
	}
	written := 0
	for _, e := range entries {
		if _, ok := seen[e.ID]; ok {
			continue
		}
		seen[e.ID] = struct{}{}
		s.items = append(s.items, e)
		written++
	}
	return written, nil
}

func (s *Store) Pull(_ context.Context) ([]core.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	return append([]core.Entry{}, s.items...), nil
}

func (s *Store) Replace(_ context.Context, entries []core.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.items = append([]core.Entry(nil), entries...)
	return nil
}

// Delete removes every row carrying id. Deleting an unknown id is a no-op.
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	kept := s.items[:0]
	for _, e := range s.items {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	s.items = kept
	return nil
}
