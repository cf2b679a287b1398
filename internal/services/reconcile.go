package services

import (
	"errors"
	"fmt"

	"planner/internal/core"
)

// Strategy selects how a local and a remote ledger are combined.
type Strategy string

const (
	KeepRemote Strategy = "keep-remote"
	KeepLocal  Strategy = "keep-local"
	Merge      Strategy = "merge"
)

var ErrInvalidStrategy = errors.New("invalid reconcile strategy")

func ParseStrategy(s string) (Strategy, error) {
	switch st := Strategy(s); st {
	case KeepRemote, KeepLocal, Merge:
		return st, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStrategy, s)
}

// Reconcile combines two ledgers. Merge takes the union by id: local
// entries win on conflict and keep their order, remote-only entries follow
// in remote order.
func Reconcile(local, remote []core.Entry, strategy Strategy) ([]core.Entry, error) {
	switch strategy {
	case KeepRemote:
		return append([]core.Entry{}, remote...), nil
	case KeepLocal:
		return append([]core.Entry{}, local...), nil
	case Merge:
		seen := make(map[string]struct{}, len(local))
		out := make([]core.Entry, 0, len(local)+len(remote))
		for _, e := range local {
			seen[e.ID] = struct{}{}
			out = append(out, e)
		}
		for _, e := range remote {
			if _, ok := seen[e.ID]; ok {
				continue
			}
			seen[e.ID] = struct{}{}
			out = append(out, e)
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidStrategy, strategy)
}
