// Package memory is an in-process Mirror used when no spreadsheet is configured.
package memory

import (
	"context"
	"sync"
	"time"

	"teddy/internal/core"
	"teddy/internal/sheets"
)

var _ sheets.Mirror = (*Store)(nil)

type Store struct {
	mu    sync.Mutex
	loc   *time.Location
	rows  [][]any
	calls int
	err   error
}

func New(loc *time.Location) *Store {
	return &Store{loc: loc}
}

// Mirror records the rendered rows, replacing the previous snapshot.
func (s *Store) Mirror(ctx context.Context, txs []core.Transaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return s.err
	}
	s.rows = sheets.Rows(txs, s.loc)
	return nil
}

// FailWith makes subsequent Mirror calls return err; nil restores success.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

// Rows returns the last mirrored snapshot, header included.
func (s *Store) Rows() [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]any, len(s.rows))
	copy(out, s.rows)
	return out
}

// Calls returns how many times Mirror was invoked.
func (s *Store) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
