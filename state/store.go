// Package state owns the single shared table of a running collator and
// serializes every read-modify-write against it.
package state

import (
	"fmt"
	"sync"

	"github.com/andys/collator/table"
)

// Snapshot is the committed result of one submission.
type Snapshot struct {
	Table *table.Table
	// Text is the CSV rendering of Table, header included.
	Text string
	// Output is the configured output location; empty when unset.
	Output string
}

// Store holds the current table and the output location. The zero value is
// not usable; call New.
type Store struct {
	mu      sync.Mutex
	current *table.Table
	output  string
}

// New returns a store seeded with seed (may be nil) that persists to output
// (may be empty).
func New(seed *table.Table, output string) (*Store, error) {
	if seed != nil && len(seed.Columns) == 0 {
		return nil, fmt.Errorf("failed to seed state: %w", table.ErrEmptyTable)
	}
	return &Store{current: seed, output: output}, nil
}

// Output returns the output location fixed at startup.
func (s *Store) Output() string {
	return s.output
}

// Current returns the committed table, or nil before the first submission.
func (s *Store) Current() *table.Table {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// ApplyCollate appends incoming to the current table.
func (s *Store) ApplyCollate(incoming *table.Table) (Snapshot, error) {
	return s.apply(incoming, func(current *table.Table) (*table.Table, error) {
		return table.Merge(current, incoming)
	})
}

// ApplyAggregate appends incoming to the current table and reduces the result
// with op, grouping by the name of incoming's first column.
//
// The current table must merge with incoming as submitted, or with incoming
// already reduced by the key: an aggregated state no longer carries the text
// columns the reduction drops. Anything else is a *table.SchemaMismatchError
// and leaves the state untouched.
func (s *Store) ApplyAggregate(incoming *table.Table, op table.Op) (Snapshot, error) {
	if len(incoming.Columns) == 0 {
		return Snapshot{}, table.ErrEmptyTable
	}
	key := incoming.Columns[0].Name
	return s.apply(incoming, func(current *table.Table) (*table.Table, error) {
		reduced, err := table.Aggregate(incoming, key, op)
		if err != nil {
			return nil, err
		}
		merged, err := table.Merge(current, incoming)
		if err != nil {
			if merged, err = table.Merge(current, reduced); err != nil {
				return nil, &table.SchemaMismatchError{Current: current.Schema(), Incoming: incoming.Schema()}
			}
		}
		return table.Aggregate(merged, key, op)
	})
}

// apply runs compute against the current table under the lock and commits its
// result only if compute and rendering both succeed.
func (s *Store) apply(incoming *table.Table, compute func(current *table.Table) (*table.Table, error)) (Snapshot, error) {
	if len(incoming.Columns) == 0 {
		return Snapshot{}, table.ErrEmptyTable
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := compute(s.current)
	if err != nil {
		return Snapshot{}, err
	}
	text, err := next.CSV(true)
	if err != nil {
		return Snapshot{}, err
	}
	s.current = next
	return Snapshot{Table: next, Text: text, Output: s.output}, nil
}
