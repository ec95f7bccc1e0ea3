package worker

import (
	"github.com/andys/collator/table"
)

// Target is a durable location a submitted table is mirrored to.
type Target interface {
	// Name identifies the target in responses and logs.
	Name() string
	// WriteTable replaces the target's content with t.
	WriteTable(t *table.Table) error
}

// Result is the outcome of writing to one target.
type Result struct {
	Target string
	Err    error
}
