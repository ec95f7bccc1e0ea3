package worker

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/alitto/pond/v2"

	"github.com/andys/collator/table"
)

// WriterProgress tracks the persistence activity of a Writer
type WriterProgress struct {
	WrittenTables atomic.Int64
	WrittenRows   atomic.Int64
	ErrorCount    atomic.Int64
	StartTime     time.Time
}

// Writer mirrors submitted tables to durable targets using a worker pool
type Writer struct {
	targets  []Target
	pool     pond.Pool
	progress *WriterProgress
}

// NewWriter creates a writer with maxWorkers concurrent writes across all
// submissions
func NewWriter(targets []Target, maxWorkers int) *Writer {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &Writer{
		targets: targets,
		pool:    pond.NewPool(maxWorkers, pond.WithQueueSize(maxWorkers*64)),
		progress: &WriterProgress{
			StartTime: time.Now(),
		},
	}
}

// Targets returns the configured targets.
func (w *Writer) Targets() []Target {
	return w.targets
}

// Persist writes t to every target and waits for all of them. Results are in
// target order. With no targets it returns nil without touching the pool.
func (w *Writer) Persist(t *table.Table) []Result {
	if len(w.targets) == 0 {
		return nil
	}
	results := make([]Result, len(w.targets))
	group := w.pool.NewGroup()
	for i, target := range w.targets {
		i, target := i, target // Create local copy for closure
		group.Submit(func() {
			err := target.WriteTable(t)
			results[i] = Result{Target: target.Name(), Err: err}
			if err != nil {
				w.progress.ErrorCount.Add(1)
				slog.Error("Failed to persist table", "target", target.Name(), "err", err)
				return
			}
			w.progress.WrittenTables.Add(1)
			w.progress.WrittenRows.Add(int64(t.Rows()))
			slog.Debug("Persisted table", "target", target.Name(), "rows", t.Rows())
		})
	}
	_ = group.Wait()
	return results
}

// GetProgress returns the current progress
func (w *Writer) GetProgress() *WriterProgress {
	return w.progress
}

// StopAndWait stops the worker pool and waits for all tasks to complete
func (w *Writer) StopAndWait() {
	w.pool.StopAndWait()
}
