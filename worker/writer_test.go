package worker

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/frankban/quicktest"

	"github.com/andys/collator/table"
)

type recordingTarget struct {
	name string
	err  error

	mu     sync.Mutex
	tables []*table.Table
}

func (r *recordingTarget) Name() string { return r.name }

func (r *recordingTarget) WriteTable(t *table.Table) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tables = append(r.tables, t)
	return r.err
}

func mustTable(c *quicktest.C, s string) *table.Table {
	t, err := table.DecodeString(s)
	c.Assert(err, quicktest.IsNil)
	return t
}

func TestFileTarget_WritesHeaderlessAndOverwrites(t *testing.T) {
	c := quicktest.New(t)
	path := filepath.Join(t.TempDir(), "out.csv")
	target := &FileTarget{Path: path}
	c.Assert(target.Name(), quicktest.Equals, path)

	err := target.WriteTable(mustTable(c, "a,b\n1,2\n3,4\n"))
	c.Assert(err, quicktest.IsNil)
	data, err := os.ReadFile(path)
	c.Assert(err, quicktest.IsNil)
	c.Assert(string(data), quicktest.Equals, "1,2\n3,4\n")

	err = target.WriteTable(mustTable(c, "a,b\n5,6\n"))
	c.Assert(err, quicktest.IsNil)
	data, err = os.ReadFile(path)
	c.Assert(err, quicktest.IsNil)
	c.Assert(string(data), quicktest.Equals, "5,6\n")
}

func TestFileTarget_CreateFailure(t *testing.T) {
	c := quicktest.New(t)
	target := &FileTarget{Path: filepath.Join(t.TempDir(), "missing", "out.csv")}
	err := target.WriteTable(mustTable(c, "a\n1\n"))
	c.Assert(err, quicktest.ErrorMatches, "failed to create output file: .*")
}

func TestWriter_PersistToAllTargets(t *testing.T) {
	c := quicktest.New(t)
	ok := &recordingTarget{name: "ok"}
	bad := &recordingTarget{name: "bad", err: errors.New("boom")}
	w := NewWriter([]Target{ok, bad}, 2)
	defer w.StopAndWait()

	tbl := mustTable(c, "a\n1\n2\n")
	results := w.Persist(tbl)
	c.Assert(results, quicktest.HasLen, 2)
	c.Assert(results[0], quicktest.DeepEquals, Result{Target: "ok"})
	c.Assert(results[1].Target, quicktest.Equals, "bad")
	c.Assert(results[1].Err, quicktest.ErrorMatches, "boom")
	c.Assert(ok.tables, quicktest.DeepEquals, []*table.Table{tbl})
	c.Assert(bad.tables, quicktest.HasLen, 1)

	progress := w.GetProgress()
	c.Assert(progress.WrittenTables.Load(), quicktest.Equals, int64(1))
	c.Assert(progress.WrittenRows.Load(), quicktest.Equals, int64(2))
	c.Assert(progress.ErrorCount.Load(), quicktest.Equals, int64(1))
}

func TestWriter_NoTargets(t *testing.T) {
	c := quicktest.New(t)
	w := NewWriter(nil, 0)
	defer w.StopAndWait()
	c.Assert(w.Persist(mustTable(c, "a\n1\n")), quicktest.IsNil)
	c.Assert(w.Targets(), quicktest.HasLen, 0)
}

func TestWriter_ConcurrentPersist(t *testing.T) {
	c := quicktest.New(t)
	target := &recordingTarget{name: "mem"}
	w := NewWriter([]Target{target}, 4)
	defer w.StopAndWait()

	tbl := mustTable(c, "a\n1\n")
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.Persist(tbl)
		}()
	}
	wg.Wait()
	c.Assert(target.tables, quicktest.HasLen, 32)
	c.Assert(w.GetProgress().WrittenTables.Load(), quicktest.Equals, int64(32))
}
