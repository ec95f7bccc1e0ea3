package server

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/andys/collator/state"
	"github.com/andys/collator/table"
)

// health reports a fixed operational status and never touches the store.
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Health check")
	writeJSON(w, http.StatusOK, map[string]string{"status": "operational"})
}

// currentTable renders the committed table as CSV.
func (s *Server) currentTable(w http.ResponseWriter, r *http.Request) {
	t := s.store.Current()
	if t == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	text, err := t.CSV(true)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	io.WriteString(w, text)
}

func (s *Server) collate(w http.ResponseWriter, r *http.Request) {
	s.submit(w, r, "collate", s.store.ApplyCollate)
}

func (s *Server) aggregate(w http.ResponseWriter, r *http.Request) {
	op, err := table.ParseOp(r.URL.Query().Get("op"))
	if err != nil {
		writeError(w, err)
		return
	}
	s.submit(w, r, "aggregate", func(in *table.Table) (state.Snapshot, error) {
		return s.store.ApplyAggregate(in, op)
	})
}

// submit decodes the payload outside the store's lock, applies it, then
// mirrors the decoded payload to the configured targets. A failed mirror
// write is reported alongside the committed state.
func (s *Server) submit(w http.ResponseWriter, r *http.Request, kind string, apply func(*table.Table) (state.Snapshot, error)) {
	ctx := r.Context()
	incoming, err := s.decodeBody(w, r)
	if err != nil {
		slog.WarnContext(ctx, "Rejected payload", "kind", kind, "err", err)
		writeError(w, err)
		return
	}

	snap, err := apply(incoming)
	if err != nil {
		slog.WarnContext(ctx, "Submission failed", "kind", kind, "err", err)
		writeError(w, err)
		return
	}
	slog.InfoContext(ctx, "Submission applied", "kind", kind, "rows_in", incoming.Rows(), "rows", snap.Table.Rows())
	if s.opts.Verbose {
		slog.DebugContext(ctx, "New state", "kind", kind, "table", snap.Text)
	}

	results := s.writer.Persist(incoming)
	writeJSON(w, http.StatusOK, newSuccess(snap.Text, snap.Output, results))
}

func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request) (*table.Table, error) {
	body := r.Body
	if s.opts.MaxBodyBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes)
	}
	data, err := io.ReadAll(body)
	if err2 := body.Close(); err == nil {
		err = err2
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	return table.Decode(bytes.NewReader(data))
}
