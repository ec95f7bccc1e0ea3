// Package server exposes the collator over HTTP: a health check, the collate
// and aggregate submission endpoints, and a read-only view of the table.
package server

import (
	"net/http"

	"golang.org/x/time/rate"

	"github.com/andys/collator/state"
	"github.com/andys/collator/worker"
)

// Options tunes the HTTP surface.
type Options struct {
	// MaxBodyBytes caps a submission's size; 0 means no limit.
	MaxBodyBytes int64
	// RateLimit is the number of submissions accepted per second across all
	// clients; 0 disables limiting.
	RateLimit float64
	// Verbose logs the full rendered state after each submission.
	Verbose bool
}

// Server routes submissions to the shared store and mirrors accepted payloads
// through the writer.
type Server struct {
	store   *state.Store
	writer  *worker.Writer
	opts    Options
	limiter *rate.Limiter
}

// New returns a Server over store and writer.
func New(store *state.Store, writer *worker.Writer, opts Options) *Server {
	s := &Server{store: store, writer: writer, opts: opts}
	if opts.RateLimit > 0 {
		burst := int(opts.RateLimit)
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return s
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := &http.ServeMux{}
	mux.HandleFunc("GET /{$}", s.health)
	mux.HandleFunc("GET /table", s.currentTable)
	mux.Handle("POST /collate", s.limit(http.HandlerFunc(s.collate)))
	mux.Handle("POST /aggregate", s.limit(http.HandlerFunc(s.aggregate)))
	return logRequests(mux)
}
