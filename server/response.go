package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/andys/collator/table"
	"github.com/andys/collator/worker"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Response is the JSON body returned by the submission endpoints.
type Response struct {
	Status string `json:"status"`
	// WroteToFile is "no" when no output file is configured, otherwise
	// `yes: "<path>"` or `failed: "<path>"`.
	WroteToFile string `json:"wrote_to_file"`
	// Persisted lists the targets the payload was written to.
	Persisted []string `json:"persisted,omitempty"`
	// PersistErrors is set when the state was committed but a target write
	// failed.
	PersistErrors []string `json:"persist_errors,omitempty"`
	// Debug is the rendered current state, header included.
	Debug string `json:"debug,omitempty"`
	Error string `json:"error,omitempty"`
}

// newSuccess builds the response for a committed submission.
func newSuccess(text, output string, results []worker.Result) *Response {
	resp := &Response{Status: StatusSuccess, WroteToFile: "no", Debug: text}
	for _, r := range results {
		if r.Err != nil {
			resp.PersistErrors = append(resp.PersistErrors, fmt.Sprintf("%s: %v", r.Target, r.Err))
		} else {
			resp.Persisted = append(resp.Persisted, r.Target)
		}
		if output != "" && r.Target == output {
			if r.Err != nil {
				resp.WroteToFile = fmt.Sprintf("failed: %q", output)
			} else {
				resp.WroteToFile = fmt.Sprintf("yes: %q", output)
			}
		}
	}
	return resp
}

// statusFor maps an engine or decode error to an HTTP status code.
func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, table.ErrUnsupported):
		return http.StatusNotImplemented
	case errors.Is(err, table.ErrDecode),
		errors.Is(err, table.ErrSchemaMismatch),
		errors.Is(err, table.ErrUnknownKeyColumn),
		errors.Is(err, table.ErrEmptyTable):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), &Response{Status: StatusError, WroteToFile: "no", Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "err", err)
	}
}
