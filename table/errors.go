package table

import (
	"errors"
	"fmt"
)

var (
	// ErrDecode marks a malformed payload.
	ErrDecode = errors.New("decode error")
	// ErrEncode marks a failure to render a table.
	ErrEncode = errors.New("encode error")
	// ErrSchemaMismatch marks tables that cannot be concatenated.
	ErrSchemaMismatch = errors.New("schema mismatch")
	// ErrUnknownKeyColumn marks a grouping key missing from the table.
	ErrUnknownKeyColumn = errors.New("unknown key column")
	// ErrUnsupported is returned for aggregation operators that are recognized
	// but not implemented. It is permanent.
	ErrUnsupported = errors.New("unsupported operation")
	// ErrEmptyTable marks a table without columns where one is required.
	ErrEmptyTable = errors.New("table has no columns")
)

// DecodeError reports where a payload failed to decode.
type DecodeError struct {
	Line int
	Msg  string
}

func (e *DecodeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("decode error: line %d: %s", e.Line, e.Msg)
	}
	return "decode error: " + e.Msg
}

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

// SchemaMismatchError carries both schemas of a rejected merge.
type SchemaMismatchError struct {
	Current  Schema
	Incoming Schema
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("schema mismatch: current %s, incoming %s", e.Current, e.Incoming)
}

func (e *SchemaMismatchError) Is(target error) bool { return target == ErrSchemaMismatch }

// UnknownKeyColumnError names the missing grouping key.
type UnknownKeyColumnError struct {
	Key     string
	Columns []string
}

func (e *UnknownKeyColumnError) Error() string {
	return fmt.Sprintf("unknown key column %q (have %v)", e.Key, e.Columns)
}

func (e *UnknownKeyColumnError) Is(target error) bool { return target == ErrUnknownKeyColumn }
