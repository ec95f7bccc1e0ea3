package table

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Decode reads a CSV payload with a header row. Blank lines are skipped, so
// the first non-empty line is the header. Column types are inferred from the
// values: Int if every non-empty value is an integer, Float if every one is a
// number, Text otherwise.
func Decode(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, &DecodeError{Msg: "missing header row"}
	}
	if err != nil {
		return nil, csvError(err)
	}

	var records [][]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, csvError(err)
		}
		if len(rec) != len(header) {
			line, _ := cr.FieldPos(0)
			return nil, &DecodeError{
				Line: line,
				Msg:  fmt.Sprintf("expected %d fields, got %d", len(header), len(rec)),
			}
		}
		records = append(records, rec)
	}
	return FromRecords(header, records)
}

// DecodeString is Decode over a string.
func DecodeString(s string) (*Table, error) {
	return Decode(strings.NewReader(s))
}

func csvError(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &DecodeError{Line: pe.Line, Msg: pe.Err.Error()}
	}
	return &DecodeError{Msg: err.Error()}
}

// FromRecords builds a table from a header and string rows, inferring each
// column's type. Every row must have len(header) fields.
func FromRecords(header []string, rows [][]string) (*Table, error) {
	seen := make(map[string]bool, len(header))
	t := &Table{Columns: make([]*Column, 0, len(header))}
	for j, raw := range header {
		name := strings.TrimSpace(raw)
		if name == "" {
			return nil, &DecodeError{Line: 1, Msg: fmt.Sprintf("column %d has an empty name", j+1)}
		}
		if seen[name] {
			return nil, &DecodeError{Line: 1, Msg: fmt.Sprintf("duplicate column name %q", name)}
		}
		seen[name] = true

		values := make([]string, len(rows))
		for i, rec := range rows {
			if len(rec) != len(header) {
				return nil, &DecodeError{Msg: fmt.Sprintf("row %d: expected %d fields, got %d", i+1, len(header), len(rec))}
			}
			values[i] = rec[j]
		}
		t.Columns = append(t.Columns, buildColumn(name, values))
	}
	return t, nil
}

func buildColumn(name string, values []string) *Column {
	typ := inferType(values)
	b := newBuilder(name, typ, len(values))
	for _, v := range values {
		s := strings.TrimSpace(v)
		switch typ {
		case Int:
			if s == "" {
				b.appendNull()
				continue
			}
			n, _ := strconv.ParseInt(s, 10, 64)
			b.appendInt(n)
		case Float:
			if s == "" {
				b.appendNull()
				continue
			}
			f, _ := strconv.ParseFloat(s, 64)
			b.appendFloat(f)
		default:
			b.appendText(v)
		}
	}
	return b.done()
}

func inferType(values []string) Type {
	typ := Int
	nonEmpty := 0
	for _, v := range values {
		s := strings.TrimSpace(v)
		if s == "" {
			continue
		}
		nonEmpty++
		if typ == Int {
			if _, err := strconv.ParseInt(s, 10, 64); err == nil {
				continue
			}
			typ = Float
		}
		if !isNumber(s) {
			return Text
		}
	}
	if nonEmpty == 0 {
		return Text
	}
	return typ
}

// isNumber rejects the NaN and Inf spellings ParseFloat accepts.
func isNumber(s string) bool {
	if _, err := strconv.ParseFloat(s, 64); err != nil {
		return false
	}
	return strings.ContainsAny(s, "0123456789")
}

// Encode writes t as CSV, with or without the header row.
func Encode(w io.Writer, t *Table, header bool) error {
	cw := csv.NewWriter(w)
	if header {
		if err := cw.Write(t.Names()); err != nil {
			return fmt.Errorf("%w: %w", ErrEncode, err)
		}
	}
	for i := 0; i < t.Rows(); i++ {
		if err := cw.Write(t.Record(i)); err != nil {
			return fmt.Errorf("%w: %w", ErrEncode, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrEncode, err)
	}
	return nil
}

// CSV renders t to a string.
func (t *Table) CSV(header bool) (string, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, t, header); err != nil {
		return "", err
	}
	return buf.String(), nil
}
