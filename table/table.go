// Package table holds the in-memory tabular model shared by the collator:
// typed columns, the CSV codec, vertical merging and group-by reduction.
package table

import (
	"fmt"
	"strconv"
	"strings"
)

// Type is the scalar type of a column, inferred once when the column is decoded.
type Type int

const (
	Int Type = iota
	Float
	Text
)

func (t Type) String() string {
	switch t {
	case Int:
		return "int"
	case Float:
		return "float"
	case Text:
		return "text"
	default:
		return fmt.Sprintf("type(%d)", int(t))
	}
}

// Numeric reports whether values of this type can be summed.
func (t Type) Numeric() bool {
	return t == Int || t == Float
}

// Column is a named, typed vector of values. Only the slice matching Type is
// populated. Null marks empty cells; it is nil when the column has none.
// Empty cells are null for every type.
type Column struct {
	Name   string
	Type   Type
	Ints   []int64
	Floats []float64
	Texts  []string
	Null   []bool
}

// Len returns the number of values in the column.
func (c *Column) Len() int {
	switch c.Type {
	case Int:
		return len(c.Ints)
	case Float:
		return len(c.Floats)
	default:
		return len(c.Texts)
	}
}

// IsNull reports whether row i holds no value.
func (c *Column) IsNull(i int) bool {
	return c.Null != nil && c.Null[i]
}

// Untyped reports whether the column carries no values at all, in which case
// its inferred type says nothing about the data.
func (c *Column) Untyped() bool {
	for i := 0; i < c.Len(); i++ {
		if !c.IsNull(i) {
			return false
		}
	}
	return true
}

// Float returns row i as a float64. Only valid for numeric columns.
func (c *Column) Float(i int) float64 {
	if c.Type == Int {
		return float64(c.Ints[i])
	}
	return c.Floats[i]
}

// Format renders row i the way the codec writes it.
func (c *Column) Format(i int) string {
	if c.IsNull(i) {
		return ""
	}
	switch c.Type {
	case Int:
		return strconv.FormatInt(c.Ints[i], 10)
	case Float:
		return FormatFloat(c.Floats[i])
	default:
		return c.Texts[i]
	}
}

// FormatFloat renders f with at least one decimal digit so that decoding the
// text again infers Float.
func FormatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

// Table is an ordered set of equal-length columns. Tables are never mutated
// after construction; operations return new tables.
type Table struct {
	Columns []*Column
}

// Rows returns the row count.
func (t *Table) Rows() int {
	if t == nil || len(t.Columns) == 0 {
		return 0
	}
	return t.Columns[0].Len()
}

// Column returns the column with the given name, or nil.
func (t *Table) Column(name string) *Column {
	for _, c := range t.Columns {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Names returns the column names in order.
func (t *Table) Names() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Schema returns the table's ordered (name, type) pairs.
func (t *Table) Schema() Schema {
	s := make(Schema, len(t.Columns))
	for i, c := range t.Columns {
		s[i] = Field{Name: c.Name, Type: c.Type}
	}
	return s
}

// Record returns row i as formatted strings.
func (t *Table) Record(i int) []string {
	rec := make([]string, len(t.Columns))
	for j, c := range t.Columns {
		rec[j] = c.Format(i)
	}
	return rec
}

// Field is one entry of a Schema.
type Field struct {
	Name string
	Type Type
}

// Schema describes the column layout of a table.
type Schema []Field

func (s Schema) String() string {
	parts := make([]string, len(s))
	for i, f := range s {
		parts[i] = f.Name + ":" + f.Type.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// builder accumulates values for a column of a known type.
type builder struct {
	col     *Column
	hasNull bool
}

func newBuilder(name string, typ Type, capacity int) *builder {
	c := &Column{Name: name, Type: typ, Null: make([]bool, 0, capacity)}
	switch typ {
	case Int:
		c.Ints = make([]int64, 0, capacity)
	case Float:
		c.Floats = make([]float64, 0, capacity)
	default:
		c.Texts = make([]string, 0, capacity)
	}
	return &builder{col: c}
}

func (b *builder) appendFrom(src *Column, i int) {
	if src.IsNull(i) {
		b.appendNull()
		return
	}
	b.col.Null = append(b.col.Null, false)
	switch b.col.Type {
	case Int:
		b.col.Ints = append(b.col.Ints, src.Ints[i])
	case Float:
		b.col.Floats = append(b.col.Floats, src.Float(i))
	default:
		b.col.Texts = append(b.col.Texts, src.Format(i))
	}
}

func (b *builder) appendNull() {
	b.hasNull = true
	b.col.Null = append(b.col.Null, true)
	switch b.col.Type {
	case Int:
		b.col.Ints = append(b.col.Ints, 0)
	case Float:
		b.col.Floats = append(b.col.Floats, 0)
	default:
		b.col.Texts = append(b.col.Texts, "")
	}
}

func (b *builder) appendInt(v int64) {
	b.col.Null = append(b.col.Null, false)
	b.col.Ints = append(b.col.Ints, v)
}

func (b *builder) appendFloat(v float64) {
	b.col.Null = append(b.col.Null, false)
	b.col.Floats = append(b.col.Floats, v)
}

func (b *builder) appendText(v string) {
	if strings.TrimSpace(v) == "" {
		b.appendNull()
		return
	}
	b.col.Null = append(b.col.Null, false)
	b.col.Texts = append(b.col.Texts, v)
}

func (b *builder) done() *Column {
	if !b.hasNull {
		b.col.Null = nil
	}
	return b.col
}
