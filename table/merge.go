package table

// Merge appends the rows of incoming below the rows of current and returns the
// combined table in current's column order. A nil current yields incoming.
//
// Both tables need the same column names in the same order. Int and Float
// columns combine into Float; a column holding only empty cells takes the
// type of its counterpart. Any other difference is a *SchemaMismatchError.
func Merge(current, incoming *Table) (*Table, error) {
	if current == nil {
		return incoming, nil
	}
	types, ok := mergedTypes(current, incoming)
	if !ok {
		return nil, &SchemaMismatchError{Current: current.Schema(), Incoming: incoming.Schema()}
	}

	rows := current.Rows() + incoming.Rows()
	out := &Table{Columns: make([]*Column, len(current.Columns))}
	for j, cur := range current.Columns {
		in := incoming.Columns[j]
		b := newBuilder(cur.Name, types[j], rows)
		for i := 0; i < cur.Len(); i++ {
			b.appendFrom(cur, i)
		}
		for i := 0; i < in.Len(); i++ {
			b.appendFrom(in, i)
		}
		out.Columns[j] = b.done()
	}
	return out, nil
}

func mergedTypes(current, incoming *Table) ([]Type, bool) {
	if len(current.Columns) != len(incoming.Columns) {
		return nil, false
	}
	types := make([]Type, len(current.Columns))
	for j, cur := range current.Columns {
		in := incoming.Columns[j]
		if cur.Name != in.Name {
			return nil, false
		}
		switch {
		case cur.Type == in.Type:
			types[j] = cur.Type
		case in.Untyped():
			types[j] = cur.Type
		case cur.Untyped():
			types[j] = in.Type
		case cur.Type.Numeric() && in.Type.Numeric():
			types[j] = Float
		default:
			return nil, false
		}
	}
	return types, true
}
