package db

import (
	"fmt"
	"strings"

	"github.com/andys/collator/table"
)

// TableSchema represents the structure of a mirror table
type TableSchema struct {
	Name    string
	Columns []ColumnSchema
}

// ColumnSchema represents the structure of a table column
type ColumnSchema struct {
	Name string
	Type string // SQL column type
}

// SchemaFor derives the SQL layout used to mirror t into the named table.
func SchemaFor(name string, t *table.Table, dbType DBType) *TableSchema {
	schema := &TableSchema{Name: name, Columns: make([]ColumnSchema, 0, len(t.Columns))}
	for _, col := range t.Columns {
		schema.Columns = append(schema.Columns, ColumnSchema{
			Name: col.Name,
			Type: sqlType(col.Type, dbType),
		})
	}
	return schema
}

func sqlType(t table.Type, dbType DBType) string {
	switch t {
	case table.Int:
		return "BIGINT"
	case table.Float:
		if dbType == MySQL {
			return "DOUBLE"
		}
		return "DOUBLE PRECISION"
	default:
		return "TEXT"
	}
}

func escapeIdentifier(identifier string, dbType DBType) string {
	switch dbType {
	case MySQL:
		return fmt.Sprintf("`%s`", strings.ReplaceAll(identifier, "`", "``"))
	case PostgreSQL:
		return fmt.Sprintf(`"%s"`, strings.ReplaceAll(identifier, `"`, `""`))
	default:
		return identifier
	}
}

func escapeIdentifiers(identifiers []string, dbType DBType) []string {
	escaped := make([]string, len(identifiers))
	for i, id := range identifiers {
		escaped[i] = escapeIdentifier(id, dbType)
	}
	return escaped
}

// createTableQuery builds a CREATE TABLE IF NOT EXISTS statement for schema.
func createTableQuery(schema *TableSchema, dbType DBType) string {
	defs := make([]string, len(schema.Columns))
	for i, col := range schema.Columns {
		defs[i] = fmt.Sprintf("%s %s NULL", escapeIdentifier(col.Name, dbType), col.Type)
	}
	return fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (%s)",
		escapeIdentifier(schema.Name, dbType),
		strings.Join(defs, ", "),
	)
}

// insertQuery builds a single-row INSERT with driver-specific placeholders.
func insertQuery(schema *TableSchema, dbType DBType) string {
	columns := make([]string, len(schema.Columns))
	placeholders := make([]string, len(schema.Columns))
	for i, col := range schema.Columns {
		columns[i] = col.Name
		if dbType == PostgreSQL {
			placeholders[i] = fmt.Sprintf("$%d", i+1)
		} else {
			placeholders[i] = "?"
		}
	}
	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		escapeIdentifier(schema.Name, dbType),
		strings.Join(escapeIdentifiers(columns, dbType), ", "),
		strings.Join(placeholders, ", "),
	)
}

// layoutQuery lists the columns of one table in ordinal order.
func layoutQuery(dbType DBType) string {
	if dbType == PostgreSQL {
		return `
        SELECT column_name, data_type
        FROM information_schema.columns
        WHERE table_schema = current_schema()
            AND table_name = $1
        ORDER BY ordinal_position`
	}
	return `
        SELECT COLUMN_NAME, DATA_TYPE
        FROM information_schema.COLUMNS
        WHERE TABLE_SCHEMA = DATABASE()
            AND TABLE_NAME = ?
        ORDER BY ORDINAL_POSITION`
}

// sameLayout reports whether existing columns match schema by name and type.
func sameLayout(existing []ColumnSchema, schema *TableSchema) bool {
	if len(existing) != len(schema.Columns) {
		return false
	}
	for i, col := range schema.Columns {
		if existing[i].Name != col.Name || !strings.EqualFold(existing[i].Type, col.Type) {
			return false
		}
	}
	return true
}
