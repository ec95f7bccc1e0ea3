package db

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/andys/collator/table"
)

// ReplaceTable makes the named table hold exactly the rows of t. The table is
// created if missing and recreated when its columns differ from t's; otherwise
// its previous rows are deleted. Everything runs in one transaction so readers
// never see a partial payload.
func (c *Connection) ReplaceTable(name string, t *table.Table) error {
	if c.db == nil {
		return fmt.Errorf("sql: database is closed")
	}
	if len(t.Columns) == 0 {
		return fmt.Errorf("failed to mirror table %s: %w", name, table.ErrEmptyTable)
	}
	schema := SchemaFor(name, t, c.Type)

	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	existing, err := tableLayout(tx, name, c.Type)
	if err != nil {
		return err
	}
	if existing != nil && !sameLayout(existing, schema) {
		query := fmt.Sprintf("DROP TABLE %s", escapeIdentifier(name, c.Type))
		slog.Info("Mirror table layout changed, recreating", "table", name)
		slog.Debug("Executing SQL", "query", query)
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", name, err)
		}
		existing = nil
	}

	if existing == nil {
		create := createTableQuery(schema, c.Type)
		slog.Debug("Executing SQL", "query", create)
		if _, err := tx.Exec(create); err != nil {
			return fmt.Errorf("failed to create table %s: %w", name, err)
		}
	} else {
		query := fmt.Sprintf("DELETE FROM %s", escapeIdentifier(name, c.Type))
		slog.Debug("Executing SQL", "query", query)
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to clear table %s: %w", name, err)
		}
	}

	insert := insertQuery(schema, c.Type)
	slog.Debug("Executing SQL", "query", insert, "rows", t.Rows())
	for i := 0; i < t.Rows(); i++ {
		if _, err := tx.Exec(insert, rowValues(t, i)...); err != nil {
			return fmt.Errorf("failed to execute query: %s, error: %w", insert, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// tableLayout returns the columns of the named table, or nil if it does not
// exist.
func tableLayout(tx *sql.Tx, name string, dbType DBType) ([]ColumnSchema, error) {
	rows, err := tx.Query(layoutQuery(dbType), name)
	if err != nil {
		return nil, fmt.Errorf("failed to query layout of table %s: %w", name, err)
	}
	defer rows.Close()

	var columns []ColumnSchema
	for rows.Next() {
		var col ColumnSchema
		if err := rows.Scan(&col.Name, &col.Type); err != nil {
			return nil, fmt.Errorf("failed to scan layout of table %s: %w", name, err)
		}
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

// rowValues returns row i as driver arguments, with nil for empty cells.
func rowValues(t *table.Table, i int) []interface{} {
	values := make([]interface{}, len(t.Columns))
	for j, col := range t.Columns {
		if col.IsNull(i) {
			continue
		}
		switch col.Type {
		case table.Int:
			values[j] = col.Ints[i]
		case table.Float:
			values[j] = col.Floats[i]
		default:
			values[j] = col.Texts[i]
		}
	}
	return values
}

// Mirror is a persistence target that keeps a SQL table equal to the latest
// submitted payload.
type Mirror struct {
	conn  *Connection
	table string
}

// NewMirror returns a Mirror writing to the named table over conn.
func NewMirror(conn *Connection, tableName string) *Mirror {
	return &Mirror{conn: conn, table: tableName}
}

// Name identifies the mirror as driver:table.
func (m *Mirror) Name() string {
	return fmt.Sprintf("%s:%s", m.conn.Type, m.table)
}

// WriteTable replaces the mirror table's rows with t.
func (m *Mirror) WriteTable(t *table.Table) error {
	return m.conn.ReplaceTable(m.table, t)
}
