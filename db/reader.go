package db

import (
	"fmt"
	"strconv"
	"time"

	"github.com/andys/collator/table"
)

// LoadTable reads every row of the named table and decodes it with the same
// type inference used for submitted payloads.
func (c *Connection) LoadTable(name string) (*table.Table, error) {
	if c.db == nil {
		return nil, fmt.Errorf("sql: database is closed")
	}
	query := fmt.Sprintf("SELECT * FROM %s", escapeIdentifier(name, c.Type))

	rows, err := c.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query table %s: %w", name, err)
	}
	defer rows.Close()

	// Get column names
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns for table %s: %w", name, err)
	}

	// Prepare value holders
	values := make([]interface{}, len(columns))
	valuePtrs := make([]interface{}, len(columns))
	for i := range values {
		valuePtrs[i] = &values[i]
	}

	var records [][]string
	for rows.Next() {
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row from table %s: %w", name, err)
		}
		rec := make([]string, len(columns))
		for i, v := range values {
			rec[i] = formatValue(v)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows of table %s: %w", name, err)
	}

	t, err := table.FromRecords(columns, records)
	if err != nil {
		return nil, fmt.Errorf("failed to decode table %s: %w", name, err)
	}
	return t, nil
}

// formatValue renders a scanned driver value as CSV cell text.
func formatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(val)
	case string:
		return val
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return table.FormatFloat(val)
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		return val.Format(time.RFC3339Nano)
	default:
		return fmt.Sprintf("%v", val)
	}
}
