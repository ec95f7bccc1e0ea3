package db

import (
	"fmt"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/frankban/quicktest"

	"github.com/andys/collator/table"
)

func mustTable(c *quicktest.C, s string) *table.Table {
	t, err := table.DecodeString(s)
	c.Assert(err, quicktest.IsNil)
	return t
}

func layoutRows(cols ...string) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"column_name", "data_type"})
	for i := 0; i+1 < len(cols); i += 2 {
		rows.AddRow(cols[i], cols[i+1])
	}
	return rows
}

func TestReplaceTable_MySQL(t *testing.T) {
	c := quicktest.New(t)
	dbMock, mock, err := sqlmock.New()
	c.Assert(err, quicktest.IsNil)
	defer dbMock.Close()

	conn := &Connection{db: dbMock, Type: MySQL}
	tbl := mustTable(c, "k,v,w\nx,1,0.5\ny,,2\n")

	mock.ExpectBegin()
	mock.ExpectQuery("information_schema.COLUMNS").WithArgs("collated").
		WillReturnRows(layoutRows("k", "text", "v", "bigint", "w", "double"))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `collated`")).WillReturnResult(sqlmock.NewResult(0, 5))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `collated` (`k`, `v`, `w`) VALUES (?, ?, ?)")).
		WithArgs("x", int64(1), 0.5).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `collated` (`k`, `v`, `w`) VALUES (?, ?, ?)")).
		WithArgs("y", nil, 2.0).WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	err = conn.ReplaceTable("collated", tbl)
	c.Assert(err, quicktest.IsNil)
	c.Assert(mock.ExpectationsWereMet(), quicktest.IsNil)
}

func TestReplaceTable_PostgreSQL(t *testing.T) {
	c := quicktest.New(t)
	dbMock, mock, err := sqlmock.New()
	c.Assert(err, quicktest.IsNil)
	defer dbMock.Close()

	conn := &Connection{db: dbMock, Type: PostgreSQL}
	tbl := mustTable(c, "a,b\n1,2\n")

	mock.ExpectBegin()
	mock.ExpectQuery("information_schema.columns").WithArgs("collated").WillReturnRows(layoutRows())
	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS "collated" ("a" BIGINT NULL, "b" BIGINT NULL)`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "collated" ("a", "b") VALUES ($1, $2)`)).
		WithArgs(int64(1), int64(2)).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err = conn.ReplaceTable("collated", tbl)
	c.Assert(err, quicktest.IsNil)
	c.Assert(mock.ExpectationsWereMet(), quicktest.IsNil)
}

func TestReplaceTable_ErrorCases(t *testing.T) {
	c := quicktest.New(t)
	tbl := mustTable(c, "a\n1\n")

	// Closed connection
	err := (&Connection{Type: MySQL}).ReplaceTable("collated", tbl)
	c.Assert(err, quicktest.ErrorMatches, "sql: database is closed")

	// Begin error
	dbMock, mock, err := sqlmock.New()
	c.Assert(err, quicktest.IsNil)
	defer dbMock.Close()
	conn := &Connection{db: dbMock, Type: MySQL}
	mock.ExpectBegin().WillReturnError(fmt.Errorf("begin fail"))
	err = conn.ReplaceTable("collated", tbl)
	c.Assert(err, quicktest.ErrorMatches, "failed to begin transaction: .*begin fail")

	// Insert error rolls back
	dbMock2, mock2, err := sqlmock.New()
	c.Assert(err, quicktest.IsNil)
	defer dbMock2.Close()
	conn2 := &Connection{db: dbMock2, Type: MySQL}
	mock2.ExpectBegin()
	mock2.ExpectQuery("information_schema").WillReturnRows(layoutRows("a", "bigint"))
	mock2.ExpectExec("DELETE FROM").WillReturnResult(sqlmock.NewResult(0, 0))
	mock2.ExpectExec("INSERT INTO").WithArgs(int64(1)).WillReturnError(fmt.Errorf("insert fail"))
	mock2.ExpectRollback()
	err = conn2.ReplaceTable("collated", tbl)
	c.Assert(err, quicktest.ErrorMatches, "failed to execute query: .*insert fail")
	c.Assert(mock2.ExpectationsWereMet(), quicktest.IsNil)

	// Layout query error
	dbMock3, mock3, err := sqlmock.New()
	c.Assert(err, quicktest.IsNil)
	defer dbMock3.Close()
	conn3 := &Connection{db: dbMock3, Type: PostgreSQL}
	mock3.ExpectBegin()
	mock3.ExpectQuery("information_schema").WillReturnError(fmt.Errorf("denied"))
	mock3.ExpectRollback()
	err = conn3.ReplaceTable("collated", tbl)
	c.Assert(err, quicktest.ErrorMatches, "failed to query layout of table collated: denied")
	c.Assert(mock3.ExpectationsWereMet(), quicktest.IsNil)

	// Empty table
	err = conn2.ReplaceTable("collated", &table.Table{})
	c.Assert(err, quicktest.ErrorMatches, "failed to mirror table collated: table has no columns")
}

func TestReplaceTable_RecreatesWhenLayoutChanges(t *testing.T) {
	c := quicktest.New(t)
	dbMock, mock, err := sqlmock.New()
	c.Assert(err, quicktest.IsNil)
	defer dbMock.Close()

	conn := &Connection{db: dbMock, Type: MySQL}
	// The first payload had whole numbers; the merged state has widened v.
	tbl := mustTable(c, "k,v\nx,1.5\n")

	mock.ExpectBegin()
	mock.ExpectQuery("information_schema.COLUMNS").WithArgs("collated").
		WillReturnRows(layoutRows("k", "text", "v", "bigint"))
	mock.ExpectExec(regexp.QuoteMeta("DROP TABLE `collated`")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS `collated` (`k` TEXT NULL, `v` DOUBLE NULL)")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `collated` (`k`, `v`) VALUES (?, ?)")).
		WithArgs("x", 1.5).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	c.Assert(conn.ReplaceTable("collated", tbl), quicktest.IsNil)
	c.Assert(mock.ExpectationsWereMet(), quicktest.IsNil)
}

func TestReplaceTable_RecreatesWhenColumnsRenamed(t *testing.T) {
	c := quicktest.New(t)
	dbMock, mock, err := sqlmock.New()
	c.Assert(err, quicktest.IsNil)
	defer dbMock.Close()

	conn := &Connection{db: dbMock, Type: PostgreSQL}
	mock.ExpectBegin()
	mock.ExpectQuery("information_schema.columns").WithArgs("collated").
		WillReturnRows(layoutRows("a", "bigint", "b", "text"))
	mock.ExpectExec(regexp.QuoteMeta(`DROP TABLE "collated"`)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS "collated" ("a" BIGINT NULL, "c" DOUBLE PRECISION NULL)`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO").WithArgs(int64(1), 2.5).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	c.Assert(conn.ReplaceTable("collated", mustTable(c, "a,c\n1,2.5\n")), quicktest.IsNil)
	c.Assert(mock.ExpectationsWereMet(), quicktest.IsNil)
}

func TestSameLayout(t *testing.T) {
	c := quicktest.New(t)
	schema := SchemaFor("t", mustTable(c, "a,b\n1,x\n"), PostgreSQL)
	c.Assert(sameLayout([]ColumnSchema{{"a", "bigint"}, {"b", "text"}}, schema), quicktest.IsTrue)
	c.Assert(sameLayout([]ColumnSchema{{"a", "BIGINT"}, {"b", "TEXT"}}, schema), quicktest.IsTrue)
	c.Assert(sameLayout([]ColumnSchema{{"b", "text"}, {"a", "bigint"}}, schema), quicktest.IsFalse)
	c.Assert(sameLayout([]ColumnSchema{{"a", "double precision"}, {"b", "text"}}, schema), quicktest.IsFalse)
	c.Assert(sameLayout([]ColumnSchema{{"a", "bigint"}}, schema), quicktest.IsFalse)
}

func TestMirror(t *testing.T) {
	c := quicktest.New(t)
	dbMock, mock, err := sqlmock.New()
	c.Assert(err, quicktest.IsNil)
	defer dbMock.Close()

	m := NewMirror(&Connection{db: dbMock, Type: PostgreSQL}, "latest")
	c.Assert(m.Name(), quicktest.Equals, "postgres:latest")

	mock.ExpectBegin()
	mock.ExpectQuery("information_schema").WillReturnRows(layoutRows())
	mock.ExpectExec("CREATE TABLE").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	c.Assert(m.WriteTable(mustTable(c, "a\n")), quicktest.IsNil)
	c.Assert(mock.ExpectationsWereMet(), quicktest.IsNil)
}
