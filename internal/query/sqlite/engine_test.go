package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
)

func newSQLMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func assertSQLMock(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sqlmock expectations: %v", err)
	}
}

func TestExecuteReturnsColumnsAndRows(t *testing.T) {
	db, mock := newSQLMock(t)
	engine := NewEngine(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT name, age FROM customers LIMIT 25`)).
		WillReturnRows(sqlmock.NewRows([]string{"name", "age"}).
			AddRow("alice", int64(30)).
			AddRow("bob", nil))

	result, err := engine.Execute(context.Background(), "SELECT name, age FROM customers LIMIT 25")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(result.Columns) != 2 || result.Columns[0] != "name" {
		t.Fatalf("Columns = %v", result.Columns)
	}
	if len(result.Rows) != 2 {
		t.Fatalf("Rows = %d", len(result.Rows))
	}
	if result.Rows[0][0] != "alice" {
		t.Fatalf("Rows[0][0] = %v", result.Rows[0][0])
	}
	if result.Rows[1][1] != nil {
		t.Fatalf("Rows[1][1] = %v, want nil", result.Rows[1][1])
	}
	assertSQLMock(t, mock)
}

func TestExecuteNormalizesByteSlices(t *testing.T) {
	db, mock := newSQLMock(t)
	engine := NewEngine(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT note FROM t`)).
		WillReturnRows(sqlmock.NewRows([]string{"note"}).AddRow([]byte("hello")))

	result, err := engine.Execute(context.Background(), "SELECT note FROM t")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.Rows[0][0] != "hello" {
		t.Fatalf("Rows[0][0] = %#v, want string", result.Rows[0][0])
	}
	assertSQLMock(t, mock)
}

func TestExecuteSurfacesDatabaseErrorVerbatim(t *testing.T) {
	db, mock := newSQLMock(t)
	engine := NewEngine(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM missing`)).
		WillReturnError(fmt.Errorf("no such table: missing"))

	_, err := engine.Execute(context.Background(), "SELECT * FROM missing")
	if err == nil {
		t.Fatal("Execute() should fail")
	}
	// the message is fed back to the model verbatim, so it must not be wrapped
	if err.Error() != "no such table: missing" {
		t.Fatalf("error = %q", err.Error())
	}
	assertSQLMock(t, mock)
}

func TestExecuteRejectsEmptySQL(t *testing.T) {
	db, _ := newSQLMock(t)
	engine := NewEngine(db)
	if _, err := engine.Execute(context.Background(), "   "); err == nil {
		t.Fatal("Execute() should reject empty sql")
	}
}

func TestSchemaJoinsTableDefinitions(t *testing.T) {
	db, mock := newSQLMock(t)
	engine := NewEngine(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT sql FROM sqlite_master WHERE type='table'`)).
		WillReturnRows(sqlmock.NewRows([]string{"sql"}).
			AddRow("CREATE TABLE a (\n  x INT\n)").
			AddRow("CREATE TABLE b (y TEXT)"))

	schema, err := engine.Schema(context.Background())
	if err != nil {
		t.Fatalf("Schema() error = %v", err)
	}
	want := "CREATE TABLE a (\nx INT\n)\nCREATE TABLE b (y TEXT)"
	if schema != want {
		t.Fatalf("Schema() = %q, want %q", schema, want)
	}
	assertSQLMock(t, mock)
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Fatal("Open() should reject empty path")
	}
}
