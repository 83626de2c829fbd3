package executor

import (
	"context"
	"database/sql"
	"testing"

	"github.com/pgsqlite-go/pgsqlite/internal/cache"
	"github.com/pgsqlite-go/pgsqlite/internal/migrate"
	"github.com/pgsqlite-go/pgsqlite/internal/oid"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openMemDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestExecutor(t *testing.T) (*Executor, *sql.Conn) {
	t.Helper()
	db := openMemDB(t)
	_, err := db.Exec(`CREATE TABLE widgets (id INTEGER PRIMARY KEY, name TEXT, qty INTEGER)`)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE __pgsqlite_schema (
		table_name TEXT, column_name TEXT, pg_type TEXT, pg_type_oid INTEGER,
		type_mod INTEGER, datetime_format TEXT, tz_offset_secs INTEGER, not_null INTEGER, position INTEGER,
		PRIMARY KEY (table_name, column_name))`)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE __pgsqlite_string_constraints (
		table_name TEXT, column_name TEXT, max_length INTEGER, fixed_width INTEGER DEFAULT 0,
		PRIMARY KEY (table_name, column_name))`)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE __pgsqlite_numeric_constraints (
		table_name TEXT, column_name TEXT, precision INTEGER, scale INTEGER,
		PRIMARY KEY (table_name, column_name))`)
	require.NoError(t, err)
	insertMeta := func(col, pgType string, oidVal oid.Oid, pos int) {
		_, err := db.Exec(`INSERT INTO __pgsqlite_schema
			(table_name, column_name, pg_type, pg_type_oid, type_mod, not_null, position)
			VALUES ('widgets', ?, ?, ?, -1, 0, ?)`, col, pgType, uint32(oidVal), pos)
		require.NoError(t, err)
	}
	insertMeta("id", "int4", oid.T_int4, 0)
	insertMeta("name", "text", oid.T_text, 1)
	insertMeta("qty", "int4", oid.T_int4, 2)

	conn, err := db.Conn(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return New(db, cache.NewSet()), conn
}

func TestClassify(t *testing.T) {
	require.Equal(t, KindSelect, Classify("  select * from widgets"))
	require.Equal(t, KindInsert, Classify("INSERT INTO widgets (id) VALUES (1)"))
	require.Equal(t, KindUpdate, Classify("update widgets set qty = 1"))
	require.Equal(t, KindDelete, Classify("DELETE FROM widgets"))
	require.Equal(t, KindDDL, Classify("CREATE TABLE t (a int)"))
	require.Equal(t, KindTransaction, Classify("BEGIN"))
	require.Equal(t, KindCopy, Classify("COPY widgets FROM STDIN"))
	require.Equal(t, KindUtility, Classify("EXPLAIN SELECT 1"))
}

func TestCommandTag(t *testing.T) {
	require.Equal(t, "SELECT 3", CommandTag(KindSelect, "select * from t", 3))
	require.Equal(t, "INSERT 0 1", CommandTag(KindInsert, "insert into t values (1)", 1))
	require.Equal(t, "UPDATE 2", CommandTag(KindUpdate, "update t set a=1", 2))
	require.Equal(t, "DELETE 0", CommandTag(KindDelete, "delete from t", 0))
	require.Equal(t, "BEGIN", CommandTag(KindTransaction, "BEGIN", 0))
	require.Equal(t, "CREATE TABLE", CommandTag(KindDDL, "CREATE TABLE t (a int)", 0))
	require.Equal(t, "DROP INDEX", CommandTag(KindDDL, "DROP INDEX idx_t", 0))
	require.Equal(t, "CREATE TABLE", CommandTag(KindDDL, "CREATE TABLE IF NOT EXISTS t (a int)", 0))
}

func TestFastPathEligibility(t *testing.T) {
	cols := []migrate.ColumnMeta{{ColumnName: "id", PgType: "int4"}, {ColumnName: "name", PgType: "text"}}
	require.True(t, Eligible("SELECT id, name FROM widgets WHERE id = $1", cols))
	require.False(t, Eligible("SELECT id FROM widgets JOIN other ON widgets.id = other.id", cols))

	tsCols := []migrate.ColumnMeta{{ColumnName: "created_at", PgType: "timestamp"}}
	require.False(t, Eligible("SELECT created_at FROM events", tsCols))
}

func TestTableExtraction(t *testing.T) {
	table, ok := Table(`SELECT id, name FROM "widgets" WHERE id = $1`)
	require.True(t, ok)
	require.Equal(t, "widgets", table)

	_, ok = Table("SELECT 1")
	require.False(t, ok)
}

func TestSplitStatements(t *testing.T) {
	stmts := splitStatements("SELECT 1; SELECT ';' ; SELECT 2")
	require.Len(t, stmts, 3)
	require.Contains(t, stmts[1], "';'")
}

func TestExecuteSimpleSelectAndInsert(t *testing.T) {
	e, conn := newTestExecutor(t)
	ctx := context.Background()

	results, err := e.ExecuteSimple(ctx, conn, `INSERT INTO widgets (id, name, qty) VALUES (1, 'gear', 10)`)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "INSERT 0 1", results[0].Tag)

	results, err = e.ExecuteSimple(ctx, conn, `SELECT id, name, qty FROM widgets`)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "SELECT 1", results[0].Tag)
	require.Len(t, results[0].Fields, 3)
	require.Equal(t, oid.T_int4, results[0].Fields[0].TypeOID)
	require.Equal(t, []byte("gear"), results[0].Rows[0][1])
}

func TestExecuteSimpleMultiStatement(t *testing.T) {
	e, conn := newTestExecutor(t)
	ctx := context.Background()

	results, err := e.ExecuteSimple(ctx, conn, `INSERT INTO widgets (id, name, qty) VALUES (1, 'a', 1); INSERT INTO widgets (id, name, qty) VALUES (2, 'b', 2);`)
	require.NoError(t, err)
	require.Len(t, results, 2)

	results, err = e.ExecuteSimple(ctx, conn, `SELECT count(*) AS n FROM widgets`)
	require.NoError(t, err)
	require.Equal(t, []byte("2"), results[0].Rows[0][0])
}

func TestExecuteSimpleDDLInvalidatesSchemaCache(t *testing.T) {
	e, conn := newTestExecutor(t)
	ctx := context.Background()

	e.Caches.Schemas.Put("widgets", cache.TableSchema{Columns: []migrate.ColumnMeta{{ColumnName: "stale"}}})
	_, err := e.ExecuteSimple(ctx, conn, `ALTER TABLE widgets ADD COLUMN extra TEXT`)
	require.NoError(t, err)

	_, ok := e.Caches.Schemas.Get("widgets")
	require.False(t, ok)
}
