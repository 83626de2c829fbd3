package migrate

import (
	"database/sql"
	"testing"

	"github.com/sirupsen/logrus"
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

func TestMigratorAppliesAllBuiltins(t *testing.T) {
	db := openMemDB(t)
	log := logrus.NewEntry(logrus.New())
	m := NewMigrator(db, log)
	require.NoError(t, m.Apply(true))

	var count int
	require.NoError(t, db.QueryRow("SELECT count(*) FROM __pgsqlite_migrations WHERE status = 'applied'").Scan(&count))
	require.Equal(t, len(builtinMigrations), count)

	for _, tbl := range []string{
		"__pgsqlite_schema", "__pgsqlite_string_constraints", "__pgsqlite_numeric_constraints",
		"__pgsqlite_array_types", "__pgsqlite_enum_types", "__pgsqlite_enum_values",
		"__pgsqlite_enum_usage", "__pgsqlite_fts_tables", "__pgsqlite_fts_columns", "__pgsqlite_comments",
	} {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name = ?", tbl).Scan(&name)
		require.NoError(t, err, "table %s should exist", tbl)
	}
}

func TestMigratorIsIdempotent(t *testing.T) {
	db := openMemDB(t)
	log := logrus.NewEntry(logrus.New())
	m := NewMigrator(db, log)
	require.NoError(t, m.Apply(true))
	require.NoError(t, m.Apply(true))
}

func TestMigratorRejectsFileBackedWithoutAutoMigrate(t *testing.T) {
	db := openMemDB(t)
	log := logrus.NewEntry(logrus.New())
	m := NewMigrator(db, log)
	require.NoError(t, m.Apply(true))

	// Simulate a second process opening the same file fresh, without
	// permission to auto-migrate, by wiping the applied record for one
	// migration so Apply sees pending work again.
	_, err := db.Exec("DELETE FROM __pgsqlite_migrations WHERE version = ?", builtinMigrations[len(builtinMigrations)-1].Version)
	require.NoError(t, err)

	err = m.Apply(false)
	require.Error(t, err)
	var drift *ErrSchemaDrift
	require.ErrorAs(t, err, &drift)
}
