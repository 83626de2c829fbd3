package migrate

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
)

// Migration is one entry of the built-in ordered migration list (spec
// §3: "{version, name, description, up, down?, dependencies,
// checksum}").
type Migration struct {
	Version      int
	Name         string
	Description  string
	Up           string
	Down         string
	Dependencies []int
}

func (m Migration) checksum() string {
	sum := sha256.Sum256([]byte(m.Up))
	return hex.EncodeToString(sum[:])
}

// builtinMigrations defines every sidecar table this adapter needs
// (spec §3, the minimum __pgsqlite_* table list). Later migrations may
// ALTER tables an earlier one created; version order IS dependency
// order here, so Dependencies only needs to name a predecessor when a
// future migration skips ahead of it.
var builtinMigrations = []Migration{
	{
		Version:     1,
		Name:        "schema",
		Description: "authoritative PostgreSQL column type metadata",
		Up: `CREATE TABLE __pgsqlite_schema (
			table_name TEXT NOT NULL,
			column_name TEXT NOT NULL,
			pg_type TEXT NOT NULL,
			pg_type_oid INTEGER NOT NULL,
			type_mod INTEGER NOT NULL DEFAULT -1,
			datetime_format TEXT,
			tz_offset_secs INTEGER,
			not_null INTEGER NOT NULL DEFAULT 0,
			position INTEGER NOT NULL,
			PRIMARY KEY (table_name, column_name)
		)`,
		Down: `DROP TABLE __pgsqlite_schema`,
	},
	{
		Version:     2,
		Name:        "string_constraints",
		Description: "VARCHAR(n)/CHAR(n) length caps",
		Up: `CREATE TABLE __pgsqlite_string_constraints (
			table_name TEXT NOT NULL,
			column_name TEXT NOT NULL,
			max_length INTEGER NOT NULL,
			fixed_width INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (table_name, column_name)
		)`,
		Down: `DROP TABLE __pgsqlite_string_constraints`,
	},
	{
		Version:     3,
		Name:        "numeric_constraints",
		Description: "NUMERIC(p,s) precision/scale",
		Up: `CREATE TABLE __pgsqlite_numeric_constraints (
			table_name TEXT NOT NULL,
			column_name TEXT NOT NULL,
			precision INTEGER NOT NULL,
			scale INTEGER NOT NULL,
			PRIMARY KEY (table_name, column_name)
		)`,
		Down: `DROP TABLE __pgsqlite_numeric_constraints`,
	},
	{
		Version:     4,
		Name:        "array_types",
		Description: "ARRAY[...] element type tracking",
		Up: `CREATE TABLE __pgsqlite_array_types (
			table_name TEXT NOT NULL,
			column_name TEXT NOT NULL,
			element_oid INTEGER NOT NULL,
			element_pg_type TEXT NOT NULL,
			PRIMARY KEY (table_name, column_name)
		)`,
		Down: `DROP TABLE __pgsqlite_array_types`,
	},
	{
		Version:     5,
		Name:        "enum_types",
		Description: "CREATE TYPE ... AS ENUM definitions",
		Up: `CREATE TABLE __pgsqlite_enum_types (
			type_name TEXT PRIMARY KEY,
			oid INTEGER NOT NULL UNIQUE
		)`,
		Down: `DROP TABLE __pgsqlite_enum_types`,
	},
	{
		Version:      6,
		Name:         "enum_values",
		Description:  "enum label ordering",
		Dependencies: []int{5},
		Up: `CREATE TABLE __pgsqlite_enum_values (
			type_name TEXT NOT NULL REFERENCES __pgsqlite_enum_types(type_name),
			value TEXT NOT NULL,
			sort_order INTEGER NOT NULL,
			PRIMARY KEY (type_name, value)
		)`,
		Down: `DROP TABLE __pgsqlite_enum_values`,
	},
	{
		Version:      7,
		Name:         "enum_usage",
		Description:  "which columns reference which enum type",
		Dependencies: []int{5},
		Up: `CREATE TABLE __pgsqlite_enum_usage (
			table_name TEXT NOT NULL,
			column_name TEXT NOT NULL,
			type_name TEXT NOT NULL REFERENCES __pgsqlite_enum_types(type_name),
			PRIMARY KEY (table_name, column_name)
		)`,
		Down: `DROP TABLE __pgsqlite_enum_usage`,
	},
	{
		Version:     8,
		Name:        "fts_tables",
		Description: "CREATE TABLE ... WITH (fts) shadow-table tracking",
		Up: `CREATE TABLE __pgsqlite_fts_tables (
			table_name TEXT PRIMARY KEY,
			shadow_table_name TEXT NOT NULL
		)`,
		Down: `DROP TABLE __pgsqlite_fts_tables`,
	},
	{
		Version:      9,
		Name:         "fts_columns",
		Description:  "fts5-indexed columns",
		Dependencies: []int{8},
		Up: `CREATE TABLE __pgsqlite_fts_columns (
			table_name TEXT NOT NULL REFERENCES __pgsqlite_fts_tables(table_name),
			column_name TEXT NOT NULL,
			PRIMARY KEY (table_name, column_name)
		)`,
		Down: `DROP TABLE __pgsqlite_fts_columns`,
	},
	{
		Version:     10,
		Name:        "comments",
		Description: "COMMENT ON table/column/database text",
		Up: `CREATE TABLE __pgsqlite_comments (
			object_type TEXT NOT NULL,
			table_name TEXT NOT NULL DEFAULT '',
			column_name TEXT NOT NULL DEFAULT '',
			comment TEXT NOT NULL,
			PRIMARY KEY (object_type, table_name, column_name)
		)`,
		Down: `DROP TABLE __pgsqlite_comments`,
	},
}

const createMigrationsTableSQL = `CREATE TABLE IF NOT EXISTS __pgsqlite_migrations (
	version INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	checksum TEXT NOT NULL,
	applied_at INTEGER NOT NULL,
	status TEXT NOT NULL
)`

// Migrator applies builtinMigrations in order, serialized by a
// SchemaLock so that two backends opening the same file concurrently
// never race on CREATE TABLE (spec §3: "a process-wide advisory lock
// table prevents concurrent runners").
type Migrator struct {
	db  *sql.DB
	log *logrus.Entry
}

func NewMigrator(db *sql.DB, log *logrus.Entry) *Migrator {
	return &Migrator{db: db, log: log}
}

// ErrSchemaDrift is returned by Apply when a database that already has
// recorded migrations still has built-in migrations pending and
// allowAutoMigrate is false. Apply does not compare __pgsqlite_schema
// with PRAGMA table_info, and an applied version this binary does not
// know is not reported.
type ErrSchemaDrift struct {
	Detail string
}

func (e *ErrSchemaDrift) Error() string {
	return fmt.Sprintf("migrate: schema drift detected: %s", e.Detail)
}

// Apply runs every migration whose version is not yet recorded in
// __pgsqlite_migrations, in ascending version order. allowAutoMigrate
// controls whether a file-backed database missing migrations is
// upgraded in place or rejected outright (spec §3: "auto-migrates
// (in-memory/new file)" vs. "refuses to start" for an existing
// file-backed database below the newest built-in version).
func (m *Migrator) Apply(allowAutoMigrate bool) error {
	if _, err := m.db.Exec(createMigrationsTableSQL); err != nil {
		return fmt.Errorf("migrate: creating migrations table: %w", err)
	}

	lock := NewSchemaLock(m.db)
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("migrate: acquiring schema lock: %w", err)
	}
	defer lock.Unlock()
	tx := lock.Tx()

	applied, err := m.appliedVersions(tx)
	if err != nil {
		return err
	}

	pending := make([]Migration, 0)
	sorted := append([]Migration(nil), builtinMigrations...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Version < sorted[j].Version })
	for _, mig := range sorted {
		if _, ok := applied[mig.Version]; !ok {
			pending = append(pending, mig)
		}
	}

	if len(pending) == 0 {
		return nil
	}
	if len(applied) > 0 && !allowAutoMigrate {
		return &ErrSchemaDrift{Detail: fmt.Sprintf("%d migration(s) pending on a file-backed database opened without auto-migrate", len(pending))}
	}

	for _, mig := range pending {
		if err := m.applyOne(tx, mig); err != nil {
			return fmt.Errorf("migrate: applying migration %d (%s): %w", mig.Version, mig.Name, err)
		}
		m.log.WithFields(logrus.Fields{"version": mig.Version, "name": mig.Name}).Info("applied migration")
	}
	return nil
}

func (m *Migrator) appliedVersions(tx *sql.Tx) (map[int]string, error) {
	rows, err := tx.Query("SELECT version, checksum FROM __pgsqlite_migrations WHERE status = 'applied'")
	if err != nil {
		return nil, fmt.Errorf("migrate: reading applied migrations: %w", err)
	}
	defer rows.Close()

	out := make(map[int]string)
	for rows.Next() {
		var v int
		var sum string
		if err := rows.Scan(&v, &sum); err != nil {
			return nil, err
		}
		out[v] = sum
	}
	return out, rows.Err()
}

func (m *Migrator) applyOne(tx *sql.Tx, mig Migration) error {
	if _, err := tx.Exec(mig.Up); err != nil {
		return err
	}
	_, err := tx.Exec(
		`INSERT INTO __pgsqlite_migrations (version, name, checksum, applied_at, status) VALUES (?, ?, ?, strftime('%s','now'), 'applied')`,
		mig.Version, mig.Name, mig.checksum(),
	)
	return err
}
