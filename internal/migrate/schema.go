package migrate

import (
	"database/sql"
	"fmt"
)

// ColumnMeta is one row of __pgsqlite_schema: the authoritative PG type
// record for a SQLite column (spec §3). PRAGMA table_info is not read
// in its place when a row is missing.
type ColumnMeta struct {
	TableName    string
	ColumnName   string
	PgType       string
	PgTypeOID    uint32
	TypeMod      int32
	DateTimeFmt  string
	TZOffsetSecs int32
	NotNull      bool
	Position     int
}

// StringConstraint is a row of __pgsqlite_string_constraints: a
// VARCHAR(n)/CHAR(n) length cap SQLite itself doesn't enforce.
type StringConstraint struct {
	TableName  string
	ColumnName string
	MaxLength  int32
	FixedWidth bool
}

// NumericConstraint is a row of __pgsqlite_numeric_constraints: the
// precision/scale pair of a NUMERIC(p,s) column.
type NumericConstraint struct {
	TableName  string
	ColumnName string
	Precision  int32
	Scale      int32
}

// ArrayType is a row of __pgsqlite_array_types: marks a column as
// storing a PostgreSQL array, recording its element type.
type ArrayType struct {
	TableName    string
	ColumnName   string
	ElementOID   uint32
	ElementPgType string
}

// EnumType/EnumValue/EnumUsage track CREATE TYPE ... AS ENUM
// definitions and which columns reference them.
type EnumType struct {
	TypeName string
	OID      uint32
}

type EnumValue struct {
	TypeName string
	Value    string
	SortOrder int32
}

type EnumUsage struct {
	TableName  string
	ColumnName string
	TypeName   string
}

// FTSTable/FTSColumn record which tables were created WITH (fts) and
// which of their columns are indexed, so the translator can route
// queries against them to SQLite's fts5 virtual table.
type FTSTable struct {
	TableName       string
	ShadowTableName string
}

type FTSColumn struct {
	TableName  string
	ColumnName string
}

// Comment is a row of __pgsqlite_comments, backing COMMENT ON.
type Comment struct {
	ObjectType string // "table", "column", "database"
	TableName  string
	ColumnName string
	Comment    string
}

// LoadColumns reads __pgsqlite_schema for table, ordered by the
// declared column position. A table absent from the sidecar (created
// outside this adapter, or a catalog view) returns an empty, non-error
// slice; PRAGMA table_info is not consulted in that case, and the
// executor's buildFields describes such columns with its untyped
// fallback.
func LoadColumns(db *sql.DB, table string) ([]ColumnMeta, error) {
	rows, err := db.Query(
		`SELECT table_name, column_name, pg_type, pg_type_oid, type_mod,
			COALESCE(datetime_format, ''), COALESCE(tz_offset_secs, 0), not_null, position
		 FROM __pgsqlite_schema WHERE table_name = ? ORDER BY position`, table)
	if err != nil {
		return nil, fmt.Errorf("migrate: loading columns for %q: %w", table, err)
	}
	defer rows.Close()

	var out []ColumnMeta
	for rows.Next() {
		var c ColumnMeta
		var notNull int
		if err := rows.Scan(&c.TableName, &c.ColumnName, &c.PgType, &c.PgTypeOID,
			&c.TypeMod, &c.DateTimeFmt, &c.TZOffsetSecs, &notNull, &c.Position); err != nil {
			return nil, err
		}
		c.NotNull = notNull != 0
		out = append(out, c)
	}
	return out, rows.Err()
}

// LoadNumericConstraint reads a column's NUMERIC(p,s) precision/scale
// pair, if DDL ingestion recorded one for it. ok is false for a column
// with no numeric constraint (not NUMERIC, or NUMERIC with no declared
// precision), not an error.
func LoadNumericConstraint(db *sql.DB, table, column string) (NumericConstraint, bool, error) {
	nc := NumericConstraint{TableName: table, ColumnName: column}
	err := db.QueryRow(
		`SELECT precision, scale FROM __pgsqlite_numeric_constraints WHERE table_name = ? AND column_name = ?`,
		table, column,
	).Scan(&nc.Precision, &nc.Scale)
	if err == sql.ErrNoRows {
		return NumericConstraint{}, false, nil
	}
	if err != nil {
		return NumericConstraint{}, false, fmt.Errorf("migrate: loading numeric constraint for %q.%q: %w", table, column, err)
	}
	return nc, true, nil
}

// LoadStringConstraint reads a column's VARCHAR(n)/CHAR(n) length cap,
// if DDL ingestion recorded one for it.
func LoadStringConstraint(db *sql.DB, table, column string) (StringConstraint, bool, error) {
	sc := StringConstraint{TableName: table, ColumnName: column}
	var fixed int
	err := db.QueryRow(
		`SELECT max_length, fixed_width FROM __pgsqlite_string_constraints WHERE table_name = ? AND column_name = ?`,
		table, column,
	).Scan(&sc.MaxLength, &fixed)
	if err == sql.ErrNoRows {
		return StringConstraint{}, false, nil
	}
	if err != nil {
		return StringConstraint{}, false, fmt.Errorf("migrate: loading string constraint for %q.%q: %w", table, column, err)
	}
	sc.FixedWidth = fixed != 0
	return sc, true, nil
}
