package catalog

import (
	"database/sql/driver"
	"fmt"

	"github.com/pgsqlite-go/pgsqlite/internal/oid"
	"modernc.org/sqlite"
)

// Register installs the catalog's own SQL functions into the
// modernc.org/sqlite driver (spec §4.H's "system functions required"
// list, plus oid_hash, the primitive the views in views.go build every
// relation/namespace/role OID from). sessionUser and databaseName seed
// current_user()/current_database() — this adapter serves one
// configured role against one SQLite file, so there's no per-connection
// role-switching to thread through a closure per spec §6's accept-any/
// single-role auth model.
//
// modernc.org/sqlite registers scalar functions at the driver level
// (RegisterDeterministicScalarFunction), not per open connection, so
// Register is called once at process startup before the first
// sql.Open, the same way database/sql driver registration itself works
// via blank import elsewhere in this codebase.
func Register(sessionUser, databaseName string) error {
	reg := func(name string, nArgs int, fn func(args []driver.Value) (driver.Value, error)) error {
		return sqlite.RegisterDeterministicScalarFunction(name, nArgs,
			func(ctx *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
				return fn(args)
			})
	}

	if err := reg("oid_hash", 1, func(args []driver.Value) (driver.Value, error) {
		name, _ := args[0].(string)
		return int64(Hash(name)), nil
	}); err != nil {
		return fmt.Errorf("catalog: registering oid_hash: %w", err)
	}

	if err := reg("current_user_name", 0, func(args []driver.Value) (driver.Value, error) {
		return sessionUser, nil
	}); err != nil {
		return fmt.Errorf("catalog: registering current_user_name: %w", err)
	}

	if err := reg("current_user", 0, func(args []driver.Value) (driver.Value, error) {
		return sessionUser, nil
	}); err != nil {
		return fmt.Errorf("catalog: registering current_user: %w", err)
	}

	if err := reg("current_database", 0, func(args []driver.Value) (driver.Value, error) {
		return databaseName, nil
	}); err != nil {
		return fmt.Errorf("catalog: registering current_database: %w", err)
	}

	if err := reg("current_schema", 0, func(args []driver.Value) (driver.Value, error) {
		return "public", nil
	}); err != nil {
		return fmt.Errorf("catalog: registering current_schema: %w", err)
	}

	if err := reg("pg_table_is_visible", 1, func(args []driver.Value) (driver.Value, error) {
		// Every relation this adapter emulates lives in the one
		// search-path schema ("public"), so visibility is unconditional.
		return int64(1), nil
	}); err != nil {
		return fmt.Errorf("catalog: registering pg_table_is_visible: %w", err)
	}

	if err := reg("pg_get_userbyid", 1, func(args []driver.Value) (driver.Value, error) {
		roleOid, ok := asInt64(args[0])
		if ok && uint32(roleOid) == Hash(sessionUser) {
			return sessionUser, nil
		}
		return "postgres", nil
	}); err != nil {
		return fmt.Errorf("catalog: registering pg_get_userbyid: %w", err)
	}

	if err := reg("format_type", 2, func(args []driver.Value) (driver.Value, error) {
		typOid, _ := asInt64(args[0])
		mod, _ := asInt64(args[1])
		return formatType(oid.Oid(typOid), int32(mod)), nil
	}); err != nil {
		return fmt.Errorf("catalog: registering format_type: %w", err)
	}

	if err := reg("regclass", 1, func(args []driver.Value) (driver.Value, error) {
		name, _ := args[0].(string)
		return int64(Hash(name)), nil
	}); err != nil {
		return fmt.Errorf("catalog: registering regclass: %w", err)
	}

	if err := reg("has_table_privilege", 3, func(args []driver.Value) (driver.Value, error) {
		// This adapter has no ACL enforcement (spec Non-goals); the
		// active session user always holds every privilege it asks about.
		return int64(1), nil
	}); err != nil {
		return fmt.Errorf("catalog: registering has_table_privilege: %w", err)
	}

	if err := reg("pg_get_indexdef", 1, func(args []driver.Value) (driver.Value, error) {
		// Index definitions aren't reconstructed from sqlite_master's own
		// CREATE INDEX text; this shim always returns an empty string and
		// exists so ORMs probing for it don't fail to parse.
		return "", nil
	}); err != nil {
		return fmt.Errorf("catalog: registering pg_get_indexdef: %w", err)
	}

	if err := reg("pg_get_constraintdef", 1, func(args []driver.Value) (driver.Value, error) {
		return "", nil
	}); err != nil {
		return fmt.Errorf("catalog: registering pg_get_constraintdef: %w", err)
	}

	if err := reg("pg_get_expr", 2, func(args []driver.Value) (driver.Value, error) {
		return "", nil
	}); err != nil {
		return fmt.Errorf("catalog: registering pg_get_expr: %w", err)
	}

	return nil
}

func asInt64(v driver.Value) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}

// formatType renders format_type(oid, typmod) the way psql's \d output
// expects: base name for mod==-1, length/precision suffix otherwise.
func formatType(o oid.Oid, mod int32) string {
	name := o.Name()
	switch name {
	case "varchar":
		if mod > 4 {
			return fmt.Sprintf("character varying(%d)", mod-4)
		}
		return "character varying"
	case "bpchar":
		if mod > 4 {
			return fmt.Sprintf("character(%d)", mod-4)
		}
		return "character"
	case "numeric":
		if mod > 4 {
			precision := (mod - 4) >> 16
			scale := (mod - 4) & 0xffff
			return fmt.Sprintf("numeric(%d,%d)", precision, scale)
		}
		return "numeric"
	case "int4":
		return "integer"
	case "int8":
		return "bigint"
	case "int2":
		return "smallint"
	case "float4":
		return "real"
	case "float8":
		return "double precision"
	case "bool":
		return "boolean"
	case "timestamp":
		return "timestamp without time zone"
	case "timestamptz":
		return "timestamp with time zone"
	case "time":
		return "time without time zone"
	case "timetz":
		return "time with time zone"
	default:
		return name
	}
}
