package catalog

import (
	"fmt"
	"strings"

	"github.com/pgsqlite-go/pgsqlite/internal/oid"
)

// excludedTablePrefixes are never exposed as user relations in
// pg_class/information_schema.tables: SQLite's own bookkeeping tables
// and this adapter's sidecar tables are implementation detail, not
// part of the emulated schema.
var excludedTablePrefixes = []string{"sqlite_", "__pgsqlite_"}

func tableFilterSQL(column string) string {
	var b strings.Builder
	for i, p := range excludedTablePrefixes {
		if i > 0 {
			b.WriteString(" AND ")
		}
		fmt.Fprintf(&b, "%s NOT LIKE '%s%%'", column, p)
	}
	return b.String()
}

// pgTypeValuesSQL renders the static pg_type seed rows from
// internal/oid.All() as a SQL VALUES list, since unlike tables/columns
// this relation's contents are the adapter's own fixed type table, not
// something pulled live from sqlite_master.
func pgTypeValuesSQL() string {
	rows := oid.All()
	var b strings.Builder
	for i, o := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		elemOid := uint32(0)
		if e, ok := oid.ArrayElement(o); ok {
			elemOid = uint32(e)
		}
		arrOid := uint32(0)
		if a, ok := oid.ArrayOf(o); ok {
			arrOid = uint32(a)
		}
		fmt.Fprintf(&b, "(%d, '%s', %d, '%c', %d)", uint32(o), o.Name(), elemOid, oid.Category(o), arrOid)
	}
	return b.String()
}

// Views returns the ordered CREATE VIEW statements for every pg_catalog
// and information_schema relation spec §4.H names. Each view is dropped
// (DROP VIEW IF EXISTS) and created again so Bootstrap is idempotent
// across restarts, and
// they read live from sqlite_master/pragma_table_info and the sidecar
// tables migrate.NewMigrator creates, so they never go stale as the
// user's schema changes.
func Views() []string {
	return []string{
		`DROP VIEW IF EXISTS pg_type`,
		fmt.Sprintf(`CREATE VIEW pg_type (oid, typname, typelem, typcategory, typarray) AS
			SELECT * FROM (VALUES %s)`, pgTypeValuesSQL()),

		`DROP VIEW IF EXISTS pg_namespace`,
		`CREATE VIEW pg_namespace (oid, nspname, nspowner, nspacl) AS
			SELECT oid_hash(nspname), nspname, oid_hash('postgres'), NULL
			FROM (SELECT 'pg_catalog' AS nspname UNION ALL SELECT 'public' UNION ALL SELECT 'information_schema')`,

		`DROP VIEW IF EXISTS pg_am`,
		`CREATE VIEW pg_am (oid, amname, amhandler, amtype) AS
			SELECT oid_hash(amname), amname, 0, 't'
			FROM (SELECT 'btree' AS amname UNION ALL SELECT 'hash' UNION ALL SELECT 'fts5')`,

		`DROP VIEW IF EXISTS pg_class`,
		fmt.Sprintf(`CREATE VIEW pg_class (
				oid, relname, relnamespace, reltype, relowner, relam, relfilenode,
				reltablespace, relpages, reltuples, relhasindex, relpersistence,
				relkind, relnatts, relchecks, relhasrules, relhastriggers,
				relrowsecurity, relforcerowsecurity, relispopulated, relreplident
			) AS
			SELECT
				oid_hash(m.name), m.name, oid_hash('public'), 0, oid_hash('postgres'), 0, 0,
				0, 0, 0.0, 0,
				'p',
				CASE m.type WHEN 'table' THEN 'r' WHEN 'view' THEN 'v' WHEN 'index' THEN 'i' ELSE 'r' END,
				(SELECT COUNT(*) FROM pragma_table_info(m.name)),
				0, 0, 0, 0, 0, 1, 'n'
			FROM sqlite_master m
			WHERE m.type IN ('table', 'view', 'index') AND %s`, tableFilterSQL("m.name")),

		`DROP VIEW IF EXISTS pg_attribute`,
		`CREATE VIEW pg_attribute (
				attrelid, attname, atttypid, attstattarget, attlen, attnum,
				atttypmod, attndims, attbyval, attnotnull, atthasdef,
				attidentity, attisdropped, attislocal, attinhcount, attcollation
			) AS
			SELECT
				oid_hash(s.table_name), s.column_name, s.pg_type_oid, -1, -1, s.position,
				s.type_mod, 0, 0, s.not_null, 0,
				'', 0, 1, 0, 0
			FROM __pgsqlite_schema s`,

		`DROP VIEW IF EXISTS pg_attrdef`,
		`CREATE VIEW pg_attrdef (oid, adrelid, adnum, adbin, adsrc) AS
			SELECT 0, 0, 0, '', '' WHERE 0`,

		`DROP VIEW IF EXISTS pg_constraint`,
		`CREATE VIEW pg_constraint (oid, conname, connamespace, contype, conrelid, confrelid, conkey) AS
			SELECT oid_hash(table_name || '_' || column_name || '_check'), column_name || '_check',
				oid_hash('public'), 'c', oid_hash(table_name), 0, NULL
			FROM __pgsqlite_numeric_constraints
			UNION ALL
			SELECT oid_hash(table_name || '_' || column_name || '_len'), column_name || '_len',
				oid_hash('public'), 'c', oid_hash(table_name), 0, NULL
			FROM __pgsqlite_string_constraints`,

		`DROP VIEW IF EXISTS pg_index`,
		`CREATE VIEW pg_index (indexrelid, indrelid, indnatts, indisunique, indisprimary, indkey) AS
			SELECT oid_hash(il.name), oid_hash(m.name),
				(SELECT COUNT(*) FROM pragma_index_info(il.name)),
				il.[unique], CASE WHEN il."origin" = 'pk' THEN 1 ELSE 0 END, ''
			FROM sqlite_master m
			JOIN pragma_index_list(m.name) il
			WHERE m.type = 'table'`,

		`DROP VIEW IF EXISTS pg_depend`,
		`CREATE VIEW pg_depend (classid, objid, objsubid, refclassid, refobjid, refobjsubid, deptype) AS
			SELECT 0, 0, 0, 0, 0, 0, 'n' WHERE 0`,

		`DROP VIEW IF EXISTS pg_proc`,
		`CREATE VIEW pg_proc (oid, proname, pronamespace, prorettype, proargtypes) AS
			SELECT oid_hash(name), name, oid_hash('pg_catalog'), 0, ''
			FROM (
				SELECT 'pg_table_is_visible' AS name UNION ALL SELECT 'format_type'
				UNION ALL SELECT 'regclass' UNION ALL SELECT 'current_user'
				UNION ALL SELECT 'current_database' UNION ALL SELECT 'current_schema'
				UNION ALL SELECT 'has_table_privilege' UNION ALL SELECT 'pg_get_userbyid'
				UNION ALL SELECT 'pg_get_indexdef' UNION ALL SELECT 'pg_get_constraintdef'
				UNION ALL SELECT 'pg_get_expr'
			)`,

		`DROP VIEW IF EXISTS pg_description`,
		`CREATE VIEW pg_description (objoid, classoid, objsubid, description) AS
			SELECT oid_hash(table_name), oid_hash('pg_class'), 0, comment
			FROM __pgsqlite_comments WHERE column_name = ''
			UNION ALL
			SELECT oid_hash(table_name), oid_hash('pg_attribute'),
				(SELECT position FROM __pgsqlite_schema s WHERE s.table_name = c.table_name AND s.column_name = c.column_name),
				comment
			FROM __pgsqlite_comments c WHERE column_name != ''`,

		`DROP VIEW IF EXISTS pg_roles`,
		`CREATE VIEW pg_roles (oid, rolname, rolsuper, rolcreaterole, rolcreatedb, rolcanlogin) AS
			SELECT oid_hash(rolname), rolname, 1, 1, 1, 1
			FROM (SELECT 'postgres' AS rolname UNION ALL SELECT current_user_name())`,

		`DROP VIEW IF EXISTS pg_user`,
		`CREATE VIEW pg_user (usename, usesysid, usecreatedb, usesuper) AS
			SELECT rolname, oid, rolcreatedb, rolsuper FROM pg_roles`,

		`DROP VIEW IF EXISTS pg_stats`,
		`CREATE VIEW pg_stats (schemaname, tablename, attname, null_frac, n_distinct) AS
			SELECT 'public', table_name, column_name, 0.0, -1.0 FROM __pgsqlite_schema`,

		`DROP VIEW IF EXISTS pg_tablespace`,
		`CREATE VIEW pg_tablespace (oid, spcname, spcowner) AS
			SELECT oid_hash('pg_default'), 'pg_default', oid_hash('postgres')
			UNION ALL
			SELECT oid_hash('pg_global'), 'pg_global', oid_hash('postgres')`,

		`DROP VIEW IF EXISTS information_schema.tables`,
		fmt.Sprintf(`CREATE VIEW information_schema.tables (table_catalog, table_schema, table_name, table_type) AS
			SELECT 'main', 'public', name, CASE type WHEN 'view' THEN 'VIEW' ELSE 'BASE TABLE' END
			FROM main.sqlite_master WHERE type IN ('table', 'view') AND %s`, tableFilterSQL("name")),

		`DROP VIEW IF EXISTS information_schema.columns`,
		`CREATE VIEW information_schema.columns (
				table_catalog, table_schema, table_name, column_name, ordinal_position,
				is_nullable, data_type, character_maximum_length, numeric_precision,
				numeric_scale, column_default
			) AS
			SELECT
				'main', 'public', s.table_name, s.column_name, s.position,
				CASE s.not_null WHEN 1 THEN 'NO' ELSE 'YES' END, s.pg_type,
				sc.max_length, nc.precision, nc.scale, NULL
			FROM main.__pgsqlite_schema s
			LEFT JOIN main.__pgsqlite_string_constraints sc
				ON sc.table_name = s.table_name AND sc.column_name = s.column_name
			LEFT JOIN main.__pgsqlite_numeric_constraints nc
				ON nc.table_name = s.table_name AND nc.column_name = s.column_name`,

		`DROP VIEW IF EXISTS information_schema.table_constraints`,
		`CREATE VIEW information_schema.table_constraints (
				constraint_catalog, constraint_schema, constraint_name,
				table_catalog, table_schema, table_name, constraint_type
			) AS
			SELECT 'main', 'public', column_name || '_check', 'main', 'public', table_name, 'CHECK'
			FROM main.__pgsqlite_numeric_constraints
			UNION ALL
			SELECT 'main', 'public', column_name || '_len', 'main', 'public', table_name, 'CHECK'
			FROM main.__pgsqlite_string_constraints`,

		`DROP VIEW IF EXISTS information_schema.key_column_usage`,
		`CREATE VIEW information_schema.key_column_usage (
				constraint_catalog, constraint_schema, constraint_name,
				table_catalog, table_schema, table_name, column_name, ordinal_position
			) AS
			SELECT 'main', 'public', il.name || '_pk', 'main', 'public', m.name, ii.name, ii.seqno + 1
			FROM main.sqlite_master m
			JOIN pragma_index_list(m.name) il ON il."origin" = 'pk'
			JOIN pragma_index_info(il.name) ii
			WHERE m.type = 'table'`,
	}
}
