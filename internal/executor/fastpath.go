package executor

import (
	"regexp"

	"github.com/pgsqlite-go/pgsqlite/internal/migrate"
)

// Spec §4.F step 3's "ultra-fast path": a query matches one of these
// four shapes, contains no translator-requiring construct except a
// bare `$n::type` parameter cast, and touches only columns with no
// conversion-needing type. No AST parse runs for these; a regex match
// plus a column-type lookup decides eligibility.
var (
	fastSelectRe = regexp.MustCompile(`(?is)^\s*select\s+[\w\s,."*()]+\s+from\s+"?([a-zA-Z_][\w]*)"?(\s+where\s+.+)?\s*;?\s*$`)
	fastInsertRe = regexp.MustCompile(`(?is)^\s*insert\s+into\s+"?([a-zA-Z_][\w]*)"?\s*\([^)]*\)\s*values\s*\([^;]*\)\s*;?\s*$`)
	fastUpdateRe = regexp.MustCompile(`(?is)^\s*update\s+"?([a-zA-Z_][\w]*)"?\s+set\s+.+$`)
	fastDeleteRe = regexp.MustCompile(`(?is)^\s*delete\s+from\s+"?([a-zA-Z_][\w]*)"?(\s+where\s+.+)?\s*;?\s*$`)

	// ddlTableRe extracts the target table from the common single-table
	// DDL shapes (CREATE/ALTER/DROP TABLE, TRUNCATE); a DROP naming
	// several tables or any other shape falls back to a full cache
	// invalidation (empty table name) in executeOne.
	ddlTableRe = regexp.MustCompile(`(?is)^\s*(?:create|alter|drop|truncate)\s+table\s+(?:if\s+(?:not\s+)?exists\s+)?"?([a-zA-Z_][\w]*)"?`)

	// These constructs disqualify the fast path: subqueries, joins,
	// unions, CASE, CTEs, RETURNING, ON CONFLICT, grouping and DISTINCT
	// all need the translator chain. Function calls are not matched here.
	fastDisqualifyingRe = regexp.MustCompile(`(?is)\b(join|union|case|exists|with|returning|on\s+conflict|group\s+by|having|distinct)\b|\(\s*select`)

	// conversionNeedingTypes are the PostgreSQL type names whose storage
	// representation differs from SQLite's own affinity closely enough
	// that the standard translator path (datetime/array/json/numeric
	// rewriters, boolean coercion) must run instead of a raw pass-through.
	conversionNeedingTypes = map[string]bool{
		"timestamp": true, "timestamptz": true, "date": true, "time": true, "timetz": true,
		"numeric": true, "decimal": true,
		"json": true, "jsonb": true,
		"bool": true, "boolean": true,
	}
)

// Table extracts the fast-path candidate's target table name, or ""
// if sql doesn't match one of the four simple shapes.
func Table(sql string) (string, bool) {
	for _, re := range []*regexp.Regexp{fastSelectRe, fastInsertRe, fastUpdateRe, fastDeleteRe} {
		if m := re.FindStringSubmatch(sql); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// DDLTable extracts the table a CREATE/ALTER/DROP/TRUNCATE TABLE
// statement targets, for cache invalidation. Statements with no single
// extractable table (CREATE INDEX, multi-table DROP, etc.) return ok
// false so the caller invalidates everything instead.
func DDLTable(sql string) (string, bool) {
	if m := ddlTableRe.FindStringSubmatch(sql); m != nil {
		return m[1], true
	}
	return "", false
}

// Eligible implements spec §4.F step 3's ultra-fast-path test: the SQL
// must match one of the simple shapes, contain none of the
// disqualifying constructs, and every column of the target table must
// need no PostgreSQL<->SQLite conversion.
func Eligible(sql string, columns []migrate.ColumnMeta) bool {
	if fastDisqualifyingRe.MatchString(sql) {
		return false
	}
	if _, ok := Table(sql); !ok {
		return false
	}
	for _, c := range columns {
		if conversionNeedingTypes[c.PgType] {
			return false
		}
	}
	return true
}
