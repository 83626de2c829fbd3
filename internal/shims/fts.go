package shims

import (
	"database/sql/driver"
	"strings"

	"modernc.org/sqlite"
)

// registerFTS implements pgsqlite_fts_match(doc, query), a
// case-insensitive test that every whitespace-separated term of query,
// with tsquery operator characters trimmed, occurs in doc as a
// substring. No rewriter in internal/translate emits calls to it, so a
// tsvector @@ tsquery predicate is not routed here, and no code in this
// module issues FTS5 MATCH queries against the shadow tables
// `__pgsqlite_fts_tables`/`__pgsqlite_fts_columns` track. Ranking,
// prefix matching, and boolean tsquery operators are not supported.
func registerFTS() error {
	return sqlite.RegisterDeterministicScalarFunction("pgsqlite_fts_match", 2,
		func(ctx *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
			doc, _ := args[0].(string)
			query, _ := args[1].(string)
			return boolInt(ftsMatch(doc, query)), nil
		})
}

func ftsMatch(doc, query string) bool {
	doc = strings.ToLower(doc)
	for _, term := range strings.Fields(strings.ToLower(query)) {
		term = strings.Trim(term, "&|!()'")
		if term == "" {
			continue
		}
		if !strings.Contains(doc, term) {
			return false
		}
	}
	return true
}
