package translate

import (
	"regexp"
	"strings"
)

// jsonTranslator rewrites PostgreSQL's JSON operators to the
// pgsqlite_json_* shim calls spec §4.D rewriter 7 and §4.I describe,
// avoiding the '$' path syntax SQLite's json_extract uses (which
// conflicts with this adapter's own '$n' placeholder syntax when a
// query is re-parsed).
type jsonTranslator struct{}

func (jsonTranslator) Name() string { return "json_translator" }

func (jsonTranslator) Precheck(sql string) bool {
	return strings.ContainsAny(sql, "?") ||
		strings.Contains(sql, "->") || strings.Contains(sql, "#>")
}

var (
	pathTextRe  = regexp.MustCompile(`(\S+)\s*#>>\s*('\{[^}]*\}'|\S+)`)
	pathJSONRe  = regexp.MustCompile(`(\S+)\s*#>\s*('\{[^}]*\}'|\S+)`)
	arrowTextRe = regexp.MustCompile(`(\S+)\s*->>\s*(\S+)`)
	arrowJSONRe = regexp.MustCompile(`(\S+)\s*->\s*(\S+)`)
	hasKeyAnyRe = regexp.MustCompile(`(\S+)\s*\?\|\s*(\S+)`)
	hasKeyAllRe = regexp.MustCompile(`(\S+)\s*\?&\s*(\S+)`)
	hasKeyRe    = regexp.MustCompile(`(\S+)\s*\?\s*(\S+)`)
)

func (jsonTranslator) Rewrite(sql string, ctx *Context) (string, error) {
	return rebuildOther(sql, func(s string) string {
		s = pathTextRe.ReplaceAllString(s, `pgsqlite_json_path_text($1, $2)`)
		s = pathJSONRe.ReplaceAllString(s, `pgsqlite_json_path_json($1, $2)`)
		s = arrowTextRe.ReplaceAllString(s, `pgsqlite_json_get_text($1, $2)`)
		s = arrowJSONRe.ReplaceAllString(s, `pgsqlite_json_get_json($1, $2)`)
		s = hasKeyAnyRe.ReplaceAllString(s, `pgsqlite_json_has_key_any($1, $2)`)
		s = hasKeyAllRe.ReplaceAllString(s, `pgsqlite_json_has_key_all($1, $2)`)
		s = hasKeyRe.ReplaceAllString(s, `pgsqlite_json_has_key($1, $2)`)
		return s
	}), nil
}
