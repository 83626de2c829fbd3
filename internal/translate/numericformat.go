package translate

import (
	"regexp"
	"strings"
)

// numericFormatTranslator wraps ::text casts on NUMERIC columns with
// numeric_format, which canonicalizes the decimal text without applying
// the column's declared scale; rewriter 8 of spec §4.D. It can only
// recognize the textbook "col::text"/"col::varchar" shape here, and no
// layer looks up the column's NUMERIC(p,s) scale for the call site.
type numericFormatTranslator struct{}

func (numericFormatTranslator) Name() string { return "numeric_format_translator" }

func (numericFormatTranslator) Precheck(sql string) bool {
	return strings.Contains(strings.ToUpper(sql), "CAST(") && strings.Contains(strings.ToUpper(sql), " AS TEXT)")
}

// numericTextCastRe matches the CAST(expr AS TEXT) shape the cast
// translator (rewriter 3) already produced for a source-level
// expr::text/expr::varchar; it runs after that rewriter by design, so
// by the time this one sees the SQL the PostgreSQL cast syntax is
// already gone.
var numericTextCastRe = regexp.MustCompile(`(?i)CAST\(\s*([A-Za-z_][A-Za-z0-9_.]*)\s+AS\s+TEXT\s*\)`)

func (numericFormatTranslator) Rewrite(sql string, ctx *Context) (string, error) {
	return rebuildOther(sql, func(s string) string {
		return numericTextCastRe.ReplaceAllString(s, `numeric_format($1)`)
	}), nil
}
