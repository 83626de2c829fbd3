package translate

import (
	"regexp"
	"strings"
)

// datetimeTranslator rewrites PostgreSQL datetime functions to their
// SQLite equivalents and normalizes common function calls; rewriter 5
// of spec §4.D. It also rewrites a datetime literal assigned directly
// in an INSERT's VALUES list or an UPDATE's SET clause to the matching
// pg_*_from_text(...) shim call, when Run resolved the statement's
// target table's column types (see rewriteDML in dml.go) — the same
// integer-storage conversion this rewriter already applies to NOW()/
// EXTRACT(...)/etc. A bound ($n) placeholder is left untouched here;
// the executor's parameter binding path (internal/types) converts a
// bound value to its integer storage form itself.
type datetimeTranslator struct{}

func (datetimeTranslator) Name() string { return "datetime_translator" }

func (datetimeTranslator) Precheck(sql string) bool {
	u := strings.ToUpper(sql)
	for _, marker := range []string{"NOW(", "EXTRACT(", "DATE_TRUNC(", "AGE(", "AT TIME ZONE", "CURRENT_TIMESTAMP", "CURRENT_DATE", "CURRENT_TIME"} {
		if strings.Contains(u, marker) {
			return true
		}
	}
	trimmed := strings.TrimSpace(u)
	return strings.HasPrefix(trimmed, "INSERT") || strings.HasPrefix(trimmed, "UPDATE")
}

var (
	nowCallRe      = regexp.MustCompile(`(?i)\bNOW\(\)`)
	extractRe      = regexp.MustCompile(`(?i)EXTRACT\s*\(\s*(\w+)\s+FROM\s+(.+?)\)`)
	dateTruncRe    = regexp.MustCompile(`(?i)DATE_TRUNC\s*\(\s*'(\w+)'\s*,\s*(.+?)\)`)
	ageRe          = regexp.MustCompile(`(?i)AGE\s*\(\s*(.+?)\s*,\s*(.+?)\)`)
	atTimeZoneRe   = regexp.MustCompile(`(?i)(\S+)\s+AT\s+TIME\s+ZONE\s+'([^']+)'`)
)

func (datetimeTranslator) Rewrite(sql string, ctx *Context) (string, error) {
	ctx.Volatile = ctx.Volatile || strings.Contains(strings.ToUpper(sql), "NOW(") || strings.Contains(strings.ToUpper(sql), "CURRENT_TIMESTAMP")
	out := rebuildOther(sql, func(s string) string {
		s = nowCallRe.ReplaceAllString(s, "CURRENT_TIMESTAMP")
		s = extractRe.ReplaceAllString(s, `datetime_extract('$1', $2)`)
		s = ageRe.ReplaceAllString(s, `datetime_age($1, $2)`)
		return s
	})
	// DATE_TRUNC's unit and AT TIME ZONE's zone are quoted literals, which
	// tokenize keeps out of the tokOther runs, so these match the whole text.
	out = dateTruncRe.ReplaceAllString(out, `datetime_trunc('$1', $2)`)
	out = atTimeZoneRe.ReplaceAllString(out, `at_time_zone($1, '$2')`)
	if len(ctx.Columns) > 0 {
		out = rewriteDML(out, ctx)
	}
	return out, nil
}
