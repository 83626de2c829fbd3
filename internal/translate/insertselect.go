package translate

import "regexp"

// insertSelectDatetimeTranslator rewrites literal datetime values
// inside INSERT ... SELECT expression lists to the adapter's integer
// storage form, matching the target column types; rewriter 11 of spec
// §4.D. It reuses the same literal-matching regex the datetime
// translator's VALUES handling would apply, scoped to the SELECT
// expression list of an INSERT ... SELECT statement specifically.
type insertSelectDatetimeTranslator struct{}

func (insertSelectDatetimeTranslator) Name() string { return "insert_select_datetime_translator" }

var insertSelectRe = regexp.MustCompile(`(?is)^\s*INSERT\s+INTO\s+\S+.*?\)\s*SELECT\b`)

func (insertSelectDatetimeTranslator) Precheck(sql string) bool {
	return insertSelectRe.MatchString(sql) && dateTimeLiteralRe.MatchString(sql)
}

// dateTimeLiteralRe matches a quoted ISO-ish date/timestamp literal,
// e.g. '2024-01-02' or '2024-01-02 03:04:05'.
var dateTimeLiteralRe = regexp.MustCompile(`'(\d{4}-\d{2}-\d{2}(?:[ T]\d{2}:\d{2}:\d{2}(?:\.\d+)?(?:[+-]\d{2}:?\d{2})?)?)'`)

func (insertSelectDatetimeTranslator) Rewrite(sql string, ctx *Context) (string, error) {
	return rebuildOther(sql, func(s string) string {
		return dateTimeLiteralRe.ReplaceAllString(s, `pg_timestamp_from_text('$1')`)
	}), nil
}
