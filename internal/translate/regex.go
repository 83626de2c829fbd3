package translate

import (
	"regexp"
	"strings"
)

// regexTranslator rewrites PostgreSQL's regex match operators into the
// REGEXP/REGEXPI functions this adapter registers as SQLite shims
// (spec §4.D rewriter 4, §4.I "Misc: regexp, regexpi").
type regexTranslator struct{}

func (regexTranslator) Name() string { return "regex_translator" }

func (regexTranslator) Precheck(sql string) bool {
	return strings.ContainsAny(sql, "~") || strings.Contains(sql, "OPERATOR(pg_catalog.~")
}

var (
	reNotCI  = regexp.MustCompile(`(\S+)\s*!~\*\s*(\S+)`)
	reCI     = regexp.MustCompile(`(\S+)\s*~\*\s*(\S+)`)
	reNot    = regexp.MustCompile(`(\S+)\s*!~\s*(\S+)`)
	reMatch  = regexp.MustCompile(`(\S+)\s*~\s*(\S+)`)
)

func (regexTranslator) Rewrite(sql string, ctx *Context) (string, error) {
	return rebuildOther(sql, func(s string) string {
		s = reNotCI.ReplaceAllString(s, `NOT REGEXPI($2, $1)`)
		s = reCI.ReplaceAllString(s, `REGEXPI($2, $1)`)
		s = reNot.ReplaceAllString(s, `NOT REGEXP($2, $1)`)
		s = reMatch.ReplaceAllString(s, `REGEXP($2, $1)`)
		return s
	}), nil
}
