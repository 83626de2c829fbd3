package translate

import (
	"strings"

	"github.com/pgsqlite-go/pgsqlite/internal/pgerror"
)

// commentStripper removes -- and /* ... */ comments while preserving
// string and dollar-quoted literals; rewriter 1 of spec §4.D.
type commentStripper struct{}

func (commentStripper) Name() string { return "comment_stripper" }

func (commentStripper) Precheck(sql string) bool {
	return strings.Contains(sql, "--") || strings.Contains(sql, "/*")
}

func (commentStripper) Rewrite(sql string, ctx *Context) (string, error) {
	toks := tokenize(sql)
	var b strings.Builder
	for _, t := range toks {
		switch t.kind {
		case tokLineComment, tokBlockComment:
			// Preserve a single space so adjacent tokens don't fuse,
			// e.g. "a/* c */b" must not become "ab".
			b.WriteByte(' ')
		default:
			b.WriteString(t.text)
		}
	}
	out := b.String()
	if strings.TrimSpace(out) == "" {
		return "", pgerror.New(pgerror.EmptyQuery, "empty query")
	}
	return out, nil
}
