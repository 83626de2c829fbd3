package translate

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pgsqlite-go/pgsqlite/internal/oid"
)

var (
	dmlInsertColsRe    = regexp.MustCompile(`(?is)^\s*INSERT\s+INTO\s+"?[A-Za-z_]\w*"?\s*\(`)
	dmlUpdateSetRe     = regexp.MustCompile(`(?is)^\s*UPDATE\s+"?[A-Za-z_]\w*"?\s+SET\s+`)
	dmlValuesKeywordRe = regexp.MustCompile(`(?is)^\s*VALUES\s*`)
	dmlClauseBoundaryRe = regexp.MustCompile(`(?i)^(WHERE|RETURNING)\b`)
	dmlPlaceholderRe   = regexp.MustCompile(`^\$(\d+)$`)
)

// rewriteDML walks an INSERT's explicit column list and VALUES tuples,
// or an UPDATE's SET assignments, matching each value to its declared
// column (ctx.Columns, resolved by Run before the chain runs). A $n
// placeholder records ctx.ParamColumns[n]; a quoted literal records
// ctx.LiteralColumns[column] and, for a datetime-typed column, is
// rewritten in place to the matching pg_*_from_text(...) shim call
// (internal/shims/datetime.go) — the integer-storage conversion a
// plain INSERT/UPDATE literal needs just as much as a NOW()/EXTRACT(...)
// call does. WHERE clauses are never walked: an UPDATE's WHERE side is
// a read, not a write, and is left exactly as the rest of the chain
// produced it.
func rewriteDML(sql string, ctx *Context) string {
	colOID := make(map[string]oid.Oid, len(ctx.Columns))
	for _, c := range ctx.Columns {
		colOID[strings.ToLower(c.Name)] = c.OID
	}
	if loc := dmlInsertColsRe.FindStringIndex(sql); loc != nil {
		return rewriteInsert(sql, loc[1]-1, colOID, ctx)
	}
	if loc := dmlUpdateSetRe.FindStringIndex(sql); loc != nil {
		return rewriteUpdate(sql, loc[1], colOID, ctx)
	}
	return sql
}

func rewriteInsert(sql string, parenOpen int, colOID map[string]oid.Oid, ctx *Context) string {
	colsBody, afterCols, ok := dmlParenBody(sql, parenOpen)
	if !ok {
		return sql
	}
	colEntries := dmlSplitTopLevel(colsBody)
	names := make([]string, len(colEntries))
	for i, c := range colEntries {
		names[i] = strings.ToLower(strings.Trim(strings.TrimSpace(c), `"`))
	}

	m := dmlValuesKeywordRe.FindStringIndex(sql[afterCols:])
	if m == nil {
		return sql
	}
	cursor := afterCols + m[1]

	var b strings.Builder
	b.WriteString(sql[:cursor])
	for cursor < len(sql) {
		start := cursor
		for cursor < len(sql) && isTupleSep(sql[cursor]) {
			cursor++
		}
		b.WriteString(sql[start:cursor])
		if cursor >= len(sql) || sql[cursor] != '(' {
			break
		}
		body, after, ok := dmlParenBody(sql, cursor)
		if !ok {
			break
		}
		values := dmlSplitTopLevel(body)
		rewritten := make([]string, len(values))
		for i, v := range values {
			col := ""
			if i < len(names) {
				col = names[i]
			}
			rewritten[i] = rewriteScalarValue(v, col, colOID[col], ctx)
		}
		b.WriteByte('(')
		b.WriteString(strings.Join(rewritten, ","))
		b.WriteByte(')')
		cursor = after
	}
	b.WriteString(sql[cursor:])
	return b.String()
}

func isTupleSep(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == ','
}

func rewriteUpdate(sql string, setStart int, colOID map[string]oid.Oid, ctx *Context) string {
	end := dmlClauseEnd(sql, setStart)
	assignments := dmlSplitTopLevel(sql[setStart:end])
	parts := make([]string, len(assignments))
	for i, a := range assignments {
		eq := dmlTopLevelEquals(a)
		if eq < 0 {
			parts[i] = a
			continue
		}
		col := strings.ToLower(strings.Trim(strings.TrimSpace(a[:eq]), `"`))
		val := strings.TrimSpace(a[eq+1:])
		rewritten := rewriteScalarValue(val, col, colOID[col], ctx)
		parts[i] = a[:eq] + "=" + rewritten
	}
	return sql[:setStart] + strings.Join(parts, ",") + sql[end:]
}

// dmlClauseEnd finds where an UPDATE's SET assignment list ends: the
// first top-level WHERE or RETURNING keyword, or the end of the
// statement if neither appears.
func dmlClauseEnd(sql string, start int) int {
	depth := 0
	var inQuote byte
	for i := start; i < len(sql); i++ {
		c := sql[i]
		switch {
		case inQuote != 0:
			if c == inQuote {
				inQuote = 0
			}
			continue
		case c == '\'' || c == '"':
			inQuote = c
			continue
		case c == '(':
			depth++
			continue
		case c == ')':
			depth--
			continue
		}
		if depth == 0 && (i == start || !isWordByte(sql[i-1])) && dmlClauseBoundaryRe.MatchString(sql[i:]) {
			return i
		}
	}
	return len(sql)
}

func isWordByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// dmlTopLevelEquals finds the assignment `=` of one `col = value` SET
// entry, skipping quoted/parenthesized text and the two-character
// operators `<=`, `>=`, `!=`, `==` so it isn't mistaken for one.
func dmlTopLevelEquals(s string) int {
	depth := 0
	var inQuote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case inQuote != 0:
			if c == inQuote {
				inQuote = 0
			}
			continue
		case c == '\'' || c == '"':
			inQuote = c
			continue
		case c == '(':
			depth++
			continue
		case c == ')':
			depth--
			continue
		}
		if depth == 0 && c == '=' {
			if i > 0 && (s[i-1] == '<' || s[i-1] == '>' || s[i-1] == '!' || s[i-1] == '=') {
				continue
			}
			if i+1 < len(s) && s[i+1] == '=' {
				continue
			}
			return i
		}
	}
	return -1
}

// rewriteScalarValue handles one INSERT tuple element or UPDATE SET
// right-hand side: a $n placeholder just records which column it
// binds to; a quoted literal records its unquoted text and, when col's
// declared type is a datetime type, is wrapped in the matching
// pg_*_from_text shim call. Anything else (NULL, a numeric literal, a
// sub-expression) passes through unchanged.
func rewriteScalarValue(raw, col string, o oid.Oid, ctx *Context) string {
	v := strings.TrimSpace(raw)
	if m := dmlPlaceholderRe.FindStringSubmatch(v); m != nil {
		if col != "" {
			n, _ := strconv.Atoi(m[1])
			ctx.ParamColumns[n] = col
		}
		return raw
	}
	if len(v) >= 2 && v[0] == '\'' && v[len(v)-1] == '\'' {
		if col != "" {
			ctx.LiteralColumns[col] = unquoteSQLLiteral(v)
		}
		if shim, ok := datetimeShimFor(o); ok {
			return shim + "(" + v + ")"
		}
	}
	return raw
}

func unquoteSQLLiteral(v string) string {
	return strings.ReplaceAll(v[1:len(v)-1], "''", "'")
}

func datetimeShimFor(o oid.Oid) (string, bool) {
	switch o {
	case oid.T_date:
		return "pg_date_from_text", true
	case oid.T_time, oid.T_timetz:
		return "pg_time_from_text", true
	case oid.T_timestamp, oid.T_timestamptz:
		return "pg_timestamp_from_text", true
	default:
		return "", false
	}
}

// dmlParenBody returns the text strictly between the '(' at openIdx
// and its balanced closing ')', honoring nested parens and quoted
// text, mirroring internal/migrate/ddl.go's extractParenBody for the
// DML side of the same grammar.
func dmlParenBody(sql string, openIdx int) (string, int, bool) {
	if openIdx >= len(sql) || sql[openIdx] != '(' {
		return "", 0, false
	}
	depth := 0
	var inQuote byte
	for i := openIdx; i < len(sql); i++ {
		c := sql[i]
		switch {
		case inQuote != 0:
			if c == inQuote {
				inQuote = 0
			}
		case c == '\'' || c == '"':
			inQuote = c
		case c == '(':
			depth++
		case c == ')':
			depth--
			if depth == 0 {
				return sql[openIdx+1 : i], i + 1, true
			}
		}
	}
	return "", 0, false
}

// dmlSplitTopLevel splits a comma-separated list (a column list, a
// VALUES tuple body, a SET assignment list) on commas that aren't
// nested inside a sub-expression or quoted text.
func dmlSplitTopLevel(s string) []string {
	var out []string
	depth := 0
	var inQuote byte
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case inQuote != 0:
			if c == inQuote {
				inQuote = 0
			}
		case c == '\'' || c == '"':
			inQuote = c
		case c == '(':
			depth++
		case c == ')':
			depth--
		case c == ',' && depth == 0:
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}
