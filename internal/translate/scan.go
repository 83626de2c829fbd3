package translate

import "strings"

// tokenKind classifies a run of SQL text so rewriters can walk past
// string/identifier literals without corrupting their contents, per
// spec §4.D's blanket requirement: "must preserve string literals,
// dollar-quoted strings, and parameter placeholders verbatim."
type tokenKind int

const (
	tokOther tokenKind = iota
	tokSingleQuoted
	tokDoubleQuoted
	tokDollarQuoted
	tokLineComment
	tokBlockComment
	tokPlaceholder
)

type token struct {
	kind tokenKind
	text string
}

// tokenize walks sql once, classifying each maximal run so a rewriter
// can rebuild the string while only touching tokOther runs.
func tokenize(sql string) []token {
	var toks []token
	i := 0
	n := len(sql)
	for i < n {
		switch {
		case sql[i] == '\'':
			j := i + 1
			for j < n {
				if sql[j] == '\'' {
					if j+1 < n && sql[j+1] == '\'' {
						j += 2
						continue
					}
					j++
					break
				}
				j++
			}
			toks = append(toks, token{tokSingleQuoted, sql[i:j]})
			i = j
		case sql[i] == '"':
			j := i + 1
			for j < n && sql[j] != '"' {
				j++
			}
			if j < n {
				j++
			}
			toks = append(toks, token{tokDoubleQuoted, sql[i:j]})
			i = j
		case sql[i] == '$' && i+1 < n && (sql[i+1] == '$' || isTagStart(sql[i+1])):
			tag, end := dollarTag(sql, i)
			if end < 0 {
				toks = append(toks, token{tokOther, sql[i : i+1]})
				i++
				continue
			}
			closeIdx := strings.Index(sql[end:], tag)
			if closeIdx < 0 {
				toks = append(toks, token{tokDollarQuoted, sql[i:]})
				i = n
				continue
			}
			stop := end + closeIdx + len(tag)
			toks = append(toks, token{tokDollarQuoted, sql[i:stop]})
			i = stop
		case sql[i] == '$' && i+1 < n && isDigit(sql[i+1]):
			j := i + 1
			for j < n && isDigit(sql[j]) {
				j++
			}
			toks = append(toks, token{tokPlaceholder, sql[i:j]})
			i = j
		case sql[i] == '-' && i+1 < n && sql[i+1] == '-':
			j := i + 2
			for j < n && sql[j] != '\n' {
				j++
			}
			toks = append(toks, token{tokLineComment, sql[i:j]})
			i = j
		case sql[i] == '/' && i+1 < n && sql[i+1] == '*':
			j := i + 2
			depth := 1
			for j < n && depth > 0 {
				if j+1 < n && sql[j] == '/' && sql[j+1] == '*' {
					depth++
					j += 2
					continue
				}
				if j+1 < n && sql[j] == '*' && sql[j+1] == '/' {
					depth--
					j += 2
					continue
				}
				j++
			}
			toks = append(toks, token{tokBlockComment, sql[i:j]})
			i = j
		default:
			j := i + 1
			for j < n && sql[j] != '\'' && sql[j] != '"' && sql[j] != '$' &&
				!(sql[j] == '-' && j+1 < n && sql[j+1] == '-') &&
				!(sql[j] == '/' && j+1 < n && sql[j+1] == '*') {
				j++
			}
			toks = append(toks, token{tokOther, sql[i:j]})
			i = j
		}
	}
	return toks
}

func isTagStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// dollarTag reads a dollar-quote opening tag ($$ or $tag$) starting at
// sql[i], returning the tag text and the index right after it.
func dollarTag(sql string, i int) (string, int) {
	j := i + 1
	for j < len(sql) && sql[j] != '$' {
		if !isTagStart(sql[j]) && !isDigit(sql[j]) {
			return "", -1
		}
		j++
	}
	if j >= len(sql) {
		return "", -1
	}
	return sql[i : j+1], j + 1
}

// rebuildOther applies f to every tokOther run and leaves every other
// token untouched, the shared skeleton most rewriters in this package
// use.
func rebuildOther(sql string, f func(string) string) string {
	toks := tokenize(sql)
	var b strings.Builder
	for _, t := range toks {
		if t.kind == tokOther {
			b.WriteString(f(t.text))
		} else {
			b.WriteString(t.text)
		}
	}
	return b.String()
}
