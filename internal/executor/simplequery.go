package executor

import "strings"

// splitStatements breaks a simple-query message's SQL text on `;`
// boundaries while walking past string/double-quoted/dollar-quoted
// literals, the same literal-aware scan internal/translate's tokenizer
// does for rewriting, applied here to statement splitting instead
// (spec §4.F: "can contain multiple statements separated by `;`").
func splitStatements(sql string) []string {
	var stmts []string
	start := 0
	i := 0
	n := len(sql)
	for i < n {
		switch sql[i] {
		case '\'':
			i++
			for i < n {
				if sql[i] == '\'' {
					if i+1 < n && sql[i+1] == '\'' {
						i += 2
						continue
					}
					i++
					break
				}
				i++
			}
		case '"':
			i++
			for i < n && sql[i] != '"' {
				i++
			}
			if i < n {
				i++
			}
		case '$':
			if tag, end := dollarTag(sql, i); end >= 0 {
				i = closeDollarQuote(sql, tag, end)
				continue
			}
			i++
		case ';':
			stmts = append(stmts, sql[start:i])
			i++
			start = i
		default:
			i++
		}
	}
	if start < n {
		stmts = append(stmts, sql[start:])
	}
	return stmts
}

func dollarTag(sql string, i int) (string, int) {
	n := len(sql)
	if i >= n || sql[i] != '$' {
		return "", -1
	}
	j := i + 1
	for j < n && sql[j] != '$' {
		c := sql[j]
		if !(c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')) {
			return "", -1
		}
		j++
	}
	if j >= n {
		return "", -1
	}
	return sql[i : j+1], j + 1
}

func closeDollarQuote(sql, tag string, from int) int {
	if from > len(sql) {
		return len(sql)
	}
	idx := strings.Index(sql[from:], tag)
	if idx < 0 {
		return len(sql)
	}
	return from + idx + len(tag)
}
