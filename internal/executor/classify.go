// Package executor implements spec §4.F's query executor: the two
// wire entry points (simple query, extended query) and the shared
// five-step pipeline (classify, route, pick a strategy, run, encode)
// that sits between internal/session's per-connection state and the
// embedded modernc.org/sqlite database, the server-side mirror of
// lib-pq/conn.go's Query/Exec/simpleQuery/simpleExec quartet.
package executor

import "strings"

// Kind is the first step of spec §4.F's pipeline: what kind of
// statement this is, before any translation happens.
type Kind int

const (
	KindSelect Kind = iota
	KindInsert
	KindUpdate
	KindDelete
	KindDDL
	KindTransaction
	KindCopy
	KindUtility
)

// Classify inspects the leading keyword of a statement (after the
// comment stripper has already run) to pick a Kind, the same
// first-token dispatch lib-pq's own simpleExec/simpleQuery split relies
// on implicitly by sending everything through one wire message and
// letting the backend sort it out; here we need the distinction up
// front to choose a command tag and a fast-path candidate shape.
func Classify(sql string) Kind {
	word := firstWord(sql)
	switch word {
	case "select", "values", "table", "with":
		return KindSelect
	case "insert":
		return KindInsert
	case "update":
		return KindUpdate
	case "delete":
		return KindDelete
	case "create", "alter", "drop", "truncate":
		return KindDDL
	case "begin", "start", "commit", "end", "rollback", "savepoint", "release":
		return KindTransaction
	case "copy":
		return KindCopy
	default:
		return KindUtility
	}
}

func firstWord(sql string) string {
	s := strings.TrimSpace(sql)
	i := strings.IndexFunc(s, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '('
	})
	if i < 0 {
		i = len(s)
	}
	return strings.ToLower(s[:i])
}
