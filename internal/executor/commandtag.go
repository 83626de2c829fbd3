package executor

import (
	"fmt"
	"strings"
)

// CommandTag builds the string CommandComplete carries, per spec §4.F
// step 6 and the §8 table: "SELECT n", "INSERT 0 n", "UPDATE n",
// "DELETE n", bare DDL tags like "CREATE TABLE", and the fixed
// transaction-control tags.
func CommandTag(kind Kind, sql string, rowCount int64) string {
	switch kind {
	case KindSelect:
		return fmt.Sprintf("SELECT %d", rowCount)
	case KindInsert:
		return fmt.Sprintf("INSERT 0 %d", rowCount)
	case KindUpdate:
		return fmt.Sprintf("UPDATE %d", rowCount)
	case KindDelete:
		return fmt.Sprintf("DELETE %d", rowCount)
	case KindCopy:
		return fmt.Sprintf("COPY %d", rowCount)
	case KindTransaction:
		return transactionTag(sql)
	case KindDDL:
		return ddlTag(sql)
	default:
		return strings.ToUpper(firstWord(sql))
	}
}

func transactionTag(sql string) string {
	switch firstWord(sql) {
	case "begin", "start":
		return "BEGIN"
	case "commit", "end":
		return "COMMIT"
	case "rollback":
		return "ROLLBACK"
	case "savepoint":
		return "SAVEPOINT"
	case "release":
		return "RELEASE"
	default:
		return "BEGIN"
	}
}

// ddlTag reports the two-word tag PostgreSQL uses for DDL, e.g.
// "CREATE TABLE" or "DROP INDEX", by reading the first two keywords of
// the statement rather than hard-coding the cross product of every
// verb/object pair.
func ddlTag(sql string) string {
	fields := strings.Fields(strings.ToUpper(sql))
	if len(fields) == 0 {
		return ""
	}
	verb := fields[0]
	if verb == "TRUNCATE" {
		return "TRUNCATE TABLE"
	}
	if len(fields) < 2 {
		return verb
	}
	obj := fields[1]
	if obj == "UNIQUE" {
		return verb + " INDEX"
	}
	return verb + " " + obj
}
