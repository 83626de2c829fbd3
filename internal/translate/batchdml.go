package translate

import (
	"regexp"
	"strings"
)

// batchDMLTranslator rewrites PostgreSQL's FROM/USING (VALUES ...)
// batch-update and batch-delete idioms into forms SQLite understands;
// rewriter 9 of spec §4.D. SQLite has no UPDATE ... FROM, so a
// `DELETE ... USING (VALUES ...) v(id) WHERE t.id = v.id` becomes a
// `DELETE ... WHERE id IN (...)`, the shape every ORM's batch-delete
// actually emits in practice. UPDATE ... FROM (VALUES ...) is not
// rewritten: the precheck only looks for USING (VALUES, so such a
// statement reaches SQLite unchanged.
type batchDMLTranslator struct{}

func (batchDMLTranslator) Name() string { return "batch_dml_translator" }

func (batchDMLTranslator) Precheck(sql string) bool {
	u := strings.ToUpper(sql)
	return strings.Contains(u, "USING (VALUES") || strings.Contains(u, "USING(VALUES")
}

var deleteUsingValuesRe = regexp.MustCompile(
	`(?is)DELETE\s+FROM\s+(\S+)\s+USING\s*\(\s*VALUES\s*(.+?)\)\s*(?:AS\s+)?(\w+)\s*\(\s*(\w+)\s*\)\s*WHERE\s+\S+\.(\w+)\s*=\s*\w+\.\w+`,
)

func (batchDMLTranslator) Rewrite(sql string, ctx *Context) (string, error) {
	m := deleteUsingValuesRe.FindStringSubmatch(sql)
	if m == nil {
		return sql, nil
	}
	table, valuesList, _, _, col := m[1], m[2], m[3], m[4], m[5]
	ids := extractSingleColumnValues(valuesList)
	if ids == "" {
		return sql, nil
	}
	return "DELETE FROM " + table + " WHERE " + col + " IN (" + ids + ")", nil
}

// extractSingleColumnValues turns "(1), (2), (3)" into "1, 2, 3",
// returning "" if any row isn't exactly one scalar (at which point the
// caller falls back to leaving the SQL untouched).
func extractSingleColumnValues(rows string) string {
	rowRe := regexp.MustCompile(`\(\s*([^(),]+)\s*\)`)
	matches := rowRe.FindAllStringSubmatch(rows, -1)
	if len(matches) == 0 {
		return ""
	}
	vals := make([]string, 0, len(matches))
	for _, m := range matches {
		vals = append(vals, strings.TrimSpace(m[1]))
	}
	return strings.Join(vals, ", ")
}
