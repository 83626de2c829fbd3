package translate

import (
	"regexp"
	"strings"

	pgq "github.com/pganalyze/pg_query_go/v6"
)

// catalogRouter tags a query as targeting pg_catalog/information_schema
// so the executor routes it to the catalog emulator instead of SQLite
// proper; rewriter 12 (last) of spec §4.D.
type catalogRouter struct{}

func (catalogRouter) Name() string { return "catalog_router" }

var catalogTableRe = regexp.MustCompile(`(?i)\b(pg_[a-z_]+|information_schema\.[a-z_]+)\b`)

func (catalogRouter) Precheck(sql string) bool {
	return catalogTableRe.MatchString(sql)
}

// knownCatalogRelations is the set spec §4.H names; a bare "pg_"
// prefix match that isn't one of these (e.g. a user table happening to
// start with pg_) doesn't count as a catalog query.
var knownCatalogRelations = map[string]struct{}{
	"pg_class": {}, "pg_namespace": {}, "pg_attribute": {}, "pg_type": {},
	"pg_am": {}, "pg_constraint": {}, "pg_index": {}, "pg_attrdef": {},
	"pg_depend": {}, "pg_proc": {}, "pg_description": {}, "pg_roles": {},
	"pg_user": {}, "pg_stats": {}, "pg_tablespace": {},
}

func (catalogRouter) Rewrite(sql string, ctx *Context) (string, error) {
	lower := strings.ToLower(sql)
	if strings.Contains(lower, "information_schema.") {
		ctx.TargetsCatalog = true
		return sql, nil
	}
	shadowed := cteNames(sql)
	for _, m := range catalogTableRe.FindAllString(lower, -1) {
		if _, ok := knownCatalogRelations[m]; ok && !shadowed[m] {
			ctx.TargetsCatalog = true
			break
		}
	}
	return sql, nil
}

// cteNames escalates to a real PostgreSQL-grammar parse (spec §4.D:
// "calls into pg_query_go only when the cheap byte-scan precheck can't
// decide locally") for the one case the regex precheck genuinely can't
// resolve on its own: a WITH query that names one of its own CTEs
// after a catalog relation, e.g. `WITH pg_class AS (...) SELECT * FROM
// pg_class`, which must run against the user's CTE, not the emulator.
// A parse failure (this rewriter runs last, after translations that
// may have left SQLite-specific syntax in place) just means no CTE
// name is excluded, the conservative fallback that matches the old
// regex-only behavior.
func cteNames(sql string) map[string]bool {
	out := make(map[string]bool)
	tree, err := pgq.Parse(sql)
	if err != nil {
		return out
	}
	for _, raw := range tree.GetStmts() {
		collectCTENames(raw.GetStmt().GetNode(), out)
	}
	return out
}

func collectCTENames(node any, out map[string]bool) {
	var with *pgq.WithClause
	switch n := node.(type) {
	case *pgq.Node_SelectStmt:
		with = n.SelectStmt.GetWithClause()
	case *pgq.Node_InsertStmt:
		with = n.InsertStmt.GetWithClause()
	case *pgq.Node_UpdateStmt:
		with = n.UpdateStmt.GetWithClause()
	case *pgq.Node_DeleteStmt:
		with = n.DeleteStmt.GetWithClause()
	default:
		return
	}
	if with == nil {
		return
	}
	for _, c := range with.GetCtes() {
		if cte := c.GetCommonTableExpr(); cte != nil {
			out[strings.ToLower(cte.GetCtename())] = true
		}
	}
}
