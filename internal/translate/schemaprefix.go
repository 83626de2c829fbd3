package translate

import (
	"regexp"
	"strings"
)

// schemaPrefixStripper removes the pg_catalog. prefix outside string
// literals; rewriter 2 of spec §4.D. SQLite has no schema namespacing
// for built-in functions/views, so the prefix is simply noise; the
// catalog router (rewriter 12) runs later and matches the bare names.
type schemaPrefixStripper struct{}

func (schemaPrefixStripper) Name() string { return "schema_prefix_stripper" }

func (schemaPrefixStripper) Precheck(sql string) bool {
	return strings.Contains(strings.ToLower(sql), "pg_catalog.")
}

var pgCatalogPrefix = regexp.MustCompile(`(?i)\bpg_catalog\.`)

func (schemaPrefixStripper) Rewrite(sql string, ctx *Context) (string, error) {
	return rebuildOther(sql, func(s string) string {
		return pgCatalogPrefix.ReplaceAllString(s, "")
	}), nil
}
