package translate

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pgsqlite-go/pgsqlite/internal/oid"
)

// castTranslator rewrites expr::TYPE and CAST(expr AS TYPE) to their
// SQLite equivalents; rewriter 3 of spec §4.D. A parameter cast
// ($1::int4) is left as the bare placeholder in the output SQL but
// recorded in ctx.ParamHints, since SQLite has no notion of a
// parameter's static type and the only consumer of the cast is this
// adapter's own type inference for ParameterDescription.
type castTranslator struct{}

func (castTranslator) Name() string { return "cast_translator" }

func (castTranslator) Precheck(sql string) bool {
	return strings.Contains(sql, "::") || strings.Contains(strings.ToUpper(sql), "CAST(")
}

// paramCastRe matches a parameter cast's ::TYPE suffix at the start of
// the tokOther run that follows a $n placeholder token.
var paramCastRe = regexp.MustCompile(`^::([A-Za-z_][A-Za-z0-9_]*)(?:\s*\(\s*\d+\s*(?:,\s*\d+\s*)?\))?`)
var exprCastRe = regexp.MustCompile(`([A-Za-z0-9_\).\]"]+)::([A-Za-z_][A-Za-z0-9_]*(?:\s*\(\s*\d+\s*(?:,\s*\d+\s*)?\))?)`)
var castFnRe = regexp.MustCompile(`(?i)CAST\s*\(\s*(.+?)\s+AS\s+([A-Za-z_][A-Za-z0-9_]*(?:\s*\(\s*\d+\s*(?:,\s*\d+\s*)?\))?)\s*\)`)

// pgTypeOIDs maps the lowercased type names a cast might name to their
// OID, used to fill ctx.ParamHints.
var pgTypeOIDs = map[string]oid.Oid{
	"int2": oid.T_int2, "smallint": oid.T_int2,
	"int4": oid.T_int4, "int": oid.T_int4, "integer": oid.T_int4,
	"int8": oid.T_int8, "bigint": oid.T_int8,
	"float4": oid.T_float4, "real": oid.T_float4,
	"float8": oid.T_float8, "double precision": oid.T_float8,
	"numeric": oid.T_numeric, "decimal": oid.T_numeric,
	"text": oid.T_text, "varchar": oid.T_varchar, "character varying": oid.T_varchar,
	"char": oid.T_bpchar, "bpchar": oid.T_bpchar,
	"bool": oid.T_bool, "boolean": oid.T_bool,
	"bytea":     oid.T_bytea,
	"date":      oid.T_date,
	"time":      oid.T_time,
	"timestamp": oid.T_timestamp, "timestamptz": oid.T_timestamptz,
	"uuid": oid.T_uuid,
	"json": oid.T_json, "jsonb": oid.T_jsonb,
}

// sqliteAffinity maps a PG type's base name (no modifier) to the
// SQLite CAST() target type affinity that preserves its value best.
var sqliteAffinity = map[string]string{
	"int2": "INTEGER", "smallint": "INTEGER",
	"int4": "INTEGER", "int": "INTEGER", "integer": "INTEGER",
	"int8": "INTEGER", "bigint": "INTEGER",
	"float4": "REAL", "real": "REAL",
	"float8": "REAL", "double precision": "REAL",
	"numeric": "TEXT", "decimal": "TEXT",
	"text": "TEXT", "varchar": "TEXT", "character varying": "TEXT",
	"char": "TEXT", "bpchar": "TEXT",
	"bool": "INTEGER", "boolean": "INTEGER",
	"bytea": "BLOB", "date": "TEXT", "time": "TEXT",
	"timestamp": "TEXT", "timestamptz": "TEXT",
	"uuid": "TEXT", "json": "TEXT", "jsonb": "TEXT",
}

func (castTranslator) Rewrite(sql string, ctx *Context) (string, error) {
	toks := tokenize(sql)
	var b strings.Builder
	for i, t := range toks {
		if m := paramCastRe.FindStringSubmatch(t.text); m != nil && t.kind == tokOther && i > 0 && toks[i-1].kind == tokPlaceholder {
			idx, _ := strconv.Atoi(toks[i-1].text[1:])
			if o, ok := pgTypeOIDs[strings.ToLower(m[1])]; ok {
				ctx.ParamHints[idx] = o
			}
			t.text = t.text[len(m[0]):]
		}
		b.WriteString(t.text)
	}
	return rebuildOther(b.String(), func(s string) string {
		s = castFnRe.ReplaceAllStringFunc(s, func(m string) string {
			sub := castFnRe.FindStringSubmatch(m)
			target := sqliteTarget(sub[2])
			return "CAST(" + sub[1] + " AS " + target + ")"
		})
		s = exprCastRe.ReplaceAllStringFunc(s, func(m string) string {
			sub := exprCastRe.FindStringSubmatch(m)
			target := sqliteTarget(sub[2])
			return "CAST(" + sub[1] + " AS " + target + ")"
		})
		return s
	}), nil
}

func baseTypeName(t string) string {
	if i := strings.IndexByte(t, '('); i >= 0 {
		return strings.TrimSpace(t[:i])
	}
	return strings.TrimSpace(t)
}

func sqliteTarget(pgType string) string {
	name := strings.ToLower(baseTypeName(pgType))
	if target, ok := sqliteAffinity[name]; ok {
		return target
	}
	return "TEXT"
}
