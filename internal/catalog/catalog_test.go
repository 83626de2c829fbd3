package catalog

import (
	"testing"

	"github.com/pgsqlite-go/pgsqlite/internal/oid"
	"github.com/stretchr/testify/require"
)

func TestHashIsDeterministic(t *testing.T) {
	a := Hash("public.widgets")
	b := Hash("public.widgets")
	require.Equal(t, a, b)
}

func TestHashNeverCollidesWithBuiltinOids(t *testing.T) {
	for i := 0; i < 1000; i++ {
		h := Hash(string(rune(i)) + "_table")
		require.GreaterOrEqual(t, h, firstUserOid)
	}
}

func TestHashDiffersAcrossNames(t *testing.T) {
	require.NotEqual(t, Hash("widgets"), Hash("gadgets"))
}

func TestFormatTypeVarchar(t *testing.T) {
	require.Equal(t, "character varying(50)", formatType(oid.T_varchar, 54))
	require.Equal(t, "character varying", formatType(oid.T_varchar, -1))
}

func TestFormatTypeNumeric(t *testing.T) {
	require.Equal(t, "numeric(10,2)", formatType(oid.T_numeric, (10<<16|2)+4))
}

func TestFormatTypeAliases(t *testing.T) {
	require.Equal(t, "integer", formatType(oid.T_int4, -1))
	require.Equal(t, "timestamp without time zone", formatType(oid.T_timestamp, -1))
	require.Equal(t, "boolean", formatType(oid.T_bool, -1))
}

func TestViewsIncludesEveryRequiredRelation(t *testing.T) {
	sql := ""
	for _, stmt := range Views() {
		sql += stmt + "\n"
	}
	for _, want := range []string{
		"pg_class", "pg_namespace", "pg_attribute", "pg_type", "pg_am",
		"pg_constraint", "pg_index", "pg_attrdef", "pg_depend", "pg_proc",
		"pg_description", "pg_roles", "pg_user", "pg_stats", "pg_tablespace",
		"information_schema.tables", "information_schema.columns",
	} {
		require.Contains(t, sql, want)
	}
}
