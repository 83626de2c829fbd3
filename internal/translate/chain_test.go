package translate

import (
	"strings"
	"testing"

	"github.com/pgsqlite-go/pgsqlite/internal/oid"
	"github.com/stretchr/testify/require"
)

func TestRunStripsCommentsAndEmptyQuery(t *testing.T) {
	out, _, err := Run("-- just a comment\n", DefaultChain(), nil)
	require.Error(t, err)
	require.Empty(t, out)
}

func TestRunStripsCommentsKeepsStatement(t *testing.T) {
	out, _, err := Run("SELECT 1 -- trailing comment\n", DefaultChain(), nil)
	require.NoError(t, err)
	require.Contains(t, out, "SELECT 1")
	require.NotContains(t, out, "trailing comment")
}

func TestRunParamCastRecordsHint(t *testing.T) {
	out, ctx, err := Run("SELECT * FROM widgets WHERE id = $1::int4", DefaultChain(), nil)
	require.NoError(t, err)
	require.Equal(t, oid.T_int4, ctx.ParamHints[1])
	require.Contains(t, out, "$1")
	require.NotContains(t, out, "::int4")
}

func TestRunCastFunctionTranslated(t *testing.T) {
	out, _, err := Run("SELECT CAST(price AS numeric(10,2)) FROM widgets", DefaultChain(), nil)
	require.NoError(t, err)
	require.Contains(t, out, "CAST(price AS TEXT)")
}

func TestRunReturningDetected(t *testing.T) {
	out, ctx, err := Run("INSERT INTO widgets (name) VALUES ('a') RETURNING id", DefaultChain(), nil)
	require.NoError(t, err)
	require.True(t, ctx.HasReturning)
	require.False(t, ctx.FastPathEligible)
	require.Contains(t, out, "RETURNING id")
}

func TestRunCatalogQueryTagged(t *testing.T) {
	out, ctx, err := Run("SELECT relname FROM pg_class WHERE relkind = 'r'", DefaultChain(), nil)
	require.NoError(t, err)
	require.True(t, ctx.TargetsCatalog)
	require.Contains(t, out, "pg_class")
}

func TestRunInformationSchemaTagged(t *testing.T) {
	_, ctx, err := Run("SELECT table_name FROM information_schema.tables", DefaultChain(), nil)
	require.NoError(t, err)
	require.True(t, ctx.TargetsCatalog)
}

func TestRunOrdinaryQueryNotTaggedCatalog(t *testing.T) {
	_, ctx, err := Run("SELECT * FROM widgets WHERE name = 'pg_admin'", DefaultChain(), nil)
	require.NoError(t, err)
	require.False(t, ctx.TargetsCatalog)
}

func TestRunCTEShadowingCatalogNameNotTagged(t *testing.T) {
	_, ctx, err := Run("WITH pg_class AS (SELECT 1 AS relname) SELECT relname FROM pg_class", DefaultChain(), nil)
	require.NoError(t, err)
	require.False(t, ctx.TargetsCatalog)
}

func TestRunPreservesStringLiteralsAcrossRewriters(t *testing.T) {
	sql := "SELECT * FROM widgets WHERE note = 'keep -- not a comment' AND id = $1::int4"
	out, ctx, err := Run(sql, DefaultChain(), nil)
	require.NoError(t, err)
	require.Contains(t, out, "keep -- not a comment")
	require.Equal(t, oid.T_int4, ctx.ParamHints[1])
}

func TestRunFullChainComposition(t *testing.T) {
	sql := `
		-- fetch active widgets
		SELECT pg_catalog.id, price::numeric(10,2)
		FROM pg_catalog.widgets
		WHERE created_at = NOW() AND id = $1::int8
	`
	out, ctx, err := Run(sql, DefaultChain(), nil)
	require.NoError(t, err)
	require.NotContains(t, out, "fetch active widgets")
	require.NotContains(t, out, "pg_catalog.")
	require.Equal(t, oid.T_int8, ctx.ParamHints[1])
	require.True(t, strings.Contains(out, "CAST(price AS TEXT)"))
}

func TestToPlanCollectsOrderedParamOIDs(t *testing.T) {
	_, ctx, err := Run("SELECT * FROM widgets WHERE a = $1::int4 AND b = $2::text", DefaultChain(), nil)
	require.NoError(t, err)
	plan := ToPlan("SELECT * FROM widgets WHERE a = $1 AND b = $2", ctx)
	require.Equal(t, []oid.Oid{oid.T_int4, oid.T_text}, plan.InferredParamOIDs)
}
