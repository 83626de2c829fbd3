package shims

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestJSONIndexObjectAndArray(t *testing.T) {
	v, ok := jsonIndex(`{"a": 1, "b": [10, 20]}`, "a")
	require.True(t, ok)
	require.EqualValues(t, 1, v)

	v, ok = jsonIndex(`[10, 20, 30]`, int64(1))
	require.True(t, ok)
	require.EqualValues(t, 20, v)
}

func TestJSONPathNested(t *testing.T) {
	v, ok := jsonPath(`{"a": {"b": [1, 2, 3]}}`, `{a,b,2}`)
	require.True(t, ok)
	require.EqualValues(t, 3, v)
}

func TestJSONHasKey(t *testing.T) {
	obj, ok := jsonObject(`{"a": 1}`)
	require.True(t, ok)
	_, has := obj["a"]
	require.True(t, has)
}

func TestJSONHasKeyAnyAll(t *testing.T) {
	v, err := jsonHasAnyAll(`{"a": 1, "b": 2}`, `["a", "c"]`, false)
	require.NoError(t, err)
	require.EqualValues(t, 1, v)

	v, err = jsonHasAnyAll(`{"a": 1, "b": 2}`, `["a", "c"]`, true)
	require.NoError(t, err)
	require.EqualValues(t, 0, v)
}

func TestArrayContainsAndOverlap(t *testing.T) {
	a, _ := jsonArray(`[1, 2, 3]`)
	b, _ := jsonArray(`[2, 3]`)
	require.True(t, containsAll(a, b))
	require.False(t, containsAll(b, a))
	require.True(t, overlaps(a, b))
}

func TestCanonicalDecimal(t *testing.T) {
	require.Equal(t, "1.5", canonicalDecimal("1.5000"))
	require.Equal(t, "10", canonicalDecimal("10.0"))
	require.Equal(t, "0", canonicalDecimal("0.000"))
	require.Equal(t, "3.14", canonicalDecimal("+3.14"))
}

func TestParseToMicrosAndBack(t *testing.T) {
	v, err := parseToMicros("2024-01-02 03:04:05", timestampLayouts)
	require.NoError(t, err)
	micros := v.(int64)
	tm, ok := microsToTime(micros)
	require.True(t, ok)
	require.Equal(t, 2024, tm.Year())
	require.Equal(t, time.Month(1), tm.Month())
}

func TestExtractField(t *testing.T) {
	tm := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	v, err := extractField("year", tm)
	require.NoError(t, err)
	require.EqualValues(t, 2024, v)

	v, err = extractField("quarter", tm)
	require.NoError(t, err)
	require.EqualValues(t, 1, v)
}

func TestTruncate(t *testing.T) {
	tm := time.Date(2024, 3, 15, 10, 30, 45, 0, time.UTC)
	require.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), truncate("month", tm))
	require.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), truncate("year", tm))
}

func TestFTSMatch(t *testing.T) {
	require.True(t, ftsMatch("the quick brown fox", "quick & fox"))
	require.False(t, ftsMatch("the quick brown fox", "slow"))
}

func TestMatchRegexp(t *testing.T) {
	v, err := matchRegexp("^foo", "foobar", false)
	require.NoError(t, err)
	require.EqualValues(t, 1, v)

	v, err = matchRegexp("^FOO", "foobar", true)
	require.NoError(t, err)
	require.EqualValues(t, 1, v)
}
