package protocol

import (
	"testing"

	"github.com/pgsqlite-go/pgsqlite/internal/oid"
	"github.com/stretchr/testify/require"
)

func frameBody(parts ...[]byte) readBuf {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return readBuf(out)
}

func cstr(s string) []byte { return append([]byte(s), 0) }

func i16(n int16) []byte { return []byte{byte(n >> 8), byte(n)} }
func i32(n int32) []byte {
	return []byte{byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n)}
}

func TestParseQuery(t *testing.T) {
	q, err := ParseQuery(frameBody(cstr("select 1")))
	require.NoError(t, err)
	require.Equal(t, "select 1", q.SQL)
}

func TestParseParseMessage(t *testing.T) {
	body := frameBody(
		cstr("stmt1"),
		cstr("select * from t where id = $1"),
		i16(1),
		i32(int32(oid.T_int4)),
	)
	m, err := ParseParse(body)
	require.NoError(t, err)
	require.Equal(t, "stmt1", m.Name)
	require.Equal(t, "select * from t where id = $1", m.Query)
	require.Equal(t, []oid.Oid{oid.T_int4}, m.ParamOIDs)
}

func TestParseBindMessage(t *testing.T) {
	body := frameBody(
		cstr("portal1"),
		cstr("stmt1"),
		i16(1), i16(0), // one format code, text, for all params
		i16(2),
		i32(1), []byte("1"),
		i32(-1), // NULL
		i16(0),
	)
	m, err := ParseBind(body)
	require.NoError(t, err)
	require.Equal(t, "portal1", m.Portal)
	require.Equal(t, "stmt1", m.Statement)
	require.Equal(t, []int16{0}, m.ParamFormats)
	require.Len(t, m.Params, 2)
	require.Equal(t, []byte("1"), m.Params[0])
	require.Nil(t, m.Params[1])
}

func TestParseExecuteMessage(t *testing.T) {
	body := frameBody(cstr("portal1"), i32(50))
	m, err := ParseExecute(body)
	require.NoError(t, err)
	require.Equal(t, "portal1", m.Portal)
	require.Equal(t, int32(50), m.MaxRows)
}

func TestParseDescribeAndCloseMessages(t *testing.T) {
	d, err := ParseDescribe(frameBody([]byte{TargetStatementS}, cstr("stmt1")))
	require.NoError(t, err)
	require.Equal(t, TargetStatementS, d.Target)
	require.Equal(t, "stmt1", d.Name)

	c, err := ParseClose(frameBody([]byte{TargetPortalP}, cstr("portal1")))
	require.NoError(t, err)
	require.Equal(t, TargetPortalP, c.Target)
	require.Equal(t, "portal1", c.Name)
}
