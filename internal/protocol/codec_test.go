package protocol

import (
	"bytes"
	"testing"

	"github.com/pgsqlite-go/pgsqlite/internal/oid"
	"github.com/pgsqlite-go/pgsqlite/internal/pgerror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadMessageRoundTrip(t *testing.T) {
	msg := newWriteBuf(byte(MsgQueryQ)).string("select 1").wrap()
	r := NewReader(bytes.NewReader(msg))
	tag, body, err := r.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, MsgQueryQ, tag)
	s, err := body.string()
	require.NoError(t, err)
	assert.Equal(t, "select 1", s)
}

func TestReadStartupBody(t *testing.T) {
	var body []byte
	body = append(body, 0, 3, 0, 0) // protocol version 3.0
	body = append(body, "user\x00alice\x00\x00"...)

	full := make([]byte, 4+len(body))
	n := len(full)
	full[0], full[1], full[2], full[3] = byte(n>>24), byte(n>>16), byte(n>>8), byte(n)
	copy(full[4:], body)

	r := NewReader(bytes.NewReader(full))
	got, err := r.ReadStartupBody()
	require.NoError(t, err)
	assert.Equal(t, body, got)
}

func TestWriteMessagesWellFormed(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteRaw(AuthenticationOk()))
	require.NoError(t, w.WriteRaw(ReadyForQuery(TxIdleI)))
	require.NoError(t, w.Flush())
	assert.True(t, buf.Len() > 0)
}

func TestRowDescriptionAndDataRow(t *testing.T) {
	fields := []FieldDescription{
		{Name: "id", TypeOID: oid.T_int4, TypeLen: 4, Format: 1},
		{Name: "name", TypeOID: oid.T_text, TypeLen: -1, Format: 0},
	}
	rd := RowDescription(fields)
	assert.Equal(t, byte(MsgRowDescriptionT), rd[0])

	row := DataRow([][]byte{[]byte("1"), nil})
	assert.Equal(t, byte(MsgDataRowD), row[0])
}

func TestErrorResponseFields(t *testing.T) {
	e := pgerror.New(pgerror.UndefinedTable, "relation %q does not exist", "widgets")
	buf := ErrorResponse(e)
	assert.Equal(t, byte(MsgErrorResponseE), buf[0])
	assert.Contains(t, string(buf), "widgets")
	assert.Contains(t, string(buf), string(pgerror.UndefinedTable))
}
