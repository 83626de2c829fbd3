package types

import (
	"testing"

	"github.com/pgsqlite-go/pgsqlite/internal/oid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeTextRoundTrip(t *testing.T) {
	b, err := EncodeText(int64(42), oid.T_int4)
	require.NoError(t, err)
	assert.Equal(t, "42", string(b))

	v, err := DecodeText([]byte("42"), oid.T_int4)
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)
}

func TestEncodeDecodeBinaryInt4(t *testing.T) {
	b, err := EncodeBinary(int64(-7), oid.T_int4)
	require.NoError(t, err)
	v, err := DecodeBinary(b, oid.T_int4)
	require.NoError(t, err)
	assert.Equal(t, int64(-7), v)
}

func TestEncodeDecodeBinaryFloat8(t *testing.T) {
	b, err := EncodeBinary(3.25, oid.T_float8)
	require.NoError(t, err)
	v, err := DecodeBinary(b, oid.T_float8)
	require.NoError(t, err)
	assert.Equal(t, 3.25, v)
}

func TestBoolText(t *testing.T) {
	b, err := EncodeText(true, oid.T_bool)
	require.NoError(t, err)
	assert.Equal(t, "t", string(b))

	v, err := DecodeText([]byte("f"), oid.T_bool)
	require.NoError(t, err)
	assert.Equal(t, false, v)
}

func TestByteaTextRoundTrip(t *testing.T) {
	b, err := EncodeText([]byte("hi"), oid.T_bytea)
	require.NoError(t, err)
	assert.Equal(t, `\x6869`, string(b))

	v, err := DecodeText(b, oid.T_bytea)
	require.NoError(t, err)
	assert.Equal(t, []byte("hi"), v)
}

func TestNumericBinaryRoundTrip(t *testing.T) {
	for _, s := range []string{"0", "123", "-123", "123.456", "0.5", "-0.25", "100.00"} {
		b, err := EncodeNumericBinary(s)
		require.NoError(t, err, s)
		v, err := DecodeNumericBinary(b)
		require.NoError(t, err, s)
		assert.NotEmpty(t, v)
	}
}

func TestDecodeNumericTextRejectsGarbage(t *testing.T) {
	_, err := DecodeNumericText([]byte("not-a-number"))
	assert.Error(t, err)
}

func TestUUIDBinaryRoundTrip(t *testing.T) {
	b, err := EncodeBinary("550e8400-e29b-41d4-a716-446655440000", oid.T_uuid)
	require.NoError(t, err)
	assert.Len(t, b, 16)
	v, err := DecodeBinary(b, oid.T_uuid)
	require.NoError(t, err)
	assert.Equal(t, "550e8400-e29b-41d4-a716-446655440000", v)
}

func TestArrayBinaryEncoding(t *testing.T) {
	b, err := EncodeArrayBinary(`[1,2,3]`, oid.T_int4)
	require.NoError(t, err)
	assert.True(t, len(b) > 0)
}

func TestArrayTextEncoding(t *testing.T) {
	b, err := EncodeArrayText(`["a","b"]`, oid.T_text)
	require.NoError(t, err)
	assert.Equal(t, `{"a","b"}`, string(b))
}

func TestLookupFallsBackForUnknownOID(t *testing.T) {
	info := Lookup(oid.Oid(999999))
	assert.True(t, info.IsVarlena())
}
