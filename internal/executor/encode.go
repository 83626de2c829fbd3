package executor

import (
	"github.com/pgsqlite-go/pgsqlite/internal/oid"
	"github.com/pgsqlite-go/pgsqlite/internal/types"
)

// encodeTextField/encodeBinaryField bridge a raw value scanned out of
// modernc.org/sqlite (int64, float64, string, []byte, or nil) into wire
// bytes for the declared OID, per spec §4.F step 5. SQLite stores
// BOOLEAN as 0/1 integers and our own integer-microsecond datetimes as
// int64 (spec §4.B, Open Question 1's decision recorded in DESIGN.md),
// so the type registry's codecs do the real work; this layer only picks
// which codec the portal's requested format code wants.
func encodeTextField(v any, o oid.Oid) ([]byte, error) {
	return types.EncodeText(v, o)
}

func encodeBinaryField(v any, o oid.Oid) ([]byte, error) {
	return types.EncodeBinary(v, o)
}

// decodeTextParam/decodeBinaryParam bridge a Bind message's raw
// parameter bytes into the Go value database/sql's ExecContext/
// QueryContext hands to the driver, the inverse of the encode side,
// per spec §5.3.
func decodeTextParam(raw []byte, o oid.Oid) (any, error) {
	return types.DecodeText(raw, o)
}

func decodeBinaryParam(raw []byte, o oid.Oid) (any, error) {
	return types.DecodeBinary(raw, o)
}
