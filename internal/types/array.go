package types

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pgsqlite-go/pgsqlite/internal/oid"
)

// This adapter stores ARRAY[...] columns as a JSON array in SQLite
// (spec §5.7: "arrays are persisted as JSON text, the way SQLite's own
// JSON1 extension represents them"), and re-expands them to PostgreSQL
// wire format on the way out, the mirror image of lib-pq's array.go
// Value() methods which go the other direction for query parameters.

// EncodeArrayBinary renders a JSON-encoded array column (as stored by
// the executor) into PostgreSQL's one-dimensional binary array layout:
// ndim, flags, element OID, then per-dimension (length, lower bound),
// then the elements themselves each framed with their own length
// prefix.
func EncodeArrayBinary(jsonText string, elemOID oid.Oid) ([]byte, error) {
	var items []any
	if err := json.Unmarshal([]byte(jsonText), &items); err != nil {
		return nil, fmt.Errorf("types: stored array column is not valid JSON: %w", err)
	}

	hasNull := int32(0)
	encoded := make([][]byte, len(items))
	for i, it := range items {
		if it == nil {
			hasNull = 1
			encoded[i] = nil
			continue
		}
		b, err := EncodeBinary(jsonScalar(it), elemOID)
		if err != nil {
			return nil, err
		}
		encoded[i] = b
	}

	buf := make([]byte, 0, 20+len(items)*8)
	buf = appendBE32(buf, 1) // ndim
	buf = appendBE32(buf, uint32(hasNull))
	buf = appendBE32(buf, uint32(elemOID))
	buf = appendBE32(buf, uint32(len(items)))
	buf = appendBE32(buf, 1) // lower bound
	for _, e := range encoded {
		if e == nil {
			buf = appendBE32(buf, 0xFFFFFFFF) // -1 as uint32, NULL marker
			continue
		}
		buf = appendBE32(buf, uint32(len(e)))
		buf = append(buf, e...)
	}
	return buf, nil
}

// EncodeArrayText renders the same stored JSON array as PostgreSQL's
// braced array text literal, e.g. {1,2,3} or {"a","b"}.
func EncodeArrayText(jsonText string, elemOID oid.Oid) ([]byte, error) {
	var items []any
	if err := json.Unmarshal([]byte(jsonText), &items); err != nil {
		return nil, fmt.Errorf("types: stored array column is not valid JSON: %w", err)
	}
	parts := make([]string, len(items))
	for i, it := range items {
		if it == nil {
			parts[i] = "NULL"
			continue
		}
		b, err := EncodeText(jsonScalar(it), elemOID)
		if err != nil {
			return nil, err
		}
		if needsArrayQuoting(elemOID) {
			parts[i] = `"` + strings.ReplaceAll(strings.ReplaceAll(string(b), `\`, `\\`), `"`, `\"`) + `"`
		} else {
			parts[i] = string(b)
		}
	}
	return []byte("{" + strings.Join(parts, ",") + "}"), nil
}

func needsArrayQuoting(o oid.Oid) bool {
	switch o {
	case oid.T_text, oid.T_varchar, oid.T_bpchar, oid.T_uuid, oid.T_json, oid.T_jsonb:
		return true
	default:
		return false
	}
}

// jsonScalar normalizes the any values encoding/json produces
// (float64 for every number) back into the int64 this adapter's other
// codecs expect for integer-typed elements; JSON doesn't distinguish,
// so the caller's elemOID decides.
func jsonScalar(v any) any {
	if f, ok := v.(float64); ok && f == float64(int64(f)) {
		return int64(f)
	}
	return v
}

func appendBE32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}
