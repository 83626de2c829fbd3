package types

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/pgsqlite-go/pgsqlite/internal/oid"
)

// EncodeBinary renders v in PostgreSQL's binary wire format for o (spec
// §5.4): fixed-width types are big-endian, UUID is sixteen raw bytes,
// everything else this adapter doesn't special-case binary-codes falls
// back to its text form, same as real PostgreSQL does for types with no
// send function registered for that format.
func EncodeBinary(v any, o oid.Oid) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	switch o {
	case oid.T_bool:
		b, err := asBool(v)
		if err != nil {
			return nil, err
		}
		if b {
			return []byte{1}, nil
		}
		return []byte{0}, nil
	case oid.T_int2:
		n, err := asInt64(v)
		if err != nil {
			return nil, err
		}
		buf := make([]byte, 2)
		binary.BigEndian.PutUint16(buf, uint16(int16(n)))
		return buf, nil
	case oid.T_int4, oid.T_oid:
		n, err := asInt64(v)
		if err != nil {
			return nil, err
		}
		buf := make([]byte, 4)
		binary.BigEndian.PutUint32(buf, uint32(int32(n)))
		return buf, nil
	case oid.T_int8:
		n, err := asInt64(v)
		if err != nil {
			return nil, err
		}
		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, uint64(n))
		return buf, nil
	case oid.T_float4:
		f, err := asFloat64(v)
		if err != nil {
			return nil, err
		}
		buf := make([]byte, 4)
		binary.BigEndian.PutUint32(buf, math.Float32bits(float32(f)))
		return buf, nil
	case oid.T_float8:
		f, err := asFloat64(v)
		if err != nil {
			return nil, err
		}
		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, math.Float64bits(f))
		return buf, nil
	case oid.T_bytea:
		return asBytes(v)
	case oid.T_uuid:
		return encodeUUIDBinary(v)
	case oid.T_numeric:
		return EncodeNumericBinary(v)
	case oid.T_date:
		return encodeDateBinary(v)
	case oid.T_timestamp, oid.T_timestamptz:
		return encodeTimestampBinary(v)
	default:
		return EncodeText(v, o)
	}
}

// DecodeBinary is the inverse of EncodeBinary, used for Bind parameters
// sent with format code 1.
func DecodeBinary(b []byte, o oid.Oid) (any, error) {
	if b == nil {
		return nil, nil
	}
	switch o {
	case oid.T_bool:
		if len(b) != 1 {
			return nil, fmt.Errorf("types: bool binary value must be 1 byte, got %d", len(b))
		}
		return b[0] != 0, nil
	case oid.T_int2:
		if len(b) != 2 {
			return nil, fmt.Errorf("types: int2 binary value must be 2 bytes, got %d", len(b))
		}
		return int64(int16(binary.BigEndian.Uint16(b))), nil
	case oid.T_int4, oid.T_oid:
		if len(b) != 4 {
			return nil, fmt.Errorf("types: int4 binary value must be 4 bytes, got %d", len(b))
		}
		return int64(int32(binary.BigEndian.Uint32(b))), nil
	case oid.T_int8:
		if len(b) != 8 {
			return nil, fmt.Errorf("types: int8 binary value must be 8 bytes, got %d", len(b))
		}
		return int64(binary.BigEndian.Uint64(b)), nil
	case oid.T_float4:
		if len(b) != 4 {
			return nil, fmt.Errorf("types: float4 binary value must be 4 bytes, got %d", len(b))
		}
		return float64(math.Float32frombits(binary.BigEndian.Uint32(b))), nil
	case oid.T_float8:
		if len(b) != 8 {
			return nil, fmt.Errorf("types: float8 binary value must be 8 bytes, got %d", len(b))
		}
		return math.Float64frombits(binary.BigEndian.Uint64(b)), nil
	case oid.T_bytea:
		return b, nil
	case oid.T_uuid:
		return decodeUUIDBinary(b)
	case oid.T_numeric:
		return DecodeNumericBinary(b)
	case oid.T_date:
		return decodeDateBinary(b)
	case oid.T_timestamp, oid.T_timestamptz:
		return decodeTimestampBinary(b)
	default:
		return DecodeText(b, o)
	}
}

func asInt64(v any) (int64, error) {
	switch x := v.(type) {
	case int64:
		return x, nil
	case int:
		return int64(x), nil
	case float64:
		return int64(x), nil
	default:
		return 0, fmt.Errorf("types: cannot coerce %T to integer", v)
	}
}

func asFloat64(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case int64:
		return float64(x), nil
	default:
		return 0, fmt.Errorf("types: cannot coerce %T to float", v)
	}
}

func encodeUUIDBinary(v any) ([]byte, error) {
	switch x := v.(type) {
	case []byte:
		if len(x) == 16 {
			return x, nil
		}
		u, err := uuid.ParseBytes(x)
		if err != nil {
			return nil, fmt.Errorf("types: invalid uuid %q: %w", x, err)
		}
		return u[:], nil
	case string:
		u, err := uuid.Parse(x)
		if err != nil {
			return nil, fmt.Errorf("types: invalid uuid %q: %w", x, err)
		}
		return u[:], nil
	default:
		return nil, fmt.Errorf("types: cannot coerce %T to uuid", v)
	}
}

func decodeUUIDBinary(b []byte) (any, error) {
	u, err := uuid.FromBytes(b)
	if err != nil {
		return nil, fmt.Errorf("types: invalid uuid bytes: %w", err)
	}
	return u.String(), nil
}
