package types

import (
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/pgsqlite-go/pgsqlite/internal/oid"
)

// EncodeText renders a Go value pulled out of SQLite (int64, float64,
// string, []byte, nil, or bool) as PostgreSQL's text wire format for the
// given declared type, the same job lib-pq's encode() does in reverse
// (spec §5.2).
func EncodeText(v any, o oid.Oid) ([]byte, error) {
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
			return []byte("t"), nil
		}
		return []byte("f"), nil
	case oid.T_bytea:
		buf, err := asBytes(v)
		if err != nil {
			return nil, err
		}
		return []byte(fmt.Sprintf("\\x%x", buf)), nil
	case oid.T_numeric:
		return EncodeNumericText(v)
	case oid.T_date, oid.T_timestamp, oid.T_timestamptz, oid.T_time, oid.T_timetz:
		return EncodeDateTimeText(v, o)
	default:
		return []byte(fmt.Sprint(v)), nil
	}
}

// DecodeText parses wire text for a placeholder bound to the given
// declared type into the Go value SQLite's driver expects (int64,
// float64, string, []byte, bool), mirroring lib-pq's decode() (spec
// §5.3).
func DecodeText(s []byte, o oid.Oid) (any, error) {
	if s == nil {
		return nil, nil
	}
	switch o {
	case oid.T_bool:
		switch string(s) {
		case "t", "true", "TRUE", "1":
			return true, nil
		case "f", "false", "FALSE", "0":
			return false, nil
		}
		return nil, fmt.Errorf("types: invalid boolean text %q", s)
	case oid.T_bytea:
		return decodeByteaText(s)
	case oid.T_int2, oid.T_int4, oid.T_int8, oid.T_oid:
		n, err := strconv.ParseInt(string(s), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("types: invalid integer text %q: %w", s, err)
		}
		return n, nil
	case oid.T_float4, oid.T_float8:
		f, err := strconv.ParseFloat(string(s), 64)
		if err != nil {
			return nil, fmt.Errorf("types: invalid float text %q: %w", s, err)
		}
		return f, nil
	case oid.T_numeric:
		return DecodeNumericText(s)
	case oid.T_date, oid.T_timestamp, oid.T_timestamptz, oid.T_time, oid.T_timetz:
		return DecodeDateTimeText(s, o)
	default:
		return string(s), nil
	}
}

func asBool(v any) (bool, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case int64:
		return x != 0, nil
	case string:
		return x == "1" || x == "t" || x == "true", nil
	default:
		return false, fmt.Errorf("types: cannot coerce %T to bool", v)
	}
}

func asBytes(v any) ([]byte, error) {
	switch x := v.(type) {
	case []byte:
		return x, nil
	case string:
		return []byte(x), nil
	default:
		return nil, fmt.Errorf("types: cannot coerce %T to bytea", v)
	}
}

func decodeByteaText(s []byte) ([]byte, error) {
	if len(s) >= 2 && s[0] == '\\' && s[1] == 'x' {
		out := make([]byte, hex.DecodedLen(len(s)-2))
		if _, err := hex.Decode(out, s[2:]); err != nil {
			return nil, fmt.Errorf("types: invalid bytea hex text: %w", err)
		}
		return out, nil
	}
	return s, nil
}
