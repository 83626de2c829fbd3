package types

import (
	"fmt"
	"strings"
	"time"

	"github.com/pgsqlite-go/pgsqlite/internal/oid"
)

// pgEpochMicros is the number of microseconds between the Unix epoch
// (1970-01-01) and PostgreSQL's internal epoch (2000-01-01), the same
// constant lib-pq's replication.go uses for the logical-replication
// feedback clock (spec §5.6).
const pgEpochMicros = 946684800000000

// pgEpochDays is the same offset expressed in days, for the DATE type's
// four-byte wire form.
const pgEpochDays = 10957

const textTimestampFormat = "2006-01-02 15:04:05.999999999"
const textTimestampTZFormat = "2006-01-02 15:04:05.999999999Z07:00"
const textDateFormat = "2006-01-02"
const textTimeFormat = "15:04:05.999999999"

// EncodeDateTimeText formats a SQLite-stored timestamp (unix
// microseconds as int64, or a string already in SQLite's own
// "YYYY-MM-DD HH:MM:SS" convention) as PostgreSQL date/time text.
func EncodeDateTimeText(v any, o oid.Oid) ([]byte, error) {
	t, err := asTime(v)
	if err != nil {
		return nil, err
	}
	switch o {
	case oid.T_date:
		return []byte(t.UTC().Format(textDateFormat)), nil
	case oid.T_time, oid.T_timetz:
		return []byte(t.UTC().Format(textTimeFormat)), nil
	case oid.T_timestamptz:
		return []byte(t.UTC().Format(textTimestampTZFormat)), nil
	default: // T_timestamp
		return []byte(t.UTC().Format(textTimestampFormat)), nil
	}
}

// DecodeDateTimeText parses incoming wire text and returns the integer
// SQLite is made to store for it (spec §3.2: "Datetime-typed columns
// always hold integer values in SQLite"): Unix microseconds for
// DATE/TIMESTAMP/TIMESTAMPTZ, microseconds since midnight for
// TIME/TIMETZ. It accepts the formats PostgreSQL's own date/timestamp
// input functions accept: optional fractional seconds, optional zone
// offset, and no zone at all for the non-tz variants.
func DecodeDateTimeText(s []byte, o oid.Oid) (any, error) {
	str := strings.TrimSpace(string(s))
	layouts := []string{
		"2006-01-02 15:04:05.999999999Z07:00",
		"2006-01-02 15:04:05.999999999-07",
		"2006-01-02 15:04:05.999999999",
		"2006-01-02T15:04:05.999999999Z07:00",
		"2006-01-02T15:04:05.999999999",
		"2006-01-02",
		"15:04:05.999999999",
	}
	if o == oid.T_date {
		layouts = []string{"2006-01-02"}
	}
	var lastErr error
	for _, layout := range layouts {
		if t, err := time.Parse(layout, str); err == nil {
			return storageMicros(t, o), nil
		} else {
			lastErr = err
		}
	}
	return nil, fmt.Errorf("types: invalid date/time literal %q: %w", str, lastErr)
}

// storageMicros converts a parsed date/time value into the integer
// this adapter stores in SQLite for it. TIME/TIMETZ has no calendar
// date component from its "15:04:05" layout (time.Parse anchors it at
// year 0, month 1, day 1), so it's measured as an offset from its own
// midnight rather than treated as a Unix instant.
func storageMicros(t time.Time, o oid.Oid) int64 {
	switch o {
	case oid.T_time, oid.T_timetz:
		midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
		return t.Sub(midnight).Microseconds()
	default:
		return t.UnixMicro()
	}
}

func asTime(v any) (time.Time, error) {
	switch x := v.(type) {
	case time.Time:
		return x, nil
	case int64:
		// SQLite columns populated by this adapter's migration layer
		// store timestamps as Unix microseconds.
		return time.UnixMicro(x).UTC(), nil
	case string:
		for _, layout := range []string{
			"2006-01-02 15:04:05.999999999",
			"2006-01-02T15:04:05.999999999Z07:00",
			"2006-01-02",
		} {
			if t, err := time.Parse(layout, x); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("types: cannot parse stored time value %q", x)
	default:
		return time.Time{}, fmt.Errorf("types: cannot coerce %T to a timestamp", v)
	}
}

func encodeDateBinary(v any) ([]byte, error) {
	t, err := asTime(v)
	if err != nil {
		return nil, err
	}
	days := int32(t.UTC().Truncate(24*time.Hour).Unix()/86400) - pgEpochDays
	buf := make([]byte, 4)
	putBE32(buf, uint32(days))
	return buf, nil
}

// decodeDateBinary is the inverse of encodeDateBinary: it returns the
// Unix-microseconds integer this adapter stores for DATE columns, not
// a time.Time (spec §3.2).
func decodeDateBinary(b []byte) (any, error) {
	if len(b) != 4 {
		return nil, fmt.Errorf("types: date binary value must be 4 bytes, got %d", len(b))
	}
	days := int32(getBE32(b))
	return int64(days+pgEpochDays) * 86400 * 1_000_000, nil
}

func encodeTimestampBinary(v any) ([]byte, error) {
	t, err := asTime(v)
	if err != nil {
		return nil, err
	}
	micros := t.UTC().UnixMicro() - pgEpochMicros
	buf := make([]byte, 8)
	putBE64(buf, uint64(micros))
	return buf, nil
}

// decodeTimestampBinary is the inverse of encodeTimestampBinary: it
// returns the Unix-microseconds integer this adapter stores for
// TIMESTAMP/TIMESTAMPTZ columns, not a time.Time (spec §3.2).
func decodeTimestampBinary(b []byte) (any, error) {
	if len(b) != 8 {
		return nil, fmt.Errorf("types: timestamp binary value must be 8 bytes, got %d", len(b))
	}
	micros := int64(getBE64(b))
	return micros + pgEpochMicros, nil
}

func putBE32(buf []byte, v uint32) {
	buf[0] = byte(v >> 24)
	buf[1] = byte(v >> 16)
	buf[2] = byte(v >> 8)
	buf[3] = byte(v)
}

func getBE32(buf []byte) uint32 {
	return uint32(buf[0])<<24 | uint32(buf[1])<<16 | uint32(buf[2])<<8 | uint32(buf[3])
}

func putBE64(buf []byte, v uint64) {
	for i := 0; i < 8; i++ {
		buf[7-i] = byte(v >> (8 * i))
	}
}

func getBE64(buf []byte) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v = v<<8 | uint64(buf[i])
	}
	return v
}
