package shims

import (
	"database/sql/driver"
	"strconv"
	"strings"
	"time"

	"modernc.org/sqlite"
)

// registerDatetime implements spec §4.I's datetime shims. Datetime
// columns are stored as integer microseconds (Open Question 1's
// "datetime columns always integer-backed internally" decision,
// DESIGN.md), so pg_*_from_text converts incoming literal text to that
// storage form at INSERT/UPDATE time, and datetime_extract/trunc/age
// read it back out for EXTRACT/DATE_TRUNC/AGE queries the datetime
// translator (internal/translate/datetime.go) rewrites to these calls.
func registerDatetime() error {
	reg := func(name string, nArgs int, fn func(args []driver.Value) (driver.Value, error)) error {
		return sqlite.RegisterDeterministicScalarFunction(name, nArgs,
			func(ctx *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
				return fn(args)
			})
	}

	if err := reg("pg_timestamp_from_text", 1, func(args []driver.Value) (driver.Value, error) {
		return parseToMicros(args[0], timestampLayouts)
	}); err != nil {
		return err
	}
	if err := reg("pg_date_from_text", 1, func(args []driver.Value) (driver.Value, error) {
		v, err := parseToMicros(args[0], []string{"2006-01-02"})
		return v, err
	}); err != nil {
		return err
	}
	if err := reg("pg_time_from_text", 1, func(args []driver.Value) (driver.Value, error) {
		return parseTimeToMicros(args[0])
	}); err != nil {
		return err
	}
	if err := reg("datetime_extract", 2, func(args []driver.Value) (driver.Value, error) {
		field, _ := args[0].(string)
		t, ok := microsToTime(args[1])
		if !ok {
			return nil, nil
		}
		return extractField(strings.ToLower(field), t)
	}); err != nil {
		return err
	}
	if err := reg("datetime_trunc", 2, func(args []driver.Value) (driver.Value, error) {
		unit, _ := args[0].(string)
		t, ok := microsToTime(args[1])
		if !ok {
			return nil, nil
		}
		return truncate(strings.ToLower(unit), t).UnixMicro(), nil
	}); err != nil {
		return err
	}
	if err := reg("datetime_age", 2, func(args []driver.Value) (driver.Value, error) {
		a, okA := microsToTime(args[0])
		b, okB := microsToTime(args[1])
		if !okA || !okB {
			return nil, nil
		}
		return a.Sub(b).Microseconds(), nil
	}); err != nil {
		return err
	}
	return reg("at_time_zone", 2, func(args []driver.Value) (driver.Value, error) {
		t, ok := microsToTime(args[0])
		if !ok {
			return nil, nil
		}
		zone, _ := args[1].(string)
		loc, err := time.LoadLocation(zone)
		if err != nil {
			return t.UnixMicro(), nil
		}
		return t.In(loc).UnixMicro(), nil
	})
}

var timestampLayouts = []string{
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999-07",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

func parseToMicros(v driver.Value, layouts []string) (driver.Value, error) {
	s, ok := v.(string)
	if !ok {
		return nil, nil
	}
	s = strings.TrimSpace(s)
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().UnixMicro(), nil
		}
	}
	return nil, nil
}

// parseTimeToMicros parses a bare TIME/TIMETZ literal and returns
// microseconds since midnight rather than parseToMicros' Unix instant:
// time.Parse anchors a "15:04:05"-only layout at year 0, so UnixMicro()
// of that result isn't the same convention this adapter stores TIME
// columns under (internal/types/datetime.go's storageMicros).
func parseTimeToMicros(v driver.Value) (driver.Value, error) {
	s, ok := v.(string)
	if !ok {
		return nil, nil
	}
	s = strings.TrimSpace(s)
	for _, layout := range []string{"15:04:05.999999999", "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
			return t.Sub(midnight).Microseconds(), nil
		}
	}
	return nil, nil
}

func microsToTime(v driver.Value) (time.Time, bool) {
	switch x := v.(type) {
	case int64:
		return time.UnixMicro(x).UTC(), true
	case float64:
		return time.UnixMicro(int64(x)).UTC(), true
	case string:
		if n, err := strconv.ParseInt(x, 10, 64); err == nil {
			return time.UnixMicro(n).UTC(), true
		}
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, x); err == nil {
				return t.UTC(), true
			}
		}
	}
	return time.Time{}, false
}

func extractField(field string, t time.Time) (driver.Value, error) {
	switch field {
	case "year":
		return int64(t.Year()), nil
	case "month":
		return int64(t.Month()), nil
	case "day":
		return int64(t.Day()), nil
	case "hour":
		return int64(t.Hour()), nil
	case "minute":
		return int64(t.Minute()), nil
	case "second":
		return float64(t.Second()) + float64(t.Nanosecond())/1e9, nil
	case "dow":
		return int64(t.Weekday()), nil
	case "doy":
		return int64(t.YearDay()), nil
	case "epoch":
		return t.Unix(), nil
	case "quarter":
		return int64((t.Month()-1)/3 + 1), nil
	case "week":
		_, week := t.ISOWeek()
		return int64(week), nil
	default:
		return nil, nil
	}
}

func truncate(unit string, t time.Time) time.Time {
	switch unit {
	case "year":
		return time.Date(t.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	case "quarter":
		q := (int(t.Month()) - 1) / 3 * 3
		return time.Date(t.Year(), time.Month(q+1), 1, 0, 0, 0, 0, time.UTC)
	case "month":
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	case "week":
		offset := (int(t.Weekday()) + 6) % 7
		d := t.AddDate(0, 0, -offset)
		return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	case "day":
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	case "hour":
		return t.Truncate(time.Hour)
	case "minute":
		return t.Truncate(time.Minute)
	case "second":
		return t.Truncate(time.Second)
	default:
		return t
	}
}
