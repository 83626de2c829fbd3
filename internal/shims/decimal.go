package shims

import (
	"database/sql/driver"
	"strconv"
	"strings"

	"modernc.org/sqlite"
)

// registerDecimal implements spec §4.I's decimal shims. NUMERIC columns
// are stored as canonical decimal text (spec §4.B), so both shims here
// operate on text in, text out; the column's declared precision/scale
// (from __pgsqlite_numeric_constraints) isn't available inside a SQL
// function call, so these shims only canonicalize what SQLite already
// has in hand. No layer pads or rounds a value to its column's declared
// scale on output: types.EncodeNumericText sends the stored text as is.
func registerDecimal() error {
	reg := func(name string, nArgs int, fn func(args []driver.Value) (driver.Value, error)) error {
		return sqlite.RegisterDeterministicScalarFunction(name, nArgs,
			func(ctx *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
				return fn(args)
			})
	}

	if err := reg("decimal_from_text", 1, func(args []driver.Value) (driver.Value, error) {
		s, _ := args[0].(string)
		return canonicalDecimal(s), nil
	}); err != nil {
		return err
	}

	return reg("numeric_format", 1, func(args []driver.Value) (driver.Value, error) {
		switch v := args[0].(type) {
		case string:
			return canonicalDecimal(v), nil
		case int64:
			return strconv.FormatInt(v, 10), nil
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64), nil
		default:
			return nil, nil
		}
	})
}

// canonicalDecimal trims a leading '+' and insignificant trailing
// zeros in the fractional part PostgreSQL's numeric_out would also
// drop, without altering the value's magnitude.
func canonicalDecimal(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "+")
	if _, err := strconv.ParseFloat(s, 64); err != nil {
		return s
	}
	if !strings.Contains(s, ".") {
		return s
	}
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "" || s == "-" {
		return "0"
	}
	return s
}
