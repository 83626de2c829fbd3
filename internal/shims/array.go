package shims

import (
	"database/sql/driver"
	"encoding/json"

	"modernc.org/sqlite"
)

// registerArray implements the array_* shims the array translator
// (internal/translate/array.go) emits for @>, <@, &&, =ANY(), and the
// functions ORMs call directly against array-typed columns. Array
// columns are stored as JSON arrays (spec §4.B), matching how
// ARRAY[...] literals are rewritten to json_array(...) calls, so every
// shim here operates on the same encoding array.go already produces.
func registerArray() error {
	reg := func(name string, nArgs int, fn func(args []driver.Value) (driver.Value, error)) error {
		return sqlite.RegisterDeterministicScalarFunction(name, nArgs,
			func(ctx *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
				return fn(args)
			})
	}

	if err := reg("array_contains", 2, func(args []driver.Value) (driver.Value, error) {
		super, _ := jsonArray(args[0])
		sub, _ := jsonArray(args[1])
		return boolInt(containsAll(super, sub)), nil
	}); err != nil {
		return err
	}
	if err := reg("array_contained", 2, func(args []driver.Value) (driver.Value, error) {
		sub, _ := jsonArray(args[0])
		super, _ := jsonArray(args[1])
		return boolInt(containsAll(super, sub)), nil
	}); err != nil {
		return err
	}
	if err := reg("array_overlap", 2, func(args []driver.Value) (driver.Value, error) {
		a, _ := jsonArray(args[0])
		b, _ := jsonArray(args[1])
		return boolInt(overlaps(a, b)), nil
	}); err != nil {
		return err
	}
	if err := reg("array_cat", 2, func(args []driver.Value) (driver.Value, error) {
		a, _ := jsonArray(args[0])
		b, _ := jsonArray(args[1])
		return jsonEncode(append(append([]interface{}{}, a...), b...)), nil
	}); err != nil {
		return err
	}
	if err := reg("array_length", 2, func(args []driver.Value) (driver.Value, error) {
		a, ok := jsonArray(args[0])
		if !ok {
			return nil, nil
		}
		return int64(len(a)), nil
	}); err != nil {
		return err
	}
	if err := reg("array_ndims", 1, func(args []driver.Value) (driver.Value, error) {
		if _, ok := jsonArray(args[0]); !ok {
			return nil, nil
		}
		return int64(1), nil
	}); err != nil {
		return err
	}
	if err := reg("array_append", 2, func(args []driver.Value) (driver.Value, error) {
		a, _ := jsonArray(args[0])
		return jsonEncode(append(append([]interface{}{}, a...), elementValue(args[1]))), nil
	}); err != nil {
		return err
	}
	if err := reg("array_prepend", 2, func(args []driver.Value) (driver.Value, error) {
		a, _ := jsonArray(args[1])
		return jsonEncode(append([]interface{}{elementValue(args[0])}, a...)), nil
	}); err != nil {
		return err
	}
	if err := reg("array_remove", 2, func(args []driver.Value) (driver.Value, error) {
		a, _ := jsonArray(args[0])
		target := elementValue(args[1])
		out := make([]interface{}, 0, len(a))
		for _, v := range a {
			if !jsonEqual(v, target) {
				out = append(out, v)
			}
		}
		return jsonEncode(out), nil
	}); err != nil {
		return err
	}
	if err := reg("array_replace", 3, func(args []driver.Value) (driver.Value, error) {
		a, _ := jsonArray(args[0])
		from, to := elementValue(args[1]), elementValue(args[2])
		out := make([]interface{}, len(a))
		for i, v := range a {
			if jsonEqual(v, from) {
				out[i] = to
			} else {
				out[i] = v
			}
		}
		return jsonEncode(out), nil
	}); err != nil {
		return err
	}
	if err := reg("array_position", 2, func(args []driver.Value) (driver.Value, error) {
		a, _ := jsonArray(args[0])
		target := elementValue(args[1])
		for i, v := range a {
			if jsonEqual(v, target) {
				return int64(i + 1), nil
			}
		}
		return nil, nil
	}); err != nil {
		return err
	}
	if err := reg("array_positions", 2, func(args []driver.Value) (driver.Value, error) {
		a, _ := jsonArray(args[0])
		target := elementValue(args[1])
		var out []interface{}
		for i, v := range a {
			if jsonEqual(v, target) {
				out = append(out, i+1)
			}
		}
		return jsonEncode(out), nil
	}); err != nil {
		return err
	}
	if err := reg("array_slice", 3, func(args []driver.Value) (driver.Value, error) {
		a, _ := jsonArray(args[0])
		lo, _ := toInt(args[1])
		hi, _ := toInt(args[2])
		lo--
		if lo < 0 {
			lo = 0
		}
		if hi > len(a) {
			hi = len(a)
		}
		if lo >= hi {
			return jsonEncode([]interface{}{}), nil
		}
		return jsonEncode(a[lo:hi]), nil
	}); err != nil {
		return err
	}

	return registerArrayAggregates()
}

func jsonArray(v driver.Value) ([]interface{}, bool) {
	decoded, ok := jsonDecode(v)
	if !ok {
		return nil, false
	}
	arr, ok := decoded.([]interface{})
	return arr, ok
}

// elementValue accepts either a raw scalar driver value (int64, float64,
// string, bool, nil) or a JSON-encoded scalar, since array_append et al.
// may be called with a bound parameter whose Go value never passed
// through json.Marshal.
func elementValue(v driver.Value) interface{} {
	if s, ok := v.(string); ok {
		var decoded interface{}
		if json.Unmarshal([]byte(s), &decoded) == nil {
			if _, isArr := decoded.([]interface{}); !isArr {
				if _, isObj := decoded.(map[string]interface{}); !isObj {
					return decoded
				}
			}
		}
		return s
	}
	return v
}

func jsonEqual(a, b interface{}) bool {
	return jsonEncode(a) == jsonEncode(b)
}

func containsAll(super, sub []interface{}) bool {
	for _, s := range sub {
		found := false
		for _, v := range super {
			if jsonEqual(v, s) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func overlaps(a, b []interface{}) bool {
	for _, x := range a {
		for _, y := range b {
			if jsonEqual(x, y) {
				return true
			}
		}
	}
	return false
}
