package shims

import (
	"database/sql/driver"
	"encoding/json"
	"strconv"
	"strings"

	"modernc.org/sqlite"
)

// registerJSON implements the pgsqlite_json_* shims the json translator
// (internal/translate/json.go) emits for ->, ->>, #>, #>>, ?, ?|, ?&.
// Columns storing JSON/JSONB values are stored as their PostgreSQL text
// representation (spec §4.B), so every shim here round-trips through
// encoding/json rather than relying on SQLite's own json1 '$'-path
// syntax, which collides with this adapter's '$n' placeholder syntax
// once a query carrying a JSON path literal is re-parsed.
func registerJSON() error {
	reg := func(name string, nArgs int, fn func(args []driver.Value) (driver.Value, error)) error {
		return sqlite.RegisterDeterministicScalarFunction(name, nArgs,
			func(ctx *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
				return fn(args)
			})
	}

	if err := reg("pgsqlite_json_get_text", 2, func(args []driver.Value) (driver.Value, error) {
		v, ok := jsonIndex(args[0], args[1])
		if !ok {
			return nil, nil
		}
		return jsonScalarText(v), nil
	}); err != nil {
		return err
	}
	if err := reg("pgsqlite_json_get_json", 2, func(args []driver.Value) (driver.Value, error) {
		v, ok := jsonIndex(args[0], args[1])
		if !ok {
			return nil, nil
		}
		return jsonEncode(v), nil
	}); err != nil {
		return err
	}
	if err := reg("pgsqlite_json_path_text", 2, func(args []driver.Value) (driver.Value, error) {
		v, ok := jsonPath(args[0], args[1])
		if !ok {
			return nil, nil
		}
		return jsonScalarText(v), nil
	}); err != nil {
		return err
	}
	if err := reg("pgsqlite_json_path_json", 2, func(args []driver.Value) (driver.Value, error) {
		v, ok := jsonPath(args[0], args[1])
		if !ok {
			return nil, nil
		}
		return jsonEncode(v), nil
	}); err != nil {
		return err
	}
	if err := reg("pgsqlite_json_has_key", 2, func(args []driver.Value) (driver.Value, error) {
		obj, ok := jsonObject(args[0])
		if !ok {
			return int64(0), nil
		}
		key, _ := args[1].(string)
		_, has := obj[key]
		return boolInt(has), nil
	}); err != nil {
		return err
	}
	if err := reg("pgsqlite_json_has_key_any", 2, func(args []driver.Value) (driver.Value, error) {
		return jsonHasAnyAll(args[0], args[1], false)
	}); err != nil {
		return err
	}
	if err := reg("pgsqlite_json_has_key_all", 2, func(args []driver.Value) (driver.Value, error) {
		return jsonHasAnyAll(args[0], args[1], true)
	}); err != nil {
		return err
	}
	if err := reg("pgsqlite_json_each_text_value", 1, func(args []driver.Value) (driver.Value, error) {
		var v interface{}
		if s, ok := args[0].(string); ok {
			_ = json.Unmarshal([]byte(s), &v)
		}
		switch v.(type) {
		case map[string]interface{}, []interface{}:
			return nil, nil
		default:
			return jsonScalarText(v), nil
		}
	}); err != nil {
		return err
	}

	return registerJSONAggregates()
}

func jsonDecode(v driver.Value) (interface{}, bool) {
	s, ok := v.(string)
	if !ok {
		return nil, false
	}
	var out interface{}
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, false
	}
	return out, true
}

func jsonObject(v driver.Value) (map[string]interface{}, bool) {
	decoded, ok := jsonDecode(v)
	if !ok {
		return nil, false
	}
	obj, ok := decoded.(map[string]interface{})
	return obj, ok
}

// jsonIndex implements -> / ->>: key is either an object field name or,
// for arrays, a 0-based PostgreSQL index (as a string or number).
func jsonIndex(docVal, keyVal driver.Value) (interface{}, bool) {
	doc, ok := jsonDecode(docVal)
	if !ok {
		return nil, false
	}
	switch d := doc.(type) {
	case map[string]interface{}:
		key, _ := keyVal.(string)
		v, ok := d[key]
		return v, ok
	case []interface{}:
		idx, ok := toInt(keyVal)
		if !ok || idx < 0 || idx >= len(d) {
			return nil, false
		}
		return d[idx], true
	default:
		return nil, false
	}
}

// jsonPath implements #> / #>>: path is a PostgreSQL text[] literal
// rendered by the array translator as a json_array(...) call result, or
// the PostgreSQL '{a,b,c}' array literal text form.
func jsonPath(docVal, pathVal driver.Value) (interface{}, bool) {
	doc, ok := jsonDecode(docVal)
	if !ok {
		return nil, false
	}
	segments := parsePathSegments(pathVal)
	cur := doc
	for _, seg := range segments {
		switch d := cur.(type) {
		case map[string]interface{}:
			v, ok := d[seg]
			if !ok {
				return nil, false
			}
			cur = v
		case []interface{}:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(d) {
				return nil, false
			}
			cur = d[idx]
		default:
			return nil, false
		}
	}
	return cur, true
}

func parsePathSegments(v driver.Value) []string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "[") {
		var arr []string
		if json.Unmarshal([]byte(s), &arr) == nil {
			return arr
		}
	}
	s = strings.TrimPrefix(s, "{")
	s = strings.TrimSuffix(s, "}")
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func jsonHasAnyAll(docVal, keysVal driver.Value, requireAll bool) (driver.Value, error) {
	obj, ok := jsonObject(docVal)
	if !ok {
		return int64(0), nil
	}
	keysRaw, ok := jsonDecode(keysVal)
	if !ok {
		return int64(0), nil
	}
	keys, ok := keysRaw.([]interface{})
	if !ok {
		return int64(0), nil
	}
	matched := 0
	for _, k := range keys {
		ks, _ := k.(string)
		if _, has := obj[ks]; has {
			matched++
		}
	}
	if requireAll {
		return boolInt(matched == len(keys)), nil
	}
	return boolInt(matched > 0), nil
}

func jsonScalarText(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		return jsonEncode(v)
	}
}

func jsonEncode(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

func toInt(v driver.Value) (int, bool) {
	switch n := v.(type) {
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case string:
		i, err := strconv.Atoi(n)
		return i, err == nil
	default:
		return 0, false
	}
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
