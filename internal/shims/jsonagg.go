package shims

import (
	"database/sql/driver"
	"encoding/json"

	"modernc.org/sqlite"
)

// jsonArrayAgg accumulates json_agg/jsonb_agg: one value per row,
// rendered as a JSON array in arrival order.
type jsonArrayAgg struct {
	values []interface{}
}

func (a *jsonArrayAgg) Step(ctx *sqlite.FunctionContext, args []driver.Value) error {
	v, _ := jsonDecode(args[0])
	if v == nil {
		if s, ok := args[0].(string); ok {
			v = s
		}
	}
	a.values = append(a.values, v)
	return nil
}

func (a *jsonArrayAgg) WindowValue(ctx *sqlite.FunctionContext) (driver.Value, error) {
	return a.Value()
}

func (a *jsonArrayAgg) Value() (driver.Value, error) {
	b, err := json.Marshal(a.values)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// jsonObjectAgg accumulates json_object_agg/jsonb_object_agg: pairs of
// (key, value) arguments per row, rendered as a JSON object. Later
// duplicate keys overwrite earlier ones, matching PostgreSQL's own
// json_object_agg behavior.
type jsonObjectAgg struct {
	obj map[string]interface{}
}

func (a *jsonObjectAgg) Step(ctx *sqlite.FunctionContext, args []driver.Value) error {
	if a.obj == nil {
		a.obj = make(map[string]interface{})
	}
	key, _ := args[0].(string)
	v, ok := jsonDecode(args[1])
	if !ok {
		v = args[1]
	}
	a.obj[key] = v
	return nil
}

func (a *jsonObjectAgg) WindowValue(ctx *sqlite.FunctionContext) (driver.Value, error) {
	return a.Value()
}

func (a *jsonObjectAgg) Value() (driver.Value, error) {
	if a.obj == nil {
		a.obj = make(map[string]interface{})
	}
	b, err := json.Marshal(a.obj)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func registerJSONAggregates() error {
	for _, name := range []string{"json_agg", "jsonb_agg"} {
		if err := sqlite.RegisterAggregateFunction(name, 1, true,
			func() sqlite.AggregateFunction { return &jsonArrayAgg{} }); err != nil {
			return err
		}
	}
	for _, name := range []string{"json_object_agg", "jsonb_object_agg"} {
		if err := sqlite.RegisterAggregateFunction(name, 2, true,
			func() sqlite.AggregateFunction { return &jsonObjectAgg{} }); err != nil {
			return err
		}
	}
	return nil
}
