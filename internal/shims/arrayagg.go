package shims

import (
	"database/sql/driver"

	"modernc.org/sqlite"
)

// arrayAgg implements array_agg: one JSON array element per row in
// arrival order, the same encoding array.go's ARRAY[...] rewrite uses.
type arrayAgg struct {
	values   []interface{}
	distinct bool
	seen     map[string]bool
}

func (a *arrayAgg) Step(ctx *sqlite.FunctionContext, args []driver.Value) error {
	v := elementValue(args[0])
	if a.distinct {
		if a.seen == nil {
			a.seen = make(map[string]bool)
		}
		key := jsonEncode(v)
		if a.seen[key] {
			return nil
		}
		a.seen[key] = true
	}
	a.values = append(a.values, v)
	return nil
}

func (a *arrayAgg) WindowValue(ctx *sqlite.FunctionContext) (driver.Value, error) {
	return a.Value()
}

func (a *arrayAgg) Value() (driver.Value, error) {
	if a.values == nil {
		return jsonEncode([]interface{}{}), nil
	}
	return jsonEncode(a.values), nil
}

func registerArrayAggregates() error {
	if err := sqlite.RegisterAggregateFunction("array_agg", 1, true,
		func() sqlite.AggregateFunction { return &arrayAgg{} }); err != nil {
		return err
	}
	return sqlite.RegisterAggregateFunction("array_agg_distinct", 1, true,
		func() sqlite.AggregateFunction { return &arrayAgg{distinct: true} })
}
