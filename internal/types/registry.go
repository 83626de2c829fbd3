// Package types bridges PostgreSQL's wire type system and SQLite's
// dynamic, affinity-based storage (spec §5). It is the server-side
// analogue of lib-pq's encode.go/decode.go/array.go/oid package: instead
// of turning Go values into query parameters, it turns SQLite row
// values into PostgreSQL wire bytes and back.
package types

import (
	"fmt"

	"github.com/pgsqlite-go/pgsqlite/internal/oid"
)

// Info describes one PostgreSQL scalar type as this adapter presents
// it: its OID, name and wire length (-1 for variable-length),
// mirroring the subset of pg_type a client's DescribeStatement
// round-trip actually needs (spec §5.1).
type Info struct {
	OID  oid.Oid
	Name string
	Len  int16 // fixed wire length, or -1 for varlena
}

var registry = map[oid.Oid]Info{
	oid.T_bool:        {oid.T_bool, "bool", 1},
	oid.T_bytea:       {oid.T_bytea, "bytea", -1},
	oid.T_char:        {oid.T_char, "char", 1},
	oid.T_int8:        {oid.T_int8, "int8", 8},
	oid.T_int2:        {oid.T_int2, "int2", 2},
	oid.T_int4:        {oid.T_int4, "int4", 4},
	oid.T_text:        {oid.T_text, "text", -1},
	oid.T_oid:         {oid.T_oid, "oid", 4},
	oid.T_json:        {oid.T_json, "json", -1},
	oid.T_jsonb:       {oid.T_jsonb, "jsonb", -1},
	oid.T_float4:      {oid.T_float4, "float4", 4},
	oid.T_float8:      {oid.T_float8, "float8", 8},
	oid.T_unknown:     {oid.T_unknown, "unknown", -2},
	oid.T_date:        {oid.T_date, "date", 4},
	oid.T_time:        {oid.T_time, "time", 8},
	oid.T_timestamp:   {oid.T_timestamp, "timestamp", 8},
	oid.T_timestamptz: {oid.T_timestamptz, "timestamptz", 8},
	oid.T_numeric:     {oid.T_numeric, "numeric", -1},
	oid.T_uuid:        {oid.T_uuid, "uuid", 16},
	oid.T_varchar:     {oid.T_varchar, "varchar", -1},
	oid.T_bpchar:      {oid.T_bpchar, "bpchar", -1},
	oid.T_money:       {oid.T_money, "money", 8},
}

// Lookup returns the registered Info for o, or a synthetic "unknown"
// entry so callers can always build a RowDescription field even for
// types this adapter doesn't specially codec (spec §5.1 edge case:
// unrecognized declared types fall back to text-as-is).
func Lookup(o oid.Oid) Info {
	if info, ok := registry[o]; ok {
		return info
	}
	return Info{OID: o, Name: fmt.Sprintf("oid%d", o), Len: -1}
}

// IsVarlena reports whether values of this type carry their own
// length on the wire instead of a fixed size.
func (i Info) IsVarlena() bool { return i.Len < 0 }
