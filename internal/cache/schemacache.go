package cache

import "github.com/pgsqlite-go/pgsqlite/internal/migrate"

// TableSchema is what the schema cache holds per table: the column
// list with their authoritative PostgreSQL types, keyed by table name
// (spec §4.G row 3).
type TableSchema struct {
	Columns []migrate.ColumnMeta
}

// SchemaCache implements spec §4.G's "Schema" row: unbounded per
// table, bounded by table count, LRU eviction on table count,
// invalidated per-table on DDL against that table. 4096 tables is a
// generous ceiling for a single SQLite file before eviction kicks in.
type SchemaCache struct {
	*TTLCache[string, TableSchema]
}

func NewSchemaCache() *SchemaCache {
	return &SchemaCache{TTLCache: NewTTLCache[string, TableSchema](4096, 0)}
}

// BoolColumnCache implements spec §4.G's "Boolean-columns" row: the
// set of BOOLEAN column names per table, used by the executor to know
// which SQLite 0/1 integers need coercing back to Go bool before
// text/binary encoding.
type BoolColumnCache struct {
	*TTLCache[string, map[string]struct{}]
}

func NewBoolColumnCache() *BoolColumnCache {
	return &BoolColumnCache{TTLCache: NewTTLCache[string, map[string]struct{}](4096, 0)}
}

func (c *BoolColumnCache) IsBoolColumn(table, column string) bool {
	cols, ok := c.Get(table)
	if !ok {
		return false
	}
	_, ok = cols[column]
	return ok
}
