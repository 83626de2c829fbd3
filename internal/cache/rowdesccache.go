package cache

import (
	"strings"
	"time"
)

// RowDescKey identifies a cached RowDescription: the statement's SQL,
// the source table (empty for multi-table/computed result sets), and
// the ordered set of column names, per spec §4.G row 4.
type RowDescKey struct {
	SQL     string
	Table   string
	Columns string // column names joined with a separator, kept comparable
}

func NewRowDescKey(sql, table string, columns []string) RowDescKey {
	return RowDescKey{SQL: sql, Table: table, Columns: strings.Join(columns, "\x1f")}
}

// RowDescCache implements spec §4.G's "Row-description" row: capacity
// 500, LRU plus TTL, invalidated on schema change for the referenced
// table.
type RowDescCache struct {
	*TTLCache[RowDescKey, []byte]
}

func NewRowDescCache() *RowDescCache {
	return &RowDescCache{TTLCache: NewTTLCache[RowDescKey, []byte](500, 10*time.Minute)}
}
