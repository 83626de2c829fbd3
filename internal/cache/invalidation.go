package cache

import "strings"

// Set bundles every shared cache a session consults, so the executor
// has one object to invalidate against instead of threading five
// caches through every call site (spec §4.G, §5 "Cache mutations that
// follow DDL are broadcast through an invalidation token observed by
// every session on its next cache lookup").
type Set struct {
	Plans     *PlanCache
	Stmts     *StmtCache
	Schemas   *SchemaCache
	RowDescs  *RowDescCache
	BoolCols  *BoolColumnCache
}

func NewSet() *Set {
	return &Set{
		Plans:    NewPlanCache(),
		Stmts:    NewStmtCache(),
		Schemas:  NewSchemaCache(),
		RowDescs: NewRowDescCache(),
		BoolCols: NewBoolColumnCache(),
	}
}

// InvalidateDDL implements the "any DDL" rule: the plan and
// prepared-statement caches are global and get purged outright, while
// the per-table schema/row-description/bool-column caches only drop
// the affected table (spec §4.G).
func (s *Set) InvalidateDDL(table string) {
	s.Plans.Purge()
	s.Stmts.Purge()
	s.Schemas.Remove(table)
	s.BoolCols.Remove(table)
	s.invalidateRowDescsForTable(table)
}

// InvalidateType implements "globally-per-type on CREATE/ALTER/DROP
// TYPE": every cache is suspect once an enum or composite type's shape
// changes, since any table could reference it.
func (s *Set) InvalidateType() {
	s.Plans.Purge()
	s.Stmts.Purge()
	s.RowDescs.Purge()
}

func (s *Set) invalidateRowDescsForTable(table string) {
	// RowDescCache keys carry the table name, so a linear scan over
	// the LRU's small cap (500) is cheaper than tracking a secondary
	// table->keys index for a cache this size.
	s.RowDescs.mu.Lock()
	defer s.RowDescs.mu.Unlock()
	for _, k := range s.RowDescs.lru.Keys() {
		if k.Table == table {
			s.RowDescs.lru.Remove(k)
		}
	}
}

// IsVolatileQuery reports whether sql's text disqualifies it from
// result caching per spec §4.G's "Universal rule" — it may still be
// plan- and statement-cached normally.
func IsVolatileQuery(sql string) bool {
	lower := strings.ToLower(sql)
	for _, marker := range volatileMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

var volatileMarkers = []string{
	"gen_random_uuid", "uuid_generate_v4", "random(", "now(",
	"current_timestamp", "current_date", "current_time", "nextval(",
}
