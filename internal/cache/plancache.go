package cache

import (
	"time"

	"github.com/pgsqlite-go/pgsqlite/internal/oid"
)

// PlanKey identifies a query-plan cache entry: normalized SQL text
// alone (spec §4.G row 2 — no param OIDs, unlike the statement cache).
type PlanKey string

// Plan is the translator chain's output for one statement: the
// SQLite-ready SQL plus the bookkeeping metadata later stages need
// (spec §4.D: "metadata records column aliases, inferred parameter
// types, detected non-determinism, and fast-path eligibility").
type Plan struct {
	SQL              string
	FastPathEligible bool
	Volatile         bool
	HasReturning     bool
	TargetsCatalog   bool
	InferredParamOIDs []oid.Oid

	// TargetTable and ParamColumns carry the DML column mapping
	// internal/translate resolves while rewriting INSERT/UPDATE
	// literals (spec §4.B NUMERIC/VARCHAR validation, spec §4.D
	// rewriter 5's datetime literal encoding): which table the
	// statement writes to, and which declared column a given $n
	// placeholder binds to. Empty for statements translate couldn't
	// resolve a single target table for (multi-table UPDATE ... FROM,
	// INSERT ... SELECT, and non-DML statements).
	TargetTable  string
	ParamColumns map[int]string
}

// PlanCache implements spec §4.G's "Query-plan / translation" row:
// capacity 1000, plain LRU (no TTL), invalidated wholesale on any DDL.
type PlanCache struct {
	*TTLCache[PlanKey, Plan]
}

func NewPlanCache() *PlanCache {
	return &PlanCache{TTLCache: NewTTLCache[PlanKey, Plan](1000, 0)}
}

// StmtKey identifies a prepared-statement cache entry: normalized SQL
// plus the parameter OIDs the client declared or the translator
// inferred (spec §4.G row 1).
type StmtKey struct {
	SQL       string
	ParamOIDs string // oid.Oid slice, joined, so the key stays comparable
}

// StmtEntry is what the prepared-statement cache holds: translated
// SQL, parameter types, and the RowDescription field set, so a second
// Parse of the same statement skips translation and type inference
// entirely.
type StmtEntry struct {
	Plan         Plan
	ParamOIDs    []oid.Oid
	ResultFields []FieldMeta
}

// FieldMeta is the subset of a RowDescription field this adapter needs
// to cache independent of protocol.FieldDescription, avoiding an
// import cycle between cache and protocol.
type FieldMeta struct {
	Name    string
	TypeOID oid.Oid
	TypeLen int16
	TypeMod int32
}

// StmtCache implements spec §4.G's "Prepared-statement" row: capacity
// 1000, LRU plus 5-minute TTL, invalidated wholesale on any DDL.
type StmtCache struct {
	*TTLCache[StmtKey, StmtEntry]
}

func NewStmtCache() *StmtCache {
	return &StmtCache{TTLCache: NewTTLCache[StmtKey, StmtEntry](1000, 5*time.Minute)}
}
