// Package translate implements the ordered SQL rewriter chain spec
// §4.D describes: a sequence of focused, idempotent rewriters that
// turn PostgreSQL SQL text into SQLite-compatible SQL text plus
// metadata the executor and cache need. Each rewriter runs a cheap
// precheck before doing any real work, the same cost discipline
// lib-pq's own escape/quote helpers apply before scanning a whole
// string for characters that need doubling.
package translate

import (
	"regexp"
	"strings"

	"github.com/pgsqlite-go/pgsqlite/internal/cache"
	"github.com/pgsqlite-go/pgsqlite/internal/oid"
	"github.com/pgsqlite-go/pgsqlite/internal/pgerror"
)

// Context carries the per-statement metadata rewriters read and write
// as they run (spec §4.D: "metadata records column aliases, inferred
// parameter types, detected non-determinism, and fast-path
// eligibility").
type Context struct {
	ParamHints     map[int]oid.Oid // 1-based placeholder index -> cast-inferred type
	Volatile       bool
	HasReturning   bool
	TargetsCatalog bool
	FastPathEligible bool

	// TargetTable is the single table an INSERT/UPDATE statement
	// writes to, resolved before the chain runs so datetimeTranslator
	// can look up each column's declared type. Empty when Run's typer
	// couldn't name a single target table.
	TargetTable string
	// Columns is TargetTable's declared column list, in the order its
	// typer reported them.
	Columns []ColumnType
	// ParamColumns maps a 1-based $n placeholder to the column name it
	// binds to, populated by the INSERT/UPDATE structural walk so the
	// executor can validate a bound NUMERIC/VARCHAR value against its
	// sidecar constraint per spec §4.B.
	ParamColumns map[int]string
	// LiteralColumns maps a column name to the unquoted literal text
	// an INSERT VALUES/UPDATE SET assigned it, for the same validation
	// against the statement's own cached SQL text rather than a bound
	// parameter.
	LiteralColumns map[string]string
}

// ColumnType is the declared PostgreSQL type of one column of a DML
// statement's target table, as much as the chain's DML rewriters need
// to know (name and OID; typmod-level validation reads the sidecar
// constraint tables directly in internal/executor).
type ColumnType struct {
	Name string
	OID  oid.Oid
}

// ColumnTyper resolves a table name to its declared columns, letting
// the chain stay free of internal/migrate/internal/executor
// dependencies. A nil return (table not found, or not a user table)
// leaves Context.Columns empty and skips column-aware rewriting.
type ColumnTyper func(table string) []ColumnType

// Rewriter is one link of the chain: a pure function from SQL text to
// rewritten SQL text, given a precheck so the chain can skip rewriters
// whose trigger text isn't present at all.
type Rewriter interface {
	Name() string
	Precheck(sql string) bool
	Rewrite(sql string, ctx *Context) (string, error)
}

// DefaultChain returns the twelve rewriters from spec §4.D in their
// required order.
func DefaultChain() []Rewriter {
	return []Rewriter{
		commentStripper{},
		schemaPrefixStripper{},
		castTranslator{},
		regexTranslator{},
		datetimeTranslator{},
		arrayTranslator{},
		jsonTranslator{},
		numericFormatTranslator{},
		batchDMLTranslator{},
		returningDetector{},
		insertSelectDatetimeTranslator{},
		catalogRouter{},
	}
}

// Run applies every rewriter in order, skipping any whose Precheck
// returns false, and returns the final SQL plus the accumulated
// Context. Each rewriter is expected to be idempotent on its own
// output (spec §4.D), so Run never needs to loop a rewriter twice.
// typer resolves sql's target table's declared columns before the
// chain runs, if sql is a plain single-table INSERT/UPDATE; pass nil
// when no column-aware rewriting is needed (e.g. the simple-query path
// for a statement known not to be DML).
func Run(sql string, chain []Rewriter, typer ColumnTyper) (string, *Context, error) {
	ctx := &Context{
		ParamHints:     make(map[int]oid.Oid),
		ParamColumns:   make(map[int]string),
		LiteralColumns: make(map[string]string),
	}
	if typer != nil {
		if table, ok := dmlTargetTable(sql); ok {
			if cols := typer(table); len(cols) > 0 {
				ctx.TargetTable = table
				ctx.Columns = cols
			}
		}
	}
	out := sql
	for _, rw := range chain {
		if !rw.Precheck(out) {
			continue
		}
		var err error
		out, err = rw.Rewrite(out, ctx)
		if err != nil {
			return "", nil, err
		}
	}
	if strings.TrimSpace(out) == "" {
		return "", nil, pgerror.New(pgerror.EmptyQuery, "empty query")
	}
	return out, ctx, nil
}

// ToPlan packages a Run's output into the cache.Plan the prepared-
// statement and query-plan caches store.
func ToPlan(sql string, ctx *Context) cache.Plan {
	oids := make([]oid.Oid, 0, len(ctx.ParamHints))
	for i := 1; i <= len(ctx.ParamHints); i++ {
		if o, ok := ctx.ParamHints[i]; ok {
			oids = append(oids, o)
		}
	}
	return cache.Plan{
		SQL:               sql,
		FastPathEligible:  ctx.FastPathEligible,
		Volatile:          ctx.Volatile,
		HasReturning:      ctx.HasReturning,
		TargetsCatalog:    ctx.TargetsCatalog,
		InferredParamOIDs: oids,
		TargetTable:       ctx.TargetTable,
		ParamColumns:      ctx.ParamColumns,
	}
}

var (
	insertIntoRe = regexp.MustCompile(`(?is)^\s*INSERT\s+INTO\s+"?([A-Za-z_][\w]*)"?`)
	updateIntoRe = regexp.MustCompile(`(?is)^\s*UPDATE\s+"?([A-Za-z_][\w]*)"?`)
)

// dmlTargetTable extracts the single table name an INSERT or UPDATE
// statement names, the minimal parse Run needs before the chain runs
// to decide whether column-aware rewriting applies at all. Any other
// statement shape (SELECT, DELETE, multi-table UPDATE ... FROM, DDL)
// reports ok=false and gets no column awareness.
func dmlTargetTable(sql string) (string, bool) {
	if m := insertIntoRe.FindStringSubmatch(sql); m != nil {
		return m[1], true
	}
	if m := updateIntoRe.FindStringSubmatch(sql); m != nil {
		return m[1], true
	}
	return "", false
}
