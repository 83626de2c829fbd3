package executor

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pgsqlite-go/pgsqlite/internal/cache"
	"github.com/pgsqlite-go/pgsqlite/internal/migrate"
	"github.com/pgsqlite-go/pgsqlite/internal/oid"
	"github.com/pgsqlite-go/pgsqlite/internal/pgerror"
	"github.com/pgsqlite-go/pgsqlite/internal/protocol"
	"github.com/pgsqlite-go/pgsqlite/internal/translate"
)

// Executor runs statements against one session's pinned SQLite
// connection, implementing spec §4.F's shared pipeline. It holds no
// per-session mutable state itself (portals/prepared statements live
// in internal/session); Executor is reused read-mostly, the way
// lib-pq's conn methods are just behavior hung off the connection's
// state rather than a separate object.
type Executor struct {
	DB     *sql.DB
	Caches *cache.Set
	Chain  []translate.Rewriter
}

func New(db *sql.DB, caches *cache.Set) *Executor {
	return &Executor{DB: db, Caches: caches, Chain: translate.DefaultChain()}
}

// Result is one statement's fully-prepared response: the fields the
// driver should emit as a RowDescription (nil for statements with no
// result columns), the encoded row bytes, and the CommandComplete tag.
// A suspended portal's Result carries no Tag (bind.go's Execute
// reports suspension via its own bool return instead).
type Result struct {
	Kind   Kind
	Fields []protocol.FieldDescription
	Rows   [][][]byte
	Tag    string
}

// Plan translates sql through the rewriter chain, consulting and
// populating the query-plan cache (spec §4.G row 2), and reports
// whether the statement targets a catalog relation (those never use
// the ultra-fast path: they're backed by views over sidecar tables,
// not the user's own tables, so column-type fast-path analysis doesn't
// apply to them).
func (e *Executor) Plan(sql string) (cache.Plan, error) {
	key := cache.PlanKey(normalizeForCache(sql))
	if p, ok := e.Caches.Plans.Get(key); ok {
		return p, nil
	}
	out, ctx, err := translate.Run(sql, e.Chain, e.columnTypes)
	if err != nil {
		return cache.Plan{}, err
	}
	if err := e.validateLiteralConstraints(ctx.TargetTable, ctx.LiteralColumns); err != nil {
		return cache.Plan{}, err
	}
	plan := translate.ToPlan(out, ctx)
	e.Caches.Plans.Put(key, plan)
	return plan, nil
}

// columnTypes implements translate.ColumnTyper against the sidecar
// schema cache, the same source buildFields uses for RowDescription
// types, so the DML literal/parameter rewriters in internal/translate
// see exactly the types the result set will report.
func (e *Executor) columnTypes(table string) []translate.ColumnType {
	cols := e.columnsFor(table)
	if len(cols) == 0 {
		return nil
	}
	out := make([]translate.ColumnType, len(cols))
	for i, c := range cols {
		out[i] = translate.ColumnType{Name: c.ColumnName, OID: oid.Oid(c.PgTypeOID)}
	}
	return out
}

func normalizeForCache(sql string) string {
	return strings.Join(strings.Fields(sql), " ")
}

// ExecuteSimple implements the simple-query entry point of spec §4.F:
// a single wire message that may contain several `;`-separated
// statements, always text format, executed one after another, each
// producing its own RowDescription/DataRow*/CommandComplete.
func (e *Executor) ExecuteSimple(ctx context.Context, conn *sql.Conn, rawSQL string) ([]Result, error) {
	stmts := splitStatements(rawSQL)
	if len(stmts) == 0 {
		return nil, pgerror.New(pgerror.EmptyQuery, "empty query")
	}
	results := make([]Result, 0, len(stmts))
	for _, stmt := range stmts {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		res, err := e.executeOne(ctx, conn, stmt, nil, nil)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

// executeOne runs a single already-split statement. params/paramOIDs
// are nil for the simple-query path (no bind parameters there); the
// extended-query path in bind.go supplies them.
func (e *Executor) executeOne(ctx context.Context, conn *sql.Conn, stmtSQL string, params []any, paramOIDs []oid.Oid) (Result, error) {
	kind := Classify(stmtSQL)

	plan, err := e.Plan(stmtSQL)
	if err != nil {
		return Result{}, err
	}

	if plan.TargetsCatalog {
		return e.runCatalogQuery(ctx, conn, plan.SQL, params)
	}

	switch kind {
	case KindSelect:
		return e.runQuery(ctx, conn, plan, stmtSQL, params)
	case KindDDL:
		if _, err := e.runExec(ctx, conn, plan.SQL, params); err != nil {
			return Result{}, err
		}
		if err := migrate.IngestDDL(e.DB, stmtSQL); err != nil {
			return Result{}, pgerror.Internal(err)
		}
		if table, ok := DDLTable(stmtSQL); ok {
			e.Caches.InvalidateDDL(table)
		} else {
			e.Caches.InvalidateDDL("")
		}
		return Result{Kind: kind, Tag: CommandTag(kind, stmtSQL, 0)}, nil
	case KindTransaction, KindUtility:
		if _, err := conn.ExecContext(ctx, plan.SQL); err != nil {
			return Result{}, pgerror.FromSQLite(err)
		}
		return Result{Kind: kind, Tag: CommandTag(kind, stmtSQL, 0)}, nil
	case KindCopy:
		// COPY needs the raw CopyData stream the simple-query loop is
		// still reading; the caller (internal/server) must recognize
		// KindCopy before invoking ExecuteSimple and drive CopyIn/
		// CopyOutResponse itself. Reaching here means that didn't
		// happen.
		return Result{}, pgerror.Internal(fmt.Errorf("COPY must be intercepted by the session loop before reaching the executor"))
	default: // INSERT / UPDATE / DELETE
		if plan.HasReturning {
			return e.runQuery(ctx, conn, plan, stmtSQL, params)
		}
		return e.runExec(ctx, conn, plan.SQL, params)
	}
}

func (e *Executor) runExec(ctx context.Context, conn *sql.Conn, sqlText string, params []any) (Result, error) {
	res, err := conn.ExecContext(ctx, sqlText, params...)
	if err != nil {
		return Result{}, pgerror.FromSQLite(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		n = 0
	}
	kind := Classify(sqlText)
	return Result{Kind: kind, Tag: CommandTag(kind, sqlText, n)}, nil
}

// runQuery handles SELECT and RETURNING statements: it executes once
// (SQLite's native RETURNING clause, per spec §4.F step 4) and builds
// a RowDescription from either the sidecar schema for the query's
// source table or, failing that, driver-reported column names with an
// unknown/text fallback type.
func (e *Executor) runQuery(ctx context.Context, conn *sql.Conn, plan cache.Plan, originalSQL string, params []any) (Result, error) {
	rows, err := conn.QueryContext(ctx, plan.SQL, params...)
	if err != nil {
		return Result{}, pgerror.FromSQLite(err)
	}
	defer rows.Close()

	table, _ := Table(originalSQL)
	columns := e.columnsFor(table)

	fields, err := buildFields(rows, columns)
	if err != nil {
		return Result{}, err
	}

	allRows, n, err := scanAllText(rows, fields)
	if err != nil {
		return Result{}, err
	}

	kind := Classify(originalSQL)
	tagKind := kind
	if plan.HasReturning {
		tagKind = Classify(originalSQL)
	}
	return Result{Kind: kind, Fields: fields, Rows: allRows, Tag: CommandTag(tagKind, originalSQL, n)}, nil
}

// runCatalogQuery executes a pg_catalog/information_schema query
// directly: it is already a real SQLite view (internal/catalog.Bootstrap
// materializes one per emulated relation), so no further translation or
// fast-path analysis applies, only plain execution and encoding.
func (e *Executor) runCatalogQuery(ctx context.Context, conn *sql.Conn, sqlText string, params []any) (Result, error) {
	rows, err := conn.QueryContext(ctx, sqlText, params...)
	if err != nil {
		return Result{}, pgerror.FromSQLite(err)
	}
	defer rows.Close()

	fields, err := buildFields(rows, nil)
	if err != nil {
		return Result{}, err
	}
	allRows, n, err := scanAllText(rows, fields)
	if err != nil {
		return Result{}, err
	}
	return Result{Kind: KindSelect, Fields: fields, Rows: allRows, Tag: CommandTag(KindSelect, sqlText, n)}, nil
}

func (e *Executor) columnsFor(table string) []migrate.ColumnMeta {
	if table == "" {
		return nil
	}
	if ts, ok := e.Caches.Schemas.Get(table); ok {
		return ts.Columns
	}
	cols, err := migrate.LoadColumns(e.DB, table)
	if err != nil || len(cols) == 0 {
		return nil
	}
	e.Caches.Schemas.Put(table, cache.TableSchema{Columns: cols})
	return cols
}

// buildFields derives a RowDescription field set by joining the
// driver's reported column names against the sidecar schema's
// authoritative types when available, falling back to `unknown`/text
// for computed columns, catalog views, or tables with no sidecar entry
// (spec §4.F step 5, §4.B "unrecognized declared types fall back to
// text-as-is").
func buildFields(rows *sql.Rows, columns []migrate.ColumnMeta) ([]protocol.FieldDescription, error) {
	names, err := rows.Columns()
	if err != nil {
		return nil, pgerror.FromSQLite(err)
	}
	byName := make(map[string]migrate.ColumnMeta, len(columns))
	for _, c := range columns {
		byName[c.ColumnName] = c
	}
	fields := make([]protocol.FieldDescription, len(names))
	for i, name := range names {
		if c, ok := byName[name]; ok {
			fields[i] = protocol.FieldDescription{
				Name:        name,
				ColumnAttNo: int16(c.Position),
				TypeOID:     oid.Oid(c.PgTypeOID),
				TypeLen:     -1,
				TypeMod:     c.TypeMod,
			}
			continue
		}
		fields[i] = protocol.FieldDescription{Name: name, TypeOID: oid.T_text, TypeLen: -1, TypeMod: -1}
	}
	return fields, nil
}

// scanAllText reads every remaining row of rows, text-encoding each
// column per its field OID (binary encoding for a given portal's
// requested format codes happens one layer up, in bind.go, which calls
// EncodeBinary instead when the client asked for it).
func scanAllText(rows *sql.Rows, fields []protocol.FieldDescription) ([][][]byte, int64, error) {
	return scanRows(rows, fields, nil)
}

// scanRows is the shared row-materialization loop used by both the
// simple-query (always text) and extended-query (per-column format
// code) paths; formatFor returns the format code for column i, or nil
// to mean "always text".
func scanRows(rows *sql.Rows, fields []protocol.FieldDescription, formatFor func(i int) int16) ([][][]byte, int64, error) {
	dest := make([]any, len(fields))
	ptrs := make([]any, len(fields))
	for i := range dest {
		ptrs[i] = &dest[i]
	}

	var out [][][]byte
	var n int64
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, 0, pgerror.FromSQLite(err)
		}
		row := make([][]byte, len(fields))
		for i, v := range dest {
			format := int16(0)
			if formatFor != nil {
				format = formatFor(i)
			}
			var enc []byte
			var err error
			if format == 1 {
				enc, err = encodeBinaryField(v, fields[i].TypeOID)
			} else {
				enc, err = encodeTextField(v, fields[i].TypeOID)
			}
			if err != nil {
				return nil, 0, pgerror.Internal(err)
			}
			row[i] = enc
		}
		out = append(out, row)
		n++
	}
	if err := rows.Err(); err != nil {
		return nil, 0, pgerror.FromSQLite(err)
	}
	return out, n, nil
}
