package executor

import (
	"context"
	"database/sql"

	"github.com/pgsqlite-go/pgsqlite/internal/cache"
	"github.com/pgsqlite-go/pgsqlite/internal/oid"
	"github.com/pgsqlite-go/pgsqlite/internal/pgerror"
	"github.com/pgsqlite-go/pgsqlite/internal/protocol"
	"github.com/pgsqlite-go/pgsqlite/internal/session"
	"github.com/pgsqlite-go/pgsqlite/internal/translate"
)

// Parse implements the extended-query protocol's Parse step (spec
// §4.F state machine: Idle -> Parsed). It consults the prepared-
// statement cache first (spec §4.G row 1, keyed on normalized SQL plus
// the client-declared parameter OIDs), translating only on a miss.
func (e *Executor) Parse(ctx context.Context, conn *sql.Conn, name, rawSQL string, declaredParamOIDs []oid.Oid) (*session.PreparedStatement, error) {
	key := cache.StmtKey{SQL: normalizeForCache(rawSQL), ParamOIDs: joinOIDs(declaredParamOIDs)}
	if entry, ok := e.Caches.Stmts.Get(key); ok {
		return &session.PreparedStatement{
			Name:         name,
			RawSQL:       rawSQL,
			Plan:         entry.Plan,
			ParamOIDs:    entry.ParamOIDs,
			ResultFields: entry.ResultFields,
		}, nil
	}

	out, tctx, err := translate.Run(rawSQL, e.Chain, e.columnTypes)
	if err != nil {
		return nil, err
	}
	plan := translate.ToPlan(out, tctx)
	paramOIDs := mergeParamOIDs(declaredParamOIDs, tctx.ParamHints)

	fields, err := e.fieldsForPlan(ctx, conn, plan, Classify(rawSQL))
	if err != nil {
		return nil, err
	}

	fieldMeta := toFieldMeta(fields)
	e.Caches.Stmts.Put(key, cache.StmtEntry{Plan: plan, ParamOIDs: paramOIDs, ResultFields: fieldMeta})

	return &session.PreparedStatement{
		Name:         name,
		RawSQL:       rawSQL,
		Plan:         plan,
		ParamOIDs:    paramOIDs,
		ResultFields: fieldMeta,
	}, nil
}

// fieldsForPlan derives the RowDescription field set a Describe
// (Statement) must answer with, before any real parameter values
// exist. For SELECTs, SQLite tolerates unbound `?` placeholders as
// implicit NULLs, so running the query once is enough to read back
// column metadata with no side effects; for DML (including
// RETURNING), running with all-NULL parameters could touch real rows,
// so field derivation there is deferred to Describe(Portal)/Execute,
// after Bind supplies actual values.
func (e *Executor) fieldsForPlan(ctx context.Context, conn *sql.Conn, plan cache.Plan, kind Kind) ([]protocol.FieldDescription, error) {
	if kind != KindSelect {
		return nil, nil
	}
	rows, err := conn.QueryContext(ctx, plan.SQL)
	if err != nil {
		return nil, pgerror.FromSQLite(err)
	}
	defer rows.Close()

	table, _ := tableFromSQL(plan.SQL)
	return buildFields(rows, e.columnsFor(table))
}

func tableFromSQL(sql string) (string, bool) {
	return Table(sql)
}

// Bind implements the Bind step (Parsed -> Bound): it builds the Portal
// the subsequent Execute(s) drive, keeping the raw wire-format
// parameter bytes; Execute decodes them per the statement's ParamOIDs
// (decodeParams).
func (e *Executor) Bind(stmt *session.PreparedStatement, portalName string, rawParams [][]byte, paramFormats, resultFormats []int16) (*session.Portal, error) {
	return &session.Portal{
		Name:          portalName,
		Stmt:          stmt,
		Params:        rawParams,
		ParamFormats:  paramFormats,
		ResultFormats: resultFormats,
	}, nil
}

// decodeParams turns a portal's raw wire parameters into the []any
// database/sql.ExecContext/QueryContext expects, per-parameter format
// code honoured exactly as Bind's rules require: zero format codes
// means text for all, one means that one code for all, otherwise
// per-parameter.
func decodeParams(portal *session.Portal) ([]any, error) {
	out := make([]any, len(portal.Params))
	for i, raw := range portal.Params {
		o := oid.T_unknown
		if i < len(portal.Stmt.ParamOIDs) {
			o = portal.Stmt.ParamOIDs[i]
		}
		format := paramFormatFor(portal.ParamFormats, i)
		var (
			v   any
			err error
		)
		if format == 1 {
			v, err = decodeBinaryParam(raw, o)
		} else {
			v, err = decodeTextParam(raw, o)
		}
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func paramFormatFor(formats []int16, i int) int16 {
	switch len(formats) {
	case 0:
		return 0
	case 1:
		return formats[0]
	default:
		if i < len(formats) {
			return formats[i]
		}
		return 0
	}
}

// Execute implements the Execute step, including spec §4.F's partial-
// execution rule: maxRows > 0 delivers at most that many rows and
// leaves the cursor parked on the portal for a follow-up Execute,
// discarded on portal Close or transaction end (session.Session
// handles the latter via EndTransaction).
func (e *Executor) Execute(ctx context.Context, conn *sql.Conn, portal *session.Portal, maxRows int64) (Result, bool, error) {
	if rows, ok := portal.Suspended.(*sql.Rows); ok {
		return e.resumePortal(portal, rows, maxRows)
	}

	kind := Classify(portal.Stmt.RawSQL)
	params, err := decodeParams(portal)
	if err != nil {
		return Result{}, false, err
	}
	if err := e.validateParamConstraints(portal.Stmt.Plan.TargetTable, portal.Stmt.Plan.ParamColumns, params); err != nil {
		return Result{}, false, err
	}

	if portal.Stmt.Plan.TargetsCatalog {
		res, err := e.runCatalogQuery(ctx, conn, portal.Stmt.Plan.SQL, params)
		return res, false, err
	}

	switch {
	case kind == KindSelect || portal.Stmt.Plan.HasReturning:
		return e.executeQueryPortal(ctx, conn, portal, params, maxRows)
	default:
		res, err := e.runExec(ctx, conn, portal.Stmt.Plan.SQL, params)
		return res, false, err
	}
}

func (e *Executor) executeQueryPortal(ctx context.Context, conn *sql.Conn, portal *session.Portal, params []any, maxRows int64) (Result, bool, error) {
	rows, err := conn.QueryContext(ctx, portal.Stmt.Plan.SQL, params...)
	if err != nil {
		return Result{}, false, pgerror.FromSQLite(err)
	}

	table, _ := tableFromSQL(portal.Stmt.Plan.SQL)
	fields, err := buildFields(rows, e.columnsFor(table))
	if err != nil {
		rows.Close()
		return Result{}, false, err
	}

	return e.drainPortal(portal, rows, fields, maxRows)
}

func (e *Executor) resumePortal(portal *session.Portal, rows *sql.Rows, maxRows int64) (Result, bool, error) {
	fields := fromFieldMeta(portal.Stmt.ResultFields)
	return e.drainPortal(portal, rows, fields, maxRows)
}

// drainPortal reads up to maxRows rows (0 means "all") and, if it
// stops at maxRows before the cursor is exhausted, stashes the
// *sql.Rows cursor on the portal instead of closing it (spec §4.F: "a subsequent Execute on the same portal
// resumes from the cached result set").
func (e *Executor) drainPortal(portal *session.Portal, rows *sql.Rows, fields []protocol.FieldDescription, maxRows int64) (Result, bool, error) {
	formatFor := func(i int) int16 { return portal.ResultFormatFor(i) }

	dest := make([]any, len(fields))
	ptrs := make([]any, len(fields))
	for i := range dest {
		ptrs[i] = &dest[i]
	}

	var out [][][]byte
	var read int64
	for maxRows == 0 || read < maxRows {
		if !rows.Next() {
			if err := rows.Err(); err != nil {
				rows.Close()
				return Result{}, false, pgerror.FromSQLite(err)
			}
			rows.Close()
			portal.Suspended = nil
			portal.RowsReturned += read
			tag := CommandTag(Classify(portal.Stmt.RawSQL), portal.Stmt.RawSQL, portal.RowsReturned)
			return Result{Kind: KindSelect, Fields: fields, Rows: out, Tag: tag}, false, nil
		}
		if err := rows.Scan(ptrs...); err != nil {
			rows.Close()
			return Result{}, false, pgerror.FromSQLite(err)
		}
		row := make([][]byte, len(fields))
		for i, v := range dest {
			enc, err := encodeField(v, fields[i].TypeOID, formatFor(i))
			if err != nil {
				rows.Close()
				return Result{}, false, pgerror.Internal(err)
			}
			row[i] = enc
		}
		out = append(out, row)
		read++
	}

	// maxRows reached: suspend without advancing the cursor, so the
	// next Execute's first rows.Next() lands on the first unread row.
	portal.Suspended = rows
	portal.RowsReturned += read
	return Result{Kind: KindSelect, Fields: fields, Rows: out}, true, nil
}

func encodeField(v any, o oid.Oid, format int16) ([]byte, error) {
	if format == 1 {
		return encodeBinaryField(v, o)
	}
	return encodeTextField(v, o)
}

func joinOIDs(oids []oid.Oid) string {
	b := make([]byte, 0, len(oids)*6)
	for i, o := range oids {
		if i > 0 {
			b = append(b, ',')
		}
		b = appendUint(b, uint32(o))
	}
	return string(b)
}

func appendUint(b []byte, v uint32) []byte {
	if v == 0 {
		return append(b, '0')
	}
	var tmp [10]byte
	i := len(tmp)
	for v > 0 {
		i--
		tmp[i] = byte('0' + v%10)
		v /= 10
	}
	return append(b, tmp[i:]...)
}

// mergeParamOIDs combines the client-declared parameter OIDs from
// Parse (0 meaning "let the server infer") with the cast-inferred
// hints the translator chain records from `$n::type` casts
// (translate.Context.ParamHints, 1-based), per spec §4.D/§4.F.
func mergeParamOIDs(declared []oid.Oid, hints map[int]oid.Oid) []oid.Oid {
	n := len(declared)
	for i := range hints {
		if i > n {
			n = i
		}
	}
	out := make([]oid.Oid, n)
	copy(out, declared)
	for i := 1; i <= n; i++ {
		if out[i-1] != 0 {
			continue
		}
		if o, ok := hints[i]; ok {
			out[i-1] = o
		} else {
			out[i-1] = oid.T_unknown
		}
	}
	return out
}

func toFieldMeta(fields []protocol.FieldDescription) []cache.FieldMeta {
	if fields == nil {
		return nil
	}
	out := make([]cache.FieldMeta, len(fields))
	for i, f := range fields {
		out[i] = cache.FieldMeta{Name: f.Name, TypeOID: f.TypeOID, TypeLen: f.TypeLen, TypeMod: f.TypeMod}
	}
	return out
}

func fromFieldMeta(meta []cache.FieldMeta) []protocol.FieldDescription {
	if meta == nil {
		return nil
	}
	out := make([]protocol.FieldDescription, len(meta))
	for i, m := range meta {
		out[i] = protocol.FieldDescription{Name: m.Name, TypeOID: m.TypeOID, TypeLen: m.TypeLen, TypeMod: m.TypeMod}
	}
	return out
}
