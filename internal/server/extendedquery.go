package server

import (
	"context"

	"github.com/pgsqlite-go/pgsqlite/internal/cache"
	"github.com/pgsqlite-go/pgsqlite/internal/pgerror"
	"github.com/pgsqlite-go/pgsqlite/internal/protocol"
)

// handleParse implements the Parse step of spec §4.F's extended-query
// state machine (Idle -> Parsed). Unlike the simple-query path, a
// failure here must still be answered and followed by ReadyForQuery
// only once Sync arrives (spec §4.F), so errors are reported without
// ending the session; the client is expected to send Sync next.
func (c *conn) handleParse(ctx context.Context, body []byte) bool {
	msg, err := protocol.ParseParse(body)
	if err != nil {
		return c.fatal(pgerror.Protocolf("malformed Parse message: %s", err))
	}
	stmt, err := c.srv.cfg.Executor.Parse(ctx, c.sess.DB, msg.Name, msg.Query, msg.ParamOIDs)
	if err != nil {
		c.handleStatementError(err)
		return false
	}
	c.sess.PutStatement(stmt)
	c.sess.W.WriteRaw(protocol.ParseComplete())
	return false
}

func (c *conn) handleBind(body []byte) bool {
	msg, err := protocol.ParseBind(body)
	if err != nil {
		return c.fatal(pgerror.Protocolf("malformed Bind message: %s", err))
	}
	stmt, ok := c.sess.Statement(msg.Statement)
	if !ok {
		c.handleStatementError(pgerror.New(pgerror.InvalidName, "prepared statement %q does not exist", msg.Statement))
		return false
	}
	portal, err := c.srv.cfg.Executor.Bind(stmt, msg.Portal, msg.Params, msg.ParamFormats, msg.ResultFormats)
	if err != nil {
		c.handleStatementError(err)
		return false
	}
	c.sess.PutPortal(portal)
	c.sess.W.WriteRaw(protocol.BindComplete())
	return false
}

// handleDescribe answers Describe(Statement) with ParameterDescription
// + RowDescription/NoData, and Describe(Portal) with just
// RowDescription/NoData, per spec §4.F.
func (c *conn) handleDescribe(body []byte) bool {
	msg, err := protocol.ParseDescribe(body)
	if err != nil {
		return c.fatal(pgerror.Protocolf("malformed Describe message: %s", err))
	}
	switch msg.Target {
	case protocol.TargetStatementS:
		stmt, ok := c.sess.Statement(msg.Name)
		if !ok {
			c.handleStatementError(pgerror.New(pgerror.InvalidName, "prepared statement %q does not exist", msg.Name))
			return false
		}
		c.sess.W.WriteRaw(protocol.ParameterDescription(stmt.ParamOIDs))
		c.describeFields(fieldsFromMeta(stmt.ResultFields))
	case protocol.TargetPortalP:
		portal, ok := c.sess.Portal(msg.Name)
		if !ok {
			c.handleStatementError(pgerror.New(pgerror.InvalidName, "portal %q does not exist", msg.Name))
			return false
		}
		c.describeFields(fieldsFromMeta(portal.Stmt.ResultFields))
	default:
		return c.fatal(pgerror.Protocolf("invalid Describe target %q", msg.Target))
	}
	return false
}

func (c *conn) describeFields(fields []protocol.FieldDescription) {
	if fields == nil {
		c.sess.W.WriteRaw(protocol.NoData())
		return
	}
	c.sess.W.WriteRaw(protocol.RowDescription(fields))
}

// handleExecute implements spec §4.F's partial-execution rule: Execute
// returns at most maxRows rows (0 meaning unlimited) and reports
// PortalSuspended instead of CommandComplete when more remain.
func (c *conn) handleExecute(ctx context.Context, body []byte) bool {
	msg, err := protocol.ParseExecute(body)
	if err != nil {
		return c.fatal(pgerror.Protocolf("malformed Execute message: %s", err))
	}
	portal, ok := c.sess.Portal(msg.Portal)
	if !ok {
		c.handleStatementError(pgerror.New(pgerror.InvalidName, "portal %q does not exist", msg.Portal))
		return false
	}

	stmtCtx, cancel := c.statementContext(ctx)
	defer cancel()

	res, suspended, err := c.srv.cfg.Executor.Execute(stmtCtx, c.sess.DB, portal, int64(msg.MaxRows))
	if err != nil {
		c.handleStatementError(err)
		return false
	}
	w := c.sess.W
	for _, row := range res.Rows {
		w.WriteRaw(protocol.DataRow(row))
	}
	if suspended {
		w.WriteRaw(protocol.PortalSuspended())
	} else {
		w.WriteRaw(protocol.CommandComplete(res.Tag))
		c.trackTransaction(res)
	}
	return false
}

// fieldsFromMeta rebuilds a RowDescription field set from a prepared
// statement's cached result metadata (cache.FieldMeta carries no
// TableOID/ColumnAttNo/Format since those aren't part of the
// statement-cache key; they default to zero, matching what real
// PostgreSQL reports for most driver-generated queries anyway).
func fieldsFromMeta(meta []cache.FieldMeta) []protocol.FieldDescription {
	if meta == nil {
		return nil
	}
	out := make([]protocol.FieldDescription, len(meta))
	for i, m := range meta {
		out[i] = protocol.FieldDescription{Name: m.Name, TypeOID: m.TypeOID, TypeLen: m.TypeLen, TypeMod: m.TypeMod}
	}
	return out
}

func (c *conn) handleClose(body []byte) bool {
	msg, err := protocol.ParseClose(body)
	if err != nil {
		return c.fatal(pgerror.Protocolf("malformed Close message: %s", err))
	}
	switch msg.Target {
	case protocol.TargetStatementS:
		c.sess.CloseStatement(msg.Name)
	case protocol.TargetPortalP:
		c.sess.ClosePortal(msg.Name)
	default:
		return c.fatal(pgerror.Protocolf("invalid Close target %q", msg.Target))
	}
	c.sess.W.WriteRaw(protocol.CloseComplete())
	return false
}

// handleSync ends an extended-query pipeline (spec §4.F): flush
// everything buffered since the last Sync and report ReadyForQuery,
// clearing a failed-transaction state back to idle only once the
// client issues a ROLLBACK (handled via trackTransaction elsewhere);
// Sync itself doesn't change transaction state.
func (c *conn) handleSync() bool {
	return c.readyForQuery()
}
