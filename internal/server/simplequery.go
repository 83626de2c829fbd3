package server

import (
	"context"
	"strings"

	"github.com/pgsqlite-go/pgsqlite/internal/executor"
	"github.com/pgsqlite-go/pgsqlite/internal/pgerror"
	"github.com/pgsqlite-go/pgsqlite/internal/protocol"
	"github.com/pgsqlite-go/pgsqlite/internal/session"
)

// handleSimpleQuery implements the simple-query entry point of spec
// §4.F: split on bare semicolons, run each statement, send its own
// RowDescription/DataRow*/CommandComplete, and abort the remainder of
// the batch on the first error (spec §7: "the client sees one
// ErrorResponse followed by ReadyForQuery").
func (c *conn) handleSimpleQuery(ctx context.Context, body []byte) bool {
	msg, err := protocol.ParseQuery(body)
	if err != nil {
		return c.fatal(pgerror.Protocolf("malformed Query message: %s", err))
	}
	sess := c.sess
	sql := msg.SQL

	if strings.TrimSpace(sql) == "" {
		sess.W.WriteRaw(protocol.EmptyQueryResponse())
		return c.readyForQuery()
	}

	if target, ok := executor.ParseCopyIn(sql); ok {
		return c.runCopyIn(ctx, target)
	}
	if executor.IsCopyToStdout(sql) {
		c.sendRecoverable(pgerror.New(pgerror.FeatureNotSupported, "COPY TO STDOUT is not supported"))
		return c.readyForQuery()
	}

	stmtCtx, cancel := c.statementContext(ctx)
	defer cancel()

	results, err := c.srv.cfg.Executor.ExecuteSimple(stmtCtx, sess.DB, sql)
	for _, res := range results {
		if err := c.emitResult(res); err != nil {
			c.sendRecoverable(pgerror.Internal(err))
			return c.readyForQuery()
		}
		c.trackTransaction(res)
	}
	if err != nil {
		c.handleStatementError(err)
	}
	return c.readyForQuery()
}

// emitResult writes one statement's RowDescription (if it produces
// columns) followed by its DataRows and CommandComplete.
func (c *conn) emitResult(res executor.Result) error {
	w := c.sess.W
	if res.Fields != nil {
		if err := w.WriteRaw(protocol.RowDescription(res.Fields)); err != nil {
			return err
		}
		for _, row := range res.Rows {
			if err := w.WriteRaw(protocol.DataRow(row)); err != nil {
				return err
			}
		}
	}
	return w.WriteRaw(protocol.CommandComplete(res.Tag))
}

// handleStatementError reports err as an ErrorResponse, failing the
// session's transaction if one is open (spec §4.F, §7).
func (c *conn) handleStatementError(err error) {
	pe, ok := pgerror.As(err)
	if !ok {
		pe = pgerror.Internal(err)
	}
	c.sess.W.WriteRaw(protocol.ErrorResponse(pe))
	if c.sess.TxStatus == session.TxActive {
		c.sess.Fail()
	}
}

// sendRecoverable reports a single-statement error without touching
// transaction state, used for batch-entry checks performed before any
// SQL actually runs (empty COPY TO STDOUT rejection, etc.).
func (c *conn) sendRecoverable(e *pgerror.Error) {
	c.sess.W.WriteRaw(protocol.ErrorResponse(e))
}

func (c *conn) readyForQuery() bool {
	c.sess.W.WriteRaw(protocol.ReadyForQuery(c.sess.TxStatus.Byte()))
	c.sess.W.Flush()
	return false
}
