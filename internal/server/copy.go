package server

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/pgsqlite-go/pgsqlite/internal/executor"
	"github.com/pgsqlite-go/pgsqlite/internal/pgerror"
	"github.com/pgsqlite-go/pgsqlite/internal/protocol"
)

// runCopyIn drives the minimal COPY FROM STDIN support spec §6 and
// executor.CopyIn call for: announce CopyInResponse, stream CopyData
// messages into executor.CopyIn via copyDataReader, and report either
// CommandComplete or an ErrorResponse.
func (c *conn) runCopyIn(ctx context.Context, target executor.CopyTarget) bool {
	if err := c.sess.W.WriteRaw(protocol.CopyInResponse(0, nil)); err != nil {
		return true
	}
	if err := c.sess.W.Flush(); err != nil {
		return true
	}

	r := &copyDataReader{c: c}
	n, err := c.srv.cfg.Executor.CopyIn(ctx, c.sess.DB, target, r)
	if r.failed != nil {
		c.handleStatementError(r.failed)
		return c.readyForQuery()
	}
	if err != nil {
		c.handleStatementError(err)
		return c.readyForQuery()
	}
	c.sess.W.WriteRaw(protocol.CommandComplete(fmt.Sprintf("COPY %d", n)))
	return c.readyForQuery()
}

// copyDataReader adapts the wire's CopyData/CopyDone/CopyFail messages
// into an io.Reader, the shape executor.CopyIn's bufio.Scanner expects.
// It returns io.EOF on CopyDone and surfaces a CopyFail as an error
// the caller reports via handleStatementError.
type copyDataReader struct {
	c      *conn
	buf    bytes.Buffer
	done   bool
	failed error
}

func (r *copyDataReader) Read(p []byte) (int, error) {
	for r.buf.Len() == 0 {
		if r.done {
			return 0, io.EOF
		}
		tag, body, err := r.c.sess.R.ReadMessage()
		if err != nil {
			r.done = true
			return 0, io.EOF
		}
		switch tag {
		case protocol.MsgCopyDatad:
			r.buf.Write(body)
		case protocol.MsgCopyDonec:
			r.done = true
			return 0, io.EOF
		case protocol.MsgCopyFailf:
			r.failed = pgerror.New(pgerror.FeatureNotSupported, "COPY failed: %s", string(body))
			r.done = true
			return 0, io.EOF
		default:
			// A Sync/Flush arriving mid-COPY is out of sequence but
			// harmless to ignore here; anything else is unexpected
			// but not worth tearing down the whole session over.
		}
	}
	return r.buf.Read(p)
}
