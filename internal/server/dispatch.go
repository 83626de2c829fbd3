package server

import (
	"context"

	"github.com/pgsqlite-go/pgsqlite/internal/pgerror"
	"github.com/pgsqlite-go/pgsqlite/internal/protocol"
)

// handleMessage processes one frontend message and reports whether the
// session should end (Terminate, or a fatal protocol error per spec
// §7 "Protocol errors terminate the session after a best-effort
// ErrorResponse").
func (c *conn) handleMessage(ctx context.Context, tag protocol.FrontendTag, body []byte) bool {
	switch tag {
	case protocol.MsgQueryQ:
		return c.handleSimpleQuery(ctx, body)
	case protocol.MsgParseP:
		return c.handleParse(ctx, body)
	case protocol.MsgBindB:
		return c.handleBind(body)
	case protocol.MsgDescribeD:
		return c.handleDescribe(body)
	case protocol.MsgExecuteE:
		return c.handleExecute(ctx, body)
	case protocol.MsgCloseC:
		return c.handleClose(body)
	case protocol.MsgSyncS:
		return c.handleSync()
	case protocol.MsgFlushH:
		return c.flushOnly()
	case protocol.MsgPasswordp:
		// Only expected mid-handshake; Authenticate already consumed
		// it there, so seeing one here is a client violating the
		// protocol's message ordering.
		return c.fatal(pgerror.Protocolf("unexpected PasswordMessage outside authentication"))
	case protocol.MsgTerminateX:
		return true
	default:
		return c.fatal(pgerror.Protocolf("unsupported frontend message type %q", byte(tag)))
	}
}

// fatal sends e through sendFatal, with the severity e already carries,
// and reports the session should end.
func (c *conn) fatal(e *pgerror.Error) bool {
	c.sendFatal(e)
	return true
}

func (c *conn) flushOnly() bool {
	c.sess.W.Flush()
	return false
}
