package server

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"math/rand"
	"net"
	"sync"

	"github.com/pgsqlite-go/pgsqlite/internal/executor"
	"github.com/pgsqlite-go/pgsqlite/internal/pgerror"
	"github.com/pgsqlite-go/pgsqlite/internal/protocol"
	"github.com/pgsqlite-go/pgsqlite/internal/session"
	"github.com/sirupsen/logrus"
)

// conn is the server-side, per-connection driver: it owns the wire
// reader/writer and the session.Session they feed, and runs the
// startup handshake followed by the simple/extended query loop until
// Terminate or the socket closes (spec §3.3 "Session" lifecycle).
type conn struct {
	srv  *Server
	pid  int32
	sess *session.Session
	log  *logrus.Entry

	mu         sync.Mutex
	cancelStmt context.CancelFunc
}

func (s *Server) serve(ctx context.Context, netConn net.Conn) {
	c := &conn{srv: s, pid: int32(rand.Uint32() & 0x7fffffff)}
	defer netConn.Close()

	negotiated, err := c.negotiateSSL(netConn)
	if err != nil {
		s.log.WithError(err).Debug("SSL negotiation failed")
		return
	}

	r := protocol.NewReader(negotiated)
	w := protocol.NewWriter(negotiated)

	params, err := c.readStartupMessage(r)
	if err != nil {
		if err != errClientCancelled {
			s.log.WithError(err).Debug("startup failed")
		}
		return
	}

	id := s.nextSessionID()
	sess := session.New(id, negotiated, r, w, nil)
	log := s.log.WithFields(logrus.Fields{
		"session":  id,
		"session_uuid": sess.UUID.String(),
		"user":     params["user"],
		"database": params["database"],
	})
	sess.Log = log
	sess.User = params["user"]
	sess.Database = params["database"]
	if sess.User == "" {
		sess.User = s.cfg.SessionUser
	}
	if sess.Database == "" {
		sess.Database = s.cfg.DatabaseName
	}
	c.sess = sess
	c.log = log

	if err := sess.Authenticate(s.cfg.AuthMode); err != nil {
		log.WithError(err).Debug("authentication failed")
		return
	}

	if err := c.sendBackendParams(); err != nil {
		log.WithError(err).Debug("failed sending post-auth parameters")
		return
	}

	dbConn, err := s.cfg.Executor.DB.Conn(ctx)
	if err != nil {
		log.WithError(err).Error("failed acquiring a SQLite connection for session")
		c.sendFatal(pgerror.Internal(err))
		return
	}
	sess.DB = dbConn

	s.register(c)
	defer s.unregister(c)
	defer sess.Close()

	log.Info("session established")
	c.loop(ctx)
	log.Info("session closed")
}

var errClientCancelled = errors.New("server: connection was a CancelRequest, not a session")

// negotiateSSL answers any SSLRequest/GSSENCRequest that precedes the
// real StartupMessage, looping since a client may probe for both
// before giving up and sending StartupMessage in the clear (spec
// §4.A edge cases, §6 "SSL is negotiated via the initial SSLRequest").
func (c *conn) negotiateSSL(netConn net.Conn) (net.Conn, error) {
	cur := netConn
	for {
		peeked, code, err := peekRequestCode(cur)
		if err != nil {
			return nil, err
		}
		switch code {
		case protocol.SSLRequestCode:
			upgraded, err := protocol.NegotiateSSL(peeked, c.srv.cfg.TLSConfig)
			if err != nil {
				return nil, err
			}
			cur = upgraded
			continue
		case protocol.GSSRequestCode:
			if err := protocol.RejectGSS(peeked); err != nil {
				return nil, err
			}
			cur = peeked
			continue
		default:
			return peeked, nil
		}
	}
}

// peekRequestCode reads the four-byte length and four-byte request
// code that open every connection without consuming them from cur,
// so the caller can hand the untouched bytes on to ReadStartupBody
// once it knows it's looking at a real StartupMessage.
func peekRequestCode(cur net.Conn) (net.Conn, int32, error) {
	var hdr [8]byte
	if _, err := io.ReadFull(cur, hdr[:4]); err != nil {
		return nil, 0, err
	}
	n := int32(binary.BigEndian.Uint32(hdr[:4]))
	if n < 8 {
		return nil, 0, pgerror.Protocolf("invalid startup length %d", n)
	}
	if _, err := io.ReadFull(cur, hdr[4:8]); err != nil {
		return nil, 0, err
	}
	code := int32(binary.BigEndian.Uint32(hdr[4:8]))
	switch code {
	case protocol.SSLRequestCode, protocol.GSSRequestCode:
		return cur, code, nil
	default:
		// Not a special request: this is a real StartupMessage and we
		// already consumed its length+protocol-version header, so
		// rewind by replaying those 8 bytes in front of the stream.
		return &prefixedConn{prefix: hdr[:], Conn: cur}, 0, nil
	}
}

// prefixedConn replays a handful of already-read bytes in front of an
// underlying net.Conn, used to put back a StartupMessage's header
// after peekRequestCode had to read it to tell it apart from an
// SSLRequest/GSSENCRequest.
type prefixedConn struct {
	net.Conn
	prefix []byte
}

func (p *prefixedConn) Read(b []byte) (int, error) {
	if len(p.prefix) > 0 {
		n := copy(b, p.prefix)
		p.prefix = p.prefix[n:]
		return n, nil
	}
	return p.Conn.Read(b)
}

// readStartupMessage reads the real StartupMessage (after any SSL/GSS
// negotiation) or a CancelRequest, per spec §4.A. A CancelRequest is
// fully handled here and reported back as errClientCancelled so the
// caller closes the (otherwise unauthenticated, one-shot) connection.
func (c *conn) readStartupMessage(r *protocol.Reader) (map[string]string, error) {
	body, err := r.ReadStartupBody()
	if err != nil {
		return nil, err
	}
	if len(body) < 4 {
		return nil, pgerror.Protocolf("startup message too short")
	}
	code := int32(binary.BigEndian.Uint32(body[:4]))
	switch code {
	case protocol.CancelRequestCode:
		if len(body) < 12 {
			return nil, pgerror.Protocolf("malformed CancelRequest")
		}
		pid := int32(binary.BigEndian.Uint32(body[4:8]))
		secret := int32(binary.BigEndian.Uint32(body[8:12]))
		c.srv.cancelSession(pid, secret)
		return nil, errClientCancelled
	case protocol.StartupProtocolVersion:
		return session.StartupParams(body[4:])
	default:
		return nil, pgerror.Protocolf("unsupported protocol version %#x", code)
	}
}

func (c *conn) sendBackendParams() error {
	w := c.sess.W
	c.sess.Secret = randomSecret()
	params := [][2]string{
		{"server_version", "15.0.0 (pgsqlite)"},
		{"server_encoding", "UTF8"},
		{"client_encoding", "UTF8"},
		{"DateStyle", "ISO, MDY"},
		{"TimeZone", "UTC"},
		{"integer_datetimes", "on"},
		{"standard_conforming_strings", "on"},
	}
	for _, kv := range params {
		if err := w.WriteRaw(protocol.ParameterStatus(kv[0], kv[1])); err != nil {
			return err
		}
	}
	if err := w.WriteRaw(protocol.BackendKeyData(c.pid, c.sess.Secret)); err != nil {
		return err
	}
	if err := w.WriteRaw(protocol.ReadyForQuery(c.sess.TxStatus.Byte())); err != nil {
		return err
	}
	return w.Flush()
}

// loop drives the post-handshake message stream: one frontend message
// at a time, strictly in order (spec §5 "Ordering guarantees"), until
// Terminate, a fatal protocol error, or the socket closing.
func (c *conn) loop(ctx context.Context) {
	for {
		tag, body, err := c.sess.R.ReadMessage()
		if err != nil {
			return
		}
		if c.handleMessage(ctx, tag, body) {
			return
		}
	}
}

// cancelStatement interrupts whatever statement this session is
// currently running, if any (spec §5 "Cancellation & timeouts").
// database/sql has no direct sqlite3_interrupt hook exposed through
// modernc.org/sqlite's driver.Conn interface, so cancellation here
// relies on the context passed into ExecContext/QueryContext instead;
// the in-flight call returns as soon as the driver notices ctx is
// done.
func (c *conn) cancelStatement() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancelStmt != nil {
		c.cancelStmt()
	}
}

func (c *conn) statementContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	if c.srv.cfg.StatementTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, c.srv.cfg.StatementTimeout)
	}
	c.mu.Lock()
	c.cancelStmt = cancel
	c.mu.Unlock()
	return ctx, cancel
}

func (c *conn) sendFatal(e *pgerror.Error) {
	c.sess.W.WriteRaw(protocol.ErrorResponse(e))
	c.sess.W.Flush()
}

// trackTransaction observes BEGIN/COMMIT/ROLLBACK command tags and
// updates the session's ReadyForQuery status byte accordingly (spec
// §4.E). A commit or rollback also drops every portal's suspended
// cursor, since non-holdable portals don't survive a transaction
// boundary (spec §3.1, Open Question 2 in SPEC_FULL.md).
func (c *conn) trackTransaction(res executor.Result) {
	if res.Kind != executor.KindTransaction {
		return
	}
	switch res.Tag {
	case "BEGIN":
		c.sess.TxStatus = session.TxActive
	case "COMMIT", "ROLLBACK":
		c.sess.TxStatus = session.TxIdle
		c.sess.EndTransaction()
	}
}
