package session

import (
	"crypto/md5"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"net"

	"github.com/google/uuid"
	"github.com/pgsqlite-go/pgsqlite/internal/pgerror"
	"github.com/pgsqlite-go/pgsqlite/internal/protocol"
	"github.com/sirupsen/logrus"
)

// AuthMode selects how Session.Authenticate answers the client's
// authentication request (spec §6: "Password(MD5/cleartext/accept-any)").
type AuthMode int

const (
	AuthTrust AuthMode = iota
	AuthCleartext
	AuthMD5
)

// Session is one client connection's worth of state: the wire reader/
// writer, the pinned SQLite connection it drives, and the prepared
// statement/portal tables the extended query protocol mutates. It is
// the server-side analogue of lib-pq's conn struct, turned inside out:
// lib-pq's conn drives a remote PostgreSQL server; Session drives an
// embedded SQLite database and speaks the server role of the same
// protocol outward.
type Session struct {
	ID         int64
	UUID       uuid.UUID
	Secret     int32
	Conn       net.Conn
	R          *protocol.Reader
	W          *protocol.Writer
	DB         *sql.Conn
	User       string
	Database   string
	TxStatus   TxStatus
	Log        *logrus.Entry

	statements map[string]*PreparedStatement
	portals    map[string]*Portal
}

func New(id int64, conn net.Conn, r *protocol.Reader, w *protocol.Writer, log *logrus.Entry) *Session {
	return &Session{
		ID:         id,
		UUID:       uuid.New(),
		Conn:       conn,
		R:          r,
		W:          w,
		TxStatus:   TxIdle,
		Log:        log,
		statements: make(map[string]*PreparedStatement),
		portals:    make(map[string]*Portal),
	}
}

// StartupParams parses a StartupMessage body into its key/value pairs
// (spec §4.A): repeated NUL-terminated strings, terminated by an
// extra NUL.
func StartupParams(body []byte) (map[string]string, error) {
	params := make(map[string]string)
	for len(body) > 0 && body[0] != 0 {
		i := indexByte(body, 0)
		if i < 0 {
			return nil, pgerror.Protocolf("invalid startup message: unterminated key")
		}
		key := string(body[:i])
		body = body[i+1:]
		j := indexByte(body, 0)
		if j < 0 {
			return nil, pgerror.Protocolf("invalid startup message: unterminated value")
		}
		params[key] = string(body[:j])
		body = body[j+1:]
	}
	return params, nil
}

func indexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return -1
}

// Authenticate runs the password exchange spec §6 requires, then sends
// AuthenticationOk. It returns only an error: for AuthCleartext and
// AuthMD5 the client's PasswordMessage is read but its contents are
// not checked, since this adapter accepts any credential per spec §6's
// Non-goals on real user management.
func (s *Session) Authenticate(mode AuthMode) error {
	switch mode {
	case AuthTrust:
		return s.sendAuthOK()
	case AuthCleartext:
		if err := s.W.WriteRaw(protocol.AuthenticationCleartextPassword()); err != nil {
			return err
		}
		if err := s.W.Flush(); err != nil {
			return err
		}
		tag, _, err := s.R.ReadMessage()
		if err != nil {
			return err
		}
		if tag != protocol.MsgPasswordp {
			return pgerror.Protocolf("expected PasswordMessage, got %q", byte(tag))
		}
		return s.sendAuthOK()
	case AuthMD5:
		var salt [4]byte
		if _, err := rand.Read(salt[:]); err != nil {
			return err
		}
		if err := s.W.WriteRaw(protocol.AuthenticationMD5Password(salt)); err != nil {
			return err
		}
		if err := s.W.Flush(); err != nil {
			return err
		}
		tag, _, err := s.R.ReadMessage()
		if err != nil {
			return err
		}
		if tag != protocol.MsgPasswordp {
			return pgerror.Protocolf("expected PasswordMessage, got %q", byte(tag))
		}
		// This adapter has no real credential store (spec §6
		// Non-goals); the hash is read but never verified, matching
		// the "accept-any" posture the spec names alongside MD5/
		// cleartext.
		return s.sendAuthOK()
	default:
		return fmt.Errorf("session: unknown auth mode %d", mode)
	}
}

func (s *Session) sendAuthOK() error {
	if err := s.W.WriteRaw(protocol.AuthenticationOk()); err != nil {
		return err
	}
	return s.W.Flush()
}

// md5Hash mirrors lib-pq's md5s helper, used only if a future
// credential store needs to verify a client's hashed password against
// a stored one.
func md5Hash(s string) string {
	h := md5.Sum([]byte(s))
	return hex.EncodeToString(h[:])
}

// Statement/portal table access. The unnamed statement/portal ("") are
// silently replaced by the next Parse/Bind with an empty name; named
// ones must be explicitly closed (spec §4.F).

func (s *Session) PutStatement(stmt *PreparedStatement) {
	s.statements[stmt.Name] = stmt
}

func (s *Session) Statement(name string) (*PreparedStatement, bool) {
	st, ok := s.statements[name]
	return st, ok
}

func (s *Session) CloseStatement(name string) {
	delete(s.statements, name)
}

func (s *Session) PutPortal(p *Portal) {
	s.portals[p.Name] = p
}

func (s *Session) Portal(name string) (*Portal, bool) {
	p, ok := s.portals[name]
	return p, ok
}

func (s *Session) ClosePortal(name string) {
	delete(s.portals, name)
}

// EndTransaction discards every portal's suspended cursor state, per
// spec §4.F: "Suspension state is discarded on portal close or
// transaction end."
func (s *Session) EndTransaction() {
	for _, p := range s.portals {
		p.Suspended = nil
	}
}

// Fail transitions the session into the failed-transaction state; all
// statements until ROLLBACK are rejected with 25P02 (spec §4.F).
func (s *Session) Fail() {
	if s.TxStatus == TxActive {
		s.TxStatus = TxFailed
	}
}

// Close releases the session's pinned SQLite connection and socket.
func (s *Session) Close() error {
	var err error
	if s.DB != nil {
		err = s.DB.Close()
	}
	if cerr := s.Conn.Close(); err == nil {
		err = cerr
	}
	return err
}
