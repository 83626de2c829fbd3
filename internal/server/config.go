// Package server implements the accept loop and per-connection message
// loop that drive internal/session, internal/executor and the caches
// against incoming PostgreSQL clients (spec §5, §6). lib-pq has no
// direct analogue — it only ever dials out — so this package's shape
// is grounded instead on a complete wire-protocol listener found in
// the retrieval pack (see DESIGN.md), adapted to drive this project's
// own internal/protocol framing instead of a third-party pgproto3.
package server

import (
	"crypto/tls"
	"time"

	"github.com/pgsqlite-go/pgsqlite/internal/executor"
	"github.com/pgsqlite-go/pgsqlite/internal/session"
	"github.com/sirupsen/logrus"
)

// Config collects everything cmd/pgsqlite's flag parsing resolves
// before building a Server; the CLI front-end that produces one is out
// of scope (spec §1), but the shape it must fill in is specified here.
type Config struct {
	// ListenAddr is a host:port TCP address, e.g. "127.0.0.1:5432".
	// Empty disables the TCP listener.
	ListenAddr string

	// UnixSocketDir is a directory in which a `.s.PGSQL.<port>` socket
	// is created (spec §6). Empty disables the Unix listener.
	UnixSocketDir string

	// UnixSocketPort names the socket file the same way libpq clients
	// compute it from their own "port" option.
	UnixSocketPort int

	// TLSConfig, if non-nil, is offered in response to an SSLRequest
	// (spec §6). A nil value answers every SSLRequest with 'N'.
	TLSConfig *tls.Config

	// AuthMode selects the password exchange Session.Authenticate runs
	// (spec §6: "Password(MD5/cleartext/accept-any)").
	AuthMode session.AuthMode

	// SessionUser/DatabaseName seed current_user()/current_database()
	// and ParameterStatus's "user"/"database" values; this adapter
	// serves one configured role against one SQLite file (spec §6
	// Non-goals: no real role/ACL enforcement).
	SessionUser  string
	DatabaseName string

	// StatementTimeout bounds a single statement's execution; zero
	// means no deadline. Expiry is reported as query_canceled (57014,
	// spec §5 "Cancellation & timeouts").
	StatementTimeout time.Duration

	Executor *executor.Executor
	Log      *logrus.Logger
}
