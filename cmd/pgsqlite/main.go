// Command pgsqlite starts a PostgreSQL wire-protocol server backed by
// an embedded SQLite database. It is a thin entrypoint (spec §1
// explicitly scopes configuration/CLI loading out of the core): a
// handful of flag package options, the migration/catalog/shim startup
// sequence, and internal/server's accept loop.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/pgsqlite-go/pgsqlite/internal/cache"
	"github.com/pgsqlite-go/pgsqlite/internal/catalog"
	"github.com/pgsqlite-go/pgsqlite/internal/executor"
	"github.com/pgsqlite-go/pgsqlite/internal/migrate"
	"github.com/pgsqlite-go/pgsqlite/internal/server"
	"github.com/pgsqlite-go/pgsqlite/internal/session"
	"github.com/pgsqlite-go/pgsqlite/internal/shims"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

func main() {
	if err := run(); err != nil {
		logrus.WithError(err).Error("pgsqlite: startup failed")
		os.Exit(1)
	}
}

func run() error {
	var (
		dbPath         = flag.String("db", ":memory:", "SQLite database file path, or :memory: for an in-memory database")
		listenAddr     = flag.String("listen", "127.0.0.1:5432", "TCP address to listen on; empty disables the TCP listener")
		unixSocketDir  = flag.String("unix-socket-dir", "", "directory to create a .s.PGSQL.<port> Unix socket in; empty disables it")
		journalMode    = flag.String("journal-mode", "WAL", "SQLite journal_mode pragma value")
		allowAutoMigrate = flag.Bool("auto-migrate", true, "apply pending migrations automatically instead of refusing to start (always true for :memory:)")
		authMode       = flag.String("auth", "trust", "authentication mode: trust, cleartext, or md5")
		user           = flag.String("user", "postgres", "session role reported as current_user()")
		database       = flag.String("database", "pgsqlite", "database name reported as current_database()")
		statementTimeout = flag.Duration("statement-timeout", 0, "per-statement execution deadline; 0 disables it")
		logLevel       = flag.String("log-level", "info", "logrus level: trace, debug, info, warn, error")
	)
	flag.Parse()

	log := logrus.New()
	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		return fmt.Errorf("parsing -log-level: %w", err)
	}
	log.SetLevel(level)

	mode, err := parseAuthMode(*authMode)
	if err != nil {
		return err
	}

	// shims.Register (which also calls catalog.Register) installs
	// scalar/aggregate functions at the modernc.org/sqlite driver
	// level, so it must run before the first sql.Open (spec §4.I).
	if err := shims.Register(*user, *database); err != nil {
		return fmt.Errorf("registering SQLite function shims: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(*dbPath, *journalMode))
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	isMemory := *dbPath == ":memory:" || *dbPath == ""
	migrator := migrate.NewMigrator(db, log.WithField("component", "migrate"))
	if err := migrator.Apply(*allowAutoMigrate || isMemory); err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}
	if err := catalog.Bootstrap(db); err != nil {
		return fmt.Errorf("bootstrapping catalog views: %w", err)
	}

	caches := cache.NewSet()
	exec := executor.New(db, caches)

	srv := server.New(server.Config{
		ListenAddr:       *listenAddr,
		UnixSocketDir:    *unixSocketDir,
		UnixSocketPort:   listenPort(*listenAddr),
		AuthMode:         mode,
		SessionUser:      *user,
		DatabaseName:     *database,
		StatementTimeout: *statementTimeout,
		Executor:         exec,
		Log:              log,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe(ctx) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func parseAuthMode(s string) (session.AuthMode, error) {
	switch s {
	case "trust":
		return session.AuthTrust, nil
	case "cleartext":
		return session.AuthCleartext, nil
	case "md5":
		return session.AuthMD5, nil
	default:
		return 0, fmt.Errorf("unknown -auth mode %q (want trust, cleartext, or md5)", s)
	}
}

// dsn builds the modernc.org/sqlite DSN, folding in the journal-mode
// and foreign-key pragmas spec §3.3 requires on connection open.
func dsn(path, journalMode string) string {
	return fmt.Sprintf("file:%s?_pragma=journal_mode(%s)&_pragma=foreign_keys(1)", path, journalMode)
}

// listenPort extracts the numeric port from a host:port address for
// the Unix socket's .s.PGSQL.<port> name (spec §6); 5432 is used as a
// fallback when the TCP listener is disabled but a Unix socket was
// still requested.
func listenPort(addr string) int {
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return 5432
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port == 0 {
		return 5432
	}
	return port
}
