// Package shims registers the SQLite scalar and aggregate functions this adapter's SQL translations depend on (spec §4.I):
// JSON path access, array manipulation, decimal formatting, datetime
// conversion, full-text search, and the regex operators. The
// translator chain in internal/translate emits calls to these exact
// names; this package is where they're given bodies.
package shims

import (
	"fmt"

	"github.com/pgsqlite-go/pgsqlite/internal/catalog"
)

// Register installs every shim plus internal/catalog's system
// functions against the modernc.org/sqlite driver. Like
// catalog.Register, this registers at the driver level (every
// connection opened afterward sees these functions), so it must run
// once at process startup before the first sql.Open — spec §4.I's
// "registered on every SQLite connection" requirement is satisfied by
// registering before any connection exists rather than per-connection.
func Register(sessionUser, databaseName string) error {
	if err := catalog.Register(sessionUser, databaseName); err != nil {
		return err
	}
	if err := registerJSON(); err != nil {
		return fmt.Errorf("shims: registering json functions: %w", err)
	}
	if err := registerArray(); err != nil {
		return fmt.Errorf("shims: registering array functions: %w", err)
	}
	if err := registerDecimal(); err != nil {
		return fmt.Errorf("shims: registering decimal functions: %w", err)
	}
	if err := registerDatetime(); err != nil {
		return fmt.Errorf("shims: registering datetime functions: %w", err)
	}
	if err := registerFTS(); err != nil {
		return fmt.Errorf("shims: registering full-text search functions: %w", err)
	}
	if err := registerRegexp(); err != nil {
		return fmt.Errorf("shims: registering regexp functions: %w", err)
	}
	return nil
}
