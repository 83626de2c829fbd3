// Package migrate owns the sidecar __pgsqlite_* metadata tables (spec
// §3: authoritative PostgreSQL type information SQLite's own schema
// can't carry) and the migrations that keep them in step with the
// user's DDL.
package migrate

import (
	"database/sql"
	"errors"
	"sync"
)

// ErrLockNotHeld mirrors lib-pq's lock package: returned when an
// unlock is attempted without a matching lock held.
var ErrLockNotHeld = errors.New("migrate: lock wasn't held")

// SchemaLock serializes concurrent schema migrations across
// connections sharing one SQLite file, the way lib-pq's lock.Lock
// wraps pg_advisory_lock — except here there's no separate lock
// server, so it's a SQLite write transaction whose first statement
// writes the single-row __pgsqlite_migration_lock table, so concurrent
// backends serialize on SQLite's reserved lock instead of racing on
// CREATE TABLE.
type SchemaLock struct {
	db *sql.DB
	mu sync.Mutex
	tx *sql.Tx
}

func NewSchemaLock(db *sql.DB) *SchemaLock {
	return &SchemaLock{db: db}
}

// Lock opens a transaction and takes SQLite's reserved (write) lock on
// the file, which only one connection can hold at a time: database/sql
// has already issued a deferred BEGIN, and the first write, to the
// single-row __pgsqlite_migration_lock table, acquires that lock.
func (l *SchemaLock) Lock() error {
	l.mu.Lock()
	tx, err := l.db.Begin()
	if err != nil {
		l.mu.Unlock()
		return err
	}
	for _, stmt := range []string{
		`CREATE TABLE IF NOT EXISTS __pgsqlite_migration_lock (id INTEGER PRIMARY KEY CHECK (id = 1), locked_at INTEGER NOT NULL)`,
		`INSERT OR REPLACE INTO __pgsqlite_migration_lock (id, locked_at) VALUES (1, strftime('%s', 'now'))`,
	} {
		if _, err := tx.Exec(stmt); err != nil {
			tx.Rollback()
			l.mu.Unlock()
			return err
		}
	}
	l.tx = tx
	return nil
}

// Tx returns the transaction the lock opened, so callers can run the
// migrations themselves inside it instead of racing a second
// connection for the same write lock.
func (l *SchemaLock) Tx() *sql.Tx {
	return l.tx
}

// Unlock commits the migration transaction, releasing the write lock.
func (l *SchemaLock) Unlock() error {
	defer l.mu.Unlock()
	if l.tx == nil {
		return ErrLockNotHeld
	}
	tx := l.tx
	l.tx = nil
	return tx.Commit()
}

// Locker adapts SchemaLock to sync.Locker, the same indirection
// lib-pq's lock.Lock.Locker() provides, for callers that want to use
// it with defer l.Unlock() without checking the error.
func (l *SchemaLock) Locker() sync.Locker {
	return (*panicLocker)(l)
}

type panicLocker SchemaLock

func (l *panicLocker) Lock() {
	if err := (*SchemaLock)(l).Lock(); err != nil {
		panic(err)
	}
}

func (l *panicLocker) Unlock() {
	if err := (*SchemaLock)(l).Unlock(); err != nil {
		panic(err)
	}
}
