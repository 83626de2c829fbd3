// Package pgerror implements the PostgreSQL SQLSTATE error taxonomy this
// adapter surfaces to clients (spec §7), generalizing lib-pq's error.go
// from a message *parser* into a message *builder*: the same field set
// travels over the wire in both directions, only the direction of
// parseError flips.
package pgerror

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Error is a PostgreSQL-shaped error, ready to be serialized as an
// ErrorResponse (or, with Severity one of the non-error levels, a
// NoticeResponse).
type Error struct {
	Severity string
	Code     Code
	Message  string
	Detail   string
	Hint     string
	Position string
	Schema   string
	Table    string
	Column   string
	Constraint string
	Routine  string
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("pgsqlite: %s (%s)", e.Message, e.Code)
	}
	return "pgsqlite: " + e.Message
}

// Fatal reports whether the error should terminate the session after the
// ErrorResponse is flushed (spec §7: protocol errors; I/O errors never
// reach this type at all, they just close the socket).
func (e *Error) Fatal() bool {
	return e.Severity == SevFatal || e.Severity == SevPanic
}

// Fields returns the wire field tag/value pairs in the order lib-pq's
// parseError reads them, used by protocol.WriteErrorResponse.
func (e *Error) Fields() [][2]string {
	f := make([][2]string, 0, 8)
	add := func(tag byte, v string) {
		if v != "" {
			f = append(f, [2]string{string(tag), v})
		}
	}
	add('S', e.Severity)
	add('V', e.Severity) // severity-not-localized, PG protocol 3.0 addition
	add('C', string(e.Code))
	add('M', e.Message)
	add('D', e.Detail)
	add('H', e.Hint)
	add('P', e.Position)
	add('s', e.Schema)
	add('t', e.Table)
	add('c', e.Column)
	add('n', e.Constraint)
	add('R', e.Routine)
	return f
}

// New builds an ERROR-severity Error.
func New(code Code, format string, args ...any) *Error {
	return &Error{Severity: SevError, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Noticef builds a NOTICE-severity Error for use as a NoticeResponse.
func Noticef(format string, args ...any) *Error {
	return &Error{Severity: SevNotice, Code: "00000", Message: fmt.Sprintf(format, args...)}
}

// Protocolf builds a protocol-violation error (08P01); the session must
// close after sending it, per spec §7.
func Protocolf(format string, args ...any) *Error {
	e := New(ProtocolViolation, format, args...)
	e.Severity = SevFatal
	return e
}

// Internal wraps an invariant-violation err as an XX000 internal error.
// The session continues after this one (spec §7).
func Internal(err error) *Error {
	return New(InternalError, "internal error: %s", err)
}

// As reports whether err is (or wraps) a *Error, mirroring errors.As.
func As(err error) (*Error, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// sqliteErrorPattern matches the handful of modernc.org/sqlite error
// strings this adapter needs to recognize and remap to PostgreSQL
// SQLSTATEs (spec §7: "SQLite's messages... are rewritten into
// PostgreSQL form").
var (
	reUnique  = regexp.MustCompile(`UNIQUE constraint failed: (\S+)`)
	reNotNull = regexp.MustCompile(`NOT NULL constraint failed: (\S+)`)
	reFK      = regexp.MustCompile(`FOREIGN KEY constraint failed`)
	reCheck   = regexp.MustCompile(`CHECK constraint failed: (\S+)`)
	reNoTable = regexp.MustCompile(`no such table: (\S+)`)
	reNoCol   = regexp.MustCompile(`no such column: (\S+)`)
	reSyntax  = regexp.MustCompile(`(?i)syntax error`)
	reBusy    = regexp.MustCompile(`(?i)database is locked|SQLITE_BUSY`)
)

// FromSQLite translates a raw error returned by the embedded SQLite
// engine into the PostgreSQL-shaped Error a client expects, per the
// constraint-violation and syntax-error rows of spec §7's taxonomy
// table. Unrecognized errors fall back to XX000 internal_error.
func FromSQLite(err error) *Error {
	if err == nil {
		return nil
	}
	if pe, ok := As(err); ok {
		return pe
	}
	msg := err.Error()

	if m := reUnique.FindStringSubmatch(msg); m != nil {
		table, col := splitTableColumn(m[1])
		e := New(UniqueViolation, "duplicate key value violates unique constraint %q", constraintName(table, col, "key"))
		e.Detail = fmt.Sprintf("Key (%s)=(...) already exists.", col)
		e.Table, e.Column, e.Constraint = table, col, constraintName(table, col, "key")
		return e
	}
	if m := reNotNull.FindStringSubmatch(msg); m != nil {
		table, col := splitTableColumn(m[1])
		e := New(NotNullViolation, "null value in column %q of relation %q violates not-null constraint", col, table)
		e.Table, e.Column = table, col
		return e
	}
	if reFK.MatchString(msg) {
		return New(ForeignKeyViolation, "insert or update on table violates foreign key constraint")
	}
	if m := reCheck.FindStringSubmatch(msg); m != nil {
		table, col := splitTableColumn(m[1])
		e := New(CheckViolation, "new row for relation %q violates check constraint %q", table, constraintName(table, col, "check"))
		e.Table = table
		return e
	}
	if m := reNoTable.FindStringSubmatch(msg); m != nil {
		return New(UndefinedTable, "relation %q does not exist", m[1])
	}
	if m := reNoCol.FindStringSubmatch(msg); m != nil {
		return New(UndefinedColumn, "column %q does not exist", m[1])
	}
	if reSyntax.MatchString(msg) {
		return New(SyntaxError, "syntax error: %s", msg)
	}
	if reBusy.MatchString(msg) {
		return New(LockNotAvailable, "could not obtain lock on database: %s", msg)
	}
	return Internal(err)
}

func splitTableColumn(s string) (table, col string) {
	i := strings.LastIndexByte(s, '.')
	if i < 0 {
		return s, ""
	}
	return s[:i], s[i+1:]
}

func constraintName(table, col, kind string) string {
	if col == "" {
		return fmt.Sprintf("%s_%s", table, kind)
	}
	return fmt.Sprintf("%s_%s_%s", table, col, kind)
}
