package session

import (
	"github.com/pgsqlite-go/pgsqlite/internal/cache"
	"github.com/pgsqlite-go/pgsqlite/internal/oid"
)

// PreparedStatement is one entry of a session's statement table,
// created by Parse and consumed by Bind, the server-side mirror of
// lib-pq's client-side `stmt` struct in conn.go (cols/rowTyps/
// paramTyps, minus the driver.Stmt plumbing a client needs and we
// don't).
type PreparedStatement struct {
	Name         string
	RawSQL       string
	Plan         cache.Plan
	ParamOIDs    []oid.Oid
	ResultFields []cache.FieldMeta
}

// Empty reports whether this is the unnamed statement reset by every
// new Parse with an empty name (spec §4.F extended-query state
// machine: the unnamed statement/portal are implicitly replaced, never
// explicitly closed).
func (s *PreparedStatement) Empty() bool { return s.Name == "" }
