// Package catalog emulates the read-only slice of pg_catalog and
// information_schema spec §4.H names, as SQLite views over the sidecar
// tables migrate.go creates, plus the system functions clients and
// tools like psql issue against them.
package catalog

import "hash/fnv"

// firstUserOid mirrors PostgreSQL's own FirstNormalObjectId: every
// built-in catalog OID is below this value, so hashed relation/
// namespace/role OIDs can never collide with a real pg_type entry from
// internal/oid.
const firstUserOid uint32 = 16384

// Hash derives a deterministic, stable OID for a catalog object from
// its fully-qualified name (spec §4.H: "Deterministic OIDs are derived
// from a stable 32-bit hash of the object's fully-qualified name so
// that repeated queries return identical OIDs across restarts").
// fnv-1a is the cheapest deterministic hash in the standard library;
// none of the pack's examples import a hashing library for this kind
// of identifier derivation, and a 32-bit collision space is ample for
// emulated catalog rows (see DESIGN.md).
func Hash(qualifiedName string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(qualifiedName))
	sum := h.Sum32()
	return firstUserOid + (sum % (1<<31 - firstUserOid))
}
