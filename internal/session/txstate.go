// Package session owns one client connection's lifecycle: handshake,
// the tri-state transaction flag, and the prepared-statement/portal
// tables Parse/Bind/Execute operate on (spec §3.3, §4.E).
package session

import "github.com/pgsqlite-go/pgsqlite/internal/protocol"

// TxStatus is the ReadyForQuery status byte (spec §4.E).
type TxStatus byte

const (
	TxIdle   TxStatus = TxStatus(protocol.TxIdleI)
	TxActive TxStatus = TxStatus(protocol.TxInProgressT)
	TxFailed TxStatus = TxStatus(protocol.TxFailedE)
)

// Byte returns the wire representation for a ReadyForQuery message.
func (s TxStatus) Byte() byte { return byte(s) }
