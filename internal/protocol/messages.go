// Package protocol implements the wire-level framing of the PostgreSQL
// frontend/backend protocol, version 3.0 (spec §4.A, §6).
//
// Naming follows lib-pq's messages.go convention:
// "(msg)(NameInManual)(characterCode)" — verbose, but it makes it obvious
// at a glance which logical message a given wire byte is, and matches
// what you see in a packet capture.
package protocol

// FrontendTag identifies a message sent by the client once the startup
// phase is complete (every non-startup frontend message has a leading
// type byte).
type FrontendTag byte

const (
	MsgBindB         FrontendTag = 'B'
	MsgCloseC        FrontendTag = 'C'
	MsgDescribeD     FrontendTag = 'D'
	MsgExecuteE      FrontendTag = 'E'
	MsgFunctionCallF FrontendTag = 'F'
	MsgFlushH        FrontendTag = 'H'
	MsgParseP        FrontendTag = 'P'
	MsgPasswordp     FrontendTag = 'p'
	MsgQueryQ        FrontendTag = 'Q'
	MsgSyncS         FrontendTag = 'S'
	MsgTerminateX    FrontendTag = 'X'
	MsgCopyDatad     FrontendTag = 'd'
	MsgCopyDonec     FrontendTag = 'c'
	MsgCopyFailf     FrontendTag = 'f'
)

// BackendTag identifies a message sent by the server.
type BackendTag byte

const (
	MsgAuthenticationR           BackendTag = 'R'
	MsgBackendKeyDataK           BackendTag = 'K'
	MsgBindComplete2             BackendTag = '2'
	MsgCloseComplete3            BackendTag = '3'
	MsgCommandCompleteC          BackendTag = 'C'
	MsgCopyInResponseG           BackendTag = 'G'
	MsgCopyOutResponseH          BackendTag = 'H'
	MsgCopyBothResponseW         BackendTag = 'W'
	MsgDataRowD                  BackendTag = 'D'
	MsgEmptyQueryResponseI       BackendTag = 'I'
	MsgErrorResponseE            BackendTag = 'E'
	MsgNoDatan                   BackendTag = 'n'
	MsgNoticeResponseN           BackendTag = 'N'
	MsgNotificationResponseA     BackendTag = 'A'
	MsgParameterDescriptiont     BackendTag = 't'
	MsgParameterStatusS          BackendTag = 'S'
	MsgParseComplete1            BackendTag = '1'
	MsgPortalSuspendeds          BackendTag = 's'
	MsgReadyForQueryZ            BackendTag = 'Z'
	MsgRowDescriptionT           BackendTag = 'T'
	MsgCopyDataResponsed         BackendTag = 'd'
	MsgCopyDoneResponsec         BackendTag = 'c'
)

// Sub-message byte used inside Close/Describe to say whether the target
// is a prepared statement or a portal.
const (
	TargetPortalP    byte = 'P'
	TargetStatementS byte = 'S'
)

// ReadyForQuery transaction-status byte (spec §4.E).
const (
	TxIdleI        byte = 'I'
	TxInProgressT  byte = 'T'
	TxFailedE      byte = 'E'
)

// AuthCode values for AuthenticationXXX ('R') backend messages.
type AuthCode int32

const (
	AuthOK               AuthCode = 0
	AuthCleartextPassword AuthCode = 3
	AuthMD5Password      AuthCode = 5
)

// StartupProtocolVersion is the only frontend protocol version this
// adapter negotiates (spec §6: "protocol version 3.0").
const StartupProtocolVersion = (3 << 16) | 0

// Special non-framed requests sent before any message-type byte appears
// on the wire (spec §4.A edge cases).
const (
	SSLRequestCode  = (1234 << 16) | 5679
	GSSRequestCode  = (1234 << 16) | 5680
	CancelRequestCode = (1234 << 16) | 5678
)
