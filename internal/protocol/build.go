package protocol

import (
	"github.com/pgsqlite-go/pgsqlite/internal/oid"
	"github.com/pgsqlite-go/pgsqlite/internal/pgerror"
)

// FieldDescription describes one column of a RowDescription ('T')
// message, per spec §4.D.
type FieldDescription struct {
	Name         string
	TableOID     oid.Oid
	ColumnAttNo  int16
	TypeOID      oid.Oid
	TypeLen      int16
	TypeMod      int32
	Format       int16 // 0 = text, 1 = binary
}

// AuthenticationOk builds the 'R'/0 message that ends a successful
// handshake (spec §6: "accept any password" and "accept without a
// password" both still end in AuthenticationOk).
func AuthenticationOk() []byte {
	return newWriteBuf(byte(MsgAuthenticationR)).int32(int32(AuthOK)).wrap()
}

// AuthenticationCleartextPassword requests a PasswordMessage in the
// clear (spec §6, optional cleartext-password mode).
func AuthenticationCleartextPassword() []byte {
	return newWriteBuf(byte(MsgAuthenticationR)).int32(int32(AuthCleartextPassword)).wrap()
}

// AuthenticationMD5Password requests an MD5-hashed PasswordMessage,
// carrying the four-byte salt the client must fold into its hash
// (spec §6, the default auth mode).
func AuthenticationMD5Password(salt [4]byte) []byte {
	return newWriteBuf(byte(MsgAuthenticationR)).int32(int32(AuthMD5Password)).bytes(salt[:]).wrap()
}

// ParameterStatus reports one GUC-like session parameter to the client
// (spec §4.A: server_version, client_encoding, etc.).
func ParameterStatus(name, value string) []byte {
	return newWriteBuf(byte(MsgParameterStatusS)).string(name).string(value).wrap()
}

// BackendKeyData carries the process id and secret key used for Cancel
// requests (spec §4.A).
func BackendKeyData(pid, secret int32) []byte {
	return newWriteBuf(byte(MsgBackendKeyDataK)).int32(pid).int32(secret).wrap()
}

// ReadyForQuery reports the session's current transaction status
// (spec §4.E: Idle/InTransaction/Failed).
func ReadyForQuery(txStatus byte) []byte {
	return newWriteBuf(byte(MsgReadyForQueryZ)).byte(txStatus).wrap()
}

// RowDescription describes the shape of the rows that follow
// (spec §4.D).
func RowDescription(fields []FieldDescription) []byte {
	b := newWriteBuf(byte(MsgRowDescriptionT)).int16(int16(len(fields)))
	for _, f := range fields {
		b.string(f.Name).
			oid(f.TableOID).
			int16(f.ColumnAttNo).
			oid(f.TypeOID).
			int16(f.TypeLen).
			int32(f.TypeMod).
			int16(f.Format)
	}
	return b.wrap()
}

// DataRow carries one row of already-encoded column values; a nil
// entry means SQL NULL (spec §4.D: length -1, no bytes).
func DataRow(values [][]byte) []byte {
	b := newWriteBuf(byte(MsgDataRowD)).int16(int16(len(values)))
	for _, v := range values {
		if v == nil {
			b.int32(-1)
			continue
		}
		b.int32(int32(len(v))).bytes(v)
	}
	return b.wrap()
}

// CommandComplete carries the command tag, e.g. "SELECT 3" or
// "INSERT 0 1" (spec §4.E, §8 command-tag table).
func CommandComplete(tag string) []byte {
	return newWriteBuf(byte(MsgCommandCompleteC)).string(tag).wrap()
}

func EmptyQueryResponse() []byte {
	return newWriteBuf(byte(MsgEmptyQueryResponseI)).wrap()
}

func ParseComplete() []byte {
	return newWriteBuf(byte(MsgParseComplete1)).wrap()
}

func BindComplete() []byte {
	return newWriteBuf(byte(MsgBindComplete2)).wrap()
}

func NoData() []byte {
	return newWriteBuf(byte(MsgNoDatan)).wrap()
}

func PortalSuspended() []byte {
	return newWriteBuf(byte(MsgPortalSuspendeds)).wrap()
}

func CloseComplete() []byte {
	return newWriteBuf(byte(MsgCloseComplete3)).wrap()
}

// ParameterDescription reports the inferred/declared types of a
// prepared statement's placeholders (spec §4.C).
func ParameterDescription(oids []oid.Oid) []byte {
	b := newWriteBuf(byte(MsgParameterDescriptiont)).int16(int16(len(oids)))
	for _, o := range oids {
		b.oid(o)
	}
	return b.wrap()
}

// CopyInResponse/CopyOutResponse announce the start of a COPY stream
// (spec §4.I minimal COPY support).
func CopyInResponse(format int16, columnFormats []int16) []byte {
	return copyResponse(byte(MsgCopyInResponseG), format, columnFormats)
}

func CopyOutResponse(format int16, columnFormats []int16) []byte {
	return copyResponse(byte(MsgCopyOutResponseH), format, columnFormats)
}

func copyResponse(tag byte, format int16, columnFormats []int16) []byte {
	b := newWriteBuf(tag).int16(format).int16(int16(len(columnFormats)))
	for _, f := range columnFormats {
		b.int16(f)
	}
	return b.wrap()
}

func CopyData(data []byte) []byte {
	return newWriteBuf(byte(MsgCopyDataResponsed)).bytes(data).wrap()
}

func CopyDone() []byte {
	return newWriteBuf(byte(MsgCopyDoneResponsec)).wrap()
}

// ErrorResponse/NoticeResponse serialize a pgerror.Error's field set
// (spec §7).
func ErrorResponse(e *pgerror.Error) []byte {
	return errorLike(byte(MsgErrorResponseE), e)
}

func NoticeResponse(e *pgerror.Error) []byte {
	return errorLike(byte(MsgNoticeResponseN), e)
}

func errorLike(tag byte, e *pgerror.Error) []byte {
	b := newWriteBuf(tag)
	for _, f := range e.Fields() {
		b.byte(f[0][0]).string(f[1])
	}
	b.byte(0)
	return b.wrap()
}
