package protocol

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/pgsqlite-go/pgsqlite/internal/oid"
	"github.com/pgsqlite-go/pgsqlite/internal/pgerror"
)

// readBuf is a cursor over one message body, exactly like lib-pq's
// readBuf but walked from the server's side of the wire.
type readBuf []byte

func (b *readBuf) int32() int32 {
	n := int32(binary.BigEndian.Uint32(*b))
	*b = (*b)[4:]
	return n
}

func (b *readBuf) uint32() uint32 {
	n := binary.BigEndian.Uint32(*b)
	*b = (*b)[4:]
	return n
}

func (b *readBuf) oid() oid.Oid {
	return oid.Oid(b.uint32())
}

// int16 is actually an unsigned 16-bit quantity on the wire (parameter
// counts, format-code counts), same caveat as lib-pq's readBuf.int16.
func (b *readBuf) int16() int {
	n := int(binary.BigEndian.Uint16(*b))
	*b = (*b)[2:]
	return n
}

func (b *readBuf) byte() byte {
	c := (*b)[0]
	*b = (*b)[1:]
	return c
}

func (b *readBuf) string() (string, error) {
	i := bytes.IndexByte(*b, 0)
	if i < 0 {
		return "", pgerror.Protocolf("invalid message format; expected string terminator")
	}
	s := (*b)[:i]
	*b = (*b)[i+1:]
	return string(s), nil
}

func (b *readBuf) next(n int) ([]byte, error) {
	if n < 0 || n > len(*b) {
		return nil, pgerror.Protocolf("invalid message length")
	}
	v := (*b)[:n]
	*b = (*b)[n:]
	return v, nil
}

func (b *readBuf) remaining() []byte {
	return *b
}

func (b *readBuf) len() int {
	return len(*b)
}

// writeBuf accumulates one outgoing message body the way lib-pq's
// writeBuf does, reserving the four-byte length prefix up front and
// patching it in wrap().
type writeBuf struct {
	buf []byte
}

func newWriteBuf(tag byte) *writeBuf {
	return &writeBuf{buf: []byte{tag, 0, 0, 0, 0}}
}

func (b *writeBuf) int32(n int32) *writeBuf {
	var x [4]byte
	binary.BigEndian.PutUint32(x[:], uint32(n))
	b.buf = append(b.buf, x[:]...)
	return b
}

func (b *writeBuf) uint32(n uint32) *writeBuf {
	var x [4]byte
	binary.BigEndian.PutUint32(x[:], n)
	b.buf = append(b.buf, x[:]...)
	return b
}

func (b *writeBuf) int16(n int16) *writeBuf {
	var x [2]byte
	binary.BigEndian.PutUint16(x[:], uint16(n))
	b.buf = append(b.buf, x[:]...)
	return b
}

func (b *writeBuf) oid(o oid.Oid) *writeBuf {
	return b.uint32(uint32(o))
}

func (b *writeBuf) byte(c byte) *writeBuf {
	b.buf = append(b.buf, c)
	return b
}

func (b *writeBuf) string(s string) *writeBuf {
	b.buf = append(append(b.buf, s...), 0)
	return b
}

func (b *writeBuf) bytes(v []byte) *writeBuf {
	b.buf = append(b.buf, v...)
	return b
}

func (b *writeBuf) float64(f float64) *writeBuf {
	return b.uint32(uint32(math.Float32bits(float32(f))))
}

// wrap finalizes the message: patches the length prefix (which includes
// itself, not the tag byte) and returns the full framed message.
func (b *writeBuf) wrap() []byte {
	n := len(b.buf) - 1 // minus the tag byte
	if n > math.MaxInt32 {
		panic(fmt.Errorf("pgsqlite: message too large (%d bytes)", n))
	}
	binary.BigEndian.PutUint32(b.buf[1:5], uint32(n))
	return b.buf
}
