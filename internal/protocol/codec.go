package protocol

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/pgsqlite-go/pgsqlite/internal/pgerror"
)

// Reader reads framed frontend messages off a byte stream (spec §4.A).
// It mirrors lib-pq's conn.recv/recv1, but on the receiving end of the
// handshake instead of the initiating one.
type Reader struct {
	r *bufio.Reader
}

func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReaderSize(r, 16*1024)}
}

// ReadStartupBody reads the length-prefixed, type-byte-less message that
// opens every connection: either a StartupMessage, an SSLRequest, a
// GSSENCRequest, or a CancelRequest. The caller inspects the first int32
// of the body to tell them apart, per spec §4.A.
func (r *Reader) ReadStartupBody() ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r.r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := int32(binary.BigEndian.Uint32(lenBuf[:]))
	if n < 4 {
		return nil, pgerror.Protocolf("invalid startup message length %d", n)
	}
	body := make([]byte, n-4)
	if _, err := io.ReadFull(r.r, body); err != nil {
		return nil, err
	}
	return body, nil
}

// ReadMessage reads one type-tagged message: a one-byte tag, a
// four-byte big-endian length (including itself), and the body.
func (r *Reader) ReadMessage() (FrontendTag, readBuf, error) {
	var hdr [5]byte
	if _, err := io.ReadFull(r.r, hdr[:]); err != nil {
		return 0, nil, err
	}
	tag := FrontendTag(hdr[0])
	n := int32(binary.BigEndian.Uint32(hdr[1:5]))
	if n < 4 {
		return 0, nil, pgerror.Protocolf("invalid message length %d for tag %q", n, tag)
	}
	body := make([]byte, n-4)
	if _, err := io.ReadFull(r.r, body); err != nil {
		return 0, nil, err
	}
	return tag, readBuf(body), nil
}

// Buffered returns the *bufio.Reader this Reader reads framed messages
// from, for callers that need raw access to input outside the
// framed-message format.
func (r *Reader) Buffered() *bufio.Reader { return r.r }

// Writer writes framed backend messages (spec §4.A). Flush must be
// called after ReadyForQuery and after any terminal message in a batch,
// matching spec §4.A's contract.
type Writer struct {
	w *bufio.Writer
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriterSize(w, 16*1024)}
}

func (w *Writer) WriteRaw(framed []byte) error {
	_, err := w.w.Write(framed)
	return err
}

func (w *Writer) Flush() error {
	return w.w.Flush()
}

// WriteByte writes a single unframed byte, used only for the SSL
// negotiation answer ('S' or 'N') which precedes any framed message.
func (w *Writer) WriteByte(b byte) error {
	return w.w.WriteByte(b)
}
