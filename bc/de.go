package bc

import (
	"encoding/binary"
	"io"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// Wire header sizes. The extended form carries the payload_offset word.
const (
	headerBaseLen = 20
	headerExtLen  = 24
)

const legacyLoginFieldLen = 32

// Parse runs the total parse over buf and returns the decoded message
// with the number of bytes it consumed. It is pure: no I/O, and the same
// buffer always produces the same result.
//
// When buf does not yet hold a whole message the error is an
// *IncompleteError carrying the byte deficit; everything else is a hard
// error. A short buffer whose first four bytes mismatch MagicHeader is
// already a hard error, never incomplete.
func Parse(ctx *BcContext, buf []byte) (*Bc, int, error) {
	header, n, err := bcHeader(buf)
	if err != nil {
		return nil, 0, err
	}
	body, m, err := bcBody(ctx, header, buf[n:])
	if err != nil {
		return nil, 0, err
	}
	return &Bc{Meta: header.toMeta(), Body: body}, n + m, nil
}

func bcHeader(buf []byte) (*Header, int, error) {
	if len(buf) < 4 {
		return nil, 0, incomplete(4 - len(buf))
	}
	if magic := binary.LittleEndian.Uint32(buf[0:4]); magic != MagicHeader {
		return nil, 0, errors.Wrapf(ErrBadMagic, "got 0x%08x", magic)
	}
	if len(buf) < headerBaseLen {
		return nil, 0, incomplete(headerBaseLen - len(buf))
	}

	h := &Header{
		MsgID:     binary.LittleEndian.Uint32(buf[4:8]),
		BodyLen:   binary.LittleEndian.Uint32(buf[8:12]),
		EncOffset: binary.LittleEndian.Uint32(buf[12:16]),
		Encrypted: buf[16] != 0, // response code; see isEncrypted
		Class:     binary.LittleEndian.Uint16(buf[18:20]),
	}
	// buf[17] is reserved and ignored.

	n := headerBaseLen
	if hasPayloadOffset(h.Class) {
		if len(buf) < headerExtLen {
			return nil, 0, incomplete(headerExtLen - len(buf))
		}
		off := binary.LittleEndian.Uint32(buf[20:24])
		h.PayloadOffset = &off
		n = headerExtLen
	}
	return h, n, nil
}

func bcBody(ctx *BcContext, header *Header, buf []byte) (Body, int, error) {
	if header.IsModern() {
		return bcModernMsg(ctx, header, buf)
	}
	switch header.MsgID {
	case MsgIDLogin:
		return bcLegacyLoginMsg(buf)
	default:
		return UnknownMsg{}, 0, nil
	}
}

// bcLegacyLoginMsg reads the two fixed 32-byte credential fields. There
// is no length prefix and no scrambling; padding NULs stay in the
// returned strings.
func bcLegacyLoginMsg(buf []byte) (Body, int, error) {
	if len(buf) < 2*legacyLoginFieldLen {
		return nil, 0, incomplete(2*legacyLoginFieldLen - len(buf))
	}
	username, err := textField(buf[:legacyLoginFieldLen])
	if err != nil {
		return nil, 0, errors.Wrap(err, "username")
	}
	password, err := textField(buf[legacyLoginFieldLen : 2*legacyLoginFieldLen])
	if err != nil {
		return nil, 0, errors.Wrap(err, "password")
	}
	return LoginMsg{Username: username, Password: password}, 2 * legacyLoginFieldLen, nil
}

// textField decodes a fixed-width field as text. By the time this runs
// the buffer is known to be long enough, so failure is always hard.
func textField(b []byte) (string, error) {
	if !utf8.Valid(b) {
		return "", errors.Wrapf(ErrInvalidText, "% x", b)
	}
	return string(b), nil
}

func bcModernMsg(ctx *BcContext, header *Header, buf []byte) (Body, int, error) {
	xmlLen := header.BodyLen
	if header.PayloadOffset != nil {
		xmlLen = *header.PayloadOffset
	}
	if header.BodyLen < xmlLen {
		return nil, 0, errors.Wrapf(ErrLengthUnderflow,
			"body_len %d, payload_offset %d", header.BodyLen, xmlLen)
	}
	payloadLen := header.BodyLen - xmlLen

	if uint32(len(buf)) < header.BodyLen {
		return nil, 0, incomplete(int(header.BodyLen) - len(buf))
	}
	xmlBuf := buf[:xmlLen]
	payloadBuf := buf[xmlLen:header.BodyLen]

	msg := &ModernMsg{}
	if xmlLen > 0 {
		plain := xmlBuf
		if header.IsEncrypted() {
			plain = Crypt(header.EncOffset, xmlBuf)
		}
		// A nonzero xml length declares the region present, so a parse
		// failure here is hard.
		doc, err := ParseXml(plain)
		if err != nil {
			return nil, 0, err
		}
		msg.XML = doc
	}
	if payloadLen > 0 {
		plain := payloadBuf
		if header.IsEncrypted() {
			// Each segment decrypts from its own ciphertext; the regions
			// are keyed independently.
			plain = Crypt(header.EncOffset, payloadBuf)
		}
		if doc, err := ParsePayloadXml(plain); err == nil {
			msg.Payload = &Payload{Kind: PayloadXML, XML: doc}
		} else {
			// Opaque binary is the universal fallback.
			msg.Payload = &Payload{Kind: PayloadBinary, Binary: plain}
		}
	}
	return msg, int(header.BodyLen), nil
}

// fillChunk caps how much a single fill may request and allocate.
// Deficits come straight out of the peer's length fields, so the buffer
// grows only as reads land rather than to whatever the header claims;
// the parser keeps asking until the claim is met.
const fillChunk = 64 << 10

// Decoder turns an arbitrarily chunked byte stream into messages. It owns
// a private accumulation buffer, so each stream needs its own Decoder and
// calls on one Decoder must be issued sequentially.
type Decoder struct {
	ctx     *BcContext
	buf     []byte
	pending error
}

// NewDecoder returns a Decoder for one stream. A nil ctx gets a fresh
// session context.
func NewDecoder(ctx *BcContext) *Decoder {
	if ctx == nil {
		ctx = NewBcContext()
	}
	return &Decoder{ctx: ctx}
}

// Context returns the session context the Decoder threads into parses.
func (d *Decoder) Context() *BcContext {
	return d.ctx
}

// Decode blocks until r has delivered one whole message and returns it.
// The accumulation buffer is re-parsed from the start after every top-up
// read; re-parse cost is noise next to I/O latency, so the simplicity is
// worth it. Hard parse errors and I/O errors abort immediately with the
// partial buffer discarded - the protocol cannot resynchronize.
func (d *Decoder) Decode(r io.Reader) (*Bc, error) {
	d.buf = d.buf[:0]
	for {
		msg, _, err := Parse(d.ctx, d.buf)
		if err == nil {
			return msg, nil
		}
		need, soft := Incomplete(err)
		if !soft {
			return nil, err
		}
		if need == 0 {
			need = 1
		}
		if err := d.fill(r, need); err != nil {
			return nil, err
		}
	}
}

// fill issues one read request for up to n more bytes and appends
// whatever arrives. A zero-byte result means the stream ended inside a
// message, which is a hard error here. An error delivered alongside data
// is held back until the data has been re-parsed; io.Reader does not
// promise the reader will return it again.
func (d *Decoder) fill(r io.Reader, n int) error {
	if err := d.pending; err != nil {
		d.pending = nil
		return wrapReadError(err)
	}
	if n > fillChunk {
		n = fillChunk
	}
	off := len(d.buf)
	d.buf = append(d.buf, make([]byte, n)...)
	read, err := r.Read(d.buf[off : off+n])
	d.buf = d.buf[:off+read]
	if read > 0 {
		d.pending = err
		return nil
	}
	return wrapReadError(err)
}

func wrapReadError(err error) error {
	if err == nil || err == io.EOF {
		return errors.Wrap(io.ErrUnexpectedEOF, "stream ended mid message")
	}
	return errors.Wrap(err, "read message bytes")
}

// Deserialize decodes a single message from r with fresh accumulation
// state, threading ctx into the parse.
func Deserialize(ctx *BcContext, r io.Reader) (*Bc, error) {
	return NewDecoder(ctx).Decode(r)
}
