// Package bc implements the Baichuan wire protocol spoken by IP cameras
// and NVRs. It decodes an arbitrarily chunked byte stream into structured
// messages and serializes messages back to the wire.
//
// The protocol has two eras. Legacy messages are fixed-layout binary.
// Modern messages carry an XML control document, optionally followed by a
// trailing payload that is itself either XML or opaque binary; modern
// bodies may additionally be scrambled with an offset-keyed transform.
package bc

// MagicHeader opens every message on the wire, little-endian.
const MagicHeader uint32 = 0x0abcdef0

// Known message IDs. Unknown legacy IDs decode to UnknownMsg.
const (
	MsgIDLogin uint32 = 1
	MsgIDVideo uint32 = 3
)

// Class codes identify the header shape and protocol sub-version.
const (
	// ClassLegacy marks the pre-XML era. Everything else is modern.
	ClassLegacy uint16 = 0x6514
	// ClassModern is the common modern class without a payload region.
	ClassModern uint16 = 0x6614
	// ClassModernOffset carries the extra payload_offset header word and
	// is always scrambled, whatever the response code says.
	ClassModernOffset uint16 = 0x6414
	// ClassModernZero also carries payload_offset; seen on login replies.
	ClassModernZero uint16 = 0x0000
)

// extendedHeaderClasses enumerates the class codes whose header carries
// the trailing payload_offset word. This is an explicit table: new codes
// get a row here, never a bit test in the parser.
var extendedHeaderClasses = map[uint16]bool{
	ClassModernOffset: true,
	ClassModernZero:   true,
}

func hasPayloadOffset(class uint16) bool {
	return extendedHeaderClasses[class]
}

// isEncrypted is the single home of the "scrambled body" heuristic.
// A nonzero response code has been observed to mean the body went through
// the transform, and ClassModernOffset traffic is always scrambled.
// Camera firmware is not consistent about the response code; if captures
// disagree, correct it here and nowhere else.
func isEncrypted(responseNonzero bool, class uint16) bool {
	return responseNonzero || class == ClassModernOffset
}

// Header is the fixed-layout message header as read off the wire.
type Header struct {
	MsgID     uint32
	BodyLen   uint32
	EncOffset uint32
	// Encrypted is the raw "response code was nonzero" observation.
	// Use IsEncrypted, which also folds in the class override.
	Encrypted bool
	Class     uint16
	// PayloadOffset is set iff Class is in the extended-header table.
	// It marks the boundary between the XML and payload regions.
	PayloadOffset *uint32
}

// IsModern reports which era the message belongs to.
func (h *Header) IsModern() bool {
	return h.Class != ClassLegacy
}

// IsEncrypted reports whether the body segments went through the
// obfuscation transform.
func (h *Header) IsEncrypted() bool {
	return isEncrypted(h.Encrypted, h.Class)
}

func (h *Header) toMeta() Meta {
	return Meta{
		MsgID:     h.MsgID,
		Class:     h.Class,
		EncOffset: h.EncOffset,
		Encrypted: h.Encrypted,
	}
}

// Meta is the era-independent header summary kept on a decoded message.
// Body length and payload offset are derived from the body on serialize,
// so they do not appear here.
type Meta struct {
	MsgID     uint32
	Class     uint16
	EncOffset uint32
	Encrypted bool
}

// IsEncrypted mirrors Header.IsEncrypted for re-serialization.
func (m Meta) IsEncrypted() bool {
	return isEncrypted(m.Encrypted, m.Class)
}

// Bc is one decoded protocol message. It is built fresh per decode call
// and owned solely by the caller.
type Bc struct {
	Meta Meta
	Body Body
}

// Body is the era-dependent message body: LoginMsg or UnknownMsg for
// legacy messages, *ModernMsg for modern ones.
type Body interface {
	body()
}

// LoginMsg is the legacy login body: two fixed 32-byte text fields with
// padding preserved verbatim.
type LoginMsg struct {
	Username string
	Password string
}

func (LoginMsg) body() {}

// UnknownMsg stands in for every legacy message id this package does not
// decode. It is a valid result, not an error.
type UnknownMsg struct{}

func (UnknownMsg) body() {}

// ModernMsg is a modern-era body. Either region may be absent: a zero
// xml length means XML is nil, a zero payload length means Payload is
// nil, and both at once are legal.
type ModernMsg struct {
	XML     *BcXml
	Payload *Payload
}

func (*ModernMsg) body() {}

// PayloadKind tags the payload union.
type PayloadKind int

const (
	// PayloadXML means the region parsed as a control document.
	PayloadXML PayloadKind = iota
	// PayloadBinary is the universal fallback: the raw region bytes.
	PayloadBinary
)

// Payload is the trailing region of a modern body. Classification is
// decided by one fallible parse attempt: XML when the bytes parse as a
// control document, binary otherwise.
type Payload struct {
	Kind   PayloadKind
	XML    *BcXml
	Binary []byte
}

// BcContext carries per-stream session state shared across decode calls.
// The message layer itself only threads it through; upper layers use it
// to track which message handles have switched to raw video framing.
// It is not internally synchronized.
type BcContext struct {
	binaryMode map[uint32]struct{}
}

// NewBcContext returns an empty session context.
func NewBcContext() *BcContext {
	return &BcContext{binaryMode: make(map[uint32]struct{})}
}

// SetBinaryMode records that number's stream now sends raw video frames.
func (c *BcContext) SetBinaryMode(msgNum uint32) {
	c.binaryMode[msgNum] = struct{}{}
}

// ClearBinaryMode removes the record for number.
func (c *BcContext) ClearBinaryMode(msgNum uint32) {
	delete(c.binaryMode, msgNum)
}

// InBinaryMode reports whether number's stream is in raw video framing.
func (c *BcContext) InBinaryMode(msgNum uint32) bool {
	_, ok := c.binaryMode[msgNum]
	return ok
}
