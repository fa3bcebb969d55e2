package neolink

import (
	"io"

	"github.com/mr-onion-2/neolink/bc"
)

// Codec translates between the wire and decoded messages. The default
// codec speaks Baichuan; tests may substitute their own.
//
// Decode owns stream reassembly: it reads exactly the bytes needed for
// one complete message, which is how the connection copes with TCP
// fragmentation. Implementations are called sequentially per connection
// and may keep per-stream state.
type Codec interface {
	// Decode blocks until one whole message has been read from r.
	Decode(r io.Reader) (*bc.Bc, error)
	// Encode renders a message into its wire form.
	Encode(message *bc.Bc) ([]byte, error)
}

// BcCodec is the Baichuan codec. Use one instance per connection: the
// decoder inside holds that stream's accumulation state.
type BcCodec struct {
	decoder *bc.Decoder
}

// NewBcCodec returns a codec bound to the given session context. A nil
// session gets a fresh one.
func NewBcCodec(session *bc.BcContext) *BcCodec {
	return &BcCodec{decoder: bc.NewDecoder(session)}
}

// Session returns the per-connection decode state.
func (c *BcCodec) Session() *bc.BcContext {
	return c.decoder.Context()
}

// Decode reads one Baichuan message from r.
func (c *BcCodec) Decode(r io.Reader) (*bc.Bc, error) {
	return c.decoder.Decode(r)
}

// Encode renders message to its wire form.
func (c *BcCodec) Encode(message *bc.Bc) ([]byte, error) {
	return message.Encode()
}
