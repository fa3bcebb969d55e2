package bc

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// Encode returns the wire form of the message. Body length and, for
// extended-header classes, payload_offset are computed from the actual
// segment lengths, so a decode of the result round-trips.
func (b *Bc) Encode() ([]byte, error) {
	body, payloadOffset, err := b.encodeBody()
	if err != nil {
		return nil, err
	}

	buf := bytes.NewBuffer(make([]byte, 0, headerExtLen+len(body)))
	le := binary.LittleEndian
	buf.Write(le.AppendUint32(nil, MagicHeader))
	buf.Write(le.AppendUint32(nil, b.Meta.MsgID))
	buf.Write(le.AppendUint32(nil, uint32(len(body))))
	buf.Write(le.AppendUint32(nil, b.Meta.EncOffset))
	if b.Meta.Encrypted {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
	buf.WriteByte(0) // reserved
	buf.Write(le.AppendUint16(nil, b.Meta.Class))
	if hasPayloadOffset(b.Meta.Class) {
		buf.Write(le.AppendUint32(nil, payloadOffset))
	}
	buf.Write(body)
	return buf.Bytes(), nil
}

// Serialize writes the wire form of the message to w.
func (b *Bc) Serialize(w io.Writer) error {
	data, err := b.Encode()
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return errors.Wrap(err, "write message")
}

func (b *Bc) encodeBody() (body []byte, payloadOffset uint32, err error) {
	switch msg := b.Body.(type) {
	case LoginMsg:
		return encodeLegacyLogin(msg)
	case UnknownMsg:
		return nil, 0, nil
	case *ModernMsg:
		return b.encodeModern(msg)
	default:
		return nil, 0, errors.Errorf("unhandled body type %T", b.Body)
	}
}

func encodeLegacyLogin(msg LoginMsg) ([]byte, uint32, error) {
	if len(msg.Username) > legacyLoginFieldLen {
		return nil, 0, errors.Errorf("legacy username longer than %d bytes", legacyLoginFieldLen)
	}
	if len(msg.Password) > legacyLoginFieldLen {
		return nil, 0, errors.Errorf("legacy password longer than %d bytes", legacyLoginFieldLen)
	}
	out := make([]byte, 2*legacyLoginFieldLen)
	copy(out[:legacyLoginFieldLen], msg.Username)
	copy(out[legacyLoginFieldLen:], msg.Password)
	return out, 0, nil
}

func (b *Bc) encodeModern(msg *ModernMsg) ([]byte, uint32, error) {
	var xmlBuf []byte
	if msg.XML != nil {
		data, err := msg.XML.Serialize()
		if err != nil {
			return nil, 0, err
		}
		xmlBuf = data
	}

	var payloadBuf []byte
	if msg.Payload != nil {
		switch msg.Payload.Kind {
		case PayloadXML:
			data, err := msg.Payload.XML.Serialize()
			if err != nil {
				return nil, 0, err
			}
			payloadBuf = data
		case PayloadBinary:
			payloadBuf = msg.Payload.Binary
		default:
			return nil, 0, errors.Errorf("unhandled payload kind %d", msg.Payload.Kind)
		}
	}

	// Without the extended header word there is no way to declare where
	// the payload region starts, so such classes cannot carry one.
	if len(payloadBuf) > 0 && !hasPayloadOffset(b.Meta.Class) {
		return nil, 0, errors.Errorf("class 0x%04x cannot carry a trailing payload", b.Meta.Class)
	}

	if b.Meta.IsEncrypted() {
		// Segments are scrambled independently, each from position zero.
		xmlBuf = Crypt(b.Meta.EncOffset, xmlBuf)
		payloadBuf = Crypt(b.Meta.EncOffset, payloadBuf)
	}

	out := make([]byte, 0, len(xmlBuf)+len(payloadBuf))
	out = append(out, xmlBuf...)
	out = append(out, payloadBuf...)
	return out, uint32(len(xmlBuf)), nil
}
