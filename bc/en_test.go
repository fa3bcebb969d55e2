package bc

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeLegacyLogin(t *testing.T) {
	msg := &Bc{
		Meta: Meta{MsgID: MsgIDLogin, Class: ClassLegacy, EncOffset: 0x1000000, Encrypted: true},
		Body: LoginMsg{
			Username: "admin" + string(make([]byte, legacyLoginFieldLen-5)),
			Password: string(make([]byte, legacyLoginFieldLen)),
		},
	}

	raw, err := msg.Encode()
	require.NoError(t, err)
	assert.Len(t, raw, headerBaseLen+2*legacyLoginFieldLen)

	decoded, consumed, err := Parse(NewBcContext(), raw)
	require.NoError(t, err)
	assert.Equal(t, len(raw), consumed)
	assert.Equal(t, msg.Meta, decoded.Meta)
	assert.Equal(t, msg.Body, decoded.Body)
}

func TestEncodeLegacyFieldTooLong(t *testing.T) {
	msg := &Bc{
		Meta: Meta{MsgID: MsgIDLogin, Class: ClassLegacy},
		Body: LoginMsg{Username: string(make([]byte, legacyLoginFieldLen+1))},
	}
	_, err := msg.Encode()
	assert.Error(t, err)
}

func TestEncodeDecodeModernEncrypted(t *testing.T) {
	msg := &Bc{
		Meta: Meta{MsgID: MsgIDLogin, Class: ClassModernZero, EncOffset: 0x42, Encrypted: true},
		Body: &ModernMsg{
			XML: &BcXml{
				LoginUser: &LoginUser{Version: "1.1", UserName: "admin", Password: "hash", UserVer: 1},
			},
			Payload: &Payload{Kind: PayloadBinary, Binary: bytes.Repeat([]byte{0x9c}, 48)},
		},
	}

	raw, err := msg.Encode()
	require.NoError(t, err)

	decoded, consumed, err := Parse(NewBcContext(), raw)
	require.NoError(t, err)
	assert.Equal(t, len(raw), consumed)
	assert.Equal(t, msg.Meta, decoded.Meta)

	body, ok := decoded.Body.(*ModernMsg)
	require.True(t, ok)
	require.NotNil(t, body.XML)
	require.NotNil(t, body.XML.LoginUser)
	assert.Equal(t, "admin", body.XML.LoginUser.UserName)
	require.NotNil(t, body.Payload)
	assert.Equal(t, PayloadBinary, body.Payload.Kind)
	assert.Equal(t, bytes.Repeat([]byte{0x9c}, 48), body.Payload.Binary)
}

func TestEncodeDecodeModernXmlPayload(t *testing.T) {
	msg := &Bc{
		Meta: Meta{MsgID: MsgIDVideo, Class: ClassModernZero},
		Body: &ModernMsg{
			XML: &BcXml{Preview: &Preview{Version: "1.1", Handle: 1, StreamType: "mainStream"}},
			Payload: &Payload{
				Kind: PayloadXML,
				XML:  &BcXml{LoginNet: &LoginNet{Version: "1.1", Type: "LAN"}},
			},
		},
	}

	raw, err := msg.Encode()
	require.NoError(t, err)

	decoded, _, err := Parse(NewBcContext(), raw)
	require.NoError(t, err)

	body, ok := decoded.Body.(*ModernMsg)
	require.True(t, ok)
	require.NotNil(t, body.Payload)
	// The payload region parses as a control document, so it classifies
	// as XML, not binary.
	assert.Equal(t, PayloadXML, body.Payload.Kind)
	require.NotNil(t, body.Payload.XML)
	require.NotNil(t, body.Payload.XML.LoginNet)
	assert.Equal(t, "LAN", body.Payload.XML.LoginNet.Type)
}

func TestEncodePayloadNeedsExtendedHeader(t *testing.T) {
	msg := &Bc{
		Meta: Meta{MsgID: MsgIDVideo, Class: ClassModern},
		Body: &ModernMsg{
			Payload: &Payload{Kind: PayloadBinary, Binary: []byte{1, 2, 3}},
		},
	}
	_, err := msg.Encode()
	assert.Error(t, err)
}

func TestSerializeWritesEncoding(t *testing.T) {
	msg := &Bc{
		Meta: Meta{MsgID: MsgIDLogin, Class: ClassModernZero},
		Body: &ModernMsg{},
	}

	var buf bytes.Buffer
	require.NoError(t, msg.Serialize(&buf))

	raw, err := msg.Encode()
	require.NoError(t, err)
	assert.Equal(t, raw, buf.Bytes())
}
