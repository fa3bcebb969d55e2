package bc

import (
	"encoding/xml"

	"github.com/pkg/errors"
)

// xmlProlog is the declaration the cameras emit before every document.
const xmlProlog = `<?xml version="1.0" encoding="UTF-8" ?>` + "\n"

// BcXml is the XML control document carried by modern messages. Every
// child is optional; which ones appear depends on the message id. The
// decoder does not validate semantics beyond XML syntax.
type BcXml struct {
	XMLName     xml.Name     `xml:"body"`
	Encryption  *Encryption  `xml:"Encryption,omitempty"`
	LoginUser   *LoginUser   `xml:"LoginUser,omitempty"`
	LoginNet    *LoginNet    `xml:"LoginNet,omitempty"`
	DeviceInfo  *DeviceInfo  `xml:"DeviceInfo,omitempty"`
	VersionInfo *VersionInfo `xml:"VersionInfo,omitempty"`
	Preview     *Preview     `xml:"Preview,omitempty"`
}

// Encryption is the camera's login challenge.
type Encryption struct {
	Version string `xml:"version,attr"`
	Type    string `xml:"type"`
	Nonce   string `xml:"nonce"`
}

// LoginUser carries hashed credentials on a modern login.
type LoginUser struct {
	Version  string `xml:"version,attr"`
	UserName string `xml:"userName"`
	Password string `xml:"password"`
	UserVer  uint32 `xml:"userVer"`
}

// LoginNet describes the client's transport preferences.
type LoginNet struct {
	Version string `xml:"version,attr"`
	Type    string `xml:"type"`
	UDPPort uint16 `xml:"udpPort"`
}

// DeviceInfo is the camera's self-description in a login reply.
type DeviceInfo struct {
	Resolution Resolution `xml:"resolution"`
}

// Resolution is the stream geometry advertised by the device.
type Resolution struct {
	Name   string `xml:"resolutionName"`
	Width  uint32 `xml:"width"`
	Height uint32 `xml:"height"`
}

// VersionInfo identifies the device firmware.
type VersionInfo struct {
	Name            string `xml:"name"`
	SerialNumber    string `xml:"serialNumber"`
	BuildDay        string `xml:"buildDay"`
	HardwareVersion string `xml:"hardwareVersion"`
	CfgVersion      string `xml:"cfgVersion"`
	FirmwareVersion string `xml:"firmwareVersion"`
}

// Preview starts or describes a video stream.
type Preview struct {
	Version    string `xml:"version,attr"`
	ChannelID  uint8  `xml:"channelId"`
	Handle     uint32 `xml:"handle"`
	StreamType string `xml:"streamType"`
}

// ParseXml parses one control document. The root element must be <body>;
// trailing bytes after the document (devices pad with NULs) are ignored.
func ParseXml(b []byte) (*BcXml, error) {
	var doc BcXml
	if err := xml.Unmarshal(b, &doc); err != nil {
		return nil, errors.Wrap(err, "parse body xml")
	}
	return &doc, nil
}

// ParsePayloadXml parses the trailing payload region as a control
// document. The message varieties valid here differ from the control
// region, but the wire grammar is the same; callers treat failure as
// "the payload is binary", never as a decode error.
func ParsePayloadXml(b []byte) (*BcXml, error) {
	return ParseXml(b)
}

// Serialize renders the document the way the cameras do: declaration
// first, then the <body> element.
func (x *BcXml) Serialize() ([]byte, error) {
	data, err := xml.Marshal(x)
	if err != nil {
		return nil, errors.Wrap(err, "serialize body xml")
	}
	out := make([]byte, 0, len(xmlProlog)+len(data)+1)
	out = append(out, xmlProlog...)
	out = append(out, data...)
	out = append(out, '\n')
	return out, nil
}
