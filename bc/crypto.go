package bc

// xmlKey is the fixed 8-byte schedule the firmware uses for body
// scrambling, recovered from device captures.
var xmlKey = [8]byte{0x1f, 0x2d, 0x3c, 0x4b, 0x5a, 0x69, 0x78, 0xff}

// Crypt applies the offset-keyed obfuscation transform to buf and returns
// a new slice. The transform is symmetric and length-preserving: applying
// it twice with the same offset yields the input. It is an obfuscation,
// not a cipher.
//
// Each segment of a message body is keyed independently from position
// zero, so the XML and payload regions must be passed through separately.
func Crypt(offset uint32, buf []byte) []byte {
	out := make([]byte, len(buf))
	for i, b := range buf {
		key := xmlKey[(uint64(i)+uint64(offset))%8] ^ byte(offset)
		out[i] = b ^ key
	}
	return out
}
