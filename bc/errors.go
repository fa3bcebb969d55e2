package bc

import (
	"errors"
	"fmt"
)

// Hard decode errors. A hard error aborts the in-progress decode call;
// the protocol offers no resynchronization, so callers should treat one
// as fatal to the session.
var (
	// ErrBadMagic means the buffer does not start with MagicHeader.
	ErrBadMagic = errors.New("bad magic header")
	// ErrLengthUnderflow means body_len is shorter than payload_offset.
	ErrLengthUnderflow = errors.New("body length shorter than payload offset")
	// ErrInvalidText means a fixed legacy text field held invalid bytes.
	ErrInvalidText = errors.New("invalid text field")
)

// IncompleteError is the soft parser signal: the buffer does not yet hold
// a whole message. It drives the Decoder's read loop and is never
// surfaced to callers as a failure.
type IncompleteError struct {
	// Needed is the exact byte deficit, or 0 when unknown.
	Needed int
}

func (e *IncompleteError) Error() string {
	if e.Needed == 0 {
		return "incomplete message: need more bytes"
	}
	return fmt.Sprintf("incomplete message: need %d more bytes", e.Needed)
}

// Incomplete reports the byte deficit when err is the soft incomplete
// signal. ok is false for hard errors and nil.
func Incomplete(err error) (needed int, ok bool) {
	var ie *IncompleteError
	if errors.As(err, &ie) {
		return ie.Needed, true
	}
	return 0, false
}

func incomplete(n int) error {
	return &IncompleteError{Needed: n}
}
