package neolink

import (
	"time"

	"github.com/mr-onion-2/neolink/bc"
)

// ErrorAction defines the action to take when an error occurs.
type ErrorAction int

const (
	// Disconnect closes the connection when an error occurs.
	Disconnect ErrorAction = iota
	// Continue suppresses the error and continues processing.
	Continue
)

// options holds the configuration for a connection.
type options struct {
	codec  Codec
	logger Logger

	// session is the per-connection decode state shared with the codec.
	session *bc.BcContext

	onMessage func(message *bc.Bc) error
	// onError is called when an error occurs.
	// Returns Disconnect to close the connection, Continue to suppress the error.
	onError func(error) ErrorAction

	bufferSize    int           // size of buffered send channel
	maxReadLength int           // maximum size of a single message
	idleTimeout   time.Duration // idle interval for read/write deadlines
}

// Option is a function that configures connection options.
type Option func(*options)

// CustomCodecOption returns an Option that sets the message codec.
// When omitted, the connection uses the Baichuan codec.
func CustomCodecOption(codec Codec) Option {
	return func(o *options) {
		o.codec = codec
	}
}

// SessionOption returns an Option that supplies the per-connection
// session context threaded into every decode. Callers keep a reference
// when they need to flip message handles into binary video mode.
func SessionOption(session *bc.BcContext) Option {
	return func(o *options) {
		o.session = session
	}
}

// BufferSizeOption returns an Option that sets the size of the send channel buffer.
// A larger buffer allows more messages to be queued before blocking.
func BufferSizeOption(size int) Option {
	return func(o *options) {
		o.bufferSize = size
	}
}

// IdleTimeoutOption returns an Option that sets the idle interval.
// This determines the read/write deadline timeout (idle interval * 2).
func IdleTimeoutOption(idleTimeout time.Duration) Option {
	return func(o *options) {
		o.idleTimeout = idleTimeout
	}
}

// MessageMaxSize returns an Option that sets the maximum message buffer size.
// Messages larger than this size cannot be received.
func MessageMaxSize(size int) Option {
	return func(o *options) {
		o.maxReadLength = size
	}
}

// OnErrorOption returns an Option that sets the error callback.
// The callback is invoked when a read/write error occurs.
// Return Disconnect to close the connection, or Continue to suppress the error.
func OnErrorOption(cb func(error) ErrorAction) Option {
	return func(o *options) {
		o.onError = cb
	}
}

// OnMessageOption returns an Option that sets the message handler callback.
// This callback is required and is invoked for each decoded message.
func OnMessageOption(cb func(message *bc.Bc) error) Option {
	return func(o *options) {
		o.onMessage = cb
	}
}

// LoggerOption returns an Option that sets the logger.
// If not set, the default slog logger will be used.
func LoggerOption(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}
