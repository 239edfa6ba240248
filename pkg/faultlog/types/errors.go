package types

import (
	"fmt"

	"github.com/go-errors/errors"
)

var (
	// ErrMalformedCommand is returned when a raw command fails the
	// structural check applied by the replica.
	ErrMalformedCommand = errors.Errorf("malformed command")

	// ErrMalformedLine is returned when a log line cannot be decoded
	// back into a Command.
	ErrMalformedLine = errors.Errorf("malformed log line")

	// ErrTransportClosed is returned by any transport operation issued
	// after the transport was closed.
	ErrTransportClosed = errors.Errorf("transport closed")

	// ErrSinkClosed is returned when writing to a closed durable sink.
	ErrSinkClosed = errors.Errorf("sink closed")

	// ErrNoCommandSource is returned when a client does not have the
	// recorded commands available.
	ErrNoCommandSource = errors.Errorf("command source unavailable")

	// ErrInvalidConfiguration is returned by the configuration validation.
	ErrInvalidConfiguration = errors.Errorf("invalid configuration")

	// ErrInvalidProcess is returned when addressing a process that does
	// not exist or does not have the expected role.
	ErrInvalidProcess = errors.Errorf("invalid process")

	// ErrUnknownDirective is returned when the controller receives a
	// directive it does not understand.
	ErrUnknownDirective = errors.Errorf("unknown directive")
)

// NewError wraps one of the sentinel errors with a prefix describing
// where it happened, keeping the stack of the caller.
func NewError(sentinel error, format string, args ...interface{}) error {
	return errors.WrapPrefix(sentinel, fmt.Sprintf(format, args...), 1)
}

// Is reports whether the error matches the given sentinel error.
func Is(err error, sentinel error) bool {
	return errors.Is(err, sentinel)
}
