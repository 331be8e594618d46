// Package transport provides the byte streams a session runs over: the
// serial port itself, a WebSocket bridge for serial-over-network setups,
// and an in-memory pair for tests.
package transport

import "io"

// Stream is the byte-oriented link to the device. Implementations follow
// serial read semantics: when no data is pending, Read returns (0, nil)
// after the port's poll interval rather than blocking forever. The session
// layer owns the stream exclusively.
type Stream interface {
	io.ReadWriteCloser
}
