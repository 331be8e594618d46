// Package devicetest runs a scripted device on the far end of an in-memory
// stream, for exercising sessions and storage operations without hardware.
package devicetest

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/devlink-io/devlink/internal/transport"
	"github.com/devlink-io/devlink/internal/wire"
	"github.com/devlink-io/devlink/pkg/protocol"
)

var errTimeout = errors.New("devicetest: timed out waiting for mode command")

func errBadCommand(got []byte) error {
	return fmt.Errorf("devicetest: unexpected shell input %q", got)
}

// Handler produces the reply chain for one received envelope. Returning no
// envelopes sends nothing, which a client read will see as a timeout.
type Handler func(env protocol.Envelope) []protocol.Envelope

// Device is the far end of a transport.Pair: it speaks the shell handshake
// once, then serves frames through its Handler until closed.
type Device struct {
	stream  *transport.MockStream
	handler Handler

	mu       sync.Mutex
	received []protocol.Envelope
	err      error

	done chan struct{}
}

// Start wires a device to a fresh stream pair and returns the client end
// alongside it. Banner is written before the shell prompt so handshakes
// must drain stale output.
func Start(banner string, handler Handler) (*transport.MockStream, *Device) {
	client, far := transport.Pair()
	d := &Device{stream: far, handler: handler, done: make(chan struct{})}
	go d.run(banner)
	return client, d
}

func (d *Device) run(banner string) {
	defer close(d.done)

	d.stream.Write([]byte(banner))
	d.stream.Write([]byte(">: "))

	// The mode command ends in a bare CR; read until it arrives and fail
	// on anything else, a trailing LF included.
	want := []byte("start_rpc_session\r")
	var got []byte
	buf := make([]byte, 64)
	deadline := time.Now().Add(2 * time.Second)
	for !bytes.Equal(got, want) {
		if time.Now().After(deadline) {
			d.fail(errTimeout)
			return
		}
		n, err := d.stream.Read(buf)
		if err != nil {
			d.fail(err)
			return
		}
		got = append(got, buf[:n]...)
		if len(got) > len(want) || !bytes.HasPrefix(want, got) {
			d.fail(errBadCommand(got))
			return
		}
	}
	d.stream.Write([]byte("\n"))

	r := wire.NewReader(d.stream, 2*time.Second)
	for {
		payload, err := wire.ReadFrame(r)
		if err != nil {
			return
		}
		env, err := protocol.Unmarshal(payload)
		if err != nil {
			d.fail(err)
			return
		}
		d.mu.Lock()
		d.received = append(d.received, env)
		d.mu.Unlock()
		for _, reply := range d.handler(env) {
			if err := wire.WriteFrame(d.stream, reply.Marshal()); err != nil {
				return
			}
		}
	}
}

func (d *Device) fail(err error) {
	d.mu.Lock()
	d.err = err
	d.mu.Unlock()
}

// Received returns every envelope the device has decoded so far.
func (d *Device) Received() []protocol.Envelope {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]protocol.Envelope(nil), d.received...)
}

// Err reports a scripting failure seen by the device loop, such as a
// malformed mode command.
func (d *Device) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}

// Close shuts the device side of the stream and waits for its loop.
func (d *Device) Close() {
	d.stream.Close()
	<-d.done
}
