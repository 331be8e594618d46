package transport

import (
	"fmt"
	"time"

	"go.bug.st/serial"
)

// DefaultBaud is the device's USB-CDC rate. The CDC-ACM class abstracts the
// actual signalling, so the value does not affect correctness.
const DefaultBaud = 115200

// portPoll is the per-Read timeout set on the port. Short on purpose: the
// wire reader layers its own deadline on top and polls, so a small value
// here keeps drain loops responsive without busy-waiting.
const portPoll = 50 * time.Millisecond

// OpenSerial opens the named port (/dev/ttyACM0, COM3, ...) in raw mode.
// Discovery of ports is the caller's problem; only a concrete name is
// accepted here.
func OpenSerial(name string, baud int) (Stream, error) {
	if baud <= 0 {
		baud = DefaultBaud
	}
	port, err := serial.Open(name, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("transport: opening %s: %w", name, err)
	}
	if err := port.SetReadTimeout(portPoll); err != nil {
		port.Close()
		return nil, fmt.Errorf("transport: configuring %s: %w", name, err)
	}
	return port, nil
}
