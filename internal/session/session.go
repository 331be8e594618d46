// Package session owns one open stream to a device: the handshake that
// moves it from its text shell into protocol mode, the monotonic command
// index, and the correlation of multi-frame exchanges.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/devlink-io/devlink/internal/transport"
	"github.com/devlink-io/devlink/internal/wire"
	"github.com/devlink-io/devlink/pkg/protocol"
)

// DefaultTimeout bounds every blocking read. Large on purpose: chunked
// operations on big files keep the device busy for a while between frames.
const DefaultTimeout = 10 * time.Second

const (
	shellPrompt = ">: "

	// startCommand must end in a carriage return only. The device shell
	// rejects the command when a line feed follows the CR.
	startCommand = "start_rpc_session\r"
)

// Session is the protocol-mode connection. It owns the stream exclusively
// and supports one in-flight exchange at a time; concurrent callers must
// serialize access themselves.
type Session struct {
	stream  transport.Stream
	r       *wire.Reader
	log     *slog.Logger
	timeout time.Duration
	next    uint32
	broken  bool
}

// Open performs the shell-to-protocol handshake on stream and returns a
// ready session. The sequence is linear: drain stale shell output up to the
// prompt, issue the mode command, wait for the accepting line feed. Any
// failure is terminal; discard the stream and reconnect rather than retry.
func Open(stream transport.Stream, timeout time.Duration, log *slog.Logger) (*Session, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = slog.Default()
	}
	r := wire.NewReader(stream, timeout)

	log.Debug("draining shell output", "marker", shellPrompt)
	if err := r.DrainUntil([]byte(shellPrompt)); err != nil {
		return nil, fmt.Errorf("session: waiting for shell prompt: %w", err)
	}

	log.Debug("entering protocol mode")
	if _, err := stream.Write([]byte(startCommand)); err != nil {
		return nil, fmt.Errorf("session: sending mode command: %w", err)
	}
	if err := r.DrainUntil([]byte{'\n'}); err != nil {
		return nil, fmt.Errorf("session: confirming protocol mode: %w", err)
	}

	log.Debug("session ready")
	return &Session{stream: stream, r: r, log: log, timeout: timeout}, nil
}

// nextIndex hands out the identifier for one logical exchange. Indices are
// never reused within a session; on exhaustion the session must be
// reopened, since wrapped indices would blind desync detection.
func (s *Session) nextIndex() (uint32, error) {
	if s.next == math.MaxUint32 {
		return 0, ErrIndexExhausted
	}
	s.next++
	return s.next, nil
}

// Begin assigns a command index and sends the first request frame of an
// exchange. hasNext marks it as the start of a multi-frame request chain.
func (s *Session) Begin(c protocol.Content, hasNext bool) (*Exchange, error) {
	if s.broken {
		return nil, ErrBroken
	}
	id, err := s.nextIndex()
	if err != nil {
		return nil, err
	}
	s.log.Debug("exchange begin", "id", id, "content", fmt.Sprintf("%T", c))
	x := &Exchange{s: s, id: id}
	if err := x.send(c, hasNext); err != nil {
		return nil, err
	}
	return x, nil
}

// Command runs one complete single-request exchange and returns every
// envelope of the reply chain in arrival order.
func (s *Session) Command(c protocol.Content) ([]protocol.Envelope, error) {
	x, err := s.Begin(c, false)
	if err != nil {
		return nil, err
	}
	return x.Collect()
}

// Roundtrip is Command for operations whose reply is a single frame; it
// returns the terminal envelope.
func (s *Session) Roundtrip(c protocol.Content) (protocol.Envelope, error) {
	envs, err := s.Command(c)
	if err != nil {
		return protocol.Envelope{}, err
	}
	return envs[len(envs)-1], nil
}

// Ping round-trips data through the device. With nil data it doubles as
// the keep-alive injected during long transfers; it always runs on its own
// command index so it cannot be confused with a transfer exchange.
func (s *Session) Ping(data []byte) ([]byte, error) {
	env, err := s.Roundtrip(protocol.PingRequest{Data: data})
	if err != nil {
		return nil, err
	}
	res, ok := env.Content.(protocol.PingResponse)
	if !ok {
		return nil, fmt.Errorf("session: ping answered with %T", env.Content)
	}
	return res.Data, nil
}

// Close tells the device to drop back to its shell, best effort, then
// closes the stream.
func (s *Session) Close() error {
	if !s.broken {
		// The device acknowledges on its shell, not in protocol mode, so
		// there is no reply frame to collect.
		_, _ = s.Begin(protocol.StopSession{}, false)
	}
	return s.stream.Close()
}

// Exchange is one correlated request/response interaction. Every frame of
// the exchange, in both directions, carries the same command index.
type Exchange struct {
	s    *Session
	id   uint32
	done bool
}

// ID returns the command index assigned to this exchange.
func (x *Exchange) ID() uint32 { return x.id }

// Send transmits a continuation frame of a multi-frame request. hasNext
// must be false on the final frame.
func (x *Exchange) Send(c protocol.Content, hasNext bool) error {
	if x.s.broken {
		return ErrBroken
	}
	return x.send(c, hasNext)
}

func (x *Exchange) send(c protocol.Content, hasNext bool) error {
	env := protocol.Envelope{CommandID: x.id, HasNext: hasNext, Content: c}
	if err := wire.WriteFrame(x.s.stream, env.Marshal()); err != nil {
		x.s.broken = true
		return fmt.Errorf("session: %w", err)
	}
	return nil
}

// Next reads one reply frame. The exchange is finished when the returned
// envelope's HasNext is false; a non-OK status on that terminal frame
// surfaces as a *protocol.DeviceError, which leaves the session usable.
// A frame carrying a different command index means client and device have
// lost agreement on what is in flight, which is fatal for the session.
func (x *Exchange) Next() (protocol.Envelope, error) {
	if x.done {
		return protocol.Envelope{}, ErrExchangeDone
	}
	payload, err := wire.ReadFrame(x.s.r)
	if err != nil {
		// After a timeout the caller may choose to keep the session; every
		// other read failure leaves the stream position unknowable.
		if !errors.Is(err, wire.ErrTimeout) {
			x.s.broken = true
		}
		return protocol.Envelope{}, fmt.Errorf("session: %w", err)
	}
	env, err := protocol.Unmarshal(payload)
	if err != nil {
		x.s.broken = true
		return protocol.Envelope{}, fmt.Errorf("session: %w", err)
	}
	if env.CommandID != x.id {
		x.s.broken = true
		return protocol.Envelope{}, fmt.Errorf("%w: awaiting %d, got %d", ErrDesync, x.id, env.CommandID)
	}
	if !env.HasNext {
		x.done = true
		if err := env.Status.Err(); err != nil {
			return env, err
		}
	}
	return env, nil
}

// Collect drains the reply chain: frames are consumed while HasNext holds,
// and the assembled chain is returned once the terminal frame arrives.
func (x *Exchange) Collect() ([]protocol.Envelope, error) {
	var envs []protocol.Envelope
	for {
		env, err := x.Next()
		if err != nil {
			return nil, err
		}
		envs = append(envs, env)
		if !env.HasNext {
			return envs, nil
		}
	}
}
