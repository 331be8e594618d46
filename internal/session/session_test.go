package session

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/devlink-io/devlink/internal/devicetest"
	"github.com/devlink-io/devlink/internal/transport"
	"github.com/devlink-io/devlink/internal/wire"
	"github.com/devlink-io/devlink/pkg/protocol"
)

func echoHandler(env protocol.Envelope) []protocol.Envelope {
	switch c := env.Content.(type) {
	case protocol.PingRequest:
		return []protocol.Envelope{{
			CommandID: env.CommandID,
			Content:   protocol.PingResponse{Data: c.Data},
		}}
	default:
		return []protocol.Envelope{{CommandID: env.CommandID, Content: protocol.Empty{}}}
	}
}

func TestOpenHandshake(t *testing.T) {
	stream, dev := devicetest.Start("boot log line\nanother line\n", echoHandler)
	defer dev.Close()

	s, err := Open(stream, time.Second, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	if err := dev.Err(); err != nil {
		t.Fatalf("device rejected handshake: %v", err)
	}

	data, err := s.Ping([]byte{0xDE, 0xAD})
	if err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if !bytes.Equal(data, []byte{0xDE, 0xAD}) {
		t.Fatalf("ping echoed %x", data)
	}
}

// The shell accepts the mode command with a bare carriage return; a line
// feed after it would be taken as a second, empty command.
func TestOpenSendsBareCarriageReturn(t *testing.T) {
	client, far := transport.Pair()
	defer far.Close()

	go func() {
		far.Write([]byte(">: "))
		buf := make([]byte, 64)
		var got []byte
		for !bytes.HasSuffix(got, []byte("\r")) {
			n, err := far.Read(buf)
			if err != nil {
				return
			}
			got = append(got, buf[:n]...)
		}
		if string(got) == "start_rpc_session\r" {
			far.Write([]byte("\n"))
		}
	}()

	s, err := Open(client, time.Second, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	s.Close()
}

func TestOpenTimesOutWithoutPrompt(t *testing.T) {
	client, far := transport.Pair()
	defer far.Close()
	far.Write([]byte("no prompt here"))

	_, err := Open(client, 50*time.Millisecond, nil)
	if !errors.Is(err, wire.ErrTimeout) {
		t.Fatalf("Open error = %v, want timeout", err)
	}
}

func TestCommandIndicesIncrease(t *testing.T) {
	stream, dev := devicetest.Start("", echoHandler)
	defer dev.Close()

	s, err := Open(stream, time.Second, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	for i := 0; i < 3; i++ {
		if _, err := s.Ping(nil); err != nil {
			t.Fatalf("ping %d: %v", i, err)
		}
	}
	seen := dev.Received()
	if len(seen) != 3 {
		t.Fatalf("device saw %d envelopes, want 3", len(seen))
	}
	for i, env := range seen {
		if env.CommandID != uint32(i+1) {
			t.Fatalf("envelope %d carried index %d", i, env.CommandID)
		}
	}
}

func TestCollectReassemblesChain(t *testing.T) {
	stream, dev := devicetest.Start("", func(env protocol.Envelope) []protocol.Envelope {
		return []protocol.Envelope{
			{CommandID: env.CommandID, HasNext: true, Content: protocol.ReadResponse{File: &protocol.File{Data: []byte("ab")}}},
			{CommandID: env.CommandID, HasNext: true, Content: protocol.ReadResponse{File: &protocol.File{Data: []byte("cd")}}},
			{CommandID: env.CommandID, Content: protocol.ReadResponse{File: &protocol.File{Data: []byte("e")}}},
		}
	})
	defer dev.Close()

	s, err := Open(stream, time.Second, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	envs, err := s.Command(protocol.ReadRequest{Path: "/ext/f"})
	if err != nil {
		t.Fatalf("Command: %v", err)
	}
	if len(envs) != 3 {
		t.Fatalf("collected %d envelopes, want 3", len(envs))
	}
	var joined []byte
	for _, env := range envs {
		joined = append(joined, env.Content.(protocol.ReadResponse).File.Data...)
	}
	if string(joined) != "abcde" {
		t.Fatalf("reassembled %q", joined)
	}
}

func TestMismatchedIndexBreaksSession(t *testing.T) {
	stream, dev := devicetest.Start("", func(env protocol.Envelope) []protocol.Envelope {
		return []protocol.Envelope{{CommandID: env.CommandID + 7, Content: protocol.Empty{}}}
	})
	defer dev.Close()

	s, err := Open(stream, time.Second, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	_, err = s.Roundtrip(protocol.PingRequest{})
	if !errors.Is(err, ErrDesync) {
		t.Fatalf("error = %v, want ErrDesync", err)
	}
	if _, err := s.Begin(protocol.PingRequest{}, false); !errors.Is(err, ErrBroken) {
		t.Fatalf("Begin after desync = %v, want ErrBroken", err)
	}
}

func TestDeviceErrorKeepsSessionUsable(t *testing.T) {
	calls := 0
	stream, dev := devicetest.Start("", func(env protocol.Envelope) []protocol.Envelope {
		calls++
		if calls == 1 {
			return []protocol.Envelope{{
				CommandID: env.CommandID,
				Status:    protocol.StatusErrorStorageNotExist,
				Content:   protocol.Empty{},
			}}
		}
		return echoHandler(env)
	})
	defer dev.Close()

	s, err := Open(stream, time.Second, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	_, err = s.Roundtrip(protocol.StatRequest{Path: "/ext/missing"})
	var derr *protocol.DeviceError
	if !errors.As(err, &derr) {
		t.Fatalf("error = %v, want device error", err)
	}
	if derr.Status != protocol.StatusErrorStorageNotExist {
		t.Fatalf("status = %v", derr.Status)
	}

	if _, err := s.Ping(nil); err != nil {
		t.Fatalf("ping after device error: %v", err)
	}
}

func TestIndexExhaustion(t *testing.T) {
	stream, dev := devicetest.Start("", echoHandler)
	defer dev.Close()

	s, err := Open(stream, time.Second, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	s.next = 1<<32 - 1
	if _, err := s.Begin(protocol.PingRequest{}, false); !errors.Is(err, ErrIndexExhausted) {
		t.Fatalf("Begin = %v, want ErrIndexExhausted", err)
	}
}
