package transport

import (
	"bytes"
	"io"
	"sync"
	"time"
)

// MockStream is an in-memory Stream with serial read semantics, for tests.
// Use Pair to get two connected ends: one plays the client, the other the
// device.
type MockStream struct {
	in  *mockBuffer
	out *mockBuffer
}

type mockBuffer struct {
	mu     sync.Mutex
	buf    bytes.Buffer
	closed bool
}

// Pair returns two connected streams: what one writes, the other reads.
func Pair() (*MockStream, *MockStream) {
	a := &mockBuffer{}
	b := &mockBuffer{}
	return &MockStream{in: a, out: b}, &MockStream{in: b, out: a}
}

// Read returns pending bytes, or (0, nil) after a short poll when the peer
// has written nothing — the same shape a serial port read has.
func (s *MockStream) Read(p []byte) (int, error) {
	s.in.mu.Lock()
	if s.in.buf.Len() == 0 {
		closed := s.in.closed
		s.in.mu.Unlock()
		if closed {
			return 0, io.EOF
		}
		time.Sleep(time.Millisecond)
		return 0, nil
	}
	n, _ := s.in.buf.Read(p)
	s.in.mu.Unlock()
	return n, nil
}

func (s *MockStream) Write(p []byte) (int, error) {
	s.out.mu.Lock()
	defer s.out.mu.Unlock()
	if s.out.closed {
		return 0, io.ErrClosedPipe
	}
	return s.out.buf.Write(p)
}

// Close marks this end closed; the peer sees EOF once it drains what was
// already written.
func (s *MockStream) Close() error {
	s.out.mu.Lock()
	s.out.closed = true
	s.out.mu.Unlock()
	return nil
}

var _ Stream = (*MockStream)(nil)
var _ Stream = (*WSStream)(nil)
