package wire

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

// chunkStream serves a script of chunks, one per Read call, then behaves
// like an idle serial port: (0, nil) forever.
type chunkStream struct {
	chunks [][]byte
	reads  int
}

func (s *chunkStream) Read(p []byte) (int, error) {
	s.reads++
	if len(s.chunks) == 0 {
		return 0, nil
	}
	n := copy(p, s.chunks[0])
	if n < len(s.chunks[0]) {
		s.chunks[0] = s.chunks[0][n:]
	} else {
		s.chunks = s.chunks[1:]
	}
	return n, nil
}

func TestDrainUntilMarkerInOneChunk(t *testing.T) {
	s := &chunkStream{chunks: [][]byte{[]byte("stale shell output\r\n>: ")}}
	r := NewReader(s, time.Second)
	if err := r.DrainUntil([]byte(">: ")); err != nil {
		t.Fatalf("DrainUntil: %v", err)
	}
}

func TestDrainUntilMarkerStraddlesChunks(t *testing.T) {
	s := &chunkStream{chunks: [][]byte{
		[]byte("some junk>"),
		[]byte(":"),
		[]byte(" trailing"),
	}}
	r := NewReader(s, time.Second)
	if err := r.DrainUntil([]byte(">: ")); err != nil {
		t.Fatalf("DrainUntil: %v", err)
	}
}

func TestDrainUntilTimeout(t *testing.T) {
	const timeout = 50 * time.Millisecond
	r := NewReader(&chunkStream{}, timeout)
	start := time.Now()
	err := r.DrainUntil([]byte(">: "))
	elapsed := time.Since(start)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
	if elapsed < timeout {
		t.Fatalf("failed after %v, before the %v window", elapsed, timeout)
	}
}

func TestReadFullAcrossChunks(t *testing.T) {
	s := &chunkStream{chunks: [][]byte{{1, 2}, {3}, {4, 5, 6}}}
	r := NewReader(s, time.Second)
	buf := make([]byte, 6)
	if err := r.ReadFull(buf); err != nil {
		t.Fatalf("ReadFull: %v", err)
	}
	if !bytes.Equal(buf, []byte{1, 2, 3, 4, 5, 6}) {
		t.Fatalf("buf = %v", buf)
	}
}

func TestReadFullTimeoutOnShortStream(t *testing.T) {
	s := &chunkStream{chunks: [][]byte{{1, 2}}}
	r := NewReader(s, 50*time.Millisecond)
	buf := make([]byte, 4)
	if err := r.ReadFull(buf); !errors.Is(err, ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
}

func TestReadByteConsumesLookAhead(t *testing.T) {
	s := &chunkStream{chunks: [][]byte{{0xAA, 0xBB}}}
	r := NewReader(s, time.Second)
	for _, want := range []byte{0xAA, 0xBB} {
		c, err := r.ReadByte()
		if err != nil {
			t.Fatalf("ReadByte: %v", err)
		}
		if c != want {
			t.Fatalf("ReadByte = %#x, want %#x", c, want)
		}
	}
}
