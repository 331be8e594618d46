package wire

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"
)

const (
	readBufSize  = 512
	pollInterval = time.Millisecond
)

// Reader is a buffered reader over the device stream. It assumes serial
// read semantics: a read may return (0, nil) when no data is pending, so
// every blocking method polls against its own deadline. The buffer doubles
// as the varint look-ahead; bytes read past a length prefix stay buffered
// for the payload that follows.
type Reader struct {
	r       io.Reader
	timeout time.Duration
	buf     []byte
	start   int
	end     int
}

// NewReader wraps r. timeout bounds every blocking call.
func NewReader(r io.Reader, timeout time.Duration) *Reader {
	return &Reader{r: r, timeout: timeout, buf: make([]byte, readBufSize)}
}

// Buffered reports how many read-ahead bytes are pending.
func (r *Reader) Buffered() int { return r.end - r.start }

// fill blocks until at least one new byte is buffered. One Read call per
// attempt; a (0, nil) result means the port timed out empty, so poll again
// until the deadline.
func (r *Reader) fill(deadline time.Time) error {
	if r.start == r.end {
		r.start, r.end = 0, 0
	} else if r.end == len(r.buf) {
		copy(r.buf, r.buf[r.start:r.end])
		r.end -= r.start
		r.start = 0
	}
	for {
		n, err := r.r.Read(r.buf[r.end:])
		r.end += n
		if n > 0 {
			return nil
		}
		if err != nil {
			return err
		}
		if !time.Now().Before(deadline) {
			return ErrTimeout
		}
		time.Sleep(pollInterval)
	}
}

// DrainUntil consumes and discards stream bytes until marker has been seen,
// handling markers that straddle read-chunk boundaries. The shell buffer
// may hold stale output from a previous session, so draining to a known
// marker is the only reliable way to establish a clean read position.
func (r *Reader) DrainUntil(marker []byte) error {
	if len(marker) == 0 {
		return nil
	}
	deadline := time.Now().Add(r.timeout)
	window := make([]byte, 0, readBufSize+len(marker))
	carry := make([]byte, 0, len(marker))
	for {
		if r.Buffered() == 0 {
			if err := r.fill(deadline); err != nil {
				if errors.Is(err, ErrTimeout) {
					return fmt.Errorf("%w: draining for %q", ErrTimeout, marker)
				}
				return fmt.Errorf("wire: draining for %q: %w", marker, err)
			}
		}
		window = append(append(window[:0], carry...), r.buf[r.start:r.end]...)
		r.start = r.end
		if bytes.Contains(window, marker) {
			return nil
		}
		tail := len(marker) - 1
		if len(window) < tail {
			tail = len(window)
		}
		carry = append(carry[:0], window[len(window)-tail:]...)
	}
}

// ReadFull fills p entirely or fails; it never returns a short read
// silently. Buffered look-ahead is consumed first, the remainder is read
// straight into p.
func (r *Reader) ReadFull(p []byte) error {
	deadline := time.Now().Add(r.timeout)
	n := copy(p, r.buf[r.start:r.end])
	r.start += n
	for n < len(p) {
		m, err := r.r.Read(p[n:])
		n += m
		if err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return fmt.Errorf("wire: read %d of %d payload bytes: %w", n, len(p), err)
		}
		if m == 0 {
			if !time.Now().Before(deadline) {
				return fmt.Errorf("%w: read %d of %d payload bytes", ErrTimeout, n, len(p))
			}
			time.Sleep(pollInterval)
		}
	}
	return nil
}

// ReadByte implements io.ByteReader so DecodeUvarint can run against the
// same stream position as the fast path.
func (r *Reader) ReadByte() (byte, error) {
	if r.Buffered() == 0 {
		if err := r.fill(time.Now().Add(r.timeout)); err != nil {
			return 0, err
		}
	}
	c := r.buf[r.start]
	r.start++
	return c, nil
}

// ReadUvarint decodes a length prefix with a bounded number of read calls:
// the first fill typically brings in the whole varint plus the head of the
// payload, which stays buffered for the ReadFull that follows. Most frames
// therefore cost two reads total, length included.
func (r *Reader) ReadUvarint() (uint64, error) {
	deadline := time.Now().Add(r.timeout)
	for {
		v, n := Uvarint(r.buf[r.start:r.end])
		if n > 0 {
			r.start += n
			return v, nil
		}
		if n < 0 {
			return 0, ErrMalformedVarint
		}
		if err := r.fill(deadline); err != nil {
			return 0, err
		}
	}
}
