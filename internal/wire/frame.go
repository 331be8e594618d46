package wire

import (
	"fmt"
	"io"
)

// MaxFrameLen caps a single frame payload. The device never sends frames
// anywhere near this; hitting it means the length prefix is garbage.
const MaxFrameLen = 1 << 20

// WriteFrame sends one length-prefixed payload as a single write. A failed
// write leaves the stream position unknowable, so the caller must treat it
// as fatal for the session.
func WriteFrame(w io.Writer, payload []byte) error {
	buf := make([]byte, 0, UvarintLen(uint64(len(payload)))+len(payload))
	buf = AppendUvarint(buf, uint64(len(payload)))
	buf = append(buf, payload...)
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("wire: writing frame: %w", err)
	}
	return nil
}

// ReadFrame reads exactly one frame: length prefix, then that many payload
// bytes. No partial frame is ever returned, and nothing beyond the varint
// look-ahead is read past the frame, keeping backpressure in the
// call/return rhythm. A zero-length frame yields a nil payload.
func ReadFrame(r *Reader) ([]byte, error) {
	n, err := r.ReadUvarint()
	if err != nil {
		return nil, err
	}
	if n > MaxFrameLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, n)
	}
	if n == 0 {
		return nil, nil
	}
	payload := make([]byte, n)
	if err := r.ReadFull(payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// ReadFrameSlow is ReadFrame on the byte-wise varint decoder. Kept as a
// fallback in case a stream misbehaves under buffered look-ahead.
func ReadFrameSlow(r *Reader) ([]byte, error) {
	n, _, err := DecodeUvarint(r)
	if err != nil {
		return nil, err
	}
	if n > MaxFrameLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, n)
	}
	if n == 0 {
		return nil, nil
	}
	payload := make([]byte, n)
	if err := r.ReadFull(payload); err != nil {
		return nil, err
	}
	return payload, nil
}
