// Package wire frames the byte stream to the device: a base-128 varint
// length prefix followed by an opaque payload. The reader half is tuned to
// keep the number of underlying read calls small, since every read on a
// serial port is a system call.
package wire

import "io"

// MaxVarintLen is the longest legal length prefix. A 64-bit value needs at
// most ten 7-bit groups.
const MaxVarintLen = 10

// AppendUvarint appends the minimal varint encoding of v to b.
func AppendUvarint(b []byte, v uint64) []byte {
	for v >= 0x80 {
		b = append(b, byte(v)|0x80)
		v >>= 7
	}
	return append(b, byte(v))
}

// UvarintLen returns the encoded size of v without encoding it.
func UvarintLen(v uint64) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}
	return n
}

// Uvarint decodes a varint from the front of b. It returns the value and
// the number of bytes consumed. n == 0 means b holds an incomplete varint;
// n < 0 means the varint is malformed (does not terminate in ten bytes).
func Uvarint(b []byte) (uint64, int) {
	var v uint64
	for i, c := range b {
		if i == MaxVarintLen {
			return 0, -1
		}
		if c < 0x80 {
			if i == MaxVarintLen-1 && c > 1 {
				return 0, -1 // value overflows 64 bits
			}
			return v | uint64(c)<<(7*i), i + 1
		}
		v |= uint64(c&0x7f) << (7 * i)
	}
	if len(b) >= MaxVarintLen {
		return 0, -1
	}
	return 0, 0
}

// DecodeUvarint reads a varint one byte at a time. It is the compatibility
// path: correct everywhere, but it costs one read call per byte. Prefer
// Reader.ReadUvarint.
func DecodeUvarint(r io.ByteReader) (uint64, int, error) {
	var v uint64
	for i := 0; ; i++ {
		if i == MaxVarintLen {
			return 0, i, ErrMalformedVarint
		}
		c, err := r.ReadByte()
		if err != nil {
			return 0, i, err
		}
		if c < 0x80 {
			if i == MaxVarintLen-1 && c > 1 {
				return 0, i + 1, ErrMalformedVarint
			}
			return v | uint64(c)<<(7*i), i + 1, nil
		}
		v |= uint64(c&0x7f) << (7 * i)
	}
}
