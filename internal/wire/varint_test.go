package wire

import (
	"bytes"
	"errors"
	"math"
	"testing"
)

var varintLens = []struct {
	value uint64
	len   int
}{
	{0, 1},
	{1, 1},
	{127, 1},
	{128, 2},
	{16383, 2},
	{16384, 3},
	{2097151, 3},
	{2097152, 4},
	{268435455, 4},
	{268435456, 5},
	{34359738367, 5},
	{34359738368, 6},
	{4398046511103, 6},
	{4398046511104, 7},
	{562949953421311, 7},
	{562949953421312, 8},
	{72057594037927935, 8},
	{72057594037927936, 9},
	{922112023704109056, 9},
	{math.MaxUint64, 10},
}

func TestUvarintRoundTrip(t *testing.T) {
	for _, tc := range varintLens {
		enc := AppendUvarint(nil, tc.value)
		if len(enc) != tc.len {
			t.Errorf("AppendUvarint(%d) = %d bytes, want %d", tc.value, len(enc), tc.len)
		}
		if got := UvarintLen(tc.value); got != tc.len {
			t.Errorf("UvarintLen(%d) = %d, want %d", tc.value, got, tc.len)
		}
		v, n := Uvarint(enc)
		if v != tc.value || n != tc.len {
			t.Errorf("Uvarint(enc(%d)) = (%d, %d), want (%d, %d)", tc.value, v, n, tc.value, tc.len)
		}
	}
}

func TestUvarintZero(t *testing.T) {
	if got := AppendUvarint(nil, 0); !bytes.Equal(got, []byte{0x00}) {
		t.Fatalf("AppendUvarint(0) = %v, want [0]", got)
	}
}

func TestUvarintIncomplete(t *testing.T) {
	enc := AppendUvarint(nil, math.MaxUint64)
	for i := 0; i < len(enc); i++ {
		if _, n := Uvarint(enc[:i]); n != 0 {
			t.Fatalf("Uvarint(%d-byte prefix) n = %d, want 0", i, n)
		}
	}
}

func TestUvarintMalformed(t *testing.T) {
	// Ten continuation bytes without a terminator.
	b := bytes.Repeat([]byte{0xFF}, MaxVarintLen)
	if _, n := Uvarint(b); n >= 0 {
		t.Fatalf("Uvarint(unterminated) n = %d, want < 0", n)
	}

	// A tenth byte above 1 overflows 64 bits even when it terminates.
	over := append(bytes.Repeat([]byte{0xFF}, MaxVarintLen-1), 0x02)
	if _, n := Uvarint(over); n >= 0 {
		t.Fatalf("Uvarint(overflow) n = %d, want < 0", n)
	}
}

func TestDecodeUvarintAgreesWithFast(t *testing.T) {
	for _, tc := range varintLens {
		enc := AppendUvarint(nil, tc.value)
		v, n, err := DecodeUvarint(bytes.NewReader(enc))
		if err != nil {
			t.Fatalf("DecodeUvarint(%d): %v", tc.value, err)
		}
		fv, fn := Uvarint(enc)
		if v != fv || n != fn {
			t.Fatalf("slow (%d, %d) != fast (%d, %d) for %d", v, n, fv, fn, tc.value)
		}
	}
}

func TestDecodeUvarintMalformed(t *testing.T) {
	b := bytes.Repeat([]byte{0x80}, MaxVarintLen+2)
	if _, _, err := DecodeUvarint(bytes.NewReader(b)); !errors.Is(err, ErrMalformedVarint) {
		t.Fatalf("err = %v, want ErrMalformedVarint", err)
	}
}
