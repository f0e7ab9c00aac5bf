package protocol

import (
	"io"
	"math"
	"testing"
)

func TestEncodeDecodeUvarint(t *testing.T) {
	tests := []struct {
		name  string
		value uint64
		bytes int
	}{
		{"zero", 0, 1},
		{"max_1byte", 127, 1},
		{"min_2byte", 128, 2},
		{"max_2byte", 16383, 2},
		{"min_3byte", 16384, 3},
		{"max_uint32", math.MaxUint32, 5},
		{"max_uint64", math.MaxUint64, 10},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			buf := make([]byte, MaxVarintLen)
			n := EncodeUvarint(buf, tc.value)
			if n != tc.bytes {
				t.Errorf("EncodeUvarint(%d) = %d bytes, want %d", tc.value, n, tc.bytes)
			}
			if got := UvarintLen(tc.value); got != n {
				t.Errorf("UvarintLen(%d) = %d, want %d", tc.value, got, n)
			}

			decoded, read := DecodeUvarint(buf[:n])
			if read != n || decoded != tc.value {
				t.Errorf("DecodeUvarint = (%d, %d), want (%d, %d)", decoded, read, tc.value, n)
			}
		})
	}
}

func TestZigzag(t *testing.T) {
	tests := []struct {
		in   int64
		want uint64
	}{
		{0, 0},
		{-1, 1},
		{1, 2},
		{-2, 3},
		{math.MaxInt64, math.MaxUint64 - 1},
		{math.MinInt64, math.MaxUint64},
	}
	for _, tc := range tests {
		if got := zigzag(tc.in); got != tc.want {
			t.Errorf("zigzag(%d) = %d, want %d", tc.in, got, tc.want)
		}
		if got := unzigzag(tc.want); got != tc.in {
			t.Errorf("unzigzag(%d) = %d, want %d", tc.want, got, tc.in)
		}
	}
}

func TestDecodeUvarintFailures(t *testing.T) {
	if _, n := DecodeUvarint(nil); n != -1 {
		t.Errorf("empty input: n = %d, want -1", n)
	}
	if _, n := DecodeUvarint([]byte{0x80, 0x80}); n != -1 {
		t.Errorf("truncated input: n = %d, want -1", n)
	}

	overflow := []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x01}
	if _, n := DecodeUvarint(overflow); n != -2 {
		t.Errorf("overflow: n = %d, want -2", n)
	}

	d := NewDecoder(overflow)
	if _, err := d.ReadUvarint(); err != ErrVarintOverflow {
		t.Errorf("ReadUvarint overflow err = %v, want ErrVarintOverflow", err)
	}
	d = NewDecoder([]byte{0x80})
	if _, err := d.ReadUvarint(); err != io.ErrUnexpectedEOF {
		t.Errorf("ReadUvarint truncated err = %v, want io.ErrUnexpectedEOF", err)
	}
}

func FuzzDecodeUvarint(f *testing.F) {
	f.Add([]byte{0x00})
	f.Add([]byte{0x80, 0x01})
	f.Add([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x01})

	f.Fuzz(func(t *testing.T, data []byte) {
		_, _ = DecodeUvarint(data)
	})
}
