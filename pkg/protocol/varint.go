package protocol

// MaxVarintLen is the maximum number of bytes a uint64 varint occupies.
const MaxVarintLen = 10

// EncodeUvarint writes v into buf as a varint and returns the byte count.
// buf must have at least MaxVarintLen bytes available.
func EncodeUvarint(buf []byte, v uint64) int {
	i := 0
	for v >= 0x80 {
		buf[i] = byte(v) | 0x80
		v >>= 7
		i++
	}
	buf[i] = byte(v)
	return i + 1
}

// DecodeUvarint reads a varint from buf. A negative byte count means
// failure: -1 for a truncated varint, -2 for overflow.
func DecodeUvarint(buf []byte) (uint64, int) {
	var v uint64
	var shift uint
	for i, b := range buf {
		if i >= MaxVarintLen {
			return 0, -2
		}
		v |= uint64(b&0x7F) << shift
		if b < 0x80 {
			return v, i + 1
		}
		shift += 7
	}
	return 0, -1
}

// zigzag maps signed to unsigned: 0->0, -1->1, 1->2, -2->3.
func zigzag(v int64) uint64 {
	return uint64((v << 1) ^ (v >> 63))
}

func unzigzag(uv uint64) int64 {
	v := int64(uv >> 1)
	if uv&1 != 0 {
		v = ^v
	}
	return v
}

// UvarintLen returns the encoded length of v.
func UvarintLen(v uint64) int {
	n := 1
	for v >= 0x80 {
		n++
		v >>= 7
	}
	return n
}

// SvarintLen returns the encoded length of v using ZigZag encoding.
func SvarintLen(v int64) int {
	return UvarintLen(zigzag(v))
}
