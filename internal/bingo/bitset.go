package bingo

import "math/bits"

// BitSet is a growable bit vector stored as raw bytes, so completion sets can
// round-trip through a BLOB column unchanged.
type BitSet struct {
	Data []byte
}

// BitSetFromBytes wraps bytes read back from storage.
func BitSetFromBytes(b []byte) BitSet {
	return BitSet{Data: b}
}

// BitSetFromIndexes builds a set with the given bits set.
func BitSetFromIndexes(indexes []uint8) BitSet {
	var max uint8
	for _, i := range indexes {
		if i > max {
			max = i
		}
	}

	s := BitSet{Data: make([]byte, int(max)/8+1)}
	for _, i := range indexes {
		s.Set(int(i), true)
	}
	return s
}

// Get reports whether the bit is set; out-of-range bits read as unset.
func (s *BitSet) Get(index int) bool {
	byteIndex := index / 8
	if byteIndex >= len(s.Data) {
		return false
	}
	return s.Data[byteIndex]&(1<<(index%8)) != 0
}

// Set writes one bit, growing the backing bytes as needed.
func (s *BitSet) Set(index int, value bool) {
	byteIndex := index / 8
	if byteIndex >= len(s.Data) {
		grown := make([]byte, byteIndex+1)
		copy(grown, s.Data)
		s.Data = grown
	}

	mask := byte(1) << (index % 8)
	if value {
		s.Data[byteIndex] |= mask
	} else {
		s.Data[byteIndex] &^= mask
	}
}

// AllSet returns the indexes of every set bit, ascending.
func (s *BitSet) AllSet() []int {
	var indexes []int
	for byteIndex, b := range s.Data {
		for b != 0 {
			indexes = append(indexes, byteIndex*8+bits.TrailingZeros8(b))
			b &= b - 1 // clear lowest set bit
		}
	}
	return indexes
}
