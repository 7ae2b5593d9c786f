// Package bitmap provides a dense bitset over non-negative int64 ids. The
// subject filter uses it when the selected subject ids are compact enough
// (biobank subject ids span a few million values), replacing a hash lookup
// per row with a shift and a mask.
package bitmap

import "math/bits"

// Bitmap represents a bitset backed by a slice of uint64 words.
// Each bit corresponds to a non-negative id.
type Bitmap struct {
	data []uint64
}

// New allocates a bitmap that can store ids in the range [0, maxID].
// A negative maxID yields an empty set.
func New(maxID int64) *Bitmap {
	if maxID < 0 {
		return &Bitmap{}
	}
	return &Bitmap{data: make([]uint64, maxID/64+1)}
}

// FromIDs builds a bitmap sized to the largest id. Negative ids are ignored.
func FromIDs(ids []int64) *Bitmap {
	max := int64(-1)
	for _, id := range ids {
		if id > max {
			max = id
		}
	}
	b := New(max)
	for _, id := range ids {
		b.Add(id)
	}
	return b
}

// Dense reports whether a bitmap over ids would use at most wordsPerID
// 64-bit words per id. Callers fall back to a map when it would not.
func Dense(ids []int64, wordsPerID int64) bool {
	if len(ids) == 0 {
		return false
	}
	max := int64(-1)
	for _, id := range ids {
		if id < 0 {
			return false
		}
		if id > max {
			max = id
		}
	}
	return max/64+1 <= wordsPerID*int64(len(ids))
}

// Add sets the bit for id. Negative and out-of-range ids are ignored.
func (b *Bitmap) Add(id int64) {
	if id < 0 || id/64 >= int64(len(b.data)) {
		return
	}
	b.data[id/64] |= 1 << uint(id%64)
}

// Has reports whether id is set. Negative ids always return false.
func (b *Bitmap) Has(id int64) bool {
	if id < 0 || id/64 >= int64(len(b.data)) {
		return false
	}
	return b.data[id/64]&(1<<uint(id%64)) != 0
}

// Len returns the number of ids set.
func (b *Bitmap) Len() int {
	n := 0
	for _, w := range b.data {
		n += bits.OnesCount64(w)
	}
	return n
}
