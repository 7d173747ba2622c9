// Package collections provides the small containers used by graph traversals.
package collections

import "math/bits"

// Bitset is a growable set of small non-negative integers, one bit each.
// Traversals use it as a "seen" set keyed by interned descriptor index.
type Bitset struct {
	words []uint64
}

// NewBitset creates a bitset sized for indices below size.
func NewBitset(size int) *Bitset {
	if size <= 0 {
		size = 64
	}
	return &Bitset{words: make([]uint64, (size+63)/64)}
}

// Set adds i to the set, growing it as needed.
func (b *Bitset) Set(i int) {
	if i < 0 {
		return
	}
	w := i / 64
	if w >= len(b.words) {
		b.grow(w + 1)
	}
	b.words[w] |= 1 << (uint(i) % 64)
}

// TestAndSet adds i and reports whether it was already present.
func (b *Bitset) TestAndSet(i int) bool {
	if b.Test(i) {
		return true
	}
	b.Set(i)
	return false
}

// Clear removes i from the set.
func (b *Bitset) Clear(i int) {
	if i < 0 || i/64 >= len(b.words) {
		return
	}
	b.words[i/64] &^= 1 << (uint(i) % 64)
}

// Test reports whether i is in the set.
func (b *Bitset) Test(i int) bool {
	if i < 0 || i/64 >= len(b.words) {
		return false
	}
	return b.words[i/64]&(1<<(uint(i)%64)) != 0
}

// Count returns the number of members.
func (b *Bitset) Count() int {
	n := 0
	for _, w := range b.words {
		n += bits.OnesCount64(w)
	}
	return n
}

// Clone returns an independent copy.
func (b *Bitset) Clone() *Bitset {
	words := make([]uint64, len(b.words))
	copy(words, b.words)
	return &Bitset{words: words}
}

// And keeps only members also present in other.
func (b *Bitset) And(other *Bitset) {
	for i := range b.words {
		if other == nil || i >= len(other.words) {
			b.words[i] = 0
			continue
		}
		b.words[i] &= other.words[i]
	}
}

// Iterate calls fn for each member in ascending order until fn returns false.
func (b *Bitset) Iterate(fn func(i int) bool) {
	for wi, w := range b.words {
		for w != 0 {
			tz := bits.TrailingZeros64(w)
			if !fn(wi*64 + tz) {
				return
			}
			w &= w - 1
		}
	}
}

// ToSlice returns the members in ascending order.
func (b *Bitset) ToSlice() []int {
	out := make([]int, 0, b.Count())
	b.Iterate(func(i int) bool {
		out = append(out, i)
		return true
	})
	return out
}

func (b *Bitset) grow(words int) {
	n := len(b.words) * 2
	if n < words {
		n = words
	}
	grown := make([]uint64, n)
	copy(grown, b.words)
	b.words = grown
}
