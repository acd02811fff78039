// Package bitset implements fixed-size sets of small non-negative
// integers, such as the ids of nodes in a control flow graph.
//
// A Set is created for a universe [0, n) and never grows. Sets over
// the same universe can be compared and intersected word by word,
// which is what makes the subset and equality tests of the dominator
// solver cheap.
package bitset

import (
	"math/bits"
	"strconv"
	"strings"

	"golang.org/x/exp/constraints"
)

const wordBits = 64

// Set is a set of integers in [0, Len()). The zero Set is an empty
// set over an empty universe.
//
// Set has reference semantics: copies of a Set share storage. Use
// Clone for an independent copy.
type Set struct {
	words []uint64
	n     int
}

func numWords(n int) int { return (n + wordBits - 1) / wordBits }

// New returns an empty set over the universe [0, n).
func New(n int) Set {
	if n < 0 {
		panic("bitset: negative universe size")
	}
	return Set{words: make([]uint64, numWords(n)), n: n}
}

// Full returns the set containing every element of [0, n).
func Full(n int) Set {
	s := New(n)
	for i := range s.words {
		s.words[i] = ^uint64(0)
	}
	s.trim()
	return s
}

// Of returns a set over [0, n) containing elems.
func Of[N constraints.Integer](n int, elems ...N) Set {
	s := New(n)
	for _, e := range elems {
		s.Add(int(e))
	}
	return s
}

// trim clears the bits past the end of the universe in the last word.
func (s Set) trim() {
	if r := s.n % wordBits; r != 0 {
		s.words[len(s.words)-1] &= (uint64(1) << r) - 1
	}
}

func (s Set) check(i int) {
	if i < 0 || i >= s.n {
		panic("bitset: element " + strconv.Itoa(i) + " out of range [0, " + strconv.Itoa(s.n) + ")")
	}
}

func (s Set) sameUniverse(o Set) {
	if s.n != o.n {
		panic("bitset: universe mismatch")
	}
}

// Len returns the size of the universe, not the number of elements.
func (s Set) Len() int { return s.n }

// Add adds i to the set and reports whether the set changed.
func (s Set) Add(i int) bool {
	s.check(i)
	w, m := i/wordBits, uint64(1)<<(i%wordBits)
	if s.words[w]&m != 0 {
		return false
	}
	s.words[w] |= m
	return true
}

// Remove removes i from the set and reports whether the set changed.
func (s Set) Remove(i int) bool {
	s.check(i)
	w, m := i/wordBits, uint64(1)<<(i%wordBits)
	if s.words[w]&m == 0 {
		return false
	}
	s.words[w] &^= m
	return true
}

// Has reports whether i is in the set. Elements outside the universe
// are never in the set.
func (s Set) Has(i int) bool {
	if i < 0 || i >= s.n {
		return false
	}
	return s.words[i/wordBits]&(uint64(1)<<(i%wordBits)) != 0
}

// Count returns the number of elements in the set.
func (s Set) Count() int {
	c := 0
	for _, w := range s.words {
		c += bits.OnesCount64(w)
	}
	return c
}

// Empty reports whether the set has no elements.
func (s Set) Empty() bool {
	for _, w := range s.words {
		if w != 0 {
			return false
		}
	}
	return true
}

// Equal reports whether s and o contain the same elements. Both sets
// must share a universe.
func (s Set) Equal(o Set) bool {
	s.sameUniverse(o)
	for i, w := range s.words {
		if w != o.words[i] {
			return false
		}
	}
	return true
}

// SubsetOf reports whether every element of s is in o.
func (s Set) SubsetOf(o Set) bool {
	s.sameUniverse(o)
	for i, w := range s.words {
		if w&^o.words[i] != 0 {
			return false
		}
	}
	return true
}

// Intersect sets s to s ∩ o.
func (s Set) Intersect(o Set) {
	s.sameUniverse(o)
	for i := range s.words {
		s.words[i] &= o.words[i]
	}
}

// Copy sets s to the contents of o.
func (s Set) Copy(o Set) {
	s.sameUniverse(o)
	copy(s.words, o.words)
}

// Clone returns an independent copy of s.
func (s Set) Clone() Set {
	c := Set{words: make([]uint64, len(s.words)), n: s.n}
	copy(c.words, s.words)
	return c
}

// Clear removes all elements.
func (s Set) Clear() {
	for i := range s.words {
		s.words[i] = 0
	}
}

// Next returns the smallest element >= i, or -1 if there is none.
//
// Iterate over a set with
//
//	for i := s.Next(0); i != -1; i = s.Next(i + 1) { ... }
func (s Set) Next(i int) int {
	if i < 0 {
		i = 0
	}
	if i >= s.n {
		return -1
	}
	w := i / wordBits
	word := s.words[w] >> (i % wordBits)
	if word != 0 {
		return i + bits.TrailingZeros64(word)
	}
	for w++; w < len(s.words); w++ {
		if s.words[w] != 0 {
			return w*wordBits + bits.TrailingZeros64(s.words[w])
		}
	}
	return -1
}

// Take removes the smallest element from s and returns it, or
// returns -1 if s is empty.
func (s Set) Take() int {
	i := s.Next(0)
	if i != -1 {
		s.Remove(i)
	}
	return i
}

// Elems returns the elements of s in ascending order.
func (s Set) Elems() []int {
	out := make([]int, 0, s.Count())
	for i := s.Next(0); i != -1; i = s.Next(i + 1) {
		out = append(out, i)
	}
	return out
}

// String formats s as "{1 2 3}".
func (s Set) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	first := true
	for i := s.Next(0); i != -1; i = s.Next(i + 1) {
		if !first {
			sb.WriteByte(' ')
		}
		first = false
		sb.WriteString(strconv.Itoa(i))
	}
	sb.WriteByte('}')
	return sb.String()
}
