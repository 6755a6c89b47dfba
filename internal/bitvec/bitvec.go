// Package bitvec implements packed bit storage for per-sample hidden state.
//
// A Span is a view over a fixed number of bits backed by 64-bit words. A
// Group packs many equally sized spans into one allocation with word-aligned
// rows so that distinct rows can be written concurrently.
package bitvec

import "math/bits"

const wordBits = 64

// Span is a mutable view of n bits. The zero value is an empty span.
//
// Unused bits of the last word are kept zero at all times so that Any, All,
// Count and Equal can operate on whole words.
type Span struct {
	words []uint64
	n     int
}

// NewSpan returns a zeroed span of n bits.
func NewSpan(n int) Span {
	if n < 0 {
		panic("bitvec: negative span length")
	}
	return Span{words: make([]uint64, wordsFor(n)), n: n}
}

func wordsFor(n int) int { return (n + wordBits - 1) / wordBits }

// tailMask returns the valid-bit mask for the last word, or 0 if the span
// ends on a word boundary.
func (s Span) tailMask() uint64 {
	if r := s.n % wordBits; r != 0 {
		return (1 << uint(r)) - 1
	}
	return 0
}

// Len returns the number of bits in the span.
func (s Span) Len() int { return s.n }

// Get returns bit i.
func (s Span) Get(i int) bool {
	return s.words[i/wordBits]&(1<<uint(i%wordBits)) != 0
}

// Set writes bit i.
func (s Span) Set(i int, v bool) {
	if v {
		s.words[i/wordBits] |= 1 << uint(i%wordBits)
	} else {
		s.words[i/wordBits] &^= 1 << uint(i%wordBits)
	}
}

// Fill sets every bit to v.
func (s Span) Fill(v bool) {
	var w uint64
	if v {
		w = ^uint64(0)
	}
	for i := range s.words {
		s.words[i] = w
	}
	s.clampTail()
}

// Invert flips every bit.
func (s Span) Invert() {
	for i := range s.words {
		s.words[i] = ^s.words[i]
	}
	s.clampTail()
}

func (s Span) clampTail() {
	if m := s.tailMask(); m != 0 {
		s.words[len(s.words)-1] &= m
	}
}

// Any reports whether any bit is set.
func (s Span) Any() bool {
	for _, w := range s.words {
		if w != 0 {
			return true
		}
	}
	return false
}

// All reports whether every bit is set. An empty span is all-set.
func (s Span) All() bool {
	return s.Count() == s.n
}

// Count returns the number of set bits.
func (s Span) Count() int {
	c := 0
	for _, w := range s.words {
		c += bits.OnesCount64(w)
	}
	return c
}

// Equal reports whether two spans hold the same bits. Spans of different
// lengths are never equal.
func (s Span) Equal(o Span) bool {
	if s.n != o.n {
		return false
	}
	for i := range s.words {
		if s.words[i] != o.words[i] {
			return false
		}
	}
	return true
}

// CopyFrom copies o's bits into s. Both spans must have the same length.
func (s Span) CopyFrom(o Span) {
	if s.n != o.n {
		panic("bitvec: length mismatch in CopyFrom")
	}
	copy(s.words, o.words)
}

// Group is a dense collection of equally sized bit spans. Rows are word
// aligned: writing to one row never touches another row's words.
type Group struct {
	rows        int
	rowLen      int
	wordsPerRow int
	words       []uint64
}

// NewGroup returns a zeroed group of rows spans, each rowLen bits long.
func NewGroup(rows, rowLen int) *Group {
	if rows < 0 || rowLen < 0 {
		panic("bitvec: negative group dimensions")
	}
	wpr := wordsFor(rowLen)
	return &Group{
		rows:        rows,
		rowLen:      rowLen,
		wordsPerRow: wpr,
		words:       make([]uint64, rows*wpr),
	}
}

// Rows returns the number of rows in the group.
func (g *Group) Rows() int { return g.rows }

// RowLen returns the number of bits per row.
func (g *Group) RowLen() int { return g.rowLen }

// Row returns a mutable view of row i.
func (g *Group) Row(i int) Span {
	off := i * g.wordsPerRow
	return Span{words: g.words[off : off+g.wordsPerRow], n: g.rowLen}
}

// Clone returns a deep copy of the group.
func (g *Group) Clone() *Group {
	c := *g
	c.words = make([]uint64, len(g.words))
	copy(c.words, g.words)
	return &c
}

// CopyFrom copies o's bits into g. Dimensions must match.
func (g *Group) CopyFrom(o *Group) {
	if g.rows != o.rows || g.rowLen != o.rowLen {
		panic("bitvec: group dimension mismatch in CopyFrom")
	}
	copy(g.words, o.words)
}

// Any reports whether any bit in the group is set.
func (g *Group) Any() bool {
	for _, w := range g.words {
		if w != 0 {
			return true
		}
	}
	return false
}
