// Package occurrence implements the canonical letter-frequency signature of
// words and sentences, the enumeration of its sub-multisets and the
// multiset difference between two signatures.
package occurrence

import (
	"encoding/binary"
	"slices"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Count is a single (character, frequency) pair of an Occurrence.
type Count struct {
	Char rune
	N    int
}

// Occurrence is a letter-frequency signature: characters strictly
// increasing, every count at least 1. Values are treated as immutable.
type Occurrence []Count

// Key is the hashable form of an Occurrence. Two occurrences have the same
// Key iff they are Equal.
type Key string

// Word lower-cases every rune of w and returns its frequency signature.
// Nothing is filtered: punctuation, digits and whitespace are counted.
func Word(w string) Occurrence {
	if w == "" {
		return Occurrence{}
	}
	tally := make(map[rune]int, len(w))
	for _, r := range w {
		tally[unicode.ToLower(r)]++
	}
	occ := make(Occurrence, 0, len(tally))
	for r, n := range tally {
		occ = append(occ, Count{Char: r, N: n})
	}
	slices.SortFunc(occ, func(a, b Count) int { return int(a.Char) - int(b.Char) })
	return occ
}

// Sentence returns the signature of all words taken together; word
// boundaries are ignored.
func Sentence(words []string) Occurrence {
	return Word(strings.Join(words, ""))
}

// Key encodes o as the UTF-8 bytes of each character followed by the
// uvarint of its count. Both parts are self-delimiting, so the encoding is
// injective.
func (o Occurrence) Key() Key {
	buf := make([]byte, 0, len(o)*3)
	for _, c := range o {
		buf = utf8.AppendRune(buf, c.Char)
		buf = binary.AppendUvarint(buf, uint64(c.N))
	}
	return Key(buf)
}

// Equal reports element-wise equality.
func (o Occurrence) Equal(other Occurrence) bool {
	return slices.Equal(o, other)
}

func (o Occurrence) IsEmpty() bool {
	return len(o) == 0
}

// Len returns the total number of characters represented.
func (o Occurrence) Len() int {
	total := 0
	for _, c := range o {
		total += c.N
	}
	return total
}

// IsSubsetOf reports whether o is a sub-multiset of x.
func (o Occurrence) IsSubsetOf(x Occurrence) bool {
	i := 0
	for _, c := range o {
		for i < len(x) && x[i].Char < c.Char {
			i++
		}
		if i == len(x) || x[i].Char != c.Char || x[i].N < c.N {
			return false
		}
		i++
	}
	return true
}

// Valid reports whether o satisfies the ordering and positive-count
// invariants.
func (o Occurrence) Valid() bool {
	for i, c := range o {
		if c.N < 1 {
			return false
		}
		if i > 0 && o[i-1].Char >= c.Char {
			return false
		}
	}
	return true
}

func (o Occurrence) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, c := range o {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteByte('(')
		b.WriteString(strconv.QuoteRuneToGraphic(c.Char))
		b.WriteByte(',')
		b.WriteString(strconv.Itoa(c.N))
		b.WriteByte(')')
	}
	b.WriteByte(']')
	return b.String()
}
