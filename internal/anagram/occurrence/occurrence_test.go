package occurrence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func occ(pairs ...any) Occurrence {
	o := make(Occurrence, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		o = append(o, Count{Char: pairs[i].(rune), N: pairs[i+1].(int)})
	}
	return o
}

func TestWord(t *testing.T) {
	tests := []struct {
		name string
		word string
		want Occurrence
	}{
		{"empty", "", Occurrence{}},
		{"single letter", "a", occ('a', 1)},
		{"sorted by char", "tea", occ('a', 1, 'e', 1, 't', 1)},
		{"case folded", "Robert", occ('b', 1, 'e', 1, 'o', 1, 'r', 2, 't', 1)},
		{"punctuation counted", "don't", occ('\'', 1, 'd', 1, 'n', 1, 'o', 1, 't', 1)},
		{"whitespace counted", "a b", occ(' ', 1, 'a', 1, 'b', 1)},
		{"repeats", "repetitive", occ('e', 3, 'i', 2, 'p', 1, 'r', 1, 't', 2, 'v', 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Word(tt.word)
			assert.Equal(t, tt.want, got)
			assert.True(t, got.Valid())
		})
	}
}

func TestWordIsPermutationInvariant(t *testing.T) {
	permutations := []string{"listen", "silent", "enlist", "TINSEL", "inlets"}
	want := Word(permutations[0])
	for _, p := range permutations[1:] {
		assert.True(t, want.Equal(Word(p)), "signature of %q differs", p)
		assert.Equal(t, want.Key(), Word(p).Key())
	}
}

func TestSentence(t *testing.T) {
	s := Sentence([]string{"Linux", "rulez"})
	assert.Equal(t, Word("linuxrulez"), s)
	assert.True(t, s.Equal(Sentence([]string{"rulez", "Linux"})))
	assert.True(t, Sentence(nil).IsEmpty())
	assert.True(t, Sentence([]string{"", ""}).IsEmpty())
}

func TestKeyIsStructural(t *testing.T) {
	a := occ('a', 1, 'b', 2)
	b := occ('a', 1, 'b', 2)
	assert.Equal(t, a.Key(), b.Key())

	distinct := []Occurrence{
		{},
		occ('a', 1),
		occ('a', 2),
		occ('a', 1, 'b', 1),
		occ('b', 1),
		occ('1', 1),
		occ('a', 11),
		occ('a', 1, '1', 1),
		occ('é', 1),
		occ('a', 300),
	}
	seen := make(map[Key]int)
	for i, o := range distinct {
		if j, ok := seen[o.Key()]; ok {
			t.Fatalf("key collision between %v and %v", distinct[j], o)
		}
		seen[o.Key()] = i
	}
}

func TestLenAndSubset(t *testing.T) {
	x := Word("grumpycat")
	assert.Equal(t, 9, x.Len())
	assert.True(t, Word("cat").IsSubsetOf(x))
	assert.True(t, Occurrence{}.IsSubsetOf(x))
	assert.True(t, x.IsSubsetOf(x))
	assert.False(t, Word("catt").IsSubsetOf(x))
	assert.False(t, Word("dog").IsSubsetOf(x))
}

func TestValid(t *testing.T) {
	assert.True(t, Occurrence{}.Valid())
	assert.False(t, occ('b', 1, 'a', 1).Valid())
	assert.False(t, occ('a', 1, 'a', 1).Valid())
	assert.False(t, occ('a', 0).Valid())
}

func TestString(t *testing.T) {
	assert.Equal(t, "[('a',1) ('e',1) ('t',1)]", Word("eat").String())
	assert.Equal(t, "[]", Occurrence{}.String())
}

func TestCombinationsOrder(t *testing.T) {
	got := Combinations(occ('a', 2, 'b', 2))
	want := []Occurrence{
		{},
		occ('b', 1),
		occ('b', 2),
		occ('a', 1),
		occ('a', 1, 'b', 1),
		occ('a', 1, 'b', 2),
		occ('a', 2),
		occ('a', 2, 'b', 1),
		occ('a', 2, 'b', 2),
	}
	assert.Equal(t, want, got)
}

func TestCombinationsOfEmpty(t *testing.T) {
	got := Combinations(Occurrence{})
	require.Len(t, got, 1)
	assert.True(t, got[0].IsEmpty())
}

func TestCombinationsCoverSubMultisets(t *testing.T) {
	for _, w := range []string{"a", "eat", "repetitive", "grumpycat", "mississippi"} {
		t.Run(w, func(t *testing.T) {
			o := Word(w)
			want := 1
			for _, c := range o {
				want *= c.N + 1
			}
			combos := Combinations(o)
			require.Len(t, combos, want)

			seen := make(map[Key]struct{}, len(combos))
			var empty, full int
			for _, c := range combos {
				assert.True(t, c.Valid(), "invalid combination %v", c)
				assert.True(t, c.IsSubsetOf(o), "%v not a subset of %v", c, o)
				seen[c.Key()] = struct{}{}
				if c.IsEmpty() {
					empty++
				}
				if c.Equal(o) {
					full++
				}
			}
			assert.Len(t, seen, want, "combinations must be distinct")
			assert.Equal(t, 1, empty)
			assert.Equal(t, 1, full)
		})
	}
}

func TestSubtract(t *testing.T) {
	tests := []struct {
		name string
		x, y Occurrence
		want Occurrence
	}{
		{"empty subtrahend", Word("eat"), Occurrence{}, Word("eat")},
		{"self", Word("repetitive"), Word("repetitive"), Occurrence{}},
		{"drop pair", Word("grumpycat"), Word("cat"), Word("grumpy")},
		{"reduce count", Word("repetitive"), Word("pet"), occ('e', 2, 'i', 2, 'r', 1, 't', 1, 'v', 1)},
		{"gap in x", occ('a', 1, 'b', 1, 'c', 1), occ('c', 1), occ('a', 1, 'b', 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Subtract(tt.x, tt.y)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %v got %v", tt.want, got)
			assert.True(t, got.Valid())
		})
	}
}

func TestSubtractDoesNotMutate(t *testing.T) {
	x := Word("repetitive")
	before := append(Occurrence(nil), x...)
	_, err := Subtract(x, Word("tee"))
	require.NoError(t, err)
	assert.Equal(t, before, x)
}

func TestSubtractMisaligned(t *testing.T) {
	tests := []struct {
		name  string
		x, y  Occurrence
		found bool
	}{
		{"missing char", Word("eat"), Word("z"), false},
		{"count too large", Word("eat"), occ('e', 2), true},
		{"unsorted subtrahend", Word("abc"), occ('c', 1, 'a', 1), false},
		{"subtract from empty", Occurrence{}, Word("a"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Subtract(tt.x, tt.y)
			require.Error(t, err)
			assert.Nil(t, got)
			assert.ErrorIs(t, err, ErrMisalignedSubtraction)

			var mis *MisalignedSubtractionError
			require.ErrorAs(t, err, &mis)
			assert.Equal(t, tt.found, mis.Found)
		})
	}
}
