package search

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/sentence-anagrams/internal/anagram/dictionary"
	"github.com/Adithya-Monish-Kumar-K/sentence-anagrams/internal/anagram/occurrence"
)

func smallIndex(t testing.TB) *dictionary.Index {
	t.Helper()
	words, err := dictionary.LoadFile(filepath.Join("testdata", "small.txt"))
	require.NoError(t, err)
	return dictionary.Build(words)
}

// linuxIndex loads the standard word list at testdata/linuxwords.txt in the
// repository root, or at ANAGRAM_WORDLIST. A missing list fails the test
// unless ANAGRAM_SKIP_WORDLIST=1.
func linuxIndex(t testing.TB) *dictionary.Index {
	t.Helper()
	path := os.Getenv("ANAGRAM_WORDLIST")
	if path == "" {
		path = filepath.Join("..", "..", "..", "testdata", "linuxwords.txt")
	}
	if _, err := os.Stat(path); err != nil && os.Getenv("ANAGRAM_SKIP_WORDLIST") == "1" {
		t.Skipf("word list skipped: %v", err)
	}
	words, err := dictionary.LoadFile(path)
	require.NoError(t, err, "the count scenarios need the Linux word list")
	return dictionary.Build(words)
}

func bothModes(t *testing.T, idx *dictionary.Index, fn func(t *testing.T, e *Engine)) {
	for _, memo := range []bool{false, true} {
		name := "plain"
		if memo {
			name = "memoized"
		}
		t.Run(name, func(t *testing.T) {
			fn(t, New(idx, Options{Memoize: memo}))
		})
	}
}

func TestSentenceAnagramsExactOrder(t *testing.T) {
	tests := []struct {
		name     string
		sentence []string
		want     []Sentence
	}{
		{
			name:     "eat",
			sentence: []string{"eat"},
			want:     []Sentence{{"ate"}, {"eat"}, {"tea"}},
		},
		{
			name:     "yes man",
			sentence: []string{"yes", "man"},
			want: []Sentence{
				{"my", "en", "as"}, {"my", "as", "en"}, {"my", "sane"}, {"my", "Sean"},
				{"yes", "man"}, {"en", "my", "as"}, {"en", "as", "my"}, {"men", "say"},
				{"as", "my", "en"}, {"as", "en", "my"}, {"say", "men"}, {"man", "yes"},
				{"sane", "my"}, {"Sean", "my"},
			},
		},
		{
			name:     "I love you",
			sentence: []string{"I", "love", "you"},
			want: []Sentence{
				{"you", "I", "love"}, {"you", "love", "I"}, {"you", "olive"},
				{"You", "I", "love"}, {"You", "love", "I"}, {"You", "olive"},
				{"I", "you", "love"}, {"I", "You", "love"}, {"I", "love", "you"},
				{"I", "love", "You"}, {"love", "you", "I"}, {"love", "You", "I"},
				{"love", "I", "you"}, {"love", "I", "You"}, {"olive", "you"},
				{"olive", "You"},
			},
		},
	}
	idx := smallIndex(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bothModes(t, idx, func(t *testing.T, e *Engine) {
				got, err := e.SentenceAnagrams(context.Background(), tt.sentence)
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			})
		})
	}
}

func TestSentenceAnagramsEmptyFallback(t *testing.T) {
	bothModes(t, smallIndex(t), func(t *testing.T, e *Engine) {
		for _, sentence := range [][]string{nil, {}, {""}, {"xyz"}, {"eatx"}} {
			got, err := e.SentenceAnagrams(context.Background(), sentence)
			require.NoError(t, err)
			assert.Equal(t, []Sentence{{}}, got, "sentence %q", sentence)
		}
	})
}

func TestSentenceAnagramsPreserveLetters(t *testing.T) {
	e := New(smallIndex(t), Options{})
	input := []string{"I", "love", "you"}
	got, err := e.SentenceAnagrams(context.Background(), input)
	require.NoError(t, err)
	want := occurrence.Sentence(input)
	for _, s := range got {
		assert.True(t, want.Equal(occurrence.Sentence(s)), "%v does not use the letters of %v", s, input)
	}
}

func TestWalkStopsEarly(t *testing.T) {
	e := New(smallIndex(t), Options{})
	var seen []Sentence
	n, err := e.Walk(context.Background(), []string{"yes", "man"}, func(s Sentence) bool {
		seen = append(seen, s)
		return len(seen) < 3
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []Sentence{{"my", "en", "as"}, {"my", "as", "en"}, {"my", "sane"}}, seen)
}

func TestWalkReportsNothingForNoSolution(t *testing.T) {
	e := New(smallIndex(t), Options{})
	n, err := e.Walk(context.Background(), []string{"qqq"}, func(Sentence) bool {
		t.Fatal("no sentence expected")
		return true
	})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMaxDepth(t *testing.T) {
	idx := smallIndex(t)

	_, err := New(idx, Options{MaxDepth: 2}).SentenceAnagrams(context.Background(), []string{"yes", "man"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDepthExceeded)

	got, err := New(idx, Options{MaxDepth: 3}).SentenceAnagrams(context.Background(), []string{"yes", "man"})
	require.NoError(t, err)
	assert.Len(t, got, 14)

	got, err = New(idx, Options{MaxDepth: 1}).SentenceAnagrams(context.Background(), []string{"eat"})
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(smallIndex(t), Options{}).SentenceAnagrams(ctx, []string{"eat"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCancellationMidWalk(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	e := New(smallIndex(t), Options{})
	n, err := e.Walk(ctx, []string{"yes", "man"}, func(Sentence) bool {
		cancel()
		return true
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.GreaterOrEqual(t, n, 1)
}

func TestConcurrentSearchesShareIndex(t *testing.T) {
	e := New(smallIndex(t), Options{Memoize: true})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := e.SentenceAnagrams(context.Background(), []string{"I", "love", "you"})
			assert.NoError(t, err)
			assert.Len(t, got, 16)
		}()
	}
	wg.Wait()
}

func TestLinuxWordsScenarios(t *testing.T) {
	idx := linuxIndex(t)
	tests := []struct {
		sentence []string
		want     int
	}{
		{[]string{"linux", "rulez"}, 20},
		{[]string{"Linux", "rulez"}, 20},
		{[]string{"grumpy", "cat"}, 164},
		{[]string{"repetitive"}, 529},
		{[]string{"grumpy", "bold", "cat"}, 30198},
	}
	for _, tt := range tests {
		t.Run(tt.sentence[0], func(t *testing.T) {
			if testing.Short() && tt.want > 1000 {
				t.Skip("large search skipped in short mode")
			}
			bothModes(t, idx, func(t *testing.T, e *Engine) {
				got, err := e.SentenceAnagrams(context.Background(), tt.sentence)
				require.NoError(t, err)
				assert.Len(t, got, tt.want)
			})
		})
	}

	t.Run("eat", func(t *testing.T) {
		got, err := New(idx, Options{}).SentenceAnagrams(context.Background(), []string{"eat"})
		require.NoError(t, err)
		assert.Equal(t, []Sentence{{"ate"}, {"eat"}, {"tea"}}, got)
	})

	t.Run("empty", func(t *testing.T) {
		got, err := New(idx, Options{}).SentenceAnagrams(context.Background(), nil)
		require.NoError(t, err)
		assert.Equal(t, []Sentence{{}}, got)
	})

	t.Run("letters preserved", func(t *testing.T) {
		input := []string{"grumpy", "cat"}
		got, err := New(idx, Options{}).SentenceAnagrams(context.Background(), input)
		require.NoError(t, err)
		want := occurrence.Sentence(input)
		for _, s := range got {
			require.True(t, want.Equal(occurrence.Sentence(s)), "%v", s)
		}
	})
}
