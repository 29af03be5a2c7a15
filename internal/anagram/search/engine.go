// Package search finds every sentence of dictionary words whose letters are
// exactly the letters of a given sentence.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/sentence-anagrams/internal/anagram/dictionary"
	"github.com/Adithya-Monish-Kumar-K/sentence-anagrams/internal/anagram/occurrence"
)

// ErrDepthExceeded is returned when a partial sentence would need more
// words than Options.MaxDepth allows.
var ErrDepthExceeded = errors.New("search depth exceeded")

// Sentence is an ordered list of words.
type Sentence []string

type Options struct {
	// MaxDepth caps the number of words in a sentence. Zero means no limit.
	MaxDepth int
	// Memoize caches the candidate expansion of each remaining signature
	// for the duration of one search.
	Memoize bool
}

// Engine runs anagram searches against a shared, read-only index. It holds
// no per-search state and is safe for concurrent use.
type Engine struct {
	index  *dictionary.Index
	opts   Options
	logger *slog.Logger
}

func New(index *dictionary.Index, opts Options) *Engine {
	return &Engine{
		index:  index,
		opts:   opts,
		logger: slog.Default().With("component", "anagram-search"),
	}
}

func (e *Engine) Index() *dictionary.Index {
	return e.index
}

// candidate is one (word, remainder) step out of a remaining signature.
type candidate struct {
	word string
	rest occurrence.Occurrence
}

// frame is one pending subsentences(remaining) call.
type frame struct {
	candidates []candidate
	next       int
}

type walker struct {
	engine    *Engine
	memo      map[occurrence.Key][]candidate
	frames    int
	memoHits  int
	delivered int
}

// SentenceAnagrams returns every sentence of dictionary words whose letters
// equal those of sentence, in discovery order. When there is none, including
// for an empty sentence, the result is a single empty sentence.
func (e *Engine) SentenceAnagrams(ctx context.Context, sentence []string) ([]Sentence, error) {
	var results []Sentence
	if _, err := e.Walk(ctx, sentence, func(s Sentence) bool {
		results = append(results, s)
		return true
	}); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return []Sentence{{}}, nil
	}
	return results, nil
}

// Walk delivers the same sentences as SentenceAnagrams, in the same order,
// to fn as they are found. It stops early when fn returns false. Unlike
// SentenceAnagrams it does not substitute an empty sentence when nothing is
// found. The returned count is the number of sentences passed to fn.
func (e *Engine) Walk(ctx context.Context, sentence []string, fn func(Sentence) bool) (int, error) {
	target := occurrence.Sentence(sentence)
	w := &walker{engine: e}
	if e.opts.Memoize {
		w.memo = make(map[occurrence.Key][]candidate)
	}
	err := w.run(ctx, target, fn)
	e.logger.Debug("anagram search finished",
		"letters", target.Len(),
		"distinct_letters", len(target),
		"sentences", w.delivered,
		"frames", w.frames,
		"memo_hits", w.memoHits,
		"error", err,
	)
	return w.delivered, err
}

// run is a depth-first traversal over an explicit stack. Frame k picks the
// k-th word; prefix holds the words picked by the frames below the top.
func (w *walker) run(ctx context.Context, target occurrence.Occurrence, fn func(Sentence) bool) error {
	root, err := w.push(ctx, target, 0)
	if err != nil {
		return err
	}
	stack := []*frame{root}
	prefix := make([]string, 0, 8)

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if top.next == len(top.candidates) {
			stack = stack[:len(stack)-1]
			if len(prefix) > 0 {
				prefix = prefix[:len(prefix)-1]
			}
			continue
		}
		c := top.candidates[top.next]
		top.next++

		if c.rest.IsEmpty() {
			s := make(Sentence, len(prefix)+1)
			copy(s, prefix)
			s[len(prefix)] = c.word
			w.delivered++
			if !fn(s) {
				return nil
			}
			continue
		}
		child, err := w.push(ctx, c.rest, len(stack))
		if err != nil {
			return err
		}
		prefix = append(prefix, c.word)
		stack = append(stack, child)
	}
	return nil
}

func (w *walker) push(ctx context.Context, remaining occurrence.Occurrence, depth int) (*frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("anagram search interrupted: %w", err)
	}
	if limit := w.engine.opts.MaxDepth; limit > 0 && depth >= limit {
		return nil, fmt.Errorf("%w: sentence needs more than %d words", ErrDepthExceeded, limit)
	}
	w.frames++
	candidates, err := w.expand(remaining)
	if err != nil {
		return nil, err
	}
	return &frame{candidates: candidates}, nil
}

// expand lists, for every sub-multiset o of remaining in Combinations order
// and every dictionary word with signature o, the word and what is left.
func (w *walker) expand(remaining occurrence.Occurrence) ([]candidate, error) {
	var key occurrence.Key
	if w.memo != nil {
		key = remaining.Key()
		if cached, ok := w.memo[key]; ok {
			w.memoHits++
			return cached, nil
		}
	}
	var candidates []candidate
	for _, o := range occurrence.Combinations(remaining) {
		words := w.engine.index.Lookup(o)
		if len(words) == 0 {
			continue
		}
		rest, err := occurrence.Subtract(remaining, o)
		if err != nil {
			return nil, fmt.Errorf("expanding %v: %w", remaining, err)
		}
		for _, word := range words {
			candidates = append(candidates, candidate{word: word, rest: rest})
		}
	}
	if w.memo != nil {
		w.memo[key] = candidates
	}
	return candidates, nil
}
