// Package dictionary builds the read-only index from letter signatures to
// dictionary words and loads the word lists it is built from.
package dictionary

import (
	"slices"

	"github.com/Adithya-Monish-Kumar-K/sentence-anagrams/internal/anagram/occurrence"
)

// Index maps an occurrence signature to every dictionary word sharing it,
// in word-list order. It is never mutated after Build and may be shared
// across goroutines without locking.
type Index struct {
	buckets map[occurrence.Key][]string
	words   int
	largest int
}

// Stats summarises an Index.
type Stats struct {
	Words         int `json:"words"`
	Signatures    int `json:"signatures"`
	LargestBucket int `json:"largest_bucket"`
}

// Build indexes words by signature. Order within a bucket follows the input
// and duplicate words are kept. Empty strings are skipped: a zero-letter
// word would let the search recurse without consuming any letters.
func Build(words []string) *Index {
	idx := &Index{
		buckets: make(map[occurrence.Key][]string),
	}
	for _, w := range words {
		if w == "" {
			continue
		}
		idx.words++
		key := occurrence.Word(w).Key()
		bucket := append(idx.buckets[key], w)
		idx.buckets[key] = bucket
		if len(bucket) > idx.largest {
			idx.largest = len(bucket)
		}
	}
	return idx
}

// Lookup returns the words whose signature is o, or nil if there are none.
// The result must be treated as read-only; its capacity is clipped so an
// append never writes into the index.
func (idx *Index) Lookup(o occurrence.Occurrence) []string {
	return idx.lookupKey(o.Key())
}

func (idx *Index) lookupKey(key occurrence.Key) []string {
	bucket, ok := idx.buckets[key]
	if !ok {
		return nil
	}
	return slices.Clip(bucket)
}

// WordAnagrams returns every dictionary word that is an anagram of word,
// including word itself when it is in the dictionary. An empty result means
// no anagrams are known.
func (idx *Index) WordAnagrams(word string) []string {
	return idx.Lookup(occurrence.Word(word))
}

func (idx *Index) Stats() Stats {
	return Stats{
		Words:         idx.words,
		Signatures:    len(idx.buckets),
		LargestBucket: idx.largest,
	}
}
