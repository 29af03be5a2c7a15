package occurrence

// Combinations returns every sub-multiset of o, including the empty
// occurrence and o itself, each exactly once.
//
// The order matches the recursive definition: with (c, max) the first pair
// and crest the combinations of the rest, the result is crest followed by,
// for n = 1..max, each element of crest prefixed with (c, n). It is built
// from the last pair backwards so no recursion is needed.
func Combinations(o Occurrence) []Occurrence {
	total := 1
	for _, c := range o {
		total *= c.N + 1
	}
	crest := make([]Occurrence, 1, total)
	crest[0] = Occurrence{}
	for i := len(o) - 1; i >= 0; i-- {
		c := o[i]
		next := make([]Occurrence, 0, len(crest)*(c.N+1))
		next = append(next, crest...)
		for n := 1; n <= c.N; n++ {
			for _, cr := range crest {
				combo := make(Occurrence, 0, len(cr)+1)
				combo = append(combo, Count{Char: c.Char, N: n})
				combo = append(combo, cr...)
				next = append(next, combo)
			}
		}
		crest = next
	}
	return crest
}
