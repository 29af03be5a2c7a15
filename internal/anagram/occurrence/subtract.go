package occurrence

import (
	"errors"
	"fmt"
)

// ErrMisalignedSubtraction is matched by every error Subtract returns.
var ErrMisalignedSubtraction = errors.New("misaligned subtraction")

// MisalignedSubtractionError reports the pair of y that could not be
// matched against x.
type MisalignedSubtractionError struct {
	Char  rune
	Want  int
	Have  int
	Found bool
}

func (e *MisalignedSubtractionError) Error() string {
	if !e.Found {
		return fmt.Sprintf("misaligned subtraction: %q not present in minuend", e.Char)
	}
	return fmt.Sprintf("misaligned subtraction: %q count %d exceeds %d", e.Char, e.Want, e.Have)
}

func (e *MisalignedSubtractionError) Is(target error) bool {
	return target == ErrMisalignedSubtraction
}

// Subtract returns the multiset difference x - y. y must be a sub-multiset
// of x; otherwise a *MisalignedSubtractionError is returned. Neither
// argument is modified.
func Subtract(x, y Occurrence) (Occurrence, error) {
	if len(y) == 0 {
		return x, nil
	}
	result := make(Occurrence, 0, len(x))
	j := 0
	for _, xc := range x {
		if j == len(y) || xc.Char != y[j].Char {
			result = append(result, xc)
			continue
		}
		yc := y[j]
		j++
		switch {
		case xc.N > yc.N:
			result = append(result, Count{Char: xc.Char, N: xc.N - yc.N})
		case xc.N < yc.N:
			return nil, &MisalignedSubtractionError{Char: yc.Char, Want: yc.N, Have: xc.N, Found: true}
		}
	}
	if j < len(y) {
		return nil, &MisalignedSubtractionError{Char: y[j].Char, Want: y[j].N}
	}
	return result, nil
}
