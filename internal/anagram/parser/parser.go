// Package parser turns raw query strings into sentence words and result
// limits.
package parser

import (
	"fmt"
	"strconv"
	"strings"
)

// Parse splits a free-form query into sentence words on Unicode
// whitespace. Letter case and punctuation are kept; the occurrence
// signature folds case later.
func Parse(raw string) []string {
	return strings.Fields(raw)
}

// ParseLimit reads an optional positive limit. An empty value yields def,
// and values above limit are clamped to it.
func ParseLimit(raw string, def, limit int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("limit must be a positive integer, got %q", raw)
	}
	return min(n, limit), nil
}
