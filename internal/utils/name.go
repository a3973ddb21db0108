package utils

import (
	"strings"
	"unicode"
)

// FoldName returns the case-insensitive key for a chat or account name.
// Two names share a key exactly when strings.EqualFold reports them equal
// after trimming surrounding space.
func FoldName(name string) string {
	return strings.Map(foldRune, strings.TrimSpace(name))
}

// foldRune maps r to the smallest rune in its simple case-folding orbit.
func foldRune(r rune) rune {
	lowest := r
	for f := unicode.SimpleFold(r); f != r; f = unicode.SimpleFold(f) {
		if f < lowest {
			lowest = f
		}
	}
	return lowest
}
