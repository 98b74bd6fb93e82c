package qdrant

import (
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/mevzuatgpt/mevzuat/internal/pkg/hash"
)

// Tokenize lower-cases text with Turkish casing rules and splits it into
// letter/digit runs. "KANUNU" and "kanunu" yield the same token, and dotted
// "İ" lowers to "i" rather than "i̇".
func Tokenize(text string) []string {
	// Casers carry state and cannot be shared between goroutines.
	lowered := cases.Lower(language.Turkish).String(text)
	return strings.FieldsFunc(lowered, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// SparseVector turns text into term-frequency weights keyed by hashed
// token. Indices are ascending and unique. IDF weighting is applied by the
// collection.
func SparseVector(text string) ([]uint32, []float32) {
	counts := make(map[uint32]float32)
	for _, tok := range Tokenize(text) {
		counts[hash.Term(tok)]++
	}

	indices := make([]uint32, 0, len(counts))
	for idx := range counts {
		indices = append(indices, idx)
	}
	slices.Sort(indices)

	values := make([]float32, len(indices))
	for i, idx := range indices {
		values[i] = counts[idx]
	}
	return indices, values
}
