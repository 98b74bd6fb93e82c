package statute

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// isUpper reports whether s has at least one cased rune and no lower-case
// or title-case runes. Digits and punctuation are ignored.
func isUpper(s string) bool {
	cased := false
	for _, r := range s {
		switch {
		case unicode.IsLower(r), unicode.IsTitle(r):
			return false
		case unicode.IsUpper(r):
			cased = true
		}
	}
	return cased
}

func startsWithLetter(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return r != utf8.RuneError && unicode.IsLetter(r)
}

// wordCount approximates the token count of s as its whitespace-delimited
// word count.
func wordCount(s string) int {
	return len(strings.Fields(s))
}

// appendText joins extra to base with a single space.
func appendText(base, extra string) string {
	return base + " " + extra
}

// looksLikeCaption reports whether line can be an article caption: short and
// not ending like a sentence or an enumeration item.
func looksLikeCaption(line string) bool {
	if line == "" || utf8.RuneCountInString(line) >= maxTitleLength {
		return false
	}
	r, _ := utf8.DecodeLastRuneInString(line)
	return !strings.ContainsRune(".,;:", r)
}
