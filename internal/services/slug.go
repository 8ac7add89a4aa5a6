package services

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gosimple/slug"
)

// ASCII symbols that read as words in a slug. Other punctuation is dropped.
var slugSymbols = map[rune]string{
	'$': "dollar",
	'%': "percent",
	'&': "and",
	'<': "less",
	'>': "greater",
	'|': "or",
}

// Slugify derives the URL key of a post title: lowercase ASCII letters and
// digits, with runs of whitespace or dashes collapsed to a single dash.
// Punctuation is removed rather than turned into a separator, so
// "Release v2.0" becomes "release-v20".
func Slugify(title string) string {
	var b strings.Builder
	for _, r := range title {
		switch {
		case r == '-' || unicode.IsSpace(r):
			b.WriteByte(' ')
		case r < utf8.RuneSelf:
			if isASCIIAlnum(r) {
				b.WriteRune(r)
			} else if word, ok := slugSymbols[r]; ok {
				b.WriteString(word)
			}
		default:
			b.WriteString(transliterate(r))
		}
	}
	return slug.Make(b.String())
}

// transliterate maps a non-ASCII rune to its ASCII letters and digits, or
// to nothing when it has none.
func transliterate(r rune) string {
	return strings.Map(func(c rune) rune {
		if isASCIIAlnum(c) {
			return c
		}
		return -1
	}, slug.Make(string(r)))
}

func isASCIIAlnum(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9'
}
