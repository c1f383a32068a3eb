package merge

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// FoldName reduces a company name to its comparison form: accents stripped,
// case lowered, punctuation turned into spaces, whitespace collapsed. Two
// names with the same folded form are spellings of the same thing as far as
// the merge audit is concerned.
func FoldName(name string) string {
	// The transformer chain carries state, so build it per call.
	strip := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	s, _, err := transform.String(strip, name)
	if err != nil {
		s = name
	}
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, s)
	return strings.Join(strings.Fields(s), " ")
}
