package textfilter

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var umlauts = strings.NewReplacer("ä", "ae", "ö", "oe", "ü", "ue", "ß", "ss")

// Fold normalizes text for lenient matching: lower case, German umlauts
// transliterated ("Müller" and "mueller" fold to the same string), remaining
// diacritics removed, whitespace collapsed.
func Fold(s string) string {
	s = norm.NFC.String(s)
	s = cases.Lower(language.German).String(s)
	s = umlauts.Replace(s)
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if out, _, err := transform.String(t, s); err == nil {
		s = out
	}
	return strings.Join(strings.Fields(s), " ")
}

// ContainsWord reports whether phrase occurs in text as whole words, after
// folding both. "Gutachten" is found in "ein Gutachten, bitte" but not in
// "Wertgutachten".
func ContainsWord(text, phrase string) bool {
	return containsFoldedWord(Fold(text), Fold(phrase))
}

func containsFoldedWord(folded, needle string) bool {
	if needle == "" {
		return false
	}
	for start := 0; start <= len(folded)-len(needle); {
		i := strings.Index(folded[start:], needle)
		if i < 0 {
			return false
		}
		i += start
		end := i + len(needle)
		if !wordRuneBefore(folded, i) && !wordRuneAt(folded, end) {
			return true
		}
		start = i + 1
	}
	return false
}

func wordRuneBefore(s string, i int) bool {
	if i == 0 {
		return false
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return isWordRune(r)
}

func wordRuneAt(s string, i int) bool {
	if i >= len(s) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return isWordRune(r)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
