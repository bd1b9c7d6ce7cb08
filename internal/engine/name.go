package engine

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NormalizeName trims a shop name and title-cases it. Names containing
// letters from a caseless script (Khmer, Thai, CJK, ...) are left as-is
// after trimming, since title-casing would be meaningless for them.
func NormalizeName(name string) string {
	cleaned := strings.TrimSpace(name)
	if cleaned == "" {
		return ""
	}
	if hasCaselessLetter(cleaned) {
		return cleaned
	}
	// A Caser is stateful and must not be shared across goroutines.
	return cases.Title(language.Und).String(cleaned)
}

// hasCaselessLetter reports whether the string contains a letter with
// no upper/lower distinction. This generalizes the caseless-script
// check to any script instead of a single code-point range.
func hasCaselessLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) && unicode.ToLower(r) == unicode.ToUpper(r) {
			return true
		}
	}
	return false
}

// namesSimilar reports whether two normalized names overlap. Both are
// case-folded; either shorter than minLength runes is an automatic
// reject; otherwise one must be a literal substring of the other. This
// is a deliberately coarse containment heuristic, not edit distance.
func namesSimilar(a, b string, minLength int) bool {
	na := strings.ToLower(a)
	nb := strings.ToLower(b)
	if utf8.RuneCountInString(na) < minLength || utf8.RuneCountInString(nb) < minLength {
		return false
	}
	return strings.Contains(na, nb) || strings.Contains(nb, na)
}
