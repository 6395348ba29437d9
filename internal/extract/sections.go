package extract

import (
	"regexp"
	"unicode/utf8"

	"github.com/joseph-ayodele/jurisprudence/internal/textnorm"
)

// minSectionRunes is the length a cleaned section must exceed to be kept.
const minSectionRunes = 10

var (
	reFrenchHeader   = regexp.MustCompile(`(?i)` + headerFrench + `[ \t]*:?`)
	reArabicHeader   = regexp.MustCompile(`(?i)` + headerArabic + `[ \t]*:?`)
	reFullTextHeader = regexp.MustCompile(`(?i)` + headerFullText + `[ \t]*:?`)
	reRoyalMarker    = regexp.MustCompile(markerRoyal)
)

// between returns the text following start up to the earliest of ends, or
// to the end of text when no end marker follows.
func between(text string, start *regexp.Regexp, ends ...*regexp.Regexp) (string, bool) {
	loc := start.FindStringIndex(text)
	if loc == nil {
		return "", false
	}
	rest := text[loc[1]:]
	cut := len(rest)
	for _, end := range ends {
		if m := end.FindStringIndex(rest); m != nil && m[0] < cut {
			cut = m[0]
		}
	}
	return rest[:cut], true
}

func accept(s string) (string, bool) {
	if utf8.RuneCountInString(s) <= minSectionRunes {
		return "", false
	}
	return s, true
}

// FrenchSummary returns the French summary flattened to one line. It stops
// at the Arabic summary, the full text or the judgment's opening formula,
// whichever comes first.
func FrenchSummary(text string) (string, bool) {
	raw, ok := between(text, reFrenchHeader, reArabicHeader, reFullTextHeader, reRoyalMarker)
	if !ok {
		return "", false
	}
	return accept(textnorm.Normalize(raw))
}

// ArabicSummary returns the Arabic summary with footers removed and
// paragraphs preserved.
func ArabicSummary(text string) (string, bool) {
	raw, ok := between(text, reArabicHeader, reFullTextHeader, reRoyalMarker)
	if !ok {
		return "", false
	}
	return accept(CleanArabic(raw))
}

// FullText returns the decision body. Without a "Texte intégral" header
// the body starts at the opening formula, which is kept.
func FullText(text string) (string, bool) {
	if loc := reFullTextHeader.FindStringIndex(text); loc != nil {
		return accept(CleanArabic(text[loc[1]:]))
	}
	if loc := reRoyalMarker.FindStringIndex(text); loc != nil {
		return accept(CleanArabic(text[loc[0]:]))
	}
	return "", false
}
