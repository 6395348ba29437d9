// Package textnorm cleans text produced by PDF extraction before any
// pattern matching or storage.
package textnorm

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	reLineBreak  = regexp.MustCompile("\r\n|\r|\f|\u0085|\u2028|\u2029")
	reMultiBlank = regexp.MustCompile(`\n{3,}`)
)

// placeholder glyphs emitted by PDF tools for characters they could not map.
var glyphs = map[rune]struct{}{
	'\uFFFD': {}, // replacement character
	'\uFFFC': {}, // object replacement
	'\uFEFF': {}, // stray BOM
	'\u25A0': {},
	'\u25A1': {},
	'\u25AF': {},
	'\u25A2': {},
	'\u2610': {},
}

// IsArtifact reports whether r is an extraction artifact that Clean drops.
func IsArtifact(r rune) bool {
	if _, ok := glyphs[r]; ok {
		return true
	}
	if unicode.Is(unicode.Co, r) {
		return true
	}
	switch r {
	case '\n', '\t', '\r', '\f', '\v':
		return false
	}
	return r < 0x20 || r == 0x7f
}

func isPresentationForm(r rune) bool {
	return (r >= 0xFB50 && r <= 0xFDFF) || (r >= 0xFE70 && r <= 0xFEFE)
}

// Clean drops private-use code points, placeholder glyphs and control
// characters, folds Arabic presentation forms to their base letters and
// returns the NFC form. Whitespace is left untouched.
func Clean(s string) string {
	if s == "" {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case IsArtifact(r):
		case isPresentationForm(r):
			b.WriteString(norm.NFKC.String(string(r)))
		default:
			b.WriteRune(r)
		}
	}
	return norm.NFC.String(b.String())
}

// Normalize cleans s and collapses every whitespace run, newlines included,
// into a single space. Used for metadata values.
func Normalize(s string) string {
	return strings.Join(strings.Fields(Clean(s)), " ")
}

// NormalizeBody cleans s while keeping paragraph structure: line endings
// become \n, spaces within a line collapse, and blank-line runs shrink to
// a single empty line.
func NormalizeBody(s string) string {
	s = Clean(s)
	if s == "" {
		return s
	}
	s = reLineBreak.ReplaceAllString(s, "\n")
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.Join(strings.Fields(lines[i]), " ")
	}
	s = strings.Join(lines, "\n")
	s = reMultiBlank.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// Flatten collapses all whitespace without cleaning.
func Flatten(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
