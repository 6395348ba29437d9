package extract

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/joseph-ayodele/jurisprudence/internal/textnorm"
)

const minFooterRunes = 20

var (
	// runs of text between Arabic letters, never crossing a line break
	reNonArabicRun = regexp.MustCompile(`[^\p{Arabic}\n]+`)
	rePageCounter  = regexp.MustCompile(`(?i)\bpage\s*\d+\s*/\s*\d+`)
)

// CleanArabic strips PDF artifacts from Arabic body text: placeholder
// glyphs, private-use code points and running footers. A footer is a
// Latin-script run of at least minFooterRunes characters that carries a
// "page X/Y" counter. Paragraph breaks are kept.
func CleanArabic(s string) string {
	s = textnorm.Clean(s)
	s = reNonArabicRun.ReplaceAllStringFunc(s, func(run string) string {
		if isFooter(run) {
			return " "
		}
		return run
	})
	return textnorm.NormalizeBody(s)
}

func isFooter(run string) bool {
	if !rePageCounter.MatchString(run) {
		return false
	}
	trimmed := strings.TrimSpace(run)
	if utf8.RuneCountInString(trimmed) < minFooterRunes {
		return false
	}
	return strings.IndexFunc(trimmed, func(r rune) bool { return unicode.Is(unicode.Latin, r) }) >= 0
}
