package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/joseph-ayodele/jurisprudence/constants"
)

// Rule is one way of locating a field value. Pattern's capture group Group
// marks where the value starts; the value ends at the first Stop match
// inside the capture, or at the end of the capture when Stop is nil.
type Rule struct {
	Pattern *regexp.Regexp
	Group   int
	Stop    *regexp.Regexp
}

// FieldRules is the ordered rule list for one field. First match wins.
type FieldRules struct {
	Field string
	Rules []Rule
}

// RuleSet is an immutable table of field rules. Build it once with
// NewRuleSet or DefaultRules and share it between extractors.
type RuleSet struct {
	fields []FieldRules
	index  map[string]int
}

// NewRuleSet validates and copies the given rules.
func NewRuleSet(fields ...FieldRules) (RuleSet, error) {
	rs := RuleSet{
		fields: make([]FieldRules, 0, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	for _, fr := range fields {
		if fr.Field == "" {
			return RuleSet{}, fmt.Errorf("rule set: empty field name")
		}
		if _, dup := rs.index[fr.Field]; dup {
			return RuleSet{}, fmt.Errorf("rule set: field %q declared twice", fr.Field)
		}
		rules := make([]Rule, len(fr.Rules))
		for i, r := range fr.Rules {
			if r.Pattern == nil {
				return RuleSet{}, fmt.Errorf("rule set: %s rule %d has no pattern", fr.Field, i)
			}
			if r.Group < 0 || r.Group > r.Pattern.NumSubexp() {
				return RuleSet{}, fmt.Errorf("rule set: %s rule %d: group %d out of range", fr.Field, i, r.Group)
			}
			rules[i] = r
		}
		rs.index[fr.Field] = len(rs.fields)
		rs.fields = append(rs.fields, FieldRules{Field: fr.Field, Rules: rules})
	}
	return rs, nil
}

// MustRuleSet is NewRuleSet for package-level tables.
func MustRuleSet(fields ...FieldRules) RuleSet {
	rs, err := NewRuleSet(fields...)
	if err != nil {
		panic(err)
	}
	return rs
}

// Fields lists the fields in declaration order.
func (rs RuleSet) Fields() []string {
	out := make([]string, len(rs.fields))
	for i, fr := range rs.fields {
		out[i] = fr.Field
	}
	return out
}

// Rules returns a copy of the rules for field, or nil.
func (rs RuleSet) Rules(field string) []Rule {
	i, ok := rs.index[field]
	if !ok {
		return nil
	}
	return append([]Rule(nil), rs.fields[i].Rules...)
}

// Label fragments, matched case-insensitively. Each ends on a word
// boundary so "Sources" is not read as "Source".
var labels = map[string]string{
	constants.FieldTitre:          `Titre\b`,
	constants.FieldRef:            `R[ée]f(?:[ée]rence)?\b`,
	constants.FieldJuridiction:    `Juridiction\b`,
	constants.FieldPaysVille:      `Pays\s*/\s*Ville\b`,
	constants.FieldNumeroDecision: `(?:N\s*[°º]|Num[ée]ro)\s*(?:de\s*)?(?:la\s*)?d[ée]cision\b`,
	constants.FieldNumeroDossier:  `(?:N\s*[°º]|Num[ée]ro)\s*(?:de\s*|du\s*)?dossier\b`,
	constants.FieldDateDecision:   `Date\s*(?:de\s*)?(?:la\s*)?d[ée]cision\b`,
	constants.FieldTypeDecision:   `Type\s*(?:de\s*)?d[ée]cision\b`,
	constants.FieldChambre:        `Chambre\b`,
	constants.FieldTheme:          `Th[èée]me\b`,
	constants.FieldMotsCles:       `Mots?[\s-]*cl(?:es?\b|és?)`,
	constants.FieldBaseLegale:     `Base\s*l[ée]gale\b`,
	constants.FieldSource:         `Source\b`,
}

// Section headers and the opening formula of Moroccan judgments.
const (
	headerFrench   = `R[ée]sum[ée]\s*en\s*fran[çc]ais`
	headerArabic   = `R[ée]sum[ée]\s*en\s*arabe`
	headerFullText = `Texte\s*int[ée]gral`
	markerRoyal    = `باسم\s*جلالة\s*الملك`
)

func labelAlternation() string {
	parts := make([]string, 0, len(constants.MetadataFields))
	for _, f := range constants.MetadataFields {
		parts = append(parts, labels[f])
	}
	return `(?:` + strings.Join(parts, `|`) + `)`
}

func sectionAlternation() string {
	return `(?:` + headerFrench + `|` + headerArabic + `|` + headerFullText + `|` + markerRoyal + `)`
}

var (
	// stopBlock ends a value that may wrap lines: a blank line, a label
	// opening a new line, a label followed by a colon, or a section header.
	stopBlock = regexp.MustCompile(`(?i)\n[ \t]*\n|\n[ \t]*\b` + labelAlternation() + `|\b` +
		labelAlternation() + `[ \t]*:|` + sectionAlternation())

	// stopLine ends a single-line value.
	stopLine = regexp.MustCompile(`(?i)\n|\b` + labelAlternation() + `[ \t]*:|` + sectionAlternation())
)

// labelled matches label when it opens a line or is followed by a colon.
func labelled(label, sep string) string {
	return `(?:^[ \t]*\b` + label + `[ \t]*` + sep + `?|\b` + label + `[ \t]*` + sep + `)`
}

// lineRule captures the rest of the line after label.
func lineRule(label string) Rule {
	return Rule{
		Pattern: regexp.MustCompile(`(?im)` + labelled(label, `[:.]`) + `[ \t]*([^\n]+)`),
		Group:   1,
		Stop:    stopLine,
	}
}

// blockRule captures from label up to the next stop marker, across lines.
func blockRule(label string) Rule {
	return Rule{
		Pattern: regexp.MustCompile(`(?ims)` + labelled(label, `:`) + `\s*(.+)`),
		Group:   1,
		Stop:    stopBlock,
	}
}

var defaultRules = MustRuleSet(
	FieldRules{Field: constants.FieldRef, Rules: []Rule{
		{Pattern: regexp.MustCompile(`(?i)\bR[ée]f\b\s*[:.]?\s*(?:n\s*[°º]\s*)?(\d+)`), Group: 1},
		{Pattern: regexp.MustCompile(`(?i)\bR[ée]f[ée]rence\s*:?\s*(?:n\s*[°º]\s*)?(\d+)`), Group: 1},
	}},
	FieldRules{Field: constants.FieldTitre, Rules: []Rule{
		blockRule(labels[constants.FieldTitre]),
		blockRule(labels[constants.FieldTheme]),
		// the document title line sits directly above the reference line
		{Pattern: regexp.MustCompile(`(?im)^([^\n]+)\n[ \t]*R[ée]f[ \t]*:`), Group: 1, Stop: stopLine},
	}},
	FieldRules{Field: constants.FieldJuridiction, Rules: []Rule{lineRule(labels[constants.FieldJuridiction])}},
	FieldRules{Field: constants.FieldPaysVille, Rules: []Rule{lineRule(labels[constants.FieldPaysVille])}},
	FieldRules{Field: constants.FieldNumeroDecision, Rules: []Rule{lineRule(labels[constants.FieldNumeroDecision])}},
	FieldRules{Field: constants.FieldDateDecision, Rules: []Rule{
		{Pattern: regexp.MustCompile(`(?i)\b` + labels[constants.FieldDateDecision] +
			`\s*:?\s*(\d{1,2}[/.\-]\d{1,2}[/.\-]\d{2,4}|\d{4}-\d{1,2}-\d{1,2})`), Group: 1},
	}},
	FieldRules{Field: constants.FieldNumeroDossier, Rules: []Rule{lineRule(labels[constants.FieldNumeroDossier])}},
	FieldRules{Field: constants.FieldTypeDecision, Rules: []Rule{lineRule(labels[constants.FieldTypeDecision])}},
	FieldRules{Field: constants.FieldChambre, Rules: []Rule{lineRule(labels[constants.FieldChambre])}},
	FieldRules{Field: constants.FieldTheme, Rules: []Rule{blockRule(labels[constants.FieldTheme])}},
	FieldRules{Field: constants.FieldMotsCles, Rules: []Rule{blockRule(labels[constants.FieldMotsCles])}},
	FieldRules{Field: constants.FieldBaseLegale, Rules: []Rule{blockRule(labels[constants.FieldBaseLegale])}},
	FieldRules{Field: constants.FieldSource, Rules: []Rule{blockRule(labels[constants.FieldSource])}},
)

// DefaultRules returns the rule table for French-labelled decision sheets.
func DefaultRules() RuleSet {
	return defaultRules
}
