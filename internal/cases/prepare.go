package cases

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/joseph-ayodele/jurisprudence/constants"
	"github.com/joseph-ayodele/jurisprudence/internal/entity"
	"github.com/joseph-ayodele/jurisprudence/internal/extract"
)

// Truncate cuts s to at most n runes. Strings within the limit come back
// unchanged.
func Truncate(s string, n int) string {
	if n < 0 {
		n = 0
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// Prepare turns an extraction result into a storable record: bounded
// columns are truncated, bodies pass through, and the title falls back to
// the theme and then to "Document {ref}".
func Prepare(res extract.Result, pdfPath string) *entity.Case {
	get := func(f string) string {
		v, _ := res.Get(f)
		return v
	}
	c := &entity.Case{
		Ref:            get(constants.FieldRef),
		Titre:          get(constants.FieldTitre),
		Juridiction:    get(constants.FieldJuridiction),
		PaysVille:      get(constants.FieldPaysVille),
		NumeroDecision: get(constants.FieldNumeroDecision),
		DateDecision:   res.DecisionDate,
		NumeroDossier:  get(constants.FieldNumeroDossier),
		TypeDecision:   get(constants.FieldTypeDecision),
		Chambre:        get(constants.FieldChambre),
		Theme:          get(constants.FieldTheme),
		MotsCles:       get(constants.FieldMotsCles),
		BaseLegale:     get(constants.FieldBaseLegale),
		Source:         get(constants.FieldSource),
		ResumeFrancais: get(constants.FieldResumeFrancais),
		ResumeArabe:    get(constants.FieldResumeArabe),
		TexteIntegral:  get(constants.FieldTexteIntegral),
		PDFFilePath:    pdfPath,
	}
	return Bound(c)
}

// Bound applies the storage limits and the title fallback in place.
func Bound(c *entity.Case) *entity.Case {
	c.Ref = strings.TrimSpace(c.Ref)
	for field, p := range boundedFields(c) {
		*p = Truncate(*p, constants.FieldLimits[field])
	}
	c.PDFFilePath = Truncate(c.PDFFilePath, constants.MaxPDFPathLength)

	if strings.TrimSpace(c.Titre) == "" {
		c.Titre = c.Theme
	}
	if strings.TrimSpace(c.Titre) == "" && c.Ref != "" {
		c.Titre = fmt.Sprintf("Document %s", c.Ref)
	}
	return c
}

func boundedFields(c *entity.Case) map[string]*string {
	return map[string]*string{
		constants.FieldRef:            &c.Ref,
		constants.FieldJuridiction:    &c.Juridiction,
		constants.FieldPaysVille:      &c.PaysVille,
		constants.FieldNumeroDecision: &c.NumeroDecision,
		constants.FieldNumeroDossier:  &c.NumeroDossier,
		constants.FieldTypeDecision:   &c.TypeDecision,
		constants.FieldChambre:        &c.Chambre,
		constants.FieldSource:         &c.Source,
	}
}
