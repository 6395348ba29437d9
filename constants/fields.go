package constants

// Field names produced by extraction and stored on a case. These match the
// column names of the cases table.
const (
	FieldRef            = "ref"
	FieldTitre          = "titre"
	FieldJuridiction    = "juridiction"
	FieldPaysVille      = "pays_ville"
	FieldNumeroDecision = "numero_decision"
	FieldDateDecision   = "date_decision"
	FieldNumeroDossier  = "numero_dossier"
	FieldTypeDecision   = "type_decision"
	FieldChambre        = "chambre"
	FieldTheme          = "theme"
	FieldMotsCles       = "mots_cles"
	FieldBaseLegale     = "base_legale"
	FieldSource         = "source"

	FieldResumeFrancais = "resume_francais"
	FieldResumeArabe    = "resume_arabe"
	FieldTexteIntegral  = "texte_integral"
)

// MetadataFields lists the regex-extracted metadata fields in display order.
var MetadataFields = []string{
	FieldRef,
	FieldTitre,
	FieldJuridiction,
	FieldPaysVille,
	FieldNumeroDecision,
	FieldDateDecision,
	FieldNumeroDossier,
	FieldTypeDecision,
	FieldChambre,
	FieldTheme,
	FieldMotsCles,
	FieldBaseLegale,
	FieldSource,
}

// SectionFields are the long-form bodies that are encrypted at rest.
var SectionFields = []string{FieldResumeFrancais, FieldResumeArabe, FieldTexteIntegral}

// FieldLimits holds the storage limit (in characters) for bounded columns.
// Fields absent from the map are unbounded.
var FieldLimits = map[string]int{
	FieldRef:            50,
	FieldJuridiction:    200,
	FieldPaysVille:      200,
	FieldNumeroDecision: 100,
	FieldNumeroDossier:  100,
	FieldTypeDecision:   100,
	FieldChambre:        100,
	FieldSource:         200,
}

// MaxPDFPathLength bounds the stored pdf_file_path column.
const MaxPDFPathLength = 500

// IsMetadataField reports whether name is one of MetadataFields.
func IsMetadataField(name string) bool {
	for _, f := range MetadataFields {
		if f == name {
			return true
		}
	}
	return false
}
