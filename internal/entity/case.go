package entity

import (
	"encoding/json"
	"time"
)

// Case is a jurisprudence record with its summaries and full text in
// plaintext. Encryption happens at the repository boundary.
type Case struct {
	ID             int64      `json:"id"`
	Ref            string     `json:"ref"`
	Titre          string     `json:"titre"`
	Juridiction    string     `json:"juridiction"`
	PaysVille      string     `json:"pays_ville"`
	NumeroDecision string     `json:"numero_decision"`
	DateDecision   *time.Time `json:"-"`
	NumeroDossier  string     `json:"numero_dossier"`
	TypeDecision   string     `json:"type_decision"`
	Chambre        string     `json:"chambre"`
	Theme          string     `json:"theme"`
	MotsCles       string     `json:"mots_cles"`
	BaseLegale     string     `json:"base_legale"`
	Source         string     `json:"source"`
	ResumeFrancais string     `json:"resume_francais"`
	ResumeArabe    string     `json:"resume_arabe"`
	TexteIntegral  string     `json:"texte_integral"`
	PDFFilePath    string     `json:"pdf_file_path"`
	CreatedBy      int64      `json:"created_by"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// DateString renders the decision date as YYYY-MM-DD, or "" when unknown.
func (c *Case) DateString() string {
	if c.DateDecision == nil {
		return ""
	}
	return c.DateDecision.Format("2006-01-02")
}

// MarshalJSON renders date_decision as YYYY-MM-DD or null.
func (c Case) MarshalJSON() ([]byte, error) {
	type alias Case
	var date *string
	if s := c.DateString(); s != "" {
		date = &s
	}
	return json.Marshal(struct {
		alias
		DateDecision *string `json:"date_decision"`
	}{alias(c), date})
}

// StoredCase is the row as persisted: sensitive bodies hold opaque tokens.
type StoredCase struct {
	Case
	ResumeFrancaisEnc string
	ResumeArabeEnc    string
	TexteIntegralEnc  string
}

// CaseStats summarises the case table for the dashboard.
type CaseStats struct {
	Total     int `json:"total"`
	ThisMonth int `json:"this_month"`
	MyCases   int `json:"my_cases"`
	WithPDF   int `json:"with_pdf"`
}
