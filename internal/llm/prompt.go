package llm

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	// MaxRankCases caps how many cases go into one ranking prompt.
	MaxRankCases = 50
	// digestSummaryRunes bounds each summary in a case digest.
	digestSummaryRunes = 300
	// fillTextRunes bounds the document excerpt sent to the field filler.
	fillTextRunes = 6000
)

// fieldHints describes each fillable field to the model.
var fieldHints = map[string]string{
	"ref":             "numéro de référence de la décision (chiffres uniquement)",
	"titre":           "titre court de la décision",
	"juridiction":     "juridiction ayant rendu la décision",
	"pays_ville":      "pays et ville",
	"numero_decision": "numéro de la décision",
	"date_decision":   "date de la décision au format AAAA-MM-JJ",
	"numero_dossier":  "numéro du dossier",
	"type_decision":   "type de décision (arrêt, jugement, ...)",
	"chambre":         "chambre",
	"theme":           "thème juridique",
	"mots_cles":       "mots-clés séparés par des virgules",
	"base_legale":     "textes de loi appliqués",
	"source":          "source de publication",
}

// BuildFillSystemPrompt instructs the model to answer only for the listed fields.
func BuildFillSystemPrompt(fields []string) string {
	var b strings.Builder
	b.WriteString("Tu extrais des métadonnées de décisions de justice marocaines. ")
	b.WriteString("Réponds UNIQUEMENT avec un objet JSON dont les clés sont parmi: ")
	b.WriteString(strings.Join(fields, ", "))
	b.WriteString(". Chaque valeur est une chaîne. Omets toute clé dont la valeur n'apparaît pas dans le document. N'invente rien.\n")
	for _, f := range fields {
		if h, ok := fieldHints[f]; ok {
			fmt.Fprintf(&b, "- %s: %s\n", f, h)
		}
	}
	return b.String()
}

// BuildFillUserPrompt packages the filename hint and a bounded excerpt of the text.
func BuildFillUserPrompt(req FillRequest) string {
	var b strings.Builder
	if fn := strings.TrimSpace(req.Filename); fn != "" {
		b.WriteString("Fichier: ")
		b.WriteString(fn)
		b.WriteString("\n")
	}
	b.WriteString("Texte du document:\n")
	b.WriteString(truncateRunes(req.Text, fillTextRunes, ""))
	return b.String()
}

// BuildRankPrompt renders the similarity prompt for at most MaxRankCases cases.
func BuildRankPrompt(req RankRequest) string {
	sample := req.Cases
	if len(sample) > MaxRankCases {
		sample = sample[:MaxRankCases]
	}
	total := req.TotalCases
	if total < len(req.Cases) {
		total = len(req.Cases)
	}

	blocks := make([]string, 0, len(sample))
	for _, c := range sample {
		blocks = append(blocks, FormatDigest(c))
	}

	var b strings.Builder
	b.WriteString("Tu es un expert juridique spécialisé dans le droit marocain. Analyse la description du cas fournie et trouve les cas similaires dans la jurisprudence.\n\n")
	b.WriteString("**INSTRUCTIONS IMPORTANTES:**\n")
	b.WriteString("- Analyse à la fois le texte en français ET en arabe pour trouver les meilleures similarités\n")
	b.WriteString("- Même si la requête est en français, compare-la aussi avec les résumés arabes\n")
	b.WriteString("- Une décision avec un résumé arabe pertinent doit être incluse même si le résumé français est moins précis\n\n")
	b.WriteString("CAS À ANALYSER:\n")
	b.WriteString(req.Query)
	fmt.Fprintf(&b, "\n\nJURISPRUDENCE DISPONIBLE (%d cas sur %d au total):\n", len(sample), total)
	b.WriteString(strings.Join(blocks, "\n\n---\n\n"))
	b.WriteString("\n\nAnalyse les cas et identifie ceux qui sont les plus pertinents. Retourne ta réponse au format JSON strict suivant:\n")
	b.WriteString(`{
  "similar_cases": ["réf1", "réf2", "réf3"],
  "similarity_reasons": {
    "réf1": "raison détaillée",
    "réf2": "raison détaillée",
    "réf3": "raison détaillée"
  },
  "analysis": "analyse globale des similitudes trouvées",
  "recommendations": "recommandations juridiques basées sur ces précédents"
}`)
	b.WriteString("\n\nTrouve maximum 5 cas les plus similaires. Si aucun cas similaire n'existe, retourne une liste vide.")
	return b.String()
}

// FormatDigest renders one case as a labelled block. Absent values read N/A.
func FormatDigest(c CaseDigest) string {
	lines := []string{
		"Réf: " + orNA(c.Ref),
		"Titre: " + orNA(c.Titre),
		"Juridiction: " + orNA(c.Juridiction),
		"Date: " + orNA(c.DateDecision),
		"Thème: " + orNA(c.Theme),
		"Mots-clés: " + orNA(c.MotsCles),
		"Résumé FR: " + orNA(truncateRunes(c.ResumeFrancais, digestSummaryRunes, "...")),
		"Résumé AR: " + orNA(truncateRunes(c.ResumeArabe, digestSummaryRunes, "...")),
	}
	return strings.Join(lines, "\n")
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

func truncateRunes(s string, n int, suffix string) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + suffix
}
