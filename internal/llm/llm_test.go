package llm

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  string
		ok    bool
	}{
		{"fenced", "Voici:\n```json\n{\"a\": {\"b\": 1}}\n```\nfin", `{"a": {"b": 1}}`, true},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`, true},
		{"braces", "texte {\"a\":\"x\"} suite", `{"a":"x"}`, true},
		{"raw newline in string", "{\"analysis\":\"ligne 1\nligne 2\"}", `{"analysis":"ligne 1 ligne 2"}`, true},
		{"no object", "aucun cas similaire", "", false},
		{"broken", "{\"a\": }", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractJSONObject(tt.reply)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if strings.TrimSpace(got) != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSanitizeFillFields(t *testing.T) {
	in := `{"ref":" 123 ","chambre":null,"source":"","theme":"N/A","extra":"x","numero_dossier":42,"mots_cles":["a"]}`
	out, dropped, err := SanitizeFillFields([]byte(in), []string{"ref", "chambre", "source", "theme", "numero_dossier", "mots_cles"})
	if err != nil {
		t.Fatalf("sanitize: %v", err)
	}
	var m map[string]string
	if err := json.Unmarshal(out, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(m) != 2 || m["ref"] != "123" || m["numero_dossier"] != "42" {
		t.Errorf("unexpected fields: %v", m)
	}
	if len(dropped) != 5 {
		t.Errorf("dropped = %v, want 5 entries", dropped)
	}
	if err := ValidateJSONAgainstSchema(BuildFillJSONSchema([]string{"ref", "numero_dossier"}), out); err != nil {
		t.Errorf("sanitized doc should validate: %v", err)
	}
}

func TestFillSchemaRejectsUnknownKeys(t *testing.T) {
	schema := BuildFillJSONSchema([]string{"ref"})
	if err := ValidateJSONAgainstSchema(schema, []byte(`{"ref":"1","titre":"x"}`)); err == nil {
		t.Error("expected validation error for unrequested key")
	}
	if err := ValidateJSONAgainstSchema(schema, []byte(`{"ref":""}`)); err == nil {
		t.Error("expected validation error for empty value")
	}
}

func TestNormalizeRankReply(t *testing.T) {
	in := `{"similar_cases":[12,"34",""],"similarity_reasons":{"12":"même thème","34":5},"analysis":["a","b"]}`
	out, err := NormalizeRankReply([]byte(in))
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if err := ValidateJSONAgainstSchema(BuildRankJSONSchema(), out); err != nil {
		t.Fatalf("normalized reply should validate: %v", err)
	}
	var r struct {
		SimilarCases      []string          `json:"similar_cases"`
		SimilarityReasons map[string]string `json:"similarity_reasons"`
		Analysis          string            `json:"analysis"`
	}
	_ = json.Unmarshal(out, &r)
	if len(r.SimilarCases) != 2 || r.SimilarCases[0] != "12" || r.SimilarCases[1] != "34" {
		t.Errorf("similar_cases = %v", r.SimilarCases)
	}
	if len(r.SimilarityReasons) != 1 {
		t.Errorf("reasons = %v", r.SimilarityReasons)
	}
	if r.Analysis != "a\nb" {
		t.Errorf("analysis = %q", r.Analysis)
	}
}

func TestFormatDigest(t *testing.T) {
	long := strings.Repeat("é", 350)
	got := FormatDigest(CaseDigest{Ref: "7", Titre: "Bail", ResumeFrancais: long})
	if !strings.Contains(got, "Réf: 7\nTitre: Bail\nJuridiction: N/A") {
		t.Errorf("unexpected header:\n%s", got)
	}
	if !strings.Contains(got, "Résumé FR: "+strings.Repeat("é", 300)+"...\n") {
		t.Error("french summary should be cut at 300 runes")
	}
	if !strings.HasSuffix(got, "Résumé AR: N/A") {
		t.Error("absent arabic summary should read N/A")
	}
}

func TestBuildRankPromptCapsCases(t *testing.T) {
	cases := make([]CaseDigest, 60)
	for i := range cases {
		cases[i] = CaseDigest{Ref: "r"}
	}
	p := BuildRankPrompt(RankRequest{Query: "loyer impayé", Cases: cases, TotalCases: 60})
	if !strings.Contains(p, "(50 cas sur 60 au total)") {
		t.Error("prompt should announce 50 of 60 cases")
	}
	if n := strings.Count(p, "Réf: r"); n != 50 {
		t.Errorf("case blocks = %d, want 50", n)
	}
	if !strings.Contains(p, "CAS À ANALYSER:\nloyer impayé") {
		t.Error("query missing from prompt")
	}
}

func TestNoopFiller(t *testing.T) {
	res := NoopFiller{}.FillMissing(context.Background(), FillRequest{Missing: []string{"ref"}})
	if res.Status != FillSkipped || res.Fields == nil || len(res.Fields) != 0 {
		t.Errorf("unexpected result %+v", res)
	}
}
