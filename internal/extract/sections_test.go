package extract

import (
	"strings"
	"testing"
)

func TestSectionBoundaries(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"all headers", "Résumé en français : FR_BODY avant la frontière\nRésumé en arabe : AR_BODY ملخص القرار هنا\nTexte intégral : FULL_BODY نص القرار"},
		{"unaccented headers", "Resume en francais FR_BODY avant la frontière Resume en arabe AR_BODY ملخص القرار هنا Texte integral FULL_BODY نص القرار"},
		{"upper case", "RÉSUMÉ EN FRANÇAIS\nFR_BODY avant la frontière\n\nRÉSUMÉ EN ARABE\nAR_BODY ملخص القرار هنا\n\nTEXTE INTÉGRAL\nFULL_BODY نص القرار"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fr, ok := FrenchSummary(tt.text)
			if !ok {
				t.Fatal("french summary not found")
			}
			if !strings.Contains(fr, "FR_BODY") || strings.Contains(fr, "AR_BODY") || strings.Contains(fr, "FULL_BODY") {
				t.Errorf("french summary crosses its boundary: %q", fr)
			}
			if strings.Contains(fr, "\n") {
				t.Errorf("french summary not flattened: %q", fr)
			}

			ar, ok := ArabicSummary(tt.text)
			if !ok {
				t.Fatal("arabic summary not found")
			}
			if !strings.Contains(ar, "AR_BODY") || strings.Contains(ar, "FULL_BODY") || strings.Contains(ar, "FR_BODY") {
				t.Errorf("arabic summary crosses its boundary: %q", ar)
			}

			full, ok := FullText(tt.text)
			if !ok {
				t.Fatal("full text not found")
			}
			if !strings.HasPrefix(full, "FULL_BODY") {
				t.Errorf("full text = %q", full)
			}
		})
	}
}

func TestFrenchSummaryStopsAtFullTextWithoutArabic(t *testing.T) {
	text := "Résumé en français : la cour rejette le pourvoi.\nTexte intégral : باسم جلالة الملك"
	fr, ok := FrenchSummary(text)
	if !ok || fr != "la cour rejette le pourvoi." {
		t.Fatalf("french = %q, %v", fr, ok)
	}
}

func TestFrenchSummaryStopsAtRoyalFormula(t *testing.T) {
	text := "Résumé en français : la cour rejette le pourvoi.\nباسم جلالة الملك وطبقا للقانون"
	fr, _ := FrenchSummary(text)
	if fr != "la cour rejette le pourvoi." {
		t.Fatalf("french = %q", fr)
	}
	full, ok := FullText(text)
	if !ok || !strings.HasPrefix(full, "باسم جلالة الملك") {
		t.Fatalf("full text from formula = %q, %v", full, ok)
	}
}

func TestSectionMinimumLength(t *testing.T) {
	if v, ok := FrenchSummary("Résumé en français : court\nRésumé en arabe : نص"); ok {
		t.Errorf("short french summary accepted: %q", v)
	}
	if v, ok := ArabicSummary("Résumé en arabe : \uFFFD\uFFFDنص\uFFFD\nTexte intégral"); ok {
		t.Errorf("short arabic summary accepted: %q", v)
	}
	if _, ok := FullText("pas de texte"); ok {
		t.Error("full text found without header or formula")
	}
}

func TestArabicSummaryFooterScenario(t *testing.T) {
	text := "Résumé en arabe: مرحبا بالعالم Page 3/10 this is a footer line that is quite long really Texte intégral: ..."
	ar, ok := ArabicSummary(text)
	if !ok {
		t.Fatal("arabic summary not found")
	}
	if ar != "مرحبا بالعالم" {
		t.Fatalf("arabic summary = %q", ar)
	}
}

func TestArabicSummaryKeepsParagraphs(t *testing.T) {
	text := "Résumé en arabe\nالفقرة الأولى من الملخص\n\nالفقرة الثانية من الملخص\nTexte intégral"
	ar, _ := ArabicSummary(text)
	if ar != "الفقرة الأولى من الملخص\n\nالفقرة الثانية من الملخص" {
		t.Fatalf("arabic summary = %q", ar)
	}
}
