package textnorm

import (
	"math/rand"
	"strings"
	"testing"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"private use", "Cour\uE001 de\uF8FF cassation", "Cour de cassation"},
		{"supplementary private use", "a\U000F0001b", "ab"},
		{"replacement glyphs", "\uFFFDحكم\u25A1 \u25A0", "حكم "},
		{"controls kept whitespace", "a\x00b\tc\nd\x1b", "ab\tc\nd"},
		{"presentation forms", "\uFE91\uFE8E\uFEB3\uFEE2", "باسم"},
		{"nfc", "e\u0301", "é"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clean(tt.in); got != tt.want {
				t.Fatalf("Clean(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	in := "  Cour \uE000 d'appel\n\n de   Rabat\t "
	if got, want := Normalize(in), "Cour d'appel de Rabat"; got != want {
		t.Fatalf("Normalize = %q, want %q", got, want)
	}
}

func TestNormalizeBody(t *testing.T) {
	in := "  line one  \r\n\tline\u00A0two\f\n\n\n\n  para two \n\n\n"
	want := "line one\nline two\n\npara two"
	if got := NormalizeBody(in); got != want {
		t.Fatalf("NormalizeBody = %q, want %q", got, want)
	}
}

var idempotenceSeeds = []string{
	"",
	" ",
	"\n\n\n\n",
	"a\r\n\r\n\r\nb",
	"\uFDFA \uFE8D\uFEDF",
	"e\uE000\u0301",
	"x \u00A0\u2028 y\u3000z",
	"Résumé en arabe: مرحبا بالعالم Page 3/10",
	"\x00\x01\uFFFD\uFFFD",
	"a\v\vb",
}

func randomText(r *rand.Rand) string {
	pool := []rune{
		'a', 'Z', 'é', ' ', ' ', '\n', '\n', '\r', '\t', '\f', '\v', '\x00',
		'\u00A0', '\u0301', 'ا', 'ل', '\uFE8D', '\uFEDF', '\uFDF2',
		'\uE000', '\uFFFD', '\u25A1', '\u2028', '3', '/',
	}
	n := r.Intn(40)
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteRune(pool[r.Intn(len(pool))])
	}
	return b.String()
}

func TestIdempotence(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	inputs := append([]string{}, idempotenceSeeds...)
	for i := 0; i < 2000; i++ {
		inputs = append(inputs, randomText(r))
	}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Fatalf("Normalize not idempotent for %q: %q then %q", in, once, twice)
		}
		body := NormalizeBody(in)
		if twice := NormalizeBody(body); twice != body {
			t.Fatalf("NormalizeBody not idempotent for %q: %q then %q", in, body, twice)
		}
	}
}

func FuzzNormalizeBody(f *testing.F) {
	for _, s := range idempotenceSeeds {
		f.Add(s)
	}
	f.Fuzz(func(t *testing.T, in string) {
		body := NormalizeBody(in)
		if NormalizeBody(body) != body {
			t.Fatalf("not idempotent for %q", in)
		}
		flat := Normalize(in)
		if Normalize(flat) != flat {
			t.Fatalf("Normalize not idempotent for %q", in)
		}
	})
}
