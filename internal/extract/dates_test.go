package extract

import (
	"math/rand"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"12/05/2010", time.Date(2010, 5, 12, 0, 0, 0, 0, time.UTC), true},
		{"1/2/2003", time.Date(2003, 2, 1, 0, 0, 0, 0, time.UTC), true},
		{"12-05-2010", time.Date(2010, 5, 12, 0, 0, 0, 0, time.UTC), true},
		{"12/05/10", time.Date(2010, 5, 12, 0, 0, 0, 0, time.UTC), true},
		{"12-05-99", time.Date(1999, 5, 12, 0, 0, 0, 0, time.UTC), true},
		{"12/05/69", time.Date(1969, 5, 12, 0, 0, 0, 0, time.UTC), true},
		{"12/05/68", time.Date(2068, 5, 12, 0, 0, 0, 0, time.UTC), true},
		{"2010-05-12", time.Date(2010, 5, 12, 0, 0, 0, 0, time.UTC), true},
		{"12.05.2010", time.Date(2010, 5, 12, 0, 0, 0, 0, time.UTC), true},
		{"  12/05/2010 ", time.Date(2010, 5, 12, 0, 0, 0, 0, time.UTC), true},
		{"31/02/2010", time.Time{}, false},
		{"12/13/2010", time.Time{}, false},
		{"12/05/201", time.Time{}, false},
		{"2010/05/12", time.Time{}, false},
		{"", time.Time{}, false},
		{"hier", time.Time{}, false},
	}
	for _, tt := range tests {
		got, ok := ParseDate(tt.in)
		if ok != tt.ok {
			t.Errorf("ParseDate(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			continue
		}
		if ok && !got.Equal(tt.want) {
			t.Errorf("ParseDate(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseDateIsTotal(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	alphabet := []rune("0123456789/-. :aZ٢\x00\n")
	for i := 0; i < 5000; i++ {
		n := r.Intn(14)
		b := make([]rune, n)
		for j := range b {
			b[j] = alphabet[r.Intn(len(alphabet))]
		}
		in := string(b)
		got, ok := ParseDate(in)
		if !ok && !got.IsZero() {
			t.Fatalf("ParseDate(%q) returned %v with ok=false", in, got)
		}
	}
}

func FuzzParseDate(f *testing.F) {
	for _, s := range []string{"12/05/2010", "2010-05-12", "1.1.1", "//", "99-99-99"} {
		f.Add(s)
	}
	f.Fuzz(func(t *testing.T, in string) {
		ParseDate(in)
	})
}
