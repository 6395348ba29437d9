package encryption

import (
	"errors"
	"testing"
)

func newService(t *testing.T) *Service {
	t.Helper()
	key, err := GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	s, err := NewService(key)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestRoundTrip(t *testing.T) {
	s := newService(t)
	for _, in := range []string{"a", "Résumé en français", "مسؤولية الحارس", "line\n\nbreak"} {
		tok, err := s.Encrypt(in)
		if err != nil {
			t.Fatal(err)
		}
		if tok == "" || tok == in {
			t.Fatalf("token for %q = %q", in, tok)
		}
		out, err := s.Decrypt(tok)
		if err != nil || out != in {
			t.Fatalf("Decrypt = %q, %v; want %q", out, err, in)
		}
	}
}

func TestEmptyMapsToEmpty(t *testing.T) {
	s := newService(t)
	if tok, err := s.Encrypt(""); tok != "" || err != nil {
		t.Fatalf("Encrypt(\"\") = %q, %v", tok, err)
	}
	if out, err := s.Decrypt(""); out != "" || err != nil {
		t.Fatalf("Decrypt(\"\") = %q, %v", out, err)
	}
}

func TestTokensAreRandomised(t *testing.T) {
	s := newService(t)
	a, _ := s.Encrypt("same")
	b, _ := s.Encrypt("same")
	if a == b {
		t.Fatal("two encryptions of the same text produced the same token")
	}
}

func TestDecryptWithWrongKey(t *testing.T) {
	tok, _ := newService(t).Encrypt("secret")
	if _, err := newService(t).Decrypt(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
	if _, err := newService(t).Decrypt("not*base64"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestNewServiceRejectsBadKeys(t *testing.T) {
	for _, k := range []string{"", "short", "AAAA"} {
		if _, err := NewService(k); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("NewService(%q) err = %v", k, err)
		}
	}
}
