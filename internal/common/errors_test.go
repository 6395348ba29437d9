package common

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"not found", NotFoundf("batch %s", "b1"), http.StatusNotFound},
		{"duplicate wrapped", fmt.Errorf("create: %w", ErrDuplicate), http.StatusConflict},
		{"conflict", Conflictf("busy"), http.StatusConflict},
		{"missing ref", ErrMissingRef, http.StatusBadRequest},
		{"too many files", NewAppError("BATCH_TOO_LARGE", "x", ErrBatchTooLarge), http.StatusBadRequest},
		{"database", NewAppError("DB", "insert", ErrDatabase), http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := HTTPStatus(tc.err); got != tc.want {
				t.Fatalf("HTTPStatus(%v) = %d, want %d", tc.err, got, tc.want)
			}
		})
	}
}

func TestErrorCodePrefersAppErrorCode(t *testing.T) {
	err := fmt.Errorf("wrap: %w", NewAppError("CONFIG_ERROR", "x", ErrInvalidInput))
	if got := ErrorCode(err); got != "CONFIG_ERROR" {
		t.Fatalf("ErrorCode = %q", got)
	}
	if got := ErrorCode(ErrDuplicate); got != "DUPLICATE_REFERENCE" {
		t.Fatalf("ErrorCode = %q", got)
	}
}

func TestValidator(t *testing.T) {
	v := NewValidator().
		Field("ref", "", Required).
		Field("titre", "ok", Required, MaxLength(2)).
		Field("date_decision", "2024-13-01", ISODate)
	if !v.HasErrors() || len(v.Errors()) != 2 {
		t.Fatalf("errors = %v", v.Errors())
	}
	err := ValidateAndReturnError(v)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("want ErrValidation, got %v", err)
	}
	if NewValidator().Field("date_decision", "", ISODate).HasErrors() {
		t.Fatal("empty date should be accepted")
	}
}
