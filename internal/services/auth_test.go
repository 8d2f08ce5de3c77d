package services

import (
	"regexp"
	"testing"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name    string
		pw      string
		wantErr bool
	}{
		{"valid", "gopher123", false},
		{"too short", "go1", true},
		{"no digit", "gophergopher", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := validatePassword(tc.pw)
			if (err != nil) != tc.wantErr {
				t.Fatalf("validatePassword(%q) error = %v, wantErr %v", tc.pw, err, tc.wantErr)
			}
		})
	}
}

func TestGenerateCode_SixDigits(t *testing.T) {
	digits := regexp.MustCompile(`^\d{6}$`)
	for i := 0; i < 50; i++ {
		code, err := generateCode(6)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !digits.MatchString(code) {
			t.Fatalf("expected 6 digits, got %q", code)
		}
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := normalizeEmail("  Student@Example.COM "); got != "student@example.com" {
		t.Fatalf("unexpected normalized email %q", got)
	}
}
