package security

import (
	"errors"
	"testing"
)

func TestGenerateCredentials(t *testing.T) {
	username, password, err := GenerateCredentials("Diego", "Martinez", "31510033")
	if err != nil {
		t.Fatalf("GenerateCredentials returned error: %v", err)
	}

	if username != "D31510033" {
		t.Fatalf("expected username D31510033, got %s", username)
	}
	if password != "Dm31510033#" {
		t.Fatalf("expected password Dm31510033#, got %s", password)
	}
}

func TestGenerateCredentials_Deterministic(t *testing.T) {
	u1, p1, err := GenerateCredentials("María", "Álvarez", "9452210")
	if err != nil {
		t.Fatalf("first call returned error: %v", err)
	}
	u2, p2, err := GenerateCredentials("María", "Álvarez", "9452210")
	if err != nil {
		t.Fatalf("second call returned error: %v", err)
	}

	if u1 != u2 || p1 != p2 {
		t.Fatalf("expected identical output, got (%s,%s) and (%s,%s)", u1, p1, u2, p2)
	}
}

func TestGenerateCredentials_UnicodeInitials(t *testing.T) {
	username, password, err := GenerateCredentials("ángel", "Torres", "100200")
	if err != nil {
		t.Fatalf("GenerateCredentials returned error: %v", err)
	}

	if username != "Á100200" {
		t.Fatalf("expected uppercased accented initial, got %s", username)
	}
	if password != "Át100200#" {
		t.Fatalf("expected password Át100200#, got %s", password)
	}
}

func TestGenerateCredentials_EmptyInputs(t *testing.T) {
	cases := []struct {
		name    string
		surname string
	}{
		{"", "Martinez"},
		{"Diego", ""},
		{"   ", "Martinez"},
		{"Diego", "   "},
	}

	for _, tc := range cases {
		if _, _, err := GenerateCredentials(tc.name, tc.surname, "123"); !errors.Is(err, ErrInvalidCredentialInput) {
			t.Fatalf("expected ErrInvalidCredentialInput for (%q,%q), got %v", tc.name, tc.surname, err)
		}
	}
}
