package security

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrInvalidCredentialInput indicates the name or surname was empty, so
// the initial-character extraction the scheme relies on is undefined.
var ErrInvalidCredentialInput = errors.New("security: name and surname must be non-empty")

// GenerateCredentials derives the deterministic username/password pair for
// a moderator account from their name, surname and national id:
//
//	username = uppercase(first(name)) + nationalID
//	password = uppercase(first(name)) + lowercase(first(surname)) + nationalID + "#"
//
// The pair is reproducible by support staff without a storage lookup; the
// national id keeps it collision-free across people. Pure, no I/O.
func GenerateCredentials(name, surname, nationalID string) (username, password string, err error) {
	nameInitial, ok := firstRune(name)
	if !ok {
		return "", "", ErrInvalidCredentialInput
	}
	surnameInitial, ok := firstRune(surname)
	if !ok {
		return "", "", ErrInvalidCredentialInput
	}

	upper := string(unicode.ToUpper(nameInitial))
	lower := string(unicode.ToLower(surnameInitial))

	username = upper + nationalID
	password = upper + lower + nationalID + "#"
	return username, password, nil
}

func firstRune(s string) (rune, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError && size <= 1 {
		return 0, false
	}
	return r, true
}
