// Package phone normalises Ivorian phone numbers to the +225 international
// form the backend expects.
package phone

import (
	"errors"
	"strings"
)

// CountryPrefix is the Côte d'Ivoire dialing prefix.
const CountryPrefix = "+225"

var ErrInvalid = errors.New("numéro de téléphone invalide")

// Format normalises raw into +225 followed by the national digits.
// Accepted inputs: an already-formatted +225 number (returned unchanged,
// so Format is idempotent), a 00225 prefix, or a bare 8 or 10 digit
// national number. Spaces, dots and dashes are ignored.
func Format(raw string) (string, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '.', '-', '(', ')':
			return -1
		}
		return r
	}, raw)

	switch {
	case strings.HasPrefix(cleaned, CountryPrefix):
		cleaned = cleaned[len(CountryPrefix):]
	case strings.HasPrefix(cleaned, "00225"):
		cleaned = cleaned[len("00225"):]
	case strings.HasPrefix(cleaned, "225") && len(cleaned) > 10:
		cleaned = cleaned[len("225"):]
	}

	if !digitsOnly(cleaned) {
		return "", ErrInvalid
	}
	// 10 digits since the 2021 national numbering plan; 8 for legacy numbers.
	if len(cleaned) != 10 && len(cleaned) != 8 {
		return "", ErrInvalid
	}
	return CountryPrefix + cleaned, nil
}

// IsValid reports whether raw can be normalised.
func IsValid(raw string) bool {
	_, err := Format(raw)
	return err == nil
}

func digitsOnly(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
