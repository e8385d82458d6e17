package verification

import (
	"errors"
	"strings"
)

var ErrInvalidIBAN = errors.New("invalid IBAN")

// NormalizeIBAN strips spaces and upper-cases the value.
func NormalizeIBAN(v string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(v), " ", ""))
}

// ValidateIBAN checks structure and the ISO 13616 mod-97 checksum.
func ValidateIBAN(v string) error {
	iban := NormalizeIBAN(v)
	if len(iban) < 15 || len(iban) > 34 {
		return ErrInvalidIBAN
	}
	for i, r := range iban {
		switch {
		case i < 2 && (r < 'A' || r > 'Z'):
			return ErrInvalidIBAN
		case i >= 2 && i < 4 && (r < '0' || r > '9'):
			return ErrInvalidIBAN
		case (r < '0' || r > '9') && (r < 'A' || r > 'Z'):
			return ErrInvalidIBAN
		}
	}

	rearranged := iban[4:] + iban[:4]
	remainder := 0
	for _, r := range rearranged {
		if r >= 'A' && r <= 'Z' {
			n := int(r-'A') + 10
			remainder = (remainder*100 + n) % 97
			continue
		}
		remainder = (remainder*10 + int(r-'0')) % 97
	}
	if remainder != 1 {
		return ErrInvalidIBAN
	}
	return nil
}
