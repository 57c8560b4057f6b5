package common

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/lagoinha-go/lagoinha/pkg/types"
)

// NormalizeText trims s, collapses inner whitespace and converts it to NFC so that
// addresses from different providers compare equal byte for byte.
func NormalizeText(s string) string {
	return norm.NFC.String(strings.Join(strings.Fields(s), " "))
}

// NormalizeAddress applies NormalizeText to every field, upper-cases the state and
// formats the postal code as NNNNN-NNN when it has eight digits.
func NormalizeAddress(a types.Address) types.Address {
	return types.Address{
		PostalCode:   FormatCEP(a.PostalCode),
		Street:       NormalizeText(a.Street),
		Complement:   NormalizeText(a.Complement),
		Neighborhood: NormalizeText(a.Neighborhood),
		City:         NormalizeText(a.City),
		State:        strings.ToUpper(NormalizeText(a.State)),
		IBGECode:     NormalizeText(a.IBGECode),
	}
}

// Digits strips everything but ASCII digits from a postal code.
func Digits(postalCode string) string {
	return strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && unicode.IsDigit(r) {
			return r
		}
		return -1
	}, postalCode)
}

// FormatCEP renders an eight digit postal code as NNNNN-NNN. Anything else is
// returned trimmed but otherwise untouched.
func FormatCEP(postalCode string) string {
	digits := Digits(postalCode)
	if len(digits) != 8 {
		return strings.TrimSpace(postalCode)
	}
	return digits[:5] + "-" + digits[5:]
}
