package metadata

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	companyPrefixLength  = 4
	categoryPrefixLength = 3
	fallbackPrefix       = "GEN"
)

// CompanyPrefix abbreviates a company name for the first segment of asset
// codes. The same name always yields the same prefix.
func CompanyPrefix(name string) string {
	return abbreviate(name, companyPrefixLength)
}

// CategoryPrefix abbreviates a category name ("Laptop" -> "LAP",
// "Tarjeta de red" -> "TDR").
func CategoryPrefix(name string) string {
	return abbreviate(name, categoryPrefixLength)
}

func abbreviate(name string, length int) string {
	words := strings.FieldsFunc(foldDiacritics(name), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	var prefix []rune
	switch {
	case len(words) == 0:
		return fallbackPrefix
	case len(words) == 1:
		prefix = []rune(words[0])
	default:
		for _, w := range words {
			prefix = append(prefix, []rune(w)[0])
		}
	}
	if len(prefix) > length {
		prefix = prefix[:length]
	}

	return strings.ToUpper(string(prefix))
}

func foldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return folded
}
