package identity

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var diacriticStripper = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// NormalizeName prepares a display name for comparison: lower-cased,
// whitespace-collapsed, diacritics folded ("Pëtrenko" == "Petrenko").
func NormalizeName(name string) string {
	stripped, _, err := transform.String(diacriticStripper, name)
	if err != nil {
		stripped = name
	}
	return strings.Join(strings.Fields(strings.ToLower(stripped)), " ")
}

// SwapLeadingTokens absorbs the "First Last" vs "Last First" disagreement
// between sources by swapping the two leading tokens. Names with fewer than
// two tokens are returned unchanged; trailing tokens (patronymics,
// multi-word surnames) keep their position.
func SwapLeadingTokens(name string) string {
	tokens := strings.Fields(name)
	if len(tokens) < 2 {
		return name
	}
	tokens[0], tokens[1] = tokens[1], tokens[0]
	return strings.Join(tokens, " ")
}

// NormalizeEmail prepares an email for exact comparison.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
