// Package normalize cleans user supplied text before it is validated or
// stored.
package normalize

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Name trims surrounding whitespace and converts the name to NFC so visually
// identical names are stored identically.
func Name(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// Email trims surrounding whitespace. Case is preserved: addresses are
// compared exactly as stored.
func Email(s string) string {
	return strings.TrimSpace(s)
}
