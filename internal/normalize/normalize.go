// Package normalize validates and canonicalizes raw price submissions
// before they reach the verification engine.
package normalize

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	lowerTurkish = cases.Lower(language.Turkish)

	// Brand/packaging qualifier words that carry no product identity.
	// Longest alternatives first; Go alternation is leftmost-first.
	qualifierRe = regexp.MustCompile(`\s+(markası|marka|ürünleri|ürünü)\b\s*`)

	// Embedded quantity tokens such as "500 gr" or "1 lt". Longest
	// alternatives first so full unit words are consumed.
	quantityRe = regexp.MustCompile(`\s*\d+\s*(mililitre|litre|gram|paket|adet|gr|kg|lt|ml)\b\s*`)

	// Anything that is not a letter, digit, or whitespace. Unicode
	// classes keep Turkish letters intact.
	punctRe = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)

	spaceRe = regexp.MustCompile(`\s+`)
)

// ProductName canonicalizes a raw product name so that submissions for
// the same product group together regardless of how users typed them.
// The function is deterministic and idempotent.
func ProductName(name string) string {
	s := lowerTurkish.String(strings.TrimSpace(name))
	s = qualifierRe.ReplaceAllString(s, " ")
	s = quantityRe.ReplaceAllString(s, " ")
	s = punctRe.ReplaceAllString(s, " ")
	s = spaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
