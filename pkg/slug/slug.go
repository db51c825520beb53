package slug

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// foldings covers letters that have no decomposition into an ASCII
// base letter plus combining marks.
var foldings = strings.NewReplacer(
	"ı", "i", "ø", "o", "ß", "ss", "æ", "ae", "œ", "oe", "đ", "d", "ł", "l",
)

// Generate creates a URL-friendly slug from the given name. Diacritics are
// stripped after compatibility decomposition, so "Çanta & Cüzdan" becomes
// "canta-cuzdan".
func Generate(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = foldings.Replace(s)

	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if out, _, err := transform.String(t, s); err == nil {
		s = out
	}

	s = nonAlnum.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// WithSuffix appends a numeric suffix, used to resolve slug collisions.
func WithSuffix(slug string, n int) string {
	if n <= 1 {
		return slug
	}
	return slug + "-" + strconv.Itoa(n)
}
