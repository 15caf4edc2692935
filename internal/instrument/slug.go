package instrument

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// asciiFold decomposes to NFKD and drops everything outside ASCII, so
	// "Müller" folds to "Muller" before slug cleanup.
	asciiFold = transform.Chain(norm.NFKD, runes.Remove(runes.Predicate(func(r rune) bool {
		return r > unicode.MaxASCII
	})))

	nonSlugRuns = regexp.MustCompile(`[^a-z0-9]+`)
	slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
)

// Slugify converts arbitrary text to a lowercase, hyphen-separated, URL-safe
// slug: NFKD-decompose, strip non-ASCII, lowercase, collapse runs of
// non-[a-z0-9] to a single hyphen, trim hyphens. An empty result maps to the
// fixed fallback "scope". Idempotent: Slugify(Slugify(x)) == Slugify(x).
func Slugify(text string) string {
	folded, _, err := transform.String(asciiFold, text)
	if err != nil {
		folded = text
	}
	slug := strings.ToLower(folded)
	slug = nonSlugRuns.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return "scope"
	}
	return slug
}

// IsValidID reports whether s is already a canonical instrument slug.
func IsValidID(s string) bool {
	return slugPattern.MatchString(s)
}
