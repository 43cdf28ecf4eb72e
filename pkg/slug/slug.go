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

// Fallback is used when a name contains no slug-able characters.
const Fallback = "product"

var (
	whitespace = regexp.MustCompile(`\s+`)
	nonWord    = regexp.MustCompile(`[^a-z0-9_-]`)
	hyphenRuns = regexp.MustCompile(`-{2,}`)
)

// Generate derives a URL-safe identifier from a display name: accents are
// stripped, the result is lowercased, whitespace runs become single hyphens
// and anything outside [a-z0-9_-] is dropped.
//
//	"Dev Tool™ 2.0" → "dev-tool-20"
//	"Café  Crème"   → "cafe-creme"
func Generate(name string) string {
	s := strings.ToLower(strings.TrimSpace(stripMarks(name)))
	s = whitespace.ReplaceAllString(s, "-")
	s = nonWord.ReplaceAllString(s, "")
	s = hyphenRuns.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Candidate returns the slug to try on the given attempt. Attempt 0 and 1
// return base unchanged; later attempts append "-<attempt>".
func Candidate(base string, attempt int) string {
	if base == "" {
		base = Fallback
	}
	if attempt <= 1 {
		return base
	}
	return base + "-" + strconv.Itoa(attempt)
}

func stripMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
