package taxonomy

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// RootPrefix prefixes the slug of every top-level technique created through
// the API, so category slugs never collide with seeded root ids.
const RootPrefix = "root"

// Slugify lowercases title, folds accents to ASCII and collapses every run of
// other characters into a single hyphen.
//
//	Slugify("Single Leg X - Control") == "single-leg-x-control"
//	Slugify("De La Riva") == "de-la-riva"
//	Slugify("Déjà vu") == "deja-vu"
func Slugify(title string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, title)
	if err != nil {
		folded = title
	}

	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(folded) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}

// ChildSlug derives the slug of a new technique from its parent's slug.
// An empty parent slug places the technique under RootPrefix.
func ChildSlug(parentSlug, title string) string {
	if parentSlug == "" {
		parentSlug = RootPrefix
	}
	return parentSlug + "." + Slugify(title)
}
