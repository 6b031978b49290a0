package seed

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`) // Anything outside lowercase alphanum becomes a hyphen
var multiHyphen = regexp.MustCompile(`-+`)             // Collapse runs of hyphens

// accents maps the Latin-1 letters common in product and category names to
// their base letter, so "Fútbol" slugs as "futbol".
var accents = strings.NewReplacer(
	"á", "a", "à", "a", "â", "a", "ã", "a", "ä", "a",
	"é", "e", "è", "e", "ê", "e", "ë", "e",
	"í", "i", "ì", "i", "î", "i", "ï", "i",
	"ó", "o", "ò", "o", "ô", "o", "õ", "o", "ö", "o",
	"ú", "u", "ù", "u", "û", "u", "ü", "u",
	"ñ", "n", "ç", "c",
)

// Slug creates a URL-friendly slug from a name.
func Slug(name string) string {
	slug := cases.Lower(language.Und).String(name)
	slug = accents.Replace(slug)
	slug = nonAlphanumeric.ReplaceAllString(slug, "-")
	slug = multiHyphen.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return "category"
	}
	return slug
}
