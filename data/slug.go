package data

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9-]+`)
	multiHyphen     = regexp.MustCompile(`-{2,}`)
)

// Slugify turns a name into an ascii, url-safe slug: accents are stripped,
// everything else that isn't a letter or digit becomes a hyphen.
//
// Names with no ascii letters or digits at all (eg "エンジェル") would slug to
// "", so those fall back to the lowercased name with spaces hyphenated.
func Slugify(name string) string {
	t := transform.Chain(norm.NFD, transform.RemoveFunc(isMn))
	result, _, _ := transform.String(t, name)

	result = strings.ToLower(result)
	result = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return '-'
	}, result)
	result = nonAlphanumeric.ReplaceAllString(result, "-")
	result = multiHyphen.ReplaceAllString(result, "-")
	result = strings.Trim(result, "-")

	if result == "" && strings.TrimSpace(name) != "" {
		fallback := strings.ToLower(strings.Join(strings.Fields(name), "-"))
		return strings.ReplaceAll(fallback, "/", "-")
	}
	return result
}

func isMn(r rune) bool {
	return unicode.Is(unicode.Mn, r)
}
