package document

import (
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	filenamePrefix  = "Badkonfiguration"
	unknownName     = "Unknown"
	timestampLayout = "20060102_150405"
)

var germanFolding = strings.NewReplacer(
	"ä", "ae", "ö", "oe", "ü", "ue",
	"Ä", "Ae", "Ö", "Oe", "Ü", "Ue",
	"ß", "ss", "ẞ", "SS",
)

// Filename builds Badkonfiguration_<First>_<Last>_<timestamp><ext>.
func Filename(firstName, lastName string, at time.Time, ext string) string {
	name := joinNonEmpty("_", sanitizeName(firstName), sanitizeName(lastName))
	if name == "" {
		name = unknownName
	}
	return filenamePrefix + "_" + name + "_" + at.Format(timestampLayout) + ext
}

// sanitizeName folds umlauts and diacritics, turns whitespace into
// underscores and drops everything outside [A-Za-z0-9_-].
func sanitizeName(s string) string {
	s = germanFolding.Replace(strings.TrimSpace(s))

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(t, s); err == nil {
		s = folded
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.Join(strings.Fields(s), "_") {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "_")
}

func joinNonEmpty(sep string, parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}
