// Package sanitizer strips markup from user-supplied text before it reaches
// email templates or the document renderer.
package sanitizer

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictPolicy *bluemonday.Policy
	initOnce     sync.Once
)

func policy() *bluemonday.Policy {
	initOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()
	})
	return strictPolicy
}

// StripTags removes all HTML and returns plain text with entities decoded.
// Decoding keeps "Müller & Söhne" intact; output escaping is the renderer's job.
func StripTags(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(policy().Sanitize(s)))
}

// Fields applies StripTags to every non-nil pointer in place.
func Fields(fields ...*string) {
	for _, f := range fields {
		if f != nil {
			*f = StripTags(*f)
		}
	}
}

// Strings applies StripTags to each element and drops empty results.
func Strings(in []string) []string {
	if len(in) == 0 {
		return in
	}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = StripTags(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
