package mailer

import (
	"strings"
	texttemplate "text/template"
)

// Both variants expose the same function names so one template body serves
// the HTML and the plain-text part.
var (
	markdownFuncs = texttemplate.FuncMap{
		"md":     EscapeMarkdown,
		"breaks": func(s string) string { return hardBreaks(EscapeMarkdown(s)) },
	}
	plainFuncs = texttemplate.FuncMap{
		"md":     func(s string) string { return s },
		"breaks": func(s string) string { return strings.ReplaceAll(s, "\r\n", "\n") },
	}
)

// EscapeMarkdown backslash-escapes ASCII punctuation so user input renders
// literally. Raw HTML is neutralised by the same escaping.
func EscapeMarkdown(s string) string {
	var b strings.Builder
	b.Grow(len(s) + len(s)/8)
	for _, r := range s {
		if r < 0x80 && isPunct(byte(r)) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isPunct(c byte) bool {
	return strings.IndexByte("!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~", c) >= 0
}

// hardBreaks turns single newlines into markdown hard line breaks and keeps
// blank lines as paragraph breaks.
func hardBreaks(s string) string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")

	var b strings.Builder
	for i, line := range lines {
		line = strings.TrimRight(line, " \t")
		if i > 0 {
			if lines[i-1] != "" && line != "" {
				b.WriteString("\\\n")
			} else {
				b.WriteString("\n")
			}
		}
		lines[i] = line
		b.WriteString(line)
	}
	return b.String()
}
