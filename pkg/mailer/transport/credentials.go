package transport

import "strings"

const (
	minUsernameLength = 3
	minSecretLength   = 8
)

// placeholderValues are values commonly left behind from .env templates.
var placeholderValues = map[string]struct{}{
	"test@example.com":       {},
	"user@example.com":       {},
	"your-email@gmail.com":   {},
	"your-email@example.com": {},
	"your_email@gmail.com":   {},
	"your-app-password":      {},
	"your_app_password":      {},
	"your-password":          {},
	"your_password":          {},
	"password":               {},
	"password123":            {},
	"changeme":               {},
	"change-me":              {},
	"secret":                 {},
	"xxx":                    {},
	"xxxxxxxx":               {},
	"re_123456789":           {},
	"re_xxxxxxxxx":           {},
	"your-resend-api-key":    {},
	"your-api-key":           {},
	"akiaiosfodnn7example":   {},
}

// placeholderDomains are reserved example domains (RFC 2606).
var placeholderDomains = []string{
	"example.com", "example.org", "example.net", "example.invalid", "test.invalid", "localhost.localdomain",
}

// Credentials is the value set checked before a live transport is tried.
type Credentials struct {
	// Username is the SMTP user, SES access key id or Resend sender address.
	Username string
	// Secret is the SMTP password, SES secret key or Resend API key.
	Secret string
}

// Usable reports whether the credentials look real. The second value names
// the first failed rule.
func (c Credentials) Usable() (bool, string) {
	user := strings.TrimSpace(c.Username)
	secret := strings.TrimSpace(c.Secret)

	switch {
	case user == "" || secret == "":
		return false, "credentials missing"
	case len(user) < minUsernameLength:
		return false, "username too short"
	case len(secret) < minSecretLength:
		return false, "secret too short"
	case isPlaceholder(user):
		return false, "username is a placeholder"
	case isPlaceholder(secret):
		return false, "secret is a placeholder"
	case hasPlaceholderDomain(user):
		return false, "username uses an example domain"
	}
	return true, ""
}

func isPlaceholder(v string) bool {
	v = strings.ToLower(v)
	if _, ok := placeholderValues[v]; ok {
		return true
	}
	return strings.HasPrefix(v, "your-") || strings.HasPrefix(v, "your_") || strings.Contains(v, "placeholder")
}

func hasPlaceholderDomain(v string) bool {
	at := strings.LastIndexByte(v, '@')
	if at < 0 {
		return false
	}
	domain := strings.ToLower(v[at+1:])
	for _, d := range placeholderDomains {
		if domain == d || strings.HasSuffix(domain, "."+d) {
			return true
		}
	}
	return false
}
