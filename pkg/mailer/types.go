package mailer

import (
	"fmt"
	"strings"
)

// Tags are provider-side message labels. Presence-only tags use struct{}{}.
type Tags map[string]any

// SimpleTags creates presence-only tags from a list of tag names.
func SimpleTags(names ...string) Tags {
	t := make(Tags, len(names))
	for _, n := range names {
		t[n] = struct{}{}
	}
	return t
}

// Recipient formats a name and address as "Name <email>".
// Quotes and line breaks are removed from the name.
func Recipient(name, email string) string {
	name = strings.NewReplacer(`"`, "", "\r", "", "\n", " ", "<", "", ">", "").Replace(strings.TrimSpace(name))
	if name == "" {
		return email
	}
	return fmt.Sprintf("%s <%s>", name, email)
}

// Email is a fully-prepared message ready for a transport.
type Email struct {
	Headers     map[string]string
	Tags        Tags
	From        string
	ReplyTo     string
	Subject     string
	HTML        string
	Text        string
	To          []string
	Attachments []Attachment
}

// Attachment is a file attached to an Email.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Receipt describes an accepted message.
type Receipt struct {
	// MessageID is the provider or transport message identifier.
	MessageID string
	// Simulated is set when no real delivery took place.
	Simulated bool
}

// Validate checks the minimum every transport needs.
func (e *Email) Validate() error {
	if e == nil || len(e.To) == 0 {
		return ErrNoRecipient
	}
	if strings.TrimSpace(e.Subject) == "" {
		return ErrNoSubject
	}
	if e.HTML == "" && e.Text == "" {
		return ErrNoContent
	}
	return nil
}
