// Package resend delivers mail through the Resend HTTP API.
package resend

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/resend/resend-go/v3"

	"github.com/tech-artist89/mitra/pkg/mailer"
)

// ErrEmptyMessageID indicates Resend accepted the request without an id.
var ErrEmptyMessageID = errors.New("resend: empty message id")

// Config holds Resend credentials.
type Config struct {
	APIKey string `env:"RESEND_API_KEY"`
	From   string `env:"RESEND_FROM"`
}

// Sender implements mailer.Sender using the Resend API.
type Sender struct {
	client *resend.Client
	from   string
}

// New creates a Resend sender.
func New(cfg Config) *Sender {
	return &Sender{
		client: resend.NewClient(cfg.APIKey),
		from:   cfg.From,
	}
}

// Send implements mailer.Sender.
func (s *Sender) Send(ctx context.Context, email *mailer.Email) (*mailer.Receipt, error) {
	if err := email.Validate(); err != nil {
		return nil, err
	}

	from := email.From
	if from == "" {
		from = s.from
	}

	req := &resend.SendEmailRequest{
		From:    from,
		To:      email.To,
		Subject: email.Subject,
		Html:    email.HTML,
		Text:    email.Text,
		ReplyTo: email.ReplyTo,
		Headers: email.Headers,
	}
	if len(email.Attachments) > 0 {
		req.Attachments = convertAttachments(email.Attachments)
	}
	if len(email.Tags) > 0 {
		req.Tags = convertTags(email.Tags)
	}

	resp, err := s.client.Emails.SendWithContext(ctx, req)
	if err != nil {
		return nil, errors.Join(mailer.ErrSendFailed, fmt.Errorf("resend: %w", err))
	}
	if resp == nil || resp.Id == "" {
		return nil, errors.Join(mailer.ErrSendFailed, ErrEmptyMessageID)
	}

	return &mailer.Receipt{MessageID: resp.Id}, nil
}

// Probe verifies the API key by listing sending domains.
func (s *Sender) Probe(ctx context.Context) error {
	if _, err := s.client.Domains.ListWithContext(ctx); err != nil {
		return fmt.Errorf("resend: probe: %w", err)
	}
	return nil
}

func convertAttachments(attachments []mailer.Attachment) []*resend.Attachment {
	result := make([]*resend.Attachment, len(attachments))
	for i, a := range attachments {
		result[i] = &resend.Attachment{
			Filename:    a.Filename,
			Content:     a.Content,
			ContentType: a.ContentType,
		}
	}
	return result
}

// convertTags maps tags onto Resend name/value pairs. Presence-only tags become "true".
func convertTags(tags mailer.Tags) []resend.Tag {
	result := make([]resend.Tag, 0, len(tags))
	for name, value := range tags {
		result = append(result, resend.Tag{Name: name, Value: tagValue(value)})
	}
	return result
}

func tagValue(v any) string {
	switch val := v.(type) {
	case nil, struct{}:
		return "true"
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

var (
	_ mailer.Sender = (*Sender)(nil)
	_ mailer.Prober = (*Sender)(nil)
)
