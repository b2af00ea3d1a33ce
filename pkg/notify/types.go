package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/tech-artist89/mitra/pkg/document"
	"github.com/tech-artist89/mitra/pkg/submission"
)

// Role identifies the recipient side of an outcome.
type Role string

const (
	RoleCompany  Role = "company"
	RoleCustomer Role = "customer"
)

// Correlation id prefixes per submission kind.
const (
	PrefixContact       = "KONTAKT"
	PrefixConfiguration = "KONFIG"
)

// Event names emitted through EventSink.
const (
	EventDocumentGenerated     = "document.generated"
	EventDocumentFailed        = "document.failed"
	EventDocumentArchived      = "document.archived"
	EventDocumentArchiveFailed = "document.archive_failed"
	EventMessageDelivered      = "message.delivered"
	EventMessageFailed         = "message.failed"
	EventCompleted             = "notification.completed"
)

// Outcome is the delivery result for one recipient.
type Outcome struct {
	Recipient string `json:"recipient"`
	Role      Role   `json:"role"`
	Detail    string `json:"detail"`
	MessageID string `json:"messageId,omitempty"`
	Delivered bool   `json:"delivered"`
}

// Result summarizes one notification cycle.
type Result struct {
	Document         *document.Document `json:"-"`
	CorrelationID    string             `json:"correlationId"`
	Outcomes         []Outcome          `json:"outcomes"`
	OverallSuccess   bool               `json:"overallSuccess"`
	DocumentAttached bool               `json:"documentAttached"`
	Degraded         bool               `json:"degraded"`
}

// Outcome returns the outcome for role, if present.
func (r *Result) Outcome(role Role) (Outcome, bool) {
	for _, o := range r.Outcomes {
		if o.Role == role {
			return o, true
		}
	}
	return Outcome{}, false
}

// DocumentRenderer produces the configurator document.
type DocumentRenderer interface {
	Render(ctx context.Context, cfg submission.Configuration) (*document.Document, error)
}

// Archive persists rendered documents.
type Archive interface {
	Key(at time.Time, correlationID, filename string) string
	Put(ctx context.Context, key string, content []byte, contentType string) (string, error)
}

// EventSink receives semantic pipeline events.
type EventSink interface {
	Emit(ctx context.Context, name string, attrs ...slog.Attr)
}

// EventSinkFunc adapts a function to EventSink.
type EventSinkFunc func(ctx context.Context, name string, attrs ...slog.Attr)

// Emit implements EventSink.
func (f EventSinkFunc) Emit(ctx context.Context, name string, attrs ...slog.Attr) {
	f(ctx, name, attrs...)
}

type nopSink struct{}

func (nopSink) Emit(context.Context, string, ...slog.Attr) {}

// Clock returns the current time.
type Clock func() time.Time
