package transport

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/tech-artist89/mitra/pkg/mailer"
)

// Simulated accepts every message, logs it and returns a synthetic id.
type Simulated struct {
	logger *slog.Logger
}

// NewSimulated creates a simulated transport. A nil logger discards output.
func NewSimulated(logger *slog.Logger) *Simulated {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Simulated{logger: logger}
}

// Send implements mailer.Sender. It never fails.
func (s *Simulated) Send(ctx context.Context, email *mailer.Email) (*mailer.Receipt, error) {
	id := "sim-" + uuid.NewString()

	attrs := []slog.Attr{slog.String("message_id", id)}
	if email != nil {
		attrs = append(attrs,
			slog.Any("to", email.To),
			slog.String("subject", email.Subject),
			slog.Int("attachments", len(email.Attachments)),
		)
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "mail.simulated", attrs...)

	return &mailer.Receipt{MessageID: id, Simulated: true}, nil
}

// Probe always succeeds.
func (s *Simulated) Probe(context.Context) error { return nil }

var (
	_ mailer.Sender = (*Simulated)(nil)
	_ mailer.Prober = (*Simulated)(nil)
)
