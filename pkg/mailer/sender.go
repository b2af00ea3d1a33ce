package mailer

import "context"

// Sender delivers a prepared Email. Implementations must be safe for
// concurrent use.
type Sender interface {
	Send(ctx context.Context, email *Email) (*Receipt, error)
}

// Prober is implemented by transports that can verify connectivity and
// credentials without sending a message.
type Prober interface {
	Probe(ctx context.Context) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, email *Email) (*Receipt, error)

// Send implements Sender.
func (f SenderFunc) Send(ctx context.Context, email *Email) (*Receipt, error) {
	return f(ctx, email)
}
