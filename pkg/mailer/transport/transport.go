// Package transport decides at startup which mail transport the service uses.
//
// A live transport is used only when its credentials pass a plausibility
// check and a single connectivity probe succeeds. Otherwise the service runs
// in degraded mode with a [Simulated] transport that logs every message and
// reports it as delivered.
package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tech-artist89/mitra/pkg/mailer"
	"github.com/tech-artist89/mitra/pkg/mailer/resend"
	"github.com/tech-artist89/mitra/pkg/mailer/ses"
	"github.com/tech-artist89/mitra/pkg/mailer/smtp"
)

// Supported providers.
const (
	ProviderSMTP      = "smtp"
	ProviderResend    = "resend"
	ProviderSES       = "ses"
	ProviderSimulated = "simulated"
)

// ErrNoFallback is returned when the live transport is unusable and the
// simulated fallback is disabled.
var ErrNoFallback = errors.New("transport: live transport unusable and fallback disabled")

// Config selects and configures the mail provider.
type Config struct {
	Provider     string        `env:"MAIL_PROVIDER" envDefault:"smtp"`
	ProbeTimeout time.Duration `env:"MAIL_PROBE_TIMEOUT" envDefault:"5s"`
	// RequireLive disables the simulated fallback.
	RequireLive bool `env:"MAIL_REQUIRE_LIVE" envDefault:"false"`

	SMTP   smtp.Config
	Resend resend.Config
	SES    ses.Config
}

// Selection is the outcome of Select.
type Selection struct {
	Transport mailer.Sender
	Provider  string
	// Reason explains why degraded mode was chosen.
	Reason   string
	Degraded bool
}

// Factory builds a live transport for a provider.
type Factory func(ctx context.Context, cfg Config) (mailer.Sender, error)

type options struct {
	factories map[string]Factory
}

// Option configures Select.
type Option func(*options)

// WithFactory replaces the constructor for provider.
func WithFactory(provider string, f Factory) Option {
	return func(o *options) { o.factories[provider] = f }
}

func defaultFactories() map[string]Factory {
	return map[string]Factory{
		ProviderSMTP: func(_ context.Context, cfg Config) (mailer.Sender, error) {
			return smtp.New(cfg.SMTP)
		},
		ProviderResend: func(_ context.Context, cfg Config) (mailer.Sender, error) {
			return resend.New(cfg.Resend), nil
		},
		ProviderSES: func(ctx context.Context, cfg Config) (mailer.Sender, error) {
			return ses.New(ctx, cfg.SES)
		},
	}
}

// Select returns the live transport when usable and a simulated one otherwise.
// The probe runs once; later send failures never flip the degraded flag.
func Select(ctx context.Context, cfg Config, logger *slog.Logger, opts ...Option) (*Selection, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	o := &options{factories: defaultFactories()}
	for _, opt := range opts {
		opt(o)
	}

	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	sender, reason := live(ctx, provider, cfg, o)
	if sender != nil {
		logger.InfoContext(ctx, "mail transport selected", slog.String("provider", provider))
		return &Selection{Transport: sender, Provider: provider}, nil
	}

	if cfg.RequireLive {
		return nil, fmt.Errorf("%w: %s: %s", ErrNoFallback, provider, reason)
	}

	logger.WarnContext(ctx, "mail transport degraded, messages will be simulated",
		slog.String("provider", provider),
		slog.String("reason", reason),
	)
	return &Selection{
		Transport: NewSimulated(logger),
		Provider:  ProviderSimulated,
		Reason:    reason,
		Degraded:  true,
	}, nil
}

func live(ctx context.Context, provider string, cfg Config, o *options) (mailer.Sender, string) {
	factory, ok := o.factories[provider]
	if !ok {
		return nil, "unknown provider " + provider
	}

	if creds, checked := credentialsFor(provider, cfg); checked {
		if ok, why := creds.Usable(); !ok {
			return nil, why
		}
	}

	sender, err := factory(ctx, cfg)
	if err != nil {
		return nil, "construct: " + err.Error()
	}

	if prober, ok := sender.(mailer.Prober); ok {
		timeout := cfg.ProbeTimeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		pctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		if err := prober.Probe(pctx); err != nil {
			return nil, "probe: " + err.Error()
		}
	}
	return sender, ""
}

// credentialsFor maps provider settings onto the plausibility check. SES
// without static keys uses the AWS default chain and is only probed.
func credentialsFor(provider string, cfg Config) (Credentials, bool) {
	switch provider {
	case ProviderSMTP:
		return Credentials{Username: cfg.SMTP.Username, Secret: cfg.SMTP.Password}, true
	case ProviderResend:
		return Credentials{Username: cfg.Resend.From, Secret: cfg.Resend.APIKey}, true
	case ProviderSES:
		if cfg.SES.AccessKeyID == "" && cfg.SES.SecretAccessKey == "" {
			return Credentials{}, false
		}
		return Credentials{Username: cfg.SES.AccessKeyID, Secret: cfg.SES.SecretAccessKey}, true
	default:
		return Credentials{}, true
	}
}
