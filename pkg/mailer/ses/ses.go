// Package ses delivers mail through Amazon SES using raw MIME messages.
package ses

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"github.com/tech-artist89/mitra/pkg/mailer"
)

// ErrQuotaExhausted indicates the account cannot send within the current 24h window.
var ErrQuotaExhausted = errors.New("ses: sending quota exhausted")

// Config holds SES settings. Empty keys fall back to the default AWS credential chain.
type Config struct {
	Region          string `env:"SES_REGION" envDefault:"eu-central-1"`
	AccessKeyID     string `env:"SES_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"SES_SECRET_ACCESS_KEY"`
	From            string `env:"SES_FROM"`
	ConfigSet       string `env:"SES_CONFIGURATION_SET"`
}

// API is the subset of the SES client used by Sender.
type API interface {
	SendRawEmail(ctx context.Context, in *ses.SendRawEmailInput, opts ...func(*ses.Options)) (*ses.SendRawEmailOutput, error)
	GetSendQuota(ctx context.Context, in *ses.GetSendQuotaInput, opts ...func(*ses.Options)) (*ses.GetSendQuotaOutput, error)
}

// Sender implements mailer.Sender over SES.
type Sender struct {
	client API
	now    func() time.Time
	cfg    Config
}

// New loads AWS configuration and creates a Sender.
func New(ctx context.Context, cfg Config) (*Sender, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("ses: load aws config: %w", err)
	}
	return NewWithClient(ses.NewFromConfig(awsCfg), cfg), nil
}

// NewWithClient creates a Sender over an existing client.
func NewWithClient(client API, cfg Config) *Sender {
	return &Sender{client: client, cfg: cfg, now: time.Now}
}

// Send implements mailer.Sender. The returned MessageID is the SES message id.
func (s *Sender) Send(ctx context.Context, email *mailer.Email) (*mailer.Receipt, error) {
	msg := *email
	if msg.From == "" {
		msg.From = s.cfg.From
	}

	raw, err := mailer.BuildMIME(&msg, mailer.NewMessageID(msg.From), s.now())
	if err != nil {
		return nil, err
	}

	in := &ses.SendRawEmailInput{RawMessage: &types.RawMessage{Data: raw}}
	if s.cfg.ConfigSet != "" {
		in.ConfigurationSetName = aws.String(s.cfg.ConfigSet)
	}
	for name, value := range msg.Tags {
		if v, ok := value.(string); ok {
			in.Tags = append(in.Tags, types.MessageTag{Name: aws.String(name), Value: aws.String(v)})
		}
	}

	out, err := s.client.SendRawEmail(ctx, in)
	if err != nil {
		return nil, errors.Join(mailer.ErrSendFailed, fmt.Errorf("ses: %w", err))
	}

	return &mailer.Receipt{MessageID: aws.ToString(out.MessageId)}, nil
}

// Probe checks credentials and remaining quota.
func (s *Sender) Probe(ctx context.Context) error {
	out, err := s.client.GetSendQuota(ctx, &ses.GetSendQuotaInput{})
	if err != nil {
		return fmt.Errorf("ses: probe: %w", err)
	}
	if out.Max24HourSend > 0 && out.SentLast24Hours >= out.Max24HourSend {
		return ErrQuotaExhausted
	}
	return nil
}

var (
	_ mailer.Sender = (*Sender)(nil)
	_ mailer.Prober = (*Sender)(nil)
)
