// Package smtp delivers mail over SMTP with STARTTLS or implicit TLS.
package smtp

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/mail"
	netsmtp "net/smtp"
	"strconv"
	"time"

	"github.com/tech-artist89/mitra/pkg/mailer"
)

var (
	// ErrTLSUnavailable indicates the server does not offer STARTTLS while TLS is required.
	ErrTLSUnavailable = errors.New("smtp: server does not support STARTTLS")

	// ErrInvalidConfig indicates host or port are missing.
	ErrInvalidConfig = errors.New("smtp: invalid configuration")
)

// Config holds SMTP connection settings.
type Config struct {
	Host        string        `env:"SMTP_HOST"`
	Username    string        `env:"SMTP_USERNAME"`
	Password    string        `env:"SMTP_PASSWORD"`
	From        string        `env:"SMTP_FROM"`
	Port        int           `env:"SMTP_PORT" envDefault:"587"`
	Timeout     time.Duration `env:"SMTP_TIMEOUT" envDefault:"10s"`
	ImplicitTLS bool          `env:"SMTP_IMPLICIT_TLS" envDefault:"false"`
	RequireTLS  bool          `env:"SMTP_REQUIRE_TLS" envDefault:"true"`
}

// Addr returns host:port.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Sender implements mailer.Sender over SMTP. Every message uses its own connection.
type Sender struct {
	now    func() time.Time
	tls    *tls.Config
	cfg    Config
	dialer net.Dialer
}

// New creates an SMTP sender.
func New(cfg Config) (*Sender, error) {
	if cfg.Host == "" || cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, ErrInvalidConfig
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Sender{
		cfg:    cfg,
		now:    time.Now,
		tls:    &tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12},
		dialer: net.Dialer{Timeout: cfg.Timeout},
	}, nil
}

// Send implements mailer.Sender.
func (s *Sender) Send(ctx context.Context, email *mailer.Email) (*mailer.Receipt, error) {
	msg := *email
	if msg.From == "" {
		msg.From = s.cfg.From
	}

	messageID := mailer.NewMessageID(msg.From)
	raw, err := mailer.BuildMIME(&msg, messageID, s.now())
	if err != nil {
		return nil, err
	}

	from, err := envelopeAddress(msg.From)
	if err != nil {
		return nil, err
	}

	client, err := s.session(ctx)
	if err != nil {
		return nil, errors.Join(mailer.ErrSendFailed, err)
	}
	defer client.Close()

	if err := deliver(client, from, msg.To, raw); err != nil {
		return nil, errors.Join(mailer.ErrSendFailed, err)
	}
	_ = client.Quit()

	return &mailer.Receipt{MessageID: messageID}, nil
}

// Probe connects, negotiates TLS and authenticates without sending.
func (s *Sender) Probe(ctx context.Context) error {
	client, err := s.session(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.Noop(); err != nil {
		return fmt.Errorf("smtp: noop: %w", err)
	}
	return client.Quit()
}

func (s *Sender) session(ctx context.Context) (*netsmtp.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	conn, err := s.dialer.DialContext(ctx, "tcp", s.cfg.Addr())
	if err != nil {
		return nil, fmt.Errorf("smtp: dial: %w", err)
	}
	if s.cfg.ImplicitTLS {
		conn = tls.Client(conn, s.tls)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := netsmtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("smtp: handshake: %w", err)
	}

	if !s.cfg.ImplicitTLS {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(s.tls); err != nil {
				_ = client.Close()
				return nil, fmt.Errorf("smtp: starttls: %w", err)
			}
		} else if s.cfg.RequireTLS {
			_ = client.Close()
			return nil, ErrTLSUnavailable
		}
	}

	if s.cfg.Username != "" {
		if ok, _ := client.Extension("AUTH"); ok {
			auth := netsmtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
			if err := client.Auth(auth); err != nil {
				_ = client.Close()
				return nil, fmt.Errorf("smtp: auth: %w", err)
			}
		}
	}

	return client, nil
}

func deliver(client *netsmtp.Client, from string, to []string, raw []byte) error {
	if err := client.Mail(from); err != nil {
		return fmt.Errorf("smtp: mail from: %w", err)
	}
	for _, rcpt := range to {
		addr, err := envelopeAddress(rcpt)
		if err != nil {
			return err
		}
		if err := client.Rcpt(addr); err != nil {
			return fmt.Errorf("smtp: rcpt %s: %w", addr, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp: data: %w", err)
	}
	if _, err := w.Write(raw); err != nil {
		_ = w.Close()
		return fmt.Errorf("smtp: write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp: data close: %w", err)
	}
	return nil
}

// envelopeAddress extracts the bare address from "Name <addr>".
func envelopeAddress(s string) (string, error) {
	a, err := mail.ParseAddress(s)
	if err != nil {
		return "", fmt.Errorf("smtp: invalid address %q: %w", s, err)
	}
	return a.Address, nil
}

var (
	_ mailer.Sender = (*Sender)(nil)
	_ mailer.Prober = (*Sender)(nil)
)
