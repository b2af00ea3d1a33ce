// Package config loads process configuration from the environment.
//
// Values come from environment variables, optionally seeded from .env files
// via godotenv. Variables already set in the environment win over file values.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/tech-artist89/mitra/pkg/db"
	"github.com/tech-artist89/mitra/pkg/document"
	"github.com/tech-artist89/mitra/pkg/document/gotenberg"
	"github.com/tech-artist89/mitra/pkg/logger"
	"github.com/tech-artist89/mitra/pkg/mailer/transport"
	"github.com/tech-artist89/mitra/pkg/notify"
	"github.com/tech-artist89/mitra/pkg/ratelimit"
	"github.com/tech-artist89/mitra/pkg/redis"
	"github.com/tech-artist89/mitra/pkg/storage"
)

// ErrInvalid wraps every configuration problem that prevents startup.
var ErrInvalid = errors.New("config: invalid configuration")

// Config is the complete process configuration.
type Config struct {
	App       App
	HTTP      HTTP
	Logger    logger.Config
	Mail      transport.Config
	Notify    notify.Config
	Company   document.Company
	Gotenberg gotenberg.Config
	Storage   storage.Config
	RateLimit RateLimit
	Redis     redis.Config
	Database  db.Config
}

// App holds process-wide settings.
type App struct {
	Name             string `env:"APP_NAME" envDefault:"mitra"`
	Env              string `env:"APP_ENV" envDefault:"production"`
	MetricsNamespace string `env:"METRICS_NAMESPACE" envDefault:"mitra"`
}

// HTTP holds listener and request handling settings.
type HTTP struct {
	Addr            string        `env:"HTTP_ADDR" envDefault:":8080"`
	CORSOrigins     []string      `env:"HTTP_CORS_ORIGINS" envSeparator:"," envDefault:"*"`
	RequestTimeout  time.Duration `env:"HTTP_REQUEST_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	BodyLimit       int64         `env:"HTTP_BODY_LIMIT" envDefault:"1048576"`
	// TrustProxy takes the client address from X-Forwarded-For / X-Real-IP.
	TrustProxy bool `env:"HTTP_TRUST_PROXY" envDefault:"false"`
}

// RateLimit extends the limiter settings with the sweep schedule.
type RateLimit struct {
	ratelimit.Config
	SweepSchedule string `env:"RATE_LIMIT_SWEEP_SCHEDULE" envDefault:"@hourly"`
}

// DefaultEnvFiles are read by Load when no files are given.
var DefaultEnvFiles = []string{".env"}

// Load reads the given .env files (missing files are skipped) and parses
// the environment into Config.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = DefaultEnvFiles
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("config: load %s: %w", f, err)
		}
	}
	return Parse()
}

// Parse reads Config from the current environment only.
func Parse() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, errors.Join(ErrInvalid, err)
	}
	return cfg, nil
}

// Validate reports settings that prevent startup.
func (c Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.HTTP.Addr) == "" {
		errs = append(errs, errors.New("HTTP_ADDR is empty"))
	}
	if c.HTTP.BodyLimit <= 0 {
		errs = append(errs, errors.New("HTTP_BODY_LIMIT must be positive"))
	}

	switch c.RateLimit.Store {
	case ratelimit.StoreMemory:
	case ratelimit.StoreRedis:
		if c.Redis.URL == "" {
			errs = append(errs, errors.New("RATE_LIMIT_STORE=redis requires REDIS_URL"))
		}
	case ratelimit.StorePostgres:
		if c.Database.ConnectionString == "" {
			errs = append(errs, errors.New("RATE_LIMIT_STORE=postgres requires DATABASE_CONN_URL"))
		}
	default:
		errs = append(errs, fmt.Errorf("%w: %q", ratelimit.ErrUnknownStore, c.RateLimit.Store))
	}

	if c.RateLimit.Enabled() && c.RateLimit.SweepSchedule != "" {
		if _, err := cron.ParseStandard(c.RateLimit.SweepSchedule); err != nil {
			errs = append(errs, fmt.Errorf("RATE_LIMIT_SWEEP_SCHEDULE: %w", err))
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errors.Join(append([]error{ErrInvalid}, errs...)...)
}

// Warnings lists settings that degrade the service without preventing
// startup. They are logged once at boot.
func (c Config) Warnings() []string {
	var w []string
	if c.Notify.CompanyInbox == "" {
		w = append(w, "MAIL_COMPANY_INBOX is empty: company notifications will fail")
	}
	if c.Gotenberg.URL == "" {
		w = append(w, "GOTENBERG_URL is empty: configurator documents are rendered as HTML")
	}
	if !c.Storage.Enabled() {
		w = append(w, "storage is not configured: rendered documents are not archived")
	}
	if !c.RateLimit.Enabled() {
		w = append(w, "rate limiting is disabled")
	}
	if c.Company.Phone == "" && c.Company.Email == "" {
		w = append(w, "COMPANY_PHONE and COMPANY_EMAIL are empty: failure responses carry no contact hint")
	}
	if slices.Contains(c.HTTP.CORSOrigins, "*") && !c.IsDevelopment() {
		w = append(w, "HTTP_CORS_ORIGINS allows any origin")
	}
	return w
}

// IsDevelopment reports whether APP_ENV selects a local setup.
func (c Config) IsDevelopment() bool {
	switch strings.ToLower(c.App.Env) {
	case "dev", "development", "local":
		return true
	}
	return false
}
