package storage

import (
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"
)

// Config holds S3-compatible storage configuration.
type Config struct {
	// Bucket is the S3 bucket name (required).
	Bucket string `env:"STORAGE_BUCKET"`

	// AccessKey is the AWS access key ID (required).
	AccessKey string `env:"STORAGE_ACCESS_KEY"`

	// SecretKey is the AWS secret access key (required).
	SecretKey string `env:"STORAGE_SECRET_KEY"`

	// Endpoint is a custom endpoint URL for MinIO or other S3-compatible services.
	Endpoint string `env:"STORAGE_ENDPOINT"`

	// Region is the AWS region.
	Region string `env:"STORAGE_REGION" envDefault:"eu-central-1"`

	// Prefix is prepended to every archive key.
	Prefix string `env:"STORAGE_PREFIX" envDefault:"documents"`

	// PathStyle enables path-style URLs (required for MinIO).
	PathStyle bool `env:"STORAGE_PATH_STYLE" envDefault:"false"`
}

// Enabled reports whether an archive bucket is configured.
func (c Config) Enabled() bool {
	return c.Bucket != ""
}

// DefaultRegion is used when Config.Region is empty.
const DefaultRegion = "eu-central-1"

func (c *Config) applyDefaults() {
	if c.Region == "" {
		c.Region = DefaultRegion
	}
}

func (c *Config) validate() error {
	if c.Bucket == "" || c.AccessKey == "" || c.SecretKey == "" {
		return ErrInvalidConfig
	}
	return nil
}

// ArchiveKey builds the object key for a rendered document:
// {prefix}/{yyyy}/{mm}/{correlation}/{filename}.
func ArchiveKey(prefix string, at time.Time, correlationID, filename string) string {
	parts := make([]string, 0, 5)
	if p := sanitizePathSegment(prefix); p != "" {
		parts = append(parts, p)
	}
	at = at.UTC()
	parts = append(parts,
		at.Format("2006"),
		at.Format("01"),
		sanitizePathSegment(correlationID),
		sanitizePathSegment(path.Base(filename)),
	)
	return strings.Join(parts, "/")
}

var pathSegmentRegex = regexp.MustCompile(`[^a-zA-Z0-9\-_.]`)

// sanitizePathSegment prevents path traversal and keeps keys URL-safe.
func sanitizePathSegment(segment string) string {
	segment = strings.Trim(segment, " /\\")
	segment = strings.ReplaceAll(segment, "..", "")
	segment = pathSegmentRegex.ReplaceAllString(segment, "_")
	return url.PathEscape(segment)
}
