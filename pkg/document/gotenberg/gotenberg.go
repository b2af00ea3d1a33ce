// Package gotenberg converts HTML to PDF through a Gotenberg service.
package gotenberg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/tech-artist89/mitra/pkg/document"
)

const (
	convertPath    = "/forms/chromium/convert/html"
	healthPath     = "/health"
	defaultTimeout = 20 * time.Second
	maxErrorBody   = 512
	maxOutputSize  = 20 << 20
)

var (
	// ErrConversionFailed indicates Gotenberg answered with a non-200 status.
	ErrConversionFailed = errors.New("gotenberg: conversion failed")

	// ErrUnhealthy indicates the health endpoint did not answer 200.
	ErrUnhealthy = errors.New("gotenberg: service unhealthy")
)

// Config holds the engine settings.
type Config struct {
	URL     string        `env:"GOTENBERG_URL"`
	Timeout time.Duration `env:"GOTENBERG_TIMEOUT" envDefault:"20s"`
}

// Engine implements document.RenderEngine over Gotenberg's Chromium route.
type Engine struct {
	client  *http.Client
	baseURL string
	timeout time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(e *Engine) {
		if c != nil {
			e.client = c
		}
	}
}

// WithTimeout sets the default per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// New creates an Engine for the service at baseURL.
func New(baseURL string, opts ...Option) *Engine {
	e := &Engine{
		client:  &http.Client{},
		baseURL: strings.TrimSuffix(baseURL, "/"),
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Render uploads markup as index.html and returns the PDF bytes.
func (e *Engine) Render(ctx context.Context, markup string, opts document.Options) ([]byte, error) {
	timeout := e.timeout
	if opts.Timeout > 0 {
		timeout = opts.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	body, contentType, err := buildForm(markup)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+convertPath, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	if opts.Title != "" {
		req.Header.Set("Gotenberg-Output-Filename", strings.TrimSuffix(opts.Title, ".pdf"))
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("%w: status %d: %s", ErrConversionFailed, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	return io.ReadAll(io.LimitReader(resp.Body, maxOutputSize))
}

// Format implements document.Formatter.
func (e *Engine) Format() document.Format { return document.PDF }

// Probe checks the service health endpoint.
func (e *Engine) Probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+healthPath, nil)
	if err != nil {
		return err
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnhealthy, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, resp.StatusCode)
	}
	return nil
}

// buildForm encodes the multipart request: A4 paper, small margins, backgrounds printed.
func buildForm(markup string) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("files", "index.html")
	if err != nil {
		return nil, "", err
	}
	if _, err := io.WriteString(part, markup); err != nil {
		return nil, "", err
	}

	fields := [][2]string{
		{"paperWidth", "8.27"},
		{"paperHeight", "11.7"},
		{"marginTop", "0.4"},
		{"marginBottom", "0.4"},
		{"marginLeft", "0.4"},
		{"marginRight", "0.4"},
		{"printBackground", "true"},
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

var (
	_ document.RenderEngine = (*Engine)(nil)
	_ document.Formatter    = (*Engine)(nil)
)
