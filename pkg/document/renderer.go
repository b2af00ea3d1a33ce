package document

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"strings"
	"time"

	"github.com/tech-artist89/mitra/pkg/submission"
)

//go:embed templates/*.html
var templateFS embed.FS

var markupTemplate = template.Must(
	template.New("configuration.html").
		Funcs(template.FuncMap{"nl2br": nl2br}).
		ParseFS(templateFS, "templates/configuration.html"),
)

// Company is the letterhead shown on every document.
type Company struct {
	Name    string `env:"COMPANY_NAME" envDefault:"Mitra Sanitär GmbH"`
	Address string `env:"COMPANY_ADDRESS"`
	Phone   string `env:"COMPANY_PHONE"`
	Email   string `env:"COMPANY_EMAIL"`
	Website string `env:"COMPANY_WEBSITE"`
}

// Clock returns the current time.
type Clock func() time.Time

// Renderer turns configurator submissions into documents.
// It holds no per-call state and is safe for concurrent use.
type Renderer struct {
	engine  RenderEngine
	clock   Clock
	company Company
	format  Format
	timeout time.Duration
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithClock overrides the time source.
func WithClock(c Clock) Option {
	return func(r *Renderer) {
		if c != nil {
			r.clock = c
		}
	}
}

// WithCompany sets the letterhead.
func WithCompany(c Company) Option {
	return func(r *Renderer) { r.company = c }
}

// WithTimeout bounds each engine call.
func WithTimeout(d time.Duration) Option {
	return func(r *Renderer) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// NewRenderer creates a Renderer. A nil engine falls back to HTMLEngine.
func NewRenderer(engine RenderEngine, opts ...Option) *Renderer {
	if engine == nil {
		engine = HTMLEngine{}
	}
	r := &Renderer{
		engine: engine,
		clock:  time.Now,
		format: PDF,
	}
	if f, ok := engine.(Formatter); ok {
		r.format = f.Format()
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type markupData struct {
	Company     Company
	Summary     Summary
	GeneratedAt string
	Title       string
}

// Markup builds the escaped HTML body for cfg at the given time.
func (r *Renderer) Markup(cfg submission.Configuration, at time.Time) (string, error) {
	var buf bytes.Buffer
	err := markupTemplate.Execute(&buf, markupData{
		Company:     r.company,
		Summary:     Summarize(cfg),
		GeneratedAt: at.Format("02.01.2006 15:04"),
		Title:       "Ihre Badkonfiguration",
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Render produces the document for cfg. Missing optional data never fails;
// only template or engine failures return a *RenderError.
func (r *Renderer) Render(ctx context.Context, cfg submission.Configuration) (*Document, error) {
	now := r.clock()
	filename := Filename(cfg.Contact.FirstName, cfg.Contact.LastName, now, r.format.Extension)

	markup, err := r.Markup(cfg, now)
	if err != nil {
		return nil, &RenderError{Stage: "template", Filename: filename, Err: err}
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	content, err := r.engine.Render(ctx, markup, Options{Title: filename, Timeout: r.timeout})
	if err != nil {
		return nil, &RenderError{Stage: "engine", Filename: filename, Err: err}
	}
	if len(content) == 0 {
		return nil, &RenderError{Stage: "engine", Filename: filename, Err: ErrEmptyDocument}
	}

	return &Document{
		Filename:    filename,
		ContentType: r.format.ContentType,
		Content:     content,
		Size:        len(content),
		CreatedAt:   now,
	}, nil
}

func nl2br(s string) template.HTML {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return template.HTML(strings.ReplaceAll(template.HTMLEscapeString(s), "\n", "<br>"))
}
