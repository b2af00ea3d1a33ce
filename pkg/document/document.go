package document

import (
	"context"
	"time"
)

// Options tunes a single engine call.
type Options struct {
	Title string
	// Timeout bounds the engine call; zero uses the engine default.
	Timeout time.Duration
}

// RenderEngine converts HTML markup into a finished document.
type RenderEngine interface {
	Render(ctx context.Context, markup string, opts Options) ([]byte, error)
}

// Format describes the bytes an engine produces.
type Format struct {
	Extension   string
	ContentType string
}

var (
	// PDF is the default output format.
	PDF = Format{Extension: ".pdf", ContentType: "application/pdf"}
	// HTML is produced by engines that return markup unchanged.
	HTML = Format{Extension: ".html", ContentType: "text/html; charset=utf-8"}
)

// Formatter is implemented by engines whose output is not PDF.
type Formatter interface {
	Format() Format
}

// Document is a rendered artifact owned by a single notification cycle.
type Document struct {
	CreatedAt   time.Time
	Filename    string
	ContentType string
	// Path is the archive key, set when the document was persisted.
	Path    string
	Content []byte
	Size    int
}

// HTMLEngine returns the markup as-is. It is used when no conversion
// service is configured.
type HTMLEngine struct{}

// Render implements RenderEngine.
func (HTMLEngine) Render(ctx context.Context, markup string, _ Options) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return []byte(markup), nil
}

// Format implements Formatter.
func (HTMLEngine) Format() Format { return HTML }

// Probe always succeeds.
func (HTMLEngine) Probe(context.Context) error { return nil }

// EngineFunc adapts a function to RenderEngine.
type EngineFunc func(ctx context.Context, markup string, opts Options) ([]byte, error)

// Render implements RenderEngine.
func (f EngineFunc) Render(ctx context.Context, markup string, opts Options) ([]byte, error) {
	return f(ctx, markup, opts)
}
