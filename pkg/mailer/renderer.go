package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"strings"
	"sync"
	texttemplate "text/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Renderer turns markdown templates with YAML frontmatter into HTML and
// plain-text bodies. Each template is executed twice: once with markdown
// escaping for the HTML part and once verbatim for the text part.
type Renderer struct {
	fs fs.FS
	md goldmark.Markdown

	templateCache map[string]*cachedTemplate
	layoutCache   map[string]*template.Template
	funcs         texttemplate.FuncMap
	templateDir   string
	layoutDir     string
	layout        string

	mu sync.RWMutex
}

type cachedTemplate struct {
	metadata map[string]any
	html     *texttemplate.Template
	text     *texttemplate.Template
	subject  *texttemplate.Template
}

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithTemplateDir sets the directory holding .md templates. Default ".".
func WithTemplateDir(dir string) RendererOption {
	return func(r *Renderer) { r.templateDir = dir }
}

// WithLayoutDir sets the directory holding HTML layouts. Default "layouts".
func WithLayoutDir(dir string) RendererOption {
	return func(r *Renderer) { r.layoutDir = dir }
}

// WithLayout sets the default layout file name. Default "base.html".
func WithLayout(name string) RendererOption {
	return func(r *Renderer) { r.layout = name }
}

// WithFuncs adds template functions available to both variants.
func WithFuncs(funcs texttemplate.FuncMap) RendererOption {
	return func(r *Renderer) {
		for k, v := range funcs {
			r.funcs[k] = v
		}
	}
}

// NewRenderer creates a renderer over filesystem.
func NewRenderer(filesystem fs.FS, opts ...RendererOption) *Renderer {
	r := &Renderer{
		fs:            filesystem,
		templateDir:   ".",
		layoutDir:     "layouts",
		layout:        "base.html",
		md:            goldmark.New(goldmark.WithExtensions(extension.Table)),
		templateCache: make(map[string]*cachedTemplate),
		layoutCache:   make(map[string]*template.Template),
		funcs:         texttemplate.FuncMap{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Message is a rendered email body.
type Message struct {
	Metadata map[string]any
	Subject  string
	HTML     string
	Text     string
}

// Render executes the named template with data and wraps the HTML in the
// default layout.
func (r *Renderer) Render(name string, data any) (*Message, error) {
	return r.RenderWithLayout(r.layout, name, data)
}

// RenderWithLayout is Render with an explicit layout.
func (r *Renderer) RenderWithLayout(layout, name string, data any) (*Message, error) {
	cached, err := r.getTemplate(name)
	if err != nil {
		return nil, err
	}

	var subject bytes.Buffer
	if err := cached.subject.Execute(&subject, data); err != nil {
		return nil, fmt.Errorf("%w: subject of %s: %v", ErrRenderFailed, name, err)
	}

	var text bytes.Buffer
	if err := cached.text.Execute(&text, data); err != nil {
		return nil, fmt.Errorf("%w: text of %s: %v", ErrRenderFailed, name, err)
	}

	var markdown bytes.Buffer
	if err := cached.html.Execute(&markdown, data); err != nil {
		return nil, fmt.Errorf("%w: html of %s: %v", ErrRenderFailed, name, err)
	}

	var content bytes.Buffer
	if err := r.md.Convert(markdown.Bytes(), &content); err != nil {
		return nil, fmt.Errorf("%w: failed to convert markdown: %v", ErrRenderFailed, err)
	}

	layoutTmpl, err := r.getLayout(layout)
	if err != nil {
		return nil, err
	}

	subj := singleLine(subject.String())

	var out bytes.Buffer
	err = layoutTmpl.Execute(&out, map[string]any{
		"Content":  template.HTML(content.String()),
		"Subject":  subj,
		"Metadata": cached.metadata,
		"Data":     data,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to execute layout: %v", ErrRenderFailed, err)
	}

	return &Message{
		Metadata: cached.metadata,
		Subject:  subj,
		HTML:     out.String(),
		Text:     strings.TrimSpace(text.String()) + "\n",
	}, nil
}

func (r *Renderer) getTemplate(name string) (*cachedTemplate, error) {
	r.mu.RLock()
	cached, ok := r.templateCache[name]
	r.mu.RUnlock()
	if ok {
		return cached, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if cached, ok := r.templateCache[name]; ok {
		return cached, nil
	}

	content, err := fs.ReadFile(r.fs, path.Join(r.templateDir, name))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrTemplateNotFound, name, err)
	}

	parsed, err := ParseTemplate(content)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrRenderFailed, name, err)
	}

	cached = &cachedTemplate{metadata: parsed.Metadata}
	if cached.html, err = r.parse(name, parsed.Body, markdownFuncs); err != nil {
		return nil, err
	}
	if cached.text, err = r.parse(name, parsed.Body, plainFuncs); err != nil {
		return nil, err
	}
	if cached.subject, err = r.parse(name+":subject", parsed.Subject(), plainFuncs); err != nil {
		return nil, err
	}

	r.templateCache[name] = cached
	return cached, nil
}

func (r *Renderer) parse(name, body string, base texttemplate.FuncMap) (*texttemplate.Template, error) {
	funcs := texttemplate.FuncMap{}
	for k, v := range r.funcs {
		funcs[k] = v
	}
	for k, v := range base {
		funcs[k] = v
	}
	tmpl, err := texttemplate.New(name).Funcs(funcs).Option("missingkey=zero").Parse(body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse %s: %v", ErrRenderFailed, name, err)
	}
	return tmpl, nil
}

func (r *Renderer) getLayout(name string) (*template.Template, error) {
	r.mu.RLock()
	cached, ok := r.layoutCache[name]
	r.mu.RUnlock()
	if ok {
		return cached, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if cached, ok := r.layoutCache[name]; ok {
		return cached, nil
	}

	content, err := fs.ReadFile(r.fs, path.Join(r.layoutDir, name))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLayoutNotFound, name, err)
	}

	layoutTmpl, err := template.New(name).Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse layout: %v", ErrRenderFailed, err)
	}

	r.layoutCache[name] = layoutTmpl
	return layoutTmpl, nil
}

func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
