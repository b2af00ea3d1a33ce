package mailer

import (
	"sync"
	"sync/atomic"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"layouts/base.html": &fstest.MapFile{
			Data: []byte(`<html><head><title>{{.Subject}}</title></head><body>{{.Content}}</body></html>`),
		},
		"welcome.md": &fstest.MapFile{
			Data: []byte(`---
Subject: Willkommen {{.Name}}
---
Hallo **{{md .Name}}**!

{{breaks .Message}}
`),
		},
	}
}

func TestRenderer_Render(t *testing.T) {
	t.Parallel()

	t.Run("html and text variants", func(t *testing.T) {
		t.Parallel()

		r := NewRenderer(testFS())
		msg, err := r.Render("welcome.md", map[string]string{"Name": "Anna", "Message": "Zeile 1\nZeile 2"})
		require.NoError(t, err)

		require.Equal(t, "Willkommen Anna", msg.Subject)
		require.Contains(t, msg.Text, "Hallo **Anna**!")
		require.Contains(t, msg.Text, "Zeile 1\nZeile 2")
		require.NotContains(t, msg.Text, "<strong>")

		require.Contains(t, msg.HTML, "<strong>Anna</strong>")
		require.Contains(t, msg.HTML, "Zeile 1<br>\nZeile 2")
		require.Contains(t, msg.HTML, "<title>Willkommen Anna</title>")
	})

	t.Run("user input is escaped in html", func(t *testing.T) {
		t.Parallel()

		r := NewRenderer(testFS())
		msg, err := r.Render("welcome.md", map[string]string{
			"Name":    "*bold* <script>alert(1)</script>",
			"Message": "[link](http://evil.example)",
		})
		require.NoError(t, err)

		require.NotContains(t, msg.HTML, "<script>")
		require.NotContains(t, msg.HTML, "<em>bold</em>")
		require.NotContains(t, msg.HTML, `href="http://evil.example"`)
		require.Contains(t, msg.HTML, "&lt;script&gt;")
		// plain text stays verbatim
		require.Contains(t, msg.Text, "*bold* <script>alert(1)</script>")
	})

	t.Run("subject is a single line", func(t *testing.T) {
		t.Parallel()

		r := NewRenderer(testFS())
		msg, err := r.Render("welcome.md", map[string]string{"Name": "Anna\r\nBcc: x@evil.example"})
		require.NoError(t, err)
		require.Equal(t, "Willkommen Anna Bcc: x@evil.example", msg.Subject)
	})

	t.Run("missing template", func(t *testing.T) {
		t.Parallel()

		_, err := NewRenderer(testFS()).Render("nope.md", nil)
		require.ErrorIs(t, err, ErrTemplateNotFound)
	})

	t.Run("missing layout", func(t *testing.T) {
		t.Parallel()

		_, err := NewRenderer(testFS(), WithLayout("other.html")).Render("welcome.md", map[string]string{})
		require.ErrorIs(t, err, ErrLayoutNotFound)
	})

	t.Run("custom funcs", func(t *testing.T) {
		t.Parallel()

		fs := testFS()
		fs["shout.md"] = &fstest.MapFile{Data: []byte("---\nSubject: x\n---\n{{upper .}}")}
		r := NewRenderer(fs, WithFuncs(map[string]any{"upper": func(s string) string { return s + "!" }}))
		msg, err := r.Render("shout.md", "hey")
		require.NoError(t, err)
		require.Equal(t, "hey!\n", msg.Text)
	})
}

func TestRenderer_CachesTemplates(t *testing.T) {
	t.Parallel()

	var reads atomic.Int32
	cfs := &countingFS{MapFS: testFS(), reads: &reads}
	r := NewRenderer(cfs)

	data := map[string]string{"Name": "Anna"}
	_, err := r.Render("welcome.md", data)
	require.NoError(t, err)
	require.Equal(t, int32(2), reads.Load(), "template and layout read once")

	_, err = r.Render("welcome.md", data)
	require.NoError(t, err)
	require.Equal(t, int32(2), reads.Load(), "second render served from cache")
}

func TestRenderer_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	r := NewRenderer(testFS())

	var wg sync.WaitGroup
	errs := make(chan error, 50)
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.Render("welcome.md", map[string]string{"Name": "Anna"}); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent render failed: %v", err)
	}
}

func TestEscapeMarkdown(t *testing.T) {
	t.Parallel()

	require.Equal(t, `\*a\_b\* \<x\> 1\. Straße`, EscapeMarkdown("*a_b* <x> 1. Straße"))
	require.Equal(t, "a\\\nb\n\nc", hardBreaks("a\nb\n\nc"))
}

type countingFS struct {
	fstest.MapFS
	reads *atomic.Int32
}

func (c *countingFS) ReadFile(name string) ([]byte, error) {
	c.reads.Add(1)
	return c.MapFS.ReadFile(name)
}
