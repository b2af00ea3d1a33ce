package document_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tech-artist89/mitra/pkg/document"
	"github.com/tech-artist89/mitra/pkg/submission"
)

var frozen = time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)

func frozenClock() time.Time { return frozen }

func fullConfiguration() submission.Configuration {
	return submission.Configuration{
		Contact: submission.ContactInfo{
			Salutation: "Frau", FirstName: "Anna", LastName: "Schmidt",
			Email: "anna@example.de", Phone: "0171 2345678",
		},
		Data: submission.ConfigurationData{
			BathroomSize: 8.5,
			Quality:      submission.QualityTier{Name: "Premium", Description: "Markenprodukte"},
			Equipment: []submission.Equipment{
				{Name: "Dusche", Selected: true, Options: []submission.EquipmentOption{{Name: "Walk-In", Selected: true}}},
				{Name: "Badewanne", Selected: false},
				{Name: "WC", Selected: true},
			},
			FloorTiles: []string{"Feinsteinzeug 60x60"},
			Heating:    []string{"Fußbodenheizung"},
		},
		Comments:       "Bitte vormittags\nanrufen",
		AdditionalInfo: map[string]bool{"barrierFree": true, "oldBuilding": false, "customFlag": true},
	}
}

// pdfEngine records the markup and reports PDF output.
type pdfEngine struct {
	markup string
}

func (e *pdfEngine) Render(_ context.Context, markup string, _ document.Options) ([]byte, error) {
	e.markup = markup
	return []byte("%PDF" + markup), nil
}

func TestRenderer_Render(t *testing.T) {
	t.Parallel()

	t.Run("full configuration", func(t *testing.T) {
		t.Parallel()

		engine := &pdfEngine{}
		r := document.NewRenderer(engine, document.WithClock(frozenClock),
			document.WithCompany(document.Company{Name: "Mitra Sanitär GmbH"}))

		doc, err := r.Render(context.Background(), fullConfiguration())
		require.NoError(t, err)
		require.Equal(t, "Badkonfiguration_Anna_Schmidt_20240315_143000.pdf", doc.Filename)
		require.Equal(t, "application/pdf", doc.ContentType)
		require.Equal(t, len(doc.Content), doc.Size)
		require.Equal(t, frozen, doc.CreatedAt)

		m := engine.markup
		require.Contains(t, m, "Walk-In")
		require.Contains(t, m, "<td class=\"label\">WC</td><td>Standard</td>")
		require.NotContains(t, m, "Badewanne")
		require.Contains(t, m, "8,5 m²")
		require.Contains(t, m, "Bitte vormittags<br>anrufen")
		require.Contains(t, m, "Barrierefreie Ausführung gewünscht")
		require.Contains(t, m, "customFlag")
		require.NotContains(t, m, "Altbau")
		// wall tiles are empty
		require.Contains(t, m, "Keine Auswahl")
	})

	t.Run("empty equipment shows placeholder", func(t *testing.T) {
		t.Parallel()

		engine := &pdfEngine{}
		cfg := fullConfiguration()
		cfg.Data.Equipment = nil

		_, err := document.NewRenderer(engine, document.WithClock(frozenClock)).Render(context.Background(), cfg)
		require.NoError(t, err)

		section := engine.markup[strings.Index(engine.markup, "<h2>Ausstattung</h2>"):strings.Index(engine.markup, "<h2>Bodenfliesen</h2>")]
		require.Contains(t, section, "Keine Auswahl")
		require.NotContains(t, section, "<table>")
	})

	t.Run("missing optional fields never fail", func(t *testing.T) {
		t.Parallel()

		doc, err := document.NewRenderer(&pdfEngine{}, document.WithClock(frozenClock)).
			Render(context.Background(), submission.Configuration{})
		require.NoError(t, err)
		require.Equal(t, "Badkonfiguration_Unknown_20240315_143000.pdf", doc.Filename)
		require.Contains(t, string(doc.Content), "Nicht angegeben")
	})

	t.Run("free text is escaped", func(t *testing.T) {
		t.Parallel()

		engine := &pdfEngine{}
		cfg := fullConfiguration()
		cfg.Comments = "<script>alert(1)</script>\nok"
		cfg.Data.FloorTiles = []string{`"><img src=x>`}

		_, err := document.NewRenderer(engine, document.WithClock(frozenClock)).Render(context.Background(), cfg)
		require.NoError(t, err)
		require.NotContains(t, engine.markup, "<script>alert(1)</script>")
		require.Contains(t, engine.markup, "&lt;script&gt;alert(1)&lt;/script&gt;<br>ok")
		require.NotContains(t, engine.markup, "<img src=x>")
	})

	t.Run("deterministic with frozen clock", func(t *testing.T) {
		t.Parallel()

		r := document.NewRenderer(&pdfEngine{}, document.WithClock(frozenClock))
		a, err := r.Render(context.Background(), fullConfiguration())
		require.NoError(t, err)
		b, err := r.Render(context.Background(), fullConfiguration())
		require.NoError(t, err)
		require.Equal(t, a.Content, b.Content)
		require.Equal(t, a.Filename, b.Filename)
	})

	t.Run("engine failure is a render error", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("chromium crashed")
		engine := document.EngineFunc(func(context.Context, string, document.Options) ([]byte, error) {
			return nil, boom
		})

		_, err := document.NewRenderer(engine, document.WithClock(frozenClock)).Render(context.Background(), fullConfiguration())
		require.ErrorIs(t, err, document.ErrRenderFailed)
		require.ErrorIs(t, err, boom)

		var rerr *document.RenderError
		require.ErrorAs(t, err, &rerr)
		require.Equal(t, "engine", rerr.Stage)
	})

	t.Run("empty output is a render error", func(t *testing.T) {
		t.Parallel()

		engine := document.EngineFunc(func(context.Context, string, document.Options) ([]byte, error) {
			return nil, nil
		})
		_, err := document.NewRenderer(engine).Render(context.Background(), fullConfiguration())
		require.ErrorIs(t, err, document.ErrEmptyDocument)
	})

	t.Run("html engine sets html format", func(t *testing.T) {
		t.Parallel()

		doc, err := document.NewRenderer(nil, document.WithClock(frozenClock)).Render(context.Background(), fullConfiguration())
		require.NoError(t, err)
		require.True(t, strings.HasSuffix(doc.Filename, ".html"))
		require.Equal(t, document.HTML.ContentType, doc.ContentType)
	})

	t.Run("engine timeout", func(t *testing.T) {
		t.Parallel()

		engine := document.EngineFunc(func(ctx context.Context, _ string, _ document.Options) ([]byte, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		})
		_, err := document.NewRenderer(engine, document.WithTimeout(10*time.Millisecond)).
			Render(context.Background(), fullConfiguration())
		require.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestFilename(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		first string
		last  string
		want  string
	}{
		{"plain", "Anna", "Schmidt", "Badkonfiguration_Anna_Schmidt_20240315_143000.pdf"},
		{"umlauts", "Jürgen", "Müller-Lüdenscheidt", "Badkonfiguration_Juergen_Mueller-Luedenscheidt_20240315_143000.pdf"},
		{"eszett", "", "Groß", "Badkonfiguration_Gross_20240315_143000.pdf"},
		{"accents", "José", "Nuñez", "Badkonfiguration_Jose_Nunez_20240315_143000.pdf"},
		{"spaces", "Anna Maria", "von Schmidt", "Badkonfiguration_Anna_Maria_von_Schmidt_20240315_143000.pdf"},
		{"path chars", "../../etc", "pa$$wd", "Badkonfiguration_etc_pawd_20240315_143000.pdf"},
		{"empty", "", "  ", "Badkonfiguration_Unknown_20240315_143000.pdf"},
		{"only symbols", "!!!", "???", "Badkonfiguration_Unknown_20240315_143000.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, document.Filename(tt.first, tt.last, frozen, ".pdf"))
		})
	}
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	s := document.Summarize(fullConfiguration())
	require.Equal(t, "Anna Schmidt", s.FullName)
	require.Equal(t, "Frau Schmidt", s.Greeting())
	require.Equal(t, []document.EquipmentLine{{Name: "Dusche", Option: "Walk-In"}, {Name: "WC", Option: "Standard"}}, s.Equipment)
	require.Equal(t, []string{"Barrierefreie Ausführung gewünscht", "customFlag"}, s.AdditionalInfo)
	require.Nil(t, s.WallTiles)

	empty := document.Summarize(submission.Configuration{})
	require.Equal(t, document.NotSpecified, empty.BathroomSize)
	require.Equal(t, document.NotSpecified, empty.Phone)
	require.Equal(t, document.NotSpecified, empty.FullName)
	require.Empty(t, empty.Greeting())
}
