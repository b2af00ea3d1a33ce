// Package document renders bathroom configurator submissions into a
// customer-facing document.
//
// A [Renderer] builds escaped HTML from a [submission.Configuration] and hands
// it to a [RenderEngine] in a single call. The gotenberg sub-package converts
// the markup to PDF; [HTMLEngine] returns it unchanged.
//
//	r := document.NewRenderer(gotenberg.New(cfg.GotenbergURL),
//		document.WithCompany(cfg.Company),
//		document.WithTimeout(15*time.Second),
//	)
//	doc, err := r.Render(ctx, submission)
//	if err != nil {
//		var rerr *document.RenderError
//		// engine or template failure; deliver without attachment
//	}
//
// Given a fixed [Clock], rendering the same submission twice yields identical bytes.
package document
