// Package server is the HTTP layer of the notification backend: a chi router
// wrapped in a small handler model, JSON helpers, structured HTTP errors and
// a run loop with graceful shutdown.
//
// Handlers receive a [Context] and return an error. A returned error is
// passed to the configured [ErrorHandler], so handlers never write error
// responses themselves:
//
//	func (h *Contact) submit(c server.Context) error {
//		body, err := c.ReadBody(maxBody)
//		if err != nil {
//			return server.ErrPayloadTooLarge("request body too large", server.WithError(err))
//		}
//		...
//		return c.JSON(http.StatusOK, resp)
//	}
//
// [Middleware] uses the same signature, so cross-cutting concerns such as
// request ids, panic recovery and rate limiting compose with handlers
// without touching http.Handler directly.
//
// [App.Run] listens, serves and shuts down on SIGINT/SIGTERM, running
// startup and shutdown hooks around the server lifetime.
package server
