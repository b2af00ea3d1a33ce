package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/tech-artist89/mitra/internal/server"
	"github.com/tech-artist89/mitra/pkg/document"
	"github.com/tech-artist89/mitra/pkg/notify"
	"github.com/tech-artist89/mitra/pkg/sanitizer"
	"github.com/tech-artist89/mitra/pkg/submission"
)

// DefaultBodyLimit caps request bodies.
const DefaultBodyLimit int64 = 1 << 20 // 1MB

// Dispatcher runs notification cycles. *notify.Dispatcher satisfies it.
type Dispatcher interface {
	ProcessContact(ctx context.Context, c submission.Contact) (*notify.Result, error)
	ProcessConfiguration(ctx context.Context, cfg submission.Configuration) (*notify.Result, error)
}

// Notifications serves the form endpoints.
type Notifications struct {
	dispatcher   Dispatcher
	contact      *payloadSchema
	configurator *payloadSchema
	company      document.Company
	middleware   []server.Middleware
	bodyLimit    int64
}

// Option configures Notifications.
type Option func(*Notifications)

// WithMiddleware adds route middleware to the submission endpoints, e.g.
// rate limiting. Preflight requests bypass it.
func WithMiddleware(mw ...server.Middleware) Option {
	return func(n *Notifications) {
		n.middleware = append(n.middleware, mw...)
	}
}

// WithBodyLimit overrides DefaultBodyLimit.
func WithBodyLimit(limit int64) Option {
	return func(n *Notifications) {
		if limit > 0 {
			n.bodyLimit = limit
		}
	}
}

// WithCompany sets the contact details offered when delivery fails.
func WithCompany(c document.Company) Option {
	return func(n *Notifications) {
		n.company = c
	}
}

// NewNotifications creates the form handlers.
func NewNotifications(d Dispatcher, opts ...Option) *Notifications {
	n := &Notifications{
		dispatcher:   d,
		contact:      mustLoadSchema(contactSchema),
		configurator: mustLoadSchema(configuratorSchema),
		bodyLimit:    DefaultBodyLimit,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Routes implements server.Handler.
func (n *Notifications) Routes(r server.Router) {
	r.Route("/api", func(r server.Router) {
		r.POST("/contact", n.handleContact, n.middleware...)
		r.POST("/configurator", n.handleConfigurator, n.middleware...)
		r.OPTIONS("/contact", preflight)
		r.OPTIONS("/configurator", preflight)
	})
}

// preflight is reached only when CORS did not answer the request itself.
func preflight(c server.Context) error {
	return c.NoContent(http.StatusNoContent)
}

func (n *Notifications) handleContact(c server.Context) error {
	var in submission.Contact
	if err := n.decode(c, n.contact, &in); err != nil {
		return err
	}

	sanitizer.Fields(&in.FirstName, &in.LastName, &in.Email, &in.Phone, &in.Subject, &in.Message, &in.ServiceCategory)
	// The dispatcher owns the recipient check and answers it with 422.
	if errs := withoutField(in.Validate(), "email"); !errs.IsEmpty() {
		return validationError(errs)
	}

	result, err := n.dispatcher.ProcessContact(c.Context(), in)
	if err != nil {
		return n.dispatchError(err)
	}

	return n.respond(c, result, "Vielen Dank für Ihre Anfrage. Wir melden uns schnellstmöglich bei Ihnen.")
}

func (n *Notifications) handleConfigurator(c server.Context) error {
	var in submission.Configuration
	if err := n.decode(c, n.configurator, &in); err != nil {
		return err
	}

	sanitizeConfiguration(&in)
	if errs := in.Validate(); !errs.IsEmpty() {
		// Advisory only; the customer still gets their confirmation.
		c.LogWarn("configuration validation warnings", slog.String("warnings", errs.Error()))
	}

	result, err := n.dispatcher.ProcessConfiguration(c.Context(), in)
	if err != nil {
		return n.dispatchError(err)
	}

	return n.respond(c, result, "Vielen Dank für Ihre Badkonfiguration. Die Zusammenfassung wurde an Ihre E-Mail-Adresse gesendet.")
}

// decode checks the content type, reads the body within the limit,
// validates it against schema and unmarshals it into v.
func (n *Notifications) decode(c server.Context, schema *payloadSchema, v any) error {
	if ct := c.Header("Content-Type"); ct != "" {
		mediaType, _, err := mime.ParseMediaType(ct)
		if err != nil || mediaType != "application/json" {
			return server.ErrUnsupportedMediaType("Bitte senden Sie die Daten als JSON.",
				server.WithErrorCode("unsupported_media_type"),
				server.WithError(ErrUnsupportedContentType),
			)
		}
	}

	body, err := c.ReadBody(n.bodyLimit)
	if err != nil {
		if errors.Is(err, server.ErrBodyTooLarge) {
			return server.ErrPayloadTooLarge("Die Anfrage ist zu groß.",
				server.WithErrorCode("payload_too_large"), server.WithError(err))
		}
		return server.ErrBadRequest("Die Anfrage konnte nicht gelesen werden.", server.WithError(err))
	}

	fieldErrs, err := schema.validate(body)
	if err != nil {
		return server.ErrBadRequest("Ungültige Anfrage.", server.WithErrorCode("malformed_payload"), server.WithError(err))
	}
	if !fieldErrs.IsEmpty() {
		return validationError(fieldErrs)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return server.ErrBadRequest("Ungültige Anfrage.", server.WithErrorCode("malformed_payload"),
			server.WithError(fmt.Errorf("%w: %w", ErrMalformedPayload, err)))
	}
	return nil
}

func validationError(errs submission.ValidationErrors) error {
	return server.ErrBadRequest("Bitte überprüfen Sie Ihre Eingaben.",
		server.WithErrorCode("validation_failed"),
		server.WithDetails(errs),
		server.WithError(errs),
	)
}

func withoutField(errs submission.ValidationErrors, field string) submission.ValidationErrors {
	out := errs[:0:0]
	for _, e := range errs {
		if e.Field != field {
			out = append(out, e)
		}
	}
	return out
}

func (n *Notifications) dispatchError(err error) error {
	var invalid *notify.InvalidRecipientError
	if errors.As(err, &invalid) {
		return server.ErrUnprocessable("Die angegebene E-Mail-Adresse ist ungültig.",
			server.WithErrorCode("invalid_recipient"),
			server.WithDetails(submission.ValidationErrors{{Field: "email", Message: "is not a valid email address"}}),
			server.WithError(err),
		)
	}
	return server.ErrInternal(internalErrorMessage, server.WithError(err))
}

// respond writes 200 when at least one message was delivered and 502 with
// direct contact details otherwise.
func (n *Notifications) respond(c server.Context, r *notify.Result, okMessage string) error {
	resp := Response{
		Success:          r.OverallSuccess,
		CorrelationID:    r.CorrelationID,
		DocumentAttached: r.DocumentAttached,
		Degraded:         r.Degraded,
		Message:          okMessage,
	}
	if r.OverallSuccess {
		return c.JSON(http.StatusOK, resp)
	}

	resp.Code = "delivery_failed"
	resp.Message = n.fallbackMessage(r.CorrelationID)
	c.LogError("notification delivery failed", slog.String("correlation_id", r.CorrelationID))
	return c.JSON(http.StatusBadGateway, resp)
}

func (n *Notifications) fallbackMessage(corr string) string {
	var contact []string
	if n.company.Phone != "" {
		contact = append(contact, "telefonisch unter "+n.company.Phone)
	}
	if n.company.Email != "" {
		contact = append(contact, "per E-Mail an "+n.company.Email)
	}

	msg := "Ihre Anfrage konnte leider nicht zugestellt werden."
	if len(contact) > 0 {
		msg += " Bitte kontaktieren Sie uns direkt " + strings.Join(contact, " oder ") + "."
	}
	return msg + " Referenz: " + corr
}

func sanitizeConfiguration(in *submission.Configuration) {
	sanitizer.Fields(
		&in.Contact.Salutation, &in.Contact.FirstName, &in.Contact.LastName,
		&in.Contact.Email, &in.Contact.Phone, &in.Comments,
		&in.Data.Quality.Name, &in.Data.Quality.Description,
	)
	for i := range in.Data.Equipment {
		e := &in.Data.Equipment[i]
		sanitizer.Fields(&e.Name)
		for j := range e.Options {
			sanitizer.Fields(&e.Options[j].Name)
		}
	}
	in.Data.FloorTiles = sanitizer.Strings(in.Data.FloorTiles)
	in.Data.WallTiles = sanitizer.Strings(in.Data.WallTiles)
	in.Data.Heating = sanitizer.Strings(in.Data.Heating)

	if len(in.AdditionalInfo) > 0 {
		clean := make(map[string]bool, len(in.AdditionalInfo))
		for k, v := range in.AdditionalInfo {
			if k = sanitizer.StripTags(k); k != "" {
				clean[k] = v
			}
		}
		in.AdditionalInfo = clean
	}
}
