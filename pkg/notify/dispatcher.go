package notify

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/tech-artist89/mitra/pkg/document"
	"github.com/tech-artist89/mitra/pkg/id"
	"github.com/tech-artist89/mitra/pkg/mailer"
	"github.com/tech-artist89/mitra/pkg/submission"
)

//go:embed templates
var templatesFS embed.FS

// Templates returns the embedded email templates.
func Templates() fs.FS {
	sub, err := fs.Sub(templatesFS, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}

const (
	tmplCompanyContact        = "company_contact.md"
	tmplCustomerContact       = "customer_contact.md"
	tmplCompanyConfiguration  = "company_configuration.md"
	tmplCustomerConfiguration = "customer_configuration.md"

	headerCorrelationID = "X-Correlation-ID"
)

// Config holds dispatcher settings.
type Config struct {
	// CompanyInbox receives the internal notification.
	CompanyInbox string `env:"MAIL_COMPANY_INBOX"`
	// From is the sender address of every outgoing message.
	From           string        `env:"MAIL_FROM"`
	SendTimeout    time.Duration `env:"MAIL_SEND_TIMEOUT" envDefault:"15s"`
	RenderTimeout  time.Duration `env:"DOCUMENT_RENDER_TIMEOUT" envDefault:"30s"`
	ArchiveTimeout time.Duration `env:"DOCUMENT_ARCHIVE_TIMEOUT" envDefault:"10s"`
}

// Dispatcher turns a submission into company and customer emails.
// It keeps no state between calls and is safe for concurrent use when the
// transport is.
type Dispatcher struct {
	transport mailer.Sender
	emails    *mailer.Renderer
	documents DocumentRenderer
	archive   Archive
	sink      EventSink
	clock     Clock
	company   document.Company
	cfg       Config
	degraded  bool
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithDocuments enables the configurator document attachment.
func WithDocuments(r DocumentRenderer) Option {
	return func(d *Dispatcher) { d.documents = r }
}

// WithArchive stores rendered documents before delivery.
func WithArchive(a Archive) Option {
	return func(d *Dispatcher) { d.archive = a }
}

// WithEventSink sets the event receiver.
func WithEventSink(s EventSink) Option {
	return func(d *Dispatcher) {
		if s != nil {
			d.sink = s
		}
	}
}

// WithClock overrides the time source.
func WithClock(c Clock) Option {
	return func(d *Dispatcher) {
		if c != nil {
			d.clock = c
		}
	}
}

// WithCompany sets the company details used in templates.
func WithCompany(c document.Company) Option {
	return func(d *Dispatcher) { d.company = c }
}

// WithDegraded marks every result as produced by a simulated transport.
func WithDegraded(degraded bool) Option {
	return func(d *Dispatcher) { d.degraded = degraded }
}

// WithEmailRenderer replaces the embedded email templates.
func WithEmailRenderer(r *mailer.Renderer) Option {
	return func(d *Dispatcher) {
		if r != nil {
			d.emails = r
		}
	}
}

// New creates a Dispatcher sending through transport.
func New(transport mailer.Sender, cfg Config, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		transport: transport,
		cfg:       cfg,
		sink:      nopSink{},
		clock:     time.Now,
		emails:    mailer.NewRenderer(Templates()),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// ProcessContact notifies the company and confirms to the customer.
func (d *Dispatcher) ProcessContact(ctx context.Context, c submission.Contact) (*Result, error) {
	if !submission.ValidEmail(c.Email) {
		return nil, &InvalidRecipientError{Address: c.Email}
	}

	// Started cycles run to completion; only per-call timeouts bound them.
	ctx = context.WithoutCancel(ctx)
	corr := id.NewCorrelationID(PrefixContact)
	data := contactData{
		CorrelationID: corr,
		Contact:       c,
		FullName:      c.FullName(),
		Company:       d.company,
		ReceivedAt:    formatTime(d.clock()),
	}

	tags := mailer.Tags{"kind": string(submission.KindContact)}
	company := d.deliver(ctx, corr, RoleCompany, d.cfg.CompanyInbox, c.Email, tmplCompanyContact, data, tags, nil)
	customer := d.deliver(ctx, corr, RoleCustomer, c.Email, d.cfg.CompanyInbox, tmplCustomerContact, data, tags, nil)

	return d.complete(ctx, corr, submission.KindContact, nil, company, customer), nil
}

// ProcessConfiguration renders the document (best-effort), notifies the
// company and confirms to the customer, attaching the document when available.
func (d *Dispatcher) ProcessConfiguration(ctx context.Context, cfg submission.Configuration) (*Result, error) {
	if !submission.ValidEmail(cfg.Contact.Email) {
		return nil, &InvalidRecipientError{Address: cfg.Contact.Email}
	}

	ctx = context.WithoutCancel(ctx)
	corr := id.NewCorrelationID(PrefixConfiguration)
	doc := d.renderDocument(ctx, corr, cfg)

	var attachments []mailer.Attachment
	data := configurationData{
		CorrelationID: corr,
		Summary:       document.Summarize(cfg),
		Company:       d.company,
		ReceivedAt:    formatTime(d.clock()),
	}
	if doc != nil {
		attachments = []mailer.Attachment{{Filename: doc.Filename, ContentType: doc.ContentType, Content: doc.Content}}
		data.DocumentName = doc.Filename
		data.DocumentPath = doc.Path
	}

	tags := mailer.Tags{"kind": string(submission.KindConfiguration)}
	company := d.deliver(ctx, corr, RoleCompany, d.cfg.CompanyInbox, cfg.Contact.Email, tmplCompanyConfiguration, data, tags, attachments)
	customer := d.deliver(ctx, corr, RoleCustomer, cfg.Contact.Email, d.cfg.CompanyInbox, tmplCustomerConfiguration, data, tags, attachments)

	return d.complete(ctx, corr, submission.KindConfiguration, doc, company, customer), nil
}

func (d *Dispatcher) renderDocument(ctx context.Context, corr string, cfg submission.Configuration) *document.Document {
	if d.documents == nil {
		return nil
	}

	if d.cfg.RenderTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.cfg.RenderTimeout)
		defer cancel()
	}

	doc, err := d.documents.Render(ctx, cfg)
	if err != nil {
		d.sink.Emit(ctx, EventDocumentFailed,
			slog.String("correlation_id", corr),
			slog.String("error", err.Error()),
		)
		return nil
	}

	d.sink.Emit(ctx, EventDocumentGenerated,
		slog.String("correlation_id", corr),
		slog.String("filename", doc.Filename),
		slog.Int("size", doc.Size),
	)

	if d.archive != nil {
		d.archiveDocument(ctx, corr, doc)
	}
	return doc
}

// archiveDocument is best-effort; a failure leaves doc.Path empty.
func (d *Dispatcher) archiveDocument(ctx context.Context, corr string, doc *document.Document) {
	if d.cfg.ArchiveTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.cfg.ArchiveTimeout)
		defer cancel()
	}

	key := d.archive.Key(doc.CreatedAt, corr, doc.Filename)
	path, err := d.archive.Put(ctx, key, doc.Content, doc.ContentType)
	if err != nil {
		d.sink.Emit(ctx, EventDocumentArchiveFailed,
			slog.String("correlation_id", corr),
			slog.String("error", err.Error()),
		)
		return
	}

	doc.Path = path
	d.sink.Emit(ctx, EventDocumentArchived,
		slog.String("correlation_id", corr),
		slog.String("path", path),
	)
}

func (d *Dispatcher) deliver(
	ctx context.Context,
	corr string,
	role Role,
	to, replyTo, tmpl string,
	data any,
	tags mailer.Tags,
	attachments []mailer.Attachment,
) Outcome {
	outcome := Outcome{Recipient: to, Role: role}

	receipt, err := d.send(ctx, corr, role, to, replyTo, tmpl, data, tags, attachments)
	if err != nil {
		outcome.Detail = err.Error()
		d.sink.Emit(ctx, EventMessageFailed,
			slog.String("correlation_id", corr),
			slog.String("role", string(role)),
			slog.String("recipient", to),
			slog.String("error", outcome.Detail),
		)
		return outcome
	}

	outcome.Delivered = true
	outcome.MessageID = receipt.MessageID
	outcome.Detail = "delivered"
	if receipt.Simulated {
		outcome.Detail = "simulated"
	}
	d.sink.Emit(ctx, EventMessageDelivered,
		slog.String("correlation_id", corr),
		slog.String("role", string(role)),
		slog.String("recipient", to),
		slog.String("message_id", receipt.MessageID),
		slog.Bool("simulated", receipt.Simulated),
	)
	return outcome
}

func (d *Dispatcher) send(
	ctx context.Context,
	corr string,
	role Role,
	to, replyTo, tmpl string,
	data any,
	tags mailer.Tags,
	attachments []mailer.Attachment,
) (*mailer.Receipt, error) {
	if to == "" {
		return nil, ErrCompanyInboxMissing
	}

	msg, err := d.emails.Render(tmpl, data)
	if err != nil {
		return nil, fmt.Errorf("compose: %w", err)
	}

	email := &mailer.Email{
		From:        d.cfg.From,
		To:          []string{to},
		ReplyTo:     replyTo,
		Subject:     msg.Subject,
		HTML:        msg.HTML,
		Text:        msg.Text,
		Headers:     map[string]string{headerCorrelationID: corr},
		Tags:        withRole(tags, role),
		Attachments: attachments,
	}

	if d.cfg.SendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.cfg.SendTimeout)
		defer cancel()
	}

	receipt, err := d.transport.Send(ctx, email)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("timeout after %s: %w", d.cfg.SendTimeout, err)
		}
		return nil, err
	}
	if receipt == nil {
		receipt = &mailer.Receipt{}
	}
	return receipt, nil
}

func (d *Dispatcher) complete(ctx context.Context, corr string, kind submission.Kind, doc *document.Document, outcomes ...Outcome) *Result {
	res := &Result{
		CorrelationID:    corr,
		Outcomes:         outcomes,
		DocumentAttached: doc != nil,
		Document:         doc,
		Degraded:         d.degraded,
	}
	delivered := 0
	for _, o := range outcomes {
		if o.Delivered {
			res.OverallSuccess = true
			delivered++
		}
	}

	d.sink.Emit(ctx, EventCompleted,
		slog.String("correlation_id", corr),
		slog.String("kind", string(kind)),
		slog.Bool("overall_success", res.OverallSuccess),
		slog.Int("delivered", delivered),
		slog.Int("failed", len(outcomes)-delivered),
		slog.Bool("document_attached", res.DocumentAttached),
		slog.Bool("degraded", res.Degraded),
	)
	return res
}

func withRole(tags mailer.Tags, role Role) mailer.Tags {
	out := make(mailer.Tags, len(tags)+1)
	for k, v := range tags {
		out[k] = v
	}
	out["role"] = string(role)
	return out
}

func formatTime(t time.Time) string {
	return t.Format("02.01.2006 15:04")
}

type contactData struct {
	Company       document.Company
	CorrelationID string
	FullName      string
	ReceivedAt    string
	Contact       submission.Contact
}

// UrgentPrefix marks urgent requests in the subject.
func (c contactData) UrgentPrefix() string {
	if c.Contact.Urgent {
		return "[DRINGEND] "
	}
	return ""
}

type configurationData struct {
	Company       document.Company
	CorrelationID string
	ReceivedAt    string
	DocumentName  string
	DocumentPath  string
	Summary       document.Summary
}
