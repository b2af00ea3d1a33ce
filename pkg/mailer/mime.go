package mailer

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/textproto"
	"sort"
	"strings"
	"time"

	"github.com/tech-artist89/mitra/pkg/id"
)

const base64LineLength = 76

// NewMessageID returns an RFC 5322 Message-ID using the domain of from.
func NewMessageID(from string) string {
	domain := "localhost"
	if at := strings.LastIndexByte(from, '@'); at >= 0 {
		domain = strings.Trim(from[at+1:], "> ")
	}
	return "<" + id.NewULID() + "@" + domain + ">"
}

// BuildMIME encodes e as an RFC 5322 message with a multipart/alternative
// body, wrapped in multipart/mixed when attachments are present.
func BuildMIME(e *Email, messageID string, date time.Time) ([]byte, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	if e.From == "" {
		return nil, ErrNoSender
	}

	var buf bytes.Buffer
	writeHeader(&buf, "From", encodeAddress(e.From))
	writeHeader(&buf, "To", strings.Join(mapStrings(e.To, encodeAddress), ", "))
	if e.ReplyTo != "" {
		writeHeader(&buf, "Reply-To", encodeAddress(e.ReplyTo))
	}
	writeHeader(&buf, "Subject", mime.QEncoding.Encode("utf-8", e.Subject))
	writeHeader(&buf, "Date", date.Format(time.RFC1123Z))
	writeHeader(&buf, "Message-ID", messageID)
	writeHeader(&buf, "MIME-Version", "1.0")

	keys := make([]string, 0, len(e.Headers))
	for k := range e.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		writeHeader(&buf, textproto.CanonicalMIMEHeaderKey(k), e.Headers[k])
	}

	if len(e.Attachments) == 0 {
		alt := multipart.NewWriter(&buf)
		writeHeader(&buf, "Content-Type", "multipart/alternative; boundary="+alt.Boundary())
		buf.WriteString("\r\n")
		if err := writeAlternativeParts(alt, e); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}

	mixed := multipart.NewWriter(&buf)
	writeHeader(&buf, "Content-Type", "multipart/mixed; boundary="+mixed.Boundary())
	buf.WriteString("\r\n")

	altHeader := textproto.MIMEHeader{}
	var alt bytes.Buffer
	altWriter := multipart.NewWriter(&alt)
	altHeader.Set("Content-Type", "multipart/alternative; boundary="+altWriter.Boundary())
	part, err := mixed.CreatePart(altHeader)
	if err != nil {
		return nil, err
	}
	if err := writeAlternativeParts(altWriter, e); err != nil {
		return nil, err
	}
	if _, err := part.Write(alt.Bytes()); err != nil {
		return nil, err
	}

	for _, a := range e.Attachments {
		if err := writeAttachment(mixed, a); err != nil {
			return nil, err
		}
	}
	if err := mixed.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeAlternativeParts(w *multipart.Writer, e *Email) error {
	if e.Text != "" {
		if err := writeQuotedPrintable(w, "text/plain; charset=utf-8", e.Text); err != nil {
			return err
		}
	}
	if e.HTML != "" {
		if err := writeQuotedPrintable(w, "text/html; charset=utf-8", e.HTML); err != nil {
			return err
		}
	}
	return w.Close()
}

func writeQuotedPrintable(w *multipart.Writer, contentType, body string) error {
	h := textproto.MIMEHeader{}
	h.Set("Content-Type", contentType)
	h.Set("Content-Transfer-Encoding", "quoted-printable")
	part, err := w.CreatePart(h)
	if err != nil {
		return err
	}
	qp := quotedprintable.NewWriter(part)
	if _, err := qp.Write([]byte(body)); err != nil {
		return err
	}
	return qp.Close()
}

func writeAttachment(w *multipart.Writer, a Attachment) error {
	filename := sanitizeHeader(a.Filename)
	mediaType, params, err := mime.ParseMediaType(a.ContentType)
	if err != nil {
		mediaType, params = "application/octet-stream", map[string]string{}
	}
	params["name"] = filename

	h := textproto.MIMEHeader{}
	h.Set("Content-Type", mime.FormatMediaType(mediaType, params))
	h.Set("Content-Transfer-Encoding", "base64")
	h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	part, err := w.CreatePart(h)
	if err != nil {
		return err
	}

	encoded := base64.StdEncoding.EncodeToString(a.Content)
	for len(encoded) > base64LineLength {
		if _, err := fmt.Fprintf(part, "%s\r\n", encoded[:base64LineLength]); err != nil {
			return err
		}
		encoded = encoded[base64LineLength:]
	}
	_, err = fmt.Fprintf(part, "%s\r\n", encoded)
	return err
}

func writeHeader(buf *bytes.Buffer, key, value string) {
	buf.WriteString(key)
	buf.WriteString(": ")
	buf.WriteString(sanitizeHeader(value))
	buf.WriteString("\r\n")
}

// sanitizeHeader strips CR and LF to prevent header injection.
func sanitizeHeader(s string) string {
	return strings.NewReplacer("\r", "", "\n", "").Replace(s)
}

// encodeAddress Q-encodes the display name of "Name <addr>" when needed.
func encodeAddress(addr string) string {
	addr = sanitizeHeader(addr)
	lt := strings.LastIndexByte(addr, '<')
	if lt <= 0 {
		return addr
	}
	name := strings.TrimSpace(addr[:lt])
	return mime.QEncoding.Encode("utf-8", name) + " " + addr[lt:]
}

func mapStrings(in []string, fn func(string) string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = fn(s)
	}
	return out
}
