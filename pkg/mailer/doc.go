// Package mailer defines the mail transport capability and renders email
// bodies from markdown templates.
//
// A [Sender] delivers a prepared [Email] and returns a [Receipt]. Transports
// that can check their connectivity without sending also implement [Prober].
// Concrete transports live in sub-packages: resend, smtp and ses. The
// transport sub-package picks one at startup and falls back to a simulated
// sender when none is usable.
//
// Templates are markdown files with YAML frontmatter:
//
//	---
//	Subject: Neue Kontaktanfrage: {{.Contact.Subject}}
//	---
//	**Von:** {{md .Contact.FirstName}} {{md .Contact.LastName}}
//
//	{{breaks .Contact.Message}}
//
// Every template is executed twice. For the HTML part, md and breaks escape
// markdown so user input renders literally, and the result goes through
// goldmark and the layout. For the text part the same functions return their
// input unchanged.
//
// [BuildMIME] encodes an Email as a raw RFC 5322 message for transports that
// speak SMTP or accept raw MIME.
package mailer
