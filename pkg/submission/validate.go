package submission

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	maxNameLength    = 100
	maxSubjectLength = 200
	maxMessageLength = 5000
	maxCommentLength = 5000
)

// FieldError describes a single invalid field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors collects field errors.
type ValidationErrors []FieldError

// IsEmpty reports whether no errors were collected.
func (v ValidationErrors) IsEmpty() bool { return len(v) == 0 }

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, e := range v {
		parts = append(parts, e.Field+": "+e.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (v *ValidationErrors) add(field, format string, args ...any) {
	*v = append(*v, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (v *ValidationErrors) required(field, value string) {
	if strings.TrimSpace(value) == "" {
		v.add(field, "is required")
	}
}

func (v *ValidationErrors) maxLen(field, value string, n int) {
	if utf8.RuneCountInString(value) > n {
		v.add(field, "must be at most %d characters", n)
	}
}

// Validate checks required fields and length limits.
// A contact submission with errors must not be dispatched.
func (c Contact) Validate() ValidationErrors {
	var errs ValidationErrors

	errs.required("firstName", c.FirstName)
	errs.required("lastName", c.LastName)
	errs.required("subject", c.Subject)
	errs.required("message", c.Message)
	errs.maxLen("firstName", c.FirstName, maxNameLength)
	errs.maxLen("lastName", c.LastName, maxNameLength)
	errs.maxLen("subject", c.Subject, maxSubjectLength)
	errs.maxLen("message", c.Message, maxMessageLength)

	if !ValidEmail(c.Email) {
		errs.add("email", "is not a valid email address")
	}

	return errs
}

// Validate reports inconsistencies in a configurator submission.
// The result is advisory: callers log it and continue. Only the recipient
// address is enforced, by the dispatcher.
func (c Configuration) Validate() ValidationErrors {
	var errs ValidationErrors

	errs.required("contact.firstName", c.Contact.FirstName)
	errs.required("contact.lastName", c.Contact.LastName)
	if !ValidEmail(c.Contact.Email) {
		errs.add("contact.email", "is not a valid email address")
	}
	if c.Data.BathroomSize < 0 {
		errs.add("configuration.bathroomSize", "must not be negative")
	}
	if c.Data.Quality.Name == "" {
		errs.add("configuration.quality", "no quality tier selected")
	}
	if len(c.Data.SelectedEquipment()) == 0 {
		errs.add("configuration.equipment", "no equipment selected")
	}
	errs.maxLen("comments", c.Comments, maxCommentLength)

	return errs
}
