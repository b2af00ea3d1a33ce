package notify

import (
	"errors"
	"fmt"
)

// ErrInvalidRecipient indicates the customer address failed syntax validation.
// No message is sent in that case.
var ErrInvalidRecipient = errors.New("notify: invalid recipient")

// ErrCompanyInboxMissing is recorded when no company inbox is configured.
var ErrCompanyInboxMissing = errors.New("notify: company inbox not configured")

// InvalidRecipientError carries the rejected address.
type InvalidRecipientError struct {
	Address string
}

func (e *InvalidRecipientError) Error() string {
	return fmt.Sprintf("notify: invalid recipient address %q", e.Address)
}

func (e *InvalidRecipientError) Unwrap() error { return ErrInvalidRecipient }
