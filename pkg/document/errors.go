package document

import (
	"errors"
	"fmt"
)

var (
	// ErrRenderFailed indicates the document could not be produced.
	ErrRenderFailed = errors.New("document: render failed")

	// ErrEmptyDocument indicates the engine returned no bytes.
	ErrEmptyDocument = errors.New("document: engine returned empty output")
)

// RenderError reports a failed render for a specific document.
type RenderError struct {
	Err      error
	Filename string
	Stage    string // "template" or "engine"
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("document: %s failed for %s: %v", e.Stage, e.Filename, e.Err)
}

// Unwrap exposes both ErrRenderFailed and the cause to errors.Is.
func (e *RenderError) Unwrap() []error {
	return []error{ErrRenderFailed, e.Err}
}
