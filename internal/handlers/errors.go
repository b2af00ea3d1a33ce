package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/tech-artist89/mitra/internal/server"
	"github.com/tech-artist89/mitra/middlewares"
)

var (
	// ErrMalformedPayload is returned when the body is not valid JSON.
	ErrMalformedPayload = errors.New("malformed JSON payload")
	// ErrUnsupportedContentType is returned for non-JSON request bodies.
	ErrUnsupportedContentType = errors.New("unsupported content type")
)

// Response is the JSON envelope of every API answer.
type Response struct {
	Errors           any    `json:"errors,omitempty"`
	Message          string `json:"message"`
	CorrelationID    string `json:"correlationId,omitempty"`
	Code             string `json:"code,omitempty"`
	RequestID        string `json:"requestId,omitempty"`
	Success          bool   `json:"success"`
	DocumentAttached bool   `json:"documentAttached,omitempty"`
	Degraded         bool   `json:"degraded,omitempty"`
}

const internalErrorMessage = "Es ist ein interner Fehler aufgetreten. Bitte versuchen Sie es später erneut."

// ErrorHandler renders errors as Response with success=false.
// Server-side failures are logged; client errors only at debug level.
func ErrorHandler(c server.Context, err error) error {
	status, resp := errorResponse(err)
	resp.RequestID = middlewares.GetRequestID(c)

	if status >= http.StatusInternalServerError {
		c.LogError("request failed", slog.Int("status", status), slog.Any("error", err))
	} else {
		c.LogDebug("request rejected", slog.Int("status", status), slog.Any("error", err))
	}

	return c.JSON(status, resp)
}

func errorResponse(err error) (int, Response) {
	if he := server.AsHTTPError(err); he != nil {
		return he.StatusCode(), Response{Message: he.Message, Code: he.ErrorCode, Errors: he.Details}
	}
	if _, ok := middlewares.AsPanicError(err); ok {
		return http.StatusInternalServerError, Response{Message: internalErrorMessage, Code: "internal_error"}
	}
	if _, ok := middlewares.AsTimeoutError(err); ok {
		return http.StatusGatewayTimeout, Response{
			Message: "Die Anfrage hat zu lange gedauert. Bitte versuchen Sie es erneut.",
			Code:    "timeout",
		}
	}
	if errors.Is(err, server.ErrBodyTooLarge) {
		return http.StatusRequestEntityTooLarge, Response{Message: "Die Anfrage ist zu groß.", Code: "payload_too_large"}
	}
	return http.StatusInternalServerError, Response{Message: internalErrorMessage, Code: "internal_error"}
}

// NotFound answers unknown routes.
func NotFound(c server.Context) error {
	return server.ErrNotFound("Die angeforderte Ressource existiert nicht.", server.WithErrorCode("not_found"))
}

// MethodNotAllowed answers known routes called with the wrong method.
func MethodNotAllowed(c server.Context) error {
	return server.ErrMethodNotAllowed("Diese Methode ist nicht erlaubt.", server.WithErrorCode("method_not_allowed"))
}
