// Package apperr defines the error taxonomy shared by services and handlers.
// Errors are samber/oops errors tagged with one of the codes below; the code
// decides the HTTP status and the error text is the public message.
package apperr

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/samber/oops"
)

// Error codes.
const (
	CodeValidation   = "VALIDATION"    // missing or malformed input
	CodeConflict     = "CONFLICT"      // duplicate account
	CodeAuth         = "UNAUTHORIZED"  // bad credentials or missing/invalid session
	CodeInvalidToken = "INVALID_TOKEN" // bad, expired or consumed reset token
	CodeConfig       = "CONFIG"        // missing server-side secret
	CodeDelivery     = "DELIVERY"      // mail send failed
	CodeUpstream     = "UPSTREAM"      // external AI call failed
)

const internalMessage = "Internal server error"

var statusByCode = map[string]int{
	CodeValidation:   http.StatusBadRequest,
	CodeConflict:     http.StatusBadRequest,
	CodeAuth:         http.StatusUnauthorized,
	CodeInvalidToken: http.StatusBadRequest,
	CodeConfig:       http.StatusInternalServerError,
	CodeDelivery:     http.StatusInternalServerError,
	CodeUpstream:     http.StatusInternalServerError,
}

func Validation(msg string) error   { return oops.Code(CodeValidation).Errorf("%s", msg) }
func Conflict(msg string) error     { return oops.Code(CodeConflict).Errorf("%s", msg) }
func Auth(msg string) error         { return oops.Code(CodeAuth).Errorf("%s", msg) }
func InvalidToken(msg string) error { return oops.Code(CodeInvalidToken).Errorf("%s", msg) }
func Config(msg string) error       { return oops.Code(CodeConfig).Errorf("%s", msg) }

// Delivery wraps a mail transport failure.  The public message is msg; the
// cause stays available to logs through the oops chain.
func Delivery(msg string, cause error) error {
	return oops.Code(CodeDelivery).With("cause", cause.Error()).Errorf("%s", msg)
}

// Upstream wraps a failure of the external AI call.  The cause is part of
// the public message.
func Upstream(cause error) error {
	return oops.Code(CodeUpstream).Wrapf(cause, "AI error")
}

// Code returns the taxonomy code carried by err, or "" when there is none.
func Code(err error) string {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}
	code := fmt.Sprint(oopsErr.Code())
	if _, known := statusByCode[code]; !known {
		return ""
	}
	return code
}

// Is reports whether err carries the given code.
func Is(err error, code string) bool {
	return err != nil && Code(err) == code
}

// Status maps err to an HTTP status code.
func Status(err error) int {
	if status, ok := statusByCode[Code(err)]; ok {
		return status
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return http.StatusInternalServerError
}

// Message returns the human-readable message for the response body.
// Errors outside the taxonomy never leak their text.
func Message(err error) string {
	if Code(err) != "" {
		return err.Error()
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if s, ok := he.Message.(string); ok {
			return s
		}
		return http.StatusText(he.Code)
	}
	return internalMessage
}

// Log writes err with its oops code and context when present.
func Log(logger *slog.Logger, msg string, err error) {
	if oopsErr, ok := oops.AsOops(err); ok {
		attrs := []any{"error", oopsErr.Error()}
		if code := oopsErr.Code(); code != nil && code != "" {
			attrs = append(attrs, "code", code)
		}
		if ctx := oopsErr.Context(); len(ctx) > 0 {
			attrs = append(attrs, "context", ctx)
		}
		logger.Error(msg, attrs...)
		return
	}
	logger.Error(msg, "error", err)
}

// HTTPErrorHandler renders every error reaching echo as {"message": ...}.
// Server-side failures are logged; client errors are not.
func HTTPErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status := Status(err)
		if status >= http.StatusInternalServerError {
			Log(logger, "request failed", err)
		}
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, echo.Map{"message": Message(err)})
	}
}
