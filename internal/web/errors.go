package web

// errors.go provides unified error response handling for the web layer.
//
// The error flow:
//  1. Handler encounters an error
//  2. Calls respondError(w, r, err)
//  3. Error is mapped via core.MapError to a user message and code
//  4. The code picks the HTTP status
//  5. Technical error is logged with the request id, the user message is
//     rendered as JSON or, for HTMX requests, as an HTML fragment

import (
	"errors"
	"net/http"
	"strings"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/csvmigrate/internal/core"
	"github.com/JonMunkholm/csvmigrate/internal/logging"
	"github.com/JonMunkholm/csvmigrate/internal/web/templates"
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// statusForCode maps an error code to an HTTP status.
func statusForCode(code string) int {
	switch code {
	case "ADP001":
		return http.StatusNotFound
	case "FILE002", "FILE003", "FILE004", "FILE005", "HDR001", "ADP002":
		return http.StatusBadRequest
	case "LKP001":
		return http.StatusUnprocessableEntity
	case "UPL001":
		return http.StatusRequestTimeout
	case "UPL002":
		return http.StatusServiceUnavailable
	case "RATE001":
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// statusFor refines statusForCode for errors sharing a code.
func statusFor(err error, code string) int {
	var mbe *http.MaxBytesError
	if errors.Is(err, core.ErrFileTooLarge) || errors.As(err, &mbe) {
		return http.StatusRequestEntityTooLarge
	}
	if code == "FILE001" {
		return http.StatusBadRequest
	}
	return statusForCode(code)
}

// respondError logs err and writes the user-facing message.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	userMsg := core.MapError(err)
	status := statusFor(err, userMsg.Code)

	log := logging.FromContext(r.Context())
	args := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", userMsg.Code,
	}
	if status >= http.StatusInternalServerError {
		log.Error("request error", args...)
	} else {
		log.Warn("request error", args...)
	}

	if isHTMX(r) {
		templ.Handler(
			templates.ErrorAlert(userMsg.Message, userMsg.Action, userMsg.Code),
			templ.WithStatus(status),
		).ServeHTTP(w, r)
		return
	}

	writeJSON(w, r, status, ErrorResponse{
		Error:   errorText(err),
		Message: userMsg.Message,
		Action:  userMsg.Action,
		Code:    userMsg.Code,
	})
}

// errorText is the technical message exposed to API clients. Fatal batch
// errors are meant for operators; anything else is reduced to the user
// message to avoid leaking internals.
func errorText(err error) string {
	var fe *core.FatalError
	if errors.As(err, &fe) || errors.Is(err, errRateLimited) || errors.Is(err, core.ErrTooManyMigrations) {
		return err.Error()
	}
	return core.MapError(err).Message
}

// isHTMX checks if the request is an HTMX request.
func isHTMX(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("HX-Request"), "true")
}
