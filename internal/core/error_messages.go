// Package core provides the row transformation pipeline shared by every
// migration adapter.
//
// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support reference.
// When a batch aborts, the error JSON carries the code so operators can look it
// up here without digging through logs.
//
// Error codes are grouped by category:
//
// # File Errors (FILE001-FILE099)
//
// Errors related to reading and tokenizing the input file:
//
//	FILE001 - Unreadable input: The input file could not be opened or read
//	          Action: Check the path and file permissions
//	          Patterns: "file too large", "no such file", "unreadable input"
//
//	FILE002 - Invalid CSV: File is not a valid CSV
//	          Action: Ensure file is comma-separated with double-quote quoting
//	          Patterns: "invalid csv"
//
//	FILE003 - Encoding error: File contains invalid characters
//	          Action: Save file as UTF-8 encoding
//	          Patterns: "encoding error"
//
//	FILE004 - No file: No file was selected
//	          Action: Please select a CSV file to migrate
//	          Patterns: "no file provided"
//
//	FILE005 - Empty file: The file has no data rows
//	          Action: Provide a header line and at least one data line
//	          Patterns: "empty or malformed"
//
// # Header Errors (HDR001-HDR099)
//
//	HDR001 - Missing columns: Required columns are missing from the header
//	         Action: Compare the header against `migrate template <adapter>`
//	         Patterns: "missing required columns"
//
// # Adapter Errors (ADP001-ADP099)
//
//	ADP001 - Unknown adapter: No adapter is registered under this key
//	         Action: Run `migrate list` to see the available adapters
//	         Patterns: "unknown adapter"
//
//	ADP002 - Unsupported mode: The adapter does not support this mode
//	         Action: Use one of the modes listed by `migrate list`
//	         Patterns: "does not support"
//
// # Lookup Errors (LKP001-LKP099)
//
//	LKP001 - Lookup unreadable: An auxiliary lookup file exists but cannot be read
//	         Action: Check the lookup file path and its header
//	         Patterns: "lookup source"
//
// # Output Errors (OUT001-OUT099)
//
//	OUT001 - Serialization failure: The payload or a side file could not be written
//	         Action: Check free disk space and the audit directory permissions
//	         Patterns: "write payload", "write report"
//
// # Upload Errors (UPL001-UPL099)
//
// Errors related to the HTTP front end:
//
//	UPL001 - Migration cancelled: The request was cancelled before the batch finished
//	         Action: Start a new migration when ready
//	         Patterns: "migration cancelled", "context canceled"
//
//	UPL002 - System busy: Too many migrations in progress
//	         Action: Please wait a moment and try again
//	         Patterns: "too many migrations"
//
// # Rate Limiting (RATE001-RATE099)
//
//	RATE001 - Rate limited: Too many requests
//	          Action: Please wait a moment before trying again
//	          Patterns: "rate limit"
//
// # Default Error (ERR000)
//
// Fallback when no specific pattern matches:
//
//	ERR000 - Unknown error: An unexpected error occurred
//	         Action: Please try again or contact support
//
// # Pattern Matching
//
// Error patterns are matched case-insensitively using strings.Contains.
// The first matching pattern wins, so more specific patterns should be
// defined before general ones. A FatalError carries its code explicitly and
// bypasses pattern matching.
package core

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

var (
	msgUnreadable = UserMessage{
		Message: "The input file could not be read",
		Action:  "Check the path and file permissions",
		Code:    "FILE001",
	}
	msgCancelled = UserMessage{
		Message: "Migration was cancelled",
		Action:  "Start a new migration when ready",
		Code:    "UPL001",
	}
)

// errorPatterns maps technical error patterns (case-insensitive) to user messages.
// The first matching pattern wins, so order matters.
var errorPatterns = []errorPattern{
	// =========================================================================
	// File Errors (FILE001-FILE005)
	// =========================================================================
	{pattern: "no such file", msg: msgUnreadable},
	{pattern: "unreadable input", msg: msgUnreadable},
	{pattern: "file too large", msg: UserMessage{
		Message: "File exceeds maximum size limit",
		Action:  "Split the file into smaller chunks",
		Code:    "FILE001",
	}},
	{pattern: "invalid csv", msg: UserMessage{
		Message: "File is not a valid CSV",
		Action:  "Ensure file is comma-separated with double-quote quoting",
		Code:    "FILE002",
	}},
	{pattern: "encoding error", msg: UserMessage{
		Message: "File contains invalid characters",
		Action:  "Save file as UTF-8 encoding",
		Code:    "FILE003",
	}},
	{pattern: "no file provided", msg: UserMessage{
		Message: "No file was selected",
		Action:  "Please select a CSV file to migrate",
		Code:    "FILE004",
	}},
	{pattern: "empty or malformed", msg: UserMessage{
		Message: "The file has no data rows",
		Action:  "Provide a header line and at least one data line",
		Code:    "FILE005",
	}},

	// =========================================================================
	// Header, adapter and lookup errors
	// =========================================================================
	{pattern: "missing required columns", msg: UserMessage{
		Message: "Required columns are missing from the header",
		Action:  "Compare the header against the adapter template",
		Code:    "HDR001",
	}},
	{pattern: "unknown adapter", msg: UserMessage{
		Message: "No adapter is registered under this key",
		Action:  "Run `migrate list` to see the available adapters",
		Code:    "ADP001",
	}},
	{pattern: "does not support", msg: UserMessage{
		Message: "The adapter does not support this mode",
		Action:  "Use one of the modes listed by `migrate list`",
		Code:    "ADP002",
	}},
	{pattern: "lookup source", msg: UserMessage{
		Message: "A lookup file could not be read",
		Action:  "Check the lookup file path and its header",
		Code:    "LKP001",
	}},

	// =========================================================================
	// Output Errors (OUT001)
	// =========================================================================
	{pattern: "write payload", msg: UserMessage{
		Message: "The payload could not be written",
		Action:  "Check free disk space and the audit directory permissions",
		Code:    "OUT001",
	}},
	{pattern: "write report", msg: UserMessage{
		Message: "An audit file could not be written",
		Action:  "Check free disk space and the audit directory permissions",
		Code:    "OUT001",
	}},

	// =========================================================================
	// Upload Errors (UPL001-UPL002)
	// =========================================================================
	{pattern: "migration cancelled", msg: msgCancelled},
	{pattern: "context canceled", msg: msgCancelled},
	{pattern: "too many migrations", msg: UserMessage{
		Message: "System is busy processing other migrations",
		Action:  "Please wait a moment and try again",
		Code:    "UPL002",
	}},

	// =========================================================================
	// Rate Limiting (RATE001)
	// =========================================================================
	{pattern: "rate limit", msg: UserMessage{
		Message: "Too many requests",
		Action:  "Please wait a moment before trying again",
		Code:    "RATE001",
	}},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// FatalError aborts a whole batch before (or instead of) row processing.
// Context is merged into the error JSON written to stdout.
type FatalError struct {
	Code    string
	Message string
	Context map[string]any
	Err     error
}

func (e *FatalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// JSON returns the error document: {"error": msg, "code": code, ...context}.
func (e *FatalError) JSON() map[string]any {
	out := make(map[string]any, len(e.Context)+2)
	for k, v := range e.Context {
		out[k] = v
	}
	out["error"] = e.Error()
	out["code"] = e.Code
	return out
}

// Fatal builds a FatalError wrapping err.
func Fatal(code, message string, err error) *FatalError {
	return &FatalError{Code: code, Message: message, Err: err}
}

// AsFatal returns err as a FatalError, mapping unknown errors through MapError.
func AsFatal(err error) *FatalError {
	var fe *FatalError
	if errors.As(err, &fe) {
		return fe
	}
	return &FatalError{Code: MapError(err).Code, Message: err.Error()}
}

// MapError converts a technical error to a user-friendly message.
// A FatalError's own code takes precedence over pattern matching.
//
// Example:
//
//	err := errors.New("CSV file is empty or malformed")
//	msg := MapError(err)
//	// msg.Code == "FILE005"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var fe *FatalError
	if errors.As(err, &fe) && fe.Code != "" {
		for _, ep := range errorPatterns {
			if ep.msg.Code == fe.Code {
				return ep.msg
			}
		}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern rather than the
// generic ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
