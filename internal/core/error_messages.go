package core

// error_messages.go maps technical errors to coded messages for API clients.
//
// Clients quote the code to support staff. Codes by category:
//
//	DB001   Duplicate key          "duplicate key"
//	DB002   Unique constraint      "unique constraint", "violates unique"
//	DB004   Connection refused     "connection refused"
//	DB005   Connection reset       "connection reset"
//	DB006   Timeout                "timeout"
//	DB007   Deadlock               "deadlock"
//	VAL001  Invalid birth date     "birthdate"
//	VAL003  Required field         "required"
//	VAL007  Invalid email          "email"
//	VAL008  Invalid option         "invalid option"
//	FILE001 File too large         "file too large"
//	FILE005 Empty file             "empty file"
//	FILE002 Invalid CSV            "invalid csv"
//	FILE004 No file                "no file provided"
//	FILE006 Wrong extension        "unsupported file extension"
//	FILE007 Not a text file        "not text"
//	TEN001  Tenant not found       "tenant not found"
//	TEN002  Invalid tenant id      "invalid tenant id"
//	EXP001  Nothing to export      "no patients to export"
//	EXP002  Unknown export format  "unknown export format"
//	UPL002  System busy            "too many imports"
//	UPL004  Request cancelled      "context canceled"
//	UPL005  Request timeout        "context deadline exceeded"
//	RATE001 Rate limited           "rate limit"
//	ERR000  Anything else
//
// Matching is case-insensitive strings.Contains and the first match wins, so
// specific patterns sit above general ones ("context deadline exceeded"
// before "timeout", "empty file" before "invalid csv").

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// File errors
	{"file too large", UserMessage{"File exceeds the maximum import size (5MB)", "Split the roster into smaller files", "FILE001"}},
	{"empty file", UserMessage{"The uploaded file is empty", "Upload a file with a header row and at least one patient", "FILE005"}},
	{"invalid csv", UserMessage{"File is not a valid CSV", "Export the spreadsheet again as CSV and check quoting", "FILE002"}},
	{"no file provided", UserMessage{"No file was selected", "Attach a .csv or .txt roster in the 'file' field", "FILE004"}},
	{"unsupported file extension", UserMessage{"Only .csv and .txt files are accepted", "Save the spreadsheet as CSV before importing", "FILE006"}},
	{"not text", UserMessage{"File content is not plain text", "Upload the CSV export, not the original spreadsheet", "FILE007"}},

	// Tenant and export
	{"tenant not found", UserMessage{"Clinic not found", "Check the clinic identifier", "TEN001"}},
	{"invalid tenant id", UserMessage{"Clinic identifier is malformed", "Use only letters, digits, dashes and underscores", "TEN002"}},
	{"no patients to export", UserMessage{"There are no patients to export", "Import or create patients first", "EXP001"}},
	{"unknown export format", UserMessage{"Export format not supported", "Use format=csv or format=xlsx", "EXP002"}},

	// Request lifecycle; must precede the generic "timeout" pattern
	{"too many imports", UserMessage{"System is busy processing other imports", "Please wait a moment and try again", "UPL002"}},
	{"context canceled", UserMessage{"Request was cancelled", "Please try again", "UPL004"}},
	{"context deadline exceeded", UserMessage{"Request timed out", "Try a smaller file or check your connection", "UPL005"}},
	{"rate limit", UserMessage{"Too many requests", "Please wait a moment before trying again", "RATE001"}},

	// Option and row validation
	{"invalid option", UserMessage{"Unknown import option", "duplicateStrategy: skip|update, duplicateField: email|documentId|both", "VAL008"}},
	{"birthdate", UserMessage{"Invalid birth date", "Use YYYY-MM-DD or DD/MM/YYYY", "VAL001"}},
	{"required", UserMessage{"Required field is empty", "Every patient needs a name", "VAL003"}},
	{"email", UserMessage{"Invalid email address", "Check the email column", "VAL007"}},

	// Storage
	{"duplicate key", UserMessage{"A patient with this ID already exists", "Re-run the import; existing rows are skipped", "DB001"}},
	{"unique constraint", UserMessage{"This value must be unique but already exists", "Check for repeated emails or documents", "DB002"}},
	{"violates unique", UserMessage{"A duplicate value was found", "Check for repeated emails or documents", "DB002"}},
	{"connection refused", UserMessage{"Unable to connect to database", "Please try again in a few moments", "DB004"}},
	{"connection reset", UserMessage{"Database connection was interrupted", "Please try again", "DB005"}},
	{"timeout", UserMessage{"Operation timed out", "Try again later", "DB006"}},
	{"deadlock", UserMessage{"Database was busy with conflicting operations", "Please try again", "DB007"}},
}

// defaultMessage is the ERR000 fallback. Support staff should check the
// server logs for the technical error.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
//
//	msg := MapError(&FileError{Name: "r.xls", Err: ErrUnsupportedExtension})
//	// msg.Code == "FILE006"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError renders "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matched a known pattern rather than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user message.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err and keeps the original for logging. Returns nil for nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
