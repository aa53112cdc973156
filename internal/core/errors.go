package core

import (
	"errors"
	"fmt"
)

// File-level failures. Any of these stops an import before a single row is
// looked at.
var (
	ErrFileTooLarge         = errors.New("file too large")
	ErrEmptyFile            = errors.New("empty file")
	ErrUnsupportedExtension = errors.New("unsupported file extension")
	ErrNotText              = errors.New("file content is not text")
	ErrNoDataRows           = errors.New("empty file: no data rows")
)

var (
	// ErrNothingToExport is returned when a tenant has no patients.
	ErrNothingToExport = errors.New("no patients to export")

	ErrInvalidTenantID     = errors.New("invalid tenant id")
	ErrUnknownExportFormat = errors.New("unknown export format")
)

// FileError reports a problem with the uploaded file itself.
type FileError struct {
	Name string
	Err  error
}

func (e *FileError) Error() string {
	if e.Name == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Name, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

// ParseError means the file could not be split into rows.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("invalid csv at line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("invalid csv: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// OptionError reports an unknown import option value.
type OptionError struct {
	Name  string
	Value string
}

func (e *OptionError) Error() string {
	return fmt.Sprintf("invalid option %s=%q", e.Name, e.Value)
}

// IsFileLevel reports whether err aborted an import before row processing.
func IsFileLevel(err error) bool {
	var fe *FileError
	var pe *ParseError
	var oe *OptionError
	return errors.As(err, &fe) || errors.As(err, &pe) || errors.As(err, &oe) ||
		errors.Is(err, ErrTenantNotFound) || errors.Is(err, ErrInvalidTenantID)
}
