package core

// validation.go decides whether a resolved record may be persisted.
//
// Rules run in a fixed order and stop at the first failure, so a row is
// reported with exactly one reason. Every message names the offending field.

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// MaxPatientAge is the oldest birth date accepted, in years before today.
const MaxPatientAge = 150

// minNameLength is counted in characters, not bytes.
const minNameLength = 2

var validate = validator.New()

// ValidationError represents a single rejected field.
type ValidationError struct {
	Field   string // Canonical field name
	Value   string // The rejected input
	Message string // Human-readable reason
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// RowValidator checks canonical records. The zero value uses the wall clock.
type RowValidator struct {
	now func() time.Time
}

// NewRowValidator returns a validator using now as its clock. A nil now
// falls back to time.Now.
func NewRowValidator(now func() time.Time) *RowValidator {
	return &RowValidator{now: now}
}

// Validate returns nil for a valid record or the first ValidationError.
func (v *RowValidator) Validate(rec CanonicalRecord) *ValidationError {
	if rec.Name == "" {
		return &ValidationError{Field: FieldName, Message: "name is required"}
	}
	if utf8.RuneCountInString(rec.Name) < minNameLength {
		return &ValidationError{Field: FieldName, Value: rec.Name,
			Message: fmt.Sprintf("name must have at least %d characters", minNameLength)}
	}

	if rec.Email != "" {
		if err := validate.Var(rec.Email, "email"); err != nil {
			return &ValidationError{Field: FieldEmail, Value: rec.Email,
				Message: fmt.Sprintf("invalid email address %q", rec.Email)}
		}
	}

	if rec.BirthDateRaw != "" {
		if err := v.checkBirthDate(rec); err != nil {
			return err
		}
	}

	if rec.GenderRaw != "" && rec.Gender == "" {
		return &ValidationError{Field: FieldGender, Value: rec.GenderRaw,
			Message: fmt.Sprintf("unrecognized gender %q", rec.GenderRaw)}
	}

	return nil
}

func (v *RowValidator) checkBirthDate(rec CanonicalRecord) *ValidationError {
	if rec.BirthDate == nil {
		return &ValidationError{Field: FieldBirthDate, Value: rec.BirthDateRaw,
			Message: fmt.Sprintf("invalid birthDate %q, use YYYY-MM-DD or DD/MM/YYYY", rec.BirthDateRaw)}
	}

	now := v.clock().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if rec.BirthDate.After(today) {
		return &ValidationError{Field: FieldBirthDate, Value: rec.BirthDateRaw,
			Message: "birthDate is in the future"}
	}
	if rec.BirthDate.Before(today.AddDate(-MaxPatientAge, 0, 0)) {
		return &ValidationError{Field: FieldBirthDate, Value: rec.BirthDateRaw,
			Message: fmt.Sprintf("birthDate is more than %d years ago", MaxPatientAge)}
	}
	return nil
}

func (v *RowValidator) clock() time.Time {
	if v == nil || v.now == nil {
		return time.Now()
	}
	return v.now()
}
