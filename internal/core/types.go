// Package core implements the patient roster import and export pipeline.
// It has no transport dependencies and is driven by the web server and the
// rosterctl CLI alike.
package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"time"
)

// RawRow is one data row keyed by the file's own column headers, in file
// order. Line is the physical line the row starts on (header = line 1).
type RawRow struct {
	Line    int
	Headers []string
	Values  []string
}

// value returns the value under header h exactly as written in the file.
func (r RawRow) value(h string) (string, bool) {
	for i, name := range r.Headers {
		if name == h {
			if i < len(r.Values) {
				return r.Values[i], true
			}
			return "", true
		}
	}
	return "", false
}

// MarshalJSON encodes the row as an object keeping the file's column order.
// Short rows encode missing trailing cells as empty strings.
func (r RawRow) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, h := range r.Headers {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(h)
		if err != nil {
			return nil, err
		}
		var v string
		if i < len(r.Values) {
			v = r.Values[i]
		}
		val, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Canonical gender labels.
const (
	GenderMale   = "masculino"
	GenderFemale = "femenino"
	GenderOther  = "otro"
)

// CanonicalRecord is a RawRow mapped onto the patient schema. Empty strings
// mean the field was absent. BirthDateRaw and GenderRaw keep the original
// input so validation can reject values that were present but unusable.
type CanonicalRecord struct {
	Name                  string
	Email                 string
	Phone                 string
	BirthDate             *time.Time
	BirthDateRaw          string
	DocumentID            string
	Address               string
	City                  string
	Province              string
	Country               string
	Gender                string
	GenderRaw             string
	Notes                 string
	PreExistingConditions string
	ClientNumber          string
}

// Patient is a persisted roster entry.
type Patient struct {
	ID                    string
	TenantID              string
	Name                  string
	Email                 string
	Phone                 string
	BirthDate             *time.Time
	DocumentID            string
	Address               string
	City                  string
	Province              string
	Country               string
	Gender                string
	Notes                 string
	PreExistingConditions string
	ClientNumber          string
	CreatedAt             time.Time
}

// NewPatient copies a validated record into a Patient ready for Create.
func NewPatient(rec CanonicalRecord) *Patient {
	return &Patient{
		Name:                  rec.Name,
		Email:                 rec.Email,
		Phone:                 rec.Phone,
		BirthDate:             rec.BirthDate,
		DocumentID:            rec.DocumentID,
		Address:               rec.Address,
		City:                  rec.City,
		Province:              rec.Province,
		Country:               rec.Country,
		Gender:                rec.Gender,
		Notes:                 rec.Notes,
		PreExistingConditions: rec.PreExistingConditions,
		ClientNumber:          rec.ClientNumber,
	}
}

// Tenant is a clinic account. Patients are always scoped to one.
type Tenant struct {
	ID     string
	Name   string
	Active bool
}

// ImportError records why one row did not make it into the roster.
type ImportError struct {
	LineNumber int    `json:"linea"`
	RawData    RawRow `json:"datos"`
	Reason     string `json:"error"`
}

// ImportReport is the accounting for one import run.
// Succeeded + Failed + DuplicatesSkipped always equals TotalRows.
type ImportReport struct {
	TotalRows         int
	Succeeded         int
	Failed            int
	DuplicatesSkipped int
	CreatedIDs        []string
	Errors            []ImportError
	Elapsed           time.Duration
	DryRun            bool
	Message           string
}

// ImportSummary is the wire form of an ImportReport shared by the HTTP API
// and rosterctl --json. Keys follow the clinic API the rosters come from;
// tiempoProcesamiento is in milliseconds.
type ImportSummary struct {
	Success       bool          `json:"success"`
	Message       string        `json:"message"`
	TotalRows     int           `json:"totalProcesados"`
	Succeeded     int           `json:"exitosos"`
	Failed        int           `json:"errores"`
	Duplicates    int           `json:"duplicados"`
	Errors        []ImportError `json:"detallesErrores"`
	CreatedIDs    []string      `json:"pacientesCreados"`
	ElapsedMillis int64         `json:"tiempoProcesamiento"`
	DryRun        bool          `json:"dryRun"`
}

// Summary converts r for output. Lists are never null.
func (r *ImportReport) Summary() ImportSummary {
	errs := r.Errors
	if errs == nil {
		errs = []ImportError{}
	}
	ids := r.CreatedIDs
	if ids == nil {
		ids = []string{}
	}
	return ImportSummary{
		Success:       true,
		Message:       r.Message,
		TotalRows:     r.TotalRows,
		Succeeded:     r.Succeeded,
		Failed:        r.Failed,
		Duplicates:    r.DuplicatesSkipped,
		Errors:        errs,
		CreatedIDs:    ids,
		ElapsedMillis: r.Elapsed.Milliseconds(),
		DryRun:        r.DryRun,
	}
}

// DuplicateStrategy says what happens to a row that matches an existing patient.
type DuplicateStrategy string

const (
	DuplicateSkip DuplicateStrategy = "skip"
	// DuplicateUpdate is accepted but currently behaves like skip.
	DuplicateUpdate DuplicateStrategy = "update"
)

// DuplicateField selects the key used to find existing patients.
type DuplicateField string

const (
	MatchEmail      DuplicateField = "email"
	MatchDocumentID DuplicateField = "documentId"
	MatchBoth       DuplicateField = "both"
)

// Options control a single import run.
type Options struct {
	DuplicateStrategy DuplicateStrategy
	DuplicateField    DuplicateField
	DryRun            bool
}

// withDefaults fills unset options.
func (o Options) withDefaults() Options {
	if o.DuplicateStrategy == "" {
		o.DuplicateStrategy = DuplicateSkip
	}
	if o.DuplicateField == "" {
		o.DuplicateField = MatchEmail
	}
	return o
}

// Validate rejects option values outside the known sets.
func (o Options) Validate() error {
	o = o.withDefaults()
	switch o.DuplicateStrategy {
	case DuplicateSkip, DuplicateUpdate:
	default:
		return &OptionError{Name: "duplicateStrategy", Value: string(o.DuplicateStrategy)}
	}
	switch o.DuplicateField {
	case MatchEmail, MatchDocumentID, MatchBoth:
	default:
		return &OptionError{Name: "duplicateField", Value: string(o.DuplicateField)}
	}
	return nil
}

// ParseOptions builds Options from loosely typed transport values. Empty
// strings take the defaults.
func ParseOptions(strategy, field string, dryRun bool) (Options, error) {
	opts := Options{
		DuplicateStrategy: DuplicateStrategy(strategy),
		DuplicateField:    DuplicateField(field),
		DryRun:            dryRun,
	}
	if err := opts.Validate(); err != nil {
		return Options{}, err
	}
	return opts.withDefaults(), nil
}

// ErrTenantNotFound is returned by a TenantDirectory for unknown or inactive tenants.
var ErrTenantNotFound = errors.New("tenant not found")

// PatientStore persists patients. Implementations must scope every call to
// the given tenant.
type PatientStore interface {
	Create(ctx context.Context, p *Patient, tenantID string) (string, error)
	// FindMatching returns nil, nil when nothing matches. Email matches
	// ignore case.
	FindMatching(ctx context.Context, tenantID string, field DuplicateField, value string) (*Patient, error)
	ListAll(ctx context.Context, tenantID string) ([]*Patient, error)
}

// TenantDirectory resolves tenant identifiers.
type TenantDirectory interface {
	Resolve(ctx context.Context, tenantID string) (*Tenant, error)
}

// ContactNotifier receives newly created patients for downstream contact sync.
type ContactNotifier interface {
	Notify(ctx context.Context, p *Patient, tenantID string) error
}
