// Package sqlite stores patients in a single SQLite file. It backs the
// rosterctl CLI and small single-clinic deployments.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/JonMunkholm/clinicroster/internal/core"
)

const schema = `
CREATE TABLE IF NOT EXISTS tenants (
	id     TEXT PRIMARY KEY,
	name   TEXT NOT NULL,
	active INTEGER NOT NULL DEFAULT 1
);
CREATE TABLE IF NOT EXISTS patients (
	id                      TEXT PRIMARY KEY,
	tenant_id               TEXT NOT NULL,
	name                    TEXT NOT NULL,
	email                   TEXT,
	phone                   TEXT,
	birth_date              TEXT,
	document_id             TEXT,
	address                 TEXT,
	city                    TEXT,
	province                TEXT,
	country                 TEXT,
	gender                  TEXT,
	notes                   TEXT,
	pre_existing_conditions TEXT,
	client_number           TEXT,
	created_at              TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS patients_tenant_email ON patients (tenant_id, lower(email));
CREATE INDEX IF NOT EXISTS patients_tenant_document ON patients (tenant_id, document_id);
`

const dateLayout = "2006-01-02"

// Store is a core.PatientStore and core.TenantDirectory over SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

var (
	_ core.PatientStore    = (*Store)(nil)
	_ core.TenantDirectory = (*Store)(nil)
)

// Open creates the file and schema if needed.
func Open(path string) (*Store, error) {
	if path == "" {
		path = "roster.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer at a time; sqlite serializes anyway and this avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// UpsertTenant adds or replaces a tenant.
func (s *Store) UpsertTenant(ctx context.Context, t core.Tenant) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tenants (id, name, active) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, active = excluded.active`,
		t.ID, t.Name, boolToInt(t.Active))
	if err != nil {
		return fmt.Errorf("upsert tenant %s: %w", t.ID, err)
	}
	return nil
}

// Resolve implements core.TenantDirectory.
func (s *Store) Resolve(ctx context.Context, tenantID string) (*core.Tenant, error) {
	var t core.Tenant
	var active int
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, active FROM tenants WHERE id = ?`, tenantID,
	).Scan(&t.ID, &t.Name, &active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrTenantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select tenant: %w", err)
	}
	if active == 0 {
		return nil, core.ErrTenantNotFound
	}
	t.Active = true
	return &t, nil
}

// Create implements core.PatientStore.
func (s *Store) Create(ctx context.Context, p *core.Patient, tenantID string) (string, error) {
	id := uuid.New().String()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO patients (
			id, tenant_id, name, email, phone, birth_date, document_id,
			address, city, province, country, gender, notes,
			pre_existing_conditions, client_number, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, tenantID, p.Name, nullString(p.Email), nullString(p.Phone), nullDate(p.BirthDate),
		nullString(p.DocumentID), nullString(p.Address), nullString(p.City),
		nullString(p.Province), nullString(p.Country), nullString(p.Gender),
		nullString(p.Notes), nullString(p.PreExistingConditions), nullString(p.ClientNumber),
		s.now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fmt.Errorf("insert patient: %w", err)
	}
	return id, nil
}

const selectPatient = `
	SELECT id, tenant_id, name, email, phone, birth_date, document_id,
	       address, city, province, country, gender, notes,
	       pre_existing_conditions, client_number, created_at
	FROM patients`

// FindMatching implements core.PatientStore.
func (s *Store) FindMatching(ctx context.Context, tenantID string, field core.DuplicateField, value string) (*core.Patient, error) {
	var where string
	switch field {
	case core.MatchEmail:
		where = ` WHERE tenant_id = ? AND lower(email) = lower(?) LIMIT 1`
	case core.MatchDocumentID:
		where = ` WHERE tenant_id = ? AND document_id = ? LIMIT 1`
	default:
		return nil, fmt.Errorf("unsupported match field %q", field)
	}

	rows, err := s.db.QueryContext(ctx, selectPatient+where, tenantID, value)
	if err != nil {
		return nil, fmt.Errorf("find patient by %s: %w", field, err)
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanPatient(rows)
}

// ListAll implements core.PatientStore, in insertion order.
func (s *Store) ListAll(ctx context.Context, tenantID string) ([]*core.Patient, error) {
	rows, err := s.db.QueryContext(ctx, selectPatient+` WHERE tenant_id = ? ORDER BY rowid`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*core.Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanPatient(rows *sql.Rows) (*core.Patient, error) {
	var (
		p                                            core.Patient
		email, phone, birth, doc, addr, city, prov   sql.NullString
		country, gender, notes, conditions, clientNo sql.NullString
		created                                      string
	)
	if err := rows.Scan(&p.ID, &p.TenantID, &p.Name, &email, &phone, &birth, &doc,
		&addr, &city, &prov, &country, &gender, &notes, &conditions, &clientNo, &created); err != nil {
		return nil, fmt.Errorf("scan patient: %w", err)
	}
	p.Email, p.Phone, p.DocumentID = email.String, phone.String, doc.String
	p.Address, p.City, p.Province, p.Country = addr.String, city.String, prov.String, country.String
	p.Gender, p.Notes, p.PreExistingConditions, p.ClientNumber = gender.String, notes.String, conditions.String, clientNo.String
	if birth.Valid {
		if t, err := time.Parse(dateLayout, birth.String); err == nil {
			p.BirthDate = &t
		}
	}
	if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
		p.CreatedAt = t
	}
	return &p, nil
}

func nullString(s string) sql.NullString {
	s = strings.TrimSpace(s)
	return sql.NullString{String: s, Valid: s != ""}
}

func nullDate(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(dateLayout), Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
