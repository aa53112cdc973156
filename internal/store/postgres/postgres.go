// Package postgres implements the patient store on PostgreSQL via pgx.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/clinicroster/internal/config"
	"github.com/JonMunkholm/clinicroster/internal/core"
)

//go:embed schema.sql
var schemaSQL string

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// NewPool parses cfg.URL, applies the pool limits and pings the server.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// Store is a core.PatientStore and core.TenantDirectory over PostgreSQL.
type Store struct {
	db DBTX
}

var (
	_ core.PatientStore    = (*Store)(nil)
	_ core.TenantDirectory = (*Store)(nil)
)

// New wraps db. Call Migrate once before first use.
func New(db DBTX) *Store {
	return &Store{db: db}
}

// Migrate creates the tables and indexes if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return gerrors.Wrap(err, "apply schema")
	}
	return nil
}

// UpsertTenant adds or replaces a tenant.
func (s *Store) UpsertTenant(ctx context.Context, t core.Tenant) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO tenants (id, name, active) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, active = EXCLUDED.active`,
		t.ID, t.Name, t.Active)
	if err != nil {
		return gerrors.Wrapf(err, "upsert tenant %s", t.ID)
	}
	return nil
}

// Resolve implements core.TenantDirectory.
func (s *Store) Resolve(ctx context.Context, tenantID string) (*core.Tenant, error) {
	var t core.Tenant
	err := s.db.QueryRow(ctx,
		`SELECT id, name, active FROM tenants WHERE id = $1`, tenantID,
	).Scan(&t.ID, &t.Name, &t.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.ErrTenantNotFound
	}
	if err != nil {
		return nil, gerrors.Wrap(err, "select tenant")
	}
	if !t.Active {
		return nil, core.ErrTenantNotFound
	}
	return &t, nil
}

// Create implements core.PatientStore.
func (s *Store) Create(ctx context.Context, p *core.Patient, tenantID string) (string, error) {
	id := toPgUUID(uuid.New().String())
	_, err := s.db.Exec(ctx, `
		INSERT INTO patients (
			id, tenant_id, name, email, phone, birth_date, document_id,
			address, city, province, country, gender, notes,
			pre_existing_conditions, client_number
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		id, tenantID, p.Name, toPgText(p.Email), toPgText(p.Phone), toPgDate(p.BirthDate),
		toPgText(p.DocumentID), toPgText(p.Address), toPgText(p.City),
		toPgText(p.Province), toPgText(p.Country), toPgText(p.Gender),
		toPgText(p.Notes), toPgText(p.PreExistingConditions), toPgText(p.ClientNumber),
	)
	if err != nil {
		return "", gerrors.Wrap(err, "insert patient")
	}
	return pgUUIDToString(id), nil
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
		where = ` WHERE tenant_id = $1 AND lower(email) = lower($2) LIMIT 1`
	case core.MatchDocumentID:
		where = ` WHERE tenant_id = $1 AND document_id = $2 LIMIT 1`
	default:
		return nil, gerrors.New("unsupported match field " + string(field))
	}

	p, err := scanPatient(s.db.QueryRow(ctx, selectPatient+where, tenantID, value))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, gerrors.Wrapf(err, "find patient by %s", field)
	}
	return p, nil
}

// ListAll implements core.PatientStore, oldest first.
func (s *Store) ListAll(ctx context.Context, tenantID string) ([]*core.Patient, error) {
	rows, err := s.db.Query(ctx, selectPatient+` WHERE tenant_id = $1 ORDER BY created_at, seq`, tenantID)
	if err != nil {
		return nil, gerrors.Wrap(err, "list patients")
	}
	defer rows.Close()

	var out []*core.Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, gerrors.Wrap(err, "scan patient")
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanPatient(row pgx.Row) (*core.Patient, error) {
	var (
		p                                            core.Patient
		id                                           pgtype.UUID
		email, phone, doc, addr, city, prov, country pgtype.Text
		gender, notes, conditions, clientNo          pgtype.Text
		birth                                        pgtype.Date
	)
	if err := row.Scan(&id, &p.TenantID, &p.Name, &email, &phone, &birth, &doc,
		&addr, &city, &prov, &country, &gender, &notes, &conditions, &clientNo, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.ID = pgUUIDToString(id)
	p.Email, p.Phone, p.DocumentID = email.String, phone.String, doc.String
	p.Address, p.City, p.Province, p.Country = addr.String, city.String, prov.String, country.String
	p.Gender, p.Notes, p.PreExistingConditions, p.ClientNumber = gender.String, notes.String, conditions.String, clientNo.String
	p.BirthDate = fromPgDate(birth)
	return &p, nil
}
