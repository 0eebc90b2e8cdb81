package record

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"grantintake/internal/intake/models"
	"grantintake/pkg/platform/sentinel"
)

const uniqueViolation = pq.ErrorCode("23505")

// Postgres writes records straight to a PostgreSQL table with the same columns
// as the Supabase collection.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Schema returns the DDL for table.
func Schema(table string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id                   UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	created_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
	full_name            TEXT NOT NULL,
	date_of_birth        DATE,
	is_for_dependent     BOOLEAN NOT NULL DEFAULT FALSE,
	mailing_address      TEXT NOT NULL,
	email                TEXT NOT NULL,
	phone_number         TEXT NOT NULL,
	grant_requested_date DATE NOT NULL,
	funds_usage          TEXT NOT NULL,
	previous_grant       BOOLEAN NOT NULL DEFAULT FALSE,
	previous_grant_usage TEXT,
	support_letter_url   TEXT NOT NULL,
	attestation          BOOLEAN NOT NULL
)`, pq.QuoteIdentifier(table))
}

// EnsureSchema creates table when it does not exist.
func (p *Postgres) EnsureSchema(ctx context.Context, table string) error {
	if _, err := p.db.ExecContext(ctx, Schema(table)); err != nil {
		return fmt.Errorf("create table %s: %w", table, err)
	}
	return nil
}

func (p *Postgres) Insert(ctx context.Context, table string, payload *models.Payload) (*models.Record, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (
			full_name, date_of_birth, is_for_dependent, mailing_address, email,
			phone_number, grant_requested_date, funds_usage, previous_grant,
			previous_grant_usage, support_letter_url, attestation
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at
	`, pq.QuoteIdentifier(table))

	rec := models.Record{Payload: *payload}
	err := p.db.QueryRowContext(ctx, query,
		payload.FullName,
		nullString(payload.DateOfBirth),
		payload.IsForDependent,
		payload.MailingAddress,
		payload.Email,
		payload.PhoneNumber,
		payload.GrantRequestedDate,
		payload.FundsUsage,
		payload.PreviousGrant,
		nullString(payload.PreviousGrantUsage),
		payload.SupportLetterURL,
		payload.Attestation,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert into %s: %w", table, wrapPQ(err))
	}
	return &rec, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// BackendError carries the server message of a failed statement.
type BackendError struct {
	Err      *pq.Error
	sentinel error
}

func (e *BackendError) Error() string {
	return e.Err.Error()
}

func (e *BackendError) BackendMessage() string {
	return e.Err.Message
}

func (e *BackendError) Unwrap() []error {
	if e.sentinel != nil {
		return []error{e.Err, e.sentinel}
	}
	return []error{e.Err}
}

func wrapPQ(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	be := &BackendError{Err: pqErr}
	if pqErr.Code == uniqueViolation {
		be.sentinel = sentinel.ErrConflict
	}
	return be
}
