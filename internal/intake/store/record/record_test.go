package record

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grantintake/internal/intake/models"
	"grantintake/pkg/platform/sentinel"
)

const table = "grant_applications"

func payload() *models.Payload {
	dob := "1988-04-12"
	return &models.Payload{
		FullName:           "Jane Doe",
		DateOfBirth:        &dob,
		MailingAddress:     "123 Queen St W, Toronto, Ontario M5H 2N2",
		Email:              "jane.doe@example.org",
		PhoneNumber:        "416-555-0123",
		GrantRequestedDate: "2026-11-01",
		FundsUsage:         "Mobility equipment.",
		SupportLetterURL:   "https://example.test/Jane-Doe-Support-Letter.pdf",
		Attestation:        true,
	}
}

func TestMemory(t *testing.T) {
	now := time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)
	store := NewMemory(WithClock(func() time.Time { return now }))

	rec, err := store.Insert(context.Background(), table, payload())
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, now, rec.CreatedAt)
	assert.Equal(t, "Jane Doe", rec.FullName)
	assert.Len(t, store.All(table), 1)

	store.FailWith(errors.New("disk full"))
	_, err = store.Insert(context.Background(), table, payload())
	assert.EqualError(t, err, "disk full")
	assert.Len(t, store.All(table), 1)
}

type fakeInserter struct {
	response string
	err      error
	table    string
	row      any
}

func (f *fakeInserter) Insert(_ context.Context, table string, row any, out any) error {
	f.table, f.row = table, row
	if f.err != nil {
		return f.err
	}
	return json.Unmarshal([]byte(f.response), out)
}

func TestSupabase(t *testing.T) {
	t.Run("accepts numeric ids", func(t *testing.T) {
		f := &fakeInserter{response: `{"id": 1042, "created_at": "2026-10-14T09:30:00Z"}`}
		rec, err := NewSupabase(f).Insert(context.Background(), table, payload())
		require.NoError(t, err)
		assert.Equal(t, "1042", rec.ID)
		assert.Equal(t, table, f.table)
		assert.Equal(t, payload(), f.row)
	})

	t.Run("accepts uuid ids", func(t *testing.T) {
		f := &fakeInserter{response: `{"id": "7c9e6679-7425-40de-944b-e07fc1f90ae7", "created_at": "2026-10-14T09:30:00Z"}`}
		rec, err := NewSupabase(f).Insert(context.Background(), table, payload())
		require.NoError(t, err)
		assert.Equal(t, "7c9e6679-7425-40de-944b-e07fc1f90ae7", rec.ID)
	})

	for name, response := range map[string]string{
		"null id":    `{"id": null, "created_at": "2026-10-14T09:30:00Z"}`,
		"missing id": `{"created_at": "2026-10-14T09:30:00Z"}`,
		"empty id":   `{"id": "", "created_at": "2026-10-14T09:30:00Z"}`,
	} {
		t.Run("rejects "+name, func(t *testing.T) {
			rec, err := NewSupabase(&fakeInserter{response: response}).Insert(context.Background(), table, payload())
			assert.ErrorIs(t, err, ErrNoID)
			assert.Nil(t, rec)
		})
	}

	t.Run("wraps backend errors", func(t *testing.T) {
		cause := errors.New("permission denied for table grant_applications")
		_, err := NewSupabase(&fakeInserter{err: cause}).Insert(context.Background(), table, payload())
		assert.ErrorIs(t, err, cause)
	})
}

func TestPostgresInsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	created := time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)
	p := payload()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "grant_applications"`)).
		WithArgs(p.FullName, "1988-04-12", false, p.MailingAddress, p.Email, p.PhoneNumber,
			p.GrantRequestedDate, p.FundsUsage, false, nil, p.SupportLetterURL, true).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("7c9e6679-7425-40de-944b-e07fc1f90ae7", created))

	rec, err := NewPostgres(db).Insert(context.Background(), table, p)
	require.NoError(t, err)
	assert.Equal(t, "7c9e6679-7425-40de-944b-e07fc1f90ae7", rec.ID)
	assert.Equal(t, created, rec.CreatedAt)
	assert.Equal(t, *p, rec.Payload)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresInsertErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO`).WillReturnError(&pq.Error{
		Code:    "23505",
		Message: "duplicate key value violates unique constraint \"grant_applications_email_key\"",
	})
	_, err = NewPostgres(db).Insert(context.Background(), table, payload())
	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel.ErrConflict)

	var be *BackendError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "duplicate key value violates unique constraint \"grant_applications_email_key\"", be.BackendMessage())

	mock.ExpectQuery(`INSERT INTO`).WillReturnError(errors.New("driver: bad connection"))
	_, err = NewPostgres(db).Insert(context.Background(), table, payload())
	require.Error(t, err)
	assert.False(t, errors.As(err, &be))
}

func TestPostgresEnsureSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS "grant_applications"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, NewPostgres(db).EnsureSchema(context.Background(), table))
	assert.NoError(t, mock.ExpectationsWereMet())
}
