package record

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"grantintake/internal/intake/models"
)

// Inserter is implemented by *supabase.Client.
type Inserter interface {
	Insert(ctx context.Context, table string, row any, out any) error
}

// Supabase inserts through PostgREST. The id and created_at columns are filled
// by column defaults.
type Supabase struct {
	client Inserter
}

func NewSupabase(client Inserter) *Supabase {
	return &Supabase{client: client}
}

// ErrNoID is returned when the inserted row comes back without an id.
var ErrNoID = errors.New("inserted row has no id")

// insertedRow accepts both bigint and uuid primary keys.
type insertedRow struct {
	ID        json.RawMessage `json:"id"`
	CreatedAt time.Time       `json:"created_at"`
}

func (s *Supabase) Insert(ctx context.Context, table string, payload *models.Payload) (*models.Record, error) {
	var row insertedRow
	if err := s.client.Insert(ctx, table, payload, &row); err != nil {
		return nil, fmt.Errorf("insert into %s: %w", table, err)
	}
	id := strings.Trim(string(row.ID), `"`)
	if id == "" || string(row.ID) == "null" {
		return nil, fmt.Errorf("insert into %s: %w", table, ErrNoID)
	}
	return &models.Record{
		ID:        id,
		CreatedAt: row.CreatedAt,
		Payload:   *payload,
	}, nil
}
