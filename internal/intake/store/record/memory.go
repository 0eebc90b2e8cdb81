// Package record persists submitted applications.
package record

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"grantintake/internal/intake/models"
)

// Memory keeps records in insertion order per table.
type Memory struct {
	mu      sync.RWMutex
	records map[string][]models.Record
	now     func() time.Time
	failErr error
}

type MemoryOption func(m *Memory)

func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) {
		if now != nil {
			m.now = now
		}
	}
}

func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{records: make(map[string][]models.Record), now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// FailWith makes every following Insert return err. Pass nil to recover.
func (m *Memory) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failErr = err
}

func (m *Memory) Insert(ctx context.Context, table string, payload *models.Payload) (*models.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return nil, m.failErr
	}
	rec := models.Record{
		ID:        uuid.NewString(),
		CreatedAt: m.now().UTC(),
		Payload:   *payload,
	}
	m.records[table] = append(m.records[table], rec)
	return &rec, nil
}

// All returns a copy of the records in table.
func (m *Memory) All(table string) []models.Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.Record(nil), m.records[table]...)
}
