package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
)

// ErrSearchNotFound is returned for an unknown search id.
var ErrSearchNotFound = errors.New("search not found")

// PriceSearch is one executed search as stored for later retrieval.
type PriceSearch struct {
	ID        string          `json:"id"`
	Kind      string          `json:"kind"`
	Request   json.RawMessage `json:"request"`
	Result    json.RawMessage `json:"result"`
	CreatedAt time.Time       `json:"created_at"`
}

// SearchLog stores executed searches.
type SearchLog interface {
	// Save assigns ID and CreatedAt when they are empty.
	Save(ctx context.Context, s *PriceSearch) error
	Get(ctx context.Context, id string) (*PriceSearch, error)
}

func stamp(s *PriceSearch) {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
}

// ─── Postgres ─────────────────────────────────────────────────────────────────

// PostgresSearchLog keeps searches in the price_searches table.
type PostgresSearchLog struct {
	db      *sql.DB
	dialect goqu.DialectWrapper
}

func NewPostgresSearchLog(db *sql.DB) *PostgresSearchLog {
	return &PostgresSearchLog{db: db, dialect: goqu.Dialect("postgres")}
}

func (l *PostgresSearchLog) Save(ctx context.Context, s *PriceSearch) error {
	stamp(s)

	query, args, err := l.dialect.Insert("price_searches").Prepared(true).Rows(goqu.Record{
		"id":         s.ID,
		"kind":       s.Kind,
		"request":    string(s.Request),
		"result":     string(s.Result),
		"created_at": s.CreatedAt,
	}).ToSQL()
	if err != nil {
		return fmt.Errorf("failed to build insert query: %w", err)
	}

	if _, err := l.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to save search: %w", err)
	}
	return nil
}

func (l *PostgresSearchLog) Get(ctx context.Context, id string) (*PriceSearch, error) {
	query, args, err := l.dialect.From("price_searches").Prepared(true).
		Select("id", "kind", "request", "result", "created_at").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	s := &PriceSearch{}
	var request, result []byte
	err = l.db.QueryRowContext(ctx, query, args...).Scan(&s.ID, &s.Kind, &request, &result, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSearchNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get search: %w", err)
	}
	s.Request = request
	s.Result = result
	return s, nil
}

// ─── Memory ───────────────────────────────────────────────────────────────────

// MemorySearchLog keeps searches in process memory.
type MemorySearchLog struct {
	mu       sync.RWMutex
	searches map[string]PriceSearch
}

func NewMemorySearchLog() *MemorySearchLog {
	return &MemorySearchLog{searches: make(map[string]PriceSearch)}
}

func (l *MemorySearchLog) Save(_ context.Context, s *PriceSearch) error {
	stamp(s)
	l.mu.Lock()
	defer l.mu.Unlock()
	l.searches[s.ID] = *s
	return nil
}

func (l *MemorySearchLog) Get(_ context.Context, id string) (*PriceSearch, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	s, ok := l.searches[id]
	if !ok {
		return nil, ErrSearchNotFound
	}
	return &s, nil
}
