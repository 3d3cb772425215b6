package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"bidrag/internal/behandling/models"
	id "bidrag/pkg/domain"
	"bidrag/pkg/platform/sentinel"
	txcontext "bidrag/pkg/platform/tx"
)

//go:embed schema.sql
var Schema string

// PostgresStore persists behandlinger as JSONB documents with an optimistic
// version column. Inside a transaction (NewPostgresTx) reads lock the row.
type PostgresStore struct {
	db    txcontext.Executor
	inTx  bool
	rawDB *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed behandling store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, rawDB: db}
}

// NewPostgresTx binds a store to an open transaction.
func NewPostgresTx(tx *sql.Tx) *PostgresStore {
	return &PostgresStore{db: tx, inTx: true}
}

// Migrate applies Schema. Only valid on a store built with NewPostgres.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if s.rawDB == nil {
		return fmt.Errorf("migrate requires a database handle")
	}
	if _, err := s.rawDB.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("migrate behandlinger: %w", err)
	}
	return nil
}

// Create inserts a new behandling at version 1.
func (s *PostgresStore) Create(ctx context.Context, c *models.Case) error {
	c.Version = 1
	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal behandling: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO behandlinger (id, version, effective_date, cessation_date, payload, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, uuid.UUID(c.ID), c.Version, c.EffectiveDate, nullDate(c), payload, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert behandling: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, caseID id.CaseID) (*models.Case, error) {
	query := `SELECT version, payload FROM behandlinger WHERE id = $1`
	if s.inTx {
		query += ` FOR UPDATE`
	}
	var (
		version int64
		payload []byte
	)
	err := s.db.QueryRowContext(ctx, query, uuid.UUID(caseID)).Scan(&version, &payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find behandling by id: %w", err)
	}
	var c models.Case
	if err := json.Unmarshal(payload, &c); err != nil {
		return nil, fmt.Errorf("unmarshal behandling: %w", err)
	}
	c.Version = version
	return &c, nil
}

// Save writes c if the stored version still matches c.Version.
func (s *PostgresStore) Save(ctx context.Context, c *models.Case) error {
	next := *c
	next.Version = c.Version + 1
	payload, err := json.Marshal(&next)
	if err != nil {
		return fmt.Errorf("marshal behandling: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE behandlinger
		SET version = $2, cessation_date = $3, payload = $4, updated_at = $5
		WHERE id = $1 AND version = $6
	`, uuid.UUID(c.ID), next.Version, nullDate(c), payload, c.UpdatedAt, c.Version)
	if err != nil {
		return fmt.Errorf("update behandling: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update behandling: %w", err)
	}
	if n == 0 {
		var exists bool
		if err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM behandlinger WHERE id = $1)`, uuid.UUID(c.ID)).Scan(&exists); err != nil {
			return fmt.Errorf("check behandling: %w", err)
		}
		if !exists {
			return sentinel.ErrNotFound
		}
		return sentinel.ErrConflict
	}
	c.Version = next.Version
	return nil
}

func nullDate(c *models.Case) sql.NullTime {
	if c.CessationDate == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *c.CessationDate, Valid: true}
}
