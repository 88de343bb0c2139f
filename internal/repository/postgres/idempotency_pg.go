// internal/repository/postgres/idempotency_pg.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"remitflow-wallet/internal/domain"
	"remitflow-wallet/internal/repository"
	"remitflow-wallet/internal/util"
)

// IdempotencyRepository implements repository.IdempotencyRepository for PostgreSQL.
type IdempotencyRepository struct{}

// NewIdempotencyRepository creates a new IdempotencyRepository.
func NewIdempotencyRepository() repository.IdempotencyRepository {
	return &IdempotencyRepository{}
}

// GetActive returns the unexpired mapping for key.
func (r *IdempotencyRepository) GetActive(ctx context.Context, q repository.DBExecutor, key string) (*domain.IdempotencyKey, error) {
	var k domain.IdempotencyKey
	query := `SELECT key, transaction_id, expires_at, created_at FROM idempotency_keys WHERE key = $1 AND expires_at > NOW()`
	if err := q.GetContext(ctx, &k, query, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get idempotency key: %w", err)
	}
	return &k, nil
}

// Reserve inserts the mapping. The unique key makes concurrent reservations
// of the same key serialize: the loser either gets no row back from the
// conditional upsert or a 23505 error, both reported as a conflict.
func (r *IdempotencyRepository) Reserve(ctx context.Context, q repository.DBExecutor, key *domain.IdempotencyKey) error {
	query := `INSERT INTO idempotency_keys (key, transaction_id, expires_at, created_at)
              VALUES ($1, $2, $3, $4)
              ON CONFLICT (key) DO UPDATE
                  SET transaction_id = EXCLUDED.transaction_id, expires_at = EXCLUDED.expires_at, created_at = EXCLUDED.created_at
                  WHERE idempotency_keys.expires_at <= NOW()
              RETURNING key`
	var stored string
	err := q.QueryRowContext(ctx, query, key.Key, key.TransactionID, key.ExpiresAt, key.CreatedAt).Scan(&stored)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows), isUniqueViolation(err):
		return util.WrapError(util.KindIdempotencyConflict, "idempotency key already used", err)
	default:
		return fmt.Errorf("failed to reserve idempotency key: %w", err)
	}
}
