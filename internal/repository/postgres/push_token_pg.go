// internal/repository/postgres/push_token_pg.go
package postgres

import (
	"context"
	"fmt"
	"time"

	"remitflow-wallet/internal/domain"
	"remitflow-wallet/internal/repository"
)

// PushTokenRepository implements repository.PushTokenRepository for PostgreSQL.
type PushTokenRepository struct{}

// NewPushTokenRepository creates a new PushTokenRepository.
func NewPushTokenRepository() repository.PushTokenRepository {
	return &PushTokenRepository{}
}

func (r *PushTokenRepository) ListActiveByUser(ctx context.Context, q repository.DBExecutor, userID int64) ([]domain.PushToken, error) {
	tokens := []domain.PushToken{}
	query := `SELECT id, user_id, token, platform, is_active, created_at, updated_at
              FROM push_tokens WHERE user_id = $1 AND is_active ORDER BY id`
	if err := q.SelectContext(ctx, &tokens, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list push tokens for user %d: %w", userID, err)
	}
	return tokens, nil
}

func (r *PushTokenRepository) Deactivate(ctx context.Context, q repository.DBExecutor, token string) error {
	query := `UPDATE push_tokens SET is_active = FALSE, updated_at = $1 WHERE token = $2`
	if _, err := q.ExecContext(ctx, query, time.Now().UTC(), token); err != nil {
		return fmt.Errorf("failed to deactivate push token: %w", err)
	}
	return nil
}
