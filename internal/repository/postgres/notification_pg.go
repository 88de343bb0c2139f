// internal/repository/postgres/notification_pg.go
package postgres

import (
	"context"
	"fmt"
	"time"

	"remitflow-wallet/internal/domain"
	"remitflow-wallet/internal/repository"
)

const notificationColumns = `id, user_id, recipient_phone, channel, subject, content, transaction_id, request_id,
       status, retry_count, next_retry_at, error_message, created_at, updated_at`

// NotificationRepository implements repository.NotificationRepository for PostgreSQL.
type NotificationRepository struct{}

// NewNotificationRepository creates a new NotificationRepository.
func NewNotificationRepository() repository.NotificationRepository {
	return &NotificationRepository{}
}

func (r *NotificationRepository) Enqueue(ctx context.Context, q repository.DBExecutor, n *domain.NotificationIntent) error {
	query := `INSERT INTO notification_queue (user_id, recipient_phone, channel, subject, content, transaction_id, request_id,
                  status, retry_count, next_retry_at, created_at, updated_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12) RETURNING id`
	err := q.QueryRowContext(ctx, query,
		n.UserID, n.RecipientPhone, n.ChannelName, n.Subject, n.Content, n.TransactionID, n.RequestID,
		n.Status, n.RetryCount, n.NextRetryAt, n.CreatedAt, n.UpdatedAt,
	).Scan(&n.ID)
	if err != nil {
		return fmt.Errorf("failed to enqueue %s notification: %w", n.ChannelName, err)
	}
	return nil
}

func (r *NotificationRepository) FetchDue(ctx context.Context, q repository.DBExecutor, now time.Time, limit int) ([]domain.NotificationIntent, error) {
	intents := []domain.NotificationIntent{}
	query := `SELECT ` + notificationColumns + `
              FROM notification_queue
              WHERE status = $1 AND next_retry_at <= $2
              ORDER BY next_retry_at, id
              LIMIT $3`
	if err := q.SelectContext(ctx, &intents, query, domain.NotificationPending, now, limit); err != nil {
		return nil, fmt.Errorf("failed to fetch due notifications: %w", err)
	}
	return intents, nil
}

func (r *NotificationRepository) SaveOutcome(ctx context.Context, q repository.DBExecutor, n *domain.NotificationIntent) error {
	query := `UPDATE notification_queue
              SET status = $1, retry_count = $2, next_retry_at = $3, error_message = $4, updated_at = $5
              WHERE id = $6`
	if _, err := q.ExecContext(ctx, query, n.Status, n.RetryCount, n.NextRetryAt, n.ErrorMessage, n.UpdatedAt, n.ID); err != nil {
		return fmt.Errorf("failed to save outcome of notification %d: %w", n.ID, err)
	}
	return nil
}
