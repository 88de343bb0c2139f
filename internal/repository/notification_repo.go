// internal/repository/notification_repo.go
package repository

import (
	"context"
	"time"

	"remitflow-wallet/internal/domain"
)

// NotificationRepository is the durable notification queue.
type NotificationRepository interface {
	// Enqueue inserts a PENDING intent.
	Enqueue(ctx context.Context, q DBExecutor, intent *domain.NotificationIntent) error
	// FetchDue returns PENDING intents with next_retry_at <= now, oldest first.
	FetchDue(ctx context.Context, q DBExecutor, now time.Time, limit int) ([]domain.NotificationIntent, error)
	// SaveOutcome persists status, retry count, next attempt time and error message.
	SaveOutcome(ctx context.Context, q DBExecutor, intent *domain.NotificationIntent) error
}

// PushTokenRepository manages device tokens for push delivery.
type PushTokenRepository interface {
	ListActiveByUser(ctx context.Context, q DBExecutor, userID int64) ([]domain.PushToken, error)
	Deactivate(ctx context.Context, q DBExecutor, token string) error
}
