// internal/repository/postgres/postgres_test.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"remitflow-wallet/internal/domain"
	"remitflow-wallet/internal/util"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })
	return sqlx.NewDb(mockDB, "postgres"), mock
}

func TestAccountRepository_AdjustBalance(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountRepository()

	t.Run("Applied", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(regexp.QuoteMeta("UPDATE accounts")).
			WithArgs(decimal.RequireFromString("-21.00"), sqlmock.AnyArg(), int64(1)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.AdjustBalance(ctx, db, 1, decimal.RequireFromString("-21.00"))
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("GuardRejectsOverdraft", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(regexp.QuoteMeta("UPDATE accounts")).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.AdjustBalance(ctx, db, 1, decimal.NewFromInt(-500))
		assert.True(t, errors.Is(err, util.ErrInsufficientFunds))
	})
}

func TestAccountRepository_LockAccounts(t *testing.T) {
	ctx := context.Background()
	db, mock := newMockDB(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows([]string{"id", "user_id", "currency", "balance", "is_system", "version", "created_at", "updated_at"}).
		AddRow(int64(1), int64(7), "USD", "100.00", false, int64(3), now, now).
		AddRow(int64(2), int64(8), "USD", "5.00", false, int64(0), now, now)
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY id FOR UPDATE")).
		WithArgs(pq.Array([]int64{1, 2})).
		WillReturnRows(rows)

	accounts, err := NewAccountRepository().LockAccounts(ctx, db, []int64{1, 2})
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.True(t, accounts[1].Balance.Equal(decimal.RequireFromString("100.00")))
	assert.Equal(t, int64(8), accounts[2].UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_GetAccountByID_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM accounts WHERE id = $1")).
		WithArgs(int64(42)).
		WillReturnError(sql.ErrNoRows)

	_, err := NewAccountRepository().GetAccountByID(context.Background(), db, 42)
	assert.Equal(t, util.ErrNotFound, err)
}

func TestIdempotencyRepository_Reserve(t *testing.T) {
	ctx := context.Background()
	repo := NewIdempotencyRepository()
	key := &domain.IdempotencyKey{Key: "abc", TransactionID: 100000001, ExpiresAt: time.Now().Add(24 * time.Hour), CreatedAt: time.Now()}

	t.Run("Reserved", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO idempotency_keys")).
			WillReturnRows(sqlmock.NewRows([]string{"key"}).AddRow("abc"))
		assert.NoError(t, repo.Reserve(ctx, db, key))
	})

	t.Run("ActiveKeyConflicts", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO idempotency_keys")).
			WillReturnRows(sqlmock.NewRows([]string{"key"}))
		err := repo.Reserve(ctx, db, key)
		assert.True(t, errors.Is(err, util.ErrIdempotencyConflict))
	})

	t.Run("UniqueViolationConflicts", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO idempotency_keys")).
			WillReturnError(&pq.Error{Code: "23505"})
		err := repo.Reserve(ctx, db, key)
		assert.True(t, errors.Is(err, util.ErrIdempotencyConflict))
	})

	t.Run("OtherErrorsPassThrough", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO idempotency_keys")).
			WillReturnError(errors.New("connection reset"))
		err := repo.Reserve(ctx, db, key)
		require.Error(t, err)
		assert.False(t, errors.Is(err, util.ErrIdempotencyConflict))
	})
}

func TestAuditRepository_Append(t *testing.T) {
	ctx := context.Background()
	entry := &domain.AuditLogEntry{TransactionID: 100000001, Action: domain.AuditTransferCompleted, ActorID: 7, CreatedAt: time.Now()}

	t.Run("ReleasesSavepoint", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec("SAVEPOINT audit_entry").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_log")).WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec("RELEASE SAVEPOINT audit_entry").WillReturnResult(sqlmock.NewResult(0, 0))

		assert.NoError(t, NewAuditRepository().Append(ctx, db, entry))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("RollsBackToSavepointOnFailure", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec("SAVEPOINT audit_entry").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_log")).WillReturnError(errors.New("disk full"))
		mock.ExpectExec("ROLLBACK TO SAVEPOINT audit_entry").WillReturnResult(sqlmock.NewResult(0, 0))

		err := NewAuditRepository().Append(ctx, db, entry)
		assert.Equal(t, util.KindAuditWriteFailed, util.KindOf(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTransactionRepository_MarkCompleted(t *testing.T) {
	ctx := context.Background()
	repo := NewTransactionRepository()

	t.Run("Completed", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(regexp.QuoteMeta("UPDATE transactions SET status")).
			WithArgs(domain.TransactionStatusCompleted, sqlmock.AnyArg(), sqlmock.AnyArg(), int64(100000001), domain.TransactionStatusPending).
			WillReturnResult(sqlmock.NewResult(0, 1))
		assert.NoError(t, repo.MarkCompleted(ctx, db, 100000001, time.Now(), domain.JSONMap{}))
	})

	t.Run("NotPending", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(regexp.QuoteMeta("UPDATE transactions SET status")).
			WillReturnResult(sqlmock.NewResult(0, 0))
		assert.Error(t, repo.MarkCompleted(ctx, db, 100000001, time.Now(), domain.JSONMap{}))
	})
}

func TestTransactionRepository_NextTransactionID(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT nextval('transaction_id_seq')")).
		WillReturnRows(sqlmock.NewRows([]string{"nextval"}).AddRow(int64(100000042)))

	id, err := NewTransactionRepository().NextTransactionID(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, int64(100000042), id)
}

func TestNotificationRepository_FetchDue(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "user_id", "recipient_phone", "channel", "subject", "content", "transaction_id", "request_id",
		"status", "retry_count", "next_retry_at", "error_message", "created_at", "updated_at"}).
		AddRow(int64(5), int64(7), nil, "PUSH", "Transfer Sent", "You sent 20.00 USD", int64(100000001), "req-1", "PENDING", 1, now, nil, now, now).
		AddRow(int64(6), nil, "+256703859328", "SMS", "Money Received", "You received 50000.00 UGX", int64(100000002), nil, "PENDING", 0, now, nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM notification_queue")).
		WithArgs(domain.NotificationPending, now, 100).
		WillReturnRows(rows)

	intents, err := NewNotificationRepository().FetchDue(context.Background(), db, now, 100)
	require.NoError(t, err)
	require.Len(t, intents, 2)
	assert.Equal(t, domain.ChannelPush, intents[0].Channel())
	assert.Equal(t, 1, intents[0].RetryCount)
	require.NotNil(t, intents[0].RequestID)
	assert.Equal(t, "req-1", *intents[0].RequestID)
	assert.Nil(t, intents[1].UserID)
	require.NotNil(t, intents[1].RecipientPhone)
	assert.Equal(t, "+256703859328", *intents[1].RecipientPhone)
}

func TestLimitRepository_GetForUpdate_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE OF ul")).
		WithArgs(int64(7)).
		WillReturnError(sql.ErrNoRows)

	_, err := NewLimitRepository().GetForUpdate(context.Background(), db, 7)
	assert.Equal(t, util.ErrNotFound, err)
}

func TestLimitRepository_AppendHistory(t *testing.T) {
	db, mock := newMockDB(t)
	for i := 0; i < 3; i++ {
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO limit_history")).WillReturnResult(sqlmock.NewResult(int64(i+1), 1))
	}
	rows := []domain.LimitHistory{
		{UserID: 7, TransactionID: 1, Period: domain.PeriodDaily},
		{UserID: 7, TransactionID: 1, Period: domain.PeriodMonthly},
		{UserID: 7, TransactionID: 1, Period: domain.PeriodAnnual},
	}
	assert.NoError(t, NewLimitRepository().AppendHistory(context.Background(), db, rows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetUserByWorkerID(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()

	t.Run("Found", func(t *testing.T) {
		db, mock := newMockDB(t)
		rows := sqlmock.NewRows([]string{"id", "username", "full_name", "email", "phone_number", "pin_hash", "worker_id", "kyc_level_id", "created_at", "updated_at"}).
			AddRow(int64(8), "bob", "Bob Okello", nil, "+256772000111", nil, "WK-0042", int64(1), now, now)
		mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE worker_id = $1")).
			WithArgs("WK-0042").
			WillReturnRows(rows)

		user, err := NewUserRepository().GetUserByWorkerID(ctx, db, "WK-0042")
		require.NoError(t, err)
		assert.Equal(t, int64(8), user.ID)
		require.NotNil(t, user.WorkerID)
		assert.Equal(t, "WK-0042", *user.WorkerID)
	})

	t.Run("NotFound", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE worker_id = $1")).
			WithArgs("WK-9999").
			WillReturnError(sql.ErrNoRows)

		_, err := NewUserRepository().GetUserByWorkerID(ctx, db, "WK-9999")
		assert.Equal(t, util.ErrNotFound, err)
	})
}

func TestAccountRepository_GetAccountByUserAndCurrency_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM accounts WHERE user_id = $1 AND currency = $2")).
		WithArgs(int64(8), "UGX").
		WillReturnError(sql.ErrNoRows)

	_, err := NewAccountRepository().GetAccountByUserAndCurrency(context.Background(), db, 8, "UGX")
	assert.Equal(t, util.ErrNotFound, err)
}
