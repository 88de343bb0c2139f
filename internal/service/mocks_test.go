// internal/service/mocks_test.go
package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"remitflow-wallet/internal/domain"
	"remitflow-wallet/internal/notification"
	"remitflow-wallet/internal/repository"
)

// MockDBExecutor is a mock implementation of repository.DBExecutor.
type MockDBExecutor struct {
	mock.Mock
}

func (m *MockDBExecutor) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	argsCalled := m.Called(ctx, dest, query, args)
	return argsCalled.Error(0)
}

func (m *MockDBExecutor) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	argsCalled := m.Called(ctx, dest, query, args)
	return argsCalled.Error(0)
}

func (m *MockDBExecutor) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	argsCalled := m.Called(ctx, query, args)
	return argsCalled.Get(0).(sql.Result), argsCalled.Error(1)
}

func (m *MockDBExecutor) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	m.Called(ctx, query, args)
	return &sql.Row{}
}

// MockDBBeginner is a mock implementation of db.DBTxBeginner.
type MockDBBeginner struct {
	mock.Mock
}

func (m *MockDBBeginner) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	args := m.Called(ctx, opts)
	return &sqlx.Tx{}, args.Error(1)
}

// MockTxController is a mock implementation of db.TxController.
// It also implements repository.DBExecutor by embedding MockDBExecutor.
type MockTxController struct {
	mock.Mock
	MockDBExecutor
}

func (m *MockTxController) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockTxController) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

// MockAccountRepository is a mock implementation of repository.AccountRepository.
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) CreateAccount(ctx context.Context, q repository.DBExecutor, account *domain.Account) error {
	args := m.Called(ctx, q, account)
	return args.Error(0)
}

func (m *MockAccountRepository) GetAccountByID(ctx context.Context, q repository.DBExecutor, id int64) (*domain.Account, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) GetAccountByUserAndCurrency(ctx context.Context, q repository.DBExecutor, userID int64, currency string) (*domain.Account, error) {
	args := m.Called(ctx, q, userID, currency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) LockAccounts(ctx context.Context, q repository.DBExecutor, ids []int64) (map[int64]*domain.Account, error) {
	args := m.Called(ctx, q, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int64]*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) AdjustBalance(ctx context.Context, q repository.DBExecutor, accountID int64, delta decimal.Decimal) error {
	args := m.Called(ctx, q, accountID, delta)
	return args.Error(0)
}

// MockUserRepository is a mock implementation of repository.UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) CreateUser(ctx context.Context, q repository.DBExecutor, user *domain.User) error {
	args := m.Called(ctx, q, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetUserByID(ctx context.Context, q repository.DBExecutor, id int64) (*domain.User, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetUserByWorkerID(ctx context.Context, q repository.DBExecutor, workerID string) (*domain.User, error) {
	args := m.Called(ctx, q, workerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

// MockTransactionRepository is a mock implementation of repository.TransactionRepository.
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) NextTransactionID(ctx context.Context, q repository.DBExecutor) (int64, error) {
	args := m.Called(ctx, q)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTransactionRepository) CreateTransaction(ctx context.Context, q repository.DBExecutor, transaction *domain.Transaction) error {
	args := m.Called(ctx, q, transaction)
	return args.Error(0)
}

func (m *MockTransactionRepository) MarkCompleted(ctx context.Context, q repository.DBExecutor, transactionID int64, completedAt time.Time, metadata domain.JSONMap) error {
	args := m.Called(ctx, q, transactionID, completedAt, metadata)
	return args.Error(0)
}

func (m *MockTransactionRepository) GetByTransactionID(ctx context.Context, q repository.DBExecutor, transactionID int64) (*domain.Transaction, error) {
	args := m.Called(ctx, q, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) ListByAccountID(ctx context.Context, q repository.DBExecutor, accountID int64, limit, offset int) ([]domain.Transaction, int64, error) {
	args := m.Called(ctx, q, accountID, limit, offset)
	return args.Get(0).([]domain.Transaction), args.Get(1).(int64), args.Error(2)
}

// MockRecipientRepository is a mock implementation of repository.RecipientRepository.
type MockRecipientRepository struct {
	mock.Mock
}

func (m *MockRecipientRepository) CreateRecipient(ctx context.Context, q repository.DBExecutor, recipient *domain.ExternalRecipient) error {
	args := m.Called(ctx, q, recipient)
	return args.Error(0)
}

func (m *MockRecipientRepository) GetByTransactionID(ctx context.Context, q repository.DBExecutor, transactionID int64) (*domain.ExternalRecipient, error) {
	args := m.Called(ctx, q, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExternalRecipient), args.Error(1)
}

func (m *MockRecipientRepository) LockByTransactionID(ctx context.Context, q repository.DBExecutor, transactionID int64) (*domain.ExternalRecipient, error) {
	args := m.Called(ctx, q, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExternalRecipient), args.Error(1)
}

func (m *MockRecipientRepository) UpdateStage(ctx context.Context, q repository.DBExecutor, transactionID int64, stage domain.DisbursementStage) error {
	args := m.Called(ctx, q, transactionID, stage)
	return args.Error(0)
}

// MockIdempotencyRepository is a mock implementation of repository.IdempotencyRepository.
type MockIdempotencyRepository struct {
	mock.Mock
}

func (m *MockIdempotencyRepository) GetActive(ctx context.Context, q repository.DBExecutor, key string) (*domain.IdempotencyKey, error) {
	args := m.Called(ctx, q, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.IdempotencyKey), args.Error(1)
}

func (m *MockIdempotencyRepository) Reserve(ctx context.Context, q repository.DBExecutor, key *domain.IdempotencyKey) error {
	args := m.Called(ctx, q, key)
	return args.Error(0)
}

// MockLimitRepository is a mock implementation of repository.LimitRepository.
type MockLimitRepository struct {
	mock.Mock
}

func (m *MockLimitRepository) GetForUpdate(ctx context.Context, q repository.DBExecutor, userID int64) (*domain.LimitLedger, error) {
	args := m.Called(ctx, q, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LimitLedger), args.Error(1)
}

func (m *MockLimitRepository) SaveUsage(ctx context.Context, q repository.DBExecutor, ledger *domain.LimitLedger) error {
	args := m.Called(ctx, q, ledger)
	return args.Error(0)
}

func (m *MockLimitRepository) AppendHistory(ctx context.Context, q repository.DBExecutor, rows []domain.LimitHistory) error {
	args := m.Called(ctx, q, rows)
	return args.Error(0)
}

// MockFeeRepository is a mock implementation of repository.FeeRepository.
type MockFeeRepository struct {
	mock.Mock
}

func (m *MockFeeRepository) GetActiveConfig(ctx context.Context, q repository.DBExecutor, feeType, currency string) (*domain.FeeConfig, error) {
	args := m.Called(ctx, q, feeType, currency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FeeConfig), args.Error(1)
}

func (m *MockFeeRepository) CreateFeeRecord(ctx context.Context, q repository.DBExecutor, record *domain.FeeRecord) error {
	args := m.Called(ctx, q, record)
	return args.Error(0)
}

// MockAuditRepository is a mock implementation of repository.AuditRepository.
type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) Append(ctx context.Context, q repository.DBExecutor, entry *domain.AuditLogEntry) error {
	args := m.Called(ctx, q, entry)
	return args.Error(0)
}

// MockEnqueuer is a mock implementation of NotificationEnqueuer.
type MockEnqueuer struct {
	mock.Mock
}

func (m *MockEnqueuer) EnqueueTransfer(ctx context.Context, q repository.DBExecutor, n notification.TransferNotice) (int, error) {
	args := m.Called(ctx, q, n)
	return args.Int(0), args.Error(1)
}

type countingTrigger struct {
	calls int
}

func (c *countingTrigger) Trigger() { c.calls++ }
