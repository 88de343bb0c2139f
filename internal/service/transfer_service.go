// internal/service/transfer_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"remitflow-wallet/internal/cache"
	"remitflow-wallet/internal/domain"
	"remitflow-wallet/internal/metrics"
	"remitflow-wallet/internal/notification"
	"remitflow-wallet/internal/repository"
	"remitflow-wallet/internal/util"
	"remitflow-wallet/pkg/db"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// TransferService is the transfer engine.
type TransferService interface {
	// Transfer moves funds between two wallet accounts of the same currency.
	Transfer(ctx context.Context, intent domain.WalletTransferIntent) (*domain.TransferResult, error)
	// TransferToNonWallet debits the sender and credits the currency's clearing account
	// for payout to an external recipient.
	TransferToNonWallet(ctx context.Context, intent domain.NonWalletTransferIntent) (*domain.TransferResult, error)
	// TransferByWorkerID is a wallet transfer to the receiver's account in the sender's currency.
	TransferByWorkerID(ctx context.Context, intent domain.WorkerTransferIntent) (*domain.TransferResult, error)
	// GetStatus returns a transaction the requester sent.
	GetStatus(ctx context.Context, requesterID, transactionID int64) (*domain.TransferResult, error)
	// ListTransactions returns a page of the requester's account history and the total count.
	ListTransactions(ctx context.Context, requesterID, accountID int64, limit, offset int) ([]domain.Transaction, int64, error)
	// UpdateDisbursementStage advances the payout stage of a non-wallet transfer.
	// Only configured operators may call it.
	UpdateDisbursementStage(ctx context.Context, actorID, transactionID int64, stage domain.DisbursementStage, ipAddress string) (*domain.TransferResult, error)
}

// NotificationEnqueuer queues transfer notifications inside the ledger transaction.
type NotificationEnqueuer interface {
	EnqueueTransfer(ctx context.Context, q repository.DBExecutor, n notification.TransferNotice) (int, error)
}

// DeliveryTrigger asks the dispatcher for an early flush.
type DeliveryTrigger interface {
	Trigger()
}

// TransferSettings are the engine's tunables.
type TransferSettings struct {
	IdempotencyTTL   time.Duration
	WalletFeeType    string
	NonWalletFeeType string
	OperatorIDs      []int64 // users allowed to change disbursement stages
}

// TransferDeps wires the engine's collaborators.
type TransferDeps struct {
	DBBeginner   db.DBTxBeginner
	DBExecutor   repository.DBExecutor // non-transactional reads
	Accounts     repository.AccountRepository
	Users        repository.UserRepository
	Transactions repository.TransactionRepository
	Recipients   repository.RecipientRepository
	Idempotency  repository.IdempotencyRepository
	Fees         *FeeCalculator
	Limits       *LimitTracker
	Audit        *AuditLogger
	Pins         *PinVerifier
	Enqueuer     NotificationEnqueuer
	Delivery     DeliveryTrigger
	Cache        cache.IdempotencyCache
	Currencies   *domain.CurrencyTable
	Metrics      *metrics.Registry
	Logger       *zap.Logger
	Settings     TransferSettings
	BeginTx      db.BeginTxFunc
	CommitTx     db.CommitTxFunc
	RollbackTx   db.RollbackTxFunc
}

type transferService struct {
	TransferDeps
	operators map[int64]bool
	now       func() time.Time
}

type noopTrigger struct{}

func (noopTrigger) Trigger() {}

// NewTransferService creates the transfer engine.
func NewTransferService(deps TransferDeps) TransferService {
	if deps.Cache == nil {
		deps.Cache = cache.Noop{}
	}
	if deps.Delivery == nil {
		deps.Delivery = noopTrigger{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Settings.IdempotencyTTL <= 0 {
		deps.Settings.IdempotencyTTL = 24 * time.Hour
	}
	operators := make(map[int64]bool, len(deps.Settings.OperatorIDs))
	for _, id := range deps.Settings.OperatorIDs {
		operators[id] = true
	}
	return &transferService{TransferDeps: deps, operators: operators, now: time.Now}
}

// transferPlan is the method-independent form of a transfer request.
type transferPlan struct {
	method            domain.TransferMethod
	requesterID       int64
	senderAccountID   int64
	receiverAccountID int64  // wallet only
	receiverWorkerID  string // wallet only, resolved to receiverAccountID
	recipient         *domain.RecipientDetails
	amount            decimal.Decimal
	pin               string
	description       string
	idempotencyKey    string
	ipAddress         string
	requestID         string
	feeType           string
}

// resolvedTransfer is a plan whose parties have been loaded and authorized.
type resolvedTransfer struct {
	transferPlan
	sender          *domain.Account
	senderUser      *domain.User
	receiverUser    *domain.User // wallet only
	creditAccountID int64        // receiver account or clearing account
	feeAccountID    int64
}

// errKeyTaken signals that a concurrent request committed the same idempotency key first.
var errKeyTaken = errors.New("idempotency key taken by a concurrent transfer")

func (s *transferService) Transfer(ctx context.Context, intent domain.WalletTransferIntent) (*domain.TransferResult, error) {
	started := time.Now()
	if err := domain.Validate(intent); err != nil {
		return nil, s.failed(domain.TransferMethodWallet, started, err)
	}
	return s.execute(ctx, started, transferPlan{
		method:            domain.TransferMethodWallet,
		requesterID:       intent.RequesterID,
		senderAccountID:   intent.SenderAccountID,
		receiverAccountID: intent.ReceiverAccountID,
		amount:            intent.Amount,
		pin:               intent.Pin,
		description:       intent.Description,
		idempotencyKey:    intent.IdempotencyKey,
		ipAddress:         intent.IPAddress,
		requestID:         intent.RequestID,
		feeType:           s.Settings.WalletFeeType,
	})
}

func (s *transferService) TransferByWorkerID(ctx context.Context, intent domain.WorkerTransferIntent) (*domain.TransferResult, error) {
	started := time.Now()
	if err := domain.Validate(intent); err != nil {
		return nil, s.failed(domain.TransferMethodWallet, started, err)
	}
	return s.execute(ctx, started, transferPlan{
		method:           domain.TransferMethodWallet,
		requesterID:      intent.RequesterID,
		senderAccountID:  intent.SenderAccountID,
		receiverWorkerID: strings.TrimSpace(intent.ReceiverWorkerID),
		amount:           intent.Amount,
		pin:              intent.Pin,
		description:      intent.Description,
		idempotencyKey:   intent.IdempotencyKey,
		ipAddress:        intent.IPAddress,
		requestID:        intent.RequestID,
		feeType:          s.Settings.WalletFeeType,
	})
}

func (s *transferService) TransferToNonWallet(ctx context.Context, intent domain.NonWalletTransferIntent) (*domain.TransferResult, error) {
	started := time.Now()
	if err := domain.Validate(intent); err != nil {
		return nil, s.failed(domain.TransferMethodNonWallet, started, err)
	}
	recipient := intent.Recipient
	return s.execute(ctx, started, transferPlan{
		method:          domain.TransferMethodNonWallet,
		requesterID:     intent.RequesterID,
		senderAccountID: intent.SenderAccountID,
		recipient:       &recipient,
		amount:          intent.Amount,
		pin:             intent.Pin,
		description:     intent.Description,
		idempotencyKey:  intent.IdempotencyKey,
		ipAddress:       intent.IPAddress,
		requestID:       intent.RequestID,
		feeType:         s.Settings.NonWalletFeeType,
	})
}

func (s *transferService) execute(ctx context.Context, started time.Time, plan transferPlan) (*domain.TransferResult, error) {
	if plan.idempotencyKey != "" {
		prior, err := s.replay(ctx, plan)
		if err != nil {
			return nil, s.failed(plan.method, started, err)
		}
		if prior != nil {
			s.Metrics.ObserveTransfer(string(plan.method), metrics.OutcomeReplayed, started)
			return prior, nil
		}
	}

	resolved, err := s.resolve(ctx, plan)
	if err != nil {
		return nil, s.failed(plan.method, started, err)
	}

	result, err := s.commit(ctx, resolved)
	if errors.Is(err, errKeyTaken) {
		prior, replayErr := s.replay(ctx, plan)
		if replayErr != nil {
			return nil, s.failed(plan.method, started, replayErr)
		}
		if prior == nil {
			return nil, s.failed(plan.method, started, util.ErrIdempotencyConflict)
		}
		s.Metrics.ObserveTransfer(string(plan.method), metrics.OutcomeReplayed, started)
		return prior, nil
	}
	if err != nil {
		return nil, s.failed(plan.method, started, err)
	}

	if plan.idempotencyKey != "" {
		if err := s.Cache.Put(ctx, plan.idempotencyKey, result.TransactionID, s.Settings.IdempotencyTTL); err != nil {
			s.Logger.Warn("idempotency cache write failed", zap.Int64("transaction_id", result.TransactionID), zap.Error(err))
		}
	}
	s.Delivery.Trigger()
	s.Metrics.ObserveTransfer(string(plan.method), metrics.OutcomeSuccess, started)
	s.Logger.Info("transfer completed",
		zap.Int64("transaction_id", result.TransactionID),
		zap.String("transfer_method", string(plan.method)),
		zap.Int64("sender_account_id", plan.senderAccountID),
		zap.String("amount", result.Amount.StringFixed(2)),
		zap.String("fee", result.Fee.StringFixed(2)),
		zap.String("currency", result.Currency),
	)
	return result, nil
}

// replay returns the earlier result for the plan's idempotency key, or nil when the key is unused.
func (s *transferService) replay(ctx context.Context, plan transferPlan) (*domain.TransferResult, error) {
	txID, found, err := s.Cache.Get(ctx, plan.idempotencyKey)
	if err != nil {
		s.Logger.Warn("idempotency cache read failed", zap.Error(err))
		found = false
	}
	if !found {
		key, err := s.Idempotency.GetActive(ctx, s.DBExecutor, plan.idempotencyKey)
		if err != nil {
			if util.IsError(err, util.ErrNotFound) {
				return nil, nil
			}
			return nil, fmt.Errorf("idempotency lookup: %w", err)
		}
		txID = key.TransactionID
	}

	ledger, err := s.Transactions.GetByTransactionID(ctx, s.DBExecutor, txID)
	if err != nil {
		if util.IsError(err, util.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load replayed transaction %d: %w", txID, err)
	}
	if !ledger.IsSender(plan.requesterID) {
		return nil, util.NewError(util.KindUnauthorized, "idempotency key belongs to another user")
	}

	result, err := s.buildResult(ctx, s.DBExecutor, ledger)
	if err != nil {
		return nil, err
	}
	result.Replayed = true
	return result, nil
}

// resolve loads and authorizes both parties without taking locks.
func (s *transferService) resolve(ctx context.Context, plan transferPlan) (*resolvedTransfer, error) {
	sender, err := s.Accounts.GetAccountByID(ctx, s.DBExecutor, plan.senderAccountID)
	if err != nil {
		return nil, accountErr(err, plan.senderAccountID)
	}
	if !sender.OwnedBy(plan.requesterID) || sender.IsSystem {
		return nil, util.NewError(util.KindUnauthorized, fmt.Sprintf("account %d does not belong to the requester", sender.ID))
	}

	senderUser, err := s.Users.GetUserByID(ctx, s.DBExecutor, sender.UserID)
	if err != nil {
		return nil, userErr(err, sender.UserID)
	}
	if !s.Pins.VerifyPin(senderUser, plan.pin) {
		return nil, util.ErrInvalidPin
	}

	entry, hasEntry := s.Currencies.Lookup(sender.Currency)
	r := &resolvedTransfer{transferPlan: plan, sender: sender, senderUser: senderUser}

	switch plan.method {
	case domain.TransferMethodWallet:
		if plan.receiverWorkerID != "" {
			accountID, err := s.workerAccountID(ctx, plan.receiverWorkerID, sender.Currency)
			if err != nil {
				return nil, err
			}
			if accountID == sender.ID {
				return nil, util.NewError(util.KindInvalidInput, "sender and receiver accounts must differ")
			}
			r.receiverAccountID = accountID
		}
		receiver, err := s.Accounts.GetAccountByID(ctx, s.DBExecutor, r.receiverAccountID)
		if err != nil {
			return nil, accountErr(err, r.receiverAccountID)
		}
		if receiver.IsSystem {
			return nil, util.NewError(util.KindInvalidInput, "cannot transfer to a system account")
		}
		if receiver.Currency != sender.Currency {
			return nil, util.NewError(util.KindCurrencyMismatch,
				fmt.Sprintf("sender currency %s does not match receiver currency %s", sender.Currency, receiver.Currency))
		}
		receiverUser, err := s.Users.GetUserByID(ctx, s.DBExecutor, receiver.UserID)
		if err != nil {
			return nil, userErr(err, receiver.UserID)
		}
		r.receiverUser = receiverUser
		r.creditAccountID = receiver.ID

	case domain.TransferMethodNonWallet:
		if !hasEntry {
			return nil, util.NewError(util.KindCurrencyMismatch, fmt.Sprintf("payouts are not supported for %s", sender.Currency))
		}
		if cur, ok := s.Currencies.CurrencyForCountry(plan.recipient.Country); ok && cur != sender.Currency {
			return nil, util.NewError(util.KindCurrencyMismatch,
				fmt.Sprintf("recipient country %s pays out in %s, not %s", plan.recipient.Country, cur, sender.Currency))
		}
		r.creditAccountID = entry.ClearingAccountID
	}

	if !hasEntry || entry.FeeAccountID == 0 {
		return nil, util.NewError(util.KindFeeConfigurationNotFound, fmt.Sprintf("no fee account configured for %s", sender.Currency))
	}
	r.feeAccountID = entry.FeeAccountID
	return r, nil
}

// workerAccountID finds the account the worker's user holds in currency.
func (s *transferService) workerAccountID(ctx context.Context, workerID, currency string) (int64, error) {
	user, err := s.Users.GetUserByWorkerID(ctx, s.DBExecutor, workerID)
	if err != nil {
		if util.IsError(err, util.ErrNotFound) {
			return 0, util.NewError(util.KindUserNotFound, fmt.Sprintf("no user with worker ID %s", workerID))
		}
		return 0, fmt.Errorf("load user by worker ID: %w", err)
	}
	account, err := s.Accounts.GetAccountByUserAndCurrency(ctx, s.DBExecutor, user.ID, currency)
	if err != nil {
		if util.IsError(err, util.ErrNotFound) {
			return 0, util.NewError(util.KindAccountNotFound, fmt.Sprintf("worker %s has no %s account", workerID, currency))
		}
		return 0, fmt.Errorf("load %s account of user %d: %w", currency, user.ID, err)
	}
	return account.ID, nil
}

// commit runs the atomic unit: locks, fee, balance and limit checks, ledger writes,
// audit and notification enqueue.
func (s *transferService) commit(ctx context.Context, r *resolvedTransfer) (*domain.TransferResult, error) {
	txController, err := s.BeginTx(ctx, s.DBBeginner)
	if err != nil {
		return nil, fmt.Errorf("transfer: failed to begin transaction: %w", err)
	}
	defer s.RollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return nil, fmt.Errorf("transfer: transaction controller does not implement DBExecutor")
	}

	locked, err := s.Accounts.LockAccounts(ctx, txExecutor, lockOrder(r.sender.ID, r.creditAccountID, r.feeAccountID))
	if err != nil {
		return nil, fmt.Errorf("transfer: failed to lock accounts: %w", err)
	}
	// A duplicate that waited on the locks sees the winner's committed key here.
	if r.idempotencyKey != "" {
		_, err := s.Idempotency.GetActive(ctx, txExecutor, r.idempotencyKey)
		if err == nil {
			return nil, errKeyTaken
		}
		if !util.IsError(err, util.ErrNotFound) {
			return nil, fmt.Errorf("transfer: idempotency lookup: %w", err)
		}
	}

	sender, ok := locked[r.sender.ID]
	if !ok {
		return nil, util.NewError(util.KindAccountNotFound, fmt.Sprintf("account %d not found", r.sender.ID))
	}
	credit, ok := locked[r.creditAccountID]
	if !ok {
		if r.method == domain.TransferMethodWallet {
			return nil, util.NewError(util.KindAccountNotFound, fmt.Sprintf("account %d not found", r.creditAccountID))
		}
		return nil, fmt.Errorf("transfer: clearing account %d for %s is missing", r.creditAccountID, sender.Currency)
	}
	if _, ok := locked[r.feeAccountID]; !ok {
		return nil, fmt.Errorf("transfer: fee account %d for %s is missing", r.feeAccountID, sender.Currency)
	}
	if credit.Currency != sender.Currency {
		return nil, util.NewError(util.KindCurrencyMismatch,
			fmt.Sprintf("sender currency %s does not match credited account currency %s", sender.Currency, credit.Currency))
	}

	quote, err := s.Fees.Quote(ctx, txExecutor, r.feeType, sender.Currency, r.amount)
	if err != nil {
		return nil, err
	}
	total := r.amount.Add(quote.Amount)
	if !sender.CanCover(total) {
		return nil, util.NewError(util.KindInsufficientFunds,
			fmt.Sprintf("balance %s is below the required %s", sender.Balance.StringFixed(2), total.StringFixed(2)))
	}

	limitCheck, err := s.Limits.Check(ctx, txExecutor, sender.UserID, r.amount)
	if err != nil {
		return nil, err
	}

	transactionID, err := s.Transactions.NextTransactionID(ctx, txExecutor)
	if err != nil {
		return nil, fmt.Errorf("transfer: failed to allocate transaction id: %w", err)
	}

	var description *string
	if r.description != "" {
		d := r.description
		description = &d
	}
	ledger := domain.NewPendingTransaction(transactionID, sender, credit, r.amount, quote.Amount, r.method, description)
	if err := s.Transactions.CreateTransaction(ctx, txExecutor, ledger); err != nil {
		return nil, fmt.Errorf("transfer: failed to create transaction: %w", err)
	}

	if r.idempotencyKey != "" {
		now := s.now().UTC()
		err := s.Idempotency.Reserve(ctx, txExecutor, &domain.IdempotencyKey{
			Key:           r.idempotencyKey,
			TransactionID: transactionID,
			ExpiresAt:     now.Add(s.Settings.IdempotencyTTL),
			CreatedAt:     now,
		})
		if util.IsError(err, util.ErrIdempotencyConflict) {
			return nil, errKeyTaken
		}
		if err != nil {
			return nil, fmt.Errorf("transfer: failed to reserve idempotency key: %w", err)
		}
	}

	if err := s.Accounts.AdjustBalance(ctx, txExecutor, sender.ID, total.Neg()); err != nil {
		return nil, fmt.Errorf("transfer: failed to debit sender: %w", err)
	}
	if err := s.Accounts.AdjustBalance(ctx, txExecutor, credit.ID, r.amount); err != nil {
		return nil, fmt.Errorf("transfer: failed to credit account %d: %w", credit.ID, err)
	}
	if quote.Amount.IsPositive() {
		if err := s.Accounts.AdjustBalance(ctx, txExecutor, r.feeAccountID, quote.Amount); err != nil {
			return nil, fmt.Errorf("transfer: failed to credit fee account: %w", err)
		}
	}

	if err := s.Fees.Record(ctx, txExecutor, quote, transactionID); err != nil {
		return nil, fmt.Errorf("transfer: failed to record fee: %w", err)
	}
	if err := s.Limits.Record(ctx, txExecutor, limitCheck, transactionID); err != nil {
		return nil, fmt.Errorf("transfer: %w", err)
	}

	var recipient *domain.ExternalRecipient
	if r.method == domain.TransferMethodNonWallet {
		recipient = newRecipient(transactionID, r.recipient)
		if err := s.Recipients.CreateRecipient(ctx, txExecutor, recipient); err != nil {
			return nil, fmt.Errorf("transfer: failed to store recipient: %w", err)
		}
	}

	completedAt := s.now().UTC()
	ledger.Status = domain.TransactionStatusCompleted
	ledger.CompletedAt = &completedAt
	ledger.Metadata = s.metadata(r, sender, credit, total)
	if err := s.Transactions.MarkCompleted(ctx, txExecutor, transactionID, completedAt, ledger.Metadata); err != nil {
		return nil, fmt.Errorf("transfer: failed to complete transaction: %w", err)
	}

	if recipient != nil {
		if err := s.Recipients.UpdateStage(ctx, txExecutor, transactionID, domain.StageProcessing); err != nil {
			return nil, fmt.Errorf("transfer: failed to advance disbursement stage: %w", err)
		}
		recipient.Stage = domain.StageProcessing
	}

	action := domain.AuditTransferCompleted
	if r.method == domain.TransferMethodNonWallet {
		action = domain.AuditNonWalletTransferCompleted
	}
	s.Audit.Record(ctx, txExecutor, transactionID, action, r.requesterID, r.ipAddress, domain.JSONMap{
		domain.MetaRequestID:           ledger.Metadata.String(domain.MetaRequestID),
		"amount":                       r.amount.StringFixed(2),
		"fee":                          quote.Amount.StringFixed(2),
		"total_amount":                 total.StringFixed(2),
		"currency":                     sender.Currency,
		domain.MetaSenderBalanceBefore: sender.Balance.StringFixed(2),
		domain.MetaSenderBalanceAfter:  sender.Balance.Sub(total).StringFixed(2),
	})

	notice := notification.TransferNotice{
		TransactionID: transactionID,
		Method:        r.method,
		Amount:        r.amount,
		Fee:           quote.Amount,
		Currency:      sender.Currency,
		Sender:        r.senderUser,
		Receiver:      r.receiverUser,
		CompletedAt:   completedAt,
		RequestID:     ledger.Metadata.String(domain.MetaRequestID),
	}
	if r.recipient != nil {
		notice.RecipientName = r.recipient.FullName
		notice.RecipientPhone = r.recipient.PhoneNumber
	}
	if _, err := s.Enqueuer.EnqueueTransfer(ctx, txExecutor, notice); err != nil {
		return nil, fmt.Errorf("transfer: %w", err)
	}

	if err := s.CommitTx(txController); err != nil {
		return nil, fmt.Errorf("transfer: failed to commit transaction: %w", err)
	}

	return domain.NewTransferResult(ledger, recipient), nil
}

func (s *transferService) metadata(r *resolvedTransfer, sender, credit *domain.Account, total decimal.Decimal) domain.JSONMap {
	meta := domain.JSONMap{
		domain.MetaTransferMethod:        string(r.method),
		domain.MetaSenderName:            r.senderUser.DisplayName(),
		domain.MetaSenderBalanceBefore:   sender.Balance.StringFixed(2),
		domain.MetaSenderBalanceAfter:    sender.Balance.Sub(total).StringFixed(2),
		domain.MetaReceiverBalanceBefore: credit.Balance.StringFixed(2),
		domain.MetaReceiverBalanceAfter:  credit.Balance.Add(r.amount).StringFixed(2),
		domain.MetaRequestID:             r.requestID,
	}
	if r.requestID == "" {
		meta[domain.MetaRequestID] = uuid.NewString()
	}
	if r.receiverUser != nil {
		meta[domain.MetaRecipientName] = r.receiverUser.DisplayName()
	}
	if r.receiverWorkerID != "" {
		meta[domain.MetaReceiverWorkerID] = r.receiverWorkerID
	}
	if r.recipient != nil {
		meta[domain.MetaRecipientName] = r.recipient.FullName
		meta[domain.MetaRecipientPhone] = r.recipient.PhoneNumber
	}
	return meta
}

func (s *transferService) GetStatus(ctx context.Context, requesterID, transactionID int64) (*domain.TransferResult, error) {
	ledger, err := s.Transactions.GetByTransactionID(ctx, s.DBExecutor, transactionID)
	if err != nil {
		return nil, transactionErr(err, transactionID)
	}
	if !ledger.IsSender(requesterID) {
		return nil, util.NewError(util.KindUnauthorized, "transaction was not sent by the requester")
	}
	return s.buildResult(ctx, s.DBExecutor, ledger)
}

func (s *transferService) ListTransactions(ctx context.Context, requesterID, accountID int64, limit, offset int) ([]domain.Transaction, int64, error) {
	account, err := s.Accounts.GetAccountByID(ctx, s.DBExecutor, accountID)
	if err != nil {
		return nil, 0, accountErr(err, accountID)
	}
	if !account.OwnedBy(requesterID) {
		return nil, 0, util.NewError(util.KindUnauthorized, fmt.Sprintf("account %d does not belong to the requester", accountID))
	}

	limit, offset = PageBounds(limit, offset)
	transactions, total, err := s.Transactions.ListByAccountID(ctx, s.DBExecutor, accountID, limit, offset)
	if err != nil {
		return nil, 0, util.WrapError(util.KindTransferFailed, "failed to retrieve transaction history", err)
	}
	return transactions, total, nil
}

// PageBounds applies the default and maximum page size and clamps a negative offset.
func PageBounds(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func (s *transferService) UpdateDisbursementStage(ctx context.Context, actorID, transactionID int64, stage domain.DisbursementStage, ipAddress string) (*domain.TransferResult, error) {
	if !s.operators[actorID] {
		return nil, util.NewError(util.KindUnauthorized, "only operators may change a disbursement stage")
	}
	if _, ok := domain.ParseDisbursementStage(string(stage)); !ok {
		return nil, util.NewError(util.KindInvalidInput, fmt.Sprintf("unknown disbursement stage %q", stage))
	}

	txController, err := s.BeginTx(ctx, s.DBBeginner)
	if err != nil {
		return nil, util.WrapError(util.KindTransferFailed, "stage update: failed to begin transaction", err)
	}
	defer s.RollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return nil, util.NewError(util.KindTransferFailed, "stage update: transaction controller does not implement DBExecutor")
	}

	ledger, err := s.Transactions.GetByTransactionID(ctx, txExecutor, transactionID)
	if err != nil {
		return nil, transactionErr(err, transactionID)
	}
	if ledger.Method != domain.TransferMethodNonWallet {
		return nil, util.NewError(util.KindInvalidStageTransition, "only non-wallet transfers have a disbursement stage")
	}

	recipient, err := s.Recipients.LockByTransactionID(ctx, txExecutor, transactionID)
	if err != nil {
		return nil, transactionErr(err, transactionID)
	}
	from := recipient.Stage
	if !from.CanTransitionTo(stage) {
		return nil, util.NewError(util.KindInvalidStageTransition, fmt.Sprintf("cannot move disbursement from %s to %s", from, stage))
	}

	if err := s.Recipients.UpdateStage(ctx, txExecutor, transactionID, stage); err != nil {
		return nil, util.WrapError(util.KindTransferFailed, "stage update failed", err)
	}
	s.Audit.Record(ctx, txExecutor, transactionID, domain.AuditDisbursementStageChanged, actorID, ipAddress, domain.JSONMap{
		"from": string(from),
		"to":   string(stage),
	})

	if err := s.CommitTx(txController); err != nil {
		return nil, util.WrapError(util.KindTransferFailed, "stage update: failed to commit transaction", err)
	}

	recipient.Stage = stage
	s.Logger.Info("disbursement stage changed",
		zap.Int64("transaction_id", transactionID),
		zap.String("from", string(from)),
		zap.String("to", string(stage)),
		zap.Int64("actor_id", actorID),
	)
	return domain.NewTransferResult(ledger, recipient), nil
}

func (s *transferService) buildResult(ctx context.Context, q repository.DBExecutor, ledger *domain.Transaction) (*domain.TransferResult, error) {
	if ledger.Method != domain.TransferMethodNonWallet {
		return domain.NewTransferResult(ledger, nil), nil
	}
	recipient, err := s.Recipients.GetByTransactionID(ctx, q, ledger.TransactionID)
	if err != nil {
		if util.IsError(err, util.ErrNotFound) {
			return domain.NewTransferResult(ledger, nil), nil
		}
		return nil, fmt.Errorf("load recipient for transaction %d: %w", ledger.TransactionID, err)
	}
	return domain.NewTransferResult(ledger, recipient), nil
}

// failed converts err to an AppError, records the outcome and logs it.
func (s *transferService) failed(method domain.TransferMethod, started time.Time, err error) error {
	var appErr *util.AppError
	if !errors.As(err, &appErr) {
		appErr = util.WrapError(util.KindTransferFailed, "transfer failed", err)
	}

	if appErr.Kind == util.KindTransferFailed {
		s.Metrics.ObserveTransfer(string(method), metrics.OutcomeError, started)
		s.Logger.Error("transfer failed", zap.String("transfer_method", string(method)), zap.Error(err))
	} else {
		s.Metrics.ObserveTransfer(string(method), metrics.OutcomeRejected, started)
		s.Logger.Info("transfer rejected",
			zap.String("transfer_method", string(method)),
			zap.String("kind", appErr.Kind.String()),
			zap.String("reason", appErr.Message))
	}
	return appErr
}

func newRecipient(transactionID int64, d *domain.RecipientDetails) *domain.ExternalRecipient {
	now := time.Now().UTC()
	return &domain.ExternalRecipient{
		TransactionID:  transactionID,
		FullName:       d.FullName,
		IDDocumentType: d.IDDocumentType,
		IDNumber:       d.IDNumber,
		PhoneNumber:    d.PhoneNumber,
		Email:          optional(d.Email),
		Country:        d.Country,
		State:          optional(d.State),
		City:           optional(d.City),
		Relationship:   optional(d.Relationship),
		Stage:          domain.StageInitiated,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// lockOrder returns the distinct ids in ascending order so concurrent transfers
// always acquire row locks in the same sequence.
func lockOrder(ids ...int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func accountErr(err error, id int64) error {
	if util.IsError(err, util.ErrNotFound) {
		return util.NewError(util.KindAccountNotFound, fmt.Sprintf("account %d not found", id))
	}
	return fmt.Errorf("load account %d: %w", id, err)
}

func userErr(err error, id int64) error {
	if util.IsError(err, util.ErrNotFound) {
		return util.NewError(util.KindUserNotFound, fmt.Sprintf("user %d not found", id))
	}
	return fmt.Errorf("load user %d: %w", id, err)
}

func transactionErr(err error, id int64) error {
	if util.IsError(err, util.ErrNotFound) {
		return util.NewError(util.KindTransactionNotFound, fmt.Sprintf("transaction %d not found", id))
	}
	return util.WrapError(util.KindTransferFailed, fmt.Sprintf("load transaction %d", id), err)
}
