// internal/notification/enqueuer.go
package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"remitflow-wallet/internal/domain"
	"remitflow-wallet/internal/repository"
)

// TransferNotice describes a completed transfer for the notification builder.
type TransferNotice struct {
	TransactionID  int64
	Method         domain.TransferMethod
	Amount         decimal.Decimal
	Fee            decimal.Decimal
	Currency       string
	Sender         *domain.User
	Receiver       *domain.User // wallet transfers only
	RecipientName  string       // non-wallet transfers only
	RecipientPhone string       // non-wallet transfers only
	CompletedAt    time.Time
	RequestID      string // correlates queued rows with the originating request
}

// Enqueuer writes notification intents inside the caller's transaction.
type Enqueuer struct {
	queue         repository.NotificationRepository
	emailReceipts bool
}

func NewEnqueuer(queue repository.NotificationRepository, emailReceipts bool) *Enqueuer {
	return &Enqueuer{queue: queue, emailReceipts: emailReceipts}
}

// EnqueueTransfer queues every message a transfer produces and returns how many were queued.
func (e *Enqueuer) EnqueueTransfer(ctx context.Context, q repository.DBExecutor, n TransferNotice) (int, error) {
	intents := e.Build(n)
	for _, intent := range intents {
		if n.RequestID != "" {
			id := n.RequestID
			intent.RequestID = &id
		}
		if err := e.queue.Enqueue(ctx, q, intent); err != nil {
			return 0, fmt.Errorf("enqueue %s notification for transaction %d: %w", intent.ChannelName, n.TransactionID, err)
		}
	}
	return len(intents), nil
}

// Build returns the intents for n without persisting them.
func (e *Enqueuer) Build(n TransferNotice) []*domain.NotificationIntent {
	amount := n.Amount.StringFixed(2)
	when := n.CompletedAt.UTC().Format("2006-01-02 15:04")
	senderName := n.Sender.DisplayName()

	var intents []*domain.NotificationIntent
	switch n.Method {
	case domain.TransferMethodWallet:
		receiverName := n.Receiver.DisplayName()
		intents = append(intents,
			domain.NewUserNotification(n.Sender.ID, domain.ChannelPush, "Transfer Sent",
				fmt.Sprintf("You have sent %s %s to %s", amount, n.Currency, receiverName), n.TransactionID),
			domain.NewUserNotification(n.Receiver.ID, domain.ChannelPush, "Transfer Received",
				fmt.Sprintf("You have received %s %s from %s", amount, n.Currency, senderName), n.TransactionID),
			domain.NewUserNotification(n.Receiver.ID, domain.ChannelSMS, "Transfer Received",
				fmt.Sprintf("Hello %s, you received %s %s from %s at %s. Transaction id is %d",
					receiverName, amount, n.Currency, senderName, when, n.TransactionID), n.TransactionID),
		)
	case domain.TransferMethodNonWallet:
		intents = append(intents,
			domain.NewUserNotification(n.Sender.ID, domain.ChannelPush, "Payment Sent",
				fmt.Sprintf("You Sent %s %s to %s", amount, n.Currency, n.RecipientName), n.TransactionID),
			domain.NewUserNotification(n.Sender.ID, domain.ChannelSMS, "Payment Sent",
				fmt.Sprintf("Hello %s, you sent %s %s to %s at %s. Transaction id is %d",
					senderName, amount, n.Currency, n.RecipientName, when, n.TransactionID), n.TransactionID),
			domain.NewPhoneNotification(n.RecipientPhone, "Money Received",
				fmt.Sprintf("Hello %s, you received %s %s from %s at %s. Transaction id is %d",
					n.RecipientName, amount, n.Currency, senderName, when, n.TransactionID), n.TransactionID),
		)
	}

	if e.emailReceipts && n.Sender.EmailAddress() != "" {
		intents = append(intents, domain.NewUserNotification(n.Sender.ID, domain.ChannelEmail, "Transfer Receipt",
			fmt.Sprintf("Transaction %d\nAmount: %s %s\nFee: %s %s\nTotal: %s %s\nDate: %s",
				n.TransactionID, amount, n.Currency, n.Fee.StringFixed(2), n.Currency,
				n.Amount.Add(n.Fee).StringFixed(2), n.Currency, when), n.TransactionID))
	}
	return intents
}
