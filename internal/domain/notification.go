// internal/domain/notification.go
package domain

import (
	"strings"
	"time"
)

// Channel is a closed set of delivery channels.
type Channel int

const (
	ChannelUnknown Channel = iota
	ChannelSMS
	ChannelPush
	ChannelEmail
)

// ParseChannel maps a stored channel name to a Channel; unrecognised names give ChannelUnknown.
// "FCM" is accepted as an alias for PUSH.
func ParseChannel(name string) Channel {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "SMS":
		return ChannelSMS
	case "PUSH", "FCM":
		return ChannelPush
	case "EMAIL":
		return ChannelEmail
	}
	return ChannelUnknown
}

func (c Channel) String() string {
	switch c {
	case ChannelSMS:
		return "SMS"
	case ChannelPush:
		return "PUSH"
	case ChannelEmail:
		return "EMAIL"
	case ChannelUnknown:
		return "UNKNOWN"
	}
	return "UNKNOWN"
}

// NotificationStatus is the delivery state of a queued intent.
type NotificationStatus string

const (
	NotificationPending NotificationStatus = "PENDING"
	NotificationSent    NotificationStatus = "SENT"
	NotificationFailed  NotificationStatus = "FAILED" // Retries exhausted or no target
	NotificationError   NotificationStatus = "ERROR"  // Unresolvable channel
)

// NotificationIntent is a queued request to deliver a message.
// The recipient is either a user (UserID) or a raw phone number (RecipientPhone).
type NotificationIntent struct {
	ID             int64              `db:"id" json:"id"`
	UserID         *int64             `db:"user_id" json:"user_id,omitempty"`
	RecipientPhone *string            `db:"recipient_phone" json:"-"`
	ChannelName    string             `db:"channel" json:"channel"`
	Subject        string             `db:"subject" json:"subject"`
	Content        string             `db:"content" json:"content"`
	TransactionID  *int64             `db:"transaction_id" json:"transaction_id,omitempty"`
	RequestID      *string            `db:"request_id" json:"request_id,omitempty"`
	Status         NotificationStatus `db:"status" json:"status"`
	RetryCount     int                `db:"retry_count" json:"retry_count"`
	NextRetryAt    time.Time          `db:"next_retry_at" json:"next_retry_at"`
	ErrorMessage   *string            `db:"error_message" json:"error_message,omitempty"`
	CreatedAt      time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time          `db:"updated_at" json:"updated_at"`
}

// Channel resolves the stored channel name.
func (n *NotificationIntent) Channel() Channel {
	return ParseChannel(n.ChannelName)
}

// NewUserNotification builds a PENDING intent addressed to a user, due immediately.
func NewUserNotification(userID int64, channel Channel, subject, content string, transactionID int64) *NotificationIntent {
	now := time.Now().UTC()
	uid, txID := userID, transactionID
	return &NotificationIntent{
		UserID:        &uid,
		ChannelName:   channel.String(),
		Subject:       subject,
		Content:       content,
		TransactionID: &txID,
		Status:        NotificationPending,
		NextRetryAt:   now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// NewPhoneNotification builds a PENDING SMS intent addressed to a raw phone number.
func NewPhoneNotification(phone, subject, content string, transactionID int64) *NotificationIntent {
	now := time.Now().UTC()
	p, txID := phone, transactionID
	return &NotificationIntent{
		RecipientPhone: &p,
		ChannelName:    ChannelSMS.String(),
		Subject:        subject,
		Content:        content,
		TransactionID:  &txID,
		Status:         NotificationPending,
		NextRetryAt:    now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// PushToken is a device registration for push delivery.
type PushToken struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	Token     string    `db:"token"`
	Platform  string    `db:"platform"`
	IsActive  bool      `db:"is_active"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
