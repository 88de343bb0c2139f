// internal/notification/channels.go
package notification

import (
	"context"

	"go.uber.org/zap"

	"remitflow-wallet/internal/util"
)

// SmsSender delivers a text message to an E.164 phone number.
type SmsSender interface {
	SendSms(ctx context.Context, phoneNumber, message string) error
}

// PushResult is the outcome of delivering to one device token.
type PushResult int

const (
	PushSuccess PushResult = iota
	PushTokenInvalid
	PushFailed
)

func (r PushResult) String() string {
	switch r {
	case PushSuccess:
		return "success"
	case PushTokenInvalid:
		return "token_invalid"
	case PushFailed:
		return "failed"
	}
	return "unknown"
}

// PushSender delivers a push message to one device token.
type PushSender interface {
	SendPush(ctx context.Context, token, title, body string, data map[string]string) PushResult
}

// EmailSender delivers an email.
type EmailSender interface {
	SendEmail(ctx context.Context, address, subject, body string) error
}

// LogSmsSender writes messages to the log instead of a provider.
type LogSmsSender struct {
	Logger *zap.Logger
}

func (s LogSmsSender) SendSms(_ context.Context, phoneNumber, message string) error {
	s.Logger.Info("sms delivered to log",
		zap.String("phone", util.MaskPhone(phoneNumber)),
		zap.Int("length", len(message)))
	return nil
}

// LogPushSender writes push messages to the log instead of a provider.
type LogPushSender struct {
	Logger *zap.Logger
}

func (s LogPushSender) SendPush(_ context.Context, token, title, _ string, data map[string]string) PushResult {
	s.Logger.Info("push delivered to log",
		zap.String("token_suffix", tokenSuffix(token)),
		zap.String("title", title),
		zap.Any("data", data))
	return PushSuccess
}

// LogEmailSender writes emails to the log instead of a mail server.
type LogEmailSender struct {
	Logger *zap.Logger
}

func (s LogEmailSender) SendEmail(_ context.Context, address, subject, _ string) error {
	s.Logger.Info("email delivered to log",
		zap.String("address_domain", emailDomain(address)),
		zap.String("subject", subject))
	return nil
}

func tokenSuffix(token string) string {
	if len(token) <= 6 {
		return token
	}
	return token[len(token)-6:]
}

func emailDomain(address string) string {
	for i := len(address) - 1; i >= 0; i-- {
		if address[i] == '@' {
			return address[i+1:]
		}
	}
	return ""
}
