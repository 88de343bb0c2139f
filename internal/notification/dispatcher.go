// internal/notification/dispatcher.go
package notification

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"remitflow-wallet/internal/domain"
	"remitflow-wallet/internal/metrics"
	"remitflow-wallet/internal/repository"
	"remitflow-wallet/internal/util"
)

// DispatcherConfig controls polling and retry behaviour.
type DispatcherConfig struct {
	PollInterval       time.Duration
	BatchSize          int
	MaxAttempts        int
	BackoffBase        time.Duration
	DefaultCountryCode string
}

// DefaultDispatcherConfig returns the production defaults.
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		PollInterval:       5 * time.Second,
		BatchSize:          100,
		MaxAttempts:        3,
		BackoffBase:        5 * time.Minute,
		DefaultCountryCode: "+256",
	}
}

// Channels groups the delivery adapters.
type Channels struct {
	SMS   SmsSender
	Push  PushSender
	Email EmailSender
}

// errNoTarget marks an intent that cannot be addressed; it is never retried.
var errNoTarget = errors.New("no delivery target")

// Dispatcher drains the notification queue on a timer and on demand.
type Dispatcher struct {
	db       repository.DBExecutor
	queue    repository.NotificationRepository
	users    repository.UserRepository
	tokens   repository.PushTokenRepository
	channels Channels
	config   DispatcherConfig
	metrics  *metrics.Registry
	logger   *zap.Logger
	now      func() time.Time

	trigger chan struct{}
	flushMu sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewDispatcher(
	db repository.DBExecutor,
	queue repository.NotificationRepository,
	users repository.UserRepository,
	tokens repository.PushTokenRepository,
	channels Channels,
	config DispatcherConfig,
	registry *metrics.Registry,
	logger *zap.Logger,
) *Dispatcher {
	return &Dispatcher{
		db:       db,
		queue:    queue,
		users:    users,
		tokens:   tokens,
		channels: channels,
		config:   config,
		metrics:  registry,
		logger:   logger,
		now:      time.Now,
		trigger:  make(chan struct{}, 1),
	}
}

// Start launches the worker goroutine. It returns immediately.
func (d *Dispatcher) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	d.wg.Add(1)
	go d.loop(ctx)

	d.logger.Info("notification dispatcher started",
		zap.Int("batch_size", d.config.BatchSize),
		zap.Duration("poll_interval", d.config.PollInterval),
	)
	return nil
}

// Stop cancels the worker and waits for the in-flight flush, bounded by ctx.
func (d *Dispatcher) Stop(ctx context.Context) error {
	if d.cancel != nil {
		d.cancel()
	}

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.logger.Info("notification dispatcher stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Trigger asks the worker to flush soon. It never blocks; repeated calls
// before the worker wakes up collapse into one flush.
func (d *Dispatcher) Trigger() {
	select {
	case d.trigger <- struct{}{}:
	default:
	}
}

func (d *Dispatcher) loop(ctx context.Context) {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-d.trigger:
		}
		if _, err := d.FlushNow(ctx); err != nil && ctx.Err() == nil {
			d.logger.Error("notification flush failed", zap.Error(err))
		}
	}
}

// FlushNow delivers every due intent synchronously and returns how many were processed.
// Flushes are serialized; a concurrent caller waits for the running one.
func (d *Dispatcher) FlushNow(ctx context.Context) (int, error) {
	d.flushMu.Lock()
	defer d.flushMu.Unlock()

	due, err := d.queue.FetchDue(ctx, d.db, d.now().UTC(), d.config.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("fetch due notifications: %w", err)
	}
	d.metrics.ObserveBatch(len(due))

	for i := range due {
		if ctx.Err() != nil {
			return i, ctx.Err()
		}
		d.process(ctx, &due[i])
	}
	return len(due), nil
}

func (d *Dispatcher) process(ctx context.Context, intent *domain.NotificationIntent) {
	channel := intent.Channel()
	log := d.logger.With(
		zap.Int64("notification_id", intent.ID),
		zap.String("channel", intent.ChannelName),
		zap.Int("retry_count", intent.RetryCount),
	)
	if intent.RequestID != nil {
		log = log.With(zap.String("request_id", *intent.RequestID))
	}

	if channel == domain.ChannelUnknown {
		d.finish(ctx, intent, domain.NotificationError, fmt.Sprintf("unsupported channel %q", intent.ChannelName), log)
		return
	}

	err := d.attempt(ctx, channel, intent)
	switch {
	case err == nil:
		d.finish(ctx, intent, domain.NotificationSent, "", log)
	case errors.Is(err, errNoTarget):
		d.finish(ctx, intent, domain.NotificationFailed, err.Error(), log)
	default:
		d.retryOrFail(ctx, intent, err, log)
	}
}

// attempt runs one delivery. A panicking adapter counts as a failed attempt.
func (d *Dispatcher) attempt(ctx context.Context, channel domain.Channel, intent *domain.NotificationIntent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("channel adapter panicked: %v", r)
		}
	}()

	switch channel {
	case domain.ChannelSMS:
		return d.sendSms(ctx, intent)
	case domain.ChannelPush:
		return d.sendPush(ctx, intent)
	case domain.ChannelEmail:
		return d.sendEmail(ctx, intent)
	case domain.ChannelUnknown:
	}
	return fmt.Errorf("unsupported channel %q", intent.ChannelName)
}

func (d *Dispatcher) sendSms(ctx context.Context, intent *domain.NotificationIntent) error {
	var phone string
	if intent.RecipientPhone != nil {
		phone = *intent.RecipientPhone
	} else {
		user, err := d.lookupUser(ctx, intent)
		if err != nil {
			return err
		}
		phone = user.Phone()
	}

	phone = util.NormalizePhone(phone, d.config.DefaultCountryCode)
	if phone == "" {
		return fmt.Errorf("%w: no phone number", errNoTarget)
	}
	return d.channels.SMS.SendSms(ctx, phone, intent.Content)
}

func (d *Dispatcher) sendPush(ctx context.Context, intent *domain.NotificationIntent) error {
	if intent.UserID == nil {
		return fmt.Errorf("%w: push requires a user", errNoTarget)
	}
	tokens, err := d.tokens.ListActiveByUser(ctx, d.db, *intent.UserID)
	if err != nil {
		return fmt.Errorf("list push tokens: %w", err)
	}
	if len(tokens) == 0 {
		return fmt.Errorf("%w: user has no active push tokens", errNoTarget)
	}

	data := map[string]string{"notification_id": fmt.Sprint(intent.ID)}
	if intent.TransactionID != nil {
		data["transaction_id"] = fmt.Sprint(*intent.TransactionID)
	}

	delivered := false
	for _, token := range tokens {
		switch d.channels.Push.SendPush(ctx, token.Token, intent.Subject, intent.Content, data) {
		case PushSuccess:
			delivered = true
		case PushTokenInvalid:
			if err := d.tokens.Deactivate(ctx, d.db, token.Token); err != nil {
				d.logger.Warn("failed to deactivate push token", zap.Int64("token_id", token.ID), zap.Error(err))
			}
		case PushFailed:
		}
	}
	if !delivered {
		return errors.New("push delivery failed for every active token")
	}
	return nil
}

func (d *Dispatcher) sendEmail(ctx context.Context, intent *domain.NotificationIntent) error {
	user, err := d.lookupUser(ctx, intent)
	if err != nil {
		return err
	}
	if user.EmailAddress() == "" {
		return fmt.Errorf("%w: user has no email address", errNoTarget)
	}
	return d.channels.Email.SendEmail(ctx, user.EmailAddress(), intent.Subject, intent.Content)
}

func (d *Dispatcher) lookupUser(ctx context.Context, intent *domain.NotificationIntent) (*domain.User, error) {
	if intent.UserID == nil {
		return nil, fmt.Errorf("%w: intent has neither user nor phone", errNoTarget)
	}
	user, err := d.users.GetUserByID(ctx, d.db, *intent.UserID)
	if err != nil {
		if util.IsError(err, util.ErrNotFound) {
			return nil, fmt.Errorf("%w: user %d not found", errNoTarget, *intent.UserID)
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

func (d *Dispatcher) retryOrFail(ctx context.Context, intent *domain.NotificationIntent, cause error, log *zap.Logger) {
	intent.RetryCount++
	if intent.RetryCount >= d.config.MaxAttempts {
		d.finish(ctx, intent, domain.NotificationFailed, cause.Error(), log)
		return
	}
	intent.NextRetryAt = d.now().UTC().Add(Backoff(d.config.BackoffBase, intent.RetryCount))
	d.finish(ctx, intent, domain.NotificationPending, cause.Error(), log)
}

// Backoff returns base * 2^retryCount.
func Backoff(base time.Duration, retryCount int) time.Duration {
	return time.Duration(float64(base) * math.Pow(2, float64(retryCount)))
}

func (d *Dispatcher) finish(ctx context.Context, intent *domain.NotificationIntent, status domain.NotificationStatus, message string, log *zap.Logger) {
	intent.Status = status
	intent.UpdatedAt = d.now().UTC()
	if message != "" {
		intent.ErrorMessage = &message
	} else {
		intent.ErrorMessage = nil
	}

	if err := d.queue.SaveOutcome(ctx, d.db, intent); err != nil {
		log.Error("failed to save notification outcome", zap.String("status", string(status)), zap.Error(err))
		return
	}
	d.metrics.ObserveNotification(intent.Channel().String(), string(status))

	switch status {
	case domain.NotificationSent:
		log.Debug("notification sent")
	case domain.NotificationPending:
		log.Warn("notification delivery failed, retry scheduled",
			zap.Time("next_retry_at", intent.NextRetryAt), zap.String("error", message))
	case domain.NotificationFailed, domain.NotificationError:
		log.Warn("notification delivery abandoned", zap.String("status", string(status)), zap.String("error", message))
	}
}
