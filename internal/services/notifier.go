package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"click-merchant-api/internal/metrics"
	"click-merchant-api/internal/models"

	"go.uber.org/zap"
)

// Notification events
const (
	EventTransactionCreated = "transaction.created"
	EventTransactionPaid    = "transaction.paid"
)

// Notification is an order event for the merchant's operators
type Notification struct {
	Event         string
	TransactionID uint
	Subject       string
	Text          string
}

// Notifier delivers a notification to one channel
type Notifier interface {
	Name() string
	Notify(ctx context.Context, n Notification) error
}

// NotificationDispatcher fans notifications out to all sinks on a detached
// goroutine. Delivery failures are retried, then logged; they never reach
// the caller.
type NotificationDispatcher struct {
	sinks       []Notifier
	retryDelays []time.Duration
	timeout     time.Duration
	logger      *zap.Logger
	wg          sync.WaitGroup
}

// NewNotificationDispatcher creates a dispatcher.
// Retry schedule: 1s, 5s, 30s (3 attempts total)
func NewNotificationDispatcher(logger *zap.Logger, timeout time.Duration, sinks ...Notifier) *NotificationDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationDispatcher{
		sinks:       sinks,
		retryDelays: []time.Duration{1 * time.Second, 5 * time.Second, 30 * time.Second},
		timeout:     timeout,
		logger:      logger,
	}
}

// WithRetryDelays overrides the retry schedule; the number of delays is the
// number of attempts.
func (d *NotificationDispatcher) WithRetryDelays(delays ...time.Duration) *NotificationDispatcher {
	d.retryDelays = delays
	return d
}

// Dispatch sends n in the background and returns immediately. ctx values are
// kept but its cancellation is not, so the request finishing does not abort
// delivery.
func (d *NotificationDispatcher) Dispatch(ctx context.Context, n Notification) {
	if len(d.sinks) == 0 {
		return
	}

	detached := context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		sendCtx := detached
		if d.timeout > 0 {
			var cancel context.CancelFunc
			sendCtx, cancel = context.WithTimeout(detached, d.timeout)
			defer cancel()
		}

		for _, sink := range d.sinks {
			d.sendWithRetry(sendCtx, sink, n)
		}
	}()
}

// Wait blocks until every dispatched notification finished. Used on shutdown.
func (d *NotificationDispatcher) Wait() {
	d.wg.Wait()
}

func (d *NotificationDispatcher) sendWithRetry(ctx context.Context, sink Notifier, n Notification) {
	attempts := len(d.retryDelays)
	if attempts == 0 {
		attempts = 1
	}

	for attempt := 0; attempt < attempts; attempt++ {
		err := sink.Notify(ctx, n)
		if err == nil {
			metrics.NotificationsTotal.WithLabelValues(sink.Name(), "sent").Inc()
			d.logger.Info("notification sent",
				zap.String("sink", sink.Name()),
				zap.String("event", n.Event),
				zap.Uint("transaction_id", n.TransactionID),
				zap.Int("attempt", attempt+1))
			return
		}

		d.logger.Warn("notification failed",
			zap.String("sink", sink.Name()),
			zap.String("event", n.Event),
			zap.Uint("transaction_id", n.TransactionID),
			zap.Int("attempt", attempt+1),
			zap.Error(err))

		if attempt == attempts-1 {
			break
		}

		timer := time.NewTimer(d.retryDelays[attempt])
		select {
		case <-ctx.Done():
			timer.Stop()
			attempt = attempts
		case <-timer.C:
		}
	}

	metrics.NotificationsTotal.WithLabelValues(sink.Name(), "failed").Inc()
	d.logger.Error("notification dropped",
		zap.String("sink", sink.Name()),
		zap.String("event", n.Event),
		zap.Uint("transaction_id", n.TransactionID))
}

// NewOrderNotification describes a freshly created, unpaid transaction
func NewOrderNotification(tx *models.Transaction, product *models.Product, user *models.User) Notification {
	lines := []string{
		"🧾 Новая транзакция:",
		fmt.Sprintf("🆔 Сделка: %d", tx.ID),
		fmt.Sprintf("🆔 Продукт: %d", product.ID),
		"👤 Пользователь: ",
		fmt.Sprintf("📞 Телефон: %s", user.Phone),
		fmt.Sprintf("ℹ️ Имя: %s %s", user.FirstName, user.LastName),
		fmt.Sprintf("✈️ Страна: %s", product.Country),
		fmt.Sprintf("🌆 Город: %s", product.City),
		fmt.Sprintf("💵 Стоимость: %d", product.Price),
		"💳 Оплачено: 0",
	}
	return Notification{
		Event:         EventTransactionCreated,
		TransactionID: tx.ID,
		Subject:       fmt.Sprintf("New order #%d", tx.ID),
		Text:          strings.Join(lines, "\n"),
	}
}

// PaidNotification describes a transaction Click just confirmed. tx must
// have Product and User loaded.
func PaidNotification(tx *models.Transaction) Notification {
	lines := []string{
		"🧾 Новая транзакция:",
		fmt.Sprintf("🆔 Сделка: %d", tx.ID),
		"👤 Пользователь: ",
		fmt.Sprintf("📞 Телефон: %s", tx.User.Phone),
		fmt.Sprintf("ℹ️ Имя: %s %s", tx.User.FirstName, tx.User.LastName),
		fmt.Sprintf("✈️ Страна: %s", tx.Product.Country),
		fmt.Sprintf("🌆 Город: %s", tx.Product.City),
		"Оплачено",
	}
	return Notification{
		Event:         EventTransactionPaid,
		TransactionID: tx.ID,
		Subject:       fmt.Sprintf("Order #%d paid", tx.ID),
		Text:          strings.Join(lines, "\n"),
	}
}
