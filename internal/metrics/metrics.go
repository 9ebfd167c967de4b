package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CallbacksTotal counts gateway callbacks by action and returned error code
	CallbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "click_callbacks_total",
		Help: "Click Prepare/Complete callbacks by action and result code",
	}, []string{"action", "code"})

	// CallbackDuration tracks how long callback processing took
	CallbackDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "click_callback_duration_seconds",
		Help:    "Click callback processing time",
		Buckets: prometheus.DefBuckets,
	}, []string{"action"})

	// CallbackReplays counts signed callbacks Click delivered more than once
	CallbackReplays = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "click_callback_replays_total",
		Help: "Repeated deliveries of the same signed Click callback",
	}, []string{"action"})

	// TransactionsCreated counts transactions created through the merchant API
	TransactionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "merchant_transactions_created_total",
		Help: "Transactions created by the merchant API",
	})

	// NotificationsTotal counts notification deliveries by sink and outcome
	NotificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "merchant_notifications_total",
		Help: "Order notifications by sink and outcome (sent, failed)",
	}, []string{"sink", "status"})
)
