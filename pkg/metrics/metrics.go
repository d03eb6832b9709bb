package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EmailDeliveries counts delivery attempts per transport (smtp|relay) and result (success|failure).
	EmailDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "releasetrack_email_deliveries_total",
			Help: "Total number of outbound email delivery attempts",
		},
		[]string{"transport", "result"},
	)

	// Notifications counts pipeline runs per notification kind and outcome (sent|failed|skipped).
	Notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "releasetrack_notifications_total",
			Help: "Total number of ticket notification pipeline runs",
		},
		[]string{"kind", "outcome"},
	)

	// NotificationRecipients counts recipients dropped before delivery, by reason.
	NotificationRecipients = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "releasetrack_notification_recipients_dropped_total",
			Help: "Recipients removed by preference or address filtering",
		},
		[]string{"reason"},
	)

	// AuditWriteFailures counts notification log rows that could not be written.
	AuditWriteFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "releasetrack_notification_log_failures_total",
			Help: "Notification log writes that failed and were skipped",
		},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "releasetrack_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
