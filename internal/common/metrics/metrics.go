// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Total number of notification dispatches completed",
		},
		[]string{"task_type", "channel"},
	)

	NotificationsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_failed_total",
			Help: "Total number of notification dispatches failed",
		},
		[]string{"task_type", "error_code"},
	)

	RecipientsDelivered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_recipients_total",
			Help: "Total recipients handed to a delivery provider",
		},
		[]string{"task_type", "channel"},
	)

	DispatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "notification_dispatch_duration_seconds",
			Help: "Duration of notification dispatch in seconds",
		},
		[]string{"task_type"},
	)
)
