package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"path", "method", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)
	AuthRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_rejections_total",
			Help: "Total number of unauthorized requests",
		},
		[]string{"reason"},
	)
	RateLimited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rate_limited_requests_total",
			Help: "Requests rejected by the per-IP rate limiter",
		},
	)

	CompletionsMarked = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "routine_completions_marked_total",
			Help: "Routine slots newly marked complete",
		},
		[]string{"slot"},
	)
	CompletionsRemoved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "routine_completions_removed_total",
			Help: "Routine slots unmarked",
		},
		[]string{"slot"},
	)
	LedgerErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "progress_ledger_errors_total",
			Help: "Progress ledger mutations that failed",
		},
		[]string{"operation", "kind"},
	)

	RemindersArmed = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "reminders_armed",
			Help: "Reminder timers currently armed in this process",
		},
	)
	RemindersFired = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reminders_fired_total",
			Help: "Reminders whose timer elapsed",
		},
		[]string{"type"},
	)
	RemindersPruned = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "reminders_pruned_total",
			Help: "Reminders garbage collected after 24 hours",
		},
	)

	NotificationsDelivered = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_delivered_total",
			Help: "Notifications delivered, by channel",
		},
		[]string{"channel"},
	)
	BannerStreams = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "banner_streams_open",
			Help: "Websocket clients subscribed to the banner feed",
		},
	)
)

// Register adds every collector to reg. Call this once from main.go.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		AuthRejections,
		RateLimited,
		CompletionsMarked,
		CompletionsRemoved,
		LedgerErrors,
		RemindersArmed,
		RemindersFired,
		RemindersPruned,
		NotificationsDelivered,
		BannerStreams,
	)
}
