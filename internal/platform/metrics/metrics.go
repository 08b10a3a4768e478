package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	RegistrationsCreated prometheus.Counter
	DuplicateEmails      prometheus.Counter
	ContactMessages      prometheus.Counter

	NotificationAttempts prometheus.Counter
	NotificationsSent    prometheus.Counter
	NotificationsFailed  prometheus.Counter
	QueueDepth           prometheus.Gauge

	RequestDuration *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics on reg. Tests pass a fresh
// registry so parallel suites don't collide on duplicate registration.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RegistrationsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "msmeclinic_registrations_created_total",
			Help: "Total number of registrations accepted.",
		}),
		DuplicateEmails: factory.NewCounter(prometheus.CounterOpts{
			Name: "msmeclinic_registrations_duplicate_email_total",
			Help: "Total number of submissions rejected for a duplicate email.",
		}),
		ContactMessages: factory.NewCounter(prometheus.CounterOpts{
			Name: "msmeclinic_contact_messages_total",
			Help: "Total number of contact messages accepted.",
		}),
		NotificationAttempts: factory.NewCounter(prometheus.CounterOpts{
			Name: "msmeclinic_notification_attempts_total",
			Help: "Total number of notification delivery attempts.",
		}),
		NotificationsSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "msmeclinic_notifications_sent_total",
			Help: "Total number of notifications delivered.",
		}),
		NotificationsFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "msmeclinic_notifications_failed_total",
			Help: "Total number of notifications dropped after exhausting retries.",
		}),
		QueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "msmeclinic_notification_queue_depth",
			Help: "Jobs currently waiting in the notification queue.",
		}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "msmeclinic_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status class.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}
