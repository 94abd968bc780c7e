// Package metrics provides Prometheus metrics for the adherence engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all application metrics
type Metrics struct {
	ScansProcessed        prometheus.Counter
	ScansFailed           prometheus.Counter
	MedicinesExtracted    prometheus.Counter
	RemindersCreated      prometheus.Counter
	DosesTaken            prometheus.Counter
	DosesMissed           prometheus.Counter
	OccurrencesGenerated  prometheus.Counter
	ScanDuration          prometheus.Histogram
	NotificationsSent     prometheus.Counter
	NotificationsDeduped  prometheus.Counter
	KafkaMessagesProduced prometheus.Counter
	KafkaMessagesConsumed prometheus.Counter
	OutboxPending         prometheus.Gauge
	CircuitBreakerState   *prometheus.GaugeVec
}

// New creates and registers all metrics
func New() *Metrics {
	m := &Metrics{
		ScansProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "prescription_scans_processed_total",
			Help: "Total prescription scans processed",
		}),
		ScansFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "prescription_scans_failed_total",
			Help: "Total prescription scans that failed",
		}),
		MedicinesExtracted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "medicines_extracted_total",
			Help: "Total medicines extracted from scans",
		}),
		RemindersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reminders_created_total",
			Help: "Total reminders created",
		}),
		DosesTaken: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "doses_taken_total",
			Help: "Total doses confirmed taken",
		}),
		DosesMissed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "doses_missed_total",
			Help: "Total doses reported missed",
		}),
		OccurrencesGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "appointment_occurrences_generated_total",
			Help: "Total recurring appointment occurrences generated",
		}),
		ScanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "prescription_scan_duration_seconds",
			Help:    "Scan pipeline duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
		NotificationsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Total reminder notifications delivered",
		}),
		NotificationsDeduped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "notifications_deduplicated_total",
			Help: "Total notifications dropped as duplicates",
		}),
		KafkaMessagesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kafka_messages_produced_total",
			Help: "Total Kafka messages produced",
		}),
		KafkaMessagesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kafka_messages_consumed_total",
			Help: "Total Kafka messages consumed",
		}),
		OutboxPending: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "outbox_pending_entries",
			Help: "Pending outbox entries",
		}),
		CircuitBreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
		}, []string{"name"}),
	}

	prometheus.MustRegister(
		m.ScansProcessed,
		m.ScansFailed,
		m.MedicinesExtracted,
		m.RemindersCreated,
		m.DosesTaken,
		m.DosesMissed,
		m.OccurrencesGenerated,
		m.ScanDuration,
		m.NotificationsSent,
		m.NotificationsDeduped,
		m.KafkaMessagesProduced,
		m.KafkaMessagesConsumed,
		m.OutboxPending,
		m.CircuitBreakerState,
	)

	return m
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
