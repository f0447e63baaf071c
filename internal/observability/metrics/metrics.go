package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricPrefix = "energyguard_"

// Operation results recorded on every observation.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

var (
	ingestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    metricPrefix + "telemetry_ingest_duration_seconds",
			Help:    "Telemetry ingest duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"result"},
	)
	ingestErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metricPrefix + "telemetry_ingest_errors_total",
			Help: "Telemetry ingest errors by reason",
		},
		[]string{"reason"},
	)
	evaluationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    metricPrefix + "alert_evaluation_duration_seconds",
			Help:    "Alert rule evaluation duration per sample",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"result"},
	)
	alertsOpened = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metricPrefix + "alerts_opened_total",
			Help: "Alerts opened by severity",
		},
		[]string{"severity"},
	)
	refreshDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    metricPrefix + "broadcast_refresh_duration_seconds",
			Help:    "Dashboard snapshot refresh duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"result"},
	)
	broadcastMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metricPrefix + "broadcast_messages_total",
			Help: "Broadcast messages delivered by kind",
		},
		[]string{"kind"},
	)
	subscribersGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: metricPrefix + "broadcast_subscribers",
			Help: "Currently connected dashboard subscribers",
		},
	)
	subscribersDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metricPrefix + "broadcast_subscribers_dropped_total",
			Help: "Subscribers removed by the broadcaster by reason",
		},
		[]string{"reason"},
	)
	cacheRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metricPrefix + "cache_requests_total",
			Help: "Cache lookups by outcome",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(
		ingestDuration,
		ingestErrors,
		evaluationDuration,
		alertsOpened,
		refreshDuration,
		broadcastMessages,
		subscribersGauge,
		subscribersDropped,
		cacheRequests,
	)
}

// ObserveIngest records one telemetry ingest.
func ObserveIngest(result string, duration time.Duration) {
	ingestDuration.WithLabelValues(result).Observe(duration.Seconds())
}

// IncIngestError counts an ingest error by reason.
func IncIngestError(reason string) {
	ingestErrors.WithLabelValues(reason).Inc()
}

// ObserveEvaluation records one evaluator tick.
func ObserveEvaluation(result string, duration time.Duration) {
	evaluationDuration.WithLabelValues(result).Observe(duration.Seconds())
}

// IncAlertOpened counts an opened alert by severity.
func IncAlertOpened(severity string) {
	alertsOpened.WithLabelValues(severity).Inc()
}

// ObserveRefresh records one snapshot refresh.
func ObserveRefresh(result string, duration time.Duration) {
	refreshDuration.WithLabelValues(result).Observe(duration.Seconds())
}

// IncBroadcastMessage counts a delivered message by kind (full or diff).
func IncBroadcastMessage(kind string) {
	broadcastMessages.WithLabelValues(kind).Inc()
}

// SetSubscribers publishes the current subscriber count.
func SetSubscribers(n int) {
	subscribersGauge.Set(float64(n))
}

// IncSubscriberDropped counts a removed subscriber by reason.
func IncSubscriberDropped(reason string) {
	subscribersDropped.WithLabelValues(reason).Inc()
}

// IncCacheHit counts a cache hit.
func IncCacheHit() { cacheRequests.WithLabelValues("hit").Inc() }

// IncCacheMiss counts a cache miss.
func IncCacheMiss() { cacheRequests.WithLabelValues("miss").Inc() }

// IncCacheError counts a cache backend error.
func IncCacheError() { cacheRequests.WithLabelValues("error").Inc() }
