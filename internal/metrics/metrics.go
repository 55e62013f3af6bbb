// internal/metrics/metrics.go
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics - коллекторы Prometheus панели. Методы безопасны для nil-получателя,
// поэтому компоненты можно собирать без метрик (в тестах).
type Metrics struct {
	QueryDuration        *prometheus.HistogramVec
	QueryErrors          *prometheus.CounterVec
	AggregationDuration  *prometheus.HistogramVec
	AggregationFailures  *prometheus.CounterVec
	ActiveSubscriptions  *prometheus.GaugeVec
	EventsDelivered      *prometheus.CounterVec
	SubscriptionFailures *prometheus.CounterVec
	LoginAttempts        *prometheus.CounterVec
}

// New регистрирует коллекторы в reg. Для основного процесса - prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		QueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "helper_admin",
			Name:      "query_duration_seconds",
			Help:      "Duration of backend queries by table and operation",
			Buckets:   prometheus.DefBuckets,
		}, []string{"table", "op"}),

		QueryErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "helper_admin",
			Name:      "query_errors_total",
			Help:      "Failed backend queries by table and operation",
		}, []string{"table", "op"}),

		AggregationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "helper_admin",
			Name:      "aggregation_duration_seconds",
			Help:      "Duration of statistics aggregations",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),

		AggregationFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "helper_admin",
			Name:      "aggregation_failures_total",
			Help:      "Aggregations voided because a sub-query failed",
		}, []string{"kind"}),

		ActiveSubscriptions: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "helper_admin",
			Name:      "realtime_subscriptions",
			Help:      "Open realtime subscriptions by table",
		}, []string{"table"}),

		EventsDelivered: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "helper_admin",
			Name:      "realtime_events_total",
			Help:      "Realtime events delivered by table and type",
		}, []string{"table", "type"}),

		SubscriptionFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "helper_admin",
			Name:      "realtime_subscription_errors_total",
			Help:      "Channels that reported CHANNEL_ERROR",
		}, []string{"table"}),

		LoginAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "helper_admin",
			Name:      "login_attempts_total",
			Help:      "Admin login attempts by result",
		}, []string{"result"}),
	}
}

func (m *Metrics) ObserveQuery(table, op string, took time.Duration, err error) {
	if m == nil {
		return
	}
	m.QueryDuration.WithLabelValues(table, op).Observe(took.Seconds())
	if err != nil {
		m.QueryErrors.WithLabelValues(table, op).Inc()
	}
}

func (m *Metrics) ObserveAggregation(kind string, took time.Duration, err error) {
	if m == nil {
		return
	}
	m.AggregationDuration.WithLabelValues(kind).Observe(took.Seconds())
	if err != nil {
		m.AggregationFailures.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) SubscriptionOpened(table string) {
	if m == nil {
		return
	}
	m.ActiveSubscriptions.WithLabelValues(table).Inc()
}

func (m *Metrics) SubscriptionClosed(table string) {
	if m == nil {
		return
	}
	m.ActiveSubscriptions.WithLabelValues(table).Dec()
}

func (m *Metrics) SubscriptionFailed(table string) {
	if m == nil {
		return
	}
	m.SubscriptionFailures.WithLabelValues(table).Inc()
}

func (m *Metrics) EventDelivered(table, kind string) {
	if m == nil {
		return
	}
	m.EventsDelivered.WithLabelValues(table, kind).Inc()
}

func (m *Metrics) LoginAttempt(result string) {
	if m == nil {
		return
	}
	m.LoginAttempts.WithLabelValues(result).Inc()
}
