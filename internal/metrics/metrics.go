package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "price_alert"
	subsystem = "telegram_bot"
)

// Metrics groups the bot's Prometheus collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	TicksCompleted    prometheus.Counter
	TickDuration      prometheus.Histogram
	PendingAlerts     prometheus.Gauge
	AlertsRegistered  prometheus.Counter
	AlertsCancelled   prometheus.Counter
	AlertsTriggered   *prometheus.CounterVec
	FetchFailures     *prometheus.CounterVec
	DeliveryFailures  prometheus.Counter
	CommandsProcessed prometheus.Counter
	MessagesHandled   prometheus.Counter
}

// New creates the collectors and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TicksCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "ticks_completed",
			Help:      "The total number of completed alert evaluation ticks",
		}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "tick_duration_seconds",
			Help:      "Time spent evaluating all pending alerts in one tick",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		PendingAlerts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "pending_alerts",
			Help:      "The current number of alerts waiting for their target",
		}),
		AlertsRegistered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "alerts_registered",
			Help:      "The total number of alerts registered by users",
		}),
		AlertsCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "alerts_cancelled",
			Help:      "The total number of alerts cancelled by users",
		}),
		AlertsTriggered: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "alerts_triggered",
				Help:      "The total number of alerts that reached their target",
			},
			[]string{"asset"},
		),
		FetchFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "fetch_failures",
				Help:      "The total number of failed price lookups",
			},
			[]string{"asset"},
		),
		DeliveryFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "delivery_failures",
			Help:      "The total number of alert notifications that could not be delivered",
		}),
		CommandsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "commands_processed",
			Help:      "The total number of processed commands",
		}),
		MessagesHandled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "messages_handled",
			Help:      "The total number of handled messages",
		}),
	}

	reg.MustRegister(
		m.TicksCompleted,
		m.TickDuration,
		m.PendingAlerts,
		m.AlertsRegistered,
		m.AlertsCancelled,
		m.AlertsTriggered,
		m.FetchFailures,
		m.DeliveryFailures,
		m.CommandsProcessed,
		m.MessagesHandled,
	)

	return m
}

func (m *Metrics) ObserveTick(d time.Duration, pending int) {
	if m == nil {
		return
	}
	m.TicksCompleted.Inc()
	m.TickDuration.Observe(d.Seconds())
	m.PendingAlerts.Set(float64(pending))
}

func (m *Metrics) AlertRegistered(pending int) {
	if m == nil {
		return
	}
	m.AlertsRegistered.Inc()
	m.PendingAlerts.Set(float64(pending))
}

func (m *Metrics) AlertCancelled(pending int) {
	if m == nil {
		return
	}
	m.AlertsCancelled.Inc()
	m.PendingAlerts.Set(float64(pending))
}

func (m *Metrics) AlertTriggered(asset string) {
	if m == nil {
		return
	}
	m.AlertsTriggered.WithLabelValues(asset).Inc()
}

func (m *Metrics) FetchFailed(asset string) {
	if m == nil {
		return
	}
	m.FetchFailures.WithLabelValues(asset).Inc()
}

func (m *Metrics) DeliveryFailed() {
	if m == nil {
		return
	}
	m.DeliveryFailures.Inc()
}

func (m *Metrics) CommandProcessed() {
	if m == nil {
		return
	}
	m.CommandsProcessed.Inc()
}

func (m *Metrics) MessageHandled() {
	if m == nil {
		return
	}
	m.MessagesHandled.Inc()
}
