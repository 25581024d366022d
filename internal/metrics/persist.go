package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Store persists metric values between restarts
type Store interface {
	SaveMetric(metricName, labelKey, labelValue string, value float64) error
	GetMetric(metricName string) (float64, error)
	GetMetricsWithLabels(metricName string) (map[string]map[string]float64, error)
}

const assetLabel = "asset"

func (m *Metrics) counters() map[string]prometheus.Counter {
	return map[string]prometheus.Counter{
		"ticks_completed":    m.TicksCompleted,
		"alerts_registered":  m.AlertsRegistered,
		"alerts_cancelled":   m.AlertsCancelled,
		"delivery_failures":  m.DeliveryFailures,
		"commands_processed": m.CommandsProcessed,
		"messages_handled":   m.MessagesHandled,
	}
}

func (m *Metrics) labeledCounters() map[string]*prometheus.CounterVec {
	return map[string]*prometheus.CounterVec{
		"alerts_triggered": m.AlertsTriggered,
		"fetch_failures":   m.FetchFailures,
	}
}

// Load adds the stored counter values to the in-memory collectors
func (m *Metrics) Load(s Store) error {
	for name, counter := range m.counters() {
		value, err := s.GetMetric(name)
		if err != nil {
			return errors.Wrapf(err, "load metric %s", name)
		}
		counter.Add(value)
	}

	for name, vec := range m.labeledCounters() {
		stored, err := s.GetMetricsWithLabels(name)
		if err != nil {
			return errors.Wrapf(err, "load metric %s", name)
		}
		for asset, value := range stored[assetLabel] {
			vec.WithLabelValues(asset).Add(value)
		}
	}

	log.Debug("Metrics loaded from database.")
	return nil
}

// Save writes the current counter values to the store
func (m *Metrics) Save(s Store) error {
	for name, counter := range m.counters() {
		if err := s.SaveMetric(name, "", "", GetMetricValue(counter)); err != nil {
			return errors.Wrapf(err, "save metric %s", name)
		}
	}

	for name, vec := range m.labeledCounters() {
		metricChan := make(chan prometheus.Metric)
		go func() {
			vec.Collect(metricChan)
			close(metricChan)
		}()

		var saveErr error
		for metric := range metricChan {
			if saveErr != nil {
				continue
			}
			metricProto := &dto.Metric{}
			if err := metric.Write(metricProto); err != nil {
				log.Errorf("Failed to read %s metric: %v", name, err)
				continue
			}
			var asset string
			for _, label := range metricProto.Label {
				if label.GetName() == assetLabel {
					asset = label.GetValue()
				}
			}
			saveErr = s.SaveMetric(name, assetLabel, asset, metricProto.GetCounter().GetValue())
		}
		if saveErr != nil {
			return errors.Wrapf(saveErr, "save metric %s", name)
		}
	}

	log.Debug("Metrics saved to database.")
	return nil
}

// GetMetricValue reads the current value of a single counter or gauge
func GetMetricValue(metric prometheus.Collector) float64 {
	metricChan := make(chan prometheus.Metric, 1)
	metric.Collect(metricChan)
	close(metricChan)

	metricProto := &dto.Metric{}
	if err := (<-metricChan).Write(metricProto); err != nil {
		log.Errorf("Failed to read metric value: %v", err)
		return 0
	}

	if metricProto.Counter != nil {
		return metricProto.Counter.GetValue()
	} else if metricProto.Gauge != nil {
		return metricProto.Gauge.GetValue()
	}
	return 0
}
