package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ReminderMetrics exposes counters/histograms for the reminder scheduler.
type ReminderMetrics struct {
	cyclesTotal   *prometheus.CounterVec
	skippedTicks  prometheus.Counter
	sendsTotal    *prometheus.CounterVec
	cycleDuration prometheus.Histogram
}

func NewReminderMetrics(reg prometheus.Registerer) *ReminderMetrics {
	m := &ReminderMetrics{
		cyclesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dental",
			Subsystem: "reminders",
			Name:      "cycles_total",
			Help:      "Reminder scan cycles by outcome",
		}, []string{"outcome"}),
		skippedTicks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dental",
			Subsystem: "reminders",
			Name:      "ticks_skipped_total",
			Help:      "Ticks dropped because a cycle was still running",
		}),
		sendsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dental",
			Subsystem: "reminders",
			Name:      "sends_total",
			Help:      "Reminder SMS attempts by threshold and status",
		}, []string{"threshold", "status"}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "dental",
			Subsystem: "reminders",
			Name:      "cycle_duration_seconds",
			Help:      "Wall time of one reminder cycle",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.cyclesTotal, m.skippedTicks, m.sendsTotal, m.cycleDuration)
	return m
}

func (m *ReminderMetrics) ObserveCycle(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.cyclesTotal.WithLabelValues(outcome).Inc()
	m.cycleDuration.Observe(elapsed.Seconds())
}

func (m *ReminderMetrics) ObserveSkippedTick() {
	if m == nil {
		return
	}
	m.skippedTicks.Inc()
}

func (m *ReminderMetrics) ObserveSend(threshold, status string) {
	if m == nil {
		return
	}
	m.sendsTotal.WithLabelValues(threshold, status).Inc()
}
