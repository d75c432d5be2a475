package scheduler

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Fire kinds used as the "kind" label of the fired counter
const (
	fireKindOneShot   = "one_shot"
	fireKindRecurring = "recurring"
)

// SchedulerMetrics tracks engine activity. Counters are exported through the
// prometheus registerer given at construction; a summary is kept for the
// health endpoint.
type SchedulerMetrics struct {
	scheduled        prometheus.Counter
	fired            *prometheus.CounterVec
	cancelled        prometheus.Counter
	pending          prometheus.Gauge
	callbackDuration prometheus.Histogram
	panics           prometheus.Counter

	mu                  sync.RWMutex
	triggersFired       int64
	callbackPanics      int64
	lastFireTime        time.Time
	totalCallbackTime   time.Duration
	averageCallbackTime time.Duration
}

// HealthStatus represents the health status of the scheduler
type HealthStatus struct {
	IsHealthy           bool      `json:"is_healthy"`
	Running             bool      `json:"running"`
	PendingTriggers     int       `json:"pending_triggers"`
	TriggersFired       int64     `json:"triggers_fired"`
	CallbackPanics      int64     `json:"callback_panics"`
	LastFireTime        time.Time `json:"last_fire_time"`
	AverageCallbackTime string    `json:"average_callback_time"`
}

// NewSchedulerMetrics creates the engine collectors and registers them with reg.
// A nil registerer leaves the collectors unregistered.
func NewSchedulerMetrics(reg prometheus.Registerer) *SchedulerMetrics {
	factory := promauto.With(reg)

	return &SchedulerMetrics{
		scheduled: factory.NewCounter(prometheus.CounterOpts{
			Name: "reminder_triggers_scheduled_total",
			Help: "Triggers registered with the scheduler, including replacements.",
		}),
		fired: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "reminder_triggers_fired_total",
			Help: "Triggers whose due time elapsed and whose callback was invoked.",
		}, []string{"kind"}),
		cancelled: factory.NewCounter(prometheus.CounterOpts{
			Name: "reminder_triggers_cancelled_total",
			Help: "Triggers removed before firing.",
		}),
		pending: factory.NewGauge(prometheus.GaugeOpts{
			Name: "reminder_triggers_pending",
			Help: "Triggers currently waiting in the scheduler.",
		}),
		callbackDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "reminder_callback_duration_seconds",
			Help:    "Time spent running trigger callbacks.",
			Buckets: prometheus.DefBuckets,
		}),
		panics: factory.NewCounter(prometheus.CounterOpts{
			Name: "reminder_callback_panics_total",
			Help: "Trigger callbacks that panicked.",
		}),
	}
}

// RecordScheduled records a new or replacing registration
func (m *SchedulerMetrics) RecordScheduled(pending int) {
	m.scheduled.Inc()
	m.pending.Set(float64(pending))
}

// RecordCancelled records a registration removed before it fired
func (m *SchedulerMetrics) RecordCancelled(pending int) {
	m.cancelled.Inc()
	m.pending.Set(float64(pending))
}

// RecordFired records one callback invocation and how long it took
func (m *SchedulerMetrics) RecordFired(recurring bool, at time.Time, duration time.Duration, pending int) {
	kind := fireKindOneShot
	if recurring {
		kind = fireKindRecurring
	}
	m.fired.WithLabelValues(kind).Inc()
	m.callbackDuration.Observe(duration.Seconds())
	m.pending.Set(float64(pending))

	m.mu.Lock()
	defer m.mu.Unlock()

	m.triggersFired++
	m.lastFireTime = at
	m.totalCallbackTime += duration
	m.averageCallbackTime = m.totalCallbackTime / time.Duration(m.triggersFired)
}

// RecordPanic records a callback that panicked
func (m *SchedulerMetrics) RecordPanic() {
	m.panics.Inc()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbackPanics++
}

// GetHealthStatus returns detailed health information
func (m *SchedulerMetrics) GetHealthStatus(running bool, pending int) HealthStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return HealthStatus{
		IsHealthy:           running,
		Running:             running,
		PendingTriggers:     pending,
		TriggersFired:       m.triggersFired,
		CallbackPanics:      m.callbackPanics,
		LastFireTime:        m.lastFireTime,
		AverageCallbackTime: m.averageCallbackTime.String(),
	}
}
