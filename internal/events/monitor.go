package events

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// EventFlowMonitor counts reminder lifecycle events seen on the bus
type EventFlowMonitor struct {
	eventBus    EventBus
	logger      *zap.Logger
	logInterval time.Duration
	metrics     *EventMetrics
	handlers    map[string]func(interface{})
	mu          sync.RWMutex
	isStarted   bool
	stopChan    chan struct{}
}

// EventMetrics tracks event counts per topic
type EventMetrics struct {
	PublishCount       map[string]int64 `json:"publish_count"`
	LastProcessingTime map[string]int64 `json:"last_processing_time"`
	mu                 sync.RWMutex
}

// NewEventFlowMonitor creates a new EventFlowMonitor instance. A positive
// logInterval periodically logs the counters.
func NewEventFlowMonitor(eventBus EventBus, logInterval time.Duration, logger *zap.Logger) *EventFlowMonitor {
	return &EventFlowMonitor{
		eventBus:    eventBus,
		logger:      logger,
		logInterval: logInterval,
		metrics: &EventMetrics{
			PublishCount:       make(map[string]int64),
			LastProcessingTime: make(map[string]int64),
		},
		handlers: make(map[string]func(interface{})),
	}
}

// Start subscribes to every reminder topic
func (m *EventFlowMonitor) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.isStarted {
		return fmt.Errorf("monitor is already started")
	}

	for _, topic := range ReminderTopics {
		topic := topic
		handler := func(interface{}) { m.record(topic) }
		if err := m.eventBus.Subscribe(topic, handler); err != nil {
			return fmt.Errorf("failed to subscribe monitor to %s: %w", topic, err)
		}
		m.handlers[topic] = handler
	}

	m.isStarted = true
	m.stopChan = make(chan struct{})
	m.logger.Info("Starting event flow monitor")

	if m.logInterval > 0 {
		go m.collectMetrics(m.stopChan)
	}

	return nil
}

// Stop unsubscribes the monitor
func (m *EventFlowMonitor) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.isStarted {
		return fmt.Errorf("monitor is not started")
	}

	for topic, handler := range m.handlers {
		if err := m.eventBus.Unsubscribe(topic, handler); err != nil {
			m.logger.Warn("Failed to unsubscribe monitor", zap.String("topic", topic), zap.Error(err))
		}
	}
	m.handlers = make(map[string]func(interface{}))

	m.isStarted = false
	close(m.stopChan)
	m.logger.Info("Stopped event flow monitor")

	return nil
}

func (m *EventFlowMonitor) record(topic string) {
	m.metrics.mu.Lock()
	defer m.metrics.mu.Unlock()

	m.metrics.PublishCount[topic]++
	m.metrics.LastProcessingTime[topic] = time.Now().Unix()
}

// GetMetrics returns a copy of the current event metrics
func (m *EventFlowMonitor) GetMetrics() *EventMetrics {
	m.metrics.mu.RLock()
	defer m.metrics.mu.RUnlock()

	metrics := &EventMetrics{
		PublishCount:       make(map[string]int64, len(m.metrics.PublishCount)),
		LastProcessingTime: make(map[string]int64, len(m.metrics.LastProcessingTime)),
	}
	for k, v := range m.metrics.PublishCount {
		metrics.PublishCount[k] = v
	}
	for k, v := range m.metrics.LastProcessingTime {
		metrics.LastProcessingTime[k] = v
	}

	return metrics
}

// GetHealthStatus returns a summary suitable for the health endpoint
func (m *EventFlowMonitor) GetHealthStatus() map[string]interface{} {
	metrics := m.GetMetrics()

	m.mu.RLock()
	started := m.isStarted
	m.mu.RUnlock()

	return map[string]interface{}{
		"monitor_active":     started,
		"total_events":       getTotalCount(metrics.PublishCount),
		"events_by_topic":    metrics.PublishCount,
		"last_activity_time": getLastActivity(metrics.LastProcessingTime),
	}
}

func (m *EventFlowMonitor) collectMetrics(stop <-chan struct{}) {
	ticker := time.NewTicker(m.logInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			metrics := m.GetMetrics()
			m.logger.Info("Event flow metrics",
				zap.Int64("total_published", getTotalCount(metrics.PublishCount)),
				zap.Any("by_topic", metrics.PublishCount))
		}
	}
}

func getTotalCount(counts map[string]int64) int64 {
	var total int64
	for _, count := range counts {
		total += count
	}
	return total
}

func getLastActivity(times map[string]int64) int64 {
	var latest int64
	for _, t := range times {
		if t > latest {
			latest = t
		}
	}
	return latest
}
