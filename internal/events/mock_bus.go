package events

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

// MockEventBus provides an in-memory implementation of EventBus for testing
type MockEventBus struct {
	subscriptions   map[string][]interface{}
	publishedEvents map[string][]interface{}
	mutex           sync.RWMutex
	errors          []error
	publishError    error
	synchronousMode bool
}

// NewMockEventBus creates a new MockEventBus instance. Handlers run
// synchronously on the publisher's goroutine unless SetSynchronousMode(false).
func NewMockEventBus() *MockEventBus {
	return &MockEventBus{
		subscriptions:   make(map[string][]interface{}),
		publishedEvents: make(map[string][]interface{}),
		synchronousMode: true,
	}
}

// Subscribe implements the EventBus interface
func (m *MockEventBus) Subscribe(topic string, handler interface{}) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.subscriptions[topic] = append(m.subscriptions[topic], handler)
	return nil
}

// SubscribeAsync implements the EventBus interface; delivery follows the synchronous mode setting
func (m *MockEventBus) SubscribeAsync(topic string, handler interface{}) error {
	return m.Subscribe(topic, handler)
}

// Unsubscribe implements the EventBus interface. Handlers are matched by
// identity, so only pointer-like handlers can be removed.
func (m *MockEventBus) Unsubscribe(topic string, handler interface{}) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	handlers := m.subscriptions[topic]
	kept := handlers[:0]
	for _, h := range handlers {
		if fmt.Sprintf("%p", h) != fmt.Sprintf("%p", handler) {
			kept = append(kept, h)
		}
	}
	m.subscriptions[topic] = kept
	return nil
}

// Publish implements the EventBus interface
func (m *MockEventBus) Publish(topic string, event interface{}) error {
	m.mutex.Lock()
	if m.publishError != nil {
		err := m.publishError
		m.mutex.Unlock()
		return err
	}

	m.publishedEvents[topic] = append(m.publishedEvents[topic], event)

	handlersToInvoke := make([]interface{}, len(m.subscriptions[topic]))
	copy(handlersToInvoke, m.subscriptions[topic])
	synchronous := m.synchronousMode
	m.mutex.Unlock()

	// Trigger handlers outside of the mutex to avoid deadlocks
	for _, handler := range handlersToInvoke {
		if synchronous {
			m.invokeHandler(handler, event)
		} else {
			go m.invokeHandler(handler, event)
		}
	}

	return nil
}

// Close implements the EventBus interface
func (m *MockEventBus) Close() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.subscriptions = make(map[string][]interface{})
	return nil
}

// SetSynchronousMode enables or disables synchronous event handling
func (m *MockEventBus) SetSynchronousMode(enabled bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.synchronousMode = enabled
}

// SetPublishError makes every following Publish fail with err
func (m *MockEventBus) SetPublishError(err error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.publishError = err
}

// GetPublishedEvents returns published events for a topic
func (m *MockEventBus) GetPublishedEvents(topic string) []interface{} {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	result := make([]interface{}, len(m.publishedEvents[topic]))
	copy(result, m.publishedEvents[topic])
	return result
}

// GetSubscriberCount returns the number of subscribers for a topic
func (m *MockEventBus) GetSubscriberCount(topic string) int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.subscriptions[topic])
}

// GetErrors returns handler panics and type mismatches seen so far
func (m *MockEventBus) GetErrors() []error {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return append([]error(nil), m.errors...)
}

// ClearEvents resets all published events
func (m *MockEventBus) ClearEvents() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.publishedEvents = make(map[string][]interface{})
}

// WaitForEvent waits for an event to be published on a topic
func (m *MockEventBus) WaitForEvent(topic string, timeout time.Duration) (interface{}, error) {
	deadline := time.Now().Add(timeout)

	for {
		events := m.GetPublishedEvents(topic)
		if len(events) > 0 {
			return events[len(events)-1], nil
		}

		if time.Now().After(deadline) {
			return nil, &TimeoutError{Topic: topic, Timeout: timeout}
		}

		time.Sleep(10 * time.Millisecond)
	}
}

// invokeHandler safely invokes an event handler
func (m *MockEventBus) invokeHandler(handler interface{}, event interface{}) {
	defer func() {
		if r := recover(); r != nil {
			m.mutex.Lock()
			m.errors = append(m.errors, fmt.Errorf("handler panic: %v", r))
			m.mutex.Unlock()
		}
	}()

	handlerInvoked := false
	switch h := handler.(type) {
	case func(ReminderScheduled):
		if e, ok := event.(ReminderScheduled); ok {
			h(e)
			handlerInvoked = true
		}
	case func(ReminderTriggered):
		if e, ok := event.(ReminderTriggered); ok {
			h(e)
			handlerInvoked = true
		}
	case func(ReminderCancelled):
		if e, ok := event.(ReminderCancelled); ok {
			h(e)
			handlerInvoked = true
		}
	case func(ReminderSnoozed):
		if e, ok := event.(ReminderSnoozed); ok {
			h(e)
			handlerInvoked = true
		}
	case func(RemindersCleaned):
		if e, ok := event.(RemindersCleaned); ok {
			h(e)
			handlerInvoked = true
		}
	case func(interface{}):
		h(event)
		handlerInvoked = true
	}

	if !handlerInvoked {
		m.mutex.Lock()
		m.errors = append(m.errors, fmt.Errorf("type mismatch: handler type does not match event type %T", event))
		m.mutex.Unlock()
	}
}

// AssertEventCount asserts the number of events published on a topic
func AssertEventCount(t *testing.T, mockBus *MockEventBus, topic string, expectedCount int) {
	t.Helper()
	if got := len(mockBus.GetPublishedEvents(topic)); got != expectedCount {
		t.Errorf("expected %d events on topic %s, got %d", expectedCount, topic, got)
	}
}

// TimeoutError is returned when an expected event is not published in time
type TimeoutError struct {
	Topic   string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout waiting for event on topic %s after %v", e.Topic, e.Timeout)
}
