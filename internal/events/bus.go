package events

import (
	"fmt"
	"sync"
	"time"

	eventbus "github.com/asaskevich/EventBus"
	"go.uber.org/zap"
)

// EventBus defines the interface for publishing and subscribing to events
type EventBus interface {
	Publish(topic string, data interface{}) error
	Subscribe(topic string, handler interface{}) error
	// SubscribeAsync delivers events on a separate goroutine; events for one
	// handler are delivered in publish order
	SubscribeAsync(topic string, handler interface{}) error
	Unsubscribe(topic string, handler interface{}) error
	Close() error
}

// eventBus wraps the EventBus library with additional functionality
type eventBus struct {
	bus             eventbus.Bus
	logger          *zap.Logger
	shutdownTimeout time.Duration
	mu              sync.RWMutex
	closed          bool
}

// NewEventBus creates a new event bus instance. Close waits up to
// shutdownTimeout for asynchronous handlers to drain.
func NewEventBus(logger *zap.Logger, shutdownTimeout time.Duration) EventBus {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &eventBus{
		bus:             eventbus.New(),
		logger:          logger,
		shutdownTimeout: shutdownTimeout,
	}
}

// Publish publishes an event to the specified topic
func (eb *eventBus) Publish(topic string, data interface{}) error {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if eb.closed {
		return fmt.Errorf("event bus is closed")
	}

	eb.logger.Debug("Publishing event",
		zap.String("topic", topic),
		zap.Any("data", data))

	eb.bus.Publish(topic, data)
	return nil
}

// Subscribe subscribes to events on the specified topic
func (eb *eventBus) Subscribe(topic string, handler interface{}) error {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if eb.closed {
		return fmt.Errorf("event bus is closed")
	}

	eb.logger.Debug("Subscribing to topic", zap.String("topic", topic))

	return eb.bus.Subscribe(topic, handler)
}

// SubscribeAsync subscribes a handler that runs off the publisher's goroutine
func (eb *eventBus) SubscribeAsync(topic string, handler interface{}) error {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if eb.closed {
		return fmt.Errorf("event bus is closed")
	}

	eb.logger.Debug("Subscribing asynchronously to topic", zap.String("topic", topic))

	return eb.bus.SubscribeAsync(topic, handler, true)
}

// Unsubscribe unsubscribes from events on the specified topic
func (eb *eventBus) Unsubscribe(topic string, handler interface{}) error {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if eb.closed {
		return fmt.Errorf("event bus is closed")
	}

	eb.logger.Debug("Unsubscribing from topic", zap.String("topic", topic))

	return eb.bus.Unsubscribe(topic, handler)
}

// Close stops accepting events and waits for asynchronous handlers to finish
func (eb *eventBus) Close() error {
	eb.mu.Lock()
	if eb.closed {
		eb.mu.Unlock()
		return nil
	}
	eb.closed = true
	eb.mu.Unlock()

	eb.logger.Info("Closing event bus")

	done := make(chan struct{})
	go func() {
		eb.bus.WaitAsync()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(eb.shutdownTimeout):
		eb.logger.Warn("Event bus close timed out waiting for async handlers")
		return fmt.Errorf("event bus close timed out after %s", eb.shutdownTimeout)
	}
}
