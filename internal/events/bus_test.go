package events

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestEventBus_PublishSubscribe(t *testing.T) {
	firedAt := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		topic string
		event interface{}
	}{
		{
			name:  "publish string event",
			topic: "test.string",
			event: "test message",
		},
		{
			name:  "publish reminder triggered event",
			topic: TopicReminderTriggered,
			event: ReminderTriggered{
				Event:      NewEventAt(firedAt),
				ReminderID: 7,
				Text:       "call mom",
				FiredAt:    firedAt,
			},
		},
		{
			name:  "publish reminder scheduled event",
			topic: TopicReminderScheduled,
			event: ReminderScheduled{
				Event:         NewEvent(),
				ReminderID:    8,
				Text:          "stretch",
				ScheduledTime: firedAt.Add(time.Hour),
				Recurrence:    "daily",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := NewEventBus(zap.NewNop(), time.Second)
			defer bus.Close()

			received := make(chan interface{}, 1)
			err := bus.Subscribe(tt.topic, func(event interface{}) {
				received <- event
			})
			require.NoError(t, err)

			require.NoError(t, bus.Publish(tt.topic, tt.event))

			select {
			case event := <-received:
				assert.Equal(t, tt.event, event)
			case <-time.After(time.Second):
				t.Error("Timeout waiting for event")
			}
		})
	}
}

func TestEventBus_TypedHandler(t *testing.T) {
	bus := NewEventBus(zap.NewNop(), time.Second)
	defer bus.Close()

	var got ReminderCancelled
	err := bus.Subscribe(TopicReminderCancelled, func(event ReminderCancelled) {
		got = event
	})
	require.NoError(t, err)

	require.NoError(t, bus.Publish(TopicReminderCancelled, ReminderCancelled{Event: NewEvent(), ReminderID: 3}))
	assert.Equal(t, int64(3), got.ReminderID)
}

func TestEventBus_SubscribeAsyncDrainsOnClose(t *testing.T) {
	bus := NewEventBus(zap.NewNop(), 5*time.Second)

	var mu sync.Mutex
	var received []int64
	err := bus.SubscribeAsync(TopicReminderTriggered, func(event ReminderTriggered) {
		time.Sleep(5 * time.Millisecond)
		mu.Lock()
		received = append(received, event.ReminderID)
		mu.Unlock()
	})
	require.NoError(t, err)

	for i := int64(1); i <= 5; i++ {
		require.NoError(t, bus.Publish(TopicReminderTriggered, ReminderTriggered{Event: NewEvent(), ReminderID: i}))
	}

	require.NoError(t, bus.Close())

	mu.Lock()
	defer mu.Unlock()
	// Transactional async handlers see events one at a time, in publish order
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, received)
}

func TestEventBus_ConcurrentPublish(t *testing.T) {
	bus := NewEventBus(zap.NewNop(), time.Second)
	defer bus.Close()

	const numGoroutines = 10
	const numEvents = 100

	var mu sync.Mutex
	receivedCount := 0
	err := bus.Subscribe("test.concurrent", func(event interface{}) {
		mu.Lock()
		receivedCount++
		mu.Unlock()
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < numEvents; j++ {
				assert.NoError(t, bus.Publish("test.concurrent", j))
			}
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, numGoroutines*numEvents, receivedCount)
}

func TestEventBus_Unsubscribe(t *testing.T) {
	bus := NewEventBus(zap.NewNop(), time.Second)
	defer bus.Close()

	receivedCount := 0
	handler := func(event interface{}) {
		receivedCount++
	}

	require.NoError(t, bus.Subscribe("test.unsubscribe", handler))
	require.NoError(t, bus.Publish("test.unsubscribe", "first"))
	require.NoError(t, bus.Unsubscribe("test.unsubscribe", handler))
	require.NoError(t, bus.Publish("test.unsubscribe", "second"))

	assert.Equal(t, 1, receivedCount)
}

func TestEventBus_Closed(t *testing.T) {
	bus := NewEventBus(zap.NewNop(), time.Second)
	require.NoError(t, bus.Close())
	require.NoError(t, bus.Close())

	assert.Error(t, bus.Publish("test.closed", "event"))
	assert.Error(t, bus.Subscribe("test.closed", func(interface{}) {}))
	assert.Error(t, bus.SubscribeAsync("test.closed", func(interface{}) {}))
	assert.Error(t, bus.Unsubscribe("test.closed", func(interface{}) {}))
}

func TestMockEventBus_RecordsAndDelivers(t *testing.T) {
	bus := NewMockEventBus()

	var got []int64
	require.NoError(t, bus.Subscribe(TopicReminderSnoozed, func(event ReminderSnoozed) {
		got = append(got, event.ReminderID)
	}))
	require.NoError(t, bus.Subscribe(TopicReminderSnoozed, func(event ReminderCancelled) {}))

	require.NoError(t, bus.Publish(TopicReminderSnoozed, ReminderSnoozed{Event: NewEvent(), ReminderID: 4}))

	assert.Equal(t, []int64{4}, got)
	AssertEventCount(t, bus, TopicReminderSnoozed, 1)
	assert.Equal(t, 2, bus.GetSubscriberCount(TopicReminderSnoozed))
	require.Len(t, bus.GetErrors(), 1)
	assert.Contains(t, bus.GetErrors()[0].Error(), "type mismatch")

	event, err := bus.WaitForEvent(TopicReminderSnoozed, 10*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, int64(4), event.(ReminderSnoozed).ReminderID)

	_, err = bus.WaitForEvent(TopicReminderCancelled, 10*time.Millisecond)
	var timeoutErr *TimeoutError
	assert.ErrorAs(t, err, &timeoutErr)
}

func TestEventFlowMonitor_CountsReminderEvents(t *testing.T) {
	bus := NewMockEventBus()
	monitor := NewEventFlowMonitor(bus, 0, zap.NewNop())

	require.NoError(t, monitor.Start())
	assert.Error(t, monitor.Start())

	require.NoError(t, bus.Publish(TopicReminderScheduled, ReminderScheduled{Event: NewEvent(), ReminderID: 1}))
	require.NoError(t, bus.Publish(TopicReminderScheduled, ReminderScheduled{Event: NewEvent(), ReminderID: 2}))
	require.NoError(t, bus.Publish(TopicReminderTriggered, ReminderTriggered{Event: NewEvent(), ReminderID: 1}))

	metrics := monitor.GetMetrics()
	assert.Equal(t, int64(2), metrics.PublishCount[TopicReminderScheduled])
	assert.Equal(t, int64(1), metrics.PublishCount[TopicReminderTriggered])

	status := monitor.GetHealthStatus()
	assert.Equal(t, true, status["monitor_active"])
	assert.Equal(t, int64(3), status["total_events"])

	require.NoError(t, monitor.Stop())
	assert.Error(t, monitor.Stop())
	assert.Equal(t, false, monitor.GetHealthStatus()["monitor_active"])
}
