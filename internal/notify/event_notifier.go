package notify

import (
	"context"
	"fmt"

	"reminderd/internal/events"
	"reminderd/internal/reminder"

	"go.uber.org/zap"
)

// EventNotifier publishes fired reminders on the event bus; sinks subscribe to
// events.TopicReminderTriggered
type EventNotifier struct {
	bus    events.EventBus
	logger *zap.Logger
}

// NewEventNotifier creates a notifier that fans out through bus
func NewEventNotifier(bus events.EventBus, logger *zap.Logger) *EventNotifier {
	return &EventNotifier{bus: bus, logger: logger}
}

// Notify implements reminder.Notifier
func (n *EventNotifier) Notify(ctx context.Context, notification reminder.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	event := events.ReminderTriggered{
		Event:      events.NewEventAt(notification.FiredAt),
		ReminderID: notification.ReminderID,
		Text:       notification.Text,
		FiredAt:    notification.FiredAt,
		NextTime:   notification.NextTime,
	}

	if err := n.bus.Publish(events.TopicReminderTriggered, event); err != nil {
		n.logger.Error("Failed to publish reminder notification",
			zap.Int64("reminder_id", notification.ReminderID),
			zap.Error(err))
		return fmt.Errorf("failed to publish reminder %d: %w", notification.ReminderID, err)
	}

	return nil
}
