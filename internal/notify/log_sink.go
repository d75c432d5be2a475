package notify

import (
	"reminderd/internal/events"

	"go.uber.org/zap"
)

// LogSink writes every fired reminder to the log
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a sink logging through logger
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger.Named("reminders")}
}

// Register subscribes the sink to fired reminders
func (s *LogSink) Register(bus events.EventBus) error {
	return bus.SubscribeAsync(events.TopicReminderTriggered, s.Handle)
}

// Handle logs one fired reminder
func (s *LogSink) Handle(event events.ReminderTriggered) {
	fields := []zap.Field{
		zap.Int64("reminder_id", event.ReminderID),
		zap.String("text", event.Text),
		zap.Time("fired_at", event.FiredAt),
		zap.String("correlation_id", event.CorrelationID),
	}
	if event.NextTime != nil {
		fields = append(fields, zap.Time("next_time", *event.NextTime))
	}

	s.logger.Info("Reminder", fields...)
}
