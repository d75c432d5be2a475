package notify

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/http"
	"time"

	"reminderd/internal/config"
	"reminderd/internal/events"

	"github.com/cenkalti/backoff/v4"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// MessageSender is the part of *tgbotapi.BotAPI the sink uses
type MessageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramSink delivers fired reminders to one Telegram chat
type TelegramSink struct {
	sender  MessageSender
	chatID  int64
	limiter *rate.Limiter
	backoff func() backoff.BackOff
	timeout time.Duration
	logger  *zap.Logger
}

// NewTelegramSink connects to the Bot API and validates the token
func NewTelegramSink(cfg config.TelegramConfig, logger *zap.Logger) (*TelegramSink, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("telegram bot token is required")
	}

	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	logger.Info("Telegram bot initialized successfully", zap.String("username", bot.Self.UserName))

	return NewTelegramSinkWithSender(bot, cfg, logger), nil
}

// NewTelegramSinkWithSender creates a sink around an existing sender
func NewTelegramSinkWithSender(sender MessageSender, cfg config.TelegramConfig, logger *zap.Logger) *TelegramSink {
	ratePerSecond := cfg.RatePerSecond
	if ratePerSecond <= 0 {
		ratePerSecond = 1
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &TelegramSink{
		sender:  sender,
		chatID:  cfg.ChatID,
		limiter: rate.NewLimiter(rate.Limit(ratePerSecond), 1),
		backoff: func() backoff.BackOff {
			strategy := backoff.NewExponentialBackOff()
			strategy.InitialInterval = 500 * time.Millisecond
			strategy.MaxInterval = 10 * time.Second
			strategy.MaxElapsedTime = timeout
			strategy.Multiplier = 2.0
			return backoff.WithMaxRetries(strategy, uint64(maxRetries))
		},
		timeout: timeout,
		logger:  logger,
	}
}

// Register subscribes the sink to fired reminders
func (s *TelegramSink) Register(bus events.EventBus) error {
	return bus.SubscribeAsync(events.TopicReminderTriggered, s.Handle)
}

// Handle delivers one fired reminder, logging failures
func (s *TelegramSink) Handle(event events.ReminderTriggered) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.Deliver(ctx, event); err != nil {
		s.logger.Error("Failed to deliver reminder to telegram",
			zap.Int64("reminder_id", event.ReminderID),
			zap.Int64("chat_id", s.chatID),
			zap.Error(err))
	}
}

// Deliver sends event to the chat, waiting for the rate limiter and retrying
// transient failures
func (s *TelegramSink) Deliver(ctx context.Context, event events.ReminderTriggered) error {
	msg := tgbotapi.NewMessage(s.chatID, formatReminder(event))
	msg.ParseMode = tgbotapi.ModeHTML

	attempt := 0
	operation := func() error {
		attempt++
		if err := s.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		_, err := s.sender.Send(msg)
		if err != nil {
			s.logger.Warn("Telegram send failed",
				zap.Int64("reminder_id", event.ReminderID),
				zap.Int("attempt", attempt),
				zap.Error(err))
			if isRejected(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(s.backoff(), ctx)); err != nil {
		return fmt.Errorf("failed to send reminder %d after %d attempts: %w", event.ReminderID, attempt, err)
	}

	s.logger.Debug("Reminder delivered to telegram",
		zap.Int64("reminder_id", event.ReminderID),
		zap.Int64("chat_id", s.chatID))
	return nil
}

// isRejected reports whether the bot API refused the request outright. Rate
// limiting (429) is left retryable.
func isRejected(err error) bool {
	code := 0
	var apiErr *tgbotapi.Error
	var apiErrValue tgbotapi.Error
	switch {
	case errors.As(err, &apiErr):
		code = apiErr.Code
	case errors.As(err, &apiErrValue):
		code = apiErrValue.Code
	}
	return code >= http.StatusBadRequest && code < http.StatusInternalServerError &&
		code != http.StatusTooManyRequests
}

func formatReminder(event events.ReminderTriggered) string {
	text := "⏰ <b>Reminder:</b> " + html.EscapeString(event.Text)
	if event.NextTime != nil {
		text += fmt.Sprintf("\n<i>Next: %s</i>", event.NextTime.Local().Format("Mon Jan 2 03:04 PM"))
	}
	return text
}
