//go:build integration

package integration

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"reminderd/internal/common"
	"reminderd/internal/config"
	"reminderd/internal/database"
	"reminderd/internal/events"
	"reminderd/internal/notify"
	"reminderd/internal/reminder"
	"reminderd/internal/scheduler"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

var baseTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// SetupPostgresDatabase starts a PostgreSQL test container and returns a migrated connection
func SetupPostgresDatabase(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("reminderd_test"),
		postgres.WithUsername("test_user"),
		postgres.WithPassword("test_password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() {
		require.NoError(t, container.Terminate(ctx), "Failed to terminate test container")
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	return openAndMigrate(t, config.DatabaseConfig{
		Driver:          config.DriverPostgres,
		Host:            host,
		Port:            port.Int(),
		User:            "test_user",
		Password:        "test_password",
		DBName:          "reminderd_test",
		SSLMode:         "disable",
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 300,
	})
}

// SetupSQLiteDatabase opens a migrated embedded store in a temp directory
func SetupSQLiteDatabase(t *testing.T) *gorm.DB {
	t.Helper()
	return openAndMigrate(t, config.DatabaseConfig{
		Driver:      config.DriverSQLite,
		Path:        filepath.Join(t.TempDir(), "reminders.db"),
		BusyTimeout: 5000,
	})
}

func openAndMigrate(t *testing.T, cfg config.DatabaseConfig) *gorm.DB {
	t.Helper()
	db, err := database.Open(cfg)
	require.NoError(t, err, "Failed to connect to test database")
	t.Cleanup(func() { _ = database.Close(db) })
	require.NoError(t, reminder.MigrateWithValidation(db))
	return db
}

// recordingSender stands in for the Telegram Bot API
type recordingSender struct {
	mu   sync.Mutex
	sent []tgbotapi.MessageConfig
}

func (s *recordingSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, c.(tgbotapi.MessageConfig))
	return tgbotapi.Message{MessageID: len(s.sent)}, nil
}

func (s *recordingSender) messages() []tgbotapi.MessageConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]tgbotapi.MessageConfig(nil), s.sent...)
}

// stack is one daemon instance: engine, service, bus and sinks over a shared store
type stack struct {
	service *reminder.Service
	engine  *scheduler.Engine
	bus     events.EventBus
	monitor *events.EventFlowMonitor
	sender  *recordingSender
}

// startStack wires a daemon instance the way cmd/server does and starts it
func startStack(t *testing.T, db *gorm.DB, clock *common.MockClock) *stack {
	t.Helper()
	logger := zaptest.NewLogger(t)

	bus := events.NewEventBus(logger, 5*time.Second)
	require.NoError(t, notify.NewLogSink(logger).Register(bus))

	sender := &recordingSender{}
	sink := notify.NewTelegramSinkWithSender(sender, config.TelegramConfig{
		Enabled:       true,
		Token:         "test-token",
		ChatID:        42,
		RatePerSecond: 1000,
		MaxRetries:    1,
		Timeout:       5,
	}, logger)
	require.NoError(t, sink.Register(bus))

	monitor := events.NewEventFlowMonitor(bus, 0, logger)
	require.NoError(t, monitor.Start())

	schedCfg := config.SchedulerConfig{Enabled: true, ShutdownTimeout: 5, FireRetryDelay: 30}
	engine, err := scheduler.NewEngine(schedCfg, clock, prometheus.NewRegistry(), zap.NewNop())
	require.NoError(t, err)

	service := reminder.NewService(
		reminder.NewGormRepository(db, clock, logger),
		engine,
		notify.NewEventNotifier(bus, logger),
		bus,
		reminder.NewServiceConfig(config.ReminderConfig{
			DefaultSnoozeMinutes: 10,
			RetentionDays:        7,
			CleanupSchedule:      "@daily",
			RejectPastTimes:      true,
		}, schedCfg),
		logger,
		reminder.WithClock(clock),
	)
	require.NoError(t, service.Start(context.Background()))

	s := &stack{service: service, engine: engine, bus: bus, monitor: monitor, sender: sender}
	t.Cleanup(s.stop)
	return s
}

// stop shuts the instance down in the same order as cmd/server; it is safe to call twice
func (s *stack) stop() {
	_ = s.service.Shutdown()
	_ = s.monitor.Stop()
	_ = s.bus.Close()
}
