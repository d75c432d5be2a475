package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Events    EventsConfig    `mapstructure:"events"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Reminder  ReminderConfig  `mapstructure:"reminder"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
}

type ServerConfig struct {
	Port         int    `mapstructure:"port"`
	Environment  string `mapstructure:"environment"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
}

// Database drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	// Path is the sqlite database file; ":memory:" keeps the store in memory
	Path            string `mapstructure:"path"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"dbname"`
	SSLMode         string `mapstructure:"sslmode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
	BusyTimeout     int    `mapstructure:"busy_timeout"` // milliseconds, sqlite only
}

type EventsConfig struct {
	ShutdownTimeout int `mapstructure:"shutdown_timeout"`
}

type SchedulerConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	ShutdownTimeout int  `mapstructure:"shutdown_timeout"`
	// FireRetryDelay is how long a fire waits before retrying after the store rejected it
	FireRetryDelay int `mapstructure:"fire_retry_delay"`
}

type ReminderConfig struct {
	DefaultSnoozeMinutes int    `mapstructure:"default_snooze_minutes"`
	RetentionDays        int    `mapstructure:"retention_days"`
	CleanupSchedule      string `mapstructure:"cleanup_schedule"`
	RejectPastTimes      bool   `mapstructure:"reject_past_times"`
}

type TelegramConfig struct {
	Enabled       bool    `mapstructure:"enabled"`
	Token         string  `mapstructure:"token"`
	ChatID        int64   `mapstructure:"chat_id"`
	RatePerSecond float64 `mapstructure:"rate_per_second"`
	MaxRetries    int     `mapstructure:"max_retries"`
	Timeout       int     `mapstructure:"timeout"`
}

// ShutdownTimeoutDuration returns the scheduler shutdown timeout as a duration
func (c SchedulerConfig) ShutdownTimeoutDuration() time.Duration {
	return time.Duration(c.ShutdownTimeout) * time.Second
}

// FireRetryDelayDuration returns the fire retry delay as a duration
func (c SchedulerConfig) FireRetryDelayDuration() time.Duration {
	return time.Duration(c.FireRetryDelay) * time.Second
}

// Retention returns the default cleanup retention window
func (c ReminderConfig) Retention() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		v.AddConfigPath(path)
	}
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	// Set defaults
	setDefaults(v)

	// Enable environment variable support
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate rejects configurations the service cannot run with
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}

	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.Database.Host == "" || c.Database.DBName == "" {
			return fmt.Errorf("database.host and database.dbname are required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown database.driver %q", c.Database.Driver)
	}

	if c.Scheduler.ShutdownTimeout <= 0 {
		return fmt.Errorf("scheduler.shutdown_timeout must be greater than 0")
	}
	if c.Scheduler.FireRetryDelay <= 0 {
		return fmt.Errorf("scheduler.fire_retry_delay must be greater than 0")
	}

	if c.Reminder.DefaultSnoozeMinutes <= 0 {
		return fmt.Errorf("reminder.default_snooze_minutes must be greater than 0")
	}
	if c.Reminder.RetentionDays < 0 {
		return fmt.Errorf("reminder.retention_days cannot be negative")
	}

	if c.Telegram.Enabled {
		if c.Telegram.Token == "" || c.Telegram.ChatID == 0 {
			return fmt.Errorf("telegram.token and telegram.chat_id are required when telegram is enabled")
		}
		if c.Telegram.RatePerSecond <= 0 {
			return fmt.Errorf("telegram.rate_per_second must be greater than 0")
		}
	}

	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.read_timeout", 30)
	v.SetDefault("server.write_timeout", 30)

	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.path", "reminders.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "reminderd")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 300)
	v.SetDefault("database.busy_timeout", 5000)

	v.SetDefault("events.shutdown_timeout", 10)

	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.shutdown_timeout", 30)
	v.SetDefault("scheduler.fire_retry_delay", 30)

	v.SetDefault("reminder.default_snooze_minutes", 10)
	v.SetDefault("reminder.retention_days", 7)
	v.SetDefault("reminder.cleanup_schedule", "@daily")
	v.SetDefault("reminder.reject_past_times", true)

	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.chat_id", 0)
	v.SetDefault("telegram.rate_per_second", 1.0)
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.timeout", 30)
}
