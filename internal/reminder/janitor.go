package reminder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Janitor periodically runs retention cleanup on a cron schedule
type Janitor struct {
	service       ReminderService
	spec          string
	retentionDays int
	timeout       time.Duration
	parser        cron.Parser
	logger        *zap.Logger

	mu sync.Mutex
	c  *cron.Cron
}

// NewJanitor validates spec (standard five fields or a descriptor such as
// "@daily") and returns a stopped janitor
func NewJanitor(service ReminderService, spec string, retentionDays int, logger *zap.Logger) (*Janitor, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(spec); err != nil {
		return nil, NewValidationError("cleanup_schedule", spec, fmt.Sprintf("invalid cron schedule: %v", err))
	}
	if retentionDays < 0 {
		return nil, NewValidationError("retention_days", retentionDays, "Retention days cannot be negative")
	}

	return &Janitor{
		service:       service,
		spec:          spec,
		retentionDays: retentionDays,
		timeout:       time.Minute,
		parser:        parser,
		logger:        logger,
	}, nil
}

// Start registers the cleanup job and starts the cron runner
func (j *Janitor) Start() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.c != nil {
		return nil
	}

	c := cron.New(cron.WithParser(j.parser), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(j.spec, func() { _, _ = j.RunOnce(context.Background()) }); err != nil {
		return fmt.Errorf("failed to register cleanup job: %w", err)
	}
	c.Start()
	j.c = c

	j.logger.Info("Reminder janitor started",
		zap.String("schedule", j.spec),
		zap.Int("retention_days", j.retentionDays))
	return nil
}

// Stop stops the runner and waits for a running cleanup to finish
func (j *Janitor) Stop() {
	j.mu.Lock()
	c := j.c
	j.c = nil
	j.mu.Unlock()

	if c == nil {
		return
	}
	<-c.Stop().Done()
	j.logger.Info("Reminder janitor stopped")
}

// RunOnce performs one cleanup pass and returns the number of deleted reminders
func (j *Janitor) RunOnce(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	outcome, err := j.service.Cleanup(ctx, j.retentionDays)
	if err != nil {
		if IsUnavailableError(err) {
			j.logger.Debug("Skipping cleanup, reminder service unavailable", zap.Error(err))
			return 0, err
		}
		j.logger.Error("Scheduled cleanup failed", zap.Error(err))
		return 0, err
	}

	j.logger.Debug("Scheduled cleanup finished", zap.Int64("deleted", outcome.Count))
	return outcome.Count, nil
}
