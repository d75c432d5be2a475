package scheduler

import (
	"container/heap"
	"context"
	"sync"
	"sync/atomic"
	"time"

	"reminderd/internal/common"
	"reminderd/internal/config"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Fire describes one trigger firing as seen by its callback
type Fire struct {
	ReminderID int64
	Generation uint64
	Due        time.Time
	FiredAt    time.Time
	Interval   time.Duration
	// Next is the re-armed due time of a recurring trigger; zero for one-shot triggers
	Next time.Time
}

// IsRecurring reports whether the trigger stays registered after this fire
func (f Fire) IsRecurring() bool {
	return f.Interval > 0
}

// Callback runs on the engine goroutine when a trigger fires. ctx is
// cancelled when the engine shuts down.
type Callback func(ctx context.Context, fire Fire)

// Scheduler defines the interface for the in-memory trigger engine
type Scheduler interface {
	Schedule(id int64, due time.Time, interval time.Duration, callback Callback) (uint64, error)
	Cancel(id int64) bool
	IsCurrent(id int64, generation uint64) bool
	Pending(id int64) (time.Time, bool)
	Len() int
	Start(ctx context.Context) error
	Shutdown() error
	IsRunning() bool
	GetHealthStatus() HealthStatus
}

// Engine holds pending triggers in a due-time min-heap and fires them from a
// single background goroutine. At most one trigger exists per reminder id.
type Engine struct {
	config  config.SchedulerConfig
	clock   common.Clock
	logger  *zap.Logger
	metrics *SchedulerMetrics

	mu      sync.Mutex
	queue   triggerHeap
	byID    map[int64]*trigger // includes a one-shot trigger while its callback runs
	nextGen uint64
	nextSeq uint64
	stopped bool

	wake    chan struct{}
	cancel  context.CancelFunc
	done    chan struct{}
	running atomic.Bool
}

// NewEngine creates a new engine; triggers may be registered before Start
func NewEngine(cfg config.SchedulerConfig, clock common.Clock, reg prometheus.Registerer, logger *zap.Logger) (*Engine, error) {
	if cfg.ShutdownTimeout <= 0 {
		return nil, NewConfigurationError("shutdown_timeout", cfg.ShutdownTimeout, "must be greater than 0")
	}
	if clock == nil {
		clock = common.NewRealClock()
	}

	return &Engine{
		config:  cfg,
		clock:   clock,
		logger:  logger,
		metrics: NewSchedulerMetrics(reg),
		byID:    make(map[int64]*trigger),
		wake:    make(chan struct{}, 1),
	}, nil
}

// Schedule registers a trigger for id, replacing any existing one, and returns
// the registration generation. A due time in the past fires as soon as the
// engine runs. A positive interval re-arms the trigger after every fire.
func (e *Engine) Schedule(id int64, due time.Time, interval time.Duration, callback Callback) (uint64, error) {
	if callback == nil {
		return 0, NewSchedulerError(ErrInvalidTrigger, "callback is required")
	}
	if interval < 0 {
		return 0, NewSchedulerError(ErrInvalidTrigger, "interval cannot be negative")
	}

	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return 0, NewSchedulerError(ErrSchedulerStopped, "scheduler has been shut down")
	}

	if existing, ok := e.byID[id]; ok && existing.index >= 0 {
		heap.Remove(&e.queue, existing.index)
	}

	e.nextGen++
	e.nextSeq++
	t := &trigger{
		id:       id,
		due:      due,
		interval: interval,
		callback: callback,
		gen:      e.nextGen,
		seq:      e.nextSeq,
	}
	heap.Push(&e.queue, t)
	e.byID[id] = t
	pending := len(e.queue)
	e.mu.Unlock()

	e.metrics.RecordScheduled(pending)
	e.logger.Debug("Trigger scheduled",
		zap.Int64("reminder_id", id),
		zap.Time("due_time", due),
		zap.Duration("recurrence_interval", interval),
		zap.Uint64("generation", t.gen))

	e.signal()
	return t.gen, nil
}

// Cancel removes the trigger registered for id and reports whether one existed.
// A one-shot trigger whose callback is running counts as registered; the
// callback observes the cancellation through IsCurrent.
func (e *Engine) Cancel(id int64) bool {
	e.mu.Lock()
	t, ok := e.byID[id]
	if !ok {
		e.mu.Unlock()
		return false
	}
	if t.index >= 0 {
		heap.Remove(&e.queue, t.index)
	}
	delete(e.byID, id)
	pending := len(e.queue)
	e.mu.Unlock()

	e.metrics.RecordCancelled(pending)
	e.logger.Debug("Trigger cancelled",
		zap.Int64("reminder_id", id),
		zap.Uint64("generation", t.gen))

	e.signal()
	return true
}

// IsCurrent reports whether generation is still the live registration for id
func (e *Engine) IsCurrent(id int64, generation uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.byID[id]
	return ok && t.gen == generation
}

// Pending returns the due time of the queued trigger for id
func (e *Engine) Pending(id int64) (time.Time, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.byID[id]
	if !ok || t.index < 0 {
		return time.Time{}, false
	}
	return t.due, true
}

// Len returns the number of queued triggers
func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.queue)
}

// Start launches the engine goroutine
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	stopped := e.stopped
	e.mu.Unlock()
	if stopped {
		return NewSchedulerError(ErrSchedulerStopped, "scheduler has been shut down")
	}
	if !e.running.CompareAndSwap(false, true) {
		return NewSchedulerError(ErrSchedulerAlreadyRunning, "scheduler is already running")
	}

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		cancel()
		e.running.Store(false)
		return NewSchedulerError(ErrSchedulerStopped, "scheduler has been shut down")
	}
	e.cancel = cancel
	e.done = done
	pending := len(e.queue)
	e.mu.Unlock()

	e.logger.Info("Starting reminder scheduler",
		zap.Int("pending_triggers", pending),
		zap.Int("shutdown_timeout_seconds", e.config.ShutdownTimeout))

	go e.run(loopCtx, done)

	return nil
}

// Shutdown stops the engine goroutine and refuses further registrations.
// Pending triggers are dropped; nothing durable is touched.
func (e *Engine) Shutdown() error {
	e.mu.Lock()
	e.stopped = true
	cancel, done := e.cancel, e.done
	e.mu.Unlock()

	if !e.running.Load() || cancel == nil {
		return NewSchedulerError(ErrSchedulerNotRunning, "scheduler is not running")
	}

	e.logger.Info("Stopping reminder scheduler...")
	cancel()

	select {
	case <-done:
		e.logger.Info("Reminder scheduler stopped successfully")
	case <-time.After(e.config.ShutdownTimeoutDuration()):
		e.logger.Warn("Scheduler shutdown timed out, a callback may still be running")
		return NewShutdownError("shutdown timeout exceeded", e.config.ShutdownTimeout)
	}

	e.running.Store(false)
	return nil
}

// IsRunning returns true if the engine goroutine is running
func (e *Engine) IsRunning() bool {
	return e.running.Load()
}

// GetHealthStatus returns the engine state and fire statistics
func (e *Engine) GetHealthStatus() HealthStatus {
	return e.metrics.GetHealthStatus(e.IsRunning(), e.Len())
}

func (e *Engine) signal() {
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

// run sleeps until the earliest due time or a wake-up, then fires everything due
func (e *Engine) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		var timer common.Timer
		var timerC <-chan time.Time

		e.mu.Lock()
		if next := e.queue.peek(); next != nil {
			timer = e.clock.TimerAt(next.due)
			timerC = timer.C()
		}
		e.mu.Unlock()

		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case <-e.wake:
			if timer != nil {
				timer.Stop()
			}
		case <-timerC:
			e.fireDue(ctx)
		}
	}
}

// fireDue pops and fires every trigger whose due time has passed
func (e *Engine) fireDue(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		e.mu.Lock()
		now := e.clock.Now()
		next := e.queue.peek()
		if next == nil || next.due.After(now) {
			e.mu.Unlock()
			return
		}

		t := heap.Pop(&e.queue).(*trigger)
		fire := Fire{
			ReminderID: t.id,
			Generation: t.gen,
			Due:        t.due,
			FiredAt:    now,
			Interval:   t.interval,
		}
		if t.interval > 0 {
			// Re-arm from the fire instant so a long pause does not cause catch-up bursts
			t.due = now.Add(t.interval)
			e.nextSeq++
			t.seq = e.nextSeq
			heap.Push(&e.queue, t)
			fire.Next = t.due
		}
		e.mu.Unlock()

		e.execute(ctx, t, fire)
		e.finish(t)
	}
}

func (e *Engine) execute(ctx context.Context, t *trigger, fire Fire) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			e.metrics.RecordPanic()
			e.logger.Error("Trigger callback panic recovered",
				zap.Int64("reminder_id", fire.ReminderID),
				zap.Uint64("generation", fire.Generation),
				zap.Error(NewCallbackPanicError(fire.ReminderID, r)))
		}
		e.metrics.RecordFired(fire.IsRecurring(), fire.FiredAt, time.Since(start), e.Len())
	}()

	e.logger.Debug("Firing trigger",
		zap.Int64("reminder_id", fire.ReminderID),
		zap.Time("due_time", fire.Due),
		zap.Uint64("generation", fire.Generation))

	t.callback(ctx, fire)
}

// finish drops a one-shot trigger from the registry once its callback returned,
// unless the callback or another caller replaced or cancelled it meanwhile
func (e *Engine) finish(t *trigger) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if current, ok := e.byID[t.id]; ok && current == t && t.index < 0 {
		delete(e.byID, t.id)
	}
}
