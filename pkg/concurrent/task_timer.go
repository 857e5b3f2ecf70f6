package concurrent

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DEFAULT_TASK_TIMEOUT = 60 * time.Second
	DEFAULT_SWEEP_PERIOD = 1000 * time.Millisecond
)

// Task. handle of one running matching task. cancellation is cooperative: the task polls IsCancelled.
type Task struct {
	id        uuid.UUID
	expiry    time.Time
	cancelled atomic.Bool
	timedOut  atomic.Bool
}

func (t *Task) GetID() uuid.UUID {
	return t.id
}

func (t *Task) GetExpiry() time.Time {
	return t.expiry
}

// Cancel. requests cancellation
func (t *Task) Cancel() {
	t.cancelled.Store(true)
}

func (t *Task) IsCancelled() bool {
	return t.cancelled.Load()
}

// IsTimedOut. cancelled by the timer sweep
func (t *Task) IsTimedOut() bool {
	return t.timedOut.Load()
}

// TaskTimer. registry of running tasks with absolute expiry times and a background sweep
// flagging expired tasks.
type TaskTimer struct {
	mu             sync.Mutex
	tasks          map[uuid.UUID]*Task
	defaultTimeout time.Duration
	sweepPeriod    time.Duration
	now            func() time.Time
	log            *zap.Logger

	closed bool
}

func NewTaskTimer(defaultTimeout, sweepPeriod time.Duration, log *zap.Logger) *TaskTimer {
	if defaultTimeout <= 0 {
		defaultTimeout = DEFAULT_TASK_TIMEOUT
	}
	if sweepPeriod <= 0 {
		sweepPeriod = DEFAULT_SWEEP_PERIOD
	}
	return &TaskTimer{
		tasks:          make(map[uuid.UUID]*Task),
		defaultTimeout: defaultTimeout,
		sweepPeriod:    sweepPeriod,
		now:            time.Now,
		log:            log,
	}
}

// SetClock. replaces the time source, used by tests
func (tt *TaskTimer) SetClock(now func() time.Time) {
	tt.mu.Lock()
	tt.now = now
	tt.mu.Unlock()
}

func (tt *TaskTimer) GetSweepPeriod() time.Duration {
	return tt.sweepPeriod
}

// StartTask. registers a new task expiring after timeout; a non-positive timeout uses the default.
// a task started after Shutdown is cancelled right away.
func (tt *TaskTimer) StartTask(timeout time.Duration) *Task {
	if timeout <= 0 {
		timeout = tt.defaultTimeout
	}
	tt.mu.Lock()
	defer tt.mu.Unlock()

	task := &Task{
		id:     uuid.New(),
		expiry: tt.now().Add(timeout),
	}
	if tt.closed {
		task.Cancel()
		return task
	}
	tt.tasks[task.id] = task
	return task
}

// FinishTask. removes task from the registry, whatever the way it ended
func (tt *TaskTimer) FinishTask(task *Task) {
	tt.mu.Lock()
	delete(tt.tasks, task.id)
	tt.mu.Unlock()
}

func (tt *TaskTimer) NumberOfRunningTasks() int {
	tt.mu.Lock()
	defer tt.mu.Unlock()
	return len(tt.tasks)
}

// Sweep. flags every task past its expiry, returns the number of newly flagged tasks
func (tt *TaskTimer) Sweep() int {
	tt.mu.Lock()
	defer tt.mu.Unlock()

	now := tt.now()
	flagged := 0
	for id, task := range tt.tasks {
		if task.IsCancelled() || now.Before(task.expiry) {
			continue
		}
		task.timedOut.Store(true)
		task.Cancel()
		flagged++
		tt.log.Info("map matching task expired", zap.String("task", id.String()),
			zap.Time("expiry", task.expiry))
	}
	return flagged
}

// Run. sweeps every sweep period until ctx is done, then shuts the timer down
func (tt *TaskTimer) Run(ctx context.Context) error {
	ticker := time.NewTicker(tt.sweepPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			tt.Shutdown()
			return nil
		case <-ticker.C:
			tt.Sweep()
		}
	}
}

// Shutdown. flags all outstanding tasks for cancellation
func (tt *TaskTimer) Shutdown() {
	tt.mu.Lock()
	defer tt.mu.Unlock()
	if tt.closed {
		return
	}
	tt.closed = true
	for _, task := range tt.tasks {
		task.Cancel()
	}
	tt.log.Info("task timer shut down", zap.Int("cancelled", len(tt.tasks)))
}
