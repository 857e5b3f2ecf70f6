package concurrent

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestTimer() (*TaskTimer, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)}
	tt := NewTaskTimer(time.Minute, 10*time.Millisecond, zap.NewNop())
	tt.SetClock(clock.Now)
	return tt, clock
}

func TestTaskTimerSweep(t *testing.T) {
	tt, clock := newTestTimer()

	short := tt.StartTask(time.Second)
	long := tt.StartTask(10 * time.Second)
	def := tt.StartTask(0)
	assert.Equal(t, clock.Now().Add(time.Minute), def.GetExpiry())
	assert.Equal(t, 3, tt.NumberOfRunningTasks())

	assert.Equal(t, 0, tt.Sweep())

	clock.Advance(time.Second)
	assert.Equal(t, 1, tt.Sweep(), "expiry is inclusive")
	assert.True(t, short.IsCancelled())
	assert.True(t, short.IsTimedOut())
	assert.False(t, long.IsCancelled())

	assert.Equal(t, 0, tt.Sweep(), "a flagged task is not counted twice")

	tt.FinishTask(short)
	assert.Equal(t, 2, tt.NumberOfRunningTasks())

	long.Cancel()
	clock.Advance(time.Hour)
	assert.Equal(t, 1, tt.Sweep())
	assert.False(t, long.IsTimedOut(), "cancelled by its owner, not by the timer")
	assert.True(t, def.IsTimedOut())
}

func TestTaskTimerShutdown(t *testing.T) {
	tt, _ := newTestTimer()
	running := tt.StartTask(time.Minute)

	tt.Shutdown()
	assert.True(t, running.IsCancelled())
	assert.False(t, running.IsTimedOut())

	late := tt.StartTask(time.Minute)
	assert.True(t, late.IsCancelled())
	assert.Equal(t, 1, tt.NumberOfRunningTasks(), "a task started after shutdown is not registered")

	tt.Shutdown()
}

func TestTaskTimerRun(t *testing.T) {
	tt, clock := newTestTimer()
	task := tt.StartTask(time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- tt.Run(ctx)
	}()

	clock.Advance(2 * time.Second)
	require.Eventually(t, task.IsCancelled, time.Second, 5*time.Millisecond)

	other := tt.StartTask(time.Hour)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("timer did not stop")
	}
	assert.True(t, other.IsCancelled())
}
