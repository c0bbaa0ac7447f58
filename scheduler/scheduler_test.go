package scheduler

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddTicker_Fires(t *testing.T) {
	s := New(nil)
	defer s.Stop()

	var count int32
	s.AddTicker("tick", 20*time.Millisecond, func(time.Duration) {
		atomic.AddInt32(&count, 1)
	})

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&count) >= 3 },
		time.Second, 10*time.Millisecond)
}

func TestAddTicker_DeliversElapsed(t *testing.T) {
	s := New(nil)

	var mu sync.Mutex
	var total time.Duration
	var calls int
	s.AddTicker("dt", 20*time.Millisecond, func(dt time.Duration) {
		mu.Lock()
		total += dt
		calls++
		mu.Unlock()
	})
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls >= 5
	}, time.Second, 5*time.Millisecond)
	s.Stop()

	mu.Lock()
	defer mu.Unlock()
	assert.GreaterOrEqual(t, total, time.Duration(calls)*15*time.Millisecond,
		"dt sums to roughly the wall time covered")
}

func TestSetMaxStep_CapsDt(t *testing.T) {
	s := New(nil)
	s.SetMaxStep(time.Millisecond)

	var maxDt atomic.Int64
	var calls atomic.Int32
	s.AddTicker("capped", 10*time.Millisecond, func(dt time.Duration) {
		if int64(dt) > maxDt.Load() {
			maxDt.Store(int64(dt))
		}
		calls.Add(1)
	})
	assert.Eventually(t, func() bool { return calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	s.Stop()
	assert.LessOrEqual(t, time.Duration(maxDt.Load()), time.Millisecond)
}

func TestAddTicker_Replaces(t *testing.T) {
	s := New(nil)
	defer s.Stop()

	var count1, count2 int32
	s.AddTicker("task", 20*time.Millisecond, func(time.Duration) { atomic.AddInt32(&count1, 1) })
	time.Sleep(30 * time.Millisecond)
	s.AddTicker("task", 20*time.Millisecond, func(time.Duration) { atomic.AddInt32(&count2, 1) })
	time.Sleep(80 * time.Millisecond)

	snap1 := atomic.LoadInt32(&count1)
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, snap1, atomic.LoadInt32(&count1), "old ticker must stop after replacement")
	assert.Positive(t, atomic.LoadInt32(&count2))
}

func TestRemove_Ticker(t *testing.T) {
	s := New(nil)
	defer s.Stop()

	var count int32
	s.AddTicker("task", 20*time.Millisecond, func(time.Duration) { atomic.AddInt32(&count, 1) })
	time.Sleep(50 * time.Millisecond)
	s.Remove("task")
	time.Sleep(10 * time.Millisecond)
	snap := atomic.LoadInt32(&count)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, snap, atomic.LoadInt32(&count), "ticker must stop after Remove")
}

func TestRemove_NonExistent(t *testing.T) {
	s := New(nil)
	defer s.Stop()
	s.Remove("nope")
}

func TestStop_StopsAllTickers(t *testing.T) {
	s := New(nil)

	var c1, c2 int32
	s.AddTicker("a", 20*time.Millisecond, func(time.Duration) { atomic.AddInt32(&c1, 1) })
	s.AddTicker("b", 20*time.Millisecond, func(time.Duration) { atomic.AddInt32(&c2, 1) })
	time.Sleep(50 * time.Millisecond)
	s.Stop()
	snap1, snap2 := atomic.LoadInt32(&c1), atomic.LoadInt32(&c2)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, snap1, atomic.LoadInt32(&c1))
	assert.Equal(t, snap2, atomic.LoadInt32(&c2))
}

func TestStop_Idempotent(t *testing.T) {
	s := New(nil)
	s.Stop()
	s.Stop()
}

func TestListTickers(t *testing.T) {
	s := New(nil)
	defer s.Stop()

	require.Empty(t, s.ListTickers())
	s.AddTicker("beta", time.Hour, func(time.Duration) {})
	s.AddTicker("alpha", time.Hour, func(time.Duration) {})
	assert.Equal(t, []string{"alpha", "beta"}, s.ListTickers())
	s.Remove("alpha")
	assert.Equal(t, []string{"beta"}, s.ListTickers())
}

func TestTicker_PanicRecovery(t *testing.T) {
	s := New(nil)
	defer s.Stop()

	var calls int32
	s.AddTicker("panic", 20*time.Millisecond, func(time.Duration) {
		atomic.AddInt32(&calls, 1)
		panic("oops")
	})
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&calls) >= 2 },
		time.Second, 10*time.Millisecond, "ticker keeps running after a panic")
}
