package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type fakeTicker struct {
	calls atomic.Int64
	err   error
	seen  chan time.Time
}

func (f *fakeTicker) Tick(_ context.Context, now time.Time) (TickResult, error) {
	f.calls.Add(1)
	if f.seen != nil {
		select {
		case f.seen <- now:
		default:
		}
	}
	return TickResult{}, f.err
}

func TestSchedulerRunOnce(t *testing.T) {
	ft := &fakeTicker{err: errors.New("boom")}
	s := NewScheduler(ft, nil, func() time.Time { return testNow })

	s.RunOnce(context.Background())
	s.RunOnce(context.Background())

	st := s.Stats()
	if st.Ticks != 2 || st.Errors != 2 || st.Running {
		t.Fatalf("stats = %+v", st)
	}
}

func TestSchedulerStartTicksImmediately(t *testing.T) {
	ft := &fakeTicker{seen: make(chan time.Time, 1)}
	s := NewScheduler(ft, &SchedulerConfig{IntervalSec: 3600}, func() time.Time { return testNow })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)
	s.Start(ctx) // 重复启动无效

	select {
	case got := <-ft.seen:
		if !got.Equal(testNow) {
			t.Fatalf("tick time = %v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("scheduler did not tick on start")
	}

	s.Stop()
	s.Stop()
	if s.Stats().Running {
		t.Fatalf("still running after stop")
	}
	if n := ft.calls.Load(); n != 1 {
		t.Fatalf("calls = %d", n)
	}
}

func TestSchedulerSetInterval(t *testing.T) {
	s := NewScheduler(&fakeTicker{}, &SchedulerConfig{IntervalSec: 0}, nil)
	if s.Interval() != 20*time.Second {
		t.Fatalf("default interval = %v", s.Interval())
	}
	s.SetInterval(5)
	if s.Interval() != 5*time.Second {
		t.Fatalf("interval = %v", s.Interval())
	}
	s.SetInterval(-1)
	if s.Interval() != 20*time.Second {
		t.Fatalf("invalid interval not defaulted: %v", s.Interval())
	}
}
