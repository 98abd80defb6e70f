package service

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Ticker 周期检查的执行者（ProgressService 实现）
type Ticker interface {
	Tick(ctx context.Context, now time.Time) (TickResult, error)
}

// SchedulerConfig 调度配置
type SchedulerConfig struct {
	IntervalSec int // 检查间隔（秒）
}

// DefaultSchedulerConfig 默认配置
func DefaultSchedulerConfig() *SchedulerConfig {
	return &SchedulerConfig{IntervalSec: 20}
}

// Scheduler 按固定间隔调用 Tick；Tick 幂等，重复或重叠触发都安全
type Scheduler struct {
	ticker   Ticker
	now      func() time.Time
	interval atomic.Int64 // time.Duration
	resetCh  chan struct{}
	stopChan chan struct{}
	wg       sync.WaitGroup
	running  atomic.Bool

	ticks  atomic.Int64
	errors atomic.Int64
}

// NewScheduler 创建调度器；now 为空时使用 time.Now
func NewScheduler(t Ticker, cfg *SchedulerConfig, now func() time.Time) *Scheduler {
	if cfg == nil {
		cfg = DefaultSchedulerConfig()
	}
	if now == nil {
		now = time.Now
	}
	s := &Scheduler{
		ticker:   t,
		now:      now,
		resetCh:  make(chan struct{}, 1),
		stopChan: make(chan struct{}),
	}
	s.interval.Store(int64(intervalOf(cfg.IntervalSec)))
	return s
}

func intervalOf(sec int) time.Duration {
	if sec <= 0 {
		sec = DefaultSchedulerConfig().IntervalSec
	}
	return time.Duration(sec) * time.Second
}

// Start 启动调度循环；启动时立即执行一次
func (s *Scheduler) Start(ctx context.Context) {
	if !s.running.CompareAndSwap(false, true) {
		return
	}
	slog.Info("调度器启动", "interval", s.Interval())

	s.wg.Add(1)
	go s.loop(ctx)
}

// Stop 停止并等待循环退出
func (s *Scheduler) Stop() {
	if !s.running.CompareAndSwap(true, false) {
		return
	}
	close(s.stopChan)
	s.wg.Wait()
	slog.Info("调度器已停止", "ticks", s.ticks.Load(), "errors", s.errors.Load())
}

// SetInterval 热更新间隔（配置重载时调用）
func (s *Scheduler) SetInterval(sec int) {
	d := intervalOf(sec)
	if time.Duration(s.interval.Swap(int64(d))) == d {
		return
	}
	select {
	case s.resetCh <- struct{}{}:
	default:
	}
}

// Interval 当前间隔
func (s *Scheduler) Interval() time.Duration {
	return time.Duration(s.interval.Load())
}

func (s *Scheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	s.RunOnce(ctx)

	ticker := time.NewTicker(s.Interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopChan:
			return
		case <-s.resetCh:
			ticker.Reset(s.Interval())
			slog.Info("调度间隔已更新", "interval", s.Interval())
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce 立即执行一次检查
func (s *Scheduler) RunOnce(ctx context.Context) {
	s.ticks.Add(1)
	res, err := s.ticker.Tick(ctx, s.now())
	if err != nil {
		s.errors.Add(1)
		slog.Error("周期检查失败", "error", err)
		return
	}
	if res.Decay.DaysPenalized > 0 || res.Generation.Total() > 0 {
		slog.Debug("周期检查完成",
			"days_penalized", res.Decay.DaysPenalized,
			"quests_generated", res.Generation.Total(),
		)
	}
}

// SchedulerStats 调度统计
type SchedulerStats struct {
	Ticks    int64  `json:"ticks"`
	Errors   int64  `json:"errors"`
	Interval string `json:"interval"`
	Running  bool   `json:"running"`
}

// Stats 返回调度统计
func (s *Scheduler) Stats() SchedulerStats {
	return SchedulerStats{
		Ticks:    s.ticks.Load(),
		Errors:   s.errors.Load(),
		Interval: s.Interval().String(),
		Running:  s.running.Load(),
	}
}
