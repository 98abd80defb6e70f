package bootstrap

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/yuqie6/LifeRPG/internal/eventbus"
	"github.com/yuqie6/LifeRPG/internal/pkg/config"
	"github.com/yuqie6/LifeRPG/internal/pkg/instlock"
	"github.com/yuqie6/LifeRPG/internal/repository"
	"github.com/yuqie6/LifeRPG/internal/service"
)

// Core 持有 CLI 各子命令共享的核心依赖
type Core struct {
	Cfg         *config.Config
	Store       service.SnapshotStore
	StoreCloser io.Closer
	LogCloser   io.Closer
	Hub         *eventbus.Hub
	Lock        *instlock.Lock

	Services struct {
		Progress  *service.ProgressService
		Scheduler *service.Scheduler
	}
}

// NewCore 加载配置并构建核心依赖
func NewCore(cfgPath string) (*Core, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	return NewCoreWithConfig(cfg)
}

// NewCoreWithConfig 用已加载的配置构建核心依赖（watch 模式与测试使用）
func NewCoreWithConfig(cfg *config.Config) (*Core, error) {
	logCloser, err := config.SetupLogger(config.LoggerOptions{
		Level:     cfg.App.LogLevel,
		Path:      cfg.App.LogPath,
		Component: filepath.Base(os.Args[0]),
	})
	if err != nil {
		return nil, err
	}

	store, storeCloser, err := repository.OpenSnapshotStore(repository.StoreOptions{
		Engine:   cfg.Storage.Engine,
		DBPath:   cfg.Storage.DBPath,
		JSONPath: cfg.Storage.JSONPath,
	})
	if err != nil {
		_ = logCloser.Close()
		return nil, err
	}

	c := &Core{
		Cfg:         cfg,
		Store:       store,
		StoreCloser: storeCloser,
		LogCloser:   logCloser,
		Hub:         eventbus.NewHub(),
		Lock:        instlock.New(lockPath(cfg)),
	}

	c.Services.Progress = service.NewProgressService(store, c.Hub, c.Lock, service.ProgressConfig{
		SnapshotKey: cfg.Storage.SnapshotKey,
		RPRatio:     cfg.Engine.RPRatio,
		Decay:       service.NewDecayPolicy(cfg.Engine.DecayPolicy, cfg.Engine.DecayRate),
		Quests: service.QuestConfig{
			DailySlots:        cfg.Quests.DailySlots,
			HistoryWindowDays: cfg.Quests.HistoryWindowDays,
			Damping:           cfg.Quests.Damping,
			MonthlyCap:        cfg.Quests.MonthlyCap,
		},
		Seed: cfg.Engine.Seed,
	})
	c.Services.Scheduler = service.NewScheduler(c.Services.Progress, &service.SchedulerConfig{
		IntervalSec: cfg.Engine.TickIntervalSec,
	}, nil)

	return c, nil
}

// ApplyConfig 热更新可在运行时调整的配置项；存储相关的变更需要重启
func (c *Core) ApplyConfig(next *config.Config) error {
	if next == nil {
		return fmt.Errorf("配置不能为空")
	}
	config.SetLogLevel(next.App.LogLevel)
	c.Services.Progress.SetDecayPolicy(service.NewDecayPolicy(next.Engine.DecayPolicy, next.Engine.DecayRate))
	c.Services.Scheduler.SetInterval(next.Engine.TickIntervalSec)

	restart := next.Storage != c.Cfg.Storage
	c.Cfg.App.LogLevel = next.App.LogLevel
	c.Cfg.Engine.DecayPolicy = next.Engine.DecayPolicy
	c.Cfg.Engine.DecayRate = next.Engine.DecayRate
	c.Cfg.Engine.TickIntervalSec = next.Engine.TickIntervalSec
	if restart {
		return fmt.Errorf("存储配置已变更，需重启生效")
	}
	return nil
}

// lockPath 数据锁文件与存储放在同一目录
func lockPath(cfg *config.Config) string {
	dir := cfg.Storage.JSONPath
	if cfg.Storage.Engine != repository.EngineJSON {
		if cfg.Storage.DBPath == ":memory:" {
			return filepath.Join(os.TempDir(), fmt.Sprintf("liferpg-%d.lock", os.Getpid()))
		}
		dir = filepath.Dir(cfg.Storage.DBPath)
	}
	return filepath.Join(dir, ".liferpg.lock")
}

// Close 关闭核心依赖资源
func (c *Core) Close() error {
	if c == nil {
		return nil
	}
	if c.Services.Scheduler != nil {
		c.Services.Scheduler.Stop()
	}
	var storeErr error
	if c.StoreCloser != nil {
		storeErr = c.StoreCloser.Close()
	}
	if c.LogCloser != nil {
		_ = c.LogCloser.Close()
	}
	return storeErr
}
