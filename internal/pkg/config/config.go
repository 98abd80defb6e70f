package config

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	App     AppConfig     `mapstructure:"app"`
	Storage StorageConfig `mapstructure:"storage"`
	Engine  EngineConfig  `mapstructure:"engine"`
	Quests  QuestsConfig  `mapstructure:"quests"`
}

// AppConfig 应用配置
type AppConfig struct {
	Name     string `mapstructure:"name"`
	Version  string `mapstructure:"version"`
	LogLevel string `mapstructure:"log_level"`
	LogPath  string `mapstructure:"log_path"`
}

// StorageConfig 存储配置
type StorageConfig struct {
	Engine      string `mapstructure:"engine"` // sqlite | json
	DBPath      string `mapstructure:"db_path"`
	JSONPath    string `mapstructure:"json_path"`
	SnapshotKey string `mapstructure:"snapshot_key"`
}

// EngineConfig 进度引擎参数
type EngineConfig struct {
	DecayPolicy     string  `mapstructure:"decay_policy"` // flat | graduated
	DecayRate       float64 `mapstructure:"decay_rate"`
	RPRatio         float64 `mapstructure:"rp_ratio"`
	TickIntervalSec int     `mapstructure:"tick_interval_sec"`
	Seed            uint64  `mapstructure:"seed"`
}

// QuestsConfig 任务生成参数
type QuestsConfig struct {
	DailySlots        int     `mapstructure:"daily_slots"`
	HistoryWindowDays int     `mapstructure:"history_window_days"`
	Damping           float64 `mapstructure:"damping"`
	MonthlyCap        int     `mapstructure:"monthly_cap"`
}

const envPrefix = "LIFERPG"

// Load 加载配置文件
func Load(configPath string) (*Config, error) {
	v, err := open(configPath)
	if err != nil {
		return nil, err
	}
	return decode(v)
}

// LoadWatched 加载配置并监听文件变化；onChange 收到重新解析后的配置。
// 没有配置文件时不监听。
func LoadWatched(configPath string, onChange func(*Config, fsnotify.Event)) (*Config, error) {
	v, err := open(configPath)
	if err != nil {
		return nil, err
	}
	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	if v.ConfigFileUsed() == "" || onChange == nil {
		return cfg, nil
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		next, err := decode(v)
		if err != nil {
			slog.Warn("重新加载配置失败，保留旧配置", "error", err)
			return
		}
		slog.Info("配置已重新加载", "path", e.Name)
		onChange(next, e)
	})
	v.WatchConfig()
	return cfg, nil
}

func open(configPath string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// 支持环境变量：LIFERPG_ENGINE_DECAY_RATE=0.05
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			slog.Debug("配置文件未找到，使用默认配置")
		} else {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	} else {
		slog.Debug("加载配置文件", "path", v.ConfigFileUsed())
	}
	return v, nil
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	cfg.Storage.Engine = strings.ToLower(strings.TrimSpace(cfg.Storage.Engine))
	cfg.Engine.DecayPolicy = strings.ToLower(strings.TrimSpace(cfg.Engine.DecayPolicy))
	cfg.Storage.DBPath = resolvePath(cfg.Storage.DBPath)
	cfg.Storage.JSONPath = resolvePath(cfg.Storage.JSONPath)
	if cfg.App.LogPath != "" {
		cfg.App.LogPath = resolvePath(cfg.App.LogPath)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default 默认配置（init 命令写出）
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// setDefaults 设置默认值
func setDefaults(v *viper.Viper) {
	// App
	v.SetDefault("app.name", "liferpg")
	v.SetDefault("app.version", "0.1.0")
	v.SetDefault("app.log_level", "warn")
	v.SetDefault("app.log_path", "")

	// Storage
	v.SetDefault("storage.engine", "sqlite")
	v.SetDefault("storage.db_path", "./data/liferpg.db")
	v.SetDefault("storage.json_path", "./data")
	v.SetDefault("storage.snapshot_key", "liferpg_state_v1")

	// Engine
	v.SetDefault("engine.decay_policy", "flat")
	v.SetDefault("engine.decay_rate", 0.06)
	v.SetDefault("engine.rp_ratio", 0.6)
	v.SetDefault("engine.tick_interval_sec", 20)
	v.SetDefault("engine.seed", 0)

	// Quests
	v.SetDefault("quests.daily_slots", 4)
	v.SetDefault("quests.history_window_days", 14)
	v.SetDefault("quests.damping", 0.5)
	v.SetDefault("quests.monthly_cap", 3)
}

// Validate 校验取值范围
func (c *Config) Validate() error {
	var errs []error
	switch c.Storage.Engine {
	case "sqlite", "json":
	default:
		errs = append(errs, fmt.Errorf("storage.engine 不支持: %q", c.Storage.Engine))
	}
	if strings.TrimSpace(c.Storage.SnapshotKey) == "" {
		errs = append(errs, fmt.Errorf("storage.snapshot_key 不能为空"))
	}
	switch c.Engine.DecayPolicy {
	case "flat", "graduated":
	default:
		errs = append(errs, fmt.Errorf("engine.decay_policy 不支持: %q", c.Engine.DecayPolicy))
	}
	if !inUnit(c.Engine.DecayRate) || c.Engine.DecayRate == 0 || c.Engine.DecayRate == 1 {
		errs = append(errs, fmt.Errorf("engine.decay_rate 需在 (0,1) 内: %v", c.Engine.DecayRate))
	}
	if !inUnit(c.Engine.RPRatio) || c.Engine.RPRatio == 0 {
		errs = append(errs, fmt.Errorf("engine.rp_ratio 需在 (0,1] 内: %v", c.Engine.RPRatio))
	}
	if c.Engine.TickIntervalSec <= 0 {
		errs = append(errs, fmt.Errorf("engine.tick_interval_sec 必须为正数"))
	}
	if c.Quests.DailySlots <= 0 || c.Quests.MonthlyCap < 0 || c.Quests.HistoryWindowDays <= 0 {
		errs = append(errs, fmt.Errorf("quests 配置非法: %+v", c.Quests))
	}
	if !inUnit(c.Quests.Damping) {
		errs = append(errs, fmt.Errorf("quests.damping 需在 [0,1] 内: %v", c.Quests.Damping))
	}
	return errors.Join(errs...)
}

func inUnit(f float64) bool {
	return !math.IsNaN(f) && f >= 0 && f <= 1
}

// resolvePath 相对路径按可执行文件目录解析
func resolvePath(path string) string {
	if path == "" || path == ":memory:" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}

	exe, err := os.Executable()
	if err != nil {
		return path
	}
	return filepath.Join(filepath.Dir(exe), path)
}
