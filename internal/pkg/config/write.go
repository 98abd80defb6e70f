package config

import (
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

// DefaultConfigPath 可执行文件旁的 config/config.yaml
func DefaultConfigPath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("获取可执行文件路径失败: %w", err)
	}
	return filepath.Join(filepath.Dir(exe), "config", "config.yaml"), nil
}

// Marshal 序列化为 yaml，键名与 Load 读取的一致
func Marshal(cfg *Config) ([]byte, error) {
	if cfg == nil {
		return nil, fmt.Errorf("cfg 不能为空")
	}
	payload := map[string]any{
		"app": map[string]any{
			"name":      cfg.App.Name,
			"version":   cfg.App.Version,
			"log_level": cfg.App.LogLevel,
			"log_path":  cfg.App.LogPath,
		},
		"storage": map[string]any{
			"engine":       cfg.Storage.Engine,
			"db_path":      cfg.Storage.DBPath,
			"json_path":    cfg.Storage.JSONPath,
			"snapshot_key": cfg.Storage.SnapshotKey,
		},
		"engine": map[string]any{
			"decay_policy":      cfg.Engine.DecayPolicy,
			"decay_rate":        cfg.Engine.DecayRate,
			"rp_ratio":          cfg.Engine.RPRatio,
			"tick_interval_sec": cfg.Engine.TickIntervalSec,
			"seed":              cfg.Engine.Seed,
		},
		"quests": map[string]any{
			"daily_slots":         cfg.Quests.DailySlots,
			"history_window_days": cfg.Quests.HistoryWindowDays,
			"damping":             cfg.Quests.Damping,
			"monthly_cap":         cfg.Quests.MonthlyCap,
		},
	}

	b, err := yaml.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("序列化配置失败: %w", err)
	}
	return b, nil
}

// WriteFile 写出配置文件；overwrite 为 false 且文件已存在时返回错误
func WriteFile(path string, cfg *Config, overwrite bool) error {
	if path == "" {
		return fmt.Errorf("path 不能为空")
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("配置文件已存在: %s", path)
		}
	}

	b, err := Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("创建配置目录失败: %w", err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("写入配置文件失败: %w", err)
	}
	return nil
}
