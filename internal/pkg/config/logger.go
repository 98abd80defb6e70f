package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// 进程级日志级别，配置热更新时直接修改
var logLevel = new(slog.LevelVar)

// LoggerOptions 日志选项
type LoggerOptions struct {
	Level     string
	Path      string // 为空时输出到 stderr
	Component string
}

// ParseLevel 解析日志级别，未知值按 info 处理
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetupLogger 安装默认 slog 文本处理器，返回的 Closer 用于关闭日志文件
func SetupLogger(opts LoggerOptions) (io.Closer, error) {
	logLevel.Set(ParseLevel(opts.Level))

	var (
		w      io.Writer = os.Stderr
		closer io.Closer = nopCloser{}
	)
	if opts.Path != "" {
		if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
			return nil, fmt.Errorf("创建日志目录失败: %w", err)
		}
		f, err := os.OpenFile(opts.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("打开日志文件失败: %w", err)
		}
		w, closer = f, f
	}

	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: logLevel}))
	if opts.Component != "" {
		logger = logger.With("component", opts.Component)
	}
	slog.SetDefault(logger)
	return closer, nil
}

// SetLogLevel 运行时调整日志级别
func SetLogLevel(level string) {
	logLevel.Set(ParseLevel(level))
}

// LogLevel 当前日志级别
func LogLevel() slog.Level {
	return logLevel.Level()
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
