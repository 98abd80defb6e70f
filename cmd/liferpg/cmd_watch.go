package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/yuqie6/LifeRPG/internal/bootstrap"
	"github.com/yuqie6/LifeRPG/internal/eventbus"
	"github.com/yuqie6/LifeRPG/internal/httpapi"
	"github.com/yuqie6/LifeRPG/internal/pkg/config"
	"github.com/yuqie6/LifeRPG/internal/ui"
)

// watchCmd 常驻：按间隔执行周期检查，并打印进度事件
func watchCmd() *cobra.Command {
	var httpAddr string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "常驻运行：定时衰减/生成任务，配置修改后热加载",
		RunE: func(cmd *cobra.Command, args []string) error {
			var live atomic.Pointer[bootstrap.Core]

			cfg, err := config.LoadWatched(cfgFile, func(next *config.Config, e fsnotify.Event) {
				c := live.Load()
				if c == nil {
					return
				}
				if err := c.ApplyConfig(next); err != nil {
					slog.Warn("配置热加载未完全生效", "error", err)
				}
			})
			if err != nil {
				return err
			}

			c, err := bootstrap.NewCoreWithConfig(cfg)
			if err != nil {
				return fmt.Errorf("初始化失败: %w", err)
			}
			core = c
			live.Store(c)

			runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			events := c.Hub.Subscribe(runCtx, 64)
			c.Services.Scheduler.Start(runCtx)
			if httpAddr != "" {
				srv, err := httpapi.Start(runCtx, c, httpapi.Options{ListenAddr: httpAddr})
				if err != nil {
					c.Services.Scheduler.Stop()
					return err
				}
				fmt.Println(ui.Muted.Render("local api: " + srv.BaseURL()))
			}
			fmt.Println(ui.Muted.Render(fmt.Sprintf("watching… interval %s, Ctrl+C to stop", c.Services.Scheduler.Interval())))

			for {
				select {
				case <-runCtx.Done():
					c.Services.Scheduler.Stop()
					stats := c.Services.Scheduler.Stats()
					_, dropped := c.Hub.Stats()
					fmt.Println(ui.Muted.Render(fmt.Sprintf("stopped after %d ticks (%d errors, %d events dropped)", stats.Ticks, stats.Errors, dropped)))
					return nil
				case evt, ok := <-events:
					if !ok {
						events = nil
						continue
					}
					printEvent(evt)
				}
			}
		},
	}
	cmd.Flags().StringVar(&httpAddr, "http", "", "同时启动本地 JSON/SSE API，例如 127.0.0.1:7321")
	return noCore(cmd)
}

func printEvent(evt eventbus.Event) {
	ts := time.UnixMilli(evt.Timestamp).Format("15:04:05")
	prefix := ui.Muted.Render(ts)
	switch evt.Type {
	case eventbus.TypeLevelUp:
		fmt.Println(prefix, ui.Gold.Render(fmt.Sprintf("%s LEVEL UP %v → %v", ui.IconLevel, evt.Data["from"], evt.Data["to"])))
	case eventbus.TypeRankChanged:
		fmt.Println(prefix, ui.H2.Render(fmt.Sprintf("%s rank %v → %v", ui.IconRank, evt.Data["from"], evt.Data["to"])))
	case eventbus.TypeDecayApplied:
		fmt.Println(prefix, ui.Warn.Render(fmt.Sprintf("%s decay %v days: %v → %v RP", ui.IconDecay, evt.Data["days"], evt.Data["rp_before"], evt.Data["rp_after"])))
	case eventbus.TypeQuestsGenerated:
		fmt.Println(prefix, fmt.Sprintf("%s new quests daily=%v weekly=%v monthly=%v", ui.IconQuest, evt.Data["daily"], evt.Data["weekly"], evt.Data["monthly"]))
	default:
		fmt.Println(prefix, evt.Type, evt.Data)
	}
}
