package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/yuqie6/LifeRPG/internal/bootstrap"
	"github.com/yuqie6/LifeRPG/internal/pkg/buildinfo"
	"github.com/yuqie6/LifeRPG/internal/ui"
)

var (
	cfgFile string
	core    *bootstrap.Core
)

// errNoop 输入未通过校验，状态未改变
var errNoop = errors.New("输入无效，状态未改变")

// 自行管理 core 的命令（init / watch / version）
const annotationNoCore = "liferpg/no-core"

func main() {
	rootCmd := &cobra.Command{
		Use:           "liferpg",
		Short:         "LifeRPG - 把日常练习变成等级、段位与任务",
		Long:          `LifeRPG 记录每天的练习与产出，按防刷规则折算 EXP/RP，段位分随缺勤衰减，并按赛季生成每日/每周/每月任务。`,
		Version:       buildinfo.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[annotationNoCore] != "" {
				return nil
			}
			var err error
			core, err = bootstrap.NewCore(cfgFile)
			if err != nil {
				return fmt.Errorf("初始化失败: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if core != nil {
				core.Close()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "配置文件路径")

	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(deleteCmd())
	rootCmd.AddCommand(entriesCmd())
	rootCmd.AddCommand(quickCmd())
	rootCmd.AddCommand(tagCmd())
	rootCmd.AddCommand(eventCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(questsCmd())
	rootCmd.AddCommand(campaignCmd())
	rootCmd.AddCommand(tickCmd())
	rootCmd.AddCommand(watchCmd())
	rootCmd.AddCommand(resetCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.Bad.Render(ui.IconWarn+" "+err.Error()))
		if core != nil {
			core.Close()
		}
		os.Exit(1)
	}
}

func noCore(cmd *cobra.Command) *cobra.Command {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[annotationNoCore] = "1"
	return cmd
}

func now() time.Time {
	return time.Now()
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// truncateString 截断字符串
func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}

// resolveID 按唯一前缀匹配完整 ID
func resolveID(prefix string, ids []string) (string, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return "", fmt.Errorf("ID 不能为空")
	}
	var match string
	for _, id := range ids {
		if id == prefix {
			return id, nil
		}
		if strings.HasPrefix(id, prefix) {
			if match != "" {
				return "", fmt.Errorf("ID 前缀 %q 不唯一", prefix)
			}
			match = id
		}
	}
	if match == "" {
		return "", fmt.Errorf("找不到 ID: %s", prefix)
	}
	return match, nil
}

func ctx() context.Context {
	return context.Background()
}
