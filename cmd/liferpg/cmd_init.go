package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/yuqie6/LifeRPG/internal/pkg/config"
	"github.com/yuqie6/LifeRPG/internal/ui"
)

func initCmd() *cobra.Command {
	var force bool
	var path string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "写出默认配置文件",
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				path = cfgFile
			}
			if path == "" {
				p, err := config.DefaultConfigPath()
				if err != nil {
					return err
				}
				path = p
			}
			if err := config.WriteFile(path, config.Default(), force); err != nil {
				return err
			}
			fmt.Println(ui.Good.Render(ui.IconDone+" 已写入配置"), path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "覆盖已有配置")
	cmd.Flags().StringVarP(&path, "output", "o", "", "输出路径（默认可执行文件旁的 config/config.yaml）")
	return noCore(cmd)
}
