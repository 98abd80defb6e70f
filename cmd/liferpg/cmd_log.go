package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/yuqie6/LifeRPG/internal/schema"
	"github.com/yuqie6/LifeRPG/internal/service"
	"github.com/yuqie6/LifeRPG/internal/ui"
)

// logCmd 记录一次行为
func logCmd() *cobra.Command {
	var track string

	cmd := &cobra.Command{
		Use:   "log <name> [exp]",
		Short: "记录一次行为（省略 exp 时使用同名快捷行为）",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t := now()
			name := args[0]
			var exp float64
			if len(args) == 2 {
				v, err := strconv.ParseFloat(args[1], 64)
				if err != nil {
					return fmt.Errorf("exp 不是数字: %s", args[1])
				}
				exp = v
			} else {
				st, err := core.Services.Progress.Snapshot(ctx(), t)
				if err != nil {
					return err
				}
				qa := findQuick(st.QuickActions, name)
				if qa == nil {
					if hints := service.SuggestActivities(st, name, 3); len(hints) > 0 {
						return fmt.Errorf("没有名为 %q 的快捷行为，请给出 exp（相近: %s）", name, strings.Join(hints, ", "))
					}
					return fmt.Errorf("没有名为 %q 的快捷行为，请给出 exp", name)
				}
				name, exp = qa.Name, qa.Exp
			}

			e, ok, err := core.Services.Progress.LogActivity(ctx(), service.EntryInput{Name: name, BaseExp: exp, Track: track}, t)
			if err != nil {
				return err
			}
			if !ok {
				return errNoop
			}
			fmt.Printf("%s %s  +%d EXP  +%d RP  %s\n",
				ui.Good.Render(ui.IconDone), e.Name, e.GainedExp, e.GainedRP,
				ui.Muted.Render(fmt.Sprintf("×%.1f", e.Mult)))
			if e.Mult < 1 {
				fmt.Println(ui.Warn.Render("今天重复次数较多，收益已递减"))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&track, "track", "t", "", "赛道（默认按行为标签）")
	return cmd
}

func findQuick(actions []schema.QuickAction, name string) *schema.QuickAction {
	key := service.NormalizeActivityName(name)
	for i := range actions {
		if service.NormalizeActivityName(actions[i].Name) == key || actions[i].ID == name {
			return &actions[i]
		}
	}
	return nil
}

// deleteCmd 删除记录
func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <entry-id>",
		Short: "删除一条记录并回滚收益",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t := now()
			st, err := core.Services.Progress.Snapshot(ctx(), t)
			if err != nil {
				return err
			}
			ids := make([]string, 0, len(st.Entries))
			for _, e := range st.Entries {
				ids = append(ids, e.ID)
			}
			id, err := resolveID(args[0], ids)
			if err != nil {
				return err
			}
			e, ok, err := core.Services.Progress.DeleteEntry(ctx(), id, t)
			if err != nil {
				return err
			}
			if !ok {
				return errNoop
			}
			fmt.Printf("🗑️  已删除 %s  -%d EXP  -%d RP\n", e.Name, e.GainedExp, e.GainedRP)
			return nil
		},
	}
}

// entriesCmd 最近记录
func entriesCmd() *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "entries",
		Short: "查看最近记录",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := core.Services.Progress.Snapshot(ctx(), now())
			if err != nil {
				return err
			}
			entries := st.Entries
			if limit > 0 && len(entries) > limit {
				entries = entries[:limit]
			}
			if asJSON {
				return printJSON(entries)
			}
			if len(entries) == 0 {
				fmt.Println(ui.Muted.Render("还没有记录"))
				return nil
			}
			for _, e := range entries {
				fmt.Printf("%s %s %-24s +%d EXP +%d RP %s\n",
					ui.Muted.Render(e.ID[:min(8, len(e.ID))]),
					e.DayKey,
					truncateString(e.Name, 24),
					e.GainedExp, e.GainedRP,
					ui.Muted.Render(string(e.Origin)))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "最多显示条数")
	cmd.Flags().BoolVar(&asJSON, "json", false, "JSON 输出")
	return cmd
}

// quickCmd 快捷行为管理
func quickCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quick",
		Short: "管理快捷行为",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := core.Services.Progress.Snapshot(ctx(), now())
			if err != nil {
				return err
			}
			for _, qa := range st.QuickActions {
				fmt.Printf("%s %s %-20s %g EXP\n", qa.Icon, ui.Muted.Render(qa.ID), qa.Name, qa.Exp)
			}
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <name> <exp>",
		Short: "添加快捷行为",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			exp, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("exp 不是数字: %s", args[1])
			}
			qa, ok, err := core.Services.Progress.AddQuickAction(ctx(), args[0], exp, now())
			if err != nil {
				return err
			}
			if !ok {
				return errNoop
			}
			fmt.Println(ui.Good.Render(ui.IconDone), qa.Name, qa.ID)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rm <id>",
		Short: "删除快捷行为",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ok, err := core.Services.Progress.RemoveQuickAction(ctx(), args[0], now())
			if err != nil {
				return err
			}
			if !ok {
				return errNoop
			}
			fmt.Println(ui.Good.Render(ui.IconDone), "已删除", args[0])
			return nil
		},
	})
	return cmd
}

// tagCmd 行为标签
func tagCmd() *cobra.Command {
	var cost string

	cmd := &cobra.Command{
		Use:   "tag <name> [track]",
		Short: "把行为归入赛道（省略 track 则清除标签）",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			track := ""
			if len(args) == 2 {
				track = args[1]
			}
			ok, err := core.Services.Progress.TagActivity(ctx(), args[0], track, schema.TimeCost(strings.ToLower(cost)), now())
			if err != nil {
				return err
			}
			if !ok {
				return errNoop
			}
			if track == "" {
				fmt.Println(ui.Good.Render(ui.IconDone), "已清除标签", args[0])
			} else {
				fmt.Println(ui.Good.Render(ui.IconDone), args[0], "→", track)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&cost, "cost", "", "耗时 short|medium|long")
	return cmd
}

// eventCmd 特殊事件
func eventCmd() *cobra.Command {
	var exp float64

	cmd := &cobra.Command{
		Use:   "event <title> <amount>",
		Short: "记录带金额的特殊事件（演出、合作等）",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("金额不是数字: %s", args[1])
			}
			ev, ok, err := core.Services.Progress.AddEvent(ctx(), args[0], amount, exp, now())
			if err != nil {
				return err
			}
			if !ok {
				return errNoop
			}
			fmt.Printf("%s %s  %.2f\n", ui.Gold.Render("💰"), ev.Title, ev.Amount)
			return nil
		},
	}

	cmd.Flags().Float64Var(&exp, "exp", 50, "同时记入的基础 EXP")
	return cmd
}

// resetCmd 重置
func resetCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "清空全部进度",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("reset 会清空全部进度，确认请加 --yes")
			}
			if err := core.Services.Progress.Reset(ctx(), now()); err != nil {
				return err
			}
			fmt.Println(ui.Good.Render(ui.IconDone), "已重置")
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "确认重置")
	return cmd
}
