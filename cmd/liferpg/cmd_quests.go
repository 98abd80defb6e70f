package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/yuqie6/LifeRPG/internal/pkg/calendar"
	"github.com/yuqie6/LifeRPG/internal/schema"
	"github.com/yuqie6/LifeRPG/internal/service"
	"github.com/yuqie6/LifeRPG/internal/ui"
)

// statusCmd 当前等级/段位/赛季
func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "查看等级、段位与赛季进度",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := core.Services.Progress.Report(ctx(), now())
			if err != nil {
				return err
			}
			fmt.Println(ui.Status(r))
			return nil
		},
	}
}

// reportCmd 报表
func reportCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "导出进度报表",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := core.Services.Progress.Report(ctx(), now())
			if err != nil {
				return err
			}
			switch strings.ToLower(format) {
			case "text":
				fmt.Print(ui.PlainReport(r))
			case "json":
				return printJSON(r)
			case "md", "markdown":
				fmt.Print(ui.MarkdownReport(r))
			case "pretty":
				fmt.Println(ui.RenderMarkdown(ui.MarkdownReport(r)))
			default:
				return fmt.Errorf("未知格式: %s（text|json|md|pretty）", format)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "pretty", "输出格式 text|json|md|pretty")
	return cmd
}

// tickCmd 手动执行一次周期检查
func tickCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "tick",
		Short: "执行段位衰减与任务生成",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := core.Services.Progress.Tick(ctx(), now())
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(res)
			}
			printTick(res)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "JSON 输出")
	return cmd
}

func printTick(res service.TickResult) {
	if res.Decay.DaysPenalized > 0 {
		fmt.Printf("%s 缺勤 %d 天，RP %d → %d\n", ui.Warn.Render(ui.IconDecay), res.Decay.DaysPenalized, res.Decay.RPBefore, res.Decay.RPAfter)
	}
	if n := res.Generation.Total(); n > 0 {
		fmt.Printf("%s 新任务 %d 个（日 %d / 周 %d / 月 %d）\n", ui.IconQuest, n,
			len(res.Generation.Daily), len(res.Generation.Weekly), len(res.Generation.Monthly))
	}
	if res.Generation.Expired > 0 {
		fmt.Println(ui.Muted.Render(fmt.Sprintf("%d 个过期任务已跳过", res.Generation.Expired)))
	}
	if !res.Decay.Changed() && res.Generation.Total() == 0 && res.Generation.Expired == 0 {
		fmt.Println(ui.Muted.Render("没有变化"))
	}
}

// questsCmd 任务
func questsCmd() *cobra.Command {
	var period string
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "quests",
		Aliases: []string{"q"},
		Short:   "查看当前任务",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := schema.Period(strings.ToLower(period))
			if p != "" && !p.IsValid() {
				return fmt.Errorf("未知周期: %s", period)
			}
			quests, err := core.Services.Progress.Quests(ctx(), p, now())
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(quests)
			}
			fmt.Println(ui.Quests(quests))
			return nil
		},
	}
	cmd.Flags().StringVarP(&period, "period", "p", "", "daily|weekly|monthly")
	cmd.Flags().BoolVar(&asJSON, "json", false, "JSON 输出")

	var quality int
	complete := &cobra.Command{
		Use:   "complete <quest-id>",
		Short: "完成任务",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveQuestID(args[0])
			if err != nil {
				return err
			}
			e, ok, err := core.Services.Progress.CompleteQuest(ctx(), id, quality, now())
			if err != nil {
				return err
			}
			if !ok {
				return errNoop
			}
			fmt.Printf("%s %s  +%d EXP  +%d RP  +%d CP\n", ui.Good.Render(ui.IconDone), e.Name, e.GainedExp, e.GainedRP, e.GainedCP)
			return nil
		},
	}
	complete.Flags().IntVarP(&quality, "quality", "q", 2, "完成质量 1-3")

	reroll := &cobra.Command{
		Use:   "reroll <quest-id>",
		Short: "重抽任务",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveQuestID(args[0])
			if err != nil {
				return err
			}
			q, ok, err := core.Services.Progress.RerollQuest(ctx(), id, now())
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("没有可替换的任务")
			}
			fmt.Println("🎲", q.Title)
			return nil
		},
	}

	snooze := &cobra.Command{
		Use:   "snooze <quest-id> [YYYY-MM-DD|+N]",
		Short: "推迟任务（默认推迟到明天）",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t := now()
			id, err := resolveQuestID(args[0])
			if err != nil {
				return err
			}
			until := "+1"
			if len(args) == 2 {
				until = args[1]
			}
			day, err := parseUntil(calendar.DayKey(t), until)
			if err != nil {
				return err
			}
			q, ok, err := core.Services.Progress.SnoozeQuest(ctx(), id, day, t)
			if err != nil {
				return err
			}
			if !ok {
				return errNoop
			}
			fmt.Println(ui.IconSnooze, q.Title, "→", q.SnoozeUntil)
			return nil
		},
	}

	skip := &cobra.Command{
		Use:   "skip <quest-id>",
		Short: "跳过任务",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveQuestID(args[0])
			if err != nil {
				return err
			}
			q, ok, err := core.Services.Progress.SkipQuest(ctx(), id, now())
			if err != nil {
				return err
			}
			if !ok {
				return errNoop
			}
			fmt.Println(ui.IconSkip, q.Title)
			return nil
		},
	}

	cmd.AddCommand(complete, reroll, snooze, skip)
	return cmd
}

func resolveQuestID(prefix string) (string, error) {
	st, err := core.Services.Progress.Snapshot(ctx(), now())
	if err != nil {
		return "", err
	}
	ids := make([]string, 0, len(st.Quests))
	for _, q := range st.Quests {
		ids = append(ids, q.ID)
	}
	return resolveID(prefix, ids)
}

// parseUntil 解析 YYYY-MM-DD 或 +N（相对今天的天数）
func parseUntil(today, s string) (string, error) {
	s = strings.TrimSpace(s)
	if rest, ok := strings.CutPrefix(s, "+"); ok {
		n, err := strconv.Atoi(rest)
		if err != nil || n <= 0 {
			return "", fmt.Errorf("天数无效: %s", s)
		}
		return calendar.AddDays(today, n)
	}
	if !calendar.IsDayKey(s) {
		return "", fmt.Errorf("日期格式应为 YYYY-MM-DD: %s", s)
	}
	return s, nil
}

// campaignCmd 赛季
func campaignCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "campaign",
		Short: "查看赛季与历史归档",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := core.Services.Progress.Snapshot(ctx(), now())
			if err != nil {
				return err
			}
			c := st.Campaign
			fmt.Println(ui.Heading(ui.IconFlag, c.Name))
			for _, p := range service.CampaignProgressOf(c) {
				fmt.Printf("  %-12s %s %d/%d CP\n", p.Name, ui.ProgressBar(p.Pct, 16), p.CP, p.Target)
			}
			if len(st.Archives) > 0 {
				fmt.Println()
				fmt.Println(ui.H2.Render("Archives"))
				for _, a := range st.Archives {
					fmt.Printf("  %s  %d/%d CP  %d quests\n", a.Campaign.Name, a.TotalCP, a.TotalTarget, a.QuestsDone)
				}
			}
			return nil
		},
	}

	var yes bool
	archive := &cobra.Command{
		Use:   "archive",
		Short: "归档当前赛季并开启新赛季",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("归档会清空当前任务，确认请加 --yes")
			}
			rec, err := core.Services.Progress.ArchiveCampaign(ctx(), now())
			if err != nil {
				return err
			}
			fmt.Printf("%s 已归档 %s：%d/%d CP，完成任务 %d 个\n", ui.Good.Render(ui.IconDone), rec.Campaign.Name, rec.TotalCP, rec.TotalTarget, rec.QuestsDone)
			return nil
		},
	}
	archive.Flags().BoolVar(&yes, "yes", false, "确认归档")

	cmd.AddCommand(archive)
	return cmd
}
