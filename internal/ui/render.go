package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/yuqie6/LifeRPG/internal/schema"
	"github.com/yuqie6/LifeRPG/internal/service"
)

// Status 等级/段位/赛季面板
func Status(r service.Report) string {
	lines := []string{
		Heading(IconLevel, fmt.Sprintf("Level %d", r.Level.Level)),
		ProgressBar(r.Level.Pct, 24) + Muted.Render(fmt.Sprintf("  %d/%d EXP", r.Level.Into, r.Level.Need)),
		LabelValue("Total EXP", r.TotalXP),
		LabelValue("Today", fmt.Sprintf("%d EXP in %d entries", r.XPToday, r.EntriesToday)),
		"",
		Heading(IconRank, RankText(r.Rank.Key, r.Rank.Name)),
		LabelValue("Rank Points", r.RankRP),
	}
	if r.NextRank != nil {
		lines = append(lines, Muted.Render(fmt.Sprintf("%d RP to %s", r.RPToNext, r.NextRank.Name)))
	}

	if len(r.Campaign) > 0 {
		lines = append(lines, "", Heading(IconFlag, "Campaign"))
		width := 0
		for _, c := range r.Campaign {
			width = max(width, lipgloss.Width(c.Name))
		}
		for _, c := range r.Campaign {
			name := c.Name + strings.Repeat(" ", width-lipgloss.Width(c.Name))
			lines = append(lines, fmt.Sprintf("%s %s %s", Key.Render(name), ProgressBar(c.Pct, 16),
				Muted.Render(fmt.Sprintf("%d/%d CP", c.CP, c.Target))))
		}
	}
	return Panel.Render(strings.Join(lines, "\n"))
}

// Quests 任务列表
func Quests(quests []schema.Quest) string {
	if len(quests) == 0 {
		return Muted.Render("No active quests. Run `liferpg tick` to generate.")
	}
	var b strings.Builder
	var period schema.Period
	for _, q := range quests {
		if q.Period != period {
			period = q.Period
			if b.Len() > 0 {
				b.WriteString("\n")
			}
			b.WriteString(H2.Render(strings.ToUpper(string(period))) + "\n")
		}
		fmt.Fprintf(&b, "%s %s %s %s\n",
			Muted.Render(shortID(q.ID)),
			Difficulty(q.Difficulty),
			q.Title,
			Muted.Render(fmt.Sprintf("[%s · %s · +%d EXP +%d CP]", q.Track, q.TimeCost, q.BaseExp, q.BaseCP)),
		)
	}
	return strings.TrimRight(b.String(), "\n")
}

// PlainReport 纯文本报表，每行 "label: value"
func PlainReport(r service.Report) string {
	var b strings.Builder
	b.WriteString("LifeRPG report\n")
	for _, l := range r.Lines {
		fmt.Fprintf(&b, "%s: %s\n", l.Label, l.Value)
	}
	return b.String()
}

// MarkdownReport 报表的 markdown 形式
func MarkdownReport(r service.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# LifeRPG report\n\n")
	fmt.Fprintf(&b, "**Level %d** · %d EXP total · %d EXP to next level\n\n", r.Level.Level, r.TotalXP, r.Level.ToNext)
	fmt.Fprintf(&b, "**%s** · %d RP", r.Rank.Name, r.RankRP)
	if r.NextRank != nil {
		fmt.Fprintf(&b, " · %d RP to %s", r.RPToNext, r.NextRank.Name)
	}
	b.WriteString("\n\n## Last 7 days\n\n| Day | EXP |\n|---|---:|\n")
	for _, d := range r.Last7Days {
		fmt.Fprintf(&b, "| %s | %d |\n", d.Label, d.Value)
	}
	if len(r.TopXP) > 0 {
		b.WriteString("\n## Top activities\n\n| Activity | EXP | Count |\n|---|---:|---:|\n")
		for _, t := range r.TopXP {
			fmt.Fprintf(&b, "| %s | %d | %d |\n", escapeCell(t.Name), t.XP, t.Count)
		}
	}
	if len(r.Campaign) > 0 {
		b.WriteString("\n## Campaign\n\n| Track | CP | Target | % |\n|---|---:|---:|---:|\n")
		for _, c := range r.Campaign {
			fmt.Fprintf(&b, "| %s | %d | %d | %.0f |\n", escapeCell(c.Name), c.CP, c.Target, c.Pct)
		}
	}
	if r.EventTotal > 0 {
		fmt.Fprintf(&b, "\nEvent earnings: **%.2f**\n", r.EventTotal)
	}
	return b.String()
}

// RenderMarkdown 终端渲染 markdown，失败时原样返回
func RenderMarkdown(md string) string {
	if strings.TrimSpace(md) == "" {
		return ""
	}
	out, err := glamour.Render(md, "dark")
	if err != nil {
		return md
	}
	return strings.TrimSpace(out)
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
