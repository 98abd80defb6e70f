package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/yuqie6/LifeRPG/internal/pkg/calendar"
	"github.com/yuqie6/LifeRPG/internal/schema"
)

// TopMode 排行方式
type TopMode string

const (
	TopByXP    TopMode = "xp"
	TopByCount TopMode = "count"
)

// DayValue 单日 EXP
type DayValue struct {
	Key   string `json:"key"`
	Label string `json:"label"` // MM-DD
	Value int    `json:"value"`
}

// TopItem 行为排行项
type TopItem struct {
	Name  string `json:"name"`
	XP    int    `json:"xp"`
	Count int    `json:"count"`
}

// ReportLine 报表行（label, value）
type ReportLine struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Report 只读汇总
type Report struct {
	GeneratedAt  int64              `json:"generated_at"`
	TotalXP      int                `json:"total_xp"`
	Level        LevelInfo          `json:"level"`
	RankRP       int                `json:"rank_rp"`
	Rank         Rank               `json:"rank"`
	NextRank     *Rank              `json:"next_rank,omitempty"`
	RPToNext     int                `json:"rp_to_next"`
	EntriesToday int                `json:"entries_today"`
	XPToday      int                `json:"xp_today"`
	Last7Days    []DayValue         `json:"last_7_days"`
	TopXP        []TopItem          `json:"top_xp"`
	TopCount     []TopItem          `json:"top_count"`
	Campaign     []CampaignProgress `json:"campaign"`
	EventTotal   float64            `json:"event_total"`
	Lines        []ReportLine       `json:"lines"`
}

// Last7Days 截止 today（含）的 7 天 EXP 序列，从旧到新
func Last7Days(entries []schema.Entry, today string) []DayValue {
	byDay := make(map[string]int)
	for _, e := range entries {
		byDay[e.DayKey] += e.GainedExp
	}
	out := make([]DayValue, 0, 7)
	for i := 6; i >= 0; i-- {
		key, err := calendar.AddDays(today, -i)
		if err != nil {
			return nil
		}
		out = append(out, DayValue{Key: key, Label: key[5:], Value: byDay[key]})
	}
	return out
}

// TopBy 按显示名称聚合，xp 模式按 EXP 再按次数排序，count 模式反之
func TopBy(entries []schema.Entry, mode TopMode) []TopItem {
	idx := make(map[string]int)
	var out []TopItem
	for _, e := range entries {
		i, ok := idx[e.Name]
		if !ok {
			i = len(out)
			idx[e.Name] = i
			out = append(out, TopItem{Name: e.Name})
		}
		out[i].XP += e.GainedExp
		out[i].Count++
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if mode == TopByCount {
			if a.Count != b.Count {
				return a.Count > b.Count
			}
			return a.XP > b.XP
		}
		if a.XP != b.XP {
			return a.XP > b.XP
		}
		return a.Count > b.Count
	})
	return out
}

// BuildReport 汇总状态为报表，不修改状态
func BuildReport(st *schema.State, now time.Time) Report {
	today := calendar.DayKey(now)
	r := Report{
		GeneratedAt: now.UnixMilli(),
		TotalXP:     st.TotalXP,
		Level:       LevelProgress(st.TotalXP),
		RankRP:      st.RankRP,
		Rank:        RankFromPoints(st.RankRP),
		RPToNext:    RPToNextRank(st.RankRP),
		Last7Days:   Last7Days(st.Entries, today),
		TopXP:       limitTop(TopBy(st.Entries, TopByXP), 5),
		TopCount:    limitTop(TopBy(st.Entries, TopByCount), 5),
		Campaign:    CampaignProgressOf(st.Campaign),
	}
	if next, ok := NextRank(r.Rank); ok {
		r.NextRank = &next
	}
	for _, e := range st.Entries {
		if e.DayKey == today {
			r.EntriesToday++
			r.XPToday += e.GainedExp
		}
	}
	for _, ev := range st.Events {
		r.EventTotal += ev.Amount
	}
	r.Lines = reportLines(r, now)
	return r
}

func reportLines(r Report, now time.Time) []ReportLine {
	add := func(label, format string, args ...any) ReportLine {
		return ReportLine{Label: label, Value: fmt.Sprintf(format, args...)}
	}
	lines := []ReportLine{
		add("Date", "%s", now.Format("2006-01-02 15:04")),
		add("Total EXP", "%d", r.TotalXP),
		add("Level", "%d", r.Level.Level),
		add("Level progress", "%d/%d EXP", r.Level.Into, r.Level.Need),
		add("To next level", "%d EXP", r.Level.ToNext),
		add("Rank", "%s", r.Rank.Name),
		add("Rank Points", "%d", r.RankRP),
	}
	if r.NextRank != nil {
		lines = append(lines, add("To "+r.NextRank.Name, "%d RP", r.RPToNext))
	}
	lines = append(lines,
		add("Entries today", "%d", r.EntriesToday),
		add("EXP today", "%d", r.XPToday),
	)
	for _, d := range r.Last7Days {
		lines = append(lines, add("Last 7 days "+d.Label, "%d", d.Value))
	}
	for i, t := range r.TopXP {
		lines = append(lines, add(fmt.Sprintf("Top EXP #%d", i+1), "%s %d EXP (%dx)", t.Name, t.XP, t.Count))
	}
	for i, t := range r.TopCount {
		lines = append(lines, add(fmt.Sprintf("Top count #%d", i+1), "%s %dx (%d EXP)", t.Name, t.Count, t.XP))
	}
	for _, c := range r.Campaign {
		lines = append(lines, add("Campaign "+c.Name, "%d/%d CP (%.0f%%)", c.CP, c.Target, c.Pct))
	}
	if r.EventTotal > 0 {
		lines = append(lines, add("Event earnings", "%.2f", r.EventTotal))
	}
	return lines
}

func limitTop(items []TopItem, n int) []TopItem {
	if len(items) > n {
		return items[:n]
	}
	return items
}
