package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/yuqie6/LifeRPG/internal/schema"
	"github.com/yuqie6/LifeRPG/internal/service"
)

var renderNow = time.Date(2026, 3, 10, 9, 30, 0, 0, time.Local)

func sampleReport() service.Report {
	st := schema.NewState(renderNow)
	st.TotalXP = 135
	st.RankRP = 81
	st.Entries = []schema.Entry{
		{ID: "1", Name: "Practice | warmup", GainedExp: 50, DayKey: "2026-03-10", Origin: schema.OriginManual},
		{ID: "2", Name: "Post", GainedExp: 30, DayKey: "2026-03-09", Origin: schema.OriginManual},
	}
	return service.BuildReport(st, renderNow)
}

func TestProgressBarWidth(t *testing.T) {
	for _, pct := range []float64{-5, 0, 33.3, 100, 250} {
		if w := lipgloss.Width(ProgressBar(pct, 10)); w != 10 {
			t.Fatalf("ProgressBar(%v) width = %d", pct, w)
		}
	}
}

func TestPlainReport(t *testing.T) {
	out := PlainReport(sampleReport())
	for _, want := range []string{"Total EXP: 135", "Rank: Bronze", "Rank Points: 81"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestMarkdownReport(t *testing.T) {
	md := MarkdownReport(sampleReport())
	if !strings.Contains(md, "| 03-10 | 50 |") {
		t.Fatalf("last 7 days table missing:\n%s", md)
	}
	if !strings.Contains(md, `Practice \| warmup`) {
		t.Fatalf("pipe not escaped:\n%s", md)
	}
	if strings.TrimSpace(RenderMarkdown(md)) == "" {
		t.Fatalf("rendered markdown empty")
	}
}

func TestQuestsEmpty(t *testing.T) {
	if !strings.Contains(Quests(nil), "No active quests") {
		t.Fatalf("empty quest list message missing")
	}
}
