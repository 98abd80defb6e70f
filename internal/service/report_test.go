package service

import (
	"testing"

	"github.com/yuqie6/LifeRPG/internal/schema"
)

func TestLast7Days(t *testing.T) {
	entries := []schema.Entry{
		{Name: "a", GainedExp: 10, DayKey: "2026-03-10"},
		{Name: "b", GainedExp: 5, DayKey: "2026-03-10"},
		{Name: "c", GainedExp: 7, DayKey: "2026-03-04"},
		{Name: "d", GainedExp: 99, DayKey: "2026-03-03"}, // 窗口外
	}
	got := Last7Days(entries, "2026-03-10")
	if len(got) != 7 {
		t.Fatalf("len = %d", len(got))
	}
	if got[0].Key != "2026-03-04" || got[0].Value != 7 || got[0].Label != "03-04" {
		t.Fatalf("first = %+v", got[0])
	}
	if got[6].Key != "2026-03-10" || got[6].Value != 15 {
		t.Fatalf("last = %+v", got[6])
	}
	for _, d := range got[1:6] {
		if d.Value != 0 {
			t.Fatalf("%s = %d, want 0", d.Key, d.Value)
		}
	}
}

func TestLast7DaysAcrossMonth(t *testing.T) {
	got := Last7Days(nil, "2026-03-02")
	if got[0].Key != "2026-02-24" || got[6].Key != "2026-03-02" {
		t.Fatalf("range = %s..%s", got[0].Key, got[6].Key)
	}
}

func TestTopBy(t *testing.T) {
	entries := []schema.Entry{
		{Name: "Run", GainedExp: 100},
		{Name: "Post", GainedExp: 30},
		{Name: "Post", GainedExp: 30},
		{Name: "Post", GainedExp: 21},
		{Name: "Sing", GainedExp: 50},
		{Name: "Sing", GainedExp: 31},
	}
	byXP := TopBy(entries, TopByXP)
	if byXP[0].Name != "Run" || byXP[0].XP != 100 {
		t.Fatalf("xp top = %+v", byXP)
	}
	// Post 与 Sing 同为 81 EXP，次数多者优先
	if byXP[1].Name != "Post" || byXP[2].Name != "Sing" {
		t.Fatalf("xp tiebreak = %+v", byXP)
	}
	byCount := TopBy(entries, TopByCount)
	if byCount[0].Name != "Post" || byCount[0].Count != 3 {
		t.Fatalf("count top = %+v", byCount)
	}
	if byCount[1].Name != "Sing" || byCount[2].Name != "Run" {
		t.Fatalf("count order = %+v", byCount)
	}
	if got := TopBy(nil, TopByXP); len(got) != 0 {
		t.Fatalf("empty = %+v", got)
	}
}

func TestBuildReport(t *testing.T) {
	st := newTestState()
	calc := NewRewardCalculator(0.6)
	for range 3 {
		calc.ApplyEntry(st, EntryInput{Name: "Practice", BaseExp: 50}, testNow)
	}
	calc.AddEvent(st, "Gig", 120, 10, testNow)

	r := BuildReport(st, testNow)
	if r.TotalXP != 145 || r.XPToday != 145 || r.EntriesToday != 4 {
		t.Fatalf("report totals = %+v", r)
	}
	if r.Level.Level != 2 || r.Rank.Key != "bronze" || r.NextRank == nil || r.NextRank.Key != "silver" {
		t.Fatalf("level/rank = %+v %+v", r.Level, r.Rank)
	}
	if r.EventTotal != 120 {
		t.Fatalf("event total = %v", r.EventTotal)
	}
	if len(r.Lines) == 0 || r.Lines[1].Label != "Total EXP" || r.Lines[1].Value != "145" {
		t.Fatalf("lines = %+v", r.Lines)
	}
	if len(r.Campaign) != len(st.Campaign.Tracks) {
		t.Fatalf("campaign progress = %+v", r.Campaign)
	}
}
