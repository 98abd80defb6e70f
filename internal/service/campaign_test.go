package service

import (
	"testing"
	"time"

	"github.com/yuqie6/LifeRPG/internal/schema"
)

func TestAddCPIsPure(t *testing.T) {
	c := schema.NewCampaign("S1", nil, testNow)
	next := AddCP(c, "vocal", 30)
	if next.Tracks[0].CP != 30 {
		t.Fatalf("cp = %d, want 30", next.Tracks[0].CP)
	}
	if c.Tracks[0].CP != 0 {
		t.Fatalf("original campaign mutated")
	}
	if got := AddCP(next, "vocal", -100); got.Tracks[0].CP != 0 {
		t.Fatalf("cp should floor at 0, got %d", got.Tracks[0].CP)
	}
	same := AddCP(c, "unknown", 10)
	for i := range same.Tracks {
		if same.Tracks[i].CP != 0 {
			t.Fatalf("unknown track changed cp")
		}
	}
}

func TestArchive(t *testing.T) {
	c := schema.NewCampaign("S1", nil, testNow)
	c = AddCP(c, "vocal", 120)
	c = AddCP(c, "music", 40)
	history := []schema.QuestHistory{
		{QuestID: "a", Status: schema.QuestDone},
		{QuestID: "b", Status: schema.QuestRerolled},
		{QuestID: "c", Status: schema.QuestDone},
	}
	later := testNow.Add(30 * 24 * time.Hour)
	rec, fresh := Archive(c, history, later)

	if rec.TotalCP != 160 || rec.QuestsDone != 2 || len(rec.History) != 3 {
		t.Fatalf("archive = %+v", rec)
	}
	if rec.Campaign.ID != c.ID || rec.ArchivedAt != later.UnixMilli() {
		t.Fatalf("archive campaign = %+v", rec.Campaign)
	}
	if fresh.ID == c.ID {
		t.Fatalf("fresh campaign reused id")
	}
	if len(fresh.Tracks) != len(c.Tracks) {
		t.Fatalf("fresh tracks = %d", len(fresh.Tracks))
	}
	for _, tr := range fresh.Tracks {
		if tr.CP != 0 {
			t.Fatalf("fresh track %s cp=%d", tr.Key, tr.CP)
		}
	}
	wantEnd := later.AddDate(0, schema.CampaignLength, 0).UnixMilli()
	if fresh.StartAt != later.UnixMilli() || fresh.EndAt != wantEnd {
		t.Fatalf("fresh window = %d..%d", fresh.StartAt, fresh.EndAt)
	}
	// 修改新赛季不影响归档
	fresh.Tracks[0].CP = 99
	if rec.Campaign.Tracks[0].CP != 120 {
		t.Fatalf("archive shares track slice")
	}
}

func TestArchiveCampaignKeepsEntries(t *testing.T) {
	st := newTestState()
	calc := NewRewardCalculator(0.6)
	calc.ApplyEntry(st, EntryInput{Name: "Practice", BaseExp: 50}, testNow)
	st.Quests = []schema.Quest{{ID: "q", Title: "t", Track: "vocal", Status: schema.QuestOpen}}
	st.QuestHistory = []schema.QuestHistory{{QuestID: "q", Status: schema.QuestDone}}
	st.Watermarks = schema.Watermarks{Day: "2026-03-10", Week: "2026-W11", Month: "2026-03"}

	ArchiveCampaign(st, testNow)
	if len(st.Archives) != 1 || len(st.Quests) != 0 || len(st.QuestHistory) != 0 {
		t.Fatalf("archive transition incomplete: %+v", st)
	}
	if st.Watermarks != (schema.Watermarks{}) {
		t.Fatalf("watermarks not cleared: %+v", st.Watermarks)
	}
	if len(st.Entries) != 1 || st.TotalXP != 50 {
		t.Fatalf("entries lost on archive")
	}
}

func TestCampaignProgressOf(t *testing.T) {
	c := schema.NewCampaign("S1", []schema.Track{{Key: "a", Name: "A", Target: 200}}, testNow)
	c = AddCP(c, "a", 500)
	got := CampaignProgressOf(c)
	if len(got) != 1 || got[0].Pct != 100 || got[0].CP != 500 {
		t.Fatalf("progress = %+v", got)
	}
}
