package service

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/yuqie6/LifeRPG/internal/schema"
)

func seededRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func TestTrackScoresWindowAndWeights(t *testing.T) {
	st := newTestState()
	st.QuestHistory = []schema.QuestHistory{
		{Track: "vocal", Status: schema.QuestDone, DayKey: "2026-03-09"},
		{Track: "vocal", Status: schema.QuestRerolled, DayKey: "2026-03-09"}, // 不计分
		{Track: "music", Status: schema.QuestDone, DayKey: "2026-02-20"},     // 窗口外
	}
	st.Entries = []schema.Entry{
		{Name: "a", Track: "vocal", DayKey: "2026-03-10", Origin: schema.OriginManual},
		{Name: "b", Track: "content", DayKey: "2026-03-01", Origin: schema.OriginManual},
		{Name: "c", Track: "vocal", DayKey: "2026-03-10", Origin: schema.OriginQuest}, // 已由历史计分
		{Name: "d", DayKey: "2026-03-10", Origin: schema.OriginManual},                // 无赛道
	}
	scores := TrackScores(st, "2026-03-10", 14)
	if scores["vocal"] != 1.2 {
		t.Fatalf("vocal = %v, want 1.2", scores["vocal"])
	}
	if scores["content"] != 0.2 {
		t.Fatalf("content = %v, want 0.2", scores["content"])
	}
	if scores["music"] != 0 {
		t.Fatalf("music = %v, want 0", scores["music"])
	}
}

func TestTrackDeficitsDamping(t *testing.T) {
	st := newTestState()
	deficits := TrackDeficits(st, "2026-03-10", DefaultQuestConfig())
	// 权重：5+4+3+2+2*0.5 = 15
	var sum float64
	for _, d := range deficits {
		sum += d.Desired
		if d.Actual != 0 {
			t.Fatalf("%s actual = %v with no activity", d.Key, d.Actual)
		}
	}
	if sum < 0.999 || sum > 1.001 {
		t.Fatalf("desired shares sum to %v", sum)
	}
	if got := deficits[4].Desired; got < 0.0666 || got > 0.0667 {
		t.Fatalf("damped desired = %v, want 1/15", got)
	}
}

func TestGenerateDailySlots(t *testing.T) {
	for seed := uint64(1); seed <= 20; seed++ {
		st := newTestState()
		quests := GenerateDaily(st, "2026-03-10", testNow, seededRand(seed), DefaultQuestConfig())
		if len(quests) != 4 {
			t.Fatalf("seed %d: %d quests", seed, len(quests))
		}
		tracks := map[string]schema.Quest{}
		for _, q := range quests {
			if _, dup := tracks[q.Track]; dup {
				t.Fatalf("seed %d: duplicate track %s", seed, q.Track)
			}
			tracks[q.Track] = q
			if q.Period != schema.PeriodDaily || q.DueKey != "2026-03-10" || q.Status != schema.QuestOpen {
				t.Fatalf("seed %d: bad quest %+v", seed, q)
			}
		}
		for _, anchor := range []string{"vocal", "content", "fitness"} {
			if _, ok := tracks[anchor]; !ok {
				t.Fatalf("seed %d: missing track %s in %v", seed, anchor, tracks)
			}
		}
		f := tracks["fitness"]
		if f.Difficulty != 1 || f.TimeCost != schema.TimeShort {
			t.Fatalf("seed %d: damped quest not capped: %+v", seed, f)
		}
		for _, q := range quests {
			if q.Track != "vocal" && q.Track != "content" && q.Difficulty > 2 {
				t.Fatalf("seed %d: fill quest over ceiling: %+v", seed, q)
			}
		}
	}
}

func TestGenerateDailyFillsByDeficit(t *testing.T) {
	st := newTestState()
	// music 近期很活跃，learning 落后 -> 填充位给 learning
	for i := 0; i < 5; i++ {
		st.QuestHistory = append(st.QuestHistory, schema.QuestHistory{Track: "music", Status: schema.QuestDone, DayKey: "2026-03-09"})
	}
	quests := GenerateDaily(st, "2026-03-10", testNow, seededRand(7), DefaultQuestConfig())
	got := map[string]bool{}
	for _, q := range quests {
		got[q.Track] = true
	}
	if !got["learning"] || got["music"] {
		t.Fatalf("tracks = %v, want learning not music", got)
	}
}

func TestGenerateDailyMomentumTypes(t *testing.T) {
	st := newTestState()
	// 无活动：所有赛道动量 <= 0，偏向 drill/review
	for _, q := range GenerateDaily(st, "2026-03-10", testNow, seededRand(3), DefaultQuestConfig()) {
		if q.Type != schema.QuestDrill && q.Type != schema.QuestReview {
			t.Fatalf("low momentum produced %s for %s", q.Type, q.Track)
		}
	}

	// vocal 远超期望占比 -> 偏向 build/ship
	st = newTestState()
	for i := 0; i < 10; i++ {
		st.QuestHistory = append(st.QuestHistory, schema.QuestHistory{Track: "vocal", Status: schema.QuestDone, DayKey: "2026-03-09"})
	}
	for _, q := range GenerateDaily(st, "2026-03-10", testNow, seededRand(3), DefaultQuestConfig()) {
		if q.Track != "vocal" {
			continue
		}
		if q.Type != schema.QuestBuild && q.Type != schema.QuestShip && q.Type != schema.QuestBoss {
			t.Fatalf("high momentum produced %s", q.Type)
		}
	}
}

func TestGenerateDailyIdempotent(t *testing.T) {
	st := newTestState()
	rng := seededRand(11)
	first := GenerateDaily(st, "2026-03-10", testNow, rng, DefaultQuestConfig())
	st.Quests = append(st.Quests, first...)
	if again := GenerateDaily(st, "2026-03-10", testNow, rng, DefaultQuestConfig()); len(again) != 0 {
		t.Fatalf("second call generated %d quests", len(again))
	}

	// 部分已存在时只补足剩余槽位且不重复
	st = newTestState()
	st.Quests = append(st.Quests, first[:2]...)
	more := GenerateDaily(st, "2026-03-10", testNow, rng, DefaultQuestConfig())
	st.Quests = append(st.Quests, more...)
	if len(st.Quests) > 4 {
		t.Fatalf("cap exceeded: %d", len(st.Quests))
	}
	seen := map[dedupeKey]bool{}
	for _, q := range st.Quests {
		k := dedupeKey{q.Track, q.Title}
		if seen[k] {
			t.Fatalf("duplicate quest %v", k)
		}
		seen[k] = true
	}
}

func TestGenerateWeekly(t *testing.T) {
	st := newTestState()
	// content 落后于 vocal -> boss 给 content
	for i := 0; i < 3; i++ {
		st.QuestHistory = append(st.QuestHistory, schema.QuestHistory{Track: "vocal", Status: schema.QuestDone, DayKey: "2026-03-09"})
	}
	quests := GenerateWeekly(st, "2026-03-10", "2026-W11", testNow, seededRand(5), DefaultQuestConfig())
	if len(quests) != 3 {
		t.Fatalf("weekly = %d quests", len(quests))
	}
	byTrack := map[string]schema.Quest{}
	for _, q := range quests {
		byTrack[q.Track] = q
		if q.Period != schema.PeriodWeekly || q.DueKey != "2026-W11" {
			t.Fatalf("bad weekly quest %+v", q)
		}
	}
	if byTrack["content"].Type != schema.QuestBoss {
		t.Fatalf("boss should go to lagging anchor: %+v", byTrack)
	}
	if v := byTrack["vocal"].Type; v != schema.QuestBuild && v != schema.QuestShip {
		t.Fatalf("secondary type = %s", v)
	}
	if f := byTrack["fitness"]; f.Difficulty != 1 {
		t.Fatalf("damped weekly = %+v", f)
	}

	st.Quests = append(st.Quests, quests...)
	if again := GenerateWeekly(st, "2026-03-10", "2026-W11", testNow, seededRand(5), DefaultQuestConfig()); len(again) != 0 {
		t.Fatalf("weekly not capped: %d", len(again))
	}
}

func TestGenerateMonthly(t *testing.T) {
	st := newTestState()
	quests := GenerateMonthly(st, "2026-03", testNow, DefaultQuestConfig())
	if len(quests) != 3 {
		t.Fatalf("monthly = %d", len(quests))
	}
	want := []string{"vocal", "content", "music"}
	for i, q := range quests {
		if q.Track != want[i] || q.Type != schema.QuestMilestone || q.DueKey != "2026-03" {
			t.Fatalf("monthly[%d] = %+v", i, q)
		}
	}
	st.Quests = append(st.Quests, quests...)
	if again := GenerateMonthly(st, "2026-03", testNow, DefaultQuestConfig()); len(again) != 0 {
		t.Fatalf("monthly not capped")
	}
}

func TestGenericTemplatesForCustomTrack(t *testing.T) {
	st := newTestState()
	st.Campaign = schema.NewCampaign("Custom", []schema.Track{
		{Key: "writing", Name: "Writing", Priority: 3, Target: 100},
		{Key: "reading", Name: "Reading", Priority: 2, Target: 100},
	}, testNow)
	quests := GenerateDaily(st, "2026-03-10", testNow, seededRand(1), DefaultQuestConfig())
	if len(quests) != 2 {
		t.Fatalf("custom tracks produced %d quests", len(quests))
	}
	for _, q := range quests {
		if q.Title == "" || q.BaseExp <= 0 {
			t.Fatalf("bad generic quest %+v", q)
		}
	}
}

func TestRunGenerationWatermarks(t *testing.T) {
	st := newTestState()
	rng := seededRand(2)
	cfg := DefaultQuestConfig()

	res := RunGeneration(st, testNow, rng, cfg)
	if len(res.Daily) != 4 || len(res.Weekly) != 3 || len(res.Monthly) != 3 {
		t.Fatalf("first run = %d/%d/%d", len(res.Daily), len(res.Weekly), len(res.Monthly))
	}
	if st.Watermarks.Day != "2026-03-10" || st.Watermarks.Week != "2026-W11" || st.Watermarks.Month != "2026-03" {
		t.Fatalf("watermarks = %+v", st.Watermarks)
	}
	total := len(st.Quests)

	// 同一天重复检查不生成
	res = RunGeneration(st, testNow.Add(3*time.Hour), rng, cfg)
	if res.Total() != 0 || len(st.Quests) != total {
		t.Fatalf("repeat run generated %d", res.Total())
	}

	// 次日只触发日常，昨天未完成的日常过期
	next := testNow.AddDate(0, 0, 1)
	res = RunGeneration(st, next, rng, cfg)
	if len(res.Daily) != 4 || len(res.Weekly) != 0 || len(res.Monthly) != 0 {
		t.Fatalf("next day = %d/%d/%d", len(res.Daily), len(res.Weekly), len(res.Monthly))
	}
	if res.Expired != 4 {
		t.Fatalf("expired = %d, want 4", res.Expired)
	}
}

func TestPickOne(t *testing.T) {
	if _, ok := pickOne([]int{}, seededRand(1)); ok {
		t.Fatalf("empty candidates should fail")
	}
	if v, ok := pickOne([]int{7}, nil); !ok || v != 7 {
		t.Fatalf("single candidate = %v", v)
	}
	seen := map[int]bool{}
	rng := seededRand(9)
	for i := 0; i < 200; i++ {
		v, _ := pickOne([]int{1, 2, 3}, rng)
		seen[v] = true
	}
	if len(seen) != 3 {
		t.Fatalf("pickOne not covering candidates: %v", seen)
	}
}
