package service

import (
	"math/rand/v2"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/yuqie6/LifeRPG/internal/pkg/calendar"
	"github.com/yuqie6/LifeRPG/internal/schema"
)

func appendHistory(st *schema.State, q schema.Quest, status schema.QuestStatus, day string, now time.Time) {
	st.QuestHistory = append(st.QuestHistory, schema.QuestHistory{
		QuestID: q.ID,
		Title:   q.Title,
		Track:   q.Track,
		Type:    q.Type,
		Period:  q.Period,
		Status:  status,
		DayKey:  day,
		Ts:      now.UnixMilli(),
		Quality: q.Quality,
	})
}

// CompleteQuest open -> done：按质量倍率发放奖励，写入一条 quest 来源记录并累加赛道 CP。
// done 为终态，重复完成返回 false。
func CompleteQuest(st *schema.State, id string, quality int, now time.Time) (*schema.Entry, bool) {
	idx := st.FindQuest(id)
	if idx < 0 || quality < 1 || quality > 3 {
		return nil, false
	}
	q := &st.Quests[idx]
	if !q.IsOpen() {
		return nil, false
	}

	exp, rp, cp := QuestReward(*q, quality)
	day := calendar.DayKey(now)
	if st.Campaign.FindTrack(q.Track) < 0 {
		cp = 0
	}

	entry := schema.Entry{
		ID:        uuid.NewString(),
		Name:      q.Title,
		BaseExp:   float64(q.BaseExp),
		GainedExp: exp,
		GainedRP:  rp,
		GainedCP:  cp,
		Mult:      QualityMultipliers(quality).Exp,
		DayKey:    day,
		Ts:        now.UnixMilli(),
		Origin:    schema.OriginQuest,
		Track:     q.Track,
		QuestID:   q.ID,
	}
	insertEntry(st, entry)
	if cp > 0 {
		st.Campaign = AddCP(st.Campaign, q.Track, cp)
	}

	q.Status = schema.QuestDone
	q.Quality = quality
	q.CompletedAt = now.UnixMilli()
	q.CompletedDay = day
	q.SnoozeUntil = ""
	appendHistory(st, *q, schema.QuestDone, day, now)
	return &st.Entries[0], true
}

// RerollQuest 原位替换模板：保留 ID、周期与到期键，尽量避开刚被替换的类型
func RerollQuest(st *schema.State, id string, rng *rand.Rand, now time.Time) (*schema.Quest, bool) {
	idx := st.FindQuest(id)
	if idx < 0 {
		return nil, false
	}
	q := &st.Quests[idx]
	if !q.IsOpen() {
		return nil, false
	}
	ti := st.Campaign.FindTrack(q.Track)
	if ti < 0 {
		return nil, false
	}

	used := existingKeys(st, q.Period, q.DueKey)
	maxCost := schema.TimeLong
	if st.Campaign.Tracks[ti].Damped && q.Period == schema.PeriodDaily {
		maxCost = schema.TimeShort
	}
	var sameCeiling, otherType, fallback []QuestTemplate
	for _, t := range TemplatesFor(st.Campaign.Tracks[ti], q.Period) {
		if t.Title == q.Title || used[dedupeKey{t.Track, t.Title}] || t.TimeCost.Rank() > maxCost.Rank() {
			continue
		}
		fallback = append(fallback, t)
		if t.Difficulty <= max(q.Difficulty, 1) {
			sameCeiling = append(sameCeiling, t)
			if t.Type != q.Type {
				otherType = append(otherType, t)
			}
		}
	}
	var (
		t  QuestTemplate
		ok bool
	)
	switch {
	case len(otherType) > 0:
		t, ok = pickOne(otherType, rng)
	case len(sameCeiling) > 0:
		t, ok = pickOne(sameCeiling, rng)
	default:
		t, ok = pickOne(fallback, rng)
	}
	if !ok {
		return nil, false
	}

	appendHistory(st, *q, schema.QuestRerolled, calendar.DayKey(now), now)
	fresh := t.Instantiate(q.ID, q.DueKey, q.CreatedAt)
	fresh.RerollCount = q.RerollCount + 1
	*q = fresh
	return q, true
}

// SnoozeQuest 推迟到 untilDay（必须晚于今天），期间不出现在活跃列表
func SnoozeQuest(st *schema.State, id, untilDay string, now time.Time) (*schema.Quest, bool) {
	idx := st.FindQuest(id)
	if idx < 0 {
		return nil, false
	}
	q := &st.Quests[idx]
	today := calendar.DayKey(now)
	if !q.IsOpen() || !calendar.IsDayKey(untilDay) || untilDay <= today {
		return nil, false
	}
	q.SnoozeUntil = untilDay
	appendHistory(st, *q, schema.QuestSnoozed, today, now)
	return q, true
}

// SkipQuest open -> skipped
func SkipQuest(st *schema.State, id string, now time.Time) (*schema.Quest, bool) {
	idx := st.FindQuest(id)
	if idx < 0 {
		return nil, false
	}
	q := &st.Quests[idx]
	if !q.IsOpen() {
		return nil, false
	}
	q.Status = schema.QuestSkipped
	q.SnoozeUntil = ""
	appendHistory(st, *q, schema.QuestSkipped, calendar.DayKey(now), now)
	return q, true
}

// SweepSnoozed 清除已到期的推迟标记，返回清除数量
func SweepSnoozed(st *schema.State, today string) int {
	n := 0
	for i := range st.Quests {
		q := &st.Quests[i]
		if q.IsOpen() && q.SnoozeUntil != "" && q.SnoozeUntil <= today {
			q.SnoozeUntil = ""
			n++
		}
	}
	return n
}

// ActiveQuests 今天可见的任务；period 为空表示全部周期。按周期、赛道优先级排序
func ActiveQuests(st *schema.State, period schema.Period, today string) []schema.Quest {
	var out []schema.Quest
	for _, q := range st.Quests {
		if period != "" && q.Period != period {
			continue
		}
		if q.IsActive(today) {
			out = append(out, q)
		}
	}
	prio := func(key string) float64 {
		if i := st.Campaign.FindTrack(key); i >= 0 {
			return st.Campaign.Tracks[i].Priority
		}
		return 0
	}
	sort.SliceStable(out, func(i, j int) bool {
		if pi, pj := periodOrder(out[i].Period), periodOrder(out[j].Period); pi != pj {
			return pi < pj
		}
		return prio(out[i].Track) > prio(out[j].Track)
	})
	return out
}

func periodOrder(p schema.Period) int {
	switch p {
	case schema.PeriodDaily:
		return 0
	case schema.PeriodWeekly:
		return 1
	case schema.PeriodMonthly:
		return 2
	default:
		return 3
	}
}
