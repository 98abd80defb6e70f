package service

import (
	"log/slog"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/yuqie6/LifeRPG/internal/pkg/calendar"
	"github.com/yuqie6/LifeRPG/internal/schema"
)

const (
	entryScoreWeight = 0.2
	weeklyCap        = 3
)

// QuestConfig 任务生成参数
type QuestConfig struct {
	DailySlots        int
	HistoryWindowDays int
	Damping           float64 // 低紧迫度赛道的权重系数
	MonthlyCap        int
}

// DefaultQuestConfig 默认配置
func DefaultQuestConfig() QuestConfig {
	return QuestConfig{
		DailySlots:        4,
		HistoryWindowDays: 14,
		Damping:           0.5,
		MonthlyCap:        3,
	}
}

func (c QuestConfig) withDefaults() QuestConfig {
	d := DefaultQuestConfig()
	if c.DailySlots <= 0 {
		c.DailySlots = d.DailySlots
	}
	if c.HistoryWindowDays <= 0 {
		c.HistoryWindowDays = d.HistoryWindowDays
	}
	if c.Damping <= 0 || c.Damping > 1 {
		c.Damping = d.Damping
	}
	if c.MonthlyCap <= 0 {
		c.MonthlyCap = d.MonthlyCap
	}
	return c
}

// TrackDeficit 赛道缺口评分
type TrackDeficit struct {
	Key     string  `json:"key"`
	Score   float64 `json:"score"`   // 窗口内活跃度
	Desired float64 `json:"desired"` // 期望占比
	Actual  float64 `json:"actual"`  // 实际占比
	Deficit float64 `json:"deficit"` // desired - actual
}

// Momentum 正数表示超前于期望占比
func (d TrackDeficit) Momentum() float64 {
	return -d.Deficit
}

// GenerationResult 一次 tick 中各周期新生成的任务
type GenerationResult struct {
	Daily     []schema.Quest `json:"daily"`
	Weekly    []schema.Quest `json:"weekly"`
	Monthly   []schema.Quest `json:"monthly"`
	Expired   int            `json:"expired"`
	Unsnoozed int            `json:"unsnoozed"`
}

// Total 新任务总数
func (r GenerationResult) Total() int {
	return len(r.Daily) + len(r.Weekly) + len(r.Monthly)
}

// TrackScores 窗口 [today-window+1, today] 内各赛道活跃度：完成任务数 + 0.2 * 带赛道的记录数。
// 只有 done 历史计分，reroll/snooze/skip 不影响评分。
func TrackScores(st *schema.State, today string, window int) map[string]float64 {
	scores := make(map[string]float64, len(st.Campaign.Tracks))
	for _, t := range st.Campaign.Tracks {
		scores[t.Key] = 0
	}
	inWindow := func(day string) bool {
		d, err := calendar.DiffDays(day, today)
		return err == nil && d >= 0 && d < window
	}
	for _, h := range st.QuestHistory {
		if h.Status != schema.QuestDone || h.Track == "" || !inWindow(h.DayKey) {
			continue
		}
		if _, ok := scores[h.Track]; ok {
			scores[h.Track]++
		}
	}
	for _, e := range st.Entries {
		// 任务完成产生的记录已通过历史计分
		if e.Track == "" || e.Origin == schema.OriginQuest || !inWindow(e.DayKey) {
			continue
		}
		if _, ok := scores[e.Track]; ok {
			scores[e.Track] += entryScoreWeight
		}
	}
	return scores
}

// TrackDeficits 各赛道缺口，按赛季中的赛道顺序返回
func TrackDeficits(st *schema.State, today string, cfg QuestConfig) []TrackDeficit {
	cfg = cfg.withDefaults()
	scores := TrackScores(st, today, cfg.HistoryWindowDays)

	var weightSum, scoreSum float64
	for _, t := range st.Campaign.Tracks {
		weightSum += trackWeight(t, cfg)
		scoreSum += scores[t.Key]
	}

	out := make([]TrackDeficit, 0, len(st.Campaign.Tracks))
	for _, t := range st.Campaign.Tracks {
		d := TrackDeficit{Key: t.Key, Score: scores[t.Key]}
		if weightSum > 0 {
			d.Desired = trackWeight(t, cfg) / weightSum
		}
		if scoreSum > 0 {
			d.Actual = d.Score / scoreSum
		}
		d.Deficit = d.Desired - d.Actual
		out = append(out, d)
	}
	return out
}

func trackWeight(t schema.Track, cfg QuestConfig) float64 {
	if t.Damped {
		return t.Priority * cfg.Damping
	}
	return t.Priority
}

type slotRole int

const (
	roleAnchor slotRole = iota
	roleFill
	roleDamped
)

// ceiling 各角色允许的最高难度与耗时
func (r slotRole) ceiling() (int, schema.TimeCost) {
	switch r {
	case roleAnchor:
		return 3, schema.TimeLong
	case roleFill:
		return 2, schema.TimeLong
	default:
		return 1, schema.TimeShort
	}
}

type slot struct {
	track schema.Track
	role  slotRole
}

// anchorTracks 优先级最高的两个非降权赛道
func anchorTracks(c schema.Campaign) []schema.Track {
	var cands []schema.Track
	for _, t := range c.Tracks {
		if !t.Damped {
			cands = append(cands, t)
		}
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].Priority > cands[j].Priority })
	if len(cands) > 2 {
		cands = cands[:2]
	}
	return cands
}

// dampedTrack 优先级最高的降权赛道
func dampedTrack(c schema.Campaign) (schema.Track, bool) {
	var best schema.Track
	found := false
	for _, t := range c.Tracks {
		if t.Damped && (!found || t.Priority > best.Priority) {
			best, found = t, true
		}
	}
	return best, found
}

// planDailySlots 锚定赛道 -> 按缺口填充 -> 一个降权赛道
func planDailySlots(st *schema.State, deficits []TrackDeficit, slots int) []slot {
	anchors := anchorTracks(st.Campaign)
	damped, hasDamped := dampedTrack(st.Campaign)

	plan := make([]slot, 0, slots)
	taken := make(map[string]bool)
	for _, t := range anchors {
		if len(plan) >= slots {
			break
		}
		plan = append(plan, slot{track: t, role: roleAnchor})
		taken[t.Key] = true
	}

	fill := slots - len(plan)
	if hasDamped {
		fill--
	}
	byDeficit := make([]TrackDeficit, len(deficits))
	copy(byDeficit, deficits)
	sort.SliceStable(byDeficit, func(i, j int) bool { return byDeficit[i].Deficit > byDeficit[j].Deficit })
	for _, d := range byDeficit {
		if fill <= 0 {
			break
		}
		idx := st.Campaign.FindTrack(d.Key)
		if idx < 0 || taken[d.Key] || st.Campaign.Tracks[idx].Damped {
			continue
		}
		plan = append(plan, slot{track: st.Campaign.Tracks[idx], role: roleFill})
		taken[d.Key] = true
		fill--
	}

	if hasDamped && len(plan) < slots {
		plan = append(plan, slot{track: damped, role: roleDamped})
	}
	return plan
}

// preferredTypes 动量高偏向 build/ship/boss，动量低偏向 drill/review
func preferredTypes(momentum float64) map[schema.QuestType]bool {
	if momentum > 0 {
		return map[schema.QuestType]bool{schema.QuestBuild: true, schema.QuestShip: true, schema.QuestBoss: true}
	}
	return map[schema.QuestType]bool{schema.QuestDrill: true, schema.QuestReview: true}
}

// pickOne 在候选中均匀随机选择
func pickOne[T any](cands []T, rng *rand.Rand) (T, bool) {
	var zero T
	if len(cands) == 0 {
		return zero, false
	}
	if rng == nil || len(cands) == 1 {
		return cands[0], true
	}
	return cands[rng.IntN(len(cands))], true
}

type dedupeKey struct {
	track string
	title string
}

func existingKeys(st *schema.State, period schema.Period, dueKey string) map[dedupeKey]bool {
	out := make(map[dedupeKey]bool)
	for _, q := range st.Quests {
		if q.Period == period && q.DueKey == dueKey {
			out[dedupeKey{q.Track, q.Title}] = true
		}
	}
	return out
}

func countQuests(st *schema.State, period schema.Period, dueKey string) int {
	n := 0
	for _, q := range st.Quests {
		if q.Period == period && q.DueKey == dueKey {
			n++
		}
	}
	return n
}

// chooseTemplate 在难度/耗时上限内挑选模板，优先符合动量的类型
func chooseTemplate(tpls []QuestTemplate, maxDiff int, maxCost schema.TimeCost, prefer map[schema.QuestType]bool, used map[dedupeKey]bool, rng *rand.Rand) (QuestTemplate, bool) {
	var eligible, preferred []QuestTemplate
	for _, t := range tpls {
		if t.Difficulty > maxDiff || t.TimeCost.Rank() > maxCost.Rank() {
			continue
		}
		if used[dedupeKey{t.Track, t.Title}] {
			continue
		}
		eligible = append(eligible, t)
		if prefer[t.Type] {
			preferred = append(preferred, t)
		}
	}
	if len(preferred) > 0 {
		return pickOne(preferred, rng)
	}
	return pickOne(eligible, rng)
}

// GenerateDaily 生成 today 的日常任务。today 已有任务数达到槽位上限时返回空
func GenerateDaily(st *schema.State, today string, now time.Time, rng *rand.Rand, cfg QuestConfig) []schema.Quest {
	cfg = cfg.withDefaults()
	remaining := cfg.DailySlots - countQuests(st, schema.PeriodDaily, today)
	if remaining <= 0 {
		return nil
	}

	deficits := TrackDeficits(st, today, cfg)
	momentum := make(map[string]float64, len(deficits))
	for _, d := range deficits {
		momentum[d.Key] = d.Momentum()
	}

	used := existingKeys(st, schema.PeriodDaily, today)
	haveTrack := make(map[string]bool)
	for _, q := range st.Quests {
		if q.Period == schema.PeriodDaily && q.DueKey == today {
			haveTrack[q.Track] = true
		}
	}

	var out []schema.Quest
	for _, s := range planDailySlots(st, deficits, cfg.DailySlots) {
		if len(out) >= remaining {
			break
		}
		if haveTrack[s.track.Key] {
			continue
		}
		maxDiff, maxCost := s.role.ceiling()
		t, ok := chooseTemplate(TemplatesFor(s.track, schema.PeriodDaily), maxDiff, maxCost, preferredTypes(momentum[s.track.Key]), used, rng)
		if !ok {
			continue
		}
		used[dedupeKey{t.Track, t.Title}] = true
		out = append(out, t.Instantiate(uuid.NewString(), today, now.UnixMilli()))
	}
	return out
}

// GenerateWeekly 周任务：落后的锚定赛道出 boss，另一个锚定赛道出次要任务，降权赛道出轻量任务
func GenerateWeekly(st *schema.State, today, weekKey string, now time.Time, rng *rand.Rand, cfg QuestConfig) []schema.Quest {
	cfg = cfg.withDefaults()
	remaining := weeklyCap - countQuests(st, schema.PeriodWeekly, weekKey)
	if remaining <= 0 {
		return nil
	}

	deficit := make(map[string]float64)
	for _, d := range TrackDeficits(st, today, cfg) {
		deficit[d.Key] = d.Deficit
	}

	anchors := anchorTracks(st.Campaign)
	if len(anchors) == 2 && deficit[anchors[1].Key] > deficit[anchors[0].Key] {
		anchors[0], anchors[1] = anchors[1], anchors[0]
	}

	type pick struct {
		track schema.Track
		types map[schema.QuestType]bool
		diff  int
		cost  schema.TimeCost
	}
	var picks []pick
	if len(anchors) > 0 {
		picks = append(picks, pick{anchors[0], map[schema.QuestType]bool{schema.QuestBoss: true}, 3, schema.TimeLong})
	}
	if len(anchors) > 1 {
		picks = append(picks, pick{anchors[1], map[schema.QuestType]bool{schema.QuestBuild: true, schema.QuestShip: true}, 2, schema.TimeMedium})
	}
	if damped, ok := dampedTrack(st.Campaign); ok {
		picks = append(picks, pick{damped, nil, 1, schema.TimeShort})
	}

	used := existingKeys(st, schema.PeriodWeekly, weekKey)
	var out []schema.Quest
	for _, p := range picks {
		if len(out) >= remaining {
			break
		}
		t, ok := chooseTemplate(TemplatesFor(p.track, schema.PeriodWeekly), p.diff, p.cost, p.types, used, rng)
		if !ok {
			continue
		}
		used[dedupeKey{t.Track, t.Title}] = true
		out = append(out, t.Instantiate(uuid.NewString(), weekKey, now.UnixMilli()))
	}
	return out
}

// GenerateMonthly 月度里程碑：按赛道优先级取固定模板，最多 MonthlyCap 个
func GenerateMonthly(st *schema.State, monthKey string, now time.Time, cfg QuestConfig) []schema.Quest {
	cfg = cfg.withDefaults()
	remaining := cfg.MonthlyCap - countQuests(st, schema.PeriodMonthly, monthKey)
	if remaining <= 0 {
		return nil
	}

	tracks := make([]schema.Track, len(st.Campaign.Tracks))
	copy(tracks, st.Campaign.Tracks)
	sort.SliceStable(tracks, func(i, j int) bool {
		return trackWeight(tracks[i], cfg) > trackWeight(tracks[j], cfg)
	})

	used := existingKeys(st, schema.PeriodMonthly, monthKey)
	var out []schema.Quest
	for _, tr := range tracks {
		if len(out) >= remaining {
			break
		}
		for _, t := range TemplatesFor(tr, schema.PeriodMonthly) {
			if used[dedupeKey{t.Track, t.Title}] {
				continue
			}
			used[dedupeKey{t.Track, t.Title}] = true
			out = append(out, t.Instantiate(uuid.NewString(), monthKey, now.UnixMilli()))
			break
		}
	}
	return out
}

// RunGeneration 周期检查：清理到期推迟、过期旧任务，并在日/周/月边界各生成一次。
// 水位保证同一周期内重复调用不会重复生成。
func RunGeneration(st *schema.State, now time.Time, rng *rand.Rand, cfg QuestConfig) GenerationResult {
	today := calendar.DayKey(now)
	week := calendar.WeekKey(now)
	month := calendar.MonthKey(now)

	var res GenerationResult
	res.Unsnoozed = SweepSnoozed(st, today)

	if st.Watermarks.Day != today {
		res.Expired += expireStale(st, schema.PeriodDaily, today, today, now)
		res.Daily = GenerateDaily(st, today, now, rng, cfg)
		st.Quests = append(st.Quests, res.Daily...)
		st.Watermarks.Day = today
	}
	if st.Watermarks.Week != week {
		res.Expired += expireStale(st, schema.PeriodWeekly, week, today, now)
		res.Weekly = GenerateWeekly(st, today, week, now, rng, cfg)
		st.Quests = append(st.Quests, res.Weekly...)
		st.Watermarks.Week = week
	}
	if st.Watermarks.Month != month {
		res.Expired += expireStale(st, schema.PeriodMonthly, month, today, now)
		res.Monthly = GenerateMonthly(st, month, now, cfg)
		st.Quests = append(st.Quests, res.Monthly...)
		st.Watermarks.Month = month
	}

	if res.Total() > 0 || res.Expired > 0 {
		slog.Info("任务生成",
			"day", today,
			"daily", len(res.Daily),
			"weekly", len(res.Weekly),
			"monthly", len(res.Monthly),
			"expired", res.Expired,
		)
	}
	return res
}

// expireStale 把上个周期仍未完成、且不在推迟期内的任务标记为 skipped
func expireStale(st *schema.State, period schema.Period, currentKey, today string, now time.Time) int {
	n := 0
	for i := range st.Quests {
		q := &st.Quests[i]
		if q.Period != period || !q.IsOpen() || q.DueKey >= currentKey {
			continue
		}
		if q.SnoozeUntil != "" && q.SnoozeUntil > today {
			continue
		}
		q.Status = schema.QuestSkipped
		q.SnoozeUntil = ""
		appendHistory(st, *q, schema.QuestSkipped, today, now)
		n++
	}
	return n
}
