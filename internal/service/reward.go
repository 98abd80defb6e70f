package service

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yuqie6/LifeRPG/internal/pkg/calendar"
	"github.com/yuqie6/LifeRPG/internal/schema"
)

const (
	DefaultRPRatio   = 0.6
	defaultQuickIcon = "⏳"
)

// EntryInput 一次手动/事件记录的输入
type EntryInput struct {
	Name    string
	BaseExp float64
	Origin  schema.Origin
	Track   string
}

// QualityMult 任务完成质量倍率（按货币区分）
type QualityMult struct {
	Exp float64
	RP  float64
	CP  float64
}

// RewardCalculator 行为记录 -> EXP/RP/CP
type RewardCalculator struct {
	RPRatio float64
}

// NewRewardCalculator ratio 非法时使用默认 0.6
func NewRewardCalculator(ratio float64) RewardCalculator {
	if ratio <= 0 || math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		ratio = DefaultRPRatio
	}
	return RewardCalculator{RPRatio: ratio}
}

func (c RewardCalculator) ratio() float64 {
	if c.RPRatio <= 0 {
		return DefaultRPRatio
	}
	return c.RPRatio
}

// ApplyEntry 校验输入、递增当日计数、按防刷倍率计算收益并写入状态。
// 输入非法时返回 false 且不修改状态。
func (c RewardCalculator) ApplyEntry(st *schema.State, in EntryInput, now time.Time) (*schema.Entry, bool) {
	name := strings.TrimSpace(in.Name)
	if name == "" || !validExp(in.BaseExp) {
		return nil, false
	}
	origin := in.Origin
	if !origin.IsValid() || origin == schema.OriginQuest {
		origin = schema.OriginManual
	}

	key := NormalizeActivityName(name)
	track := normalizeTrackKey(in.Track)
	if track != "" && st.Campaign.FindTrack(track) < 0 {
		return nil, false
	}
	if track == "" {
		track = st.ActivityTags[key].Track
	}

	day := calendar.DayKey(now)
	n := st.DayCount(day, key) + 1
	st.SetDayCount(day, key, n)

	mult := AntiFarmMultiplier(n)
	gained := max(1, int(math.Round(in.BaseExp*mult)))
	rp := max(1, int(math.Round(float64(gained)*c.ratio())))

	entry := schema.Entry{
		ID:        uuid.NewString(),
		Name:      name,
		BaseExp:   in.BaseExp,
		GainedExp: gained,
		GainedRP:  rp,
		Mult:      mult,
		DayKey:    day,
		Ts:        now.UnixMilli(),
		Origin:    origin,
		Track:     track,
	}
	insertEntry(st, entry)

	if origin == schema.OriginManual {
		ensureQuickAction(st, name, in.BaseExp)
	}
	return &st.Entries[0], true
}

// DeleteEntry 删除记录并精确回滚其记录的收益；未知 ID 返回 false
func (c RewardCalculator) DeleteEntry(st *schema.State, id string) (*schema.Entry, bool) {
	idx := st.FindEntry(id)
	if idx < 0 {
		return nil, false
	}
	e := st.Entries[idx]
	st.Entries = append(st.Entries[:idx:idx], st.Entries[idx+1:]...)

	st.TotalXP = max(0, st.TotalXP-e.GainedExp)
	st.RankRP = max(0, st.RankRP-e.GainedRP)
	if e.GainedCP > 0 && e.Track != "" {
		st.Campaign = AddCP(st.Campaign, e.Track, -e.GainedCP)
	}

	if e.CountsTowardFarm() {
		key := NormalizeActivityName(e.Name)
		n := st.DayCount(e.DayKey, key) - 1
		if n <= 0 {
			dropDayCount(st, e.DayKey, key)
		} else {
			st.SetDayCount(e.DayKey, key, n)
		}
	}
	return &e, true
}

// QualityMultipliers 质量 1-3；EXP 温和、RP 中等、CP 陡峭
func QualityMultipliers(quality int) QualityMult {
	switch {
	case quality <= 1:
		return QualityMult{Exp: 0.85, RP: 0.7, CP: 0.5}
	case quality == 2:
		return QualityMult{Exp: 1, RP: 1, CP: 1}
	default:
		return QualityMult{Exp: 1.15, RP: 1.3, CP: 1.4}
	}
}

// QuestReward 任务奖励：基础值 * 质量倍率，不受防刷影响
func QuestReward(q schema.Quest, quality int) (exp, rp, cp int) {
	m := QualityMultipliers(quality)
	exp = max(1, int(math.Round(float64(q.BaseExp)*m.Exp)))
	rp = max(1, int(math.Round(float64(q.BaseRP)*m.RP)))
	cp = max(0, int(math.Round(float64(q.BaseCP)*m.CP)))
	return exp, rp, cp
}

// AddQuickAction 手动添加快捷行为，名称不区分大小写去重
func AddQuickAction(st *schema.State, name string, exp float64) (*schema.QuickAction, bool) {
	name = strings.TrimSpace(name)
	if name == "" || !validExp(exp) {
		return nil, false
	}
	if findQuickAction(st, name) >= 0 {
		return nil, false
	}
	ensureQuickAction(st, name, exp)
	return &st.QuickActions[len(st.QuickActions)-1], true
}

// RemoveQuickAction 按 ID 删除；删空后规范化会恢复默认列表
func RemoveQuickAction(st *schema.State, id string) bool {
	for i := range st.QuickActions {
		if st.QuickActions[i].ID == id {
			st.QuickActions = append(st.QuickActions[:i:i], st.QuickActions[i+1:]...)
			return true
		}
	}
	return false
}

// TagActivity 把行为名关联到赛道/耗时；track 为空表示移除标签
func TagActivity(st *schema.State, name, track string, cost schema.TimeCost) bool {
	key := NormalizeActivityName(name)
	if key == "" {
		return false
	}
	if st.ActivityTags == nil {
		st.ActivityTags = make(map[string]schema.ActivityTag)
	}
	track = normalizeTrackKey(track)
	if track == "" {
		if _, ok := st.ActivityTags[key]; !ok {
			return false
		}
		delete(st.ActivityTags, key)
		return true
	}
	if st.Campaign.FindTrack(track) < 0 {
		return false
	}
	if cost != "" && !cost.IsValid() {
		return false
	}
	st.ActivityTags[key] = schema.ActivityTag{Track: track, TimeCost: cost}
	return true
}

// AddEvent 记录带金额的特殊事件，并以 event 来源写入一条记录
func (c RewardCalculator) AddEvent(st *schema.State, title string, amount, baseExp float64, now time.Time) (*schema.Event, bool) {
	title = strings.TrimSpace(title)
	if title == "" || !validAmount(amount) || !validExp(baseExp) {
		return nil, false
	}
	entry, ok := c.ApplyEntry(st, EntryInput{Name: title, BaseExp: baseExp, Origin: schema.OriginEvent}, now)
	if !ok {
		return nil, false
	}
	ev := schema.Event{
		ID:      uuid.NewString(),
		Title:   title,
		Amount:  amount,
		DayKey:  entry.DayKey,
		Ts:      entry.Ts,
		EntryID: entry.ID,
	}
	st.Events = append([]schema.Event{ev}, st.Events...)
	return &st.Events[0], true
}

// insertEntry 新记录放在最前，并累加总量
func insertEntry(st *schema.State, e schema.Entry) {
	st.Entries = append([]schema.Entry{e}, st.Entries...)
	st.TotalXP = schema.AddPoints(st.TotalXP, e.GainedExp)
	st.RankRP = schema.AddPoints(st.RankRP, e.GainedRP)
}

func ensureQuickAction(st *schema.State, name string, exp float64) {
	if findQuickAction(st, name) >= 0 {
		return
	}
	st.QuickActions = append(st.QuickActions, schema.QuickAction{
		ID:   "qa_" + uuid.NewString(),
		Name: name,
		Exp:  exp,
		Icon: defaultQuickIcon,
	})
}

func findQuickAction(st *schema.State, name string) int {
	key := NormalizeActivityName(name)
	for i := range st.QuickActions {
		if NormalizeActivityName(st.QuickActions[i].Name) == key {
			return i
		}
	}
	return -1
}

func dropDayCount(st *schema.State, day, key string) {
	names, ok := st.DailyCounts[day]
	if !ok {
		return
	}
	delete(names, key)
	if len(names) == 0 {
		delete(st.DailyCounts, day)
	}
}

func validAmount(v float64) bool {
	return v > 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}

// validExp 基础 EXP 需为正且不超过 schema.MaxBaseExp
func validExp(v float64) bool {
	return validAmount(v) && v <= schema.MaxBaseExp
}
