package schema

import (
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yuqie6/LifeRPG/internal/pkg/calendar"
)

// LegacyRPRatio 旧快照缺少 gained_rp 时按此比例补算
const LegacyRPRatio = 0.6

// NewState 创建全新的默认状态
func NewState(now time.Time) *State {
	s := &State{Version: StateVersion}
	s.Normalize(now)
	return s
}

// DecodeState 从持久化 blob 宽松解析状态。
// 任何缺失/类型错误的字段都替换为默认值，永不返回错误。
func DecodeState(raw []byte, now time.Time) *State {
	obj := decodeObject(raw)
	s := &State{
		Version:      obj.Int("version"),
		TotalXP:      obj.Int("total_xp"),
		RankRP:       obj.Int("rank_rp"),
		LastSeenDay:  obj.String("last_seen_day"),
		MissedStreak: obj.Int("missed_streak"),
		CreatedAt:    obj.Int64("created_at"),
	}

	for _, raw := range obj.Array("entries") {
		if e, ok := decodeEntry(decodeObject(raw)); ok {
			s.Entries = append(s.Entries, e)
		}
	}
	for _, raw := range obj.Array("quick_actions") {
		o := decodeObject(raw)
		if o == nil {
			continue
		}
		s.QuickActions = append(s.QuickActions, QuickAction{
			ID:   o.String("id"),
			Name: o.String("name"),
			Exp:  o.Float("exp"),
			Icon: o.String("icon"),
		})
	}

	for _, raw := range obj.Array("quests") {
		if q, ok := decodeQuest(decodeObject(raw)); ok {
			s.Quests = append(s.Quests, q)
		}
	}
	s.QuestHistory = decodeHistory(obj.Array("quest_history"))

	if wm := obj.Object("watermarks"); wm != nil {
		s.Watermarks = Watermarks{Day: wm.String("day"), Week: wm.String("week"), Month: wm.String("month")}
	}

	s.ActivityTags = make(map[string]ActivityTag)
	if tags := obj.Object("activity_tags"); tags != nil {
		for _, name := range tags.Keys() {
			t := tags.Object(name)
			if t == nil {
				continue
			}
			s.ActivityTags[name] = ActivityTag{Track: t.String("track"), TimeCost: TimeCost(t.String("time_cost"))}
		}
	}

	for _, raw := range obj.Array("events") {
		o := decodeObject(raw)
		if o == nil {
			continue
		}
		s.Events = append(s.Events, Event{
			ID:      o.String("id"),
			Title:   o.String("title"),
			Amount:  o.Float("amount"),
			DayKey:  o.String("day_key"),
			Ts:      o.Int64("ts"),
			EntryID: o.String("entry_id"),
		})
	}

	if c := obj.Object("campaign"); c != nil {
		s.Campaign = decodeCampaign(c)
	}
	for _, raw := range obj.Array("archives") {
		o := decodeObject(raw)
		if o == nil {
			continue
		}
		s.Archives = append(s.Archives, ArchivedCampaign{
			Campaign:    decodeCampaign(o.Object("campaign")),
			ArchivedAt:  o.Int64("archived_at"),
			TotalCP:     o.Int("total_cp"),
			TotalTarget: o.Int("total_target"),
			QuestsDone:  o.Int("quests_done"),
			History:     decodeHistory(o.Array("history")),
		})
	}

	s.Normalize(now)
	return s
}

func decodeEntry(o rawObject) (Entry, bool) {
	if o == nil {
		return Entry{}, false
	}
	return Entry{
		ID:        o.String("id"),
		Name:      o.String("name"),
		BaseExp:   o.Float("base_exp"),
		GainedExp: o.Int("gained_exp"),
		GainedRP:  o.Int("gained_rp"),
		GainedCP:  o.Int("gained_cp"),
		Mult:      o.Float("mult"),
		DayKey:    o.String("day_key"),
		Ts:        o.Int64("ts"),
		Origin:    Origin(o.String("origin")),
		Track:     o.String("track"),
		QuestID:   o.String("quest_id"),
	}, true
}

func decodeQuest(o rawObject) (Quest, bool) {
	if o == nil {
		return Quest{}, false
	}
	return Quest{
		ID:           o.String("id"),
		TemplateID:   o.String("template_id"),
		Title:        o.String("title"),
		Track:        o.String("track"),
		Type:         QuestType(o.String("type")),
		Difficulty:   o.Int("difficulty"),
		TimeCost:     TimeCost(o.String("time_cost")),
		BaseExp:      o.Int("base_exp"),
		BaseRP:       o.Int("base_rp"),
		BaseCP:       o.Int("base_cp"),
		Period:       Period(o.String("period")),
		DueKey:       o.String("due_key"),
		Status:       QuestStatus(o.String("status")),
		SnoozeUntil:  o.String("snooze_until"),
		Quality:      o.Int("quality"),
		CompletedAt:  o.Int64("completed_at"),
		CompletedDay: o.String("completed_day"),
		RerollCount:  o.Int("reroll_count"),
		CreatedAt:    o.Int64("created_at"),
	}, true
}

func decodeHistory(arr []json.RawMessage) []QuestHistory {
	out := make([]QuestHistory, 0, len(arr))
	for _, raw := range arr {
		o := decodeObject(raw)
		if o == nil {
			continue
		}
		out = append(out, QuestHistory{
			QuestID: o.String("quest_id"),
			Title:   o.String("title"),
			Track:   o.String("track"),
			Type:    QuestType(o.String("type")),
			Period:  Period(o.String("period")),
			Status:  QuestStatus(o.String("status")),
			DayKey:  o.String("day_key"),
			Ts:      o.Int64("ts"),
			Quality: o.Int("quality"),
		})
	}
	return out
}

func decodeCampaign(o rawObject) Campaign {
	if o == nil {
		return Campaign{}
	}
	c := Campaign{
		ID:      o.String("id"),
		Name:    o.String("name"),
		StartAt: o.Int64("start_at"),
		EndAt:   o.Int64("end_at"),
	}
	for _, raw := range o.Array("tracks") {
		t := decodeObject(raw)
		if t == nil {
			continue
		}
		c.Tracks = append(c.Tracks, Track{
			Key:      t.String("key"),
			Name:     t.String("name"),
			Priority: t.Float("priority"),
			Target:   t.Int("target"),
			CP:       t.Int("cp"),
			Damped:   t.Bool("damped"),
		})
	}
	return c
}

// Normalize 原地修正类型正确但取值不合法的字段。
// 加载后与每次持久化前都会调用。
func (s *State) Normalize(now time.Time) {
	if s.TotalXP < 0 {
		s.TotalXP = 0
	}
	if s.RankRP < 0 {
		s.RankRP = 0
	}
	if s.MissedStreak < 0 {
		s.MissedStreak = 0
	}
	if s.CreatedAt <= 0 {
		s.CreatedAt = now.UnixMilli()
	}
	if s.LastSeenDay != "" && !calendar.IsDayKey(s.LastSeenDay) {
		s.LastSeenDay = ""
	}

	s.TotalXP = min(s.TotalXP, MaxPoints)
	s.RankRP = min(s.RankRP, MaxPoints)

	s.Entries = normalizeEntries(s.Entries)
	if s.Version < StateVersion {
		backfillLegacyRP(s.Entries)
		s.Version = StateVersion
	}
	s.QuickActions = normalizeQuickActions(s.QuickActions)
	s.DailyCounts = countEntries(s.Entries)

	s.Quests = normalizeQuests(s.Quests, now)

	history := make([]QuestHistory, 0, len(s.QuestHistory))
	for _, h := range s.QuestHistory {
		if h.Status.IsValid() {
			history = append(history, h)
		}
	}
	s.QuestHistory = history

	if s.ActivityTags == nil {
		s.ActivityTags = make(map[string]ActivityTag)
	}
	for name, tag := range s.ActivityTags {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" || strings.TrimSpace(tag.Track) == "" {
			delete(s.ActivityTags, name)
			continue
		}
		if !tag.TimeCost.IsValid() {
			tag.TimeCost = ""
		}
		if key != name {
			delete(s.ActivityTags, name)
		}
		s.ActivityTags[key] = tag
	}

	events := make([]Event, 0, len(s.Events))
	for _, e := range s.Events {
		if strings.TrimSpace(e.Title) == "" {
			continue
		}
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		if e.Amount < 0 {
			e.Amount = 0
		}
		events = append(events, e)
	}
	s.Events = events

	s.Campaign = normalizeCampaign(s.Campaign, now)
	if s.Archives == nil {
		s.Archives = []ArchivedCampaign{}
	}
}

func normalizeEntries(in []Entry) []Entry {
	out := make([]Entry, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, e := range in {
		if strings.TrimSpace(e.Name) == "" {
			continue
		}
		if !calendar.IsDayKey(e.DayKey) {
			if e.Ts <= 0 {
				continue
			}
			e.DayKey = calendar.DayKey(time.UnixMilli(e.Ts))
		}
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		if _, dup := seen[e.ID]; dup {
			continue
		}
		seen[e.ID] = struct{}{}
		if !e.Origin.IsValid() {
			e.Origin = OriginManual
		}
		if e.GainedExp < 0 {
			e.GainedExp = 0
		}
		if e.GainedCP < 0 {
			e.GainedCP = 0
		}
		if e.GainedRP < 0 {
			e.GainedRP = 0
		}
		if e.Mult <= 0 {
			e.Mult = 1
		}
		out = append(out, e)
	}
	return out
}

// backfillLegacyRP 版本 1 之前的记录未保存 gained_rp，但写入时已按 LegacyRPRatio 计入 rank_rp；
// 补回记录值，删除时才能精确回滚。只在迁移时执行一次。
func backfillLegacyRP(entries []Entry) {
	for i := range entries {
		e := &entries[i]
		if e.GainedRP == 0 && e.GainedExp > 0 && e.Origin != OriginQuest {
			e.GainedRP = int(math.Max(1, math.Round(float64(e.GainedExp)*LegacyRPRatio)))
		}
	}
}

// countEntries 由存活的计数类记录重建每日计数
func countEntries(entries []Entry) map[string]map[string]int {
	counts := make(map[string]map[string]int)
	for _, e := range entries {
		if !e.CountsTowardFarm() {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(e.Name))
		if counts[e.DayKey] == nil {
			counts[e.DayKey] = make(map[string]int)
		}
		counts[e.DayKey][key]++
	}
	return counts
}

func normalizeQuickActions(in []QuickAction) []QuickAction {
	out := make([]QuickAction, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, qa := range in {
		name := strings.TrimSpace(qa.Name)
		key := strings.ToLower(name)
		if key == "" || qa.Exp <= 0 {
			continue
		}
		qa.Exp = min(qa.Exp, MaxBaseExp)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if qa.ID == "" {
			qa.ID = "qa_" + uuid.NewString()
		}
		qa.Name = name
		out = append(out, qa)
	}
	if len(out) == 0 {
		return DefaultQuickActions()
	}
	return out
}

func normalizeQuests(in []Quest, now time.Time) []Quest {
	out := make([]Quest, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, q := range in {
		if strings.TrimSpace(q.Title) == "" || strings.TrimSpace(q.Track) == "" {
			continue
		}
		if q.ID == "" {
			q.ID = uuid.NewString()
		}
		if _, dup := seen[q.ID]; dup {
			continue
		}
		seen[q.ID] = struct{}{}
		if !q.Status.IsValid() || q.Status == QuestRerolled || q.Status == QuestSnoozed {
			// 实例上只保留 open/done/skipped，其余状态只出现在历史里
			q.Status = QuestOpen
		}
		if !q.Period.IsValid() {
			q.Period = PeriodDaily
		}
		if !q.Type.IsValid() {
			q.Type = QuestDrill
		}
		if !q.TimeCost.IsValid() {
			q.TimeCost = TimeShort
		}
		q.Difficulty = clampInt(q.Difficulty, 1, 3)
		q.BaseExp = max(q.BaseExp, 0)
		q.BaseRP = max(q.BaseRP, 0)
		q.BaseCP = max(q.BaseCP, 0)
		if q.Status == QuestDone {
			q.Quality = clampInt(q.Quality, 1, 3)
		} else {
			q.Quality = 0
		}
		if q.SnoozeUntil != "" && !calendar.IsDayKey(q.SnoozeUntil) {
			q.SnoozeUntil = ""
		}
		if q.CreatedAt <= 0 {
			q.CreatedAt = now.UnixMilli()
		}
		out = append(out, q)
	}
	return out
}

func normalizeCampaign(c Campaign, now time.Time) Campaign {
	tracks := make([]Track, 0, len(c.Tracks))
	seen := make(map[string]struct{}, len(c.Tracks))
	for _, t := range c.Tracks {
		t.Key = strings.TrimSpace(t.Key)
		if t.Key == "" {
			continue
		}
		if _, dup := seen[t.Key]; dup {
			continue
		}
		seen[t.Key] = struct{}{}
		if t.Name == "" {
			t.Name = t.Key
		}
		if t.Priority < 0 || math.IsNaN(t.Priority) || math.IsInf(t.Priority, 0) {
			t.Priority = 0
		}
		if t.Target <= 0 {
			t.Target = 100
		}
		if t.CP < 0 {
			t.CP = 0
		}
		tracks = append(tracks, t)
	}
	if c.ID == "" || len(tracks) == 0 {
		return NewCampaign(c.Name, nil, now)
	}
	c.Tracks = tracks
	if c.StartAt <= 0 {
		c.StartAt = now.UnixMilli()
	}
	if c.EndAt <= c.StartAt {
		c.EndAt = time.UnixMilli(c.StartAt).AddDate(0, CampaignLength, 0).UnixMilli()
	}
	return c
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Clone 深拷贝，用于对外返回只读快照
func (s *State) Clone() *State {
	b, err := json.Marshal(s)
	if err != nil {
		// State 只包含可序列化字段，这里不会失败
		return &State{}
	}
	var c State
	_ = json.Unmarshal(b, &c)
	return &c
}

// Encode 序列化为持久化 blob
func (s *State) Encode() ([]byte, error) {
	return json.Marshal(s)
}
