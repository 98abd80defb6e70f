package schema

// Origin 记录来源
type Origin string

const (
	OriginManual Origin = "manual"
	OriginQuest  Origin = "quest"
	OriginEvent  Origin = "event"
)

func (o Origin) IsValid() bool {
	switch o {
	case OriginManual, OriginQuest, OriginEvent:
		return true
	default:
		return false
	}
}

// Entry 一次已完成的行为记录，创建后只允许删除
type Entry struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	BaseExp   float64 `json:"base_exp"`
	GainedExp int     `json:"gained_exp"`
	GainedRP  int     `json:"gained_rp"`
	GainedCP  int     `json:"gained_cp,omitempty"`
	Mult      float64 `json:"mult"`
	DayKey    string  `json:"day_key"`
	Ts        int64   `json:"ts"` // Unix ms
	Origin    Origin  `json:"origin"`
	Track     string  `json:"track,omitempty"`
	QuestID   string  `json:"quest_id,omitempty"`
}

// CountsTowardFarm 是否计入每日防刷计数（任务完成不计）
func (e Entry) CountsTowardFarm() bool {
	return e.Origin != OriginQuest
}

// QuickAction 快捷行为
type QuickAction struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	Exp  float64 `json:"exp"`
	Icon string  `json:"icon,omitempty"`
}

// ActivityTag 行为名 -> 赛道/耗时标签
type ActivityTag struct {
	Track    string   `json:"track"`
	TimeCost TimeCost `json:"time_cost,omitempty"`
}

// Event 特殊事件（演出、合作等），带金额
type Event struct {
	ID      string  `json:"id"`
	Title   string  `json:"title"`
	Amount  float64 `json:"amount"`
	DayKey  string  `json:"day_key"`
	Ts      int64   `json:"ts"`
	EntryID string  `json:"entry_id,omitempty"`
}

// Watermarks 各周期任务生成水位
type Watermarks struct {
	Day   string `json:"day"`
	Week  string `json:"week"`
	Month string `json:"month"`
}

const (
	// MaxBaseExp 单条记录/快捷行为允许的基础 EXP 上限
	MaxBaseExp = 100_000
	// MaxPoints 累计 EXP/RP 上限，可被 float64 精确表示
	MaxPoints = 1 << 53
	// StateVersion 当前快照格式版本；低于此版本的快照在规范化时做一次性迁移
	StateVersion = 2
)

// AddPoints 饱和加法，结果落在 [0, MaxPoints]
func AddPoints(total, delta int) int {
	total = min(max(total, 0), MaxPoints)
	if delta >= MaxPoints-total {
		return MaxPoints
	}
	return max(total+delta, 0)
}

// State 聚合根：唯一的持久化单元
type State struct {
	Version      int                       `json:"version"`
	TotalXP      int                       `json:"total_xp"`
	RankRP       int                       `json:"rank_rp"`
	Entries      []Entry                   `json:"entries"` // 新的在前
	QuickActions []QuickAction             `json:"quick_actions"`
	DailyCounts  map[string]map[string]int `json:"daily_counts"` // day -> name -> count
	LastSeenDay  string                    `json:"last_seen_day"`
	MissedStreak int                       `json:"missed_streak"`
	CreatedAt    int64                     `json:"created_at"`
	Quests       []Quest                   `json:"quests"`
	QuestHistory []QuestHistory            `json:"quest_history"`
	Watermarks   Watermarks                `json:"watermarks"`
	ActivityTags map[string]ActivityTag    `json:"activity_tags"`
	Events       []Event                   `json:"events"`
	Campaign     Campaign                  `json:"campaign"`
	Archives     []ArchivedCampaign        `json:"archives"`
}

// FindEntry 按 ID 查找记录下标，不存在返回 -1
func (s *State) FindEntry(id string) int {
	for i := range s.Entries {
		if s.Entries[i].ID == id {
			return i
		}
	}
	return -1
}

// FindQuest 按 ID 查找任务下标，不存在返回 -1
func (s *State) FindQuest(id string) int {
	for i := range s.Quests {
		if s.Quests[i].ID == id {
			return i
		}
	}
	return -1
}

// DayCount 读取 (day, name) 计数
func (s *State) DayCount(day, name string) int {
	if s.DailyCounts == nil {
		return 0
	}
	return s.DailyCounts[day][name]
}

// SetDayCount 写入 (day, name) 计数
func (s *State) SetDayCount(day, name string, n int) {
	if n < 0 {
		n = 0
	}
	if s.DailyCounts == nil {
		s.DailyCounts = make(map[string]map[string]int)
	}
	m, ok := s.DailyCounts[day]
	if !ok {
		m = make(map[string]int)
		s.DailyCounts[day] = m
	}
	m[name] = n
}

// HasActivityOn 当天是否有记录
func (s *State) HasActivityOn(day string) bool {
	for i := range s.Entries {
		if s.Entries[i].DayKey == day {
			return true
		}
	}
	return false
}
