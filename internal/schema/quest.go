package schema

// Period 任务周期
type Period string

const (
	PeriodDaily    Period = "daily"
	PeriodWeekly   Period = "weekly"
	PeriodMonthly  Period = "monthly"
	PeriodCampaign Period = "campaign"
)

func (p Period) IsValid() bool {
	switch p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodCampaign:
		return true
	default:
		return false
	}
}

// QuestType 任务类型
type QuestType string

const (
	QuestDrill     QuestType = "drill"
	QuestReview    QuestType = "review"
	QuestBuild     QuestType = "build"
	QuestShip      QuestType = "ship"
	QuestBoss      QuestType = "boss"
	QuestMilestone QuestType = "milestone"
)

func (t QuestType) IsValid() bool {
	switch t {
	case QuestDrill, QuestReview, QuestBuild, QuestShip, QuestBoss, QuestMilestone:
		return true
	default:
		return false
	}
}

// TimeCost 耗时档位
type TimeCost string

const (
	TimeShort  TimeCost = "short"
	TimeMedium TimeCost = "medium"
	TimeLong   TimeCost = "long"
)

func (c TimeCost) IsValid() bool {
	switch c {
	case TimeShort, TimeMedium, TimeLong:
		return true
	default:
		return false
	}
}

// Rank 用于比较耗时档位
func (c TimeCost) Rank() int {
	switch c {
	case TimeShort:
		return 1
	case TimeMedium:
		return 2
	case TimeLong:
		return 3
	default:
		return 0
	}
}

// QuestStatus 任务生命周期状态
type QuestStatus string

const (
	QuestOpen     QuestStatus = "open"
	QuestDone     QuestStatus = "done"
	QuestSkipped  QuestStatus = "skipped"
	QuestRerolled QuestStatus = "rerolled"
	QuestSnoozed  QuestStatus = "snoozed"
)

func (s QuestStatus) IsValid() bool {
	switch s {
	case QuestOpen, QuestDone, QuestSkipped, QuestRerolled, QuestSnoozed:
		return true
	default:
		return false
	}
}

// Quest 任务实例。不做物理删除，被替换的在原位覆盖
type Quest struct {
	ID           string      `json:"id"`
	TemplateID   string      `json:"template_id"`
	Title        string      `json:"title"`
	Track        string      `json:"track"`
	Type         QuestType   `json:"type"`
	Difficulty   int         `json:"difficulty"` // 1-3
	TimeCost     TimeCost    `json:"time_cost"`
	BaseExp      int         `json:"base_exp"`
	BaseRP       int         `json:"base_rp"`
	BaseCP       int         `json:"base_cp"`
	Period       Period      `json:"period"`
	DueKey       string      `json:"due_key"` // 日键 / ISO 周键 / 月键
	Status       QuestStatus `json:"status"`
	SnoozeUntil  string      `json:"snooze_until,omitempty"`
	Quality      int         `json:"quality,omitempty"`
	CompletedAt  int64       `json:"completed_at,omitempty"`
	CompletedDay string      `json:"completed_day,omitempty"`
	RerollCount  int         `json:"reroll_count,omitempty"`
	CreatedAt    int64       `json:"created_at"`
}

// IsOpen 未进入终态（含推迟中）
func (q Quest) IsOpen() bool {
	return q.Status == QuestOpen
}

// IsActive 在 today 可见：未结束且未处于推迟期
func (q Quest) IsActive(today string) bool {
	if !q.IsOpen() {
		return false
	}
	return q.SnoozeUntil == "" || q.SnoozeUntil <= today
}

// QuestHistory 任务终态事件，只追加
type QuestHistory struct {
	QuestID string      `json:"quest_id"`
	Title   string      `json:"title"`
	Track   string      `json:"track"`
	Type    QuestType   `json:"type"`
	Period  Period      `json:"period"`
	Status  QuestStatus `json:"status"`
	DayKey  string      `json:"day_key"`
	Ts      int64       `json:"ts"`
	Quality int         `json:"quality,omitempty"`
}
