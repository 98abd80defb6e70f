package schema

import (
	"time"

	"github.com/google/uuid"
)

// CampaignLength 新赛季时长（月）
const CampaignLength = 6

// Track 主题赛道
type Track struct {
	Key      string  `json:"key"`
	Name     string  `json:"name"`
	Priority float64 `json:"priority"` // 静态权重
	Target   int     `json:"target"`
	CP       int     `json:"cp"`
	Damped   bool    `json:"damped,omitempty"` // 低紧迫度赛道，选择时降权
}

// Campaign 赛季
type Campaign struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	StartAt int64   `json:"start_at"` // Unix ms
	EndAt   int64   `json:"end_at"`
	Tracks  []Track `json:"tracks"`
}

// FindTrack 按 key 查找赛道下标
func (c *Campaign) FindTrack(key string) int {
	for i := range c.Tracks {
		if c.Tracks[i].Key == key {
			return i
		}
	}
	return -1
}

// ArchivedCampaign 赛季归档快照，创建后不再修改
type ArchivedCampaign struct {
	Campaign    Campaign       `json:"campaign"`
	ArchivedAt  int64          `json:"archived_at"`
	TotalCP     int            `json:"total_cp"`
	TotalTarget int            `json:"total_target"`
	QuestsDone  int            `json:"quests_done"`
	History     []QuestHistory `json:"history"`
}

// DefaultTracks 默认赛道
func DefaultTracks() []Track {
	return []Track{
		{Key: "vocal", Name: "Vocal", Priority: 5, Target: 600},
		{Key: "content", Name: "Content", Priority: 4, Target: 500},
		{Key: "music", Name: "Music", Priority: 3, Target: 400},
		{Key: "learning", Name: "Learning", Priority: 2, Target: 300},
		{Key: "fitness", Name: "Fitness", Priority: 2, Target: 300, Damped: true},
	}
}

// NewCampaign 以给定赛道创建新赛季，CP 清零
func NewCampaign(name string, tracks []Track, now time.Time) Campaign {
	if len(tracks) == 0 {
		tracks = DefaultTracks()
	}
	fresh := make([]Track, len(tracks))
	copy(fresh, tracks)
	for i := range fresh {
		fresh[i].CP = 0
	}
	if name == "" {
		name = "Season " + now.Format("2006-01")
	}
	return Campaign{
		ID:      uuid.NewString(),
		Name:    name,
		StartAt: now.UnixMilli(),
		EndAt:   now.AddDate(0, CampaignLength, 0).UnixMilli(),
		Tracks:  fresh,
	}
}

// DefaultQuickActions 默认快捷行为
func DefaultQuickActions() []QuickAction {
	return []QuickAction{
		{ID: "qa_post", Name: "Post", Exp: 30, Icon: "⏳"},
		{ID: "qa_sing", Name: "Singing", Exp: 50, Icon: "⏳"},
	}
}
