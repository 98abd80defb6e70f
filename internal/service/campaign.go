package service

import (
	"time"

	"github.com/yuqie6/LifeRPG/internal/schema"
)

// CampaignProgress 单个赛道进度（用于报表）
type CampaignProgress struct {
	Key    string  `json:"key"`
	Name   string  `json:"name"`
	CP     int     `json:"cp"`
	Target int     `json:"target"`
	Pct    float64 `json:"pct"`
}

// AddCP 返回修改了一个赛道 CP 的新赛季副本；未知赛道原样返回，CP 不低于 0
func AddCP(c schema.Campaign, key string, amount int) schema.Campaign {
	idx := c.FindTrack(key)
	if idx < 0 || amount == 0 {
		return c
	}
	tracks := make([]schema.Track, len(c.Tracks))
	copy(tracks, c.Tracks)
	tracks[idx].CP = max(0, tracks[idx].CP+amount)
	c.Tracks = tracks
	return c
}

// Archive 把当前赛季与任务历史冻结成归档记录，并返回 CP 清零的新赛季
func Archive(c schema.Campaign, history []schema.QuestHistory, now time.Time) (schema.ArchivedCampaign, schema.Campaign) {
	frozen := c
	frozen.Tracks = make([]schema.Track, len(c.Tracks))
	copy(frozen.Tracks, c.Tracks)

	hist := make([]schema.QuestHistory, len(history))
	copy(hist, history)

	rec := schema.ArchivedCampaign{
		Campaign:   frozen,
		ArchivedAt: now.UnixMilli(),
		History:    hist,
	}
	for _, t := range c.Tracks {
		rec.TotalCP += t.CP
		rec.TotalTarget += t.Target
	}
	for _, h := range history {
		if h.Status == schema.QuestDone {
			rec.QuestsDone++
		}
	}

	return rec, schema.NewCampaign("", c.Tracks, now)
}

// ArchiveCampaign 归档当前赛季：清空任务、任务历史与周期水位，保留行为记录
func ArchiveCampaign(st *schema.State, now time.Time) schema.ArchivedCampaign {
	rec, fresh := Archive(st.Campaign, st.QuestHistory, now)
	st.Archives = append(st.Archives, rec)
	st.Campaign = fresh
	st.Quests = []schema.Quest{}
	st.QuestHistory = []schema.QuestHistory{}
	st.Watermarks = schema.Watermarks{}
	return rec
}

// CampaignProgressOf 各赛道进度，按赛季中的顺序
func CampaignProgressOf(c schema.Campaign) []CampaignProgress {
	out := make([]CampaignProgress, 0, len(c.Tracks))
	for _, t := range c.Tracks {
		pct := 0.0
		if t.Target > 0 {
			pct = clamp(float64(t.CP)/float64(t.Target)*100, 0, 100)
		}
		out = append(out, CampaignProgress{Key: t.Key, Name: t.Name, CP: t.CP, Target: t.Target, Pct: pct})
	}
	return out
}
