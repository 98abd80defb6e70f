package service

import (
	"fmt"

	"github.com/yuqie6/LifeRPG/internal/schema"
)

// QuestTemplate 任务模板
type QuestTemplate struct {
	ID         string
	Track      string
	Title      string
	Type       schema.QuestType
	Difficulty int
	TimeCost   schema.TimeCost
	Period     schema.Period
}

// rewardTable 周期 -> 难度(1-3) -> 基础奖励
var rewardTable = map[schema.Period][3][3]int{
	//                       {exp, rp, cp}
	schema.PeriodDaily:    {{40, 20, 10}, {70, 35, 18}, {110, 55, 28}},
	schema.PeriodWeekly:   {{150, 70, 40}, {220, 100, 60}, {300, 140, 90}},
	schema.PeriodMonthly:  {{400, 180, 120}, {550, 240, 160}, {700, 300, 220}},
	schema.PeriodCampaign: {{900, 400, 300}, {1200, 500, 400}, {1500, 650, 500}},
}

// BaseReward 按周期与难度查基础奖励
func (t QuestTemplate) BaseReward() (exp, rp, cp int) {
	row, ok := rewardTable[t.Period]
	if !ok {
		row = rewardTable[schema.PeriodDaily]
	}
	d := min(max(t.Difficulty, 1), 3) - 1
	return row[d][0], row[d][1], row[d][2]
}

func tpl(id, track, title string, typ schema.QuestType, diff int, cost schema.TimeCost, period schema.Period) QuestTemplate {
	return QuestTemplate{ID: id, Track: track, Title: title, Type: typ, Difficulty: diff, TimeCost: cost, Period: period}
}

const (
	pDaily   = schema.PeriodDaily
	pWeekly  = schema.PeriodWeekly
	pMonthly = schema.PeriodMonthly
)

var questCatalog = []QuestTemplate{
	// vocal
	tpl("vocal-d-warmup", "vocal", "Warm-up and breathing, 15 min", schema.QuestDrill, 1, schema.TimeShort, pDaily),
	tpl("vocal-d-scales", "vocal", "Scales across the full range", schema.QuestDrill, 2, schema.TimeMedium, pDaily),
	tpl("vocal-d-listen", "vocal", "Record one take and listen back", schema.QuestReview, 2, schema.TimeMedium, pDaily),
	tpl("vocal-d-chorus", "vocal", "Polish one chorus section", schema.QuestBuild, 2, schema.TimeMedium, pDaily),
	tpl("vocal-d-fulltake", "vocal", "Full song take without stopping", schema.QuestShip, 3, schema.TimeLong, pDaily),
	tpl("vocal-w-boss", "vocal", "Record a finished cover", schema.QuestBoss, 3, schema.TimeLong, pWeekly),
	tpl("vocal-w-build", "vocal", "Learn a new song end to end", schema.QuestBuild, 2, schema.TimeMedium, pWeekly),
	tpl("vocal-w-light", "vocal", "Three short warm-up sessions", schema.QuestDrill, 1, schema.TimeShort, pWeekly),
	tpl("vocal-m-milestone", "vocal", "Perform a song live or on stream", schema.QuestMilestone, 3, schema.TimeLong, pMonthly),

	// content
	tpl("content-d-ideas", "content", "Capture three content ideas", schema.QuestDrill, 1, schema.TimeShort, pDaily),
	tpl("content-d-stats", "content", "Review stats of the last post", schema.QuestReview, 1, schema.TimeShort, pDaily),
	tpl("content-d-draft", "content", "Draft a script or caption", schema.QuestBuild, 2, schema.TimeMedium, pDaily),
	tpl("content-d-post", "content", "Publish one post", schema.QuestShip, 2, schema.TimeMedium, pDaily),
	tpl("content-d-edit", "content", "Edit a short video", schema.QuestBuild, 3, schema.TimeLong, pDaily),
	tpl("content-w-boss", "content", "Ship a long-form piece", schema.QuestBoss, 3, schema.TimeLong, pWeekly),
	tpl("content-w-build", "content", "Batch-produce three posts", schema.QuestShip, 2, schema.TimeMedium, pWeekly),
	tpl("content-w-light", "content", "Reply to comments for a week", schema.QuestReview, 1, schema.TimeShort, pWeekly),
	tpl("content-m-milestone", "content", "Publish a series of four posts", schema.QuestMilestone, 3, schema.TimeLong, pMonthly),

	// music
	tpl("music-d-ear", "music", "Ear training, 15 min", schema.QuestDrill, 1, schema.TimeShort, pDaily),
	tpl("music-d-listen", "music", "Listen back to the last sketch", schema.QuestReview, 1, schema.TimeShort, pDaily),
	tpl("music-d-loop", "music", "Build an 8-bar loop", schema.QuestBuild, 2, schema.TimeMedium, pDaily),
	tpl("music-d-arrange", "music", "Arrange a full section", schema.QuestBuild, 3, schema.TimeLong, pDaily),
	tpl("music-d-export", "music", "Export and share a demo", schema.QuestShip, 3, schema.TimeMedium, pDaily),
	tpl("music-w-boss", "music", "Finish a complete track", schema.QuestBoss, 3, schema.TimeLong, pWeekly),
	tpl("music-w-build", "music", "Mix down an existing sketch", schema.QuestBuild, 2, schema.TimeMedium, pWeekly),
	tpl("music-w-light", "music", "Collect ten reference tracks", schema.QuestReview, 1, schema.TimeShort, pWeekly),
	tpl("music-m-milestone", "music", "Release an EP-ready track", schema.QuestMilestone, 3, schema.TimeLong, pMonthly),

	// learning
	tpl("learning-d-read", "learning", "Read 20 pages", schema.QuestDrill, 1, schema.TimeShort, pDaily),
	tpl("learning-d-notes", "learning", "Review notes from the last session", schema.QuestReview, 1, schema.TimeShort, pDaily),
	tpl("learning-d-exercises", "learning", "Solve a set of exercises", schema.QuestDrill, 2, schema.TimeMedium, pDaily),
	tpl("learning-d-project", "learning", "Apply it in a mini project", schema.QuestBuild, 3, schema.TimeLong, pDaily),
	tpl("learning-w-boss", "learning", "Finish a course module", schema.QuestBoss, 3, schema.TimeLong, pWeekly),
	tpl("learning-w-build", "learning", "Write a summary of the week", schema.QuestBuild, 2, schema.TimeMedium, pWeekly),
	tpl("learning-w-light", "learning", "Flashcards on four days", schema.QuestDrill, 1, schema.TimeShort, pWeekly),
	tpl("learning-m-milestone", "learning", "Complete a full course", schema.QuestMilestone, 3, schema.TimeLong, pMonthly),

	// fitness
	tpl("fitness-d-walk", "fitness", "20 minute walk", schema.QuestDrill, 1, schema.TimeShort, pDaily),
	tpl("fitness-d-stretch", "fitness", "Stretching routine", schema.QuestReview, 1, schema.TimeShort, pDaily),
	tpl("fitness-d-workout", "fitness", "Full workout", schema.QuestBuild, 2, schema.TimeMedium, pDaily),
	tpl("fitness-d-run", "fitness", "5 km run", schema.QuestShip, 3, schema.TimeLong, pDaily),
	tpl("fitness-w-boss", "fitness", "Long run or hike", schema.QuestBoss, 3, schema.TimeLong, pWeekly),
	tpl("fitness-w-build", "fitness", "Three workouts this week", schema.QuestBuild, 2, schema.TimeMedium, pWeekly),
	tpl("fitness-w-light", "fitness", "Walk on five days", schema.QuestDrill, 1, schema.TimeShort, pWeekly),
	tpl("fitness-m-milestone", "fitness", "Twelve workouts this month", schema.QuestMilestone, 2, schema.TimeLong, pMonthly),
}

// genericTemplates 自定义赛道没有专属模板时使用
func genericTemplates(track schema.Track) []QuestTemplate {
	k, n := track.Key, track.Name
	id := func(s string) string { return k + "-" + s }
	title := func(s string) string { return fmt.Sprintf("%s: %s", n, s) }
	return []QuestTemplate{
		tpl(id("d-drill"), k, title("focused practice, 15 min"), schema.QuestDrill, 1, schema.TimeShort, pDaily),
		tpl(id("d-review"), k, title("review yesterday's work"), schema.QuestReview, 1, schema.TimeShort, pDaily),
		tpl(id("d-build"), k, title("build something small"), schema.QuestBuild, 2, schema.TimeMedium, pDaily),
		tpl(id("d-ship"), k, title("finish and share one piece"), schema.QuestShip, 3, schema.TimeLong, pDaily),
		tpl(id("w-boss"), k, title("weekly boss session"), schema.QuestBoss, 3, schema.TimeLong, pWeekly),
		tpl(id("w-build"), k, title("two solid sessions"), schema.QuestBuild, 2, schema.TimeMedium, pWeekly),
		tpl(id("w-light"), k, title("three short touches"), schema.QuestDrill, 1, schema.TimeShort, pWeekly),
		tpl(id("m-milestone"), k, title("monthly milestone"), schema.QuestMilestone, 3, schema.TimeLong, pMonthly),
	}
}

// TemplatesFor 返回赛道在某周期下的全部模板
func TemplatesFor(track schema.Track, period schema.Period) []QuestTemplate {
	var out []QuestTemplate
	found := false
	for _, t := range questCatalog {
		if t.Track != track.Key {
			continue
		}
		found = true
		if t.Period == period {
			out = append(out, t)
		}
	}
	if found {
		return out
	}
	for _, t := range genericTemplates(track) {
		if t.Period == period {
			out = append(out, t)
		}
	}
	return out
}

// Instantiate 由模板创建任务实例
func (t QuestTemplate) Instantiate(id, dueKey string, createdAt int64) schema.Quest {
	exp, rp, cp := t.BaseReward()
	return schema.Quest{
		ID:         id,
		TemplateID: t.ID,
		Title:      t.Title,
		Track:      t.Track,
		Type:       t.Type,
		Difficulty: t.Difficulty,
		TimeCost:   t.TimeCost,
		BaseExp:    exp,
		BaseRP:     rp,
		BaseCP:     cp,
		Period:     t.Period,
		DueKey:     dueKey,
		Status:     schema.QuestOpen,
		CreatedAt:  createdAt,
	}
}
