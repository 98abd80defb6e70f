package service

import (
	"log/slog"

	"github.com/yuqie6/LifeRPG/internal/pkg/calendar"
	"github.com/yuqie6/LifeRPG/internal/schema"
)

// DecayResult 一次衰减检查的结果
type DecayResult struct {
	Initialized   bool `json:"initialized"` // 首次运行，仅写入水位
	DaysEvaluated int  `json:"days_evaluated"`
	DaysPenalized int  `json:"days_penalized"`
	RPBefore      int  `json:"rp_before"`
	RPAfter       int  `json:"rp_after"`
}

// Changed 是否修改了状态
func (r DecayResult) Changed() bool {
	return r.Initialized || r.DaysEvaluated > 0
}

// ApplyDecay 对 [LastSeenDay, today) 内每个无记录的完整日扣减 RP，然后把水位推进到 today。
// 同一 today 重复调用不会重复扣减；today 早于水位（时钟回拨）时不做任何事。
func ApplyDecay(st *schema.State, today string, policy DecayPolicy) DecayResult {
	res := DecayResult{RPBefore: st.RankRP, RPAfter: st.RankRP}
	if !calendar.IsDayKey(today) {
		return res
	}
	if st.LastSeenDay == "" {
		st.LastSeenDay = today
		res.Initialized = true
		return res
	}

	elapsed, err := calendar.DiffDays(st.LastSeenDay, today)
	if err != nil {
		slog.Warn("衰减水位无效，重新初始化", "last_seen_day", st.LastSeenDay, "error", err)
		st.LastSeenDay = today
		res.Initialized = true
		return res
	}
	if elapsed <= 0 {
		return res
	}
	if policy == nil {
		policy = FlatDecay{Rate: DefaultDecayRate}
	}

	active := activeDays(st.Entries)
	rp := st.RankRP
	streak := st.MissedStreak
	for i := 0; i < elapsed; i++ {
		day, err := calendar.AddDays(st.LastSeenDay, i)
		if err != nil {
			break
		}
		res.DaysEvaluated++
		if _, ok := active[day]; ok {
			streak = 0
			continue
		}
		streak++
		rp = policy.Apply(rp, streak)
		res.DaysPenalized++
	}

	st.RankRP = max(rp, 0)
	st.MissedStreak = streak
	st.LastSeenDay = today
	res.RPAfter = st.RankRP

	if res.DaysPenalized > 0 {
		slog.Info("RP 衰减",
			"policy", policy.Name(),
			"day", today,
			"days_penalized", res.DaysPenalized,
			"rp_before", res.RPBefore,
			"rp_after", res.RPAfter,
		)
	}
	return res
}

// DecayRP 纯函数版本：假定 lastSeen 与 current 之间的每个完整日都无记录
func DecayRP(lastSeen, current string, rp int, policy DecayPolicy) int {
	elapsed, err := calendar.DiffDays(lastSeen, current)
	if err != nil || elapsed <= 0 {
		return rp
	}
	if policy == nil {
		policy = FlatDecay{Rate: DefaultDecayRate}
	}
	for i := 1; i <= elapsed; i++ {
		rp = policy.Apply(rp, i)
	}
	return max(rp, 0)
}

func activeDays(entries []schema.Entry) map[string]struct{} {
	out := make(map[string]struct{}, len(entries))
	for i := range entries {
		out[entries[i].DayKey] = struct{}{}
	}
	return out
}
