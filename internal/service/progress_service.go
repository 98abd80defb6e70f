package service

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/yuqie6/LifeRPG/internal/eventbus"
	"github.com/yuqie6/LifeRPG/internal/pkg/calendar"
	"github.com/yuqie6/LifeRPG/internal/schema"
)

// DefaultSnapshotKey 默认快照 key
const DefaultSnapshotKey = "liferpg_state_v1"

// ProgressConfig 进度服务配置
type ProgressConfig struct {
	SnapshotKey string
	RPRatio     float64
	Decay       DecayPolicy
	Quests      QuestConfig
	Seed        uint64 // 0 表示按时间取种子
}

// TickResult 一次周期检查的结果
type TickResult struct {
	Decay      DecayResult      `json:"decay"`
	Generation GenerationResult `json:"generation"`
}

// ProgressService 状态聚合的唯一持久化边界。
// 每次变更在互斥锁内执行 读取 -> 计算 -> 规范化 -> 保存，失败时不影响已保存状态。
type ProgressService struct {
	mu     sync.Mutex
	store  SnapshotStore
	pub    Publisher
	locker Locker
	key    string
	calc   RewardCalculator
	decay  DecayPolicy
	quests QuestConfig
	rng    *rand.Rand
}

// NewProgressService 创建进度服务；pub 与 locker 可为 nil
func NewProgressService(store SnapshotStore, pub Publisher, locker Locker, cfg ProgressConfig) *ProgressService {
	if cfg.SnapshotKey == "" {
		cfg.SnapshotKey = DefaultSnapshotKey
	}
	if cfg.Decay == nil {
		cfg.Decay = FlatDecay{Rate: DefaultDecayRate}
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &ProgressService{
		store:  store,
		pub:    pub,
		locker: locker,
		key:    cfg.SnapshotKey,
		calc:   NewRewardCalculator(cfg.RPRatio),
		decay:  cfg.Decay,
		quests: cfg.Quests.withDefaults(),
		rng:    rand.New(rand.NewPCG(seed, seed>>1|1)),
	}
}

// SetDecayPolicy 热更新衰减策略
func (s *ProgressService) SetDecayPolicy(p DecayPolicy) {
	if p == nil {
		return
	}
	s.mu.Lock()
	s.decay = p
	s.mu.Unlock()
}

func (s *ProgressService) read(ctx context.Context, now time.Time) (*schema.State, error) {
	raw, err := s.store.Load(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("读取状态失败: %w", err)
	}
	if raw == nil {
		return schema.NewState(now), nil
	}
	return schema.DecodeState(raw, now), nil
}

func (s *ProgressService) write(ctx context.Context, st *schema.State, now time.Time) error {
	st.Normalize(now)
	payload, err := st.Encode()
	if err != nil {
		return fmt.Errorf("序列化状态失败: %w", err)
	}
	if err := s.store.Save(ctx, s.key, payload); err != nil {
		return fmt.Errorf("保存状态失败: %w", err)
	}
	return nil
}

// mutate fn 返回 false 表示校验未通过：不保存、不发事件
func (s *ProgressService) mutate(ctx context.Context, now time.Time, fn func(st *schema.State) bool) (*schema.State, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.locker != nil {
		if err := s.locker.Lock(); err != nil {
			return nil, false, fmt.Errorf("获取数据锁失败: %w", err)
		}
		defer func() {
			if err := s.locker.Unlock(); err != nil {
				slog.Warn("释放数据锁失败", "error", err)
			}
		}()
	}

	st, err := s.read(ctx, now)
	if err != nil {
		return nil, false, err
	}
	before := progressMark{level: LevelProgress(st.TotalXP).Level, rank: RankFromPoints(st.RankRP)}

	if !fn(st) {
		return st, false, nil
	}
	if err := s.write(ctx, st, now); err != nil {
		return nil, false, err
	}
	s.publishProgress(before, st, now)
	return st, true, nil
}

type progressMark struct {
	level int
	rank  Rank
}

func (s *ProgressService) publish(typ string, now time.Time, data map[string]any) {
	if s.pub == nil {
		return
	}
	s.pub.Publish(eventbus.Event{Type: typ, Timestamp: now.UnixMilli(), Data: data})
}

func (s *ProgressService) publishProgress(before progressMark, st *schema.State, now time.Time) {
	level := LevelProgress(st.TotalXP).Level
	if level > before.level {
		s.publish(eventbus.TypeLevelUp, now, map[string]any{"from": before.level, "to": level})
	}
	rank := RankFromPoints(st.RankRP)
	if rank.Key != before.rank.Key {
		s.publish(eventbus.TypeRankChanged, now, map[string]any{"from": before.rank.Key, "to": rank.Key})
	}
}

// Load 读取并规范化状态，同时把修复结果写回存储
func (s *ProgressService) Load(ctx context.Context, now time.Time) (*schema.State, error) {
	st, _, err := s.mutate(ctx, now, func(*schema.State) bool { return true })
	return st, err
}

// Snapshot 只读快照，不写回
func (s *ProgressService) Snapshot(ctx context.Context, now time.Time) (*schema.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(ctx, now)
}

// LogActivity 记录一次行为
func (s *ProgressService) LogActivity(ctx context.Context, in EntryInput, now time.Time) (schema.Entry, bool, error) {
	var out schema.Entry
	_, ok, err := s.mutate(ctx, now, func(st *schema.State) bool {
		e, ok := s.calc.ApplyEntry(st, in, now)
		if ok {
			out = *e
		}
		return ok
	})
	if ok {
		slog.Debug("记录行为", "name", out.Name, "gained_exp", out.GainedExp, "gained_rp", out.GainedRP, "mult", out.Mult)
		s.publish(eventbus.TypeEntryLogged, now, map[string]any{"id": out.ID, "name": out.Name, "gained_exp": out.GainedExp})
	}
	return out, ok, err
}

// DeleteEntry 删除记录并回滚收益
func (s *ProgressService) DeleteEntry(ctx context.Context, id string, now time.Time) (schema.Entry, bool, error) {
	var out schema.Entry
	_, ok, err := s.mutate(ctx, now, func(st *schema.State) bool {
		e, ok := s.calc.DeleteEntry(st, id)
		if ok {
			out = *e
		}
		return ok
	})
	if ok {
		s.publish(eventbus.TypeEntryDeleted, now, map[string]any{"id": out.ID, "name": out.Name})
	}
	return out, ok, err
}

// AddQuickAction 添加快捷行为
func (s *ProgressService) AddQuickAction(ctx context.Context, name string, exp float64, now time.Time) (schema.QuickAction, bool, error) {
	var out schema.QuickAction
	_, ok, err := s.mutate(ctx, now, func(st *schema.State) bool {
		qa, ok := AddQuickAction(st, name, exp)
		if ok {
			out = *qa
		}
		return ok
	})
	return out, ok, err
}

// RemoveQuickAction 删除快捷行为
func (s *ProgressService) RemoveQuickAction(ctx context.Context, id string, now time.Time) (bool, error) {
	_, ok, err := s.mutate(ctx, now, func(st *schema.State) bool {
		return RemoveQuickAction(st, id)
	})
	return ok, err
}

// TagActivity 设置行为的赛道/耗时标签
func (s *ProgressService) TagActivity(ctx context.Context, name, track string, cost schema.TimeCost, now time.Time) (bool, error) {
	_, ok, err := s.mutate(ctx, now, func(st *schema.State) bool {
		return TagActivity(st, name, track, cost)
	})
	return ok, err
}

// AddEvent 记录带金额的特殊事件
func (s *ProgressService) AddEvent(ctx context.Context, title string, amount, baseExp float64, now time.Time) (schema.Event, bool, error) {
	var out schema.Event
	_, ok, err := s.mutate(ctx, now, func(st *schema.State) bool {
		ev, ok := s.calc.AddEvent(st, title, amount, baseExp, now)
		if ok {
			out = *ev
		}
		return ok
	})
	if ok {
		s.publish(eventbus.TypeEntryLogged, now, map[string]any{"id": out.EntryID, "name": out.Title, "event_amount": out.Amount})
	}
	return out, ok, err
}

// Tick 周期检查：RP 衰减 + 任务生成。幂等，无变化时不写存储
func (s *ProgressService) Tick(ctx context.Context, now time.Time) (TickResult, error) {
	var res TickResult
	_, changed, err := s.mutate(ctx, now, func(st *schema.State) bool {
		wm := st.Watermarks
		res.Decay = ApplyDecay(st, calendar.DayKey(now), s.decay)
		res.Generation = RunGeneration(st, now, s.rng, s.quests)
		return res.Decay.Changed() || res.Generation.Total() > 0 ||
			res.Generation.Expired > 0 || res.Generation.Unsnoozed > 0 ||
			st.Watermarks != wm
	})
	if err != nil || !changed {
		return res, err
	}
	if res.Decay.DaysPenalized > 0 {
		s.publish(eventbus.TypeDecayApplied, now, map[string]any{
			"days":      res.Decay.DaysPenalized,
			"rp_before": res.Decay.RPBefore,
			"rp_after":  res.Decay.RPAfter,
		})
	}
	if n := res.Generation.Total(); n > 0 {
		s.publish(eventbus.TypeQuestsGenerated, now, map[string]any{
			"daily":   len(res.Generation.Daily),
			"weekly":  len(res.Generation.Weekly),
			"monthly": len(res.Generation.Monthly),
		})
	}
	return res, nil
}

// Quests 当前可见任务
func (s *ProgressService) Quests(ctx context.Context, period schema.Period, now time.Time) ([]schema.Quest, error) {
	st, err := s.Snapshot(ctx, now)
	if err != nil {
		return nil, err
	}
	return ActiveQuests(st, period, calendar.DayKey(now)), nil
}

// CompleteQuest 完成任务
func (s *ProgressService) CompleteQuest(ctx context.Context, id string, quality int, now time.Time) (schema.Entry, bool, error) {
	var out schema.Entry
	_, ok, err := s.mutate(ctx, now, func(st *schema.State) bool {
		e, ok := CompleteQuest(st, id, quality, now)
		if ok {
			out = *e
		}
		return ok
	})
	if ok {
		s.publish(eventbus.TypeQuestCompleted, now, map[string]any{
			"quest_id": id, "title": out.Name, "quality": quality, "gained_cp": out.GainedCP,
		})
	}
	return out, ok, err
}

// RerollQuest 重抽任务
func (s *ProgressService) RerollQuest(ctx context.Context, id string, now time.Time) (schema.Quest, bool, error) {
	var out schema.Quest
	_, ok, err := s.mutate(ctx, now, func(st *schema.State) bool {
		q, ok := RerollQuest(st, id, s.rng, now)
		if ok {
			out = *q
		}
		return ok
	})
	return out, ok, err
}

// SnoozeQuest 推迟任务
func (s *ProgressService) SnoozeQuest(ctx context.Context, id, until string, now time.Time) (schema.Quest, bool, error) {
	var out schema.Quest
	_, ok, err := s.mutate(ctx, now, func(st *schema.State) bool {
		q, ok := SnoozeQuest(st, id, until, now)
		if ok {
			out = *q
		}
		return ok
	})
	return out, ok, err
}

// SkipQuest 跳过任务
func (s *ProgressService) SkipQuest(ctx context.Context, id string, now time.Time) (schema.Quest, bool, error) {
	var out schema.Quest
	_, ok, err := s.mutate(ctx, now, func(st *schema.State) bool {
		q, ok := SkipQuest(st, id, now)
		if ok {
			out = *q
		}
		return ok
	})
	return out, ok, err
}

// ArchiveCampaign 归档当前赛季并开启新赛季
func (s *ProgressService) ArchiveCampaign(ctx context.Context, now time.Time) (schema.ArchivedCampaign, error) {
	var rec schema.ArchivedCampaign
	_, _, err := s.mutate(ctx, now, func(st *schema.State) bool {
		rec = ArchiveCampaign(st, now)
		return true
	})
	if err != nil {
		return rec, err
	}
	slog.Info("赛季已归档", "campaign", rec.Campaign.Name, "total_cp", rec.TotalCP, "quests_done", rec.QuestsDone)
	s.publish(eventbus.TypeCampaignArchived, now, map[string]any{"campaign_id": rec.Campaign.ID, "total_cp": rec.TotalCP})
	return rec, nil
}

// Reset 清空为默认状态
func (s *ProgressService) Reset(ctx context.Context, now time.Time) error {
	_, _, err := s.mutate(ctx, now, func(st *schema.State) bool {
		*st = *schema.NewState(now)
		return true
	})
	if err == nil {
		slog.Info("状态已重置")
	}
	return err
}

// Report 只读报表
func (s *ProgressService) Report(ctx context.Context, now time.Time) (Report, error) {
	st, err := s.Snapshot(ctx, now)
	if err != nil {
		return Report{}, err
	}
	return BuildReport(st, now), nil
}
