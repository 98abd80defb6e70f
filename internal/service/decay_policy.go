package service

import (
	"math"
	"strings"
)

const (
	DecayPolicyFlat      = "flat"
	DecayPolicyGraduated = "graduated"

	DefaultDecayRate = 0.06
)

// DecayPolicy RP 衰减策略（可替换）
type DecayPolicy interface {
	Name() string
	// Apply 对一个缺勤日计算衰减后的 RP；missedStreak 从 1 开始计数
	Apply(rp int, missedStreak int) int
}

// FlatDecay 固定比例衰减：rp = floor(rp * (1 - rate))
type FlatDecay struct {
	Rate float64
}

func (FlatDecay) Name() string { return DecayPolicyFlat }

func (p FlatDecay) Apply(rp int, _ int) int {
	if rp <= 0 {
		return 0
	}
	rate := clamp(p.Rate, 0, 1)
	// 1e-9 吸收浮点误差，避免 1000*0.94 落到 939.999...
	next := int(math.Floor(float64(rp)*(1-rate) + 1e-9))
	return max(next, 0)
}

// graceStep 连续缺勤档位
type graceStep struct {
	pct        float64
	minPenalty int
}

// GraduatedDecay 分级衰减：首日缺勤轻罚，连续缺勤三天起重罚
type GraduatedDecay struct{}

var graduatedSteps = []graceStep{
	{pct: 0.03, minPenalty: 5},
	{pct: 0.05, minPenalty: 10},
	{pct: 0.08, minPenalty: 20},
}

func (GraduatedDecay) Name() string { return DecayPolicyGraduated }

func (GraduatedDecay) Apply(rp int, missedStreak int) int {
	if rp <= 0 {
		return 0
	}
	idx := min(max(missedStreak, 1), len(graduatedSteps)) - 1
	step := graduatedSteps[idx]
	penalty := max(step.minPenalty, int(math.Round(float64(rp)*step.pct)))
	return max(rp-penalty, 0)
}

// NewDecayPolicy 按名称创建策略，未知名称回落到 flat
func NewDecayPolicy(name string, rate float64) DecayPolicy {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case DecayPolicyGraduated:
		return GraduatedDecay{}
	default:
		if rate <= 0 || rate >= 1 || math.IsNaN(rate) {
			rate = DefaultDecayRate
		}
		return FlatDecay{Rate: rate}
	}
}

// clamp 将数值限制在指定范围内
func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
