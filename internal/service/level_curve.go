package service

import "math"

const (
	levelBaseCost  = 120.0
	levelCostCoeff = 8.0
	levelLoopGuard = 10000
)

// LevelInfo 由累计经验推导出的等级进度（不持久化）
type LevelInfo struct {
	Level  int     `json:"level"`
	Into   int     `json:"into"`    // 本级已获得
	Need   int     `json:"need"`    // 本级升级所需
	ToNext int     `json:"to_next"` // 距下一级
	Pct    float64 `json:"pct"`     // 0-100
}

// ExpNeedForLevel 从 level 升到 level+1 所需经验
func ExpNeedForLevel(level int) int {
	l := float64(level)
	return int(math.Round(levelBaseCost + levelCostCoeff*l*l))
}

// LevelProgress 根据累计经验计算等级进度
func LevelProgress(totalExp int) LevelInfo {
	if totalExp < 0 {
		totalExp = 0
	}

	level := 1
	pool := totalExp
	for i := 0; ; i++ {
		need := ExpNeedForLevel(level)
		if i >= levelLoopGuard {
			// 超过保护上限，停在当前级别不再报告进度
			return LevelInfo{Level: level, Into: 0, Need: need, ToNext: need, Pct: 0}
		}
		if pool < need {
			break
		}
		pool -= need
		level++
	}

	need := ExpNeedForLevel(level)
	pct := float64(pool) / float64(need) * 100
	return LevelInfo{
		Level:  level,
		Into:   pool,
		Need:   need,
		ToNext: need - pool,
		Pct:    clamp(pct, 0, 100),
	}
}
