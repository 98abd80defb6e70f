package service

// Rank 段位
type Rank struct {
	Key   string `json:"key"`
	Name  string `json:"name"`
	MinRP int    `json:"min_rp"`
}

// rankLadder 升序排列
var rankLadder = []Rank{
	{Key: "bronze", Name: "Bronze", MinRP: 0},
	{Key: "silver", Name: "Silver", MinRP: 250},
	{Key: "gold", Name: "Gold", MinRP: 650},
	{Key: "platinum", Name: "Platinum", MinRP: 1200},
	{Key: "diamond", Name: "Diamond", MinRP: 2000},
	{Key: "master", Name: "Master Vocal", MinRP: 3200},
}

// Ranks 返回段位表副本
func Ranks() []Rank {
	out := make([]Rank, len(rankLadder))
	copy(out, rankLadder)
	return out
}

// RankFromPoints 满足 rp >= MinRP 的最高段位；段位只由当前 RP 决定
func RankFromPoints(rp int) Rank {
	cur := rankLadder[0]
	for _, r := range rankLadder {
		if rp >= r.MinRP {
			cur = r
		}
	}
	return cur
}

// NextRank 上一级段位，已是最高返回 false
func NextRank(r Rank) (Rank, bool) {
	for i := range rankLadder {
		if rankLadder[i].Key == r.Key && i+1 < len(rankLadder) {
			return rankLadder[i+1], true
		}
	}
	return Rank{}, false
}

// RPToNextRank 距下一段位所需 RP，最高段位返回 0
func RPToNextRank(rp int) int {
	next, ok := NextRank(RankFromPoints(rp))
	if !ok {
		return 0
	}
	return next.MinRP - rp
}
