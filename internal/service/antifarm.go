package service

// AntiFarmMultiplier 同一行为当天第 n 次的奖励倍率
func AntiFarmMultiplier(n int) float64 {
	switch {
	case n <= 2:
		return 1.0
	case n <= 5:
		return 0.7
	case n <= 10:
		return 0.4
	default:
		return 0.2
	}
}
