package calendar

import (
	"fmt"
	"time"
)

const (
	dayLayout   = "2006-01-02"
	monthLayout = "2006-01"
)

// DayKey 本地时区的日键 YYYY-MM-DD
func DayKey(t time.Time) string {
	return t.In(time.Local).Format(dayLayout)
}

// MonthKey 本地时区的月键 YYYY-MM
func MonthKey(t time.Time) string {
	return t.In(time.Local).Format(monthLayout)
}

// WeekKey ISO 周键 YYYY-Www（年份取 ISO 周所属年份）
func WeekKey(t time.Time) string {
	year, week := t.In(time.Local).ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

// ParseDay 将日键解析为本地零点
func ParseDay(key string) (time.Time, error) {
	t, err := time.ParseInLocation(dayLayout, key, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("解析日期失败: %w", err)
	}
	return t, nil
}

// IsDayKey 判断字符串是否为合法日键
func IsDayKey(key string) bool {
	_, err := time.ParseInLocation(dayLayout, key, time.Local)
	return err == nil
}

// DiffDays 计算两个日键之间相差的自然日数（to - from）。
// 按日历日计算，不做毫秒相减，夏令时切换不影响结果。
func DiffDays(from, to string) (int, error) {
	f, err := civil(from)
	if err != nil {
		return 0, err
	}
	t, err := civil(to)
	if err != nil {
		return 0, err
	}
	return int(t.Sub(f).Hours() / 24), nil
}

// AddDays 日键加减天数
func AddDays(key string, days int) (string, error) {
	t, err := ParseDay(key)
	if err != nil {
		return "", err
	}
	y, m, d := t.Date()
	return time.Date(y, m, d+days, 0, 0, 0, 0, time.Local).Format(dayLayout), nil
}

// DayRange 将日键解析为本地日区间的毫秒时间戳 [start, end]（闭区间）
func DayRange(key string) (startMs int64, endMs int64, err error) {
	t, err := ParseDay(key)
	if err != nil {
		return 0, 0, err
	}
	y, m, d := t.Date()
	next := time.Date(y, m, d+1, 0, 0, 0, 0, time.Local)
	return t.UnixMilli(), next.UnixMilli() - 1, nil
}

// civil 把日键映射到 UTC 零点，只保留年月日用于差值计算
func civil(key string) (time.Time, error) {
	t, err := ParseDay(key)
	if err != nil {
		return time.Time{}, err
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}
