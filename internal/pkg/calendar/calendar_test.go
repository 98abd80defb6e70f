package calendar

import (
	"testing"
	"time"
	_ "time/tzdata"
)

// withLocal 在测试期间把 time.Local 切换到指定时区
func withLocal(t *testing.T, name string) {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Fatalf("load %s: %v", name, err)
	}
	prev := time.Local
	time.Local = loc
	t.Cleanup(func() { time.Local = prev })
}

func TestDiffDays(t *testing.T) {
	cases := []struct {
		from, to string
		want     int
	}{
		{"2026-03-01", "2026-03-01", 0},
		{"2026-03-01", "2026-03-04", 3},
		{"2026-03-04", "2026-03-01", -3},
		{"2026-02-28", "2026-03-01", 1},
		{"2024-02-28", "2024-03-01", 2},
		{"2025-12-31", "2026-01-01", 1},
	}
	for _, tc := range cases {
		got, err := DiffDays(tc.from, tc.to)
		if err != nil {
			t.Fatalf("DiffDays(%s,%s) error: %v", tc.from, tc.to, err)
		}
		if got != tc.want {
			t.Errorf("DiffDays(%s,%s)=%d, want %d", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestDSTTransitions(t *testing.T) {
	withLocal(t, "Europe/Warsaw")

	// 2026-03-29 与 2026-10-25 为华沙夏令时切换日（23h / 25h）
	cases := []struct {
		from, to string
		want     int
	}{
		{"2026-03-28", "2026-03-30", 2},
		{"2026-03-29", "2026-03-30", 1},
		{"2026-10-24", "2026-10-26", 2},
		{"2026-10-25", "2026-10-26", 1},
	}
	for _, tc := range cases {
		got, err := DiffDays(tc.from, tc.to)
		if err != nil || got != tc.want {
			t.Errorf("DiffDays(%s,%s)=%d err=%v, want %d", tc.from, tc.to, got, err, tc.want)
		}
	}

	if got, _ := AddDays("2026-03-28", 2); got != "2026-03-30" {
		t.Fatalf("AddDays across spring change = %q", got)
	}
	if got, _ := AddDays("2026-10-25", 1); got != "2026-10-26" {
		t.Fatalf("AddDays across autumn change = %q", got)
	}

	start, end, err := DayRange("2026-03-29")
	if err != nil || end-start+1 != int64(23*time.Hour/time.Millisecond) {
		t.Fatalf("spring day length = %dms err=%v", end-start+1, err)
	}
	start, end, _ = DayRange("2026-10-25")
	if end-start+1 != int64(25*time.Hour/time.Millisecond) {
		t.Fatalf("autumn day length = %dms", end-start+1)
	}

	// 夏令时切换日 23:30 仍属于当天
	late := time.Date(2026, 3, 29, 23, 30, 0, 0, time.Local)
	if got := DayKey(late); got != "2026-03-29" {
		t.Fatalf("DayKey = %q", got)
	}
}

func TestDiffDaysInvalid(t *testing.T) {
	if _, err := DiffDays("bad", "2026-03-01"); err == nil {
		t.Fatalf("expected error for malformed key")
	}
}

func TestAddDays(t *testing.T) {
	got, err := AddDays("2026-02-27", 2)
	if err != nil || got != "2026-03-01" {
		t.Fatalf("AddDays=%q err=%v, want 2026-03-01", got, err)
	}
	got, _ = AddDays("2026-01-01", -1)
	if got != "2025-12-31" {
		t.Fatalf("AddDays back=%q, want 2025-12-31", got)
	}
}

func TestKeys(t *testing.T) {
	ts := time.Date(2026, 1, 1, 12, 0, 0, 0, time.Local)
	if got := DayKey(ts); got != "2026-01-01" {
		t.Fatalf("DayKey=%q", got)
	}
	if got := MonthKey(ts); got != "2026-01" {
		t.Fatalf("MonthKey=%q", got)
	}
	// 2026-01-01 是周四，属于 2026 年第 1 周
	if got := WeekKey(ts); got != "2026-W01" {
		t.Fatalf("WeekKey=%q", got)
	}
	// 2027-01-01 是周五，属于 2026 年第 53 周
	if got := WeekKey(time.Date(2027, 1, 1, 12, 0, 0, 0, time.Local)); got != "2026-W53" {
		t.Fatalf("WeekKey=%q, want 2026-W53", got)
	}
}

func TestDayRange(t *testing.T) {
	start, end, err := DayRange("2026-05-10")
	if err != nil {
		t.Fatalf("DayRange error: %v", err)
	}
	if end <= start {
		t.Fatalf("end=%d start=%d", end, start)
	}
	if DayKey(time.UnixMilli(end)) != "2026-05-10" || DayKey(time.UnixMilli(end+1)) != "2026-05-11" {
		t.Fatalf("range boundaries wrong")
	}
}

func TestIsDayKey(t *testing.T) {
	if !IsDayKey("2026-05-10") || IsDayKey("2026-13-01") || IsDayKey("") {
		t.Fatalf("IsDayKey unexpected result")
	}
}
