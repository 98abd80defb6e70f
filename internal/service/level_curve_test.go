package service

import "testing"

func TestExpNeedForLevel(t *testing.T) {
	cases := []struct {
		level, want int
	}{
		{1, 128},
		{2, 152},
		{3, 192},
		{10, 920},
	}
	for _, tc := range cases {
		if got := ExpNeedForLevel(tc.level); got != tc.want {
			t.Errorf("ExpNeedForLevel(%d) = %d, want %d", tc.level, got, tc.want)
		}
	}
}

func TestLevelProgressZero(t *testing.T) {
	got := LevelProgress(0)
	if got.Level != 1 || got.Into != 0 || got.Need != 128 || got.ToNext != 128 || got.Pct != 0 {
		t.Fatalf("LevelProgress(0) = %+v", got)
	}
}

func TestLevelProgressBoundaries(t *testing.T) {
	if got := LevelProgress(127); got.Level != 1 || got.ToNext != 1 {
		t.Fatalf("127 -> %+v", got)
	}
	if got := LevelProgress(128); got.Level != 2 || got.Into != 0 || got.Need != 152 {
		t.Fatalf("128 -> %+v", got)
	}
	if got := LevelProgress(128 + 152 + 10); got.Level != 3 || got.Into != 10 {
		t.Fatalf("290 -> %+v", got)
	}
}

func TestLevelProgressNegative(t *testing.T) {
	if got := LevelProgress(-50); got != LevelProgress(0) {
		t.Fatalf("negative total = %+v", got)
	}
}

func TestLevelProgressMonotonic(t *testing.T) {
	prev := LevelProgress(0)
	for exp := 1; exp <= 50000; exp += 7 {
		cur := LevelProgress(exp)
		if cur.Level < prev.Level {
			t.Fatalf("level decreased at %d: %d -> %d", exp, prev.Level, cur.Level)
		}
		if cur.Into >= cur.Need || cur.Into < 0 {
			t.Fatalf("into out of range at %d: %+v", exp, cur)
		}
		if cur.Pct < 0 || cur.Pct > 100 {
			t.Fatalf("pct out of range at %d: %+v", exp, cur)
		}
		prev = cur
	}
}
