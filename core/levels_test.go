package core

import "testing"

func TestLevelForTable(t *testing.T) {
	curve := LevelCurve{Thresholds: []int64{0, 500, 1000, 2000}, Step: 10000}

	cases := []struct {
		total int64
		level int64
	}{
		{0, 1},
		{499, 1},
		{500, 2},
		{999, 2},
		{1000, 3},
		{2000, 4},
		{2500, 4},
		{11999, 4},
		{12000, 5},
	}
	for _, c := range cases {
		if got := curve.LevelFor(c.total); got != c.level {
			t.Fatalf("LevelFor(%d) = %d, want %d", c.total, got, c.level)
		}
	}
}

func TestLevelForNegativeClamped(t *testing.T) {
	curve := DefaultCurve()
	if curve.LevelFor(-100) != 1 {
		t.Fatal("negative totals clamp to level 1")
	}
}

func TestLevelForMonotonic(t *testing.T) {
	curve := DefaultCurve()
	prev := int64(0)
	for total := int64(0); total <= 60000; total += 137 {
		lvl := curve.LevelFor(total)
		if lvl < prev {
			t.Fatalf("level decreased at total=%d: %d < %d", total, lvl, prev)
		}
		prev = lvl
	}
}

func TestNextThreshold(t *testing.T) {
	curve := LevelCurve{Thresholds: []int64{0, 500, 1000, 2000}, Step: 10000}
	if curve.NextThreshold(1) != 500 {
		t.Fatalf("level 1 -> 500, got %d", curve.NextThreshold(1))
	}
	if curve.NextThreshold(3) != 2000 {
		t.Fatalf("level 3 -> 2000, got %d", curve.NextThreshold(3))
	}
	// beyond the table the next level is one step out
	if curve.NextThreshold(4) != 12000 {
		t.Fatalf("level 4 -> 12000, got %d", curve.NextThreshold(4))
	}
	if curve.NextThreshold(5) != 22000 {
		t.Fatalf("level 5 -> 22000, got %d", curve.NextThreshold(5))
	}
}

func TestLevelForPure(t *testing.T) {
	curve := DefaultCurve()
	if curve.LevelFor(4321) != curve.LevelFor(4321) {
		t.Fatal("LevelFor must be pure")
	}
}

func TestEmptyCurveStillTotal(t *testing.T) {
	var curve LevelCurve
	if curve.LevelFor(0) != 1 {
		t.Fatal("empty curve floors at level 1")
	}
	if curve.LevelFor(25000) != 3 {
		t.Fatalf("empty curve extrapolates by step, got %d", curve.LevelFor(25000))
	}
}
