package core

// DefaultLevelStep is the point increment per level once totals pass the
// last configured threshold, keeping LevelFor total over all inputs.
const DefaultLevelStep int64 = 10000

// LevelCurve maps cumulative points to levels via an ascending threshold
// table. Thresholds[0] must be 0 so that level 1 is the floor. Beyond the
// table each additional Step points is one more level.
type LevelCurve struct {
	Thresholds []int64 `json:"thresholds"`
	Step       int64   `json:"step"`
}

// DefaultCurve returns the stock education-platform progression table.
func DefaultCurve() LevelCurve {
	return LevelCurve{
		Thresholds: []int64{0, 500, 1000, 2000, 3500, 5500, 8000, 11000, 15000, 20000},
		Step:       DefaultLevelStep,
	}
}

func (c LevelCurve) step() int64 {
	if c.Step > 0 {
		return c.Step
	}
	return DefaultLevelStep
}

// LevelFor derives the 1-indexed level for a cumulative point total.
// Negative totals are clamped to 0. Monotonic non-decreasing and defined
// for every input.
func (c LevelCurve) LevelFor(total int64) int64 {
	if total < 0 {
		total = 0
	}
	if len(c.Thresholds) == 0 {
		return 1 + total/c.step()
	}
	idx := 0
	for i, th := range c.Thresholds {
		if total < th {
			break
		}
		idx = i
	}
	level := int64(idx + 1)
	if idx == len(c.Thresholds)-1 {
		level += (total - c.Thresholds[idx]) / c.step()
	}
	return level
}

// NextThreshold returns the point total required to reach level+1.
func (c LevelCurve) NextThreshold(level int64) int64 {
	if level < 1 {
		level = 1
	}
	n := int64(len(c.Thresholds))
	if n == 0 {
		return level * c.step()
	}
	if level < n {
		return c.Thresholds[level]
	}
	return c.Thresholds[n-1] + (level-n+1)*c.step()
}
