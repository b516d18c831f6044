package economy

const (
	// BaseXPMax is the threshold for leaving level 1.
	BaseXPMax = 100

	// 1.15 in hundredths, kept integral so floor(100*1.15+25) is exactly 140.
	xpGrowthPercent = 115
	xpGrowthFlat    = 25
	maxLevelSteps   = 10_000
)

// Progress is the level state: xp inside the current level and its threshold.
type Progress struct {
	Level int `json:"level"`
	XP    int `json:"xp"`
	XPMax int `json:"xp_max"`
}

// NextThreshold grows a threshold by one level.
func NextThreshold(xpMax int) int {
	return xpMax*xpGrowthPercent/100 + xpGrowthFlat
}

// Project levels up while xp reaches the threshold. Level never decreases.
func Project(xp, level, xpMax int) Progress {
	if level < 1 {
		level = 1
	}
	if xpMax <= 0 {
		xpMax = BaseXPMax
	}
	if xp < 0 {
		xp = 0
	}
	for steps := 0; xp >= xpMax && steps < maxLevelSteps; steps++ {
		xp -= xpMax
		level++
		xpMax = NextThreshold(xpMax)
	}
	return Progress{Level: level, XP: xp, XPMax: xpMax}
}

// Progress projects the record's xp onto the level curve.
func (r Record) Progress() Progress {
	return Project(r.XP, r.Level, r.XPMax)
}

// LevelUp folds threshold overflow into the record's level fields. A record
// already below its threshold comes back unchanged, so later penalties only
// eat into xp of the current level.
func LevelUp(r Record) Record {
	p := r.Progress()
	r.Level, r.XP, r.XPMax = p.Level, p.XP, p.XPMax
	return r
}

// Settle applies d and then levels up.
func Settle(r Record, d Delta) Record {
	return LevelUp(Apply(r, d))
}
