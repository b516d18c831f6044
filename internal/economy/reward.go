package economy

// Reward is one row of the difficulty table.
type Reward struct {
	Gold    int `json:"gold"`
	XP      int `json:"xp"`
	Penalty int `json:"penalty"`
}

var rewardTable = map[Difficulty]Reward{
	DifficultyTrivial: {Gold: 2, XP: 2, Penalty: 1},
	DifficultyEasy:    {Gold: 5, XP: 5, Penalty: 2},
	DifficultyMedium:  {Gold: 10, XP: 10, Penalty: 5},
	DifficultyHard:    {Gold: 20, XP: 20, Penalty: 10},
	DifficultyEpic:    {Gold: 35, XP: 35, Penalty: 18},
}

// RewardFor returns the table row for d. Unknown difficulties use Easy.
func RewardFor(d Difficulty) Reward {
	if r, ok := rewardTable[d]; ok {
		return r
	}
	return rewardTable[DefaultDifficulty]
}

// Stat is an attribute on the economy record.
type Stat string

const (
	StatStrength     Stat = "strength"
	StatDexterity    Stat = "dexterity"
	StatIntelligence Stat = "intelligence"
	StatWisdom       Stat = "wisdom"
	StatCharisma     Stat = "charisma"
)

var categoryStats = map[Category]Stat{
	CategorySTR: StatStrength,
	CategoryDEX: StatDexterity,
	CategoryINT: StatIntelligence,
	CategoryWIS: StatWisdom,
	CategoryCHA: StatCharisma,
}

var statNames = map[string]Stat{
	"strength":     StatStrength,
	"dexterity":    StatDexterity,
	"intelligence": StatIntelligence,
	"wisdom":       StatWisdom,
	"charisma":     StatCharisma,
}

// StatFor returns the attribute a category increments. Unknown categories have none.
func StatFor(c Category) (Stat, bool) {
	s, ok := categoryStats[c]
	return s, ok
}

// Category returns the category that trains s.
func (s Stat) Category() Category {
	for c, stat := range categoryStats {
		if stat == s {
			return c
		}
	}
	return ""
}

// Subject is what the reward table needs to know about a task.
type Subject interface {
	RewardDifficulty() Difficulty
	RewardCategory() Category
}

// TaskRef is a plain Subject.
type TaskRef struct {
	Difficulty Difficulty
	Category   Category
}

func (t TaskRef) RewardDifficulty() Difficulty { return t.Difficulty }
func (t TaskRef) RewardCategory() Category     { return t.Category }

func statDelta(c Category, n int) Delta {
	var d Delta
	if stat, ok := StatFor(c); ok {
		d = d.WithStat(stat, n)
	}
	return d
}

// CompletionDelta is granted when a task goes from incomplete to complete.
func CompletionDelta(t Subject) Delta {
	r := RewardFor(t.RewardDifficulty())
	d := statDelta(t.RewardCategory(), 1)
	d.Gold = r.Gold
	d.XP = r.XP
	return d
}

// RevocationDelta undoes CompletionDelta exactly.
func RevocationDelta(t Subject) Delta {
	return CompletionDelta(t).Negate()
}

// PenaltyDelta is charged for a Daily task left incomplete at rollover.
func PenaltyDelta(t Subject) Delta {
	r := RewardFor(t.RewardDifficulty())
	d := statDelta(t.RewardCategory(), -1)
	d.Gold = -r.Penalty
	d.XP = -r.Penalty
	return d
}

// PomodoroDelta rewards a finished focus block of the given length.
func PomodoroDelta(focusMinutes int) Delta {
	if focusMinutes < 0 {
		focusMinutes = 0
	}
	return Delta{XP: focusMinutes * 2, Gold: focusMinutes / 5}
}
