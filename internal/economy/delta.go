package economy

// Delta is a set of signed adjustments to an economy record. Absent fields are zero.
type Delta struct {
	XP           int `json:"xp_delta,omitempty"`
	Gold         int `json:"gold_delta,omitempty"`
	Strength     int `json:"strength_delta,omitempty"`
	Dexterity    int `json:"dexterity_delta,omitempty"`
	Intelligence int `json:"intelligence_delta,omitempty"`
	Wisdom       int `json:"wisdom_delta,omitempty"`
	Charisma     int `json:"charisma_delta,omitempty"`
}

// IsZero reports whether applying d would change nothing.
func (d Delta) IsZero() bool {
	return d == Delta{}
}

// Negate flips the sign of every field.
func (d Delta) Negate() Delta {
	return Delta{
		XP:           -d.XP,
		Gold:         -d.Gold,
		Strength:     -d.Strength,
		Dexterity:    -d.Dexterity,
		Intelligence: -d.Intelligence,
		Wisdom:       -d.Wisdom,
		Charisma:     -d.Charisma,
	}
}

// Add sums two deltas field by field.
func (d Delta) Add(o Delta) Delta {
	return Delta{
		XP:           d.XP + o.XP,
		Gold:         d.Gold + o.Gold,
		Strength:     d.Strength + o.Strength,
		Dexterity:    d.Dexterity + o.Dexterity,
		Intelligence: d.Intelligence + o.Intelligence,
		Wisdom:       d.Wisdom + o.Wisdom,
		Charisma:     d.Charisma + o.Charisma,
	}
}

// WithStat returns a copy of d with n added to the given attribute.
func (d Delta) WithStat(s Stat, n int) Delta {
	switch s {
	case StatStrength:
		d.Strength += n
	case StatDexterity:
		d.Dexterity += n
	case StatIntelligence:
		d.Intelligence += n
	case StatWisdom:
		d.Wisdom += n
	case StatCharisma:
		d.Charisma += n
	}
	return d
}

// Record is the per-user economy state.
type Record struct {
	Gold         int `json:"gold"`
	XP           int `json:"xp"`
	XPMax        int `json:"xp_max"`
	Level        int `json:"level"`
	Strength     int `json:"strength"`
	Dexterity    int `json:"dexterity"`
	Intelligence int `json:"intelligence"`
	Wisdom       int `json:"wisdom"`
	Charisma     int `json:"charisma"`
}

// NewRecord returns the starting record for a fresh adventurer.
func NewRecord() Record {
	return Record{XPMax: BaseXPMax, Level: 1}
}

// Apply adds d to r and clamps every field at zero. XP overflow is left for Project.
func Apply(r Record, d Delta) Record {
	r.XP = clamp(r.XP + d.XP)
	r.Gold = clamp(r.Gold + d.Gold)
	r.Strength = clamp(r.Strength + d.Strength)
	r.Dexterity = clamp(r.Dexterity + d.Dexterity)
	r.Intelligence = clamp(r.Intelligence + d.Intelligence)
	r.Wisdom = clamp(r.Wisdom + d.Wisdom)
	r.Charisma = clamp(r.Charisma + d.Charisma)
	return r
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
