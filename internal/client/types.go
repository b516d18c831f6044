package client

import "github.com/questify/internal/economy"

// User is an adventurer account.
type User struct {
	ID          uint   `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
}

// Task mirrors the server's task payload.
type Task struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Type         string  `json:"type"`
	Category     string  `json:"category"`
	Difficulty   string  `json:"difficulty"`
	DueAt        *string `json:"due_at"`
	Done         bool    `json:"done"`
	PomsDone     int     `json:"poms_done"`
	PomsEstimate int     `json:"poms_estimate"`
	Position     int     `json:"position"`
}

func (t Task) RewardDifficulty() economy.Difficulty { return economy.ParseDifficulty(t.Difficulty) }
func (t Task) RewardCategory() economy.Category     { return economy.ParseCategory(t.Category) }

// TaskDraft is the body for create and replace.
type TaskDraft struct {
	ID           string `json:"id,omitempty"`
	Title        string `json:"title"`
	Type         string `json:"type,omitempty"`
	Category     string `json:"category,omitempty"`
	Difficulty   string `json:"difficulty,omitempty"`
	DueAt        string `json:"due_at,omitempty"`
	Done         bool   `json:"done"`
	PomsDone     int    `json:"poms_done,omitempty"`
	PomsEstimate int    `json:"poms_estimate,omitempty"`
}

// TaskPatch is the body for partial updates; nil fields are left alone.
// Completion only changes through Toggle.
type TaskPatch struct {
	Title        *string `json:"title,omitempty"`
	Type         *string `json:"type,omitempty"`
	Category     *string `json:"category,omitempty"`
	Difficulty   *string `json:"difficulty,omitempty"`
	DueAt        *string `json:"due_at,omitempty"`
	PomsDone     *int    `json:"poms_done,omitempty"`
	PomsEstimate *int    `json:"poms_estimate,omitempty"`
}

// Economy is the economy record. XP is progress inside the current level.
type Economy struct {
	UserID       uint   `json:"user_id"`
	Gold         int    `json:"gold"`
	XP           int    `json:"xp"`
	XPMax        int    `json:"xp_max"`
	Level        int    `json:"level"`
	Strength     int    `json:"strength"`
	Dexterity    int    `json:"dexterity"`
	Intelligence int    `json:"intelligence"`
	Wisdom       int    `json:"wisdom"`
	Charisma     int    `json:"charisma"`
	LastRollover string `json:"last_rollover"`
}

// Record converts e back to the domain record.
func (e Economy) Record() economy.Record {
	r := economy.NewRecord()
	r.Gold = e.Gold
	r.XP = e.XP
	if e.Level > 0 {
		r.Level = e.Level
	}
	if e.XPMax > 0 {
		r.XPMax = e.XPMax
	}
	r.Strength = e.Strength
	r.Dexterity = e.Dexterity
	r.Intelligence = e.Intelligence
	r.Wisdom = e.Wisdom
	r.Charisma = e.Charisma
	return r
}

// Apply returns e with d applied the way the server settles it.
func (e Economy) Apply(d economy.Delta) Economy {
	r := economy.Settle(e.Record(), d)
	return Economy{
		UserID:       e.UserID,
		Gold:         r.Gold,
		XP:           r.XP,
		XPMax:        r.XPMax,
		Level:        r.Level,
		Strength:     r.Strength,
		Dexterity:    r.Dexterity,
		Intelligence: r.Intelligence,
		Wisdom:       r.Wisdom,
		Charisma:     r.Charisma,
		LastRollover: e.LastRollover,
	}
}

// TaskOutcome is returned by toggle and pomodoro.
type TaskOutcome struct {
	Task    Task          `json:"task"`
	Economy Economy       `json:"economy"`
	Delta   economy.Delta `json:"delta"`
}

// DeltaOutcome is returned by ApplyDelta.
type DeltaOutcome struct {
	Economy  Economy `json:"economy"`
	Replayed bool    `json:"replayed"`
}

type LedgerEntry struct {
	ID             uint          `json:"id"`
	Reason         string        `json:"reason"`
	Delta          economy.Delta `json:"delta"`
	IdempotencyKey string        `json:"idempotency_key"`
	CreatedAt      string        `json:"created_at"`
}

type RolloverOutcome struct {
	Outcome   string        `json:"outcome"`
	Date      string        `json:"date"`
	Penalized []string      `json:"penalized"`
	Reset     int64         `json:"reset"`
	Penalty   economy.Delta `json:"penalty"`
	Economy   *Economy      `json:"economy"`
}

type Quest struct {
	ID                string `json:"id,omitempty"`
	Label             string `json:"label"`
	Description       string `json:"description,omitempty"`
	DescriptionHTML   string `json:"description_html,omitempty"`
	RewardXP          int    `json:"reward_xp"`
	RewardGold        int    `json:"reward_gold"`
	CompletionMessage string `json:"completion_message,omitempty"`
}

type UserQuest struct {
	ID          uint    `json:"id"`
	QuestID     string  `json:"quest_id"`
	IsDone      bool    `json:"is_done"`
	CompletedAt *string `json:"completed_at"`
	Quest       Quest   `json:"quest"`
}

type QuestOutcome struct {
	Quest         UserQuest      `json:"quest"`
	Completed     bool           `json:"completed"`
	PendingReward *PendingReward `json:"pending_reward"`
	Message       string         `json:"message"`
}

type PendingReward struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Gold   int    `json:"gold"`
	XP     int    `json:"xp"`
	Source string `json:"source"`
}

type InventoryItem struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Source    string `json:"source"`
	GoldValue int    `json:"gold_value"`
	Cost      int    `json:"cost"`
	CreatedAt string `json:"created_at"`
}

type ClaimOutcome struct {
	Claimed bool            `json:"claimed"`
	Rewards []PendingReward `json:"rewards"`
	Items   []InventoryItem `json:"items"`
	Economy Economy         `json:"economy"`
}

type ShopItem struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Cost        int    `json:"cost"`
}

type PurchaseOutcome struct {
	Item    InventoryItem `json:"item"`
	Economy Economy       `json:"economy"`
}
