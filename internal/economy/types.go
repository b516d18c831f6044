package economy

import "strings"

// TaskType is the kind of task on the board.
type TaskType string

const (
	TypeHabit TaskType = "Habit"
	TypeDaily TaskType = "Daily"
	TypeTodo  TaskType = "To-Do"
)

// Category names the attribute a task trains.
type Category string

const (
	CategorySTR Category = "STR"
	CategoryDEX Category = "DEX"
	CategoryINT Category = "INT"
	CategoryWIS Category = "WIS"
	CategoryCHA Category = "CHA"
)

// Difficulty selects the reward tier.
type Difficulty string

const (
	DifficultyTrivial Difficulty = "Trivial"
	DifficultyEasy    Difficulty = "Easy"
	DifficultyMedium  Difficulty = "Medium"
	DifficultyHard    Difficulty = "Hard"
	DifficultyEpic    Difficulty = "Epic"
)

const (
	DefaultType       = TypeTodo
	DefaultCategory   = CategorySTR
	DefaultDifficulty = DifficultyEasy
)

var (
	taskTypes    = []TaskType{TypeHabit, TypeDaily, TypeTodo}
	categories   = []Category{CategorySTR, CategoryDEX, CategoryINT, CategoryWIS, CategoryCHA}
	difficulties = []Difficulty{DifficultyTrivial, DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyEpic}
)

// Categories lists the valid categories in display order.
func Categories() []Category { return append([]Category(nil), categories...) }

// Difficulties lists the valid difficulties from easiest to hardest.
func Difficulties() []Difficulty { return append([]Difficulty(nil), difficulties...) }

func squash(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("-", "", "_", "", " ", "").Replace(s)
}

// ParseTaskType maps free-form input onto a TaskType, falling back to To-Do.
func ParseTaskType(s string) TaskType {
	key := squash(s)
	for _, t := range taskTypes {
		if squash(string(t)) == key {
			return t
		}
	}
	return DefaultType
}

// ParseCategory maps free-form input onto a Category, falling back to STR.
func ParseCategory(s string) Category {
	key := squash(s)
	for _, c := range categories {
		if squash(string(c)) == key {
			return c
		}
	}
	if stat, ok := statNames[key]; ok {
		return stat.Category()
	}
	return DefaultCategory
}

// ParseDifficulty maps free-form input onto a Difficulty, falling back to Easy.
func ParseDifficulty(s string) Difficulty {
	key := squash(s)
	for _, d := range difficulties {
		if squash(string(d)) == key {
			return d
		}
	}
	return DefaultDifficulty
}
