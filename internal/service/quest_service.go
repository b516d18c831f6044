package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/questify/internal/db"
	"github.com/questify/internal/events"
	"github.com/questify/internal/logger"
	"github.com/questify/internal/metrics"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const rewardSourceQuest = "quest"

var questIDPattern = regexp.MustCompile(`[^a-z0-9]+`)

// QuestService 负责任务模板与用户任务分配
// 用户任务只能从未完成变为完成，完成时入队一条待领取奖励
type QuestService struct {
	db        *gorm.DB
	publisher events.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

// QuestInput 定义创建任务模板时的字段
type QuestInput struct {
	ID                string
	Label             string
	Description       string
	RewardXP          int
	RewardGold        int
	CompletionMessage string
}

// QuestAssignInput 分配任务；Quest 非空且模板不存在时先创建模板
type QuestAssignInput struct {
	QuestID string
	Quest   *QuestInput
}

// QuestCompletion 为设置完成状态后的结果
// Completed 仅在本次调用完成了未完成→完成的转换时为 true
type QuestCompletion struct {
	UserQuest db.UserQuest
	Completed bool
	Reward    *db.PendingReward
}

// QuestEvent 是任务完成事件的载荷
type QuestEvent struct {
	UserID  uint   `json:"user_id"`
	QuestID string `json:"quest_id"`
	Label   string `json:"label"`
	Gold    int    `json:"gold"`
	XP      int    `json:"xp"`
}

// NewQuestService 构造 QuestService
func NewQuestService(gdb *gorm.DB, publisher events.Publisher, log *zap.Logger) *QuestService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &QuestService{db: gdb, publisher: publisher, logger: logger.OrNop(log), now: time.Now}
}

// CreateQuest 新建任务模板，未指定 ID 时由标题生成
func (s *QuestService) CreateQuest(ctx context.Context, input QuestInput) (*db.Quest, error) {
	quest, err := buildQuest(input)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return createQuestTx(tx, quest)
	})
	if err != nil {
		return nil, err
	}
	return quest, nil
}

// ListQuests 返回全部任务模板
func (s *QuestService) ListQuests(ctx context.Context) ([]db.Quest, error) {
	var quests []db.Quest
	if err := s.db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&quests).Error; err != nil {
		return nil, fmt.Errorf("list quests: %w", err)
	}
	return quests, nil
}

// GetQuest 获取任务模板
func (s *QuestService) GetQuest(ctx context.Context, id string) (*db.Quest, error) {
	var quest db.Quest
	if err := s.db.WithContext(ctx).Where("id = ?", strings.TrimSpace(id)).First(&quest).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuestNotFound
		}
		return nil, fmt.Errorf("get quest: %w", err)
	}
	return &quest, nil
}

// EnsureStarterQuest 确保内置新手任务存在
func (s *QuestService) EnsureStarterQuest(ctx context.Context) (*db.Quest, error) {
	starter := db.StarterQuest()
	if err := s.db.WithContext(ctx).
		Where(db.Quest{ID: starter.ID}).
		Attrs(starter).
		FirstOrCreate(&starter).Error; err != nil {
		return nil, fmt.Errorf("ensure starter quest: %w", err)
	}
	return &starter, nil
}

// AssignQuest 将任务分配给用户；重复分配返回已有记录，created=false
func (s *QuestService) AssignQuest(ctx context.Context, userID uint, input QuestAssignInput) (*db.UserQuest, bool, error) {
	questID := strings.TrimSpace(input.QuestID)
	if questID == "" && input.Quest != nil {
		questID = strings.TrimSpace(input.Quest.ID)
	}
	if questID == "" && input.Quest == nil {
		return nil, false, fmt.Errorf("%w: quest_id is required", ErrInvalidInput)
	}

	var (
		assignment db.UserQuest
		created    bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureUserExists(tx, userID); err != nil {
			return err
		}

		quest, err := findQuest(tx, questID)
		if errors.Is(err, ErrQuestNotFound) && input.Quest != nil {
			def := *input.Quest
			def.ID = questID
			quest, err = buildQuest(def)
			if err != nil {
				return err
			}
			err = createQuestTx(tx, quest)
		}
		if err != nil {
			return err
		}

		lookup := tx.Preload("Quest").Where("user_id = ? AND quest_id = ?", userID, quest.ID).First(&assignment)
		if lookup.Error == nil {
			return nil
		}
		if !errors.Is(lookup.Error, gorm.ErrRecordNotFound) {
			return fmt.Errorf("find user quest: %w", lookup.Error)
		}

		assignment = db.UserQuest{UserID: userID, QuestID: quest.ID}
		if err := tx.Create(&assignment).Error; err != nil {
			return fmt.Errorf("assign quest: %w", err)
		}
		assignment.Quest = *quest
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return &assignment, created, nil
}

// ListUserQuests 返回用户的任务分配及模板
func (s *QuestService) ListUserQuests(ctx context.Context, userID uint) ([]db.UserQuest, error) {
	gdb := s.db.WithContext(ctx)
	if err := ensureUserExists(gdb, userID); err != nil {
		return nil, err
	}

	var items []db.UserQuest
	if err := gdb.
		Preload("Quest").
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list user quests: %w", err)
	}
	return items, nil
}

// SetUserQuestDone 设置完成状态；仅未完成→完成生效并入队奖励，其余为空操作
func (s *QuestService) SetUserQuestDone(ctx context.Context, userID, userQuestID uint, isDone bool) (*QuestCompletion, error) {
	var result QuestCompletion
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var uq db.UserQuest
		if err := tx.Preload("Quest").Where("id = ? AND user_id = ?", userQuestID, userID).First(&uq).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserQuestNotFound
			}
			return fmt.Errorf("get user quest: %w", err)
		}
		result.UserQuest = uq

		if !isDone || uq.IsDone {
			return nil
		}

		now := s.now()
		res := tx.Model(&db.UserQuest{}).
			Where("id = ? AND is_done = ?", uq.ID, false).
			Updates(map[string]any{"is_done": true, "completed_at": now})
		if res.Error != nil {
			return fmt.Errorf("complete user quest: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil
		}

		reward := db.PendingReward{
			ID:     uq.Quest.ID,
			UserID: userID,
			Label:  uq.Quest.Label,
			Gold:   uq.Quest.RewardGold,
			XP:     uq.Quest.RewardXP,
			Source: rewardSourceQuest,
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&reward).Error; err != nil {
			return fmt.Errorf("enqueue quest reward: %w", err)
		}

		result.UserQuest.IsDone = true
		result.UserQuest.CompletedAt = &now
		result.Completed = true
		result.Reward = &reward
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Completed {
		metrics.IncrementQuestCompleted()
		quest := result.UserQuest.Quest
		if err := s.publisher.Publish(events.QuestCompleted, QuestEvent{
			UserID:  userID,
			QuestID: quest.ID,
			Label:   quest.Label,
			Gold:    quest.RewardGold,
			XP:      quest.RewardXP,
		}); err != nil {
			s.logger.Warn("publish event failed", zap.String("routing_key", events.QuestCompleted), zap.Error(err))
		}
	}
	return &result, nil
}

// DeleteUserQuest 删除用户任务分配
func (s *QuestService) DeleteUserQuest(ctx context.Context, userID, userQuestID uint) error {
	res := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", userQuestID, userID).Delete(&db.UserQuest{})
	if res.Error != nil {
		return fmt.Errorf("delete user quest: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrUserQuestNotFound
	}
	return nil
}

func findQuest(tx *gorm.DB, id string) (*db.Quest, error) {
	if id == "" {
		return nil, ErrQuestNotFound
	}
	var quest db.Quest
	if err := tx.Where("id = ?", id).First(&quest).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuestNotFound
		}
		return nil, fmt.Errorf("get quest: %w", err)
	}
	return &quest, nil
}

func createQuestTx(tx *gorm.DB, quest *db.Quest) error {
	var count int64
	if err := tx.Model(&db.Quest{}).Where("id = ?", quest.ID).Count(&count).Error; err != nil {
		return fmt.Errorf("check quest id: %w", err)
	}
	if count > 0 {
		return ErrQuestExists
	}
	if err := tx.Create(quest).Error; err != nil {
		return fmt.Errorf("create quest: %w", err)
	}
	return nil
}

func buildQuest(input QuestInput) (*db.Quest, error) {
	label := sanitizePlain(input.Label)
	if label == "" {
		return nil, fmt.Errorf("%w: label is required", ErrInvalidInput)
	}
	if input.RewardXP < 0 || input.RewardGold < 0 {
		return nil, fmt.Errorf("%w: rewards must not be negative", ErrInvalidInput)
	}

	id := strings.TrimSpace(input.ID)
	if id == "" {
		id = slugifyQuestID(label)
	}
	if len(id) > 128 {
		return nil, fmt.Errorf("%w: quest id too long", ErrInvalidInput)
	}

	return &db.Quest{
		ID:                id,
		Label:             label,
		Description:       strings.TrimSpace(input.Description),
		RewardXP:          input.RewardXP,
		RewardGold:        input.RewardGold,
		CompletionMessage: sanitizePlain(input.CompletionMessage),
	}, nil
}

// slugifyQuestID 由标题生成 ID，附加短 UUID 避免冲突
func slugifyQuestID(label string) string {
	slug := strings.Trim(questIDPattern.ReplaceAllString(strings.ToLower(label), "-"), "-")
	if len(slug) > 80 {
		slug = strings.TrimRight(slug[:80], "-")
	}
	suffix := strings.SplitN(uuid.NewString(), "-", 2)[0]
	if slug == "" {
		return "quest-" + suffix
	}
	return slug + "-" + suffix
}
