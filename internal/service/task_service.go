package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/questify/internal/db"
	"github.com/questify/internal/economy"
	"github.com/questify/internal/events"
	"github.com/questify/internal/logger"
	"github.com/questify/internal/metrics"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultFocusMinutes = 25
	maxFocusMinutes     = 180
)

// TaskService 负责任务的增删改查与完成切换
// 只有 ToggleDone/CompletePomodoro 会产生经济变动；PUT/PATCH 不改 done，完成状态只能通过切换改变
type TaskService struct {
	db        *gorm.DB
	ledger    *LedgerService
	publisher events.Publisher
	logger    *zap.Logger
}

// TaskInput 定义创建/整体替换任务时的字段，Done 仅在创建时生效
type TaskInput struct {
	ID           string
	Title        string
	Type         string
	Category     string
	Difficulty   string
	DueAt        *time.Time
	Done         bool
	PomsDone     int
	PomsEstimate int
}

// TaskPatch 为局部更新，nil 字段保持不变
type TaskPatch struct {
	Title        *string
	Type         *string
	Category     *string
	Difficulty   *string
	DueAt        *time.Time
	ClearDueAt   bool
	PomsDone     *int
	PomsEstimate *int
}

// ToggleResult 为切换完成状态后的任务、经济记录与本次变动
type ToggleResult struct {
	Task      db.Task
	Economy   EconomyView
	Delta     economy.Delta
	Completed bool
}

// PomodoroResult 为一次番茄钟结算结果
type PomodoroResult struct {
	Task    db.Task
	Economy EconomyView
	Delta   economy.Delta
}

// TaskEvent 是任务完成/撤销事件的载荷
type TaskEvent struct {
	UserID uint          `json:"user_id"`
	TaskID string        `json:"task_id"`
	Title  string        `json:"title"`
	Delta  economy.Delta `json:"delta"`
}

// NewTaskService 构造 TaskService
func NewTaskService(gdb *gorm.DB, ledger *LedgerService, publisher events.Publisher, log *zap.Logger) *TaskService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &TaskService{db: gdb, ledger: ledger, publisher: publisher, logger: logger.OrNop(log)}
}

// Create 新建任务，未指定 ID 时生成 UUID
func (s *TaskService) Create(ctx context.Context, userID uint, input TaskInput) (*db.Task, error) {
	if err := validateTaskInput(input); err != nil {
		return nil, err
	}

	id := strings.TrimSpace(input.ID)
	if id == "" {
		id = uuid.NewString()
	}

	task := db.Task{ID: id, UserID: userID, Done: input.Done}
	applyTaskInput(&task, input)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureUserExists(tx, userID); err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&db.Task{}).Where("id = ? AND user_id = ?", id, userID).Count(&count).Error; err != nil {
			return fmt.Errorf("check task id: %w", err)
		}
		if count > 0 {
			return ErrTaskExists
		}

		var maxPosition int
		if err := tx.Model(&db.Task{}).
			Where("user_id = ?", userID).
			Select("COALESCE(MAX(position), -1)").
			Scan(&maxPosition).Error; err != nil {
			return fmt.Errorf("find task position: %w", err)
		}
		task.Position = maxPosition + 1

		if err := tx.Create(&task).Error; err != nil {
			return fmt.Errorf("create task: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// List 按插入顺序返回用户任务
func (s *TaskService) List(ctx context.Context, userID uint) ([]db.Task, error) {
	gdb := s.db.WithContext(ctx)
	if err := ensureUserExists(gdb, userID); err != nil {
		return nil, err
	}

	var tasks []db.Task
	if err := gdb.
		Where("user_id = ?", userID).
		Order("position ASC, created_at ASC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// Get 获取单个任务
func (s *TaskService) Get(ctx context.Context, userID uint, taskID string) (*db.Task, error) {
	return findTask(s.db.WithContext(ctx), userID, taskID)
}

// Replace 以完整记录覆盖任务（PUT），保留原完成状态，不触发经济变动
func (s *TaskService) Replace(ctx context.Context, userID uint, taskID string, input TaskInput) (*db.Task, error) {
	if err := validateTaskInput(input); err != nil {
		return nil, err
	}

	var task *db.Task
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := findTask(tx, userID, taskID)
		if err != nil {
			return err
		}
		applyTaskInput(existing, input)
		if err := tx.Save(existing).Error; err != nil {
			return fmt.Errorf("replace task: %w", err)
		}
		task = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// Patch 局部更新任务（PATCH），不触发经济变动
func (s *TaskService) Patch(ctx context.Context, userID uint, taskID string, patch TaskPatch) (*db.Task, error) {
	var task *db.Task
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := findTask(tx, userID, taskID)
		if err != nil {
			return err
		}

		if patch.Title != nil {
			existing.Title = sanitizeTitle(*patch.Title)
		}
		if patch.Type != nil {
			existing.Type = string(economy.ParseTaskType(*patch.Type))
		}
		if patch.Category != nil {
			existing.Category = string(economy.ParseCategory(*patch.Category))
		}
		if patch.Difficulty != nil {
			existing.Difficulty = string(economy.ParseDifficulty(*patch.Difficulty))
		}
		if patch.ClearDueAt {
			existing.DueAt = nil
		} else if patch.DueAt != nil {
			existing.DueAt = patch.DueAt
		}
		if patch.PomsDone != nil {
			existing.PomsDone = max(*patch.PomsDone, 0)
		}
		if patch.PomsEstimate != nil {
			existing.PomsEstimate = max(*patch.PomsEstimate, 0)
		}

		if err := tx.Save(existing).Error; err != nil {
			return fmt.Errorf("patch task: %w", err)
		}
		task = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// ToggleDone 切换完成状态，任务更新与经济变动在同一事务内提交
func (s *TaskService) ToggleDone(ctx context.Context, userID uint, taskID string) (*ToggleResult, error) {
	var result ToggleResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		task, err := findTask(tx, userID, taskID)
		if err != nil {
			return err
		}

		next := !task.Done
		res := tx.Model(&db.Task{}).
			Where("id = ? AND user_id = ? AND done = ?", task.ID, userID, task.Done).
			Update("done", next)
		if res.Error != nil {
			return fmt.Errorf("toggle task: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrTaskNotFound
		}
		task.Done = next

		delta := economy.CompletionDelta(task)
		reason := ReasonTaskComplete
		if !next {
			delta = economy.RevocationDelta(task)
			reason = ReasonTaskRevoke
		}

		applied, err := s.ledger.ApplyDeltaTx(tx, userID, delta, DeltaOptions{Reason: reason})
		if err != nil {
			return err
		}

		result = ToggleResult{Task: *task, Economy: applied.Economy, Delta: delta, Completed: next}
		return nil
	})
	if err != nil {
		if !isExpectedError(err) {
			s.logger.Error("toggle task failed",
				zap.Uint("user_id", userID),
				zap.String("task_id", taskID),
				zap.Error(err),
			)
		}
		return nil, err
	}

	direction, routingKey := "complete", events.TaskCompleted
	if !result.Completed {
		direction, routingKey = "revoke", events.TaskRevoked
	}
	metrics.IncrementTaskToggle(direction)
	s.publish(routingKey, TaskEvent{UserID: userID, TaskID: result.Task.ID, Title: result.Task.Title, Delta: result.Delta})

	return &result, nil
}

// CompletePomodoro 记录一次专注，poms_done+1 并按专注时长发放奖励
func (s *TaskService) CompletePomodoro(ctx context.Context, userID uint, taskID string, focusMinutes int) (*PomodoroResult, error) {
	if focusMinutes <= 0 {
		focusMinutes = defaultFocusMinutes
	}
	if focusMinutes > maxFocusMinutes {
		return nil, fmt.Errorf("%w: focus minutes must be at most %d", ErrInvalidInput, maxFocusMinutes)
	}

	var result PomodoroResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		task, err := findTask(tx, userID, taskID)
		if err != nil {
			return err
		}

		if err := tx.Model(&db.Task{}).
			Where("id = ? AND user_id = ?", task.ID, userID).
			Update("poms_done", gorm.Expr("poms_done + 1")).Error; err != nil {
			return fmt.Errorf("record pomodoro: %w", err)
		}
		task.PomsDone++

		delta := economy.PomodoroDelta(focusMinutes)
		applied, err := s.ledger.ApplyDeltaTx(tx, userID, delta, DeltaOptions{Reason: ReasonPomodoro})
		if err != nil {
			return err
		}

		result = PomodoroResult{Task: *task, Economy: applied.Economy, Delta: delta}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Remove 删除任务，已发放的奖励不回收
func (s *TaskService) Remove(ctx context.Context, userID uint, taskID string) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", strings.TrimSpace(taskID), userID).
		Delete(&db.Task{})
	if res.Error != nil {
		return fmt.Errorf("delete task: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

func (s *TaskService) publish(routingKey string, payload any) {
	if err := s.publisher.Publish(routingKey, payload); err != nil {
		s.logger.Warn("publish event failed", zap.String("routing_key", routingKey), zap.Error(err))
	}
}

func findTask(tx *gorm.DB, userID uint, taskID string) (*db.Task, error) {
	id := strings.TrimSpace(taskID)
	if id == "" {
		return nil, ErrTaskNotFound
	}

	var task db.Task
	if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("get task: %w", err)
	}
	return &task, nil
}

func validateTaskInput(input TaskInput) error {
	if len(strings.TrimSpace(input.ID)) > 64 {
		return fmt.Errorf("%w: task id too long", ErrInvalidInput)
	}
	return nil
}

func applyTaskInput(task *db.Task, input TaskInput) {
	task.Title = sanitizeTitle(input.Title)
	task.Type = string(economy.ParseTaskType(input.Type))
	task.Category = string(economy.ParseCategory(input.Category))
	task.Difficulty = string(economy.ParseDifficulty(input.Difficulty))
	task.DueAt = input.DueAt
	task.PomsDone = max(input.PomsDone, 0)
	task.PomsEstimate = max(input.PomsEstimate, 0)
}

// isExpectedError 用于区分业务错误与需要记录的存储错误
func isExpectedError(err error) bool {
	for _, target := range []error{
		ErrInvalidInput, ErrUserNotFound, ErrUserExists, ErrTaskNotFound, ErrTaskExists,
		ErrQuestNotFound, ErrQuestExists, ErrUserQuestNotFound, ErrInsufficientGold, ErrShopItemNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
