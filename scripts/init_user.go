package main

import (
	"context"
	"fmt"
	"log"

	"github.com/questify/internal/config"
	"github.com/questify/internal/db"
	"github.com/questify/internal/service"
	"gorm.io/gorm"
)

const (
	demoEmail = "adventurer@questify.local"
	demoName  = "Demo Adventurer"
)

var demoTasks = []service.TaskInput{
	{Title: "AM workout", Type: "Daily", Category: "STR", Difficulty: "Medium"},
	{Title: "Read 20 pages", Type: "Daily", Category: "INT", Difficulty: "Easy"},
	{Title: "Drink water", Type: "Habit", Category: "WIS", Difficulty: "Trivial"},
	{Title: "Call a friend", Type: "Habit", Category: "CHA", Difficulty: "Easy"},
	{Title: "File taxes", Type: "To-Do", Category: "INT", Difficulty: "Epic", PomsEstimate: 4},
}

// 初始化演示用户、示例任务与新手任务
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("配置加载失败:", err)
	}
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatal("数据库初始化失败:", err)
	}

	user, created, err := seedDemo(context.Background(), db.DB)
	if err != nil {
		log.Fatal("初始化演示数据失败:", err)
	}
	if !created {
		fmt.Println("演示用户已存在，无需初始化")
		return
	}

	fmt.Println("演示用户创建成功")
	fmt.Printf("用户ID: %d\n", user.ID)
	fmt.Printf("邮箱: %s\n", user.Email)
}

func seedDemo(ctx context.Context, gdb *gorm.DB) (*db.User, bool, error) {
	user, created, err := db.EnsureUser(gdb.WithContext(ctx), demoName, demoEmail)
	if err != nil {
		return nil, false, err
	}
	if !created {
		return user, false, nil
	}

	ledger := service.NewLedgerService(gdb, nil)
	tasks := service.NewTaskService(gdb, ledger, nil, nil)
	for _, input := range demoTasks {
		if _, err := tasks.Create(ctx, user.ID, input); err != nil {
			return nil, false, fmt.Errorf("seed task %q: %w", input.Title, err)
		}
	}

	quests := service.NewQuestService(gdb, nil, nil)
	if _, err := quests.EnsureStarterQuest(ctx); err != nil {
		return nil, false, err
	}
	if _, _, err := quests.AssignQuest(ctx, user.ID, service.QuestAssignInput{QuestID: db.StarterQuestID}); err != nil {
		return nil, false, err
	}

	return user, true, nil
}
