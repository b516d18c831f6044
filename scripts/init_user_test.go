package main

import (
	"context"
	"testing"

	"github.com/questify/internal/db"
	"gorm.io/gorm/logger"
)

func TestSeedDemoIsIdempotent(t *testing.T) {
	gdb, err := db.Open("file:seed-demo?mode=memory&cache=shared", logger.Silent)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	defer func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	}()

	ctx := context.Background()
	user, created, err := seedDemo(ctx, gdb)
	if err != nil || !created {
		t.Fatalf("first seed: created=%v err=%v", created, err)
	}

	var taskCount int64
	gdb.Model(&db.Task{}).Where("user_id = ?", user.ID).Count(&taskCount)
	if taskCount != int64(len(demoTasks)) {
		t.Fatalf("expected %d tasks, got %d", len(demoTasks), taskCount)
	}

	var questCount int64
	gdb.Model(&db.UserQuest{}).Where("user_id = ? AND quest_id = ?", user.ID, db.StarterQuestID).Count(&questCount)
	if questCount != 1 {
		t.Fatalf("expected starter quest assigned, got %d", questCount)
	}

	again, created, err := seedDemo(ctx, gdb)
	if err != nil || created || again.ID != user.ID {
		t.Fatalf("second seed should reuse user: created=%v err=%v", created, err)
	}
}
