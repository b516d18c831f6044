package service

import (
	"context"
	"regexp"
	"testing"

	"github.com/questify/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dsnUnsafe = regexp.MustCompile(`[^A-Za-z0-9]+`)

// setupServiceTestDB 为每个测试打开独立的内存库
func setupServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + dsnUnsafe.ReplaceAllString(t.Name(), "_") + "?mode=memory&cache=shared"
	gdb, err := db.Open(dsn, logger.Silent)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return gdb
}

func createTestUser(t *testing.T, gdb *gorm.DB, email string) *db.User {
	t.Helper()
	user, err := NewUserService(gdb).Create(context.Background(), UserInput{DisplayName: "Tester", Email: email})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func setGold(t *testing.T, gdb *gorm.DB, userID uint, gold int) {
	t.Helper()
	if err := gdb.Model(&db.User{}).Where("id = ?", userID).Update("gold", gold).Error; err != nil {
		t.Fatalf("set gold: %v", err)
	}
}
