package db

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB 是一个全局的数据库连接实例
var DB *gorm.DB

// Models 返回需要自动迁移的全部模型，测试与 Init 共用
func Models() []any {
	return []any{
		&User{},
		&Task{},
		&LedgerEntry{},
		&Quest{},
		&UserQuest{},
		&PendingReward{},
		&InventoryItem{},
	}
}

// Init 初始化数据库连接并执行自动迁移。
// databasePath 为空时将回退到默认值 questify.db。
func Init(databasePath string) error {
	path := strings.TrimSpace(databasePath)
	if path == "" {
		path = "questify.db"
	}

	if err := ensureParentDir(path); err != nil {
		return err
	}

	gdb, err := Open(path, logger.Warn)
	if err != nil {
		return err
	}

	DB = gdb
	return nil
}

// Open 打开 sqlite 数据库并迁移，供 Init 与测试使用
func Open(dsn string, level logger.LogLevel) (*gorm.DB, error) {
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, err
	}

	// sqlite 单写者，避免并发事务返回 database is locked
	if sqlDB, err := gdb.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}

	// 自动迁移模式，为核心模型创建表
	if err := gdb.AutoMigrate(Models()...); err != nil {
		return nil, err
	}

	if err := gdb.Model(&User{}).
		Where("xp_max IS NULL OR xp_max <= 0").
		Update("xp_max", 100).Error; err != nil {
		return nil, err
	}
	if err := gdb.Model(&User{}).
		Where("level IS NULL OR level < 1").
		Update("level", 1).Error; err != nil {
		return nil, err
	}

	return gdb, nil
}

func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}

	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return errors.New("database path parent is not a directory")
		}
		return nil
	}

	if os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o755)
	}

	return err
}
