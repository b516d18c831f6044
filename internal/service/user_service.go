package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/questify/internal/db"
	"github.com/questify/internal/economy"
	"gorm.io/gorm"
)

const defaultDisplayName = "New Adventurer"

// UserService 负责冒险者账号的创建与查询，不含认证
type UserService struct {
	db *gorm.DB
}

// UserInput 定义创建用户时可配置字段
type UserInput struct {
	DisplayName string
	Email       string
}

// NewUserService 构造 UserService
func NewUserService(gdb *gorm.DB) *UserService {
	return &UserService{db: gdb}
}

// Create 新建用户，邮箱唯一
func (s *UserService) Create(ctx context.Context, input UserInput) (*db.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: invalid email", ErrInvalidInput)
	}

	name := sanitizePlain(input.DisplayName)
	if name == "" {
		name = defaultDisplayName
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&db.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check user email: %w", err)
	}
	if count > 0 {
		return nil, ErrUserExists
	}

	user := db.User{
		DisplayName: name,
		Email:       email,
		XPMax:       economy.BaseXPMax,
		Level:       1,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &user, nil
}

// Get 根据 ID 获取用户
func (s *UserService) Get(ctx context.Context, id uint) (*db.User, error) {
	var user db.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

// List 按创建顺序返回全部用户
func (s *UserService) List(ctx context.Context) ([]db.User, error) {
	var users []db.User
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func ensureUserExists(tx *gorm.DB, userID uint) error {
	var count int64
	if err := tx.Model(&db.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
		return fmt.Errorf("check user: %w", err)
	}
	if count == 0 {
		return ErrUserNotFound
	}
	return nil
}
