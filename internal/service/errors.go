package service

import "errors"

var (
	// ErrInvalidInput 在请求字段缺失或越界时返回
	ErrInvalidInput = errors.New("invalid input")
	// ErrUserNotFound 在指定用户不存在时返回
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists 在邮箱已被注册时返回
	ErrUserExists = errors.New("user already exists")
	// ErrTaskNotFound 在任务不存在或不属于该用户时返回
	ErrTaskNotFound = errors.New("task not found")
	// ErrTaskExists 在客户端指定的任务 ID 已被占用时返回
	ErrTaskExists = errors.New("task already exists")
	// ErrQuestNotFound 在任务模板不存在时返回
	ErrQuestNotFound = errors.New("quest not found")
	// ErrQuestExists 在任务模板 ID 重复时返回
	ErrQuestExists = errors.New("quest already exists")
	// ErrUserQuestNotFound 在用户任务分配不存在时返回
	ErrUserQuestNotFound = errors.New("user quest not found")
	// ErrInsufficientGold 在金币不足以购买时返回
	ErrInsufficientGold = errors.New("insufficient gold")
	// ErrShopItemNotFound 在商店条目不存在时返回
	ErrShopItemNotFound = errors.New("shop item not found")
)
