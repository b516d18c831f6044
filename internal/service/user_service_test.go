package service

import (
	"context"
	"errors"
	"testing"
)

func TestUserServiceCreate(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewUserService(gdb)
	ctx := context.Background()

	user, err := svc.Create(ctx, UserInput{Email: " Hero@Example.com "})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if user.Email != "hero@example.com" || user.DisplayName != "New Adventurer" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if user.Level != 1 || user.XPMax != 100 {
		t.Fatalf("expected baseline level, got %d/%d", user.Level, user.XPMax)
	}

	if _, err := svc.Create(ctx, UserInput{Email: "hero@example.com"}); !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
	if _, err := svc.Create(ctx, UserInput{Email: "not-an-email"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	if _, err := svc.Get(ctx, 42); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	users, err := svc.List(ctx)
	if err != nil || len(users) != 1 {
		t.Fatalf("List: %d users err=%v", len(users), err)
	}
}

func TestPerUserListsRejectUnknownUser(t *testing.T) {
	gdb := setupServiceTestDB(t)
	ledger := NewLedgerService(gdb, nil)
	quests := NewQuestService(gdb, nil, nil)
	rewards := NewRewardService(gdb, ledger, nil, nil)
	shop := NewShopService(gdb, ledger, nil, nil)
	ctx := context.Background()
	const ghost = 999

	if _, err := quests.ListUserQuests(ctx, ghost); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("ListUserQuests: expected ErrUserNotFound, got %v", err)
	}
	if _, err := rewards.List(ctx, ghost); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("rewards.List: expected ErrUserNotFound, got %v", err)
	}
	if _, err := rewards.Inventory(ctx, ghost); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("rewards.Inventory: expected ErrUserNotFound, got %v", err)
	}
	if _, err := shop.Inventory(ctx, ghost); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("shop.Inventory: expected ErrUserNotFound, got %v", err)
	}

	// 已存在但没有数据的用户返回空列表
	user := createTestUser(t, gdb, "empty@example.com")
	items, err := quests.ListUserQuests(ctx, user.ID)
	if err != nil || len(items) != 0 {
		t.Fatalf("expected empty quest list, got %d err=%v", len(items), err)
	}
	inventory, err := shop.Inventory(ctx, user.ID)
	if err != nil || len(inventory) != 0 {
		t.Fatalf("expected empty inventory, got %d err=%v", len(inventory), err)
	}
}
