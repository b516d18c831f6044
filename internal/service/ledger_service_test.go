package service

import (
	"context"
	"errors"
	"testing"

	"github.com/questify/internal/db"
	"github.com/questify/internal/economy"
)

func TestLedgerApplyDeltaClampsGold(t *testing.T) {
	gdb := setupServiceTestDB(t)
	user := createTestUser(t, gdb, "clamp@example.com")
	setGold(t, gdb, user.ID, 3)

	svc := NewLedgerService(gdb, nil)
	result, err := svc.ApplyDelta(context.Background(), user.ID, economy.Delta{Gold: -10}, DeltaOptions{})
	if err != nil {
		t.Fatalf("ApplyDelta returned error: %v", err)
	}
	if result.Economy.Record.Gold != 0 {
		t.Fatalf("expected gold clamped to 0, got %d", result.Economy.Record.Gold)
	}

	entries, err := svc.ListEntries(context.Background(), user.ID, 0)
	if err != nil {
		t.Fatalf("ListEntries returned error: %v", err)
	}
	if len(entries) != 1 || entries[0].GoldDelta != -10 || entries[0].Reason != ReasonManual {
		t.Fatalf("unexpected ledger entries: %+v", entries)
	}
}

func TestLedgerApplyDeltaPersistsLevelUp(t *testing.T) {
	gdb := setupServiceTestDB(t)
	user := createTestUser(t, gdb, "level@example.com")

	svc := NewLedgerService(gdb, nil)
	result, err := svc.ApplyDelta(context.Background(), user.ID, economy.Delta{XP: 100}, DeltaOptions{})
	if err != nil {
		t.Fatalf("ApplyDelta returned error: %v", err)
	}

	want := economy.Progress{Level: 2, XP: 0, XPMax: 140}
	if result.Economy.Progress != want {
		t.Fatalf("expected %+v, got %+v", want, result.Economy.Progress)
	}
	if result.Economy.Record.Level != 2 || result.Economy.Record.XP != 0 || result.Economy.Record.XPMax != 140 {
		t.Fatalf("expected level-up to be stored, got %+v", result.Economy.Record)
	}

	var stored db.User
	if err := gdb.First(&stored, user.ID).Error; err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if stored.Level != 2 || stored.XP != 0 || stored.XPMax != 140 {
		t.Fatalf("unexpected stored level: %d %d/%d", stored.Level, stored.XP, stored.XPMax)
	}

	fined, err := svc.ApplyDelta(context.Background(), user.ID, economy.Delta{XP: -30}, DeltaOptions{})
	if err != nil {
		t.Fatalf("ApplyDelta penalty returned error: %v", err)
	}
	if fined.Economy.Progress != want {
		t.Fatalf("penalty must not drop the level, got %+v", fined.Economy.Progress)
	}
}

func TestLedgerIdempotencyKeyReplay(t *testing.T) {
	gdb := setupServiceTestDB(t)
	user := createTestUser(t, gdb, "idem@example.com")
	svc := NewLedgerService(gdb, nil)
	ctx := context.Background()

	opts := DeltaOptions{IdempotencyKey: "req-1"}
	first, err := svc.ApplyDelta(ctx, user.ID, economy.Delta{Gold: 15}, opts)
	if err != nil {
		t.Fatalf("first apply: %v", err)
	}
	second, err := svc.ApplyDelta(ctx, user.ID, economy.Delta{Gold: 15}, opts)
	if err != nil {
		t.Fatalf("second apply: %v", err)
	}

	if first.Replayed || !second.Replayed {
		t.Fatalf("expected only second call to be a replay: %v %v", first.Replayed, second.Replayed)
	}
	if second.Economy.Record.Gold != 15 {
		t.Fatalf("expected gold 15 after replay, got %d", second.Economy.Record.Gold)
	}

	other := createTestUser(t, gdb, "idem-other@example.com")
	res, err := svc.ApplyDelta(ctx, other.ID, economy.Delta{Gold: 1}, opts)
	if err != nil || res.Replayed {
		t.Fatalf("expected key to be scoped per user, err=%v replayed=%v", err, res != nil && res.Replayed)
	}
}

func TestLedgerUnknownUser(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewLedgerService(gdb, nil)

	if _, err := svc.ApplyDelta(context.Background(), 999, economy.Delta{Gold: 1}, DeltaOptions{}); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if _, err := svc.GetEconomy(context.Background(), 999); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
