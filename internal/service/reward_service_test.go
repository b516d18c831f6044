package service

import (
	"context"
	"errors"
	"testing"
)

func TestRewardServiceAddIsUpsertAndDiscard(t *testing.T) {
	gdb := setupServiceTestDB(t)
	user := createTestUser(t, gdb, "rewards@example.com")
	svc := NewRewardService(gdb, NewLedgerService(gdb, nil), nil, nil)
	ctx := context.Background()

	first, created, err := svc.Add(ctx, user.ID, PendingRewardInput{ID: "bonus", Label: "Bonus", Gold: 4})
	if err != nil || !created {
		t.Fatalf("Add: created=%v err=%v", created, err)
	}
	second, created, err := svc.Add(ctx, user.ID, PendingRewardInput{ID: "bonus", Label: "Other", Gold: 99})
	if err != nil || created {
		t.Fatalf("expected duplicate add to be a no-op, created=%v err=%v", created, err)
	}
	if second.Gold != first.Gold || second.Label != "Bonus" {
		t.Fatalf("expected original reward kept, got %+v", second)
	}

	if _, _, err := svc.Add(ctx, user.ID, PendingRewardInput{Gold: -1}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, _, err := svc.Add(ctx, 999, PendingRewardInput{Gold: 1}); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	removed, err := svc.Discard(ctx, user.ID, "bonus")
	if err != nil || !removed {
		t.Fatalf("Discard: removed=%v err=%v", removed, err)
	}
	removed, err = svc.Discard(ctx, user.ID, "bonus")
	if err != nil || removed {
		t.Fatalf("expected second discard to remove nothing, removed=%v err=%v", removed, err)
	}
}

func TestRewardServiceClaimAll(t *testing.T) {
	gdb := setupServiceTestDB(t)
	user := createTestUser(t, gdb, "claimall@example.com")
	ledger := NewLedgerService(gdb, nil)
	svc := NewRewardService(gdb, ledger, nil, nil)
	ctx := context.Background()

	for _, input := range []PendingRewardInput{
		{ID: "a", Label: "A", Gold: 3, XP: 1},
		{ID: "b", Label: "", Gold: 7, XP: 2},
	} {
		if _, _, err := svc.Add(ctx, user.ID, input); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	result, err := svc.ClaimAll(ctx, user.ID)
	if err != nil {
		t.Fatalf("ClaimAll: %v", err)
	}
	if len(result.Claimed) != 2 || result.Economy.Record.Gold != 10 || result.Economy.Record.XP != 0 {
		t.Fatalf("unexpected claim result: %+v", result)
	}

	entries, err := ledger.ListEntries(ctx, user.ID, 0)
	if err != nil {
		t.Fatalf("ListEntries: %v", err)
	}
	for _, entry := range entries {
		if entry.Reason != ReasonRewardClaim || entry.XPDelta != 0 || entry.GoldDelta == 0 {
			t.Fatalf("claim should credit gold only, got %+v", entry)
		}
	}

	inventory, err := svc.Inventory(ctx, user.ID)
	if err != nil {
		t.Fatalf("Inventory: %v", err)
	}
	if len(inventory) != 2 {
		t.Fatalf("expected two items, got %d", len(inventory))
	}
	names := map[string]bool{inventory[0].Name: true, inventory[1].Name: true}
	if !names["A"] || !names["Completed Habit"] {
		t.Fatalf("unexpected inventory names: %v", names)
	}

	again, err := svc.ClaimAll(ctx, user.ID)
	if err != nil || len(again.Claimed) != 0 {
		t.Fatalf("expected nothing left to claim, err=%v", err)
	}

	n, err := svc.DiscardAll(ctx, user.ID)
	if err != nil || n != 0 {
		t.Fatalf("DiscardAll: n=%d err=%v", n, err)
	}
}
