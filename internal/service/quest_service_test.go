package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/questify/internal/db"
	"github.com/questify/internal/events"
)

func TestQuestCompletionEnqueuesSingleRewardAndClaimsOnce(t *testing.T) {
	gdb := setupServiceTestDB(t)
	user := createTestUser(t, gdb, "quest@example.com")
	ctx := context.Background()

	ledger := NewLedgerService(gdb, nil)
	recorder := &events.Recorder{}
	quests := NewQuestService(gdb, recorder, nil)
	rewards := NewRewardService(gdb, ledger, recorder, nil)

	starter, err := quests.EnsureStarterQuest(ctx)
	if err != nil {
		t.Fatalf("EnsureStarterQuest: %v", err)
	}
	if starter.ID != db.StarterQuestID || starter.RewardGold != 5 || starter.RewardXP != 10 {
		t.Fatalf("unexpected starter quest: %+v", starter)
	}
	if _, err := quests.EnsureStarterQuest(ctx); err != nil {
		t.Fatalf("EnsureStarterQuest twice: %v", err)
	}

	uq, created, err := quests.AssignQuest(ctx, user.ID, QuestAssignInput{QuestID: db.StarterQuestID})
	if err != nil || !created {
		t.Fatalf("AssignQuest: created=%v err=%v", created, err)
	}
	again, created, err := quests.AssignQuest(ctx, user.ID, QuestAssignInput{QuestID: db.StarterQuestID})
	if err != nil || created || again.ID != uq.ID {
		t.Fatalf("expected existing assignment, created=%v err=%v", created, err)
	}

	done, err := quests.SetUserQuestDone(ctx, user.ID, uq.ID, true)
	if err != nil {
		t.Fatalf("SetUserQuestDone: %v", err)
	}
	if !done.Completed || done.Reward == nil || done.Reward.ID != db.StarterQuestID {
		t.Fatalf("unexpected completion: %+v", done)
	}

	repeat, err := quests.SetUserQuestDone(ctx, user.ID, uq.ID, true)
	if err != nil || repeat.Completed {
		t.Fatalf("expected repeated completion to be a no-op, completed=%v err=%v", repeat != nil && repeat.Completed, err)
	}
	undo, err := quests.SetUserQuestDone(ctx, user.ID, uq.ID, false)
	if err != nil || !undo.UserQuest.IsDone {
		t.Fatalf("expected completion to be one-way, err=%v", err)
	}

	pending, err := rewards.List(ctx, user.ID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected exactly one pending reward, got %d", len(pending))
	}

	claim, err := rewards.Claim(ctx, user.ID, db.StarterQuestID)
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if len(claim.Claimed) != 1 || claim.Economy.Record.Gold != 5 || claim.Economy.Record.XP != 0 {
		t.Fatalf("unexpected claim: %+v", claim)
	}
	if len(claim.Items) != 1 || claim.Items[0].Source != "quest" {
		t.Fatalf("expected one quest inventory item, got %+v", claim.Items)
	}

	reclaim, err := rewards.Claim(ctx, user.ID, db.StarterQuestID)
	if err != nil {
		t.Fatalf("re-Claim: %v", err)
	}
	if len(reclaim.Claimed) != 0 || reclaim.Economy.Record.Gold != 5 {
		t.Fatalf("expected re-claim to be a no-op, got %+v", reclaim)
	}

	if recorder.Count(events.QuestCompleted) != 1 || recorder.Count(events.RewardClaimed) != 1 {
		t.Fatalf("unexpected events: %+v", recorder.Events())
	}
}

func TestQuestServiceCreateAndRender(t *testing.T) {
	gdb := setupServiceTestDB(t)
	quests := NewQuestService(gdb, nil, nil)
	ctx := context.Background()

	quest, err := quests.CreateQuest(ctx, QuestInput{Label: "Drink Water!", Description: "Drink **8** glasses<script>alert(1)</script>", RewardXP: 3})
	if err != nil {
		t.Fatalf("CreateQuest: %v", err)
	}
	if !strings.HasPrefix(quest.ID, "drink-water-") {
		t.Fatalf("unexpected generated id %q", quest.ID)
	}

	html := RenderMarkdown(quest.Description)
	if !strings.Contains(html, "<strong>8</strong>") || strings.Contains(html, "<script>") {
		t.Fatalf("unexpected rendered description %q", html)
	}

	if _, err := quests.CreateQuest(ctx, QuestInput{ID: quest.ID, Label: "dup"}); !errors.Is(err, ErrQuestExists) {
		t.Fatalf("expected ErrQuestExists, got %v", err)
	}
	if _, err := quests.CreateQuest(ctx, QuestInput{Label: " "}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := quests.GetQuest(ctx, "missing"); !errors.Is(err, ErrQuestNotFound) {
		t.Fatalf("expected ErrQuestNotFound, got %v", err)
	}
}

func TestQuestAssignWithInlineDefinitionAndDelete(t *testing.T) {
	gdb := setupServiceTestDB(t)
	user := createTestUser(t, gdb, "inline@example.com")
	quests := NewQuestService(gdb, nil, nil)
	ctx := context.Background()

	uq, created, err := quests.AssignQuest(ctx, user.ID, QuestAssignInput{
		QuestID: "side-quest",
		Quest:   &QuestInput{Label: "Side Quest", RewardGold: 7},
	})
	if err != nil || !created {
		t.Fatalf("AssignQuest: created=%v err=%v", created, err)
	}
	if uq.Quest.ID != "side-quest" || uq.Quest.RewardGold != 7 {
		t.Fatalf("unexpected quest: %+v", uq.Quest)
	}

	if _, _, err := quests.AssignQuest(ctx, user.ID, QuestAssignInput{QuestID: "nope"}); !errors.Is(err, ErrQuestNotFound) {
		t.Fatalf("expected ErrQuestNotFound, got %v", err)
	}

	items, err := quests.ListUserQuests(ctx, user.ID)
	if err != nil || len(items) != 1 || items[0].Quest.Label != "Side Quest" {
		t.Fatalf("unexpected user quests: %+v err=%v", items, err)
	}

	if err := quests.DeleteUserQuest(ctx, user.ID, uq.ID); err != nil {
		t.Fatalf("DeleteUserQuest: %v", err)
	}
	if err := quests.DeleteUserQuest(ctx, user.ID, uq.ID); !errors.Is(err, ErrUserQuestNotFound) {
		t.Fatalf("expected ErrUserQuestNotFound, got %v", err)
	}
}
