package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/questify/internal/clock"
	"github.com/questify/internal/db"
	"github.com/questify/internal/economy"
	"github.com/questify/internal/events"
	"github.com/questify/internal/lock"
	"gorm.io/gorm"
)

type rolloverFixture struct {
	gdb      *gorm.DB
	tasks    *TaskService
	ledger   *LedgerService
	rollover *RolloverService
	clock    *clock.Fake
	locker   *lock.Local
	recorder *events.Recorder
	userID   uint
}

func newRolloverFixture(t *testing.T) *rolloverFixture {
	t.Helper()
	gdb := setupServiceTestDB(t)
	user := createTestUser(t, gdb, "rollover@example.com")
	ledger := NewLedgerService(gdb, nil)
	fake := clock.NewFake(time.Date(2024, 3, 10, 23, 30, 0, 0, time.UTC))
	locker := lock.NewLocal()
	recorder := &events.Recorder{}

	return &rolloverFixture{
		gdb:    gdb,
		tasks:  NewTaskService(gdb, ledger, nil, nil),
		ledger: ledger,
		rollover: NewRolloverService(gdb, ledger, RolloverOptions{
			Locker:    locker,
			Clock:     fake,
			Location:  time.UTC,
			Publisher: recorder,
		}),
		clock:    fake,
		locker:   locker,
		recorder: recorder,
		userID:   user.ID,
	}
}

func TestRolloverPenalizesMissedDailyAcrossDayBoundary(t *testing.T) {
	f := newRolloverFixture(t)
	ctx := context.Background()

	first, err := f.rollover.Run(ctx, f.userID)
	if err != nil {
		t.Fatalf("initial Run: %v", err)
	}
	if first.Outcome != RolloverApplied || first.Date != "2024-03-10" {
		t.Fatalf("unexpected initial result: %+v", first)
	}

	setGold(t, f.gdb, f.userID, 50)
	if err := f.gdb.Model(&db.User{}).Where("id = ?", f.userID).Updates(map[string]any{"xp": 30, "strength": 2}).Error; err != nil {
		t.Fatalf("seed economy: %v", err)
	}

	workout, err := f.tasks.Create(ctx, f.userID, TaskInput{Title: "AM workout", Type: "Daily", Category: "STR", Difficulty: "Medium"})
	if err != nil {
		t.Fatalf("Create daily: %v", err)
	}
	stretch, err := f.tasks.Create(ctx, f.userID, TaskInput{Title: "Stretch", Type: "Daily", Category: "DEX", Difficulty: "Easy", Done: true})
	if err != nil {
		t.Fatalf("Create done daily: %v", err)
	}
	todo, err := f.tasks.Create(ctx, f.userID, TaskInput{Title: "Taxes", Type: "To-Do", Done: true})
	if err != nil {
		t.Fatalf("Create todo: %v", err)
	}

	f.clock.Advance(time.Hour)

	result, err := f.rollover.Run(ctx, f.userID)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Outcome != RolloverApplied || result.Date != "2024-03-11" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(result.Penalized) != 1 || result.Penalized[0] != workout.ID {
		t.Fatalf("expected only the workout to be penalized, got %v", result.Penalized)
	}
	wantPenalty := economy.Delta{Gold: -5, XP: -5, Strength: -1}
	if result.Penalty != wantPenalty {
		t.Fatalf("expected penalty %+v, got %+v", wantPenalty, result.Penalty)
	}

	view, err := f.ledger.GetEconomy(ctx, f.userID)
	if err != nil {
		t.Fatalf("GetEconomy: %v", err)
	}
	if view.Record.Gold != 45 || view.Record.XP != 25 || view.Record.Strength != 1 {
		t.Fatalf("unexpected record after penalty: %+v", view.Record)
	}
	if view.LastRollover != "2024-03-11" {
		t.Fatalf("expected watermark advanced, got %q", view.LastRollover)
	}

	for _, id := range []string{workout.ID, stretch.ID} {
		task, err := f.tasks.Get(ctx, f.userID, id)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if task.Done {
			t.Fatalf("expected daily %s reset", id)
		}
	}
	untouched, err := f.tasks.Get(ctx, f.userID, todo.ID)
	if err != nil {
		t.Fatalf("Get todo: %v", err)
	}
	if !untouched.Done {
		t.Fatal("expected non-daily task untouched")
	}

	if f.recorder.Count(events.RolloverCompleted) != 2 {
		t.Fatalf("expected two rollover events, got %d", f.recorder.Count(events.RolloverCompleted))
	}
}

func TestRolloverPenaltyKeepsEarnedLevel(t *testing.T) {
	f := newRolloverFixture(t)
	ctx := context.Background()

	if _, err := f.rollover.Run(ctx, f.userID); err != nil {
		t.Fatalf("initial Run: %v", err)
	}
	if _, err := f.ledger.ApplyDelta(ctx, f.userID, economy.Delta{XP: economy.BaseXPMax}, DeltaOptions{}); err != nil {
		t.Fatalf("ApplyDelta: %v", err)
	}
	if _, err := f.tasks.Create(ctx, f.userID, TaskInput{Title: "AM workout", Type: "Daily", Category: "STR", Difficulty: "Medium"}); err != nil {
		t.Fatalf("Create daily: %v", err)
	}

	f.clock.Advance(time.Hour)
	result, err := f.rollover.Run(ctx, f.userID)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Outcome != RolloverApplied || len(result.Penalized) != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}

	view, err := f.ledger.GetEconomy(ctx, f.userID)
	if err != nil {
		t.Fatalf("GetEconomy: %v", err)
	}
	want := economy.Progress{Level: 2, XP: 0, XPMax: 140}
	if view.Progress != want {
		t.Fatalf("expected %+v after penalty, got %+v", want, view.Progress)
	}
	if view.Record.Level != 2 || view.Record.XP != 0 || view.Record.XPMax != 140 {
		t.Fatalf("expected stored level to stay, got %+v", view.Record)
	}
}

func TestRolloverSecondRunSameDayIsNoop(t *testing.T) {
	f := newRolloverFixture(t)
	ctx := context.Background()

	if _, err := f.tasks.Create(ctx, f.userID, TaskInput{Title: "Meditate", Type: "Daily", Category: "WIS", Difficulty: "Trivial"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	setGold(t, f.gdb, f.userID, 10)

	if _, err := f.rollover.Run(ctx, f.userID); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	afterFirst, _ := f.ledger.GetEconomy(ctx, f.userID)

	second, err := f.rollover.Run(ctx, f.userID)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if second.Outcome != RolloverSkipped {
		t.Fatalf("expected skipped, got %s", second.Outcome)
	}
	afterSecond, _ := f.ledger.GetEconomy(ctx, f.userID)
	if afterFirst.Record != afterSecond.Record {
		t.Fatalf("expected no change: %+v vs %+v", afterFirst.Record, afterSecond.Record)
	}
}

func TestRolloverBusyWhenInFlight(t *testing.T) {
	f := newRolloverFixture(t)
	ctx := context.Background()

	release, ok := f.locker.TryLock(ctx, fmt.Sprintf("rollover:%d", f.userID), time.Minute)
	if !ok {
		t.Fatal("expected to acquire lock")
	}
	defer release()

	result, err := f.rollover.Run(ctx, f.userID)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Outcome != RolloverBusy {
		t.Fatalf("expected busy, got %s", result.Outcome)
	}

	view, _ := f.ledger.GetEconomy(ctx, f.userID)
	if view.LastRollover != "" {
		t.Fatalf("expected watermark untouched, got %q", view.LastRollover)
	}
}

func TestRolloverRunAllAndUnknownUser(t *testing.T) {
	f := newRolloverFixture(t)
	ctx := context.Background()
	createTestUser(t, f.gdb, "second@example.com")

	summary, err := f.rollover.RunAll(ctx)
	if err != nil {
		t.Fatalf("RunAll: %v", err)
	}
	if summary.Applied != 2 || summary.Failed != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	summary, err = f.rollover.RunAll(ctx)
	if err != nil {
		t.Fatalf("RunAll: %v", err)
	}
	if summary.Applied != 0 {
		t.Fatalf("expected nothing to apply on same day, got %+v", summary)
	}

	if _, err := f.rollover.AdvanceWatermark(ctx, 999); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
