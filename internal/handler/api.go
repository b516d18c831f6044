package handler

import (
	"time"

	"github.com/questify/internal/clock"
	"github.com/questify/internal/events"
	"github.com/questify/internal/lock"
	"github.com/questify/internal/logger"
	"github.com/questify/internal/service"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db       *gorm.DB
	users    *service.UserService
	ledger   *service.LedgerService
	tasks    *service.TaskService
	rollover *service.RolloverService
	quests   *service.QuestService
	rewards  *service.RewardService
	shop     *service.ShopService
	logger   *zap.Logger
}

// Options carries the optional infrastructure wired in by main.
// Zero values fall back to in-process defaults.
type Options struct {
	Logger          *zap.Logger
	Publisher       events.Publisher
	Locker          lock.Locker
	Clock           clock.Clock
	Location        *time.Location
	RolloverLockTTL time.Duration
}

// NewAPI constructs a handler set with shared services.
func NewAPI(db *gorm.DB, opts Options) *API {
	log := logger.OrNop(opts.Logger)
	publisher := opts.Publisher
	if publisher == nil {
		publisher = events.Nop{}
	}

	ledger := service.NewLedgerService(db, log)

	return &API{
		db:     db,
		users:  service.NewUserService(db),
		ledger: ledger,
		tasks:  service.NewTaskService(db, ledger, publisher, log),
		rollover: service.NewRolloverService(db, ledger, service.RolloverOptions{
			Locker:    opts.Locker,
			Clock:     opts.Clock,
			Location:  opts.Location,
			LockTTL:   opts.RolloverLockTTL,
			Publisher: publisher,
			Logger:    log,
		}),
		quests:  service.NewQuestService(db, publisher, log),
		rewards: service.NewRewardService(db, ledger, publisher, log),
		shop:    service.NewShopService(db, ledger, publisher, log),
		logger:  log,
	}
}

// DB exposes the underlying gorm instance.
func (a *API) DB() *gorm.DB {
	return a.db
}

// Rollover exposes the rollover engine for the background scheduler.
func (a *API) Rollover() *service.RolloverService {
	return a.rollover
}

// Quests exposes quest definitions for startup seeding.
func (a *API) Quests() *service.QuestService {
	return a.quests
}
