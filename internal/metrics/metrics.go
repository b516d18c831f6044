package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP 请求延迟
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "questify_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	// 经济变动计数
	LedgerDeltaCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "questify_ledger_delta_total",
			Help: "Total number of economy deltas applied",
		},
		[]string{"reason"}, // reason: task_complete, task_revoke, rollover_penalty, pomodoro, reward_claim, shop, manual
	)

	// 任务勾选计数
	TaskToggleCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "questify_task_toggle_total",
			Help: "Total number of task completion toggles",
		},
		[]string{"direction"}, // direction: complete, revoke
	)

	// 每日结算计数
	RolloverRunCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "questify_rollover_run_total",
			Help: "Total number of rollover attempts per user",
		},
		[]string{"outcome"}, // outcome: applied, skipped, busy, failed
	)

	RolloverPenaltyCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "questify_rollover_penalty_total",
			Help: "Total number of missed daily tasks penalized",
		},
	)

	QuestCompletedCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "questify_quest_completed_total",
			Help: "Total number of quests completed",
		},
	)

	RewardClaimedCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "questify_reward_claimed_total",
			Help: "Total number of pending rewards claimed",
		},
	)

	ShopPurchaseCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "questify_shop_purchase_total",
			Help: "Total number of guild shop purchases",
		},
		[]string{"source"}, // source: shop, custom
	)
)

// RecordHTTPRequestDuration 记录 HTTP 请求延迟
func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// IncrementLedgerDelta 增加经济变动计数
func IncrementLedgerDelta(reason string) {
	LedgerDeltaCount.WithLabelValues(reason).Inc()
}

// IncrementTaskToggle 增加任务勾选计数
func IncrementTaskToggle(direction string) {
	TaskToggleCount.WithLabelValues(direction).Inc()
}

// IncrementRolloverRun 增加每日结算计数
func IncrementRolloverRun(outcome string) {
	RolloverRunCount.WithLabelValues(outcome).Inc()
}

// AddRolloverPenalties 累加被惩罚的每日任务数
func AddRolloverPenalties(n int) {
	if n > 0 {
		RolloverPenaltyCount.Add(float64(n))
	}
}

// IncrementQuestCompleted 增加任务完成计数
func IncrementQuestCompleted() {
	QuestCompletedCount.Inc()
}

// IncrementRewardClaimed 增加奖励领取计数
func IncrementRewardClaimed(n int) {
	if n > 0 {
		RewardClaimedCount.Add(float64(n))
	}
}

// IncrementShopPurchase 增加商店购买计数
func IncrementShopPurchase(source string) {
	ShopPurchaseCount.WithLabelValues(source).Inc()
}
