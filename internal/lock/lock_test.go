package lock

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type denyLocker struct{}

func (denyLocker) TryLock(context.Context, string, time.Duration) (func(), bool) {
	return func() {}, false
}

func TestLocalPreventsReentry(t *testing.T) {
	l := NewLocal()
	ctx := context.Background()

	release, ok := l.TryLock(ctx, "rollover:1", time.Minute)
	if !ok {
		t.Fatal("expected first lock to succeed")
	}

	if _, ok := l.TryLock(ctx, "rollover:1", time.Minute); ok {
		t.Fatal("expected second lock on same key to fail")
	}

	if _, ok := l.TryLock(ctx, "rollover:2", time.Minute); !ok {
		t.Fatal("expected lock on other key to succeed")
	}

	release()
	release()

	if l.Held("rollover:1") {
		t.Fatal("expected key to be released")
	}
	if _, ok := l.TryLock(ctx, "rollover:1", time.Minute); !ok {
		t.Fatal("expected lock after release to succeed")
	}
}

func TestChainReleasesOnFailure(t *testing.T) {
	local := NewLocal()
	chain := Chain{local, denyLocker{}}

	if _, ok := chain.TryLock(context.Background(), "k", time.Second); ok {
		t.Fatal("expected chain to fail when a member denies")
	}
	if local.Held("k") {
		t.Fatal("expected earlier lock to be released")
	}
}

func TestRedisFailsOpenWhenUnreachable(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { rdb.Close() })

	core, logs := observer.New(zap.WarnLevel)
	l := NewRedis(rdb, zap.New(core))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	release, ok := l.TryLock(ctx, "rollover:1", time.Minute)
	if !ok {
		t.Fatal("unreachable redis must not block processing")
	}
	release()

	if logs.FilterMessage("redis lock unavailable, proceeding without it").Len() != 1 {
		t.Fatalf("expected one warning, got %v", logs.All())
	}

	// 与本地锁组合时仍由本地锁负责互斥
	chain := Chain{NewLocal(), l}
	release, ok = chain.TryLock(ctx, "rollover:2", time.Minute)
	if !ok {
		t.Fatal("chain should acquire with redis down")
	}
	defer release()
}

func TestNewRedisClientUsesOptions(t *testing.T) {
	rdb := NewRedisClient("cache:6379", "secret", 3)
	t.Cleanup(func() { rdb.Close() })

	opts := rdb.Options()
	if opts.Addr != "cache:6379" || opts.Password != "secret" || opts.DB != 3 {
		t.Fatalf("unexpected options: %+v", opts)
	}
}
