package lock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Locker 提供带 TTL 的互斥；ok=false 表示已有持有者
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (release func(), ok bool)
}

// Local 是进程内的 in-flight 标记，同一 key 不允许重入
type Local struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewLocal() *Local {
	return &Local{held: make(map[string]struct{})}
}

func (l *Local) TryLock(_ context.Context, key string, _ time.Duration) (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, busy := l.held[key]; busy {
		return func() {}, false
	}
	l.held[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, key)
			l.mu.Unlock()
		})
	}, true
}

// Held 报告 key 是否被持有
func (l *Local) Held(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, busy := l.held[key]
	return busy
}

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis 使用 SETNX 实现跨实例互斥
type Redis struct {
	rdb    *redis.Client
	prefix string
	logger *zap.Logger
}

func NewRedis(rdb *redis.Client, logger *zap.Logger) *Redis {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Redis{rdb: rdb, prefix: "questify:lock:", logger: logger}
}

// TryLock 尝试获取锁；Redis 不可用时不阻止处理，返回 true
func (r *Redis) TryLock(ctx context.Context, key string, ttl time.Duration) (func(), bool) {
	fullKey := r.prefix + key
	token := uuid.NewString()

	ok, err := r.rdb.SetNX(ctx, fullKey, token, ttl).Result()
	if err != nil {
		r.logger.Warn("redis lock unavailable, proceeding without it",
			zap.String("key", fullKey),
			zap.Error(err),
		)
		return func() {}, true
	}
	if !ok {
		return func() {}, false
	}

	return func() {
		// 使用独立 ctx，调用方 ctx 可能已取消
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, r.rdb, []string{fullKey}, token).Err(); err != nil && err != redis.Nil {
			r.logger.Warn("failed to release redis lock", zap.String("key", fullKey), zap.Error(err))
		}
	}, true
}

// Chain 依次获取多把锁，任一失败即释放已获取的锁
type Chain []Locker

func (c Chain) TryLock(ctx context.Context, key string, ttl time.Duration) (func(), bool) {
	releases := make([]func(), 0, len(c))
	releaseAll := func() {
		for i := len(releases) - 1; i >= 0; i-- {
			releases[i]()
		}
	}
	for _, l := range c {
		if l == nil {
			continue
		}
		release, ok := l.TryLock(ctx, key, ttl)
		if !ok {
			releaseAll()
			return func() {}, false
		}
		releases = append(releases, release)
	}
	return releaseAll, true
}

// NewRedisClient 构造 go-redis 客户端
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}
