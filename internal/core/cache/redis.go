package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const pingTimeout = 5 * time.Second

// Connect 建连并 ping 一次
func Connect(ctx context.Context, addr, pass string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db})
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// Cache RDB 为 nil 时只做 singleflight 合并，不落缓存
type Cache struct {
	RDB *redis.Client
	sf  singleflight.Group

	mu    sync.Mutex
	local map[string]int64 // RDB 为 nil 时的进程内版本号
}

func New(rdb *redis.Client) *Cache {
	return &Cache{RDB: rdb, local: map[string]int64{}}
}

func genKey(ns string) string { return ns + ":gen" }

// VersionedKey 数据键带上版本号；Bump 之后旧版本的键不再被读取
func VersionedKey(ns string, v int64) string { return fmt.Sprintf("%s:v%d", ns, v) }

// Version 读取 ns 的当前版本；Redis 出错时 ok=false，调用方应绕过缓存
func (c *Cache) Version(ctx context.Context, ns string) (int64, bool) {
	if c.RDB == nil {
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.local[ns], true
	}
	v, err := c.RDB.Get(ctx, genKey(ns)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, true
	}
	if err != nil {
		return 0, false
	}
	return v, true
}

// Bump 使 ns 下已缓存和正在回源的结果全部作废
func (c *Cache) Bump(ctx context.Context, ns string) error {
	if c.RDB == nil {
		c.mu.Lock()
		if c.local == nil {
			c.local = map[string]int64{}
		}
		c.local[ns]++
		c.mu.Unlock()
		return nil
	}
	return c.RDB.Incr(ctx, genKey(ns)).Err()
}

func (c *Cache) GetOrLoad(ctx context.Context, key string, ttl time.Duration, load func(context.Context) ([]byte, error)) ([]byte, error) {
	cacheable := c.RDB != nil && ttl > 0
	// 先读缓存
	if cacheable {
		if b, err := c.RDB.Get(ctx, key).Bytes(); err == nil {
			return b, nil
		}
	}
	// single flight 合并回源；共享的加载不跟随某一个请求取消
	shared := context.WithoutCancel(ctx)
	v, err, _ := c.sf.Do(key, func() (any, error) {
		b, e := load(shared)
		if e != nil {
			return nil, e
		}
		if cacheable {
			_ = c.RDB.Set(shared, key, b, ttl).Err()
		}
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Delete 写操作后失效
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if c.RDB == nil || len(keys) == 0 {
		return nil
	}
	return c.RDB.Del(ctx, keys...).Err()
}
