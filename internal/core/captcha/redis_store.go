package captcha

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "captcha:"

// RedisStore 多实例部署时共享验证码；GETDEL 保证只消费一次
type RedisStore struct {
	rdb *redis.Client
	now func() time.Time
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb, now: time.Now}
}

func (s *RedisStore) Put(ctx context.Context, id string, e Entry) error {
	ttl := e.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, redisKeyPrefix+id, b, ttl).Err(); err != nil {
		return fmt.Errorf("captcha put: %w", err)
	}
	return nil
}

func (s *RedisStore) Take(ctx context.Context, id string) (Entry, bool, error) {
	b, err := s.rdb.GetDel(ctx, redisKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("captcha take: %w", err)
	}
	var e Entry
	if err := json.Unmarshal(b, &e); err != nil {
		return Entry{}, false, fmt.Errorf("captcha decode: %w", err)
	}
	return e, true, nil
}
