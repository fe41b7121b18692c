// Package captcha 一次性图形验证码：生成、存储、单次校验。
package captcha

import (
	"context"
	"time"
)

// Entry 存的是小写答案和绝对过期时间
type Entry struct {
	Answer    string    `json:"answer"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (e Entry) Expired(now time.Time) bool { return now.After(e.ExpiresAt) }

// Store Take 必须是原子的“取出并删除”，同一个 id 至多一次返回 ok=true
type Store interface {
	Put(ctx context.Context, id string, e Entry) error
	Take(ctx context.Context, id string) (Entry, bool, error)
}
