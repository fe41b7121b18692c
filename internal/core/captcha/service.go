package captcha

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Challenge 返回给客户端的题面
type Challenge struct {
	ID        string    `json:"id"`
	Data      string    `json:"data"`
	ExpiresAt time.Time `json:"-"`
}

type Service struct {
	Store Store
	Gen   Generator
	TTL   time.Duration
	Log   *zap.Logger
	Now   func() time.Time
}

func NewService(store Store, gen Generator, ttl time.Duration, log *zap.Logger) *Service {
	if ttl <= 0 {
		ttl = 120 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{Store: store, Gen: gen, TTL: ttl, Log: log, Now: time.Now}
}

func (s *Service) Generate(ctx context.Context) (*Challenge, error) {
	answer, data, err := s.Gen.Generate()
	if err != nil {
		return nil, err
	}
	c := &Challenge{
		ID:        uuid.NewString(),
		Data:      data,
		ExpiresAt: s.Now().Add(s.TTL),
	}
	if err := s.Store.Put(ctx, c.ID, Entry{Answer: strings.ToLower(answer), ExpiresAt: c.ExpiresAt}); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate 无论结果如何都会消费掉该 id
func (s *Service) Validate(ctx context.Context, id, guess string) bool {
	if id == "" {
		return false
	}
	e, ok, err := s.Store.Take(ctx, id)
	if err != nil {
		s.Log.Warn("captcha store", zap.String("id", id), zap.Error(err))
		return false
	}
	if !ok || e.Expired(s.Now()) {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(guess), e.Answer)
}
