package captcha

import (
	"context"
	"sync"
	"time"
)

// MemoryStore 进程内存储，重启即失效
type MemoryStore struct {
	m    sync.Map // id -> Entry
	now  func() time.Time
	stop chan struct{}
	once sync.Once
}

// NewMemoryStore sweep>0 时启动后台清理过期 id
func NewMemoryStore(sweep time.Duration) *MemoryStore {
	s := &MemoryStore{now: time.Now, stop: make(chan struct{})}
	if sweep > 0 {
		go s.janitor(sweep)
	}
	return s
}

func (s *MemoryStore) Put(_ context.Context, id string, e Entry) error {
	s.m.Store(id, e)
	return nil
}

func (s *MemoryStore) Take(_ context.Context, id string) (Entry, bool, error) {
	v, ok := s.m.LoadAndDelete(id)
	if !ok {
		return Entry{}, false, nil
	}
	return v.(Entry), true, nil
}

// Len 仅测试/排障用
func (s *MemoryStore) Len() int {
	n := 0
	s.m.Range(func(_, _ any) bool { n++; return true })
	return n
}

func (s *MemoryStore) Stop() { s.once.Do(func() { close(s.stop) }) }

func (s *MemoryStore) janitor(every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-t.C:
			s.sweep()
		}
	}
}

func (s *MemoryStore) sweep() {
	now := s.now()
	s.m.Range(func(k, v any) bool {
		if v.(Entry).Expired(now) {
			// 只删仍是同一条的记录，避免和 Take 抢
			s.m.CompareAndDelete(k, v)
		}
		return true
	})
}
