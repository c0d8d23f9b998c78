package lock

import (
	"context"
	"sync"
)

// KeyedMutex serializes holders of the same key inside one process. Slots
// are created on demand and dropped once nobody holds or waits for them.
type KeyedMutex struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	token chan struct{}
	refs  int
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{slots: map[string]*slot{}}
}

func (m *KeyedMutex) Lock(ctx context.Context, key string) (func(), error) {
	m.mu.Lock()
	s, ok := m.slots[key]
	if !ok {
		s = &slot{token: make(chan struct{}, 1)}
		m.slots[key] = s
	}
	s.refs++
	m.mu.Unlock()

	select {
	case s.token <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-s.token
				m.release(key, s)
			})
		}, nil
	case <-ctx.Done():
		m.release(key, s)
		return nil, ctx.Err()
	}
}

func (m *KeyedMutex) release(key string, s *slot) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s.refs--
	if s.refs == 0 {
		delete(m.slots, key)
	}
}
