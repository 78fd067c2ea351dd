// Package lock provides keyed mutual exclusion for operations that must not
// overlap per user, such as checkout.
package lock

import (
	"context"
	"errors"
	"sync"
)

// ErrLocked is returned when the key is already held.
var ErrLocked = errors.New("lock already held")

// Locker hands out non-blocking keyed locks. Acquire fails fast with ErrLocked
// instead of waiting.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// Memory is a process-local Locker.
type Memory struct {
	held sync.Map
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Acquire(_ context.Context, key string) (func(), error) {
	if _, loaded := m.held.LoadOrStore(key, struct{}{}); loaded {
		return nil, ErrLocked
	}
	var once sync.Once
	return func() {
		once.Do(func() { m.held.Delete(key) })
	}, nil
}
