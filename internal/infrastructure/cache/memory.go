package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryLocker is the in-process fallback used when Redis is not
// configured. Locks expire by TTL like their Redis counterparts.
type MemoryLocker struct {
	mu       sync.Mutex
	locks    map[string]time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

// NewMemoryLocker creates a new in-memory locker
func NewMemoryLocker() *MemoryLocker {
	locker := &MemoryLocker{
		locks: make(map[string]time.Time),
		stop:  make(chan struct{}),
	}

	// Start cleanup goroutine to remove expired locks
	go locker.cleanupExpired()

	return locker
}

// Stop terminates the cleanup goroutine. Safe to call more than once.
func (m *MemoryLocker) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
}

func (m *MemoryLocker) Acquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if expiry, held := m.locks[key]; held && time.Now().Before(expiry) {
		return false, nil
	}

	m.locks[key] = time.Now().Add(ttl)
	return true, nil
}

func (m *MemoryLocker) Release(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.locks, key)
	return nil
}

// cleanupExpired periodically removes expired locks
func (m *MemoryLocker) cleanupExpired() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.mu.Lock()
			now := time.Now()
			for key, expiry := range m.locks {
				if now.After(expiry) {
					delete(m.locks, key)
				}
			}
			m.mu.Unlock()
		}
	}
}
