package memory

import (
	"context"
	"sync"
	"time"

	"github.com/alxtravel/server/internal/port/outbound"
)

var _ outbound.LockerPort = (*Locker)(nil)

// Locker is a process-local LockerPort for single-instance deployments and tests.
type Locker struct {
	mu    sync.Mutex
	locks map[string]lockEntry
	seq   uint64
	now   func() time.Time
}

type lockEntry struct {
	token     uint64
	expiresAt time.Time
}

// NewLocker creates an in-memory locker.
func NewLocker() *Locker {
	return &Locker{
		locks: make(map[string]lockEntry),
		now:   time.Now,
	}
}

// Acquire takes the named lock unless a live holder owns it.
func (l *Locker) Acquire(_ context.Context, key string, ttl time.Duration) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if entry, ok := l.locks[key]; ok && now.Before(entry.expiresAt) {
		return nil, false, nil
	}

	l.seq++
	token := l.seq
	l.locks[key] = lockEntry{token: token, expiresAt: now.Add(ttl)}

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if entry, ok := l.locks[key]; ok && entry.token == token {
			delete(l.locks, key)
		}
	}, true, nil
}
