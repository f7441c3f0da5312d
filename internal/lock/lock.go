// Package lock serializes work per key. Services take a per-mentor lock around
// every operation that writes both a mentor and a student aggregate.
package lock

import (
	"context"
	"sync"
	"time"

	"github.com/getmentor/mentorship-api/pkg/metrics"
)

// UnlockFunc releases a held lock. It is safe to call more than once.
type UnlockFunc func()

// Locker grants exclusive access to a key until the returned UnlockFunc is called
type Locker interface {
	Lock(ctx context.Context, key string) (UnlockFunc, error)
}

// MentorKey is the lock key guarding one mentor's cross-aggregate writes
func MentorKey(mentorID string) string {
	return "mentor:" + mentorID
}

// LocalLocker is an in-process keyed mutex. It is sufficient when a single
// API instance owns the store.
type LocalLocker struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	ch   chan struct{}
	refs int
}

// NewLocalLocker creates an empty keyed mutex
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{slots: make(map[string]*slot)}
}

// Lock blocks until key is free or ctx is done
func (l *LocalLocker) Lock(ctx context.Context, key string) (UnlockFunc, error) {
	start := time.Now()

	l.mu.Lock()
	s, ok := l.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	l.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, s)
		metrics.LockAcquireDuration.WithLabelValues("local", "timeout").Observe(metrics.MeasureDuration(start))
		return nil, ctx.Err()
	}
	metrics.LockAcquireDuration.WithLabelValues("local", "acquired").Observe(metrics.MeasureDuration(start))

	var once sync.Once
	return func() {
		once.Do(func() {
			<-s.ch
			l.release(key, s)
		})
	}, nil
}

func (l *LocalLocker) release(key string, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
}

var _ Locker = (*LocalLocker)(nil)
