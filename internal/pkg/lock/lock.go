package lock

import (
	"context"
	"sync"
)

// RunLock guards clustering runs. A full run takes the exclusive side and
// incremental attaches take the shared side. Neither side ever blocks: when
// the lock is unavailable ok is false and the caller decides what to do.
type RunLock interface {
	TryLock(ctx context.Context) (release func(), ok bool, err error)
	TryRLock(ctx context.Context) (release func(), ok bool, err error)
}

// Local is a process-wide RunLock.
type Local struct {
	mu sync.RWMutex
}

func NewLocal() *Local {
	return &Local{}
}

func (l *Local) TryLock(ctx context.Context) (func(), bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if !l.mu.TryLock() {
		return nil, false, nil
	}
	return onceFunc(l.mu.Unlock), true, nil
}

func (l *Local) TryRLock(ctx context.Context) (func(), bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if !l.mu.TryRLock() {
		return nil, false, nil
	}
	return onceFunc(l.mu.RUnlock), true, nil
}

func onceFunc(f func()) func() {
	var once sync.Once
	return func() { once.Do(f) }
}
