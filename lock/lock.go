// Package lock serializes read-modify-write cycles on a dataset.
//
// Every mutation of a dataset loads the property snapshot, changes it and
// writes it back. Two writers interleaving these steps would lose an update,
// so a Dataset holds a Locker for the whole cycle. Mutex covers one process,
// File covers processes on one host, and the DynamoDB lease in blobstore/s3
// covers workers sharing a bucket.
package lock

import (
	"context"
	"errors"
)

var (
	// ErrNotLocked is returned when unlocking a lock that is not held.
	ErrNotLocked = errors.New("lock: not locked")

	// ErrLockLost is returned by Verify and Unlock when a lease expired and
	// was taken over by another holder.
	ErrLockLost = errors.New("lock: lease lost")
)

// Locker is a context-aware mutual exclusion lock.
type Locker interface {
	// Lock blocks until the lock is held or ctx is done.
	Lock(ctx context.Context) error
	// Unlock releases the lock.
	Unlock(ctx context.Context) error
}

// Verifier is implemented by lockers whose hold can lapse, such as leases.
type Verifier interface {
	// Verify confirms the lock is still held and extends it if it is a
	// lease. It returns ErrLockLost when the hold lapsed.
	Verify(ctx context.Context) error
}

// Verify checks a held lock before a write that must not race another
// holder. Lockers that cannot lapse always pass.
func Verify(ctx context.Context, l Locker) error {
	if v, ok := l.(Verifier); ok {
		return v.Verify(ctx)
	}
	return nil
}

// Mutex is an in-process Locker. The zero value is not usable; use NewMutex.
type Mutex struct {
	ch chan struct{}
}

// NewMutex creates an unlocked Mutex.
func NewMutex() *Mutex {
	return &Mutex{ch: make(chan struct{}, 1)}
}

// Lock implements Locker.
func (m *Mutex) Lock(ctx context.Context) error {
	select {
	case m.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryLock acquires the lock if it is free.
func (m *Mutex) TryLock() bool {
	select {
	case m.ch <- struct{}{}:
		return true
	default:
		return false
	}
}

// Unlock implements Locker.
func (m *Mutex) Unlock(context.Context) error {
	select {
	case <-m.ch:
		return nil
	default:
		return ErrNotLocked
	}
}

// With runs fn while holding l.
func With(ctx context.Context, l Locker, fn func() error) (err error) {
	if err := l.Lock(ctx); err != nil {
		return err
	}
	defer func() {
		// Release even when ctx is already canceled.
		if uerr := l.Unlock(context.WithoutCancel(ctx)); uerr != nil && err == nil {
			err = uerr
		}
	}()
	return fn()
}
