package lock

import (
	"context"
	"os"
	"path/filepath"
	"time"
)

const defaultPollInterval = 50 * time.Millisecond

// File is a Locker backed by an advisory lock on a file. It excludes other
// processes on the same host; goroutines of one process are serialized by an
// embedded Mutex first.
type File struct {
	path string
	poll time.Duration
	mu   *Mutex
	f    *os.File
}

// NewFile creates a file lock at path. The file is created on first Lock and
// never removed.
func NewFile(path string) *File {
	return &File{
		path: path,
		poll: defaultPollInterval,
		mu:   NewMutex(),
	}
}

// Path returns the lock file path.
func (l *File) Path() string {
	return l.path
}

// Lock implements Locker.
func (l *File) Lock(ctx context.Context) error {
	if err := l.mu.Lock(ctx); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		_ = l.mu.Unlock(ctx)
		return err
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		_ = l.mu.Unlock(ctx)
		return err
	}

	ticker := time.NewTicker(l.poll)
	defer ticker.Stop()

	for {
		ok, err := tryLockFile(f)
		if err != nil {
			_ = f.Close()
			_ = l.mu.Unlock(ctx)
			return err
		}
		if ok {
			l.f = f
			return nil
		}

		select {
		case <-ctx.Done():
			_ = f.Close()
			_ = l.mu.Unlock(ctx)
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Unlock implements Locker.
func (l *File) Unlock(ctx context.Context) error {
	if l.f == nil {
		return ErrNotLocked
	}

	f := l.f
	l.f = nil

	err := unlockFile(f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if uerr := l.mu.Unlock(ctx); err == nil {
		err = uerr
	}
	return err
}
