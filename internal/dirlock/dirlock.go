// Package dirlock implements the advisory per-directory lock that keeps
// two Database instances from sharing a directory. It's built on
// golang.org/x/sys/unix.Flock, applied here to a single reserved lock
// file instead of a data file.
package dirlock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// ErrInUse is returned by Acquire when another process already holds the
// lock for this directory.
var ErrInUse = errors.New("dirlock: directory is already in use")

// Lock represents an acquired advisory lock on <dir>/flock.
type Lock struct {
	f *os.File
}

// Acquire opens (creating if necessary) <dir>/<name> and takes a
// non-blocking exclusive flock on it. The file itself is left on disk
// after Release; its mere presence is not a signal of anything — only
// the kernel-held lock matters.
func Acquire(dir, name string) (*Lock, error) {
	path := filepath.Join(dir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("dirlock: open %s: %w", path, err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, ErrInUse
		}
		return nil, fmt.Errorf("dirlock: flock %s: %w", path, err)
	}

	return &Lock{f: f}, nil
}

// Release unlocks and closes the lock file. Safe to call from a deferred
// recover-wrapped cleanup so a panic mid-Open still releases the lock.
func (l *Lock) Release() error {
	if l == nil || l.f == nil {
		return nil
	}
	err := unix.Flock(int(l.f.Fd()), unix.LOCK_UN)
	if cerr := l.f.Close(); err == nil {
		err = cerr
	}
	l.f = nil
	return err
}
