// Package transaction serializes installs and keeps a journal of install
// attempts, so a crashed or failed install is visible and is never mistaken
// for a successful one.
package transaction

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	// StaleLockThreshold is the maximum age of a lock before it's considered stale.
	StaleLockThreshold = 10 * time.Minute
)

var (
	ErrLockExists = errors.New("install lock exists: another install may be in progress")
)

// Lock represents an exclusive install lock for one package name.
type Lock struct {
	path string
	file *os.File
}

// AcquireLock attempts to acquire an exclusive lock for installing the
// named package. Uses O_CREATE|O_EXCL for atomic lock creation. A lock
// older than StaleLockThreshold is assumed to belong to a dead process
// and is taken over.
func AcquireLock(dir, name string) (*Lock, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	lockPath := filepath.Join(dir, name+".lock")

	file, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0600)
	if err != nil {
		if os.IsExist(err) {
			if isStale, _ := isLockStale(lockPath); isStale {
				// Remove stale lock and retry once
				os.Remove(lockPath)
				file, err = os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0600)
				if err != nil {
					return nil, ErrLockExists
				}
			} else {
				return nil, ErrLockExists
			}
		} else {
			return nil, fmt.Errorf("create lock file: %w", err)
		}
	}

	// Write lock metadata (PID and timestamp) for stale detection and
	// operator debugging.
	lockData := fmt.Sprintf("pid=%d\ntimestamp=%s\n", os.Getpid(), time.Now().UTC().Format(time.RFC3339))
	if _, err := file.WriteString(lockData); err != nil {
		file.Close()
		os.Remove(lockPath)
		return nil, fmt.Errorf("write lock data: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(lockPath)
		return nil, fmt.Errorf("sync lock file: %w", err)
	}

	return &Lock{path: lockPath, file: file}, nil
}

// Release releases the lock and removes the lock file.
func (l *Lock) Release() error {
	if l.file != nil {
		l.file.Close()
		l.file = nil
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove lock file: %w", err)
	}
	return nil
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.path
}

// isLockStale reports whether the lock file at path is older than
// StaleLockThreshold. The timestamp written into the file is preferred;
// file modification time is the fallback for unreadable lock data.
func isLockStale(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		for _, line := range strings.Split(string(data), "\n") {
			if ts, ok := strings.CutPrefix(line, "timestamp="); ok {
				when, err := time.Parse(time.RFC3339, strings.TrimSpace(ts))
				if err == nil {
					return time.Since(when) > StaleLockThreshold, nil
				}
			}
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	return time.Since(info.ModTime()) > StaleLockThreshold, nil
}
