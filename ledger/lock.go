package ledger

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// PathLock is an exclusive cross-process lock scoped to one ledger path,
// held for the duration of a load-merge-save cycle. It is backed by flock
// on a sidecar lock file next to the ledger.
type PathLock struct {
	file *os.File
}

// AcquireLock takes the exclusive lock for the given ledger path, blocking
// until any other holder releases it.
func AcquireLock(path string) (*PathLock, error) {
	file, err := os.OpenFile(path+".lock", os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}
	if err := unix.Flock(int(file.Fd()), unix.LOCK_EX); err != nil {
		file.Close()
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}
	return &PathLock{file: file}, nil
}

// Release drops the lock. Safe to call once per acquired lock.
func (l *PathLock) Release() error {
	if l.file == nil {
		return nil
	}
	err := unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
	closeErr := l.file.Close()
	l.file = nil
	if err != nil {
		return fmt.Errorf("unlock: %w", err)
	}
	return closeErr
}
