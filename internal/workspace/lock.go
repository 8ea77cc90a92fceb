package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"syscall"
)

const lockFileName = ".rejig.lock"

// Lock is an exclusive hold on a workspace directory. It keeps two
// apply runs from interleaving their writes in the same tree.
type Lock struct {
	file     *os.File
	lockPath string
	once     sync.Once
}

// AcquireLock takes a non-blocking flock on the workspace root. A
// second acquisition fails immediately instead of waiting.
func AcquireLock(root string) (*Lock, error) {
	lockPath := filepath.Join(root, lockFileName)

	file, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("create lock file: %w", err)
	}
	if err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		file.Close()
		return nil, fmt.Errorf("workspace %q is already in use by another rejig process", root)
	}

	// The PID makes a stale lock easy to diagnose.
	file.Truncate(0)
	file.Seek(0, 0)
	fmt.Fprintf(file, "%d\n", os.Getpid())

	return &Lock{file: file, lockPath: lockPath}, nil
}

// Release drops the lock and removes the lock file. Safe to call more
// than once.
func (l *Lock) Release() {
	l.once.Do(func() {
		if l.file == nil {
			return
		}
		syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN)
		l.file.Close()
		os.Remove(l.lockPath)
		l.file = nil
	})
}
