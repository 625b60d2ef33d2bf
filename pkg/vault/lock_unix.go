//go:build !windows

package vault

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Acquire takes an exclusive advisory lock on the vault's lock file.
// Returns ErrLocked when another process already holds it.
func Acquire(vaultPath string) (*Lock, error) {
	f, err := os.OpenFile(LockPath(vaultPath), os.O_CREATE|os.O_RDWR, FileMode)
	if err != nil {
		return nil, fmt.Errorf("vault: failed to open lock file: %w", err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		if err == unix.EWOULDBLOCK {
			return nil, ErrLocked
		}
		return nil, fmt.Errorf("vault: failed to lock: %w", err)
	}

	return &Lock{file: f}, nil
}

func unlock(f *os.File) {
	unix.Flock(int(f.Fd()), unix.LOCK_UN)
}
