package vault

import (
	"errors"
	"os"
)

// ErrLocked indicates another process holds the vault open.
var ErrLocked = errors.New("vault: already in use by another process")

// Lock guards a vault file against concurrent sessions. The store has
// no multi-process story; failing fast here keeps that explicit.
type Lock struct {
	file *os.File
}

// LockPath returns the lock file path for a vault file.
func LockPath(vaultPath string) string {
	return vaultPath + ".lock"
}

// Release drops the lock and removes the lock file.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	path := l.file.Name()
	unlock(l.file)
	err := l.file.Close()
	os.Remove(path)
	l.file = nil
	return err
}
