package store

import (
	"path/filepath"

	"github.com/gofrs/flock"

	vaulterrors "github.com/pzverkov/zault/internal/errors"
)

// AdvisoryLock guards a vault directory against being opened by more than
// one process at once. Acquired at vault Init, released at Close.
type AdvisoryLock struct {
	fl *flock.Flock
}

// AcquireLock tries to take an exclusive, non-blocking lock on
// dir/.lock, failing with IO if another process already holds it.
func AcquireLock(dir string) (*AdvisoryLock, error) {
	fl := flock.New(filepath.Join(dir, ".lock"))
	ok, err := fl.TryLock()
	if err != nil {
		return nil, vaulterrors.Wrapf("store.AcquireLock", vaulterrors.ErrIO, err)
	}
	if !ok {
		return nil, vaulterrors.New("store.AcquireLock", vaulterrors.ErrIO)
	}
	return &AdvisoryLock{fl: fl}, nil
}

// Release drops the lock.
func (l *AdvisoryLock) Release() error {
	if l == nil || l.fl == nil {
		return nil
	}
	if err := l.fl.Unlock(); err != nil {
		return vaulterrors.Wrapf("store.AdvisoryLock.Release", vaulterrors.ErrIO, err)
	}
	return nil
}
