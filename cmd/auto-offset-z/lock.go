package main

import (
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// fileLock is an exclusive advisory lock on a lockfile. A second instance
// pointed at the same printer would fight over the gcode offset.
type fileLock struct {
	f *os.File
}

// acquireLock takes the lock without blocking; a held lock is an error.
func acquireLock(path string) (*fileLock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open lockfile %s", path)
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "another instance holds %s", path)
	}
	return &fileLock{f: f}, nil
}

// Release drops the lock and closes the lockfile.
func (l *fileLock) Release() error {
	if err := unix.Flock(int(l.f.Fd()), unix.LOCK_UN); err != nil {
		l.f.Close()
		return errors.Wrap(err, "unable to release lockfile")
	}
	return l.f.Close()
}
