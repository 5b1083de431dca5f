// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package runlock guarantees at most one moderator process per game
// directory.
//
// The lock is an exclusive, non-blocking flock(2) on
// <game_dir>/.godfather.lock. The kernel drops it when the holder
// exits for any reason, so a crashed moderator never leaves a stale
// lock behind. The lock file itself is never removed; it records the
// holder's PID for diagnostics.
package runlock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sys/unix"
)

// FileName is the lock file's name inside the game directory.
const FileName = ".godfather.lock"

// ErrContention is returned by Acquire when another process holds the
// lock.
var ErrContention = errors.New("game directory is locked by another process")

// Lock is a held run lock.
type Lock struct {
	path    string
	file    *os.File
	release sync.Once
	err     error
}

// Acquire takes the lock for directory without blocking. On contention
// it returns an error wrapping ErrContention and changes nothing on
// disk.
func Acquire(directory string) (*Lock, error) {
	path := filepath.Join(directory, FileName)
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening lock file: %w", err)
	}

	if err := unix.Flock(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		holder := readHolder(file)
		file.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			if holder != "" {
				return nil, fmt.Errorf("%w (pid %s holds %s)", ErrContention, holder, path)
			}
			return nil, fmt.Errorf("%w (%s)", ErrContention, path)
		}
		return nil, fmt.Errorf("locking %s: %w", path, err)
	}

	if err := recordHolder(file); err != nil {
		unix.Flock(int(file.Fd()), unix.LOCK_UN)
		file.Close()
		return nil, fmt.Errorf("recording pid in %s: %w", path, err)
	}

	return &Lock{path: path, file: file}, nil
}

// Path returns the lock file's path.
func (l *Lock) Path() string {
	return l.path
}

// Release drops the lock. It is idempotent and safe to defer.
func (l *Lock) Release() error {
	l.release.Do(func() {
		if err := unix.Flock(int(l.file.Fd()), unix.LOCK_UN); err != nil {
			l.err = fmt.Errorf("unlocking %s: %w", l.path, err)
		}
		if err := l.file.Close(); err != nil && l.err == nil {
			l.err = fmt.Errorf("closing %s: %w", l.path, err)
		}
	})
	return l.err
}

func recordHolder(file *os.File) error {
	if err := file.Truncate(0); err != nil {
		return err
	}
	_, err := file.WriteAt([]byte(strconv.Itoa(os.Getpid())+"\n"), 0)
	return err
}

func readHolder(file *os.File) string {
	buffer := make([]byte, 32)
	n, _ := file.ReadAt(buffer, 0)
	return strings.TrimSpace(string(buffer[:n]))
}
