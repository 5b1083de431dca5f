// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package atomicfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// File is a pending replacement of a destination path. Write to it,
// then call Commit to publish or Abort to discard. Abort after Commit
// is a no-op, so `defer file.Abort()` is always safe.
type File struct {
	*os.File
	destination string
	permission  os.FileMode
	done        bool
}

// Create starts a replacement of path. The temporary file lives next
// to path so the final rename never crosses filesystems.
func Create(path string, permission os.FileMode) (*File, error) {
	temporary, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("creating temporary file for %s: %w", path, err)
	}
	return &File{File: temporary, destination: path, permission: permission}, nil
}

// Commit syncs the temporary file and renames it over the destination.
func (f *File) Commit() error {
	if f.done {
		return errors.New("atomicfile: commit after commit or abort")
	}
	f.done = true
	temporaryPath := f.Name()

	if err := f.Chmod(f.permission); err != nil {
		f.File.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("setting permissions on %s: %w", temporaryPath, err)
	}
	if err := f.Sync(); err != nil {
		f.File.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("syncing %s: %w", temporaryPath, err)
	}
	if err := f.File.Close(); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("closing %s: %w", temporaryPath, err)
	}
	if err := os.Rename(temporaryPath, f.destination); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("renaming %s into place: %w", f.destination, err)
	}
	return syncDirectory(filepath.Dir(f.destination))
}

// Abort discards the replacement.
func (f *File) Abort() {
	if f.done {
		return
	}
	f.done = true
	f.File.Close()
	os.Remove(f.Name())
}

// WriteFile atomically replaces path with data.
func WriteFile(path string, data []byte, permission os.FileMode) error {
	file, err := Create(path, permission)
	if err != nil {
		return err
	}
	defer file.Abort()

	if _, err := file.Write(data); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return file.Commit()
}

func syncDirectory(path string) error {
	directory, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s for sync: %w", path, err)
	}
	defer directory.Close()
	if err := directory.Sync(); err != nil {
		return fmt.Errorf("syncing directory %s: %w", path, err)
	}
	return nil
}
