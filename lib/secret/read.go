// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import (
	"bytes"
	"errors"
	"fmt"
	"os"
)

// ErrNotFound is returned by FromEnvironment when the variable is unset.
var ErrNotFound = errors.New("secret not found")

// ReadFromPath reads a secret from a file, trimming surrounding
// whitespace. An empty file is an error.
func ReadFromPath(path string) (*Buffer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	defer Zero(data)

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("secret file %s is empty", path)
	}
	return NewFromBytes(trimmed)
}

// FromEnvironment reads a secret from the named environment variable.
// The variable's value stays in the process environment; callers that
// care unset it after reading.
func FromEnvironment(name string) (*Buffer, error) {
	value, ok := os.LookupEnv(name)
	if !ok {
		return nil, fmt.Errorf("%w: $%s is not set", ErrNotFound, name)
	}
	trimmed := bytes.TrimSpace([]byte(value))
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("$%s is empty", name)
	}
	return NewFromBytes(trimmed)
}
