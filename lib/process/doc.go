// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process holds the exit conventions of the godfather binary:
// the exit codes scripts can rely on and the pre-logger fatal error
// path used by main.
package process
