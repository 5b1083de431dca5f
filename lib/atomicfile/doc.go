// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package atomicfile replaces files so that readers see either the old
// contents or the new contents, never a mix.
//
// Data goes to a temporary file in the destination's directory, which
// is synced, closed, and renamed over the destination; the directory
// is then synced so the rename survives power loss. A failed write
// removes the temporary file and leaves the destination untouched.
package atomicfile
