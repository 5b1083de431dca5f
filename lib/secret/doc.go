// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package secret holds credentials (the Mailgun API key, age
// identities for sealed checkpoints) outside the Go heap.
//
// A [Buffer] is backed by an anonymous mmap region that is locked into
// RAM and excluded from core dumps. Close zeroes and unmaps it; any
// later access panics. Credentials are read with [ReadFromPath] or
// [FromEnvironment] and never written to the game directory.
package secret
