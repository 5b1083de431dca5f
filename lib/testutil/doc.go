// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers.
//
// [RequireReceive], [RequireSend] and [RequireClosed] wrap the select
// with a wall-clock fallback that keeps a broken test from hanging.
// They are the only place tests use real time; everything else runs on
// a fake clock from lib/clock.
//
// [UniqueID] generates distinct identifiers for message bodies and
// addresses without reading the clock.
//
// All helpers call t.Fatalf on failure.
package testutil
