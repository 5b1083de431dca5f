// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil has small helpers shared by HTTP transports.
package netutil
