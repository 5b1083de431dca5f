// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package forum defines the transport contract between the moderator
// and the medium players talk through.
//
// A [Forum] sends rendered messages to players and returns the inbound
// messages received in a half-open time [Window]. Fetching contiguous,
// non-overlapping windows must never return a message twice or skip
// one; the moderator relies on this instead of tracking message IDs.
// Messages become visible to [Forum.Messages] only after
// [Forum.ReceiptLag] has elapsed, so the moderator never asks for a
// window that ends later than now minus the lag.
//
// Transports live in subpackages: console (stdout, no inbound), mailgun
// (the Mailgun HTTP API) and mailbox (a local SQLite mailbox used for
// development and tests). Package forums opens the one a [Config]
// names.
package forum
