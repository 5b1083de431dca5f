// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package phaseclock computes game phase deadlines from daily
// wall-clock cutoffs.
//
// A cutoff is a [TimeOfDay] in a fixed time zone ("10:00
// America/Los_Angeles"). [Next] returns the first instant at or after
// a start time whose local time-of-day in the cutoff's zone matches
// the cutoff. Night and day cutoffs may use different zones.
//
// Daylight-saving transitions are not special-cased. A cutoff inside a
// spring-forward gap resolves to the instant time.Date normalizes it
// to; a cutoff inside a fall-back overlap resolves to the first of the
// two instants that is not before the start time.
package phaseclock
