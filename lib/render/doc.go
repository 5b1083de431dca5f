// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package render turns game events and moderator notices into message
// bodies.
//
// Bodies are written in Markdown. Every [Body] carries the Markdown
// source as plain text and an HTML rendering produced by goldmark;
// transports pick whichever they can deliver.
//
// Event rendering is table-driven: every [rules.EventKind] has exactly
// one template, and rendering an event whose kind has no template is an
// error rather than a silent fallback.
package render
