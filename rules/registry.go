// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rules

import (
	"fmt"
	"slices"
	"sync"
)

// Importer rebuilds a Game from the bytes its Export produced.
type Importer func(data []byte) (Game, error)

// Registry maps export formats to importers.
type Registry struct {
	mu        sync.RWMutex
	importers map[string]Importer
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{importers: make(map[string]Importer)}
}

// Register adds importer for format. Registering the same format twice
// panics; engines register from init.
func (r *Registry) Register(format string, importer Importer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if importer == nil {
		panic("rules: Register importer is nil")
	}
	if _, exists := r.importers[format]; exists {
		panic("rules: Register called twice for format " + format)
	}
	r.importers[format] = importer
}

// Import rebuilds a game of the given format.
func (r *Registry) Import(format string, data []byte) (Game, error) {
	r.mu.RLock()
	importer, ok := r.importers[format]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w %q (known: %v)", ErrUnknownFormat, format, r.Formats())
	}
	game, err := importer(data)
	if err != nil {
		return nil, fmt.Errorf("importing %s game: %w", format, err)
	}
	return game, nil
}

// Formats returns the registered formats, sorted.
func (r *Registry) Formats() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	formats := make([]string, 0, len(r.importers))
	for format := range r.importers {
		formats = append(formats, format)
	}
	slices.Sort(formats)
	return formats
}

// DefaultRegistry is where engines register themselves from init.
var DefaultRegistry = NewRegistry()

// Register adds importer to DefaultRegistry.
func Register(format string, importer Importer) {
	DefaultRegistry.Register(format, importer)
}

// Import rebuilds a game from DefaultRegistry.
func Import(format string, data []byte) (Game, error) {
	return DefaultRegistry.Import(format, data)
}
