// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rules

import (
	"fmt"
	"slices"

	"github.com/bureau-foundation/godfather/lib/codec"
)

// Log is a game's append-only event history. It has a single writer
// (the engine) and is not safe for concurrent use.
type Log struct {
	events    []Event
	listeners []*listener
}

type listener struct {
	callback func(Event)
}

// NewLog returns an empty log.
func NewLog() *Log {
	return &Log{}
}

// Append adds events in order. Each listener registered with OnAppend
// is called once per event, synchronously, after the event is stored.
func (l *Log) Append(events ...Event) {
	for _, event := range events {
		l.events = append(l.events, event)
		for _, entry := range slices.Clone(l.listeners) {
			entry.callback(event)
		}
	}
}

// OnAppend registers callback for every future Append. The returned
// function removes the registration.
func (l *Log) OnAppend(callback func(Event)) (remove func()) {
	entry := &listener{callback: callback}
	l.listeners = append(l.listeners, entry)
	return func() {
		l.listeners = slices.DeleteFunc(l.listeners, func(candidate *listener) bool {
			return candidate == entry
		})
	}
}

// Events returns a copy of the log's contents in append order.
func (l *Log) Events() []Event {
	return slices.Clone(l.events)
}

// Len returns the number of events.
func (l *Log) Len() int {
	return len(l.events)
}

// Predicate selects events in Filter.
type Predicate func(Event) bool

// ByRecipient selects events whose audience includes player.
func ByRecipient(player Player) Predicate {
	return func(event Event) bool {
		return event.Audience().Includes(player)
	}
}

// ByKind selects events of any of the given kinds.
func ByKind(kinds ...EventKind) Predicate {
	return func(event Event) bool {
		return slices.Contains(kinds, event.Kind())
	}
}

// ByPhase selects events that happened during phase.
func ByPhase(phase Phase) Predicate {
	return func(event Event) bool {
		return event.When() == phase
	}
}

// Filter returns the events matching every predicate, in append order.
func (l *Log) Filter(predicates ...Predicate) []Event {
	var matched []Event
	for _, event := range l.events {
		if matchesAll(event, predicates) {
			matched = append(matched, event)
		}
	}
	return matched
}

// Latest returns the most recent event matching every predicate.
func (l *Log) Latest(predicates ...Predicate) (Event, bool) {
	for i := len(l.events) - 1; i >= 0; i-- {
		if matchesAll(l.events[i], predicates) {
			return l.events[i], true
		}
	}
	return nil, false
}

func matchesAll(event Event, predicates []Predicate) bool {
	for _, predicate := range predicates {
		if !predicate(event) {
			return false
		}
	}
	return true
}

// eventRecord is the persisted form of one event: its kind tag and
// the event struct encoded separately.
type eventRecord struct {
	Kind EventKind        `cbor:"kind"`
	Data codec.RawMessage `cbor:"data"`
}

// MarshalCBOR encodes the events as a list of kind-tagged records.
// Listeners are not persisted.
func (l *Log) MarshalCBOR() ([]byte, error) {
	records := make([]eventRecord, 0, len(l.events))
	for i, event := range l.events {
		data, err := codec.Marshal(event)
		if err != nil {
			return nil, fmt.Errorf("encoding event %d (%s): %w", i, event.Kind(), err)
		}
		records = append(records, eventRecord{Kind: event.Kind(), Data: data})
	}
	return codec.Marshal(records)
}

// UnmarshalCBOR replaces the log's events with the decoded records.
// Registered listeners are kept.
func (l *Log) UnmarshalCBOR(data []byte) error {
	var records []eventRecord
	if err := codec.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("decoding event log: %w", err)
	}
	events := make([]Event, 0, len(records))
	for i, record := range records {
		event, err := decodeEvent(record)
		if err != nil {
			return fmt.Errorf("decoding event %d: %w", i, err)
		}
		events = append(events, event)
	}
	l.events = events
	return nil
}

func decodeEvent(record eventRecord) (Event, error) {
	switch record.Kind {
	case KindRoleAnnouncement:
		return decodeAs[RoleAnnouncement](record.Data)
	case KindFactionAnnouncement:
		return decodeAs[FactionAnnouncement](record.Data)
	case KindDied:
		return decodeAs[Died](record.Data)
	case KindLynched:
		return decodeAs[Lynched](record.Data)
	case KindVoteTally:
		return decodeAs[VoteTally](record.Data)
	case KindInvestigationResult:
		return decodeAs[InvestigationResult](record.Data)
	case KindNoLynch:
		return decodeAs[NoLynch](record.Data)
	case KindVictory:
		return decodeAs[Victory](record.Data)
	default:
		return nil, fmt.Errorf("unknown event kind %q", record.Kind)
	}
}

func decodeAs[T Event](data []byte) (Event, error) {
	var event T
	if err := codec.Unmarshal(data, &event); err != nil {
		return nil, err
	}
	return event, nil
}
