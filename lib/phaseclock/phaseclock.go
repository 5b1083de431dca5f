// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package phaseclock

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bureau-foundation/godfather/rules"
)

// TimeOfDay is a local wall-clock time in a specific location.
type TimeOfDay struct {
	Hour     int
	Minute   int
	Second   int
	Location *time.Location
}

// ParseTimeOfDay parses "HH:MM", "HH:MM:SS", optionally followed by a
// space and an IANA zone name ("10:00 Europe/London"). Without a zone,
// defaultLocation is used; a nil defaultLocation means UTC.
func ParseTimeOfDay(text string, defaultLocation *time.Location) (TimeOfDay, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 || len(fields) > 2 {
		return TimeOfDay{}, fmt.Errorf("phaseclock: expected \"HH:MM[:SS] [zone]\", got %q", text)
	}

	location := defaultLocation
	if location == nil {
		location = time.UTC
	}
	if len(fields) == 2 {
		loaded, err := time.LoadLocation(fields[1])
		if err != nil {
			return TimeOfDay{}, fmt.Errorf("phaseclock: zone %q: %w", fields[1], err)
		}
		location = loaded
	}

	parts := strings.Split(fields[0], ":")
	if len(parts) < 2 || len(parts) > 3 {
		return TimeOfDay{}, fmt.Errorf("phaseclock: expected HH:MM[:SS], got %q", fields[0])
	}
	limits := []int{23, 59, 59}
	values := make([]int, 3)
	for i, part := range parts {
		value, err := strconv.Atoi(part)
		if err != nil {
			return TimeOfDay{}, fmt.Errorf("phaseclock: invalid number %q in %q", part, fields[0])
		}
		if value < 0 || value > limits[i] {
			return TimeOfDay{}, fmt.Errorf("phaseclock: %q out of range [0-%d] in %q", part, limits[i], fields[0])
		}
		values[i] = value
	}

	return TimeOfDay{
		Hour:     values[0],
		Minute:   values[1],
		Second:   values[2],
		Location: location,
	}, nil
}

// String formats the time of day so that ParseTimeOfDay reads it back
// unchanged, including the zone.
func (t TimeOfDay) String() string {
	clock := fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
	if t.Second != 0 {
		clock += fmt.Sprintf(":%02d", t.Second)
	}
	return clock + " " + t.location().String()
}

// MarshalText implements encoding.TextMarshaler.
func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Text without a
// zone is read as UTC.
func (t *TimeOfDay) UnmarshalText(text []byte) error {
	parsed, err := ParseTimeOfDay(string(text), time.UTC)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t TimeOfDay) location() *time.Location {
	if t.Location == nil {
		return time.UTC
	}
	return t.Location
}

// Next returns the smallest instant at or after start whose local
// time-of-day in target's location equals target. When start's local
// time-of-day is already past target, the result is on the following
// calendar day. The result is expressed in target's location.
func Next(start time.Time, target TimeOfDay) time.Time {
	location := target.location()
	local := start.In(location)

	candidate := time.Date(local.Year(), local.Month(), local.Day(),
		target.Hour, target.Minute, target.Second, 0, location)
	if candidate.Before(start) {
		if later, ok := secondOccurrence(candidate, start, target); ok {
			return later
		}
		candidate = time.Date(local.Year(), local.Month(), local.Day()+1,
			target.Hour, target.Minute, target.Second, 0, location)
	}
	return firstOccurrence(candidate, start, target)
}

// zoneShifts are the offset changes a fall-back overlap can repeat.
// Zone shifts are one hour almost everywhere; Lord Howe Island shifts
// by thirty minutes.
var zoneShifts = []time.Duration{time.Hour, 30 * time.Minute}

func matches(instant time.Time, target TimeOfDay) bool {
	return instant.Hour() == target.Hour && instant.Minute() == target.Minute && instant.Second() == target.Second
}

// secondOccurrence finds the later reading of candidate's local clock
// when start lies between the two occurrences of a fall-back overlap.
func secondOccurrence(candidate, start time.Time, target TimeOfDay) (time.Time, bool) {
	for _, shift := range zoneShifts {
		later := candidate.Add(shift)
		if !later.Before(start) && matches(later, target) {
			return later, true
		}
	}
	return time.Time{}, false
}

// firstOccurrence moves candidate to the earlier of two instants that
// share its local clock reading, which happens inside a fall-back
// overlap.
func firstOccurrence(candidate, start time.Time, target TimeOfDay) time.Time {
	for _, shift := range zoneShifts {
		earlier := candidate.Add(-shift)
		if !earlier.Before(start) && matches(earlier, target) {
			return earlier
		}
	}
	return candidate
}

// Deadline returns the deadline for phase when it begins at start:
// the next night cutoff for a night, the next day cutoff for a day.
func Deadline(phase rules.Phase, start time.Time, nightEnd, dayEnd TimeOfDay) time.Time {
	if phase.Kind == rules.Night {
		return Next(start, nightEnd)
	}
	return Next(start, dayEnd)
}

// Format renders a deadline for players, in the location the time
// carries ("10:00 PM PST").
func Format(deadline time.Time) string {
	return deadline.Format("3:04 PM MST")
}

// FormatIn renders a deadline in location, including the date when it
// falls on a different calendar day than reference.
func FormatIn(deadline time.Time, location *time.Location, reference time.Time) string {
	if location == nil {
		location = time.UTC
	}
	local := deadline.In(location)
	ref := reference.In(location)
	if local.YearDay() == ref.YearDay() && local.Year() == ref.Year() {
		return local.Format("3:04 PM MST")
	}
	return local.Format("3:04 PM MST on Monday, January 2")
}
