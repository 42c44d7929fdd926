package entity

import (
	"sort"
	"time"

	"finbridge"
)

// Events returns every calendar event in the snapshot, merged across
// calendar queries and sorted by start time. An empty list is a valid
// result, not an error.
func Events(snap *finbridge.Snapshot) []finbridge.CalendarEvent {
	if snap == nil {
		return nil
	}
	var out []finbridge.CalendarEvent
	for _, events := range snap.Calendars {
		out = append(out, events...)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Start.Equal(out[j].Start) {
			return out[i].Title < out[j].Title
		}
		return out[i].Start.Before(out[j].Start)
	})
	return out
}

// EventsBetween filters to events overlapping [from, to], inclusive.
func EventsBetween(snap *finbridge.Snapshot, from, to time.Time) []finbridge.CalendarEvent {
	all := Events(snap)
	out := make([]finbridge.CalendarEvent, 0, len(all))
	for _, e := range all {
		if e.Overlaps(from, to) {
			out = append(out, e)
		}
	}
	return out
}

// Next returns the first event that has not ended by now.
func Next(snap *finbridge.Snapshot, now time.Time) (finbridge.CalendarEvent, bool) {
	for _, e := range Events(snap) {
		if !e.End.Before(now) {
			return e, true
		}
	}
	return finbridge.CalendarEvent{}, false
}
