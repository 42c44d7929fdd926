package finbridge

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// CalendarEvent is one entry of a calendar query result: a forecast
// transaction, a due date, or any other dated financial event.
type CalendarEvent struct {
	Title    string          `json:"title"`
	Start    time.Time       `json:"start"`
	End      time.Time       `json:"end"`
	AllDay   bool            `json:"all_day,omitempty"`
	Category string          `json:"category,omitempty"`
	Amount   decimal.Decimal `json:"amount"`
}

// Overlaps reports whether the event intersects [from, to], inclusive on
// both ends.
func (e CalendarEvent) Overlaps(from, to time.Time) bool {
	return !e.Start.After(to) && !e.End.Before(from)
}

// UnmarshalJSON tolerates the two timestamp shapes the backend produces:
// RFC3339 for timed events and bare dates for all-day events. A bare-date
// event with a missing end is treated as a single-day event.
func (e *CalendarEvent) UnmarshalJSON(b []byte) error {
	var aux struct {
		Title    string          `json:"title"`
		Summary  string          `json:"summary"`
		Start    string          `json:"start"`
		End      string          `json:"end"`
		AllDay   bool            `json:"all_day"`
		Category string          `json:"category"`
		Amount   decimal.Decimal `json:"amount"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}

	e.Title = aux.Title
	if e.Title == "" {
		e.Title = aux.Summary
	}
	e.Category = aux.Category
	e.Amount = aux.Amount
	e.AllDay = aux.AllDay

	start, startDateOnly, err := parseEventTime(aux.Start)
	if err != nil {
		return fmt.Errorf("event start: %w", err)
	}
	e.Start = start

	if aux.End == "" {
		if startDateOnly {
			e.End = start.Add(24*time.Hour - time.Second)
		} else {
			e.End = start
		}
	} else {
		end, endDateOnly, err := parseEventTime(aux.End)
		if err != nil {
			return fmt.Errorf("event end: %w", err)
		}
		if endDateOnly {
			end = end.Add(24*time.Hour - time.Second)
		}
		e.End = end
	}

	if startDateOnly {
		e.AllDay = true
	}
	return nil
}

const layoutEventDate = "2006-01-02"

// parseEventTime parses RFC3339 or date-only timestamps, normalized to UTC.
// The second return value reports whether the input was date-only.
func parseEventTime(s string) (time.Time, bool, error) {
	if s == "" {
		return time.Time{}, false, fmt.Errorf("empty timestamp")
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), false, nil
	}
	if t, err := time.Parse(layoutEventDate, s); err == nil {
		return t.UTC(), true, nil
	}
	return time.Time{}, false, fmt.Errorf("unrecognized timestamp %q", s)
}
