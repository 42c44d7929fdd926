package finbridge

import (
	"encoding/json"
	"strings"
	"time"
)

// Query output types as reported by the backend.
const (
	OutputSensor   = "SENSOR"
	OutputCalendar = "CALENDAR"
)

// Query types that influence sensor presentation.
const (
	QueryTypeTransactions = "TRANSACTIONS"
	QueryTypeAccounts     = "ACCOUNTS"
)

// QueryDef is a backend-defined query. The backend decides what exists;
// the bridge only projects the results it is given.
type QueryDef struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	FriendlyName string `json:"ha_friendly_name,omitempty"`
	Description  string `json:"description,omitempty"`
	QueryType    string `json:"query_type,omitempty"`
	OutputType   string `json:"output_type"`
	Unit         string `json:"ha_unit_of_measurement,omitempty"`
}

// UnmarshalJSON accepts both numeric and string IDs; the backend switched
// from integer to UUID primary keys at some point and old responses still
// carry numbers.
func (q *QueryDef) UnmarshalJSON(b []byte) error {
	type alias QueryDef
	aux := struct {
		ID json.RawMessage `json:"id"`
		*alias
	}{alias: (*alias)(q)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	q.ID = strings.Trim(string(aux.ID), `"`)
	return nil
}

// DisplayName prefers the friendly name configured on the backend.
func (q QueryDef) DisplayName() string {
	if q.FriendlyName != "" {
		return q.FriendlyName
	}
	return q.Name
}

// Snapshot is the last successfully fetched and parsed response set.
// It is replaced atomically by the coordinator and never mutated after
// publication; consumers hold read-only references.
type Snapshot struct {
	Queries   []QueryDef                 `json:"queries"`
	Sensors   map[string]json.RawMessage `json:"sensors"`
	Calendars map[string][]CalendarEvent `json:"calendars"`
	Dashboard map[string]any             `json:"dashboard,omitempty"`
	FetchedAt time.Time                  `json:"fetched_at"`
}

// Query looks up a query definition by ID.
func (s *Snapshot) Query(id string) (QueryDef, bool) {
	for _, q := range s.Queries {
		if q.ID == id {
			return q, true
		}
	}
	return QueryDef{}, false
}

// SensorQueries returns the queries whose output type is SENSOR.
func (s *Snapshot) SensorQueries() []QueryDef {
	return s.byOutput(OutputSensor)
}

// CalendarQueries returns the queries whose output type is CALENDAR.
func (s *Snapshot) CalendarQueries() []QueryDef {
	return s.byOutput(OutputCalendar)
}

func (s *Snapshot) byOutput(output string) []QueryDef {
	out := make([]QueryDef, 0, len(s.Queries))
	for _, q := range s.Queries {
		if q.OutputType == output {
			out = append(out, q)
		}
	}
	return out
}
