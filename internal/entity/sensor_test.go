package entity_test

import (
	"encoding/json"
	"testing"
	"time"

	"finbridge"
	"finbridge/internal/entity"
)

func snapWithSensor(q finbridge.QueryDef, payload string) *finbridge.Snapshot {
	snap := &finbridge.Snapshot{
		Queries:   []finbridge.QueryDef{q},
		Sensors:   map[string]json.RawMessage{},
		FetchedAt: time.Now().UTC(),
	}
	if payload != "" {
		snap.Sensors[q.ID] = json.RawMessage(payload)
	}
	return snap
}

func TestReading_NumericPayload(t *testing.T) {
	q := finbridge.QueryDef{ID: "1", Name: "checking balance", QueryType: finbridge.QueryTypeAccounts, OutputType: finbridge.OutputSensor}
	r := entity.Reading(snapWithSensor(q, `1234.50`), true, q)

	if r.State != "1234.5" {
		t.Fatalf("State = %q, want 1234.5", r.State)
	}
	if !r.Available {
		t.Fatalf("expected available")
	}
	if r.Unit != "USD" {
		t.Fatalf("Unit = %q, want USD (default for accounts)", r.Unit)
	}
	if r.StateClass != finbridge.StateClassMeasurement {
		t.Fatalf("StateClass = %q, want measurement", r.StateClass)
	}
	if r.Formatted != "$1,234.50" {
		t.Fatalf("Formatted = %q, want $1,234.50", r.Formatted)
	}
}

func TestReading_ObjectPayloadWithAttributes(t *testing.T) {
	q := finbridge.QueryDef{ID: "2", Name: "spend", FriendlyName: "Monthly Spend", QueryType: finbridge.QueryTypeTransactions, OutputType: finbridge.OutputSensor}
	payload := `{"state": "99.90", "attributes": {"period": "2026-08"}}`
	r := entity.Reading(snapWithSensor(q, payload), true, q)

	if r.Name != "Monthly Spend" {
		t.Fatalf("Name = %q, friendly name should win", r.Name)
	}
	if r.State != "99.9" {
		t.Fatalf("State = %q, want 99.9", r.State)
	}
	if r.StateClass != finbridge.StateClassTotal {
		t.Fatalf("StateClass = %q, want total", r.StateClass)
	}
	if r.Attributes["period"] != "2026-08" {
		t.Fatalf("attributes not merged: %+v", r.Attributes)
	}
}

func TestReading_ListPayloadIsSummed(t *testing.T) {
	q := finbridge.QueryDef{ID: "3", Name: "accounts", QueryType: finbridge.QueryTypeAccounts, OutputType: finbridge.OutputSensor}
	payload := `[{"balance": "100.10"}, {"balance": 49.90}, {"name": "no balance here"}]`
	r := entity.Reading(snapWithSensor(q, payload), true, q)

	if r.State != "150" {
		t.Fatalf("State = %q, want 150", r.State)
	}
	if r.Attributes["item_count"] != 3 {
		t.Fatalf("item_count = %v, want 3", r.Attributes["item_count"])
	}
}

func TestReading_TextualStateStaysOpaque(t *testing.T) {
	q := finbridge.QueryDef{ID: "4", Name: "status", OutputType: finbridge.OutputSensor}
	r := entity.Reading(snapWithSensor(q, `"on track"`), true, q)

	if r.State != "on track" {
		t.Fatalf("State = %q, want 'on track'", r.State)
	}
	if r.Formatted != "" {
		t.Fatalf("non-numeric state must not be money-formatted: %q", r.Formatted)
	}
	if r.Unit != "" {
		t.Fatalf("no query type, no unit: %q", r.Unit)
	}
}

func TestReading_MissingPayloadIsUnknown(t *testing.T) {
	q := finbridge.QueryDef{ID: "5", Name: "orphan", OutputType: finbridge.OutputSensor}
	r := entity.Reading(snapWithSensor(q, ""), true, q)

	if r.State != finbridge.StateUnknown {
		t.Fatalf("State = %q, want unknown", r.State)
	}
	if r.Available {
		t.Fatalf("missing payload must be unavailable")
	}
	// identity survives
	if r.QueryID != "5" || r.Name != "orphan" {
		t.Fatalf("identity lost: %+v", r)
	}
}

func TestReading_UnhealthyReportsUnknownDespitePayload(t *testing.T) {
	q := finbridge.QueryDef{ID: "6", Name: "balance", OutputType: finbridge.OutputSensor}
	r := entity.Reading(snapWithSensor(q, `42`), false, q)

	if r.State != finbridge.StateUnknown || r.Available {
		t.Fatalf("unhealthy must render unknown: %+v", r)
	}
}

func TestReading_UnusablePayloadIsUnknown(t *testing.T) {
	q := finbridge.QueryDef{ID: "7", Name: "weird", OutputType: finbridge.OutputSensor}
	for _, payload := range []string{`{"neither": "state nor value"}`, `true`, `""`, `{broken`} {
		r := entity.Reading(snapWithSensor(q, payload), true, q)
		if r.State != finbridge.StateUnknown || r.Available {
			t.Fatalf("payload %q: expected unknown, got %+v", payload, r)
		}
	}
}

func TestReading_ExplicitUnitOverridesDefault(t *testing.T) {
	q := finbridge.QueryDef{ID: "8", Name: "spend", QueryType: finbridge.QueryTypeTransactions, OutputType: finbridge.OutputSensor, Unit: "EUR"}
	r := entity.Reading(snapWithSensor(q, `10`), true, q)

	if r.Unit != "EUR" {
		t.Fatalf("Unit = %q, want EUR", r.Unit)
	}
}

func TestReadings_NilSnapshot(t *testing.T) {
	if got := entity.Readings(nil, true); got != nil {
		t.Fatalf("expected nil for nil snapshot, got %+v", got)
	}
}

func TestReadings_SkipsCalendarQueries(t *testing.T) {
	snap := &finbridge.Snapshot{
		Queries: []finbridge.QueryDef{
			{ID: "1", Name: "s", OutputType: finbridge.OutputSensor},
			{ID: "2", Name: "c", OutputType: finbridge.OutputCalendar},
		},
		Sensors: map[string]json.RawMessage{"1": json.RawMessage(`1`)},
	}
	got := entity.Readings(snap, true)
	if len(got) != 1 || got[0].QueryID != "1" {
		t.Fatalf("expected only the sensor query, got %+v", got)
	}
}
