package entity

import (
	"bytes"
	"encoding/json"

	"finbridge"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Readings projects every SENSOR query out of the snapshot. Pure function
// of its inputs; no I/O, no errors — anything unusable renders as unknown.
func Readings(snap *finbridge.Snapshot, healthy bool) []finbridge.SensorReading {
	if snap == nil {
		return nil
	}
	qs := snap.SensorQueries()
	out := make([]finbridge.SensorReading, 0, len(qs))
	for _, q := range qs {
		out = append(out, Reading(snap, healthy, q))
	}
	return out
}

// Reading projects one SENSOR query. When the coordinator is unhealthy or
// the snapshot has no payload for the query, the reading keeps its static
// identity but reports unknown and unavailable.
func Reading(snap *finbridge.Snapshot, healthy bool, q finbridge.QueryDef) finbridge.SensorReading {
	r := finbridge.SensorReading{
		QueryID:    q.ID,
		Name:       q.DisplayName(),
		State:      finbridge.StateUnknown,
		Unit:       unitFor(q),
		StateClass: stateClassFor(q),
		Attributes: map[string]any{
			"query_name": q.Name,
			"query_type": q.QueryType,
		},
	}
	if q.Description != "" {
		r.Attributes["description"] = q.Description
	}
	if snap == nil || !healthy {
		return r
	}

	raw, ok := snap.Sensors[q.ID]
	if !ok {
		return r
	}
	state, num, attrs, ok := projectState(raw)
	if !ok {
		return r
	}

	r.State = state
	r.Available = true
	if num != nil {
		r.Formatted = formatMoney(*num, r.Unit)
	}
	for k, v := range attrs {
		r.Attributes[k] = v
	}
	return r
}

// projectState interprets the payload shapes the backend produces:
// a bare number, a string, an object carrying state/value (and optional
// attributes), or a list of items summed over their value/state/balance
// fields. Exact arithmetic throughout; these are monetary amounts.
func projectState(raw json.RawMessage) (state string, num *decimal.Decimal, attrs map[string]any, ok bool) {
	v, err := decodeNumeric(raw)
	if err != nil {
		return "", nil, nil, false
	}

	switch t := v.(type) {
	case json.Number:
		return scalarState(t.String())
	case string:
		return scalarState(t)
	case map[string]any:
		return objectState(t)
	case []any:
		total := sumItems(t)
		return total.String(), &total, map[string]any{"item_count": len(t)}, true
	default:
		return "", nil, nil, false
	}
}

func decodeNumeric(raw json.RawMessage) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// scalarState accepts numeric strings as numbers and keeps anything else
// as an opaque textual state.
func scalarState(s string) (string, *decimal.Decimal, map[string]any, bool) {
	if s == "" {
		return "", nil, nil, false
	}
	if d, err := decimal.NewFromString(s); err == nil {
		return d.String(), &d, nil, true
	}
	return s, nil, nil, true
}

func objectState(obj map[string]any) (string, *decimal.Decimal, map[string]any, bool) {
	var extra map[string]any
	if a, ok := obj["attributes"].(map[string]any); ok {
		extra = a
	}
	for _, key := range []string{"state", "value"} {
		raw, present := obj[key]
		if !present {
			continue
		}
		switch t := raw.(type) {
		case json.Number:
			state, num, _, ok := scalarState(t.String())
			return state, num, extra, ok
		case string:
			state, num, _, ok := scalarState(t)
			return state, num, extra, ok
		}
	}
	return "", nil, nil, false
}

// sumItems totals a list payload. Items that carry no usable numeric field
// contribute zero rather than poisoning the total.
func sumItems(items []any) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		switch t := item.(type) {
		case json.Number:
			if d, err := decimal.NewFromString(t.String()); err == nil {
				total = total.Add(d)
			}
		case map[string]any:
			for _, key := range []string{"value", "state", "balance"} {
				if d, ok := numberField(t, key); ok {
					total = total.Add(d)
					break
				}
			}
		}
	}
	return total
}

func numberField(obj map[string]any, key string) (decimal.Decimal, bool) {
	raw, present := obj[key]
	if !present {
		return decimal.Zero, false
	}
	switch t := raw.(type) {
	case json.Number:
		if d, err := decimal.NewFromString(t.String()); err == nil {
			return d, true
		}
	case string:
		if d, err := decimal.NewFromString(t); err == nil {
			return d, true
		}
	}
	return decimal.Zero, false
}

// formatMoney renders a currency-unit value for display, e.g. "$1,234.50".
// Empty when the unit is not a known ISO currency code.
func formatMoney(d decimal.Decimal, unit string) string {
	cur := money.GetCurrency(unit)
	if cur == nil {
		return ""
	}
	minor := d.Shift(int32(cur.Fraction)).Round(0).IntPart()
	return money.New(minor, unit).Display()
}

const defaultCurrency = "USD"

func unitFor(q finbridge.QueryDef) string {
	if q.Unit != "" {
		return q.Unit
	}
	switch q.QueryType {
	case finbridge.QueryTypeTransactions, finbridge.QueryTypeAccounts:
		return defaultCurrency
	}
	return ""
}

func stateClassFor(q finbridge.QueryDef) string {
	switch q.QueryType {
	case finbridge.QueryTypeTransactions:
		return finbridge.StateClassTotal
	case finbridge.QueryTypeAccounts:
		return finbridge.StateClassMeasurement
	}
	return ""
}
