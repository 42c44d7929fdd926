package finbridge

// StateUnknown is reported when a sensor's payload is missing or cannot be
// interpreted. Rendering never fails; it degrades to unknown.
const StateUnknown = "unknown"

// Sensor state classes, mirroring the conventions of the consuming
// home-automation side.
const (
	StateClassTotal       = "total"
	StateClassMeasurement = "measurement"
)

// SensorReading is the projection of one SENSOR query out of the current
// snapshot. It owns no data and carries no behavior.
type SensorReading struct {
	QueryID    string         `json:"query_id"`
	Name       string         `json:"name"`
	State      string         `json:"state"`
	Formatted  string         `json:"formatted,omitempty"`
	Unit       string         `json:"unit,omitempty"`
	StateClass string         `json:"state_class,omitempty"`
	Available  bool           `json:"available"`
	Attributes map[string]any `json:"attributes,omitempty"`
}
