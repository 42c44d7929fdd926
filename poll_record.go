package finbridge

import "time"

// Poll outcomes.
const (
	PollSuccess = "SUCCESS"
	PollFailure = "FAILURE"
)

// PollRecord is one audit entry of the refresh loop: every attempt is
// recorded, successful or not.
type PollRecord struct {
	ID        string    `json:"id"`
	At        time.Time `json:"at"`
	Outcome   string    `json:"outcome"` // SUCCESS | FAILURE
	ErrorKind string    `json:"error_kind,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	ElapsedMS int64     `json:"elapsed_ms"`
}
