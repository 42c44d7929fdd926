package config

import (
	"errors"
	"fmt"
)

// Bounds shared with the setup validation in internal/service.
const (
	// MinPollIntervalSec is the floor on the poll interval so a
	// misconfigured bridge cannot hammer the backend.
	MinPollIntervalSec = 30

	MinPort = 1
	MaxPort = 65535

	minTimeoutSec = 1
	maxTimeoutSec = 120
)

// Validate checks every section and reports all problems at once, so a bad
// config file surfaces as a single startup error listing each field.
func (c *Config) Validate() error {
	var errs []error

	if c.Upstream.Host == "" {
		errs = append(errs, errors.New("upstream.host is required"))
	}
	if c.Upstream.Port < MinPort || c.Upstream.Port > MaxPort {
		errs = append(errs, fmt.Errorf("upstream.port %d out of range [%d, %d]", c.Upstream.Port, MinPort, MaxPort))
	}
	if c.Upstream.TimeoutSec < minTimeoutSec || c.Upstream.TimeoutSec > maxTimeoutSec {
		errs = append(errs, fmt.Errorf("upstream.timeout_sec %d out of range [%d, %d]", c.Upstream.TimeoutSec, minTimeoutSec, maxTimeoutSec))
	}
	if c.Poll.IntervalSec < MinPollIntervalSec {
		errs = append(errs, fmt.Errorf("poll.interval_sec %d below minimum %d", c.Poll.IntervalSec, MinPollIntervalSec))
	}
	if c.Poll.FailureThreshold < 1 {
		errs = append(errs, fmt.Errorf("poll.failure_threshold %d must be >= 1", c.Poll.FailureThreshold))
	}
	if c.Auth.SigningKey == "" {
		errs = append(errs, errors.New("auth.signing_key is required"))
	}
	if c.Auth.TokenTTLMin < 1 {
		errs = append(errs, fmt.Errorf("auth.token_ttl_min %d must be >= 1", c.Auth.TokenTTLMin))
	}
	if c.DB.Path == "" {
		errs = append(errs, errors.New("db.path is required"))
	}

	return errors.Join(errs...)
}
