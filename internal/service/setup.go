package service

import (
	"context"
	"time"

	"finbridge/internal/config"
	"finbridge/internal/upstream"
)

// ConnectionParams is a candidate backend connection, validated before
// anything is persisted.
type ConnectionParams struct {
	Host            string `json:"host" binding:"required"`
	Port            int    `json:"port"`
	TLS             bool   `json:"tls"`
	APIKey          string `json:"api_key,omitempty"`
	TimeoutSec      int    `json:"timeout_sec,omitempty"`
	PollIntervalSec int    `json:"poll_interval_sec,omitempty"`
}

// Validation error codes, keyed by field ("base" for connection-level
// outcomes).
const (
	CodeRequired      = "required"
	CodeOutOfRange    = "out_of_range"
	CodeInvalidAuth   = "invalid_auth"
	CodeCannotConnect = "cannot_connect"
	CodeTimeout       = "timeout"
	CodeUnknown       = "unknown"
)

// ValidationErrors maps field names to error codes. Empty means the
// parameters are valid and the backend answered the health probe.
type ValidationErrors map[string]string

func (v ValidationErrors) OK() bool { return len(v) == 0 }

// HealthProber is the slice of the upstream client the setup flow needs.
type HealthProber interface {
	Health(ctx context.Context) error
}

// SetupService validates a candidate connection: static field checks
// first, then one health probe against the backend. No state is created
// on any path.
type SetupService struct {
	probe func(cfg upstream.Config) HealthProber
}

func NewSetupService() *SetupService {
	return &SetupService{
		probe: func(cfg upstream.Config) HealthProber {
			return upstream.New(cfg)
		},
	}
}

func (s *SetupService) Validate(ctx context.Context, p ConnectionParams) ValidationErrors {
	errs := ValidationErrors{}

	if p.Host == "" {
		errs["host"] = CodeRequired
	}
	if p.Port < config.MinPort || p.Port > config.MaxPort {
		errs["port"] = CodeOutOfRange
	}
	if p.PollIntervalSec != 0 && p.PollIntervalSec < config.MinPollIntervalSec {
		errs["poll_interval_sec"] = CodeOutOfRange
	}
	if len(errs) > 0 {
		// Don't probe with parameters that are already wrong.
		return errs
	}

	client := s.probe(upstream.Config{
		Host:    p.Host,
		Port:    p.Port,
		TLS:     p.TLS,
		APIKey:  p.APIKey,
		Timeout: time.Duration(p.TimeoutSec) * time.Second,
	})

	err := client.Health(ctx)
	if err == nil {
		return errs
	}

	switch upstream.KindOf(err) {
	case upstream.KindUnauthorized:
		errs["api_key"] = CodeInvalidAuth
	case upstream.KindTimeout:
		errs["base"] = CodeTimeout
	case upstream.KindUnreachable, upstream.KindMalformed:
		errs["base"] = CodeCannotConnect
	default:
		errs["base"] = CodeUnknown
	}
	return errs
}
