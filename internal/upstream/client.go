package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"finbridge"
)

// Backend resource paths. The queries resource drives everything else:
// sensor and calendar data are fetched per query ID.
const (
	pathHealth    = "/api/health/"
	pathQueries   = "/api/ha/queries/"
	pathSensor    = "/api/ha/sensor/"
	pathCalendar  = "/api/ha/calendar/"
	pathDashboard = "/api/ha/dashboard/"
)

const (
	headerAPIKey = "X-API-Key"

	// DefaultTimeout bounds each request when config gives none.
	DefaultTimeout = 10 * time.Second

	// maxBodyBytes caps response reads; the backend's largest payloads are
	// well under 1 MB.
	maxBodyBytes = 4 << 20
)

// Config is the immutable connection configuration of a client.
type Config struct {
	Host    string
	Port    int
	TLS     bool
	APIKey  string
	Timeout time.Duration
}

// BaseURL renders the scheme://host:port prefix for this configuration.
func (c Config) BaseURL() string {
	scheme := "http"
	if c.TLS {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, c.Host, c.Port)
}

// Client issues authenticated requests against the Finance Assistant
// backend and maps failures onto the FetchError taxonomy. It is stateless
// between calls and holds no retry policy; resilience belongs to the
// coordinator.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// New builds a client. A zero timeout falls back to DefaultTimeout.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: cfg.BaseURL(),
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: timeout},
	}
}

// Health performs the lightweight connectivity/credential check used by
// the setup flow. The response body is ignored.
func (c *Client) Health(ctx context.Context) error {
	return c.get(ctx, pathHealth, nil)
}

// Queries fetches the backend-defined query list.
func (c *Client) Queries(ctx context.Context) ([]finbridge.QueryDef, error) {
	var raw json.RawMessage
	if err := c.get(ctx, pathQueries, &raw); err != nil {
		return nil, err
	}
	queries, err := decodeList[finbridge.QueryDef](raw)
	if err != nil {
		return nil, &FetchError{Kind: KindMalformed, Resource: pathQueries, Err: err}
	}
	return queries, nil
}

// SensorData fetches the raw payload of one SENSOR query. The shape varies
// per query; interpretation is the entity layer's job.
func (c *Client) SensorData(ctx context.Context, queryID string) (json.RawMessage, error) {
	path := pathSensor + url.PathEscape(queryID) + "/"
	var raw json.RawMessage
	if err := c.get(ctx, path, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// CalendarEvents fetches the event list of one CALENDAR query.
func (c *Client) CalendarEvents(ctx context.Context, queryID string) ([]finbridge.CalendarEvent, error) {
	path := pathCalendar + url.PathEscape(queryID) + "/"
	var raw json.RawMessage
	if err := c.get(ctx, path, &raw); err != nil {
		return nil, err
	}
	events, err := decodeList[finbridge.CalendarEvent](raw)
	if err != nil {
		return nil, &FetchError{Kind: KindMalformed, Resource: path, Err: err}
	}
	return events, nil
}

// Dashboard fetches the aggregate dashboard document.
func (c *Client) Dashboard(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	if err := c.get(ctx, pathDashboard, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// get issues one GET and decodes the body into out. A nil out discards the
// body. All failures come back as *FetchError.
func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return &FetchError{Kind: KindUnreachable, Resource: path, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set(headerAPIKey, c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return c.transportError(path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &FetchError{Kind: KindUnauthorized, Resource: path, Err: fmt.Errorf("status %d", resp.StatusCode)}
	case resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices:
		return &FetchError{
			Kind:       KindUnreachable,
			Resource:   path,
			RetryAfter: retryAfter(resp),
			Err:        fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return c.transportError(path, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &FetchError{Kind: KindMalformed, Resource: path, Err: err}
	}
	return nil
}

// transportError distinguishes timeouts from other transport failures.
func (c *Client) transportError(path string, err error) *FetchError {
	kind := KindUnreachable
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		kind = KindTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		kind = KindTimeout
	}
	return &FetchError{Kind: kind, Resource: path, Err: err}
}

// retryAfter parses a seconds-valued Retry-After header; zero when absent
// or unparseable. HTTP-date values are ignored, the backend never sends
// them.
func retryAfter(resp *http.Response) time.Duration {
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// decodeList accepts both a bare JSON array and the paginated
// {"results": [...]} envelope the backend uses on some endpoints.
func decodeList[T any](raw json.RawMessage) ([]T, error) {
	var list []T
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var envelope struct {
		Results []T `json:"results"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("neither list nor results envelope: %w", err)
	}
	return envelope.Results, nil
}
