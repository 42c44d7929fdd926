package coordinator

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"finbridge"
	"finbridge/internal/logger"
	"finbridge/internal/upstream"

	"github.com/google/uuid"
)

// Fetcher is the slice of the upstream client the coordinator depends on.
type Fetcher interface {
	Queries(ctx context.Context) ([]finbridge.QueryDef, error)
	SensorData(ctx context.Context, queryID string) (json.RawMessage, error)
	CalendarEvents(ctx context.Context, queryID string) ([]finbridge.CalendarEvent, error)
	Dashboard(ctx context.Context) (map[string]any, error)
}

// SnapshotStore persists the last good snapshot so a restarted bridge
// starts stale-but-valid instead of empty. Load returns a zero-value
// snapshot (FetchedAt zero) when nothing is persisted yet.
type SnapshotStore interface {
	Save(ctx context.Context, s finbridge.Snapshot) error
	Load(ctx context.Context) (finbridge.Snapshot, error)
}

// PollLog records every poll attempt.
type PollLog interface {
	Append(ctx context.Context, rec finbridge.PollRecord) error
}

// Update is fanned out to subscribers after every completed attempt,
// success or failure, so views re-render against the new snapshot or the
// unhealthy flag.
type Update struct {
	Success bool      `json:"success"`
	Healthy bool      `json:"healthy"`
	At      time.Time `json:"at"`
	Err     error     `json:"-"`
}

// Status is the read-only health summary of the refresh loop.
type Status struct {
	Healthy             bool      `json:"healthy"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	LastSuccess         time.Time `json:"last_success"`
	LastFailure         time.Time `json:"last_failure"`
	LastErrorKind       string    `json:"last_error_kind,omitempty"`
	LastError           string    `json:"last_error,omitempty"`
	SnapshotAt          time.Time `json:"snapshot_at"`
	IntervalSec         int       `json:"interval_sec"`
}

// Options tune the refresh loop.
type Options struct {
	// Interval between timer-driven polls.
	Interval time.Duration
	// FailureThreshold is the consecutive-failure count after which the
	// bridge reports unhealthy. Polling continues regardless.
	FailureThreshold int
}

// subscriber channels are buffered; a subscriber that stops draining loses
// updates rather than blocking the poll loop.
const subscriberBuffer = 8

// Coordinator owns the single periodic refresh loop and the authoritative
// snapshot. Single writer: only the poll-completion step replaces the
// snapshot pointer. Readers get the pointer as-is and must not mutate.
type Coordinator struct {
	fetch     Fetcher
	snapshots SnapshotStore // optional
	pollLog   PollLog       // optional
	log       *logger.Logger

	interval  time.Duration
	threshold int

	mu          sync.Mutex
	snap        *finbridge.Snapshot
	flight      *flight
	consecFails int
	lastSuccess time.Time
	lastFailure time.Time
	lastErr     error
	subs        map[string]chan Update
}

// flight is one in-progress poll cycle; concurrent refresh requests join
// it instead of fetching again.
type flight struct {
	done chan struct{}
	err  error
}

// New builds a coordinator. snapshots and pollLog may be nil; persistence
// is then skipped.
func New(fetch Fetcher, snapshots SnapshotStore, pollLog PollLog, log *logger.Logger, opts Options) (*Coordinator, error) {
	if fetch == nil {
		return nil, errors.New("coordinator: fetcher required")
	}
	if opts.Interval <= 0 {
		return nil, errors.New("coordinator: interval must be > 0")
	}
	if opts.FailureThreshold < 1 {
		return nil, errors.New("coordinator: failure threshold must be >= 1")
	}
	return &Coordinator{
		fetch:     fetch,
		snapshots: snapshots,
		pollLog:   pollLog,
		log:       log,
		interval:  opts.Interval,
		threshold: opts.FailureThreshold,
		subs:      make(map[string]chan Update),
	}, nil
}

// Restore loads the persisted snapshot, if any, so entities have data
// before the first poll completes.
func (c *Coordinator) Restore(ctx context.Context) error {
	if c.snapshots == nil {
		return nil
	}
	snap, err := c.snapshots.Load(ctx)
	if err != nil {
		return err
	}
	if snap.FetchedAt.IsZero() {
		return nil
	}
	c.mu.Lock()
	c.snap = &snap
	c.mu.Unlock()
	if c.log != nil {
		c.log.Infow("snapshot_restored", "fetched_at", snap.FetchedAt, "queries", len(snap.Queries))
	}
	return nil
}

// Snapshot returns the current snapshot, or nil before the first
// successful poll. Callers hold a read-only reference.
func (c *Coordinator) Snapshot() *finbridge.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap
}

// Healthy reports whether the consecutive-failure count is below the
// threshold.
func (c *Coordinator) Healthy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.consecFails < c.threshold
}

// Status returns the current loop health summary.
func (c *Coordinator) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := Status{
		Healthy:             c.consecFails < c.threshold,
		ConsecutiveFailures: c.consecFails,
		LastSuccess:         c.lastSuccess,
		LastFailure:         c.lastFailure,
		IntervalSec:         int(c.interval / time.Second),
	}
	if c.lastErr != nil {
		st.LastError = c.lastErr.Error()
		st.LastErrorKind = string(upstream.KindOf(c.lastErr))
	}
	if c.snap != nil {
		st.SnapshotAt = c.snap.FetchedAt
	}
	return st
}

// Subscribe registers an update channel and returns its ID for later
// removal. Sends never block; slow consumers drop updates.
func (c *Coordinator) Subscribe() (string, <-chan Update) {
	ch := make(chan Update, subscriberBuffer)
	id := uuid.NewString()

	c.mu.Lock()
	c.subs[id] = ch
	c.mu.Unlock()

	return id, ch
}

// Unsubscribe removes and closes a subscriber channel.
func (c *Coordinator) Unsubscribe(id string) {
	c.mu.Lock()
	ch, ok := c.subs[id]
	if ok {
		delete(c.subs, id)
	}
	c.mu.Unlock()

	if ok {
		close(ch)
	}
}

func (c *Coordinator) notify(u Update) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ch := range c.subs {
		select {
		case ch <- u:
		default:
		}
	}
}
