package coordinator

import (
	"context"
	"encoding/json"
	"time"

	"finbridge"
	"finbridge/internal/upstream"

	"github.com/google/uuid"
)

// Refresh runs one poll cycle, or joins the cycle already in flight: at
// most one fetch cycle executes concurrently, and every caller observes
// that cycle's outcome. Used by the timer loop and by manual refresh
// requests alike.
func (c *Coordinator) Refresh(ctx context.Context) error {
	c.mu.Lock()
	if f := c.flight; f != nil {
		c.mu.Unlock()
		select {
		case <-f.done:
			return f.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	f := &flight{done: make(chan struct{})}
	c.flight = f
	c.mu.Unlock()

	f.err = c.poll(ctx)

	c.mu.Lock()
	c.flight = nil
	c.mu.Unlock()
	close(f.done)

	return f.err
}

// poll performs one fetch cycle and commits its outcome: on success the
// snapshot is replaced wholesale, on failure it is left untouched and the
// failure counter grows. Either way, subscribers are notified and the
// attempt is recorded.
func (c *Coordinator) poll(ctx context.Context) error {
	started := time.Now()
	snap, err := c.buildSnapshot(ctx)
	now := time.Now().UTC()

	c.mu.Lock()
	if err != nil {
		c.consecFails++
		c.lastFailure = now
		c.lastErr = err
	} else {
		c.snap = snap
		c.consecFails = 0
		c.lastSuccess = now
		c.lastErr = nil
	}
	fails := c.consecFails
	healthy := fails < c.threshold
	c.mu.Unlock()

	if err != nil {
		if c.log != nil {
			c.log.Warnw("poll_failed",
				"err", err,
				"kind", upstream.KindOf(err),
				"consecutive_failures", fails,
				"healthy", healthy,
			)
		}
	} else {
		c.persist(ctx, snap)
		if c.log != nil {
			c.log.Debugw("poll_ok",
				"queries", len(snap.Queries),
				"sensors", len(snap.Sensors),
				"calendars", len(snap.Calendars),
				"elapsed", time.Since(started),
			)
		}
	}

	c.record(ctx, now, started, err)
	c.notify(Update{Success: err == nil, Healthy: healthy, At: now, Err: err})
	return err
}

// buildSnapshot assembles a complete new snapshot. The queries fetch is
// load-bearing: if it fails, the cycle fails. Individual sensor/calendar
// fetches are best effort — a query whose data cannot be fetched is simply
// absent from the snapshot and its entity reports unknown. Unauthorized on
// any sub-fetch fails the whole cycle; the credential is gone, not the
// query.
func (c *Coordinator) buildSnapshot(ctx context.Context) (*finbridge.Snapshot, error) {
	queries, err := c.fetch.Queries(ctx)
	if err != nil {
		return nil, err
	}

	snap := &finbridge.Snapshot{
		Queries:   queries,
		Sensors:   make(map[string]json.RawMessage),
		Calendars: make(map[string][]finbridge.CalendarEvent),
	}

	for _, q := range snap.SensorQueries() {
		data, err := c.fetch.SensorData(ctx, q.ID)
		if err != nil {
			if abort := c.subFetchFailed(ctx, "sensor", q.ID, err); abort != nil {
				return nil, abort
			}
			continue
		}
		snap.Sensors[q.ID] = data
	}

	for _, q := range snap.CalendarQueries() {
		events, err := c.fetch.CalendarEvents(ctx, q.ID)
		if err != nil {
			if abort := c.subFetchFailed(ctx, "calendar", q.ID, err); abort != nil {
				return nil, abort
			}
			continue
		}
		snap.Calendars[q.ID] = events
	}

	if dash, err := c.fetch.Dashboard(ctx); err == nil {
		snap.Dashboard = dash
	} else if c.log != nil {
		c.log.Debugw("dashboard_fetch_skipped", "err", err)
	}

	snap.FetchedAt = time.Now().UTC()
	return snap, nil
}

// subFetchFailed decides whether a per-query failure aborts the cycle.
// Cancellation and credential failures abort; anything else skips the
// query.
func (c *Coordinator) subFetchFailed(ctx context.Context, resource, queryID string, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if upstream.IsKind(err, upstream.KindUnauthorized) {
		return err
	}
	if c.log != nil {
		c.log.Warnw("query_fetch_skipped", "resource", resource, "query_id", queryID, "err", err)
	}
	return nil
}

// persist saves the committed snapshot; persistence failures degrade the
// restart experience only, so they are logged and swallowed.
func (c *Coordinator) persist(ctx context.Context, snap *finbridge.Snapshot) {
	if c.snapshots == nil {
		return
	}
	if err := c.snapshots.Save(ctx, *snap); err != nil && c.log != nil {
		c.log.Errorw("snapshot_persist_failed", "err", err)
	}
}

// record appends the attempt to the poll log.
func (c *Coordinator) record(ctx context.Context, at time.Time, started time.Time, pollErr error) {
	if c.pollLog == nil {
		return
	}
	rec := finbridge.PollRecord{
		ID:        uuid.NewString(),
		At:        at,
		Outcome:   finbridge.PollSuccess,
		ElapsedMS: time.Since(started).Milliseconds(),
	}
	if pollErr != nil {
		rec.Outcome = finbridge.PollFailure
		rec.ErrorKind = string(upstream.KindOf(pollErr))
		rec.Detail = pollErr.Error()
	}
	if err := c.pollLog.Append(ctx, rec); err != nil && c.log != nil {
		c.log.Errorw("poll_record_failed", "err", err)
	}
}
