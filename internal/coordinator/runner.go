package coordinator

import (
	"context"
	"time"
)

// Run drives the refresh loop until ctx is canceled: one immediate poll so
// entities have data shortly after startup, then one poll per tick. A
// failed poll does not retry early; it waits for the next tick. Cancelling
// ctx stops the timer; an in-flight poll completes and its result is
// discarded with the ctx error.
func (c *Coordinator) Run(ctx context.Context) {
	_ = c.Refresh(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = c.Refresh(ctx)
		}
	}
}
