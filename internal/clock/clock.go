// Package clock drives the cosmetic wall clock shown in the header. It performs no I/O
// and never reads or writes weather state.
package clock

import (
	"context"
	"time"
)

// Interval is how often the displayed time advances.
const Interval = time.Second

// Clock calls OnTick with the current time once per interval.
type Clock struct {
	interval time.Duration
	now      func() time.Time
	onTick   func(time.Time)
}

func New(onTick func(time.Time)) *Clock {
	return &Clock{interval: Interval, now: time.Now, onTick: onTick}
}

// Run ticks until ctx is done. The first tick fires immediately.
func (c *Clock) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.tick(c.now())
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-ticker.C:
			c.tick(t)
		}
	}
}

func (c *Clock) tick(t time.Time) {
	if c.onTick != nil {
		c.onTick(t)
	}
}
