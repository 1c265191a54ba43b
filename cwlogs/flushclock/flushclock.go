// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package flushclock

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/ioconnectservices/cloudwatch-dispatch/cwlogs/clock"
)

// ErrInvalidInterval is returned for a non-positive flush interval
var ErrInvalidInterval = errors.New("flush interval must be positive")

// Wakeup tells why Await returned
type Wakeup int

const (
	// Due means the flush interval has elapsed.
	Due Wakeup = iota
	// Signaled means Signal interrupted the wait.
	Signaled
	// Urgent means the ready check refused to wait.
	Urgent
)

func (w Wakeup) String() string {
	switch w {
	case Due:
		return "due"
	case Signaled:
		return "signaled"
	case Urgent:
		return "urgent"
	}
	return "unknown"
}

// FlushClock schedules flush cycles. Await and MarkFlushed are called from the flush
// loop only; Signal may be called from any goroutine.
type FlushClock struct {
	clk         clock.Clock
	interval    time.Duration
	lastFlushAt atomic.Int64
	wake        chan struct{}
}

// New returns a FlushClock whose first flush is due one interval after creation.
func New(interval time.Duration, clk clock.Clock) (*FlushClock, error) {
	if interval <= 0 {
		return nil, ErrInvalidInterval
	}
	if clk == nil {
		clk = clock.Real()
	}
	c := &FlushClock{
		clk:      clk,
		interval: interval,
		wake:     make(chan struct{}, 1),
	}
	c.lastFlushAt.Store(clk.Now().UnixNano())
	return c, nil
}

// Await blocks until the next flush is due or Signal is called. When ready is not nil
// and reports false there is something urgent to flush and Await returns at once.
func (c *FlushClock) Await(ready func() bool) Wakeup {
	now := c.clk.Now()
	nextDue := c.NextDue()
	if !now.Before(nextDue) {
		return Due
	}
	if ready != nil && !ready() {
		return Urgent
	}

	timer := c.clk.NewTimer(nextDue.Sub(now))
	defer timer.Stop()

	select {
	case <-c.wake:
		return Signaled
	case <-timer.C():
		return Due
	}
}

// Signal wakes the waiter. A signal sent while nobody waits is kept for the next Await.
func (c *FlushClock) Signal() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// MarkFlushed records the end of a flush cycle. The recorded time never moves back.
func (c *FlushClock) MarkFlushed(t time.Time) {
	ns := t.UnixNano()
	if ns > c.lastFlushAt.Load() {
		c.lastFlushAt.Store(ns)
	}
}

// LastFlushAt returns the time of the last completed flush cycle.
func (c *FlushClock) LastFlushAt() time.Time {
	return time.Unix(0, c.lastFlushAt.Load())
}

// NextDue returns the time at which the next flush becomes due.
func (c *FlushClock) NextDue() time.Time {
	return c.LastFlushAt().Add(c.interval)
}

// Interval returns the flush interval.
func (c *FlushClock) Interval() time.Duration {
	return c.interval
}
