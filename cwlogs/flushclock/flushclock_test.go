// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package flushclock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ioconnectservices/cloudwatch-dispatch/cwlogs/testdata/mockclock"
)

var start = time.Date(2017, time.March, 1, 12, 0, 0, 0, time.UTC)

func alwaysReady() bool { return true }

func TestNewInvalidInterval(t *testing.T) {
	_, err := New(0, nil)
	assert.ErrorIs(t, err, ErrInvalidInterval)
}

func TestAwaitReturnsWhenDue(t *testing.T) {
	clk := mockclock.New(start)
	c, err := New(time.Minute, clk)
	require.NoError(t, err)

	clk.Advance(time.Minute)
	assert.Equal(t, Due, c.Await(alwaysReady))
	assert.Equal(t, 0, clk.PendingTimers())
}

func TestAwaitWaitsForInterval(t *testing.T) {
	clk := mockclock.New(start)
	c, err := New(time.Minute, clk)
	require.NoError(t, err)

	done := make(chan Wakeup, 1)
	go func() { done <- c.Await(alwaysReady) }()

	require.Eventually(t, func() bool { return clk.PendingTimers() == 1 }, time.Second, time.Millisecond)
	clk.Advance(30 * time.Second)
	select {
	case <-done:
		t.Fatal("Await returned before the interval elapsed")
	case <-time.After(20 * time.Millisecond):
	}

	clk.Advance(30 * time.Second)
	select {
	case w := <-done:
		assert.Equal(t, Due, w)
	case <-time.After(time.Second):
		t.Fatal("Await did not return after the interval elapsed")
	}
}

func TestAwaitInterruptedBySignal(t *testing.T) {
	clk := mockclock.New(start)
	c, err := New(time.Hour, clk)
	require.NoError(t, err)

	done := make(chan Wakeup, 1)
	go func() { done <- c.Await(alwaysReady) }()

	require.Eventually(t, func() bool { return clk.PendingTimers() == 1 }, time.Second, time.Millisecond)
	c.Signal()

	select {
	case w := <-done:
		assert.Equal(t, Signaled, w)
	case <-time.After(time.Second):
		t.Fatal("Signal did not interrupt Await")
	}
	assert.Equal(t, 0, clk.PendingTimers(), "the timer must be stopped")
}

func TestSignalBeforeAwaitIsKept(t *testing.T) {
	c, err := New(time.Hour, mockclock.New(start))
	require.NoError(t, err)

	c.Signal()
	c.Signal()
	assert.Equal(t, Signaled, c.Await(alwaysReady))
}

func TestAwaitDoesNotWaitWhenUrgent(t *testing.T) {
	clk := mockclock.New(start)
	c, err := New(time.Hour, clk)
	require.NoError(t, err)

	assert.Equal(t, Urgent, c.Await(func() bool { return false }))
	assert.Equal(t, 0, clk.PendingTimers())
}

func TestMarkFlushedIsMonotonic(t *testing.T) {
	clk := mockclock.New(start)
	c, err := New(time.Minute, clk)
	require.NoError(t, err)
	assert.Equal(t, start.Add(time.Minute).UnixNano(), c.NextDue().UnixNano())

	c.MarkFlushed(start.Add(10 * time.Second))
	assert.Equal(t, start.Add(10*time.Second).UnixNano(), c.LastFlushAt().UnixNano())

	c.MarkFlushed(start)
	assert.Equal(t, start.Add(10*time.Second).UnixNano(), c.LastFlushAt().UnixNano())
	assert.Equal(t, start.Add(70*time.Second).UnixNano(), c.NextDue().UnixNano())
}

func TestWakeupString(t *testing.T) {
	assert.Equal(t, "due", Due.String())
	assert.Equal(t, "signaled", Signaled.String())
	assert.Equal(t, "urgent", Urgent.String())
}
