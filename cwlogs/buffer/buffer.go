// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package buffer

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/ioconnectservices/cloudwatch-dispatch/cwlogs/model"
)

// ErrInvalidCapacity is returned when a buffer is created with a non-positive capacity
var ErrInvalidCapacity = errors.New("buffer capacity must be positive")

// Buffer is a fixed-capacity holding area for records. Producers append without
// blocking; a single drainer takes everything out through QuiesceAndDrain.
//
// Admission is guarded by the flushing flag and the active writer counter: a writer
// registers itself, re-checks the flag and only then offers its record. The drainer
// raises the flag and waits for the counter to reach zero, so the drained snapshot
// never races with a half-finished append.
type Buffer struct {
	records  chan model.Record
	flushing atomic.Bool
	writers  atomic.Int32

	// quiesced is broadcast by the last writer leaving while flushing is raised
	quiesced *sync.Cond
	drainMu  sync.Mutex
}

// NewBuffer returns a new Buffer that holds at most capacity records.
func NewBuffer(capacity int) (*Buffer, error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	return &Buffer{
		records:  make(chan model.Record, capacity),
		quiesced: sync.NewCond(&sync.Mutex{}),
	}, nil
}

// Append admits the record unless the buffer is full or being drained.
func (b *Buffer) Append(r model.Record) bool {
	if b.flushing.Load() {
		return false
	}

	b.writers.Add(1)
	defer b.leave()

	if b.flushing.Load() {
		return false
	}

	select {
	case b.records <- r:
		return true
	default:
		return false
	}
}

func (b *Buffer) leave() {
	if b.writers.Add(-1) == 0 && b.flushing.Load() {
		b.quiesced.L.Lock()
		b.quiesced.Broadcast()
		b.quiesced.L.Unlock()
	}
}

// QuiesceAndDrain closes the buffer for new writers, waits for in-flight appends to
// complete, removes every buffered record in arrival order and reopens the buffer.
// There is no timeout: writers are expected to leave Append promptly.
func (b *Buffer) QuiesceAndDrain() []model.Record {
	b.drainMu.Lock()
	defer b.drainMu.Unlock()

	b.flushing.Store(true)
	defer b.flushing.Store(false)

	b.quiesced.L.Lock()
	for b.writers.Load() != 0 {
		b.quiesced.Wait()
	}
	b.quiesced.L.Unlock()

	n := len(b.records)
	if n == 0 {
		return nil
	}
	drained := make([]model.Record, 0, n)
	for i := 0; i < n; i++ {
		drained = append(drained, <-b.records)
	}
	return drained
}

// IsReady reports whether the buffer holds at least one record.
func (b *Buffer) IsReady() bool {
	return len(b.records) > 0
}

// IsFull reports whether the buffer has reached its capacity.
func (b *Buffer) IsFull() bool {
	return len(b.records) == cap(b.records)
}

// Len returns the number of buffered records.
func (b *Buffer) Len() int {
	return len(b.records)
}

// Cap returns the capacity of the buffer.
func (b *Buffer) Cap() int {
	return cap(b.records)
}
