// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package buffer

import (
	"sync/atomic"

	"github.com/ioconnectservices/cloudwatch-dispatch/cwlogs/model"
)

// Pair is a double buffer. Producers append to the active buffer and move to the
// other one when it rejects, so one buffer can be drained while the other keeps
// absorbing writes. Records rejected by both buffers are counted as lost.
type Pair struct {
	primary   *Buffer
	secondary *Buffer
	active    atomic.Pointer[Buffer]
	lost      atomic.Uint64

	onOverflow func()
}

// NewPair returns a Pair of two buffers of the given capacity. onOverflow, if not nil,
// is called every time the active buffer rejects a record because it is full. A
// rejection caused by an ongoing drain does not call it. It runs on the producer
// goroutine and must not block.
func NewPair(capacity int, onOverflow func()) (*Pair, error) {
	primary, err := NewBuffer(capacity)
	if err != nil {
		return nil, err
	}
	secondary, err := NewBuffer(capacity)
	if err != nil {
		return nil, err
	}

	p := &Pair{
		primary:    primary,
		secondary:  secondary,
		onOverflow: onOverflow,
	}
	p.active.Store(primary)
	return p, nil
}

// Append never blocks. It returns false when the record was dropped.
func (p *Pair) Append(r model.Record) bool {
	first := p.active.Load()
	if first.Append(r) {
		return true
	}

	if p.onOverflow != nil && first.IsFull() {
		p.onOverflow()
	}

	second := p.other(first)
	if second.Append(r) {
		// Losing the race means another producer already flipped the pair.
		p.active.CompareAndSwap(first, second)
		return true
	}

	p.lost.Add(1)
	return false
}

func (p *Pair) other(b *Buffer) *Buffer {
	if b == p.primary {
		return p.secondary
	}
	return p.primary
}

// Lost returns the number of records dropped because both buffers rejected them.
func (p *Pair) Lost() uint64 {
	return p.lost.Load()
}

// Buffers returns both buffers, primary first.
func (p *Pair) Buffers() [2]*Buffer {
	return [2]*Buffer{p.primary, p.secondary}
}

// Active returns the buffer producers currently try first.
func (p *Pair) Active() *Buffer {
	return p.active.Load()
}

// Idle reports whether at most one buffer holds records. Once both do, producers have
// spilled over into the second buffer and a flush is urgent.
func (p *Pair) Idle() bool {
	return !p.primary.IsReady() || !p.secondary.IsReady()
}

// Len returns the number of records held by both buffers.
func (p *Pair) Len() int {
	return p.primary.Len() + p.secondary.Len()
}
