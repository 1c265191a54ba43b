// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package buffer

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/ioconnectservices/cloudwatch-dispatch/cwlogs/model"
)

func TestPairFlipsOnOverflow(t *testing.T) {
	var overflows int
	p, err := NewPair(2, func() { overflows++ })
	require.NoError(t, err)

	bufs := p.Buffers()
	assert.Same(t, bufs[0], p.Active())

	assert.True(t, p.Append(model.NewRecord(1, "a")))
	assert.True(t, p.Append(model.NewRecord(2, "b")))
	assert.Equal(t, 0, overflows)
	assert.True(t, p.Idle(), "a full primary alone is not urgent")

	// primary is full, the record lands in secondary and the pair flips
	assert.True(t, p.Append(model.NewRecord(3, "c")))
	assert.Equal(t, 1, overflows)
	assert.Same(t, bufs[1], p.Active())
	assert.Equal(t, 1, bufs[1].Len())

	assert.True(t, p.Append(model.NewRecord(4, "d")))
	assert.Equal(t, 1, overflows, "the flipped pair writes to secondary first")
	assert.Equal(t, uint64(0), p.Lost())
	assert.False(t, p.Idle())
}

func TestPairCountsLoss(t *testing.T) {
	p, err := NewPair(1, nil)
	require.NoError(t, err)

	assert.True(t, p.Append(model.NewRecord(1, "a")))
	assert.True(t, p.Append(model.NewRecord(2, "b")))
	assert.False(t, p.Append(model.NewRecord(3, "c")))
	assert.False(t, p.Append(model.NewRecord(4, "d")))
	assert.Equal(t, uint64(2), p.Lost())
	assert.Equal(t, 2, p.Len())
}

func TestPairFallsBackWhileActiveIsFlushing(t *testing.T) {
	overflows := 0
	p, err := NewPair(4, func() { overflows++ })
	require.NoError(t, err)
	bufs := p.Buffers()

	bufs[0].flushing.Store(true)
	assert.True(t, p.Append(model.NewRecord(1, "a")))
	assert.Zero(t, overflows, "a draining buffer is not an overflow")
	assert.Same(t, bufs[1], p.Active())
	bufs[0].flushing.Store(false)
	assert.Equal(t, 0, bufs[0].Len())
	assert.Equal(t, 1, bufs[1].Len())
}

func TestPairNoLossWithinCapacity(t *testing.T) {
	const capacity = 1000
	const producers = 10

	p, err := NewPair(capacity, nil)
	require.NoError(t, err)

	var g errgroup.Group
	for i := 0; i < producers; i++ {
		g.Go(func() error {
			for j := 0; j < 2*capacity/producers; j++ {
				p.Append(model.NewRecord(int64(j), "msg"))
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, uint64(0), p.Lost())
	assert.Equal(t, 2*capacity, p.Len())
}

func TestPairLossAccountingOverCapacity(t *testing.T) {
	const capacity = 500
	const producers = 8
	const perProducer = 400

	p, err := NewPair(capacity, nil)
	require.NoError(t, err)

	var accepted atomic.Uint64
	var g errgroup.Group
	for i := 0; i < producers; i++ {
		g.Go(func() error {
			for j := 0; j < perProducer; j++ {
				if p.Append(model.NewRecord(int64(j), "msg")) {
					accepted.Add(1)
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	total := uint64(producers * perProducer)
	assert.Equal(t, total-p.Lost(), accepted.Load())
	assert.Equal(t, uint64(2*capacity), accepted.Load())
	assert.Equal(t, total-2*capacity, p.Lost())
}
