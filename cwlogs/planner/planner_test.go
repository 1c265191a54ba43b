// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package planner

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ioconnectservices/cloudwatch-dispatch/cwlogs/model"
)

func records(timestamps ...int64) []model.Record {
	rs := make([]model.Record, 0, len(timestamps))
	for _, ts := range timestamps {
		rs = append(rs, model.NewRecord(ts, "m"))
	}
	return rs
}

func timestamps(rs []model.Record) []int64 {
	ts := make([]int64, 0, len(rs))
	for _, r := range rs {
		ts = append(ts, r.Timestamp)
	}
	return ts
}

func TestPlanEmpty(t *testing.T) {
	batches, last := Plan(nil, 1234)
	assert.Empty(t, batches)
	assert.Equal(t, int64(1234), last)
}

func TestPlanSortsAndTracksLast(t *testing.T) {
	batches, last := Plan(records(5, 1, 3), 0)
	require.Len(t, batches, 1)
	assert.Equal(t, []int64{1, 3, 5}, timestamps(batches[0]))
	assert.Equal(t, int64(5), last)
}

func TestPlanTimestampRepair(t *testing.T) {
	in := []model.Record{
		model.NewRecord(500, "first below"),
		model.NewRecord(1500, "above"),
		model.NewRecord(900, "second below"),
	}

	batches, last := Plan(in, 1000)
	require.Len(t, batches, 1)
	assert.Equal(t, []int64{1000, 1000, 1500}, timestamps(batches[0]))
	assert.Equal(t, "first below", batches[0][0].Message)
	assert.Equal(t, "second below", batches[0][1].Message)
	assert.Equal(t, int64(1500), last)
}

func TestPlanRepairAllBelow(t *testing.T) {
	batches, last := Plan(records(10, 20), 1000)
	require.Len(t, batches, 1)
	assert.Equal(t, []int64{1000, 1000}, timestamps(batches[0]))
	assert.Equal(t, int64(1000), last)
}

func TestPlanStableForEqualTimestamps(t *testing.T) {
	in := []model.Record{
		model.NewRecord(2, "a"),
		model.NewRecord(1, "b"),
		model.NewRecord(2, "c"),
		model.NewRecord(1, "d"),
	}
	batches, _ := Plan(in, 0)
	require.Len(t, batches, 1)

	var msgs []string
	for _, r := range batches[0] {
		msgs = append(msgs, r.Message)
	}
	assert.Equal(t, []string{"b", "d", "a", "c"}, msgs)
}

func TestPlanIdempotentOnOrderedInput(t *testing.T) {
	in := records(100, 200, 200, 300)
	want := records(100, 200, 200, 300)

	batches, last := Plan(in, 100)
	require.Len(t, batches, 1)
	assert.Equal(t, want, batches[0])
	assert.Equal(t, int64(300), last)
}

func TestPlanCountLimit(t *testing.T) {
	in := make([]model.Record, 10000)
	for i := range in {
		in[i] = model.NewRecord(int64(i), "")
	}

	batches, last := Plan(in, 0)
	require.Len(t, batches, 2)
	assert.Len(t, batches[0], 9999)
	assert.Len(t, batches[1], 1)
	assert.Equal(t, int64(9999), batches[1][0].Timestamp)
	assert.Equal(t, int64(9999), last)
}

func TestPlanByteLimit(t *testing.T) {
	// each record costs 1000*4+26 = 4026 bytes, 260 of them stay below 1MiB
	msg := strings.Repeat("x", 1000)
	in := make([]model.Record, 300)
	for i := range in {
		in[i] = model.NewRecord(int64(i), msg)
	}

	batches, _ := Plan(in, 0)
	require.Len(t, batches, 2)
	assert.Len(t, batches[0], 260)
	assert.Len(t, batches[1], 40)
}

func TestPlanOversizedRecord(t *testing.T) {
	huge := strings.Repeat("x", DefaultLimits.MaxBytes/4)
	in := []model.Record{
		model.NewRecord(1, "small"),
		model.NewRecord(2, huge),
		model.NewRecord(3, "small"),
	}

	batches, _ := Plan(in, 0)
	require.Len(t, batches, 3)
	for i, b := range batches {
		assert.Len(t, b, 1, "batch %d", i)
	}
	assert.Equal(t, huge, batches[1][0].Message)
}

func TestPlanSingleOversizedRecord(t *testing.T) {
	huge := strings.Repeat("x", DefaultLimits.MaxBytes)
	batches, last := Plan([]model.Record{model.NewRecord(7, huge)}, 0)
	require.Len(t, batches, 1)
	assert.Len(t, batches[0], 1)
	assert.Equal(t, int64(7), last)
}

func TestPlanWithLimits(t *testing.T) {
	limits := Limits{MaxCount: 3, MaxBytes: 1 << 20, EventOverhead: 0}
	batches, _ := PlanWithLimits(records(1, 2, 3, 4, 5), 0, limits)
	require.Len(t, batches, 3)
	assert.Equal(t, []int64{1, 2}, timestamps(batches[0]))
	assert.Equal(t, []int64{3, 4}, timestamps(batches[1]))
	assert.Equal(t, []int64{5}, timestamps(batches[2]))
}

func TestEventSize(t *testing.T) {
	tests := []struct {
		name    string
		message string
		size    int
	}{
		{name: "empty", message: "", size: 26},
		{name: "ascii", message: "abc", size: 3*4 + 26},
		{name: "two_byte_utf8", message: "żółw", size: 4*4 + 26},
		{name: "surrogate_pair", message: "😀", size: 2*4 + 26},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.size, DefaultLimits.EventSize(model.NewRecord(0, tt.message)))
		})
	}
}

func BenchmarkPlan(b *testing.B) {
	src := make([]model.Record, 20000)
	for i := range src {
		src[i] = model.NewRecord(int64(len(src)-i), "benchmark message payload")
	}
	work := make([]model.Record, len(src))

	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		copy(work, src)
		Plan(work, 0)
	}
}
