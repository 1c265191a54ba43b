// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package planner

import "github.com/ioconnectservices/cloudwatch-dispatch/cwlogs/model"

// Limits are the hard constraints of a single PutLogEvents call.
type Limits struct {
	// MaxCount bounds the number of records: a batch grows while count+1 < MaxCount.
	MaxCount int
	// MaxBytes bounds the estimated payload: a batch grows while bytes+size < MaxBytes.
	MaxBytes int
	// EventOverhead is the fixed per-record envelope cost added to the message estimate.
	EventOverhead int
}

// DefaultLimits are the CloudWatch Logs limits.
var DefaultLimits = Limits{
	MaxCount:      10000,
	MaxBytes:      1048576,
	EventOverhead: 26,
}

// EventSize is a conservative estimate of the bytes a record occupies in a batch:
// four bytes per UTF-16 code unit of the message plus the envelope overhead.
func (l Limits) EventSize(r model.Record) int {
	return utf16Len(r.Message)*4 + l.EventOverhead
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		if r > 0xFFFF {
			n += 2
		} else {
			n++
		}
	}
	return n
}

type batch struct {
	records   []model.Record
	sizeBytes int
	limits    Limits
}

func newBatch(limits Limits) *batch {
	return &batch{limits: limits}
}

// accepts reports whether a record of the given size can join the batch. An empty
// batch takes any record, so an oversized record still ships on its own.
func (b *batch) accepts(size int) bool {
	if len(b.records) == 0 {
		return true
	}
	return len(b.records)+1 < b.limits.MaxCount && b.sizeBytes+size < b.limits.MaxBytes
}

func (b *batch) addRecord(r model.Record, size int) {
	b.records = append(b.records, r)
	b.sizeBytes += size
}
