// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package planner turns an unordered set of drained records into batches the
// remote sink accepts: ordered by timestamp, never older than what was already
// emitted to the destination, and within the count and size limits of one call.
package planner

import (
	"sort"

	"github.com/ioconnectservices/cloudwatch-dispatch/cwlogs/model"
)

// Plan orders, repairs and partitions records using DefaultLimits.
// See PlanWithLimits.
func Plan(records []model.Record, lastEmitted int64) ([][]model.Record, int64) {
	return PlanWithLimits(records, lastEmitted, DefaultLimits)
}

// PlanWithLimits takes ownership of records: the slice is sorted in place and its
// timestamps may be raised. It returns the batches in emission order and the
// timestamp of the last planned record, or lastEmitted when there is nothing to plan.
func PlanWithLimits(records []model.Record, lastEmitted int64, limits Limits) ([][]model.Record, int64) {
	if len(records) == 0 {
		return nil, lastEmitted
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp < records[j].Timestamp
	})
	repairTimestamps(records, lastEmitted)

	var batches [][]model.Record
	cur := newBatch(limits)
	for _, r := range records {
		size := limits.EventSize(r)
		if !cur.accepts(size) {
			batches = append(batches, cur.records)
			cur = newBatch(limits)
		}
		cur.addRecord(r, size)
	}
	batches = append(batches, cur.records)

	return batches, records[len(records)-1].Timestamp
}

// repairTimestamps raises the timestamps of sorted records that are older than the
// last emitted one. An unset (zero) lastEmitted leaves records untouched.
func repairTimestamps(sorted []model.Record, lastEmitted int64) {
	if lastEmitted <= 0 {
		return
	}
	for i := range sorted {
		if sorted[i].Timestamp >= lastEmitted {
			return
		}
		sorted[i].Timestamp = lastEmitted
	}
}
