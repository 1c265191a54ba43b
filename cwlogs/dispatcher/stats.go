// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package dispatcher

import (
	"time"

	"github.com/ioconnectservices/cloudwatch-dispatch/cwlogs/model"
)

// Stats is a point-in-time view of the dispatcher counters.
type Stats struct {
	Destination          model.Destination `json:"destination"`
	Buffered             int               `json:"buffered"`
	Accepted             uint64            `json:"accepted"`
	Lost                 uint64            `json:"lost"`
	Flushed              uint64            `json:"flushed"`
	BatchesSent          uint64            `json:"batchesSent"`
	SendFailures         uint64            `json:"sendFailures"`
	FailedRecords        uint64            `json:"failedRecords"`
	Cycles               uint64            `json:"cycles"`
	LastEmittedTimestamp int64             `json:"lastEmittedTimestamp"`
	LastFlushAt          time.Time         `json:"lastFlushAt"`
	NextFlushAt          time.Time         `json:"nextFlushAt"`
}

// Stats returns the current counters.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Destination:          d.cfg.Destination,
		Buffered:             d.pair.Len(),
		Accepted:             d.accepted.Load(),
		Lost:                 d.pair.Lost(),
		Flushed:              d.flushed.Load(),
		BatchesSent:          d.batchesSent.Load(),
		SendFailures:         d.sendFailures.Load(),
		FailedRecords:        d.failedRecords.Load(),
		Cycles:               d.cycles.Load(),
		LastEmittedTimestamp: d.lastEmitted.Load(),
		LastFlushAt:          d.flushClock.LastFlushAt().UTC(),
		NextFlushAt:          d.flushClock.NextDue().UTC(),
	}
}
