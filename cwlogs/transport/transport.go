// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package transport holds the local delivery paths of the dispatcher: an io.Writer sink
// and forwarders to TCP or HTTP relays. Every type here satisfies dispatcher.Transport.
package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/ioconnectservices/cloudwatch-dispatch/cwlogs/model"
)

// Func adapts an ordinary function to a transport.
type Func func(ctx context.Context, dst model.Destination, batch []model.Record) error

func (f Func) Send(ctx context.Context, dst model.Destination, batch []model.Record) error {
	return f(ctx, dst, batch)
}

// event is the wire form of a record outside CloudWatch
type event struct {
	Timestamp int64  `json:"timestamp"`
	Message   string `json:"message"`
	Group     string `json:"group"`
	Stream    string `json:"stream"`
}

func toEvents(dst model.Destination, batch []model.Record) []event {
	events := make([]event, len(batch))
	for i, r := range batch {
		events[i] = event{
			Timestamp: r.Timestamp,
			Message:   r.Message,
			Group:     dst.Group,
			Stream:    dst.Stream,
		}
	}
	return events
}

// WriterTransport writes each record as one JSON line.
type WriterTransport struct {
	mu  sync.Mutex
	out io.Writer
}

func NewWriterTransport(out io.Writer) *WriterTransport {
	return &WriterTransport{out: out}
}

func (w *WriterTransport) Send(ctx context.Context, dst model.Destination, batch []model.Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	enc := json.NewEncoder(w.out)
	for _, ev := range toEvents(dst, batch) {
		select {
		case <-ctx.Done():
			return fmt.Errorf("writing events was interrupted: %w", ctx.Err())
		default:
		}
		if err := enc.Encode(ev); err != nil {
			return fmt.Errorf("could not write event: %w", err)
		}
	}
	return nil
}
