// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"github.com/ioconnectservices/cloudwatch-dispatch/cwlogs/buffer"
	"github.com/ioconnectservices/cloudwatch-dispatch/cwlogs/clock"
	"github.com/ioconnectservices/cloudwatch-dispatch/cwlogs/flushclock"
	"github.com/ioconnectservices/cloudwatch-dispatch/cwlogs/model"
	"github.com/ioconnectservices/cloudwatch-dispatch/cwlogs/planner"
)

// CycleField is the log field carrying the id of a flush cycle. Every entry logged
// while flushing carries it.
const CycleField = "cycle"

// ErrNilTransport is returned when a dispatcher is created without a transport
var ErrNilTransport = errors.New("dispatcher requires a transport")

// Transport delivers one planned batch to the destination. It is called from the
// flush goroutine, once per batch, in planner order. The dispatcher neither retries
// nor re-buffers a batch whose Send failed.
type Transport interface {
	Send(ctx context.Context, dst model.Destination, batch []model.Record) error
}

// Config holds the already validated settings of a Dispatcher.
type Config struct {
	// Capacity is the number of records each of the two buffers holds.
	Capacity int
	// FlushInterval is the time between scheduled flush cycles.
	FlushInterval time.Duration
	// Destination is the log group and stream the records are sent to.
	Destination model.Destination
	// SendTimeout bounds a single Transport.Send call. Zero means no bound.
	SendTimeout time.Duration
}

// Option customizes a Dispatcher
type Option func(*Dispatcher)

// WithClock replaces the wall clock used by the flush scheduler.
func WithClock(clk clock.Clock) Option {
	return func(d *Dispatcher) {
		d.clk = clk
	}
}

// Dispatcher buffers records from any number of producers and ships them to a
// Transport from a single flush goroutine.
type Dispatcher struct {
	cfg        Config
	transport  Transport
	clk        clock.Clock
	pair       *buffer.Pair
	flushClock *flushclock.FlushClock
	metrics    *metrics

	accepted      atomic.Uint64
	flushed       atomic.Uint64
	batchesSent   atomic.Uint64
	sendFailures  atomic.Uint64
	failedRecords atomic.Uint64
	cycles        atomic.Uint64

	// lastEmitted is the destination flush state, written by the flusher only
	lastEmitted atomic.Int64

	lifecycleMu sync.Mutex
	started     bool
	stopped     bool
	stopping    atomic.Bool
	loopDone    chan struct{}

	// admitMu is read-held by Append across the stopping check and the buffer append.
	// Stop takes it once after raising stopping, so no append can land after the
	// final flush.
	admitMu sync.RWMutex
}

// New returns a Dispatcher that is ready to accept records. Call Start to begin
// scheduled flushing and Stop to flush what is left and release the flush goroutine.
func New(cfg Config, transport Transport, opts ...Option) (*Dispatcher, error) {
	if transport == nil {
		return nil, ErrNilTransport
	}

	d := &Dispatcher{
		cfg:       cfg,
		transport: transport,
		clk:       clock.Real(),
		loopDone:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}

	var err error
	if d.flushClock, err = flushclock.New(cfg.FlushInterval, d.clk); err != nil {
		return nil, fmt.Errorf("could not create flush clock: %w", err)
	}
	if d.pair, err = buffer.NewPair(cfg.Capacity, d.flushClock.Signal); err != nil {
		return nil, fmt.Errorf("could not create buffers: %w", err)
	}
	d.metrics = newMetrics(d)

	return d, nil
}

// Append offers a record to the buffers. It never blocks and returns false when the
// record was dropped, either because both buffers are full or being flushed, or
// because the dispatcher has been stopped.
func (d *Dispatcher) Append(timestampMillis int64, message string) bool {
	d.admitMu.RLock()
	defer d.admitMu.RUnlock()

	if d.stopping.Load() {
		return false
	}
	if d.pair.Append(model.NewRecord(timestampMillis, message)) {
		d.accepted.Add(1)
		return true
	}
	return false
}

// Start launches the flush goroutine. Calling Start more than once has no effect.
func (d *Dispatcher) Start() {
	d.lifecycleMu.Lock()
	defer d.lifecycleMu.Unlock()
	if d.started || d.stopped {
		return
	}
	d.started = true

	log.WithField("destination", d.cfg.Destination.String()).
		Debugf("Starting dispatcher (capacity=%d, interval=%s)", d.cfg.Capacity, d.cfg.FlushInterval)
	go d.flushLoop()
}

// Stop wakes and joins the flush goroutine, then runs a final flush of both buffers.
// It returns once every record buffered at that moment was handed to the transport.
func (d *Dispatcher) Stop() {
	d.lifecycleMu.Lock()
	defer d.lifecycleMu.Unlock()
	if d.stopped {
		return
	}
	d.stopped = true
	d.stopping.Store(true)

	// wait out producers that passed the stopping check before it was raised
	d.admitMu.Lock()
	d.admitMu.Unlock()

	if d.started {
		d.flushClock.Signal()
		<-d.loopDone
	}
	d.flushAll("shutdown")

	if lost := d.pair.Lost(); lost > 0 {
		log.WithField("destination", d.cfg.Destination.String()).Warnf("Dispatcher stopped, %d records were lost", lost)
	}
}

// Flush asks the flush goroutine to run a cycle now instead of waiting for the interval.
func (d *Dispatcher) Flush() {
	d.flushClock.Signal()
}

// Lost returns the number of records dropped because both buffers rejected them.
func (d *Dispatcher) Lost() uint64 {
	return d.pair.Lost()
}

// Registry returns the registry holding the dispatcher metrics.
func (d *Dispatcher) Registry() *prometheus.Registry {
	return d.metrics.registry
}

// Destination returns the destination records are sent to.
func (d *Dispatcher) Destination() model.Destination {
	return d.cfg.Destination
}

func (d *Dispatcher) flushLoop() {
	defer close(d.loopDone)
	for !d.stopping.Load() {
		wakeup := d.flushClock.Await(d.pair.Idle)
		if d.stopping.Load() {
			return
		}
		d.flushAll(wakeup.String())
	}
}

func (d *Dispatcher) flushAll(reason string) {
	start := d.clk.Now()
	for _, b := range d.pair.Buffers() {
		d.flushCycle(b, reason)
	}
	end := d.clk.Now()

	d.cycles.Add(1)
	d.flushClock.MarkFlushed(end)
	d.metrics.cycleDuration.Observe(end.Sub(start).Seconds())
}

func (d *Dispatcher) flushCycle(b *buffer.Buffer, reason string) {
	if !b.IsReady() {
		return
	}
	records := b.QuiesceAndDrain()
	if len(records) == 0 {
		return
	}

	batches, last := planner.Plan(records, d.lastEmitted.Load())
	d.lastEmitted.Store(last)

	logger := log.WithFields(log.Fields{
		CycleField:    uuid.New().String(),
		"reason":      reason,
		"destination": d.cfg.Destination.String(),
		"records":     len(records),
		"batches":     len(batches),
	})
	logger.Debug("Flushing buffer")

	for i, batch := range batches {
		if err := d.send(batch); err != nil {
			d.sendFailures.Add(1)
			d.failedRecords.Add(uint64(len(batch)))
			logger.WithError(err).Warnf("Failed to send batch %d/%d (%d records)", i+1, len(batches), len(batch))
			continue
		}
		d.batchesSent.Add(1)
		d.flushed.Add(uint64(len(batch)))
	}
}

func (d *Dispatcher) send(batch []model.Record) (err error) {
	ctx := context.Background()
	if d.cfg.SendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.cfg.SendTimeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("transport panicked: %v", r)
		}
	}()

	return d.transport.Send(ctx, d.cfg.Destination, batch)
}
