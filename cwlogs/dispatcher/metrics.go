// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package dispatcher

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "cwlogs"

type metrics struct {
	registry      *prometheus.Registry
	cycleDuration prometheus.Histogram
}

// newMetrics exposes the dispatcher counters through a private registry. The counters
// themselves stay plain atomics so the append path does not depend on prometheus.
func newMetrics(d *Dispatcher) *metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	labels := prometheus.Labels{
		"group":  d.cfg.Destination.Group,
		"stream": d.cfg.Destination.Stream,
	}

	counter := func(name, help string, v *atomic.Uint64) {
		factory.NewCounterFunc(prometheus.CounterOpts{
			Namespace:   metricsNamespace,
			Name:        name,
			Help:        help,
			ConstLabels: labels,
		}, func() float64 { return float64(v.Load()) })
	}
	counter("records_accepted_total", "Records admitted into a buffer.", &d.accepted)
	counter("records_flushed_total", "Records handed to the transport in successful batches.", &d.flushed)
	counter("records_failed_total", "Records in batches the transport failed to send.", &d.failedRecords)
	counter("batches_sent_total", "Batches sent successfully.", &d.batchesSent)
	counter("send_failures_total", "Batches the transport failed to send.", &d.sendFailures)
	counter("flush_cycles_total", "Completed flush cycles.", &d.cycles)

	factory.NewCounterFunc(prometheus.CounterOpts{
		Namespace:   metricsNamespace,
		Name:        "records_lost_total",
		Help:        "Records dropped because both buffers rejected them.",
		ConstLabels: labels,
	}, func() float64 { return float64(d.pair.Lost()) })

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace:   metricsNamespace,
		Name:        "buffered_records",
		Help:        "Records currently held by the buffers.",
		ConstLabels: labels,
	}, func() float64 { return float64(d.pair.Len()) })

	return &metrics{
		registry: reg,
		cycleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   metricsNamespace,
			Name:        "flush_cycle_duration_seconds",
			Help:        "Time spent draining, planning and sending one flush cycle.",
			ConstLabels: labels,
			Buckets:     prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
	}
}
