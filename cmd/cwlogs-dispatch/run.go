// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ioconnectservices/cloudwatch-dispatch/cwlogs/config"
	"github.com/ioconnectservices/cloudwatch-dispatch/cwlogs/dispatcher"
	"github.com/ioconnectservices/cloudwatch-dispatch/cwlogs/instance"
	"github.com/ioconnectservices/cloudwatch-dispatch/cwlogs/logging"
	"github.com/ioconnectservices/cloudwatch-dispatch/cwlogs/model"
	"github.com/ioconnectservices/cloudwatch-dispatch/cwlogs/status"
	"github.com/ioconnectservices/cloudwatch-dispatch/cwlogs/transport"
	"github.com/ioconnectservices/cloudwatch-dispatch/cwlogs/transport/cloudwatch"
)

// run dispatches the lines read from in until in is exhausted or ctx is cancelled.
// The stdout transport writes to out.
func run(ctx context.Context, opts config.Options, in io.Reader, out io.Writer) error {
	if opts.Disabled() && opts.Transport == config.TransportCloudWatch {
		log.Warn("No log group configured, writing records to stdout")
		opts.Transport = config.TransportStdout
	}
	if err := opts.Validate(); err != nil {
		return err
	}

	dst, err := resolveDestination(ctx, opts)
	if err != nil {
		return err
	}

	tr, closeTransport, err := newTransport(ctx, opts, dst, out)
	if err != nil {
		return err
	}
	defer closeTransport()

	d, err := dispatcher.New(dispatcher.Config{
		Capacity:      opts.Capacity,
		FlushInterval: opts.FlushInterval(),
		Destination:   dst,
		SendTimeout:   opts.SendTimeout,
	}, tr)
	if err != nil {
		return err
	}

	if opts.ShipInternalLogs {
		log.AddHook(logging.NewHook(d,
			logging.WithLevels(log.PanicLevel, log.FatalLevel, log.ErrorLevel, log.WarnLevel),
			logging.WithSkipFields(dispatcher.CycleField)))
	}

	d.Start()
	log.WithFields(log.Fields{
		"destination": dst.String(),
		"transport":   opts.Transport,
	}).Info("Dispatching standard input")

	serveCtx, cancelServe := context.WithCancel(ctx)
	defer cancelServe()
	g, gctx := errgroup.WithContext(serveCtx)

	if opts.StatusAddr != "" {
		srv := status.NewServer(opts.StatusAddr, d)
		if err := srv.Listen(); err != nil {
			d.Stop()
			return fmt.Errorf("could not start status server: %w", err)
		}
		g.Go(func() error { return srv.Serve(gctx) })
	}

	// Reading stdin cannot be interrupted, so the pump is left behind on cancellation.
	inputDone := make(chan error, 1)
	go func() { inputDone <- pump(in, d) }()

	var inputErr error
	select {
	case inputErr = <-inputDone:
		log.Debug("Standard input closed")
	case <-gctx.Done():
		log.Info("Shutting down")
	}

	d.Stop()
	cancelServe()
	serveErr := g.Wait()

	stats := d.Stats()
	log.WithFields(log.Fields{
		"accepted": stats.Accepted,
		"flushed":  stats.Flushed,
		"failed":   stats.FailedRecords,
		"lost":     stats.Lost,
	}).Info("Dispatcher stopped")

	if inputErr != nil {
		return fmt.Errorf("could not read input: %w", inputErr)
	}
	return serveErr
}

func pump(in io.Reader, appender logging.Appender) error {
	w := logging.NewLineWriter(appender, nil)
	_, err := io.Copy(w, in)
	if closeErr := w.Close(); err == nil {
		err = closeErr
	}
	return err
}

func resolveDestination(ctx context.Context, opts config.Options) (model.Destination, error) {
	name := opts.Instance
	if name == "" {
		var err error
		if name, err = instance.Resolve(ctx, instance.Options{}); err != nil {
			return model.Destination{}, err
		}
	}
	return model.Destination{
		Group:  opts.Group,
		Stream: config.StreamName(opts.StreamPrefix, name, opts.StreamPostfix),
	}, nil
}

func newTransport(ctx context.Context, opts config.Options, dst model.Destination, out io.Writer) (dispatcher.Transport, func(), error) {
	noop := func() {}

	switch opts.Transport {
	case config.TransportCloudWatch:
		client, err := cloudwatch.NewFromConfig(ctx, opts.Region, opts.Access, opts.Secret)
		if err != nil {
			return nil, nil, err
		}
		cw := cloudwatch.New(client, cloudwatch.DefaultOptions)
		if err := cw.CheckGroup(ctx, dst.Group); err != nil {
			return nil, nil, err
		}
		if err := cw.EnsureStream(ctx, dst); err != nil {
			return nil, nil, err
		}
		return cw, noop, nil

	case config.TransportStdout:
		return transport.NewWriterTransport(out), noop, nil

	case config.TransportTCP, config.TransportHTTP:
		protocol := transport.ProtocolTCP
		if opts.Transport == config.TransportHTTP {
			protocol = transport.ProtocolHTTP
		}
		fwd, err := transport.NewForwarder(transport.Destination{
			Protocol: protocol,
			URI:      opts.RelayURI,
			Port:     opts.RelayPort,
		})
		if err != nil {
			return nil, nil, err
		}
		return fwd, func() {
			if err := fwd.Close(); err != nil {
				log.WithError(err).Warn("Failed to close relay connection")
			}
		}, nil
	}
	return nil, nil, fmt.Errorf("unknown transport %q", opts.Transport)
}
