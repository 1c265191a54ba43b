// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/ioconnectservices/cloudwatch-dispatch/cwlogs/config"
	"github.com/ioconnectservices/cloudwatch-dispatch/cwlogs/logging"
)

func main() {
	// More frequent GC reduces the tail latencies, equivalent to export GOGC=33
	debug.SetGCPercent(33)

	opts := getCLIArgs()
	logging.SetOutput(os.Stderr)
	logging.SetLogLevel(opts.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, os.Stdin, os.Stdout); err != nil {
		log.WithError(err).Fatal("cwlogs-dispatch failed")
	}
}

func getCLIArgs() config.Options {
	opts, _, err := config.Parse(os.Args[1:])
	if err != nil {
		log.WithError(err).Fatal("Failed to parse command line arguments:", os.Args)
	}
	return opts
}
