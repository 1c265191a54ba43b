// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package cloudwatch delivers planned batches to Amazon CloudWatch Logs.
package cloudwatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
	"github.com/aws/smithy-go"
	"github.com/cenkalti/backoff/v4"
	log "github.com/sirupsen/logrus"

	"github.com/ioconnectservices/cloudwatch-dispatch/cwlogs/model"
)

// ErrGroupNotFound is returned by CheckGroup when no log group has exactly the requested name
var ErrGroupNotFound = errors.New("log group not found")

// API is the part of *cloudwatchlogs.Client the transport uses
type API interface {
	PutLogEvents(ctx context.Context, params *cloudwatchlogs.PutLogEventsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.PutLogEventsOutput, error)
	CreateLogStream(ctx context.Context, params *cloudwatchlogs.CreateLogStreamInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogStreamOutput, error)
	DescribeLogGroups(ctx context.Context, params *cloudwatchlogs.DescribeLogGroupsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.DescribeLogGroupsOutput, error)
}

var _ API = (*cloudwatchlogs.Client)(nil)

// Options controls how throttled PutLogEvents calls are retried.
type Options struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	// MaxElapsed bounds the total time spent retrying one batch. Zero disables retries.
	MaxElapsed time.Duration
}

// DefaultOptions retries a throttled batch for up to 10s.
var DefaultOptions = Options{
	InitialInterval: 200 * time.Millisecond,
	MaxInterval:     2 * time.Second,
	MaxElapsed:      10 * time.Second,
}

// Transport sends batches to CloudWatch Logs with PutLogEvents.
type Transport struct {
	api  API
	opts Options
}

// New returns a Transport calling api and retrying throttled calls as opts describe.
func New(api API, opts Options) *Transport {
	return &Transport{api: api, opts: opts}
}

// NewFromConfig builds a CloudWatch Logs client from the default credential chain, or
// from static credentials when both access and secret are given.
func NewFromConfig(ctx context.Context, region, access, secret string) (*cloudwatchlogs.Client, error) {
	var loadOpts []func(*config.LoadOptions) error
	if region != "" {
		loadOpts = append(loadOpts, config.WithRegion(region))
	}
	if access != "" && secret != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(access, secret, "")))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("could not load AWS configuration: %w", err)
	}
	return cloudwatchlogs.NewFromConfig(cfg), nil
}

// CheckGroup verifies that a log group named exactly group exists.
func (t *Transport) CheckGroup(ctx context.Context, group string) error {
	paginator := cloudwatchlogs.NewDescribeLogGroupsPaginator(t.api, &cloudwatchlogs.DescribeLogGroupsInput{
		LogGroupNamePrefix: aws.String(group),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("could not describe log groups: %w", err)
		}
		for _, g := range page.LogGroups {
			if aws.ToString(g.LogGroupName) == group {
				return nil
			}
		}
	}
	return fmt.Errorf("%w: %s", ErrGroupNotFound, group)
}

// EnsureStream creates the destination stream unless it already exists.
func (t *Transport) EnsureStream(ctx context.Context, dst model.Destination) error {
	_, err := t.api.CreateLogStream(ctx, &cloudwatchlogs.CreateLogStreamInput{
		LogGroupName:  aws.String(dst.Group),
		LogStreamName: aws.String(dst.Stream),
	})
	var exists *types.ResourceAlreadyExistsException
	if err != nil && !errors.As(err, &exists) {
		return fmt.Errorf("could not create log stream %s: %w", dst, err)
	}
	return nil
}

// Send puts batch into the destination stream. Only throttling errors are retried.
func (t *Transport) Send(ctx context.Context, dst model.Destination, batch []model.Record) error {
	input := &cloudwatchlogs.PutLogEventsInput{
		LogGroupName:  aws.String(dst.Group),
		LogStreamName: aws.String(dst.Stream),
		LogEvents:     make([]types.InputLogEvent, len(batch)),
	}
	for i, r := range batch {
		input.LogEvents[i] = types.InputLogEvent{
			Timestamp: aws.Int64(r.Timestamp),
			Message:   aws.String(r.Message),
		}
	}

	var out *cloudwatchlogs.PutLogEventsOutput
	attempt := 0
	op := func() error {
		attempt++
		var err error
		out, err = t.api.PutLogEvents(ctx, input)
		if err == nil {
			return nil
		}
		if !isThrottled(err) {
			return backoff.Permanent(err)
		}
		log.WithError(err).WithField("destination", dst.String()).Debugf("PutLogEvents throttled on attempt %d", attempt)
		return err
	}

	if err := backoff.Retry(op, backoff.WithContext(t.newBackOff(), ctx)); err != nil {
		return fmt.Errorf("could not put %d log events to %s: %w", len(batch), dst, err)
	}

	if out == nil || out.RejectedLogEventsInfo == nil {
		return nil
	}
	info := out.RejectedLogEventsInfo
	log.WithFields(log.Fields{
		"destination":    dst.String(),
		"tooOldEndIndex": aws.ToInt32(info.TooOldLogEventEndIndex),
		"tooNewStart":    aws.ToInt32(info.TooNewLogEventStartIndex),
		"expiredEnd":     aws.ToInt32(info.ExpiredLogEventEndIndex),
	}).Warn("CloudWatch rejected some log events")
	return nil
}

func (t *Transport) newBackOff() backoff.BackOff {
	if t.opts.MaxElapsed <= 0 {
		return &backoff.StopBackOff{}
	}
	b := backoff.NewExponentialBackOff()
	if t.opts.InitialInterval > 0 {
		b.InitialInterval = t.opts.InitialInterval
	}
	if t.opts.MaxInterval > 0 {
		b.MaxInterval = t.opts.MaxInterval
	}
	b.MaxElapsedTime = t.opts.MaxElapsed
	return b
}

func isThrottled(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.ErrorCode() {
	case "ThrottlingException", "ServiceUnavailableException":
		return true
	}
	return false
}
