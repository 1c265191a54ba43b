// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package instance names the host a stream belongs to: the EC2 instance id when the
// metadata service answers, the hostname otherwise.
package instance

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/ec2/imds"
	log "github.com/sirupsen/logrus"
)

const DefaultTimeout = 10 * time.Second

// Provider returns an identifier for the running host.
type Provider interface {
	InstanceID(ctx context.Context) (string, error)
}

// ProviderFunc adapts a function to a Provider.
type ProviderFunc func(ctx context.Context) (string, error)

func (f ProviderFunc) InstanceID(ctx context.Context) (string, error) {
	return f(ctx)
}

// MetadataAPI is the part of *imds.Client used to read the instance id
type MetadataAPI interface {
	GetMetadata(ctx context.Context, params *imds.GetMetadataInput, optFns ...func(*imds.Options)) (*imds.GetMetadataOutput, error)
}

var _ MetadataAPI = (*imds.Client)(nil)

type metadataProvider struct {
	api MetadataAPI
}

// NewMetadataProvider reads the instance id from the EC2 instance metadata service.
func NewMetadataProvider(api MetadataAPI) Provider {
	if api == nil {
		api = imds.New(imds.Options{})
	}
	return &metadataProvider{api: api}
}

func (p *metadataProvider) InstanceID(ctx context.Context) (string, error) {
	out, err := p.api.GetMetadata(ctx, &imds.GetMetadataInput{Path: "instance-id"})
	if err != nil {
		return "", fmt.Errorf("could not query instance metadata: %w", err)
	}
	defer out.Content.Close()

	body, err := io.ReadAll(out.Content)
	if err != nil {
		return "", fmt.Errorf("could not read instance id: %w", err)
	}
	id := strings.TrimSpace(string(body))
	if id == "" {
		return "", errors.New("instance metadata returned an empty instance id")
	}
	return id, nil
}

// Hostname is the fallback Provider.
var Hostname Provider = ProviderFunc(func(context.Context) (string, error) {
	return os.Hostname()
})

type Options struct {
	// Timeout bounds the metadata lookup. Zero means DefaultTimeout.
	Timeout  time.Duration
	Metadata Provider
	Fallback Provider
}

// Resolve returns the instance id reported by opts.Metadata, or the result of
// opts.Fallback when the metadata lookup fails or times out.
func Resolve(ctx context.Context, opts Options) (string, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Metadata == nil {
		opts.Metadata = NewMetadataProvider(nil)
	}
	if opts.Fallback == nil {
		opts.Fallback = Hostname
	}

	lookupCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	id, err := opts.Metadata.InstanceID(lookupCtx)
	if err == nil {
		return id, nil
	}
	log.WithError(err).Debug("Instance metadata unavailable, falling back to hostname")

	host, fallbackErr := opts.Fallback.InstanceID(ctx)
	if fallbackErr != nil {
		return "", fmt.Errorf("could not resolve instance name: %w", errors.Join(err, fallbackErr))
	}
	return host, nil
}
