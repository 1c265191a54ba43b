// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package config resolves dispatcher settings. Every setting is looked up on the command
// line, then in the environment (including .env files), then in the YAML file named by
// --config, and finally falls back to its default.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	TransportCloudWatch = "cloudwatch"
	TransportStdout     = "stdout"
	TransportTCP        = "tcp"
	TransportHTTP       = "http"
)

var (
	ErrMissingGroup    = errors.New("a log group is required for the cloudwatch transport")
	ErrInvalidCapacity = errors.New("capacity must be positive")
	ErrInvalidSpan     = errors.New("span must be positive")
)

// Options holds every dispatcher setting.
type Options struct {
	LogLevel   string `long:"log-level" env:"LOG_LEVEL" default:"info" description:"log level"`
	ConfigFile string `long:"config" env:"AWS_CLOUDWATCH_CONFIG" description:"YAML file supplying settings not given as flags or environment"`

	Group         string `long:"group" env:"AWS_CLOUDWATCH_GROUP" description:"CloudWatch log group, must already exist"`
	StreamPrefix  string `long:"stream-prefix" env:"AWS_CLOUDWATCH_STREAM_PREFIX" description:"text placed before the instance name in the stream name"`
	StreamPostfix string `long:"stream-postfix" env:"AWS_CLOUDWATCH_STREAM_POSTFIX" description:"text placed after the instance name in the stream name"`
	Instance      string `long:"instance" env:"AWS_CLOUDWATCH_INSTANCE" description:"instance name, discovered from EC2 metadata or the hostname when empty"`

	Access string `long:"access" env:"AWS_CLOUDWATCH_ACCESS" description:"static AWS access key id"`
	Secret string `long:"secret" env:"AWS_CLOUDWATCH_SECRET" description:"static AWS secret access key"`
	Region string `long:"region" env:"AWS_REGION" description:"AWS region, taken from the shared configuration when empty"`

	Capacity    int           `long:"capacity" env:"AWS_CLOUDWATCH_CAPACITY" default:"10000" description:"records held by each of the two buffers"`
	Span        int           `long:"span" env:"AWS_CLOUDWATCH_SPAN" default:"60" description:"seconds between scheduled flushes"`
	SendTimeout time.Duration `long:"send-timeout" env:"AWS_CLOUDWATCH_SEND_TIMEOUT" default:"30s" description:"bound on delivering one batch"`

	Transport string `long:"transport" env:"AWS_CLOUDWATCH_TRANSPORT" default:"cloudwatch" choice:"cloudwatch" choice:"stdout" choice:"tcp" choice:"http" description:"where batches are delivered"`
	RelayURI  string `long:"relay-uri" env:"AWS_CLOUDWATCH_RELAY_URI" description:"relay URI for the http transport"`
	RelayPort uint16 `long:"relay-port" env:"AWS_CLOUDWATCH_RELAY_PORT" description:"local relay port for the tcp transport"`

	StatusAddr       string `long:"status-addr" env:"AWS_CLOUDWATCH_STATUS_ADDR" description:"address of the status HTTP server, disabled when empty"`
	ShipInternalLogs bool   `long:"ship-internal-logs" env:"AWS_CLOUDWATCH_SHIP_INTERNAL_LOGS" description:"also dispatch the warnings and errors of this process"`
}

// Parse resolves Options from args, which must not include the program name. The
// given .env files are loaded first; with none, ./.env is loaded if it exists.
// Variables already present in the environment are never overridden by .env files.
func Parse(args []string, envFiles ...string) (Options, []string, error) {
	if err := loadEnvFiles(envFiles); err != nil {
		return Options{}, nil, err
	}

	var pre struct {
		ConfigFile string `long:"config" env:"AWS_CLOUDWATCH_CONFIG"`
	}
	if _, err := flags.NewParser(&pre, flags.IgnoreUnknown).ParseArgs(args); err != nil {
		return Options{}, nil, fmt.Errorf("could not parse arguments: %w", err)
	}

	var opts Options
	parser := flags.NewParser(&opts, flags.IgnoreUnknown)
	if pre.ConfigFile != "" {
		values, err := readFile(pre.ConfigFile)
		if err != nil {
			return Options{}, nil, err
		}
		if err := applyFileValues(parser, values); err != nil {
			return Options{}, nil, fmt.Errorf("invalid config file %s: %w", pre.ConfigFile, err)
		}
	}

	rest, err := parser.ParseArgs(args)
	if err != nil {
		return Options{}, nil, fmt.Errorf("could not parse arguments: %w", err)
	}
	return opts, rest, nil
}

func loadEnvFiles(files []string) error {
	if len(files) == 0 {
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
		files = []string{".env"}
	}
	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("could not load env files %v: %w", files, err)
	}
	return nil
}

func readFile(path string) (map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}
	values := map[string]interface{}{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("could not parse config file %s: %w", path, err)
	}
	return values, nil
}

// applyFileValues turns file values into option defaults, so environment variables and
// flags still take precedence over them.
func applyFileValues(parser *flags.Parser, values map[string]interface{}) error {
	for name, value := range values {
		option := parser.FindOptionByLongName(name)
		if option == nil {
			return fmt.Errorf("unknown setting %q", name)
		}
		if value == nil {
			continue
		}
		option.Default = []string{fmt.Sprint(value)}
	}
	return nil
}

// Disabled reports whether no log group is configured. The binary then falls back to
// the stdout transport instead of CloudWatch.
func (o Options) Disabled() bool {
	return o.Group == ""
}

// FlushInterval is Span as a duration.
func (o Options) FlushInterval() time.Duration {
	return time.Duration(o.Span) * time.Second
}

// Validate checks the settings the dispatcher cannot start without.
func (o Options) Validate() error {
	if o.Capacity <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidCapacity, o.Capacity)
	}
	if o.Span <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidSpan, o.Span)
	}
	switch o.Transport {
	case TransportCloudWatch:
		if o.Group == "" {
			return ErrMissingGroup
		}
	case TransportTCP:
		if o.RelayPort == 0 {
			return errors.New("the tcp transport requires --relay-port")
		}
	case TransportHTTP:
		if o.RelayURI == "" {
			return errors.New("the http transport requires --relay-uri")
		}
	}
	return nil
}

// StreamName joins the non-empty prefix, the instance and the non-empty postfix with "/".
func StreamName(prefix, instance, postfix string) string {
	s := instance
	if prefix != "" {
		s = prefix + "/" + s
	}
	if postfix != "" {
		s = s + "/" + postfix
	}
	return s
}
