// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package logging

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// Appender accepts records without blocking. A false return means the record was dropped.
type Appender interface {
	Append(timestampMillis int64, message string) bool
}

// Hook ships the entries of a logrus logger through an Appender.
type Hook struct {
	appender  Appender
	formatter logrus.Formatter
	levels    []logrus.Level
	skip      []string
}

// HookOption customizes a Hook.
type HookOption func(*Hook)

// WithFormatter replaces the text formatter used to render a record message.
func WithFormatter(f logrus.Formatter) HookOption {
	return func(h *Hook) {
		h.formatter = f
	}
}

// WithLevels restricts the hook to the given levels.
func WithLevels(levels ...logrus.Level) HookOption {
	return func(h *Hook) {
		h.levels = levels
	}
}

// WithSkipFields drops entries carrying any of the given fields. A dispatcher shipping
// its own logs uses it to keep its flush failures out of its buffers.
func WithSkipFields(keys ...string) HookOption {
	return func(h *Hook) {
		h.skip = keys
	}
}

// NewHook returns a Hook firing on every level with a logrus text formatter.
func NewHook(appender Appender, opts ...HookOption) *Hook {
	h := &Hook{
		appender:  appender,
		formatter: &logrus.TextFormatter{DisableColors: true, FullTimestamp: true},
		levels:    logrus.AllLevels,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Hook) Levels() []logrus.Level {
	return h.levels
}

// Fire never reports a dropped record as an error, so logging is not disturbed by loss.
func (h *Hook) Fire(entry *logrus.Entry) error {
	for _, key := range h.skip {
		if _, ok := entry.Data[key]; ok {
			return nil
		}
	}

	line, err := h.formatter.Format(entry)
	if err != nil {
		return err
	}
	h.appender.Append(entry.Time.UnixMilli(), strings.TrimRight(string(line), "\n"))
	return nil
}
