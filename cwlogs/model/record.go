// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package model

import "fmt"

// Record is a single timestamped log message travelling through the dispatcher.
// Timestamp is in milliseconds since the Unix epoch.
type Record struct {
	Timestamp int64  `json:"timestamp"`
	Message   string `json:"message"`
}

// NewRecord returns a new Record
func NewRecord(timestampMillis int64, message string) Record {
	return Record{Timestamp: timestampMillis, Message: message}
}

// Destination identifies a log group/stream pair. The dispatcher treats it as opaque.
type Destination struct {
	Group  string `json:"group"`
	Stream string `json:"stream"`
}

func (d Destination) String() string {
	return fmt.Sprintf("%s/%s", d.Group, d.Stream)
}
