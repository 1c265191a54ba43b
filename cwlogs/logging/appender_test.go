// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package logging

import (
	"sync"

	"github.com/ioconnectservices/cloudwatch-dispatch/cwlogs/model"
)

type recordingAppender struct {
	mu      sync.Mutex
	records []model.Record
	accept  bool
}

func newRecordingAppender() *recordingAppender {
	return &recordingAppender{accept: true}
}

func (a *recordingAppender) Append(timestampMillis int64, message string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = append(a.records, model.NewRecord(timestampMillis, message))
	return a.accept
}

func (a *recordingAppender) messages() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.records))
	for i, r := range a.records {
		out[i] = r.Message
	}
	return out
}
