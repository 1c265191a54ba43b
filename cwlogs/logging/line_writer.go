// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package logging

import (
	"bytes"
	"sync"

	"github.com/ioconnectservices/cloudwatch-dispatch/cwlogs/clock"
)

// LineWriter is an io.Writer that appends every newline terminated line it receives as
// one record stamped with the current time. Text after the last newline is kept until
// the next Write or Close.
type LineWriter struct {
	mu       sync.Mutex
	appender Appender
	clk      clock.Clock
	partial  []byte
}

// NewLineWriter returns a LineWriter. A nil clk means the wall clock.
func NewLineWriter(appender Appender, clk clock.Clock) *LineWriter {
	if clk == nil {
		clk = clock.Real()
	}
	return &LineWriter{appender: appender, clk: clk}
}

// Write always consumes the whole buffer; dropped lines are accounted by the appender.
func (w *LineWriter) Write(buf []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	data := buf
	for {
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			w.partial = append(w.partial, data...)
			return len(buf), nil
		}
		w.partial = append(w.partial, data[:i]...)
		w.emit()
		data = data[i+1:]
	}
}

// Close appends the pending partial line, if any.
func (w *LineWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.emit()
	return nil
}

func (w *LineWriter) emit() {
	line := bytes.TrimRight(w.partial, "\r")
	if len(line) > 0 {
		w.appender.Append(w.clk.Now().UnixMilli(), string(line))
	}
	w.partial = w.partial[:0]
}
