/*
 * Copyright 2025 The RuleGo Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package fallback

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rulego/datatidy/types"
)

// maxRecordedIndices bounds the row indices kept on one ErrorRecord
const maxRecordedIndices = 10

// ErrorRecord describes one failure during a run. Records are appended to
// the run's error log and never modified afterwards.
type ErrorRecord struct {
	Timestamp         time.Time           `json:"timestamp"`
	Column            string              `json:"column"`
	Category          types.ErrorCategory `json:"category"`
	ErrorType         string              `json:"error_type"`
	Message           string              `json:"error_message"`
	Stage             string              `json:"stage,omitempty"`
	Indices           []int               `json:"indices,omitempty"`
	TotalAffectedRows int                 `json:"total_affected_rows,omitempty"`
	Skipped           bool                `json:"skipped"`
}

// NewErrorRecord builds a record from err. The category and row indices are
// read from the error itself.
func NewErrorRecord(column string, err error, skipped bool) ErrorRecord {
	r := ErrorRecord{
		Timestamp: time.Now(),
		Column:    column,
		Category:  types.CategoryOf(err),
		ErrorType: errorType(err),
		Message:   err.Error(),
		Skipped:   skipped,
	}
	var e *types.Error
	if errors.As(err, &e) {
		r.Stage = e.Stage
	}
	if indices := types.IndicesOf(err); len(indices) > 0 {
		r.TotalAffectedRows = len(indices)
		if len(indices) > maxRecordedIndices {
			indices = indices[:maxRecordedIndices]
		}
		r.Indices = append([]int(nil), indices...)
	}
	return r
}

// errorType names the first cause that is not a *types.Error,
// e.g. "*expr.EvalError"
func errorType(err error) string {
	for cur := err; cur != nil; cur = errors.Unwrap(cur) {
		if _, ok := cur.(*types.Error); !ok {
			return fmt.Sprintf("%T", cur)
		}
	}
	return fmt.Sprintf("%T", err)
}

// ErrorSink receives error records as they are produced
type ErrorSink interface {
	Record(r ErrorRecord)
}

// ErrorLog is an in-memory ErrorSink safe for concurrent use
type ErrorLog struct {
	mu      sync.Mutex
	records []ErrorRecord
}

func NewErrorLog() *ErrorLog {
	return &ErrorLog{}
}

func (l *ErrorLog) Record(r ErrorRecord) {
	l.mu.Lock()
	l.records = append(l.records, r)
	l.mu.Unlock()
}

// Records returns a copy of the records in the order they were added
func (l *ErrorLog) Records() []ErrorRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]ErrorRecord, len(l.records))
	copy(out, l.records)
	return out
}

func (l *ErrorLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// MultiSink returns a sink forwarding every record to each non-nil sink
func MultiSink(sinks ...ErrorSink) ErrorSink {
	var m multiSink
	for _, s := range sinks {
		if s != nil {
			m = append(m, s)
		}
	}
	return m
}

type multiSink []ErrorSink

func (m multiSink) Record(r ErrorRecord) {
	for _, s := range m {
		s.Record(r)
	}
}
