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

package window

import (
	"fmt"
	"strings"

	"github.com/rulego/datatidy/aggregator"
	"github.com/rulego/datatidy/utils/cast"
	"github.com/rulego/datatidy/utils/queue"
)

// RollingWindow is a positional window over the last Size values
type RollingWindow struct {
	size   int
	buffer *queue.Queue
	nulls  int
}

// NewRollingWindow creates a rolling window of the given size
func NewRollingWindow(size int) (*RollingWindow, error) {
	if size <= 0 {
		return nil, fmt.Errorf("window size must be a positive integer, got: %d", size)
	}
	return &RollingWindow{size: size, buffer: queue.NewCircleQueue(size)}, nil
}

// Add pushes the next value, evicting the oldest one once the window is full
func (w *RollingWindow) Add(v any) {
	if cast.IsNull(v) {
		w.nulls++
	}
	if old, evicted := w.buffer.Slide(v); evicted && cast.IsNull(old) {
		w.nulls--
	}
}

// Full reports whether the window holds Size values
func (w *RollingWindow) Full() bool {
	return w.buffer.IsFull()
}

// HasNull reports whether any value in the window is null
func (w *RollingWindow) HasNull() bool {
	return w.nulls > 0
}

// Values returns the window contents from oldest to newest
func (w *RollingWindow) Values() []any {
	return w.buffer.Values()
}

func (w *RollingWindow) Size() int {
	return w.size
}

// Reset empties the window
func (w *RollingWindow) Reset() {
	w.buffer.Reset()
	w.nulls = 0
}

// Apply slides a window of size over values and calls fn for every full
// window. Rows before the first full window yield null. The output has the
// same length as values.
func Apply(values []any, size int, fn func(window []any, hasNull bool) (any, error)) ([]any, error) {
	w, err := NewRollingWindow(size)
	if err != nil {
		return nil, err
	}
	out := make([]any, len(values))
	for i, v := range values {
		w.Add(v)
		if !w.Full() {
			continue
		}
		r, err := fn(w.Values(), w.HasNull())
		if err != nil {
			return nil, fmt.Errorf("window ending at row %d: %w", i, err)
		}
		out[i] = r
	}
	return out, nil
}

// Aggregate computes a named rolling aggregate. A window containing a null
// yields null, except for count which counts the non-null values.
func Aggregate(values []any, size int, aggType aggregator.AggregateType) ([]any, error) {
	if _, err := aggregator.CreateBuiltinAggregator(aggType); err != nil {
		return nil, err
	}
	isCount := strings.EqualFold(strings.TrimSpace(string(aggType)), string(aggregator.Count))
	return Apply(values, size, func(window []any, hasNull bool) (any, error) {
		if hasNull && !isCount {
			return nil, nil
		}
		return aggregator.Aggregate(aggType, window)
	})
}
