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

package queue

import (
	"errors"
)

// ErrFull is returned by Push on a full queue
var ErrFull = errors.New("queue is full")

// Queue is a fixed-capacity circular queue of values. It is not safe for
// concurrent use.
type Queue struct {
	data  []any
	head  int // index of the oldest element
	tail  int // index of the next write
	cap   int
	count int
}

// NewCircleQueue creates a queue holding at most size elements
func NewCircleQueue(size int) *Queue {
	if size < 1 {
		size = 1
	}
	return &Queue{data: make([]any, size), cap: size}
}

func (q *Queue) IsEmpty() bool {
	return q.count == 0
}

func (q *Queue) IsFull() bool {
	return q.count == q.cap
}

// Push appends x at the tail, failing when the queue is full
func (q *Queue) Push(x any) error {
	if q.IsFull() {
		return ErrFull
	}
	q.data[q.tail] = x
	q.tail = (q.tail + 1) % q.cap
	q.count++
	return nil
}

// Slide appends x, evicting the oldest element when the queue is full.
// It returns the evicted element.
func (q *Queue) Slide(x any) (any, bool) {
	var evicted any
	full := q.IsFull()
	if full {
		evicted, _ = q.Pop()
	}
	q.data[q.tail] = x
	q.tail = (q.tail + 1) % q.cap
	q.count++
	return evicted, full
}

// Pop removes and returns the oldest element
func (q *Queue) Pop() (any, bool) {
	if q.IsEmpty() {
		return nil, false
	}
	x := q.data[q.head]
	q.data[q.head] = nil
	q.head = (q.head + 1) % q.cap
	q.count--
	return x, true
}

// Back returns the newest element without removing it
func (q *Queue) Back() (any, bool) {
	if q.IsEmpty() {
		return nil, false
	}
	return q.data[(q.tail-1+q.cap)%q.cap], true
}

// Values returns a copy of the elements from oldest to newest
func (q *Queue) Values() []any {
	out := make([]any, q.count)
	for i := 0; i < q.count; i++ {
		out[i] = q.data[(q.head+i)%q.cap]
	}
	return out
}

// Reset empties the queue without releasing its storage
func (q *Queue) Reset() {
	for i := range q.data {
		q.data[i] = nil
	}
	q.head, q.tail, q.count = 0, 0, 0
}

func (q *Queue) Count() int {
	return q.count
}

func (q *Queue) Cap() int {
	return q.cap
}
