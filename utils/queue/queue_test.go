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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue(t *testing.T) {
	q := NewCircleQueue(3)
	assert.True(t, q.IsEmpty())
	_, ok := q.Pop()
	assert.False(t, ok)

	require.NoError(t, q.Push(1))
	require.NoError(t, q.Push("b"))
	require.NoError(t, q.Push(nil))
	assert.True(t, q.IsFull())
	assert.ErrorIs(t, q.Push(4), ErrFull)
	assert.Equal(t, []any{1, "b", nil}, q.Values())

	x, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, 1, x)
	require.NoError(t, q.Push(4))
	assert.Equal(t, []any{"b", nil, 4}, q.Values())

	back, ok := q.Back()
	require.True(t, ok)
	assert.Equal(t, 4, back)
	assert.Equal(t, 3, q.Count())

	q.Reset()
	assert.True(t, q.IsEmpty())
	assert.Empty(t, q.Values())
}

func TestSlide(t *testing.T) {
	q := NewCircleQueue(2)
	_, evicted := q.Slide(1)
	assert.False(t, evicted)
	q.Slide(2)
	old, evicted := q.Slide(3)
	assert.True(t, evicted)
	assert.Equal(t, 1, old)
	assert.Equal(t, []any{2, 3}, q.Values())
	assert.Equal(t, 2, q.Cap())
}
